// ABOUTME: Chat message types for the scripture conversation
// ABOUTME: Messages are immutable once appended to a Store
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one entry in the conversation
type Message struct {
	ID          string    `json:"id"`
	Role        Role      `json:"role"`
	Text        string    `json:"text"`
	AudioBase64 string    `json:"audioBase64,omitempty"`
	Failed      bool      `json:"failed,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewMessage creates a message with a fresh ID
func NewMessage(role Role, text string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// HasAudio reports whether the message carries a speech payload
func (m Message) HasAudio() bool {
	return m.AudioBase64 != ""
}
