// ABOUTME: Web chat protocol message type definitions
// ABOUTME: JSON frames exchanged over the /ws websocket
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/siervo-de-dios/siervo-go/internal/chat"
)

// Frame types
const (
	TypeSessionReady = "session/ready"
	TypeChatSend     = "chat/send"
	TypeChatRetry    = "chat/retry"
	TypeChatPending  = "chat/pending"
	TypeChatMessage  = "chat/message"
	TypeChatError    = "chat/error"
)

// Message is the top-level wrapper for outbound frames
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Inbound is the top-level wrapper for frames read from clients
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SessionReady is sent once the conversation has started
type SessionReady struct {
	ConnectionID string       `json:"connection_id"`
	Welcome      chat.Message `json:"welcome"`
	SampleRate   int          `json:"sample_rate"`
	Channels     int          `json:"channels"`
	BitDepth     int          `json:"bit_depth"`
}

// ChatSend carries user text
type ChatSend struct {
	Text string `json:"text"`
}

// ChatPending acknowledges a request while the reply is generated
type ChatPending struct {
	Text string `json:"text,omitempty"`
}

// ChatMessage carries one conversation message
type ChatMessage struct {
	Message  chat.Message `json:"message"`
	AudioURL string       `json:"audio_url,omitempty"`
}

// ChatError reports a failed request
type ChatError struct {
	Error   string        `json:"error"`
	Retry   bool          `json:"retry"`
	Message *chat.Message `json:"message,omitempty"`
}

// Parse reads an inbound frame
func Parse(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("invalid frame: %w", err)
	}
	if in.Type == "" {
		return in, fmt.Errorf("invalid frame: missing type")
	}
	return in, nil
}

// DecodePayload unmarshals the frame payload into v
func (in Inbound) DecodePayload(v interface{}) error {
	if len(in.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", in.Type)
	}
	if err := json.Unmarshal(in.Payload, v); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", in.Type, err)
	}
	return nil
}
