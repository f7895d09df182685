// ABOUTME: Conversation flow between the user, the chat session and speech synthesis
// ABOUTME: Appends replies with audio, error messages on failure, and supports retry
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
)

const (
	// WelcomeText opens every conversation
	WelcomeText = "Bienvenido, amado hermano. Soy tu Siervo de Dios. ¿Qué inquietud o texto bíblico deseas que escudriñemos hoy juntos?"

	// FallbackReply replaces an empty model reply
	FallbackReply = "No he podido recibir la palabra en este momento."

	// ErrorReply is appended when the chat request fails
	ErrorReply = "Hermanito, ha ocurrido un obstáculo en nuestra conexión. Por favor, asegúrate de que la clave de API sea válida o intenta de nuevo en unos momentos."
)

var (
	ErrEmptyMessage   = errors.New("empty message")
	ErrBusy           = errors.New("a reply is already pending")
	ErrNothingToRetry = errors.New("nothing to retry")
	ErrAlreadyStarted = errors.New("conversation already started")
)

// Session is a stateful chat with the model
type Session interface {
	Send(ctx context.Context, text string) (string, error)
}

// Speaker turns text into an encoded speech payload (base64 PCM)
type Speaker interface {
	Speak(ctx context.Context, text string) (string, error)
}

// Conversation owns the session, the speaker and the message log
type Conversation struct {
	session Session
	speaker Speaker
	store   *Store

	mu        sync.Mutex
	started   bool
	pending   bool
	retryText string
}

// NewConversation creates a conversation. speaker may be nil, in which
// case replies carry no audio.
func NewConversation(session Session, speaker Speaker, store *Store) *Conversation {
	if store == nil {
		store = NewStore()
	}
	return &Conversation{
		session: session,
		speaker: speaker,
		store:   store,
	}
}

// Store returns the message log
func (c *Conversation) Store() *Store {
	return c.store
}

// Pending reports whether a reply is in flight
func (c *Conversation) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// CanRetry reports whether the last request failed
func (c *Conversation) CanRetry() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryText != ""
}

// Start appends the spoken welcome message
func (c *Conversation) Start(ctx context.Context) (Message, error) {
	if err := c.begin(); err != nil {
		return Message{}, err
	}
	defer c.end()

	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return Message{}, ErrAlreadyStarted
	}
	c.mu.Unlock()

	msg := NewMessage(RoleModel, WelcomeText)
	msg.AudioBase64 = c.speak(ctx, WelcomeText)
	c.store.Append(msg)

	c.mu.Lock()
	c.started = true
	c.mu.Unlock()

	return msg, nil
}

// Send appends the user's text, asks the session, and appends the reply.
// On session failure the error reply is appended and returned with the error.
func (c *Conversation) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	if err := c.begin(); err != nil {
		return Message{}, err
	}
	defer c.end()

	c.store.Append(NewMessage(RoleUser, text))
	return c.exchange(ctx, text)
}

// Retry resends the text of the last failed request
func (c *Conversation) Retry(ctx context.Context) (Message, error) {
	if err := c.begin(); err != nil {
		return Message{}, err
	}
	defer c.end()

	c.mu.Lock()
	text := c.retryText
	c.mu.Unlock()

	if text == "" {
		return Message{}, ErrNothingToRetry
	}
	return c.exchange(ctx, text)
}

// exchange runs one request/reply round (caller holds the pending flag)
func (c *Conversation) exchange(ctx context.Context, text string) (Message, error) {
	reply, err := c.session.Send(ctx, text)
	if err != nil {
		log.Printf("Chat request failed: %v", err)

		c.mu.Lock()
		c.retryText = text
		c.mu.Unlock()

		msg := NewMessage(RoleModel, ErrorReply)
		msg.Failed = true
		c.store.Append(msg)
		return msg, fmt.Errorf("chat request failed: %w", err)
	}

	c.mu.Lock()
	c.retryText = ""
	c.mu.Unlock()

	if strings.TrimSpace(reply) == "" {
		reply = FallbackReply
	}

	msg := NewMessage(RoleModel, reply)
	msg.AudioBase64 = c.speak(ctx, reply)
	c.store.Append(msg)
	return msg, nil
}

// speak synthesizes text; failures leave the message without audio
func (c *Conversation) speak(ctx context.Context, text string) string {
	if c.speaker == nil {
		return ""
	}

	audio, err := c.speaker.Speak(ctx, text)
	if err != nil {
		log.Printf("Speech synthesis failed, keeping text only: %v", err)
		return ""
	}
	return audio
}

func (c *Conversation) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending {
		return ErrBusy
	}
	c.pending = true
	return nil
}

func (c *Conversation) end() {
	c.mu.Lock()
	c.pending = false
	c.mu.Unlock()
}
