// ABOUTME: WebSocket client for a siervo web server
// ABOUTME: Sends chat frames and routes replies to typed channels
package client

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/siervo-de-dios/siervo-go/internal/protocol"
)

// Config holds client configuration
type Config struct {
	// ServerAddr is host:port or a full ws:// URL
	ServerAddr string
	Path       string
}

// Client represents a WebSocket client
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	// Message channels
	Ready    chan protocol.SessionReady
	Pending  chan protocol.ChatPending
	Messages chan protocol.ChatMessage
	Errors   chan protocol.ChatError

	// State
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	if config.Path == "" {
		config.Path = "/ws"
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:   config,
		Ready:    make(chan protocol.SessionReady, 1),
		Pending:  make(chan protocol.ChatPending, 10),
		Messages: make(chan protocol.ChatMessage, 10),
		Errors:   make(chan protocol.ChatError, 10),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// URL returns the websocket URL the client dials
func (c *Client) URL() string {
	if strings.HasPrefix(c.config.ServerAddr, "ws://") || strings.HasPrefix(c.config.ServerAddr, "wss://") {
		return c.config.ServerAddr
	}
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: c.config.Path}
	return u.String()
}

// Connect establishes the WebSocket connection and starts the reader
func (c *Client) Connect() error {
	target := c.URL()
	log.Printf("Connecting to %s", target)

	conn, _, err := websocket.DefaultDialer.DialContext(c.ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readMessages()

	return nil
}

// Send sends user text
func (c *Client) Send(text string) error {
	return c.sendJSON(protocol.Message{
		Type:    protocol.TypeChatSend,
		Payload: protocol.ChatSend{Text: text},
	})
}

// Retry asks the server to repeat the last failed request
func (c *Client) Retry() error {
	return c.sendJSON(protocol.Message{Type: protocol.TypeChatRetry})
}

// sendJSON sends a JSON message
func (c *Client) sendJSON(msg protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	return c.conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				log.Printf("Read error: %v", err)
			}
			return
		}

		if messageType == websocket.TextMessage {
			c.handleJSONMessage(data)
		}
	}
}

// handleJSONMessage routes JSON messages
func (c *Client) handleJSONMessage(data []byte) {
	in, err := protocol.Parse(data)
	if err != nil {
		log.Printf("Failed to parse JSON message: %v", err)
		return
	}

	switch in.Type {
	case protocol.TypeSessionReady:
		var ready protocol.SessionReady
		if decodeInto(in, &ready) {
			deliver(c.ctx, c.Ready, ready)
		}

	case protocol.TypeChatPending:
		var pending protocol.ChatPending
		if decodeInto(in, &pending) {
			deliver(c.ctx, c.Pending, pending)
		}

	case protocol.TypeChatMessage:
		var msg protocol.ChatMessage
		if decodeInto(in, &msg) {
			deliver(c.ctx, c.Messages, msg)
		}

	case protocol.TypeChatError:
		var chatErr protocol.ChatError
		if decodeInto(in, &chatErr) {
			deliver(c.ctx, c.Errors, chatErr)
		}

	default:
		log.Printf("Unknown message type: %s", in.Type)
	}
}

func decodeInto(in protocol.Inbound, v interface{}) bool {
	if err := in.DecodePayload(v); err != nil {
		log.Printf("Dropping frame: %v", err)
		return false
	}
	return true
}

func deliver[T any](ctx context.Context, ch chan T, v T) {
	select {
	case ch <- v:
	case <-ctx.Done():
	}
}

// Done is closed when the connection ends
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
