// ABOUTME: Per-connection chat handling for the web server
// ABOUTME: One conversation per websocket, replies pushed as JSON frames
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/siervo-de-dios/siervo-go/internal/chat"
	"github.com/siervo-de-dios/siervo-go/internal/protocol"
	"github.com/siervo-de-dios/siervo-go/pkg/audio"
)

const (
	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
)

var errNotReady = errors.New("session not ready")

// Client represents a connected browser
type Client struct {
	ID   string
	Conn *websocket.Conn

	store  *chat.Store
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	conv     *chat.Conversation
	starting bool

	// Output channel for frames
	sendChan chan interface{}
	inflight sync.WaitGroup
}

func (c *Client) conversation() *chat.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv
}

// beginStart claims the session start; false while one is in flight or done
func (c *Client) beginStart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conv != nil || c.starting {
		return false
	}
	c.starting = true
	return true
}

func (c *Client) finishStart() {
	c.mu.Lock()
	c.starting = false
	c.mu.Unlock()
}

// handleConnection manages a client connection
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		ID:       newClientID(),
		Conn:     conn,
		store:    chat.NewStore(),
		ctx:      ctx,
		cancel:   cancel,
		sendChan: make(chan interface{}, 100),
	}

	s.clientsMu.Lock()
	s.clients[client.ID] = client
	s.clientsMu.Unlock()
	s.config.Metrics.ConnectionOpened()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.clientWriter(client)
	}()

	defer func() {
		cancel()
		client.inflight.Wait()

		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		s.clientsMu.Unlock()

		close(client.sendChan)
		<-writerDone
		s.config.Metrics.ConnectionClosed()
		log.Printf("Client disconnected: %s", client.ID)
	}()

	client.beginStart()
	client.inflight.Add(1)
	go s.startSession(client)

	// Read messages from client
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		s.handleClientMessage(client, data)
	}
}

// startSession opens the chat session and sends the spoken welcome.
// The caller must have claimed the start with beginStart.
func (s *Server) startSession(client *Client) {
	defer client.inflight.Done()

	welcome, retry, err := s.openSession(client)
	client.finishStart()
	if err != nil {
		s.sendError(client, err, retry, nil)
		return
	}

	ready := protocol.SessionReady{
		ConnectionID: client.ID,
		Welcome:      welcome,
		SampleRate:   audio.SpeechFormat.SampleRate,
		Channels:     audio.SpeechFormat.Channels,
		BitDepth:     audio.SpeechFormat.BitDepth,
	}
	if err := s.sendMessage(client, protocol.TypeSessionReady, ready); err != nil {
		log.Printf("Error sending session ready: %v", err)
	}
}

// openSession creates the conversation and its welcome message; retry
// reports whether a later chat/retry may succeed
func (s *Server) openSession(client *Client) (chat.Message, bool, error) {
	if s.config.NewSession == nil {
		return chat.Message{}, false, errNotReady
	}

	session, err := s.config.NewSession(client.ctx)
	if err != nil {
		log.Printf("Session init failed for %s: %v", client.ID, err)
		return chat.Message{}, true, err
	}

	conv := chat.NewConversation(session, s.config.Speaker, client.store)
	welcome, err := conv.Start(client.ctx)
	if err != nil {
		return chat.Message{}, false, err
	}

	client.mu.Lock()
	client.conv = conv
	client.mu.Unlock()

	return welcome, false, nil
}

// handleClientMessage processes frames from clients
func (s *Server) handleClientMessage(client *Client, data []byte) {
	in, err := protocol.Parse(data)
	if err != nil {
		log.Printf("Error parsing frame: %v", err)
		s.sendError(client, err, false, nil)
		return
	}

	switch in.Type {
	case protocol.TypeChatSend:
		var send protocol.ChatSend
		if err := in.DecodePayload(&send); err != nil {
			s.sendError(client, err, false, nil)
			return
		}
		conv := client.conversation()
		if conv == nil {
			s.sendError(client, errNotReady, false, nil)
			return
		}
		client.inflight.Add(1)
		go s.exchange(client, send.Text, func(ctx context.Context) (chat.Message, error) {
			return conv.Send(ctx, send.Text)
		})

	case protocol.TypeChatRetry:
		conv := client.conversation()
		if conv == nil {
			if !client.beginStart() {
				s.sendError(client, errNotReady, false, nil)
				return
			}
			client.inflight.Add(1)
			go s.startSession(client)
			return
		}
		client.inflight.Add(1)
		go s.exchange(client, "", conv.Retry)

	default:
		log.Printf("Unknown message type: %s", in.Type)
		s.sendError(client, fmt.Errorf("unknown message type %q", in.Type), false, nil)
	}
}

// exchange runs one conversation call and pushes the outcome
func (s *Server) exchange(client *Client, text string, call func(context.Context) (chat.Message, error)) {
	defer client.inflight.Done()

	if err := s.sendMessage(client, protocol.TypeChatPending, protocol.ChatPending{Text: text}); err != nil {
		log.Printf("Error sending pending: %v", err)
	}

	msg, err := call(client.ctx)
	switch {
	case err == nil:
		frame := protocol.ChatMessage{Message: msg, AudioURL: audioURL(msg)}
		if err := s.sendMessage(client, protocol.TypeChatMessage, frame); err != nil {
			log.Printf("Error sending chat message: %v", err)
		}
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrBusy), errors.Is(err, chat.ErrNothingToRetry):
		s.sendError(client, err, false, nil)
	default:
		s.sendError(client, err, true, &msg)
	}
}

// sendError sends a chat/error frame
func (s *Server) sendError(client *Client, err error, retry bool, msg *chat.Message) {
	frame := protocol.ChatError{Error: err.Error(), Retry: retry}
	if msg != nil && msg.ID != "" {
		frame.Message = msg
	}
	if sendErr := s.sendMessage(client, protocol.TypeChatError, frame); sendErr != nil {
		log.Printf("Error sending chat error: %v", sendErr)
	}
}

// clientWriter sends frames to the client
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Error marshaling message: %v", err)
				continue
			}
			client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Error writing text message: %v", err)
				// Keep draining so senders never block on a dead connection
				for range client.sendChan {
				}
				return
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				for range client.sendChan {
				}
				return
			}
		}
	}
}

// sendMessage queues a JSON frame for a client
func (s *Server) sendMessage(client *Client, msgType string, payload interface{}) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case client.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}
