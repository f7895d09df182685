// ABOUTME: Web mode server for the scripture chat
// ABOUTME: Serves quotes, a chat websocket, exported audio and metrics
package web

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/siervo-de-dios/siervo-go/internal/chat"
	"github.com/siervo-de-dios/siervo-go/internal/discovery"
	"github.com/siervo-de-dios/siervo-go/internal/metrics"
	"github.com/siervo-de-dios/siervo-go/internal/player"
)

// SessionFactory opens a new chat session for a connection
type SessionFactory func(ctx context.Context) (chat.Session, error)

// Config holds server configuration
type Config struct {
	Addr        string
	ServiceName string
	Advertise   bool
	MetricsPath string

	NewSession SessionFactory
	Speaker    chat.Speaker
	Quotes     chat.QuoteSource
	Assets     *player.Manager
	Metrics    *metrics.Metrics
}

// Server is the web chat server
type Server struct {
	config Config

	// WebSocket upgrader
	upgrader websocket.Upgrader

	// HTTP server
	httpServer *http.Server
	mux        *http.ServeMux

	// Client management
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// mDNS discovery
	mdnsManager *discovery.Manager

	// Control
	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// New creates a new server instance
func New(config Config) *Server {
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}
	if config.ServiceName == "" {
		config.ServiceName = "siervo"
	}
	if config.Assets == nil {
		config.Assets = player.NewManager(player.ManagerConfig{Metrics: config.Metrics})
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin != "" && origin != "http://"+r.Host {
					log.Printf("Warning: accepting WebSocket from origin: %s", origin)
				}
				return true
			},
		},
		clients:  make(map[string]*Client),
		stopChan: make(chan struct{}),
	}

	s.mux.HandleFunc("GET /api/quote", s.handleQuote)
	s.mux.HandleFunc("GET /api/audio/{file}", s.handleAudio)
	s.mux.HandleFunc("GET "+discovery.SocketPath, s.handleWebSocket)
	s.mux.Handle("GET "+config.MetricsPath, config.Metrics.Handler())

	return s
}

// Handler returns the HTTP handler with request metrics
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.mux.ServeHTTP(rec, r)
		if !strings.HasPrefix(r.URL.Path, "/api/audio/") {
			s.config.Metrics.ObserveHTTP(r.URL.Path, rec.status)
		} else {
			s.config.Metrics.ObserveHTTP("/api/audio", rec.status)
		}
	})
}

// Start serves until Stop is called or the listener fails
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}

	log.Printf("Web server listening on %s", listener.Addr())

	if s.config.Advertise {
		port := listener.Addr().(*net.TCPAddr).Port
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.ServiceName,
			Port:        port,
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-s.stopChan:
		log.Printf("Web server shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.closeClients()
	s.wg.Wait()
	log.Printf("Web server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// closeClients closes every websocket so their read loops end
func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		client.cancel()
		_ = client.Conn.Close()
	}
}

// handleQuote returns a verse for the quote screen
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	quote := chat.LoadQuote(r.Context(), s.config.Quotes)
	writeJSON(w, http.StatusOK, quote)
}

// handleAudio exports the audio of a message as a WAV download
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	id, ok := strings.CutSuffix(r.PathValue("file"), ".wav")
	if !ok || id == "" {
		http.NotFound(w, r)
		return
	}

	msg, found := s.findMessage(id)
	if !found {
		http.NotFound(w, r)
		return
	}

	exp, err := s.config.Assets.Export(msg.AudioBase64)
	if err != nil {
		if errors.Is(err, player.ErrAssetUnavailable) {
			http.Error(w, "message has no audio", http.StatusNotFound)
			return
		}
		log.Printf("Export failed for %s: %v", id, err)
		http.Error(w, "audio unavailable", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(exp.Data)
}

// findMessage searches every live conversation
func (s *Server) findMessage(id string) (chat.Message, bool) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		if msg, ok := client.store.Find(id); ok {
			return msg, true
		}
	}
	return chat.Message{}, false
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.shutdownMu.RLock()
	shutdown := s.isShutdown
	s.shutdownMu.RUnlock()
	if shutdown {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)

	s.wg.Add(1)
	defer s.wg.Done()
	s.handleConnection(conn)
}

// statusRecorder captures the response status for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack hands the connection to the websocket upgrader
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Unwrap lets http.ResponseController reach the underlying writer
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// audioURL is where a message's audio can be downloaded
func audioURL(msg chat.Message) string {
	if !msg.HasAudio() {
		return ""
	}
	return "/api/audio/" + msg.ID + ".wav"
}

// newClientID returns a connection ID
func newClientID() string {
	return uuid.New().String()
}
