// ABOUTME: Audio asset manager for speech payloads
// ABOUTME: Decodes, wraps and binds payloads to releasable playback handles
package player

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/siervo-de-dios/siervo-go/internal/metrics"
	"github.com/siervo-de-dios/siervo-go/pkg/audio/decode"
	"github.com/siervo-de-dios/siervo-go/pkg/audio/encode"
	"github.com/siervo-de-dios/siervo-go/pkg/audio/output"
)

const (
	// DefaultExportPrefix is the filename prefix for exported replies
	DefaultExportPrefix = "mensaje_siervo"

	defaultPollInterval = 50 * time.Millisecond
)

var (
	// ErrAssetUnavailable is returned when a message carries no audio
	ErrAssetUnavailable = errors.New("no audio available for message")

	// ErrReleased is returned by operations on a released handle
	ErrReleased = errors.New("asset handle released")
)

// ManagerConfig holds asset manager configuration
type ManagerConfig struct {
	// Output creates the platform voices
	Output output.Output

	// ExportPrefix is the exported filename prefix (default: mensaje_siervo)
	ExportPrefix string

	// PollInterval is how often a playing voice is checked for end of stream
	PollInterval time.Duration

	// Metrics is optional
	Metrics *metrics.Metrics
}

// Export is a downloadable container
type Export struct {
	Filename string
	Data     []byte
}

// Manager owns the live handles, at most one per message key
type Manager struct {
	config ManagerConfig
	now    func() time.Time

	mu         sync.Mutex
	live       map[string]*Handle
	containers map[string]cachedContainer
	decodes    int
}

type cachedContainer struct {
	payload   string
	container []byte
}

// NewManager creates an asset manager
func NewManager(config ManagerConfig) *Manager {
	if config.ExportPrefix == "" {
		config.ExportPrefix = DefaultExportPrefix
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaultPollInterval
	}
	if config.Output == nil {
		config.Output = output.NewNull()
	}

	return &Manager{
		config:     config,
		now:        time.Now,
		live:       make(map[string]*Handle),
		containers: make(map[string]cachedContainer),
	}
}

// Create returns the live handle for key, building one if needed.
// A live handle for the same payload is reused; a handle for a different
// payload is released before the new one is created.
func (m *Manager) Create(key, payload string) (*Handle, error) {
	if payload == "" {
		return nil, ErrAssetUnavailable
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.live[key]; ok {
		if h.payload == payload && !h.Released() {
			return h, nil
		}
		m.releaseLocked(h)
	}

	container, err := m.containerLocked(key, payload)
	if err != nil {
		return nil, err
	}

	voice, err := m.config.Output.NewVoice(container)
	if err != nil {
		return nil, fmt.Errorf("failed to create voice: %w", err)
	}

	h := &Handle{
		key:     key,
		payload: payload,
		voice:   voice,
		poll:    m.config.PollInterval,
		manager: m,
	}
	m.live[key] = h
	m.config.Metrics.AssetCreated()

	return h, nil
}

// containerLocked returns the memoized container for key (must hold m.mu)
func (m *Manager) containerLocked(key, payload string) ([]byte, error) {
	if cached, ok := m.containers[key]; ok && cached.payload == payload {
		return cached.container, nil
	}

	container, err := m.build(payload)
	if err != nil {
		return nil, err
	}

	m.decodes++
	m.containers[key] = cachedContainer{payload: payload, container: container}
	return container, nil
}

// build runs decode and wrap
func (m *Manager) build(payload string) ([]byte, error) {
	samples, err := decode.Payload(payload)
	if err != nil {
		m.config.Metrics.DecodeFailed()
		return nil, err
	}

	container, err := encode.Speech(samples)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap samples: %w", err)
	}
	return container, nil
}

// Duration returns the play time of payload. The container is memoized
// under key, so a later Create does not decode again.
func (m *Manager) Duration(key, payload string) (time.Duration, error) {
	if payload == "" {
		return 0, ErrAssetUnavailable
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	container, err := m.containerLocked(key, payload)
	if err != nil {
		return 0, err
	}
	return decode.Duration(container)
}

// Release stops and releases a handle. Releasing twice is a no-op.
func (m *Manager) Release(h *Handle) {
	if h == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked(h)
}

// releaseLocked removes h from the live set and releases it (must hold m.mu)
func (m *Manager) releaseLocked(h *Handle) {
	if m.live[h.key] == h {
		delete(m.live, h.key)
	}
	if h.release() {
		m.config.Metrics.AssetReleased()
	}
}

// Evict releases the live handle for key and drops its memoized container
func (m *Manager) Evict(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.live[key]; ok {
		m.releaseLocked(h)
	}
	delete(m.containers, key)
}

// Live returns the live handle for key, if any
func (m *Manager) Live(key string) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.live[key]
	return h, ok
}

// LiveCount returns the number of live handles
func (m *Manager) LiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Decodes returns how many payloads have been decoded for playback
func (m *Manager) Decodes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decodes
}

// Export decodes and wraps payload afresh for download.
// Live handles are not touched.
func (m *Manager) Export(payload string) (Export, error) {
	if payload == "" {
		return Export{}, ErrAssetUnavailable
	}

	container, err := m.build(payload)
	if err != nil {
		return Export{}, err
	}

	m.config.Metrics.Exported()

	return Export{
		Filename: fmt.Sprintf("%s_%d.wav", m.config.ExportPrefix, m.now().UnixMilli()),
		Data:     container,
	}, nil
}

// Save exports payload into dir and returns the written path
func (m *Manager) Save(dir, payload string) (string, error) {
	exp, err := m.Export(payload)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, exp.Filename)
	if err := os.WriteFile(path, exp.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}

	log.Printf("Exported audio: %s (%d bytes)", path, len(exp.Data))
	return path, nil
}

// WithAsset acquires the handle for key, runs fn, and releases the handle
// on every return path
func WithAsset(m *Manager, key, payload string, fn func(*Handle) error) error {
	h, err := m.Create(key, payload)
	if err != nil {
		return err
	}
	defer m.Release(h)

	return fn(h)
}
