// ABOUTME: Per-message playback controller with Idle and Playing states
// ABOUTME: State follows handle events; supports toggle, auto-play and download
package player

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/siervo-de-dios/siervo-go/pkg/audio/output"
)

// State is the controller's playback status
type State int

const (
	Idle State = iota
	Playing
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	default:
		return "idle"
	}
}

// ErrControllerClosed is returned after Close
var ErrControllerClosed = errors.New("playback controller closed")

// Controller drives playback for one message
type Controller struct {
	assets   *Manager
	key      string
	payload  string
	onChange func(key string, state State)

	mu       sync.Mutex
	state    State
	handle   *Handle
	closed   bool
	duration time.Duration
	measured bool
}

// NewController creates a controller. onChange may be nil; it is called
// outside the controller lock on every state transition.
func NewController(assets *Manager, key, payload string, onChange func(string, State)) *Controller {
	return &Controller{
		assets:   assets,
		key:      key,
		payload:  payload,
		onChange: onChange,
	}
}

// Key returns the message key
func (c *Controller) Key() string {
	return c.key
}

// HasAudio reports whether the message carries a payload
func (c *Controller) HasAudio() bool {
	return c.payload != ""
}

// Duration returns the play time of the message audio, 0 without audio
func (c *Controller) Duration() time.Duration {
	if !c.HasAudio() {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.measured {
		d, err := c.assets.Duration(c.key, c.payload)
		if err != nil {
			log.Printf("Duration unavailable for %s: %v", c.key, err)
		}
		c.duration = d
		c.measured = true
	}
	return c.duration
}

// State returns the current playback state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Toggle plays when Idle and pauses when Playing
func (c *Controller) Toggle() error {
	if c.State() == Playing {
		c.Pause()
		return nil
	}
	return c.Play()
}

// Play creates the asset on first use and starts playback
func (c *Controller) Play() error {
	if !c.HasAudio() {
		return ErrAssetUnavailable
	}

	// One retry covers a handle that ended between acquire and play
	for attempt := 0; attempt < 2; attempt++ {
		h, err := c.acquire()
		if err != nil {
			return err
		}

		err = h.Play()
		if errors.Is(err, ErrReleased) {
			c.drop(h)
			continue
		}
		return err
	}
	return ErrReleased
}

// Pause pauses the live handle, if any
func (c *Controller) Pause() {
	c.mu.Lock()
	h := c.handle
	c.mu.Unlock()

	if h != nil {
		h.Pause()
	}
}

// Stop releases the live handle but keeps the controller usable
func (c *Controller) Stop() {
	c.mu.Lock()
	h := c.handle
	c.handle = nil
	changed := c.state != Idle
	c.state = Idle
	c.mu.Unlock()

	if h != nil {
		c.assets.Release(h)
	}
	if changed {
		c.notify(Idle)
	}
}

// AutoPlay starts playback when voice output is on and this is the newest
// message. Failures are logged, never returned; reports whether playback started.
func (c *Controller) AutoPlay(voiceEnabled, latest bool) bool {
	if !voiceEnabled || !latest || !c.HasAudio() {
		return false
	}

	err := c.Play()
	switch {
	case err == nil:
		return true
	case errors.Is(err, output.ErrPlaybackDenied):
		log.Printf("Auto-play blocked for %s: %v", c.key, err)
	default:
		log.Printf("Auto-play failed for %s: %v", c.key, err)
	}
	return false
}

// Download exports the message audio into dir
func (c *Controller) Download(dir string) (string, error) {
	if !c.HasAudio() {
		return "", ErrAssetUnavailable
	}
	return c.assets.Save(dir, c.payload)
}

// Close stops and releases everything the controller owns
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.handle = nil
	changed := c.state != Idle
	c.state = Idle
	c.mu.Unlock()

	c.assets.Evict(c.key)

	if changed {
		c.notify(Idle)
	}
}

// acquire returns the controller's handle, creating and subscribing on first use
func (c *Controller) acquire() (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrControllerClosed
	}
	if c.handle != nil && !c.handle.Released() {
		return c.handle, nil
	}

	h, err := c.assets.Create(c.key, c.payload)
	if err != nil {
		return nil, err
	}

	h.OnPlay(func() { c.transition(h, Playing) })
	h.OnPause(func() { c.transition(h, Idle) })
	h.OnEnded(func() { c.ended(h) })
	c.handle = h

	return h, nil
}

// drop forgets h if it is still the current handle
func (c *Controller) drop(h *Handle) {
	c.mu.Lock()
	if c.handle == h {
		c.handle = nil
	}
	c.mu.Unlock()
}

func (c *Controller) transition(h *Handle, state State) {
	c.mu.Lock()
	if c.handle != h || c.state == state {
		c.mu.Unlock()
		return
	}
	c.state = state
	c.mu.Unlock()

	c.notify(state)
}

// ended handles natural end of stream; the manager has already released h
func (c *Controller) ended(h *Handle) {
	c.mu.Lock()
	if c.handle != h {
		c.mu.Unlock()
		return
	}
	c.handle = nil
	changed := c.state != Idle
	c.state = Idle
	c.mu.Unlock()

	if changed {
		c.notify(Idle)
	}
}

func (c *Controller) notify(state State) {
	if c.onChange != nil {
		c.onChange(c.key, state)
	}
}
