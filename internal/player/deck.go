// ABOUTME: Collection of playback controllers, one per message
// ABOUTME: Keeps a single auto-playing message and tears everything down on close
package player

import (
	"sync"
)

// Deck owns the controllers of a conversation view
type Deck struct {
	assets   *Manager
	onChange func(string, State)

	mu          sync.Mutex
	controllers map[string]*Controller
	latest      string
	closed      bool
}

// NewDeck creates an empty deck
func NewDeck(assets *Manager, onChange func(string, State)) *Deck {
	return &Deck{
		assets:      assets,
		onChange:    onChange,
		controllers: make(map[string]*Controller),
	}
}

// Add registers a controller for key (idempotent)
func (d *Deck) Add(key, payload string) *Controller {
	d.mu.Lock()
	defer d.mu.Unlock()

	if c, ok := d.controllers[key]; ok {
		return c
	}

	c := NewController(d.assets, key, payload, d.onChange)
	if !d.closed {
		d.controllers[key] = c
	}
	return c
}

// Get returns the controller for key
func (d *Deck) Get(key string) (*Controller, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.controllers[key]
	return c, ok
}

// Arrive registers the newest message and auto-plays it when voice is on.
// The previous newest message stops first when the new one auto-plays.
func (d *Deck) Arrive(key, payload string, voiceEnabled bool) *Controller {
	c := d.Add(key, payload)

	d.mu.Lock()
	previous := d.controllers[d.latest]
	d.latest = key
	d.mu.Unlock()

	if voiceEnabled && c.HasAudio() && previous != nil && previous != c {
		previous.Stop()
	}

	c.AutoPlay(voiceEnabled, true)
	return c
}

// Latest returns the newest message key
func (d *Deck) Latest() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latest
}

// PauseAll pauses every playing controller
func (d *Deck) PauseAll() {
	for _, c := range d.snapshot() {
		c.Pause()
	}
}

// Close closes every controller; the deck accepts no new ones afterwards
func (d *Deck) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	for _, c := range d.snapshot() {
		c.Close()
	}

	d.mu.Lock()
	d.controllers = make(map[string]*Controller)
	d.mu.Unlock()
}

func (d *Deck) snapshot() []*Controller {
	d.mu.Lock()
	defer d.mu.Unlock()

	list := make([]*Controller, 0, len(d.controllers))
	for _, c := range d.controllers {
		list = append(list, c)
	}
	return list
}
