// ABOUTME: Playback handle bound to one container and one platform voice
// ABOUTME: Emits play, pause and end-of-stream events to subscribers
package player

import (
	"log"
	"sync"
	"time"

	"github.com/siervo-de-dios/siervo-go/pkg/audio/output"
)

// Handle is an owned, releasable binding between a container and a voice
type Handle struct {
	key     string
	payload string
	voice   output.Voice
	poll    time.Duration
	manager *Manager

	mu        sync.Mutex
	playing   bool
	ended     bool
	released  bool
	watchStop chan struct{}
	onPlay    []func()
	onPause   []func()
	onEnded   []func()
}

// Key returns the message key the handle belongs to
func (h *Handle) Key() string {
	return h.key
}

// OnPlay subscribes to playback start
func (h *Handle) OnPlay(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.released {
		h.onPlay = append(h.onPlay, fn)
	}
}

// OnPause subscribes to explicit pauses
func (h *Handle) OnPause(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.released {
		h.onPause = append(h.onPause, fn)
	}
}

// OnEnded subscribes to natural end of stream
func (h *Handle) OnEnded(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.released {
		h.onEnded = append(h.onEnded, fn)
	}
}

// Play starts playback. The voice error (e.g. output.ErrPlaybackDenied)
// is returned unchanged and no event fires.
func (h *Handle) Play() error {
	h.mu.Lock()
	if h.released || h.ended {
		h.mu.Unlock()
		return ErrReleased
	}
	if h.playing {
		h.mu.Unlock()
		return nil
	}

	if err := h.voice.Play(); err != nil {
		h.mu.Unlock()
		return err
	}

	h.playing = true
	stop := make(chan struct{})
	h.watchStop = stop
	callbacks := append([]func(){}, h.onPlay...)
	h.mu.Unlock()

	go h.watch(stop)

	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// Pause pauses playback, keeping the voice and position
func (h *Handle) Pause() {
	h.mu.Lock()
	if h.released || !h.playing {
		h.mu.Unlock()
		return
	}

	h.voice.Pause()
	h.playing = false
	h.stopWatchLocked()
	callbacks := append([]func(){}, h.onPause...)
	h.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// IsPlaying reports whether the handle is emitting sound
func (h *Handle) IsPlaying() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing
}

// Released reports whether the handle has been released or its stream
// has ended; either way it can no longer play.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released || h.ended
}

// watch polls the voice until it stops on its own
func (h *Handle) watch(stop chan struct{}) {
	ticker := time.NewTicker(h.poll)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		h.mu.Lock()
		if h.released || !h.playing || h.watchStop != stop {
			h.mu.Unlock()
			return
		}
		if h.voice.IsPlaying() {
			h.mu.Unlock()
			continue
		}

		h.playing = false
		h.ended = true
		h.watchStop = nil
		callbacks := append([]func(){}, h.onEnded...)
		h.mu.Unlock()

		// Subscribers may replay from the callback; h is gone by then
		h.manager.Release(h)

		for _, fn := range callbacks {
			fn()
		}
		return
	}
}

// stopWatchLocked ends the watcher goroutine (must hold h.mu)
func (h *Handle) stopWatchLocked() {
	if h.watchStop != nil {
		close(h.watchStop)
		h.watchStop = nil
	}
}

// release stops playback and frees the voice; reports whether this call did the work
func (h *Handle) release() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return false
	}

	h.released = true
	h.playing = false
	h.stopWatchLocked()
	h.onPlay, h.onPause, h.onEnded = nil, nil, nil

	if err := h.voice.Close(); err != nil {
		log.Printf("Warning: voice close error for %s: %v", h.key, err)
	}
	return true
}
