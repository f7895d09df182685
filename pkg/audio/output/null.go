// ABOUTME: Null audio output used when no playback device is wanted
// ABOUTME: Accepts containers but refuses to start playback
package output

import (
	"fmt"
	"sync"

	"github.com/siervo-de-dios/siervo-go/pkg/audio"
	"github.com/siervo-de-dios/siervo-go/pkg/audio/decode"
)

// Null output that never plays
type Null struct {
	mu     sync.Mutex
	volume int
	muted  bool
}

// NewNull creates a new Null output
func NewNull() Output {
	return &Null{volume: 100}
}

// Open accepts any format
func (n *Null) Open(format audio.Format) error {
	return nil
}

// NewVoice validates the container and returns a voice that refuses Play
func (n *Null) NewVoice(container []byte) (Voice, error) {
	if _, err := decode.ParseHeader(container); err != nil {
		return nil, fmt.Errorf("failed to read container: %w", err)
	}
	return nullVoice{}, nil
}

// SetVolume sets the volume (0-100)
func (n *Null) SetVolume(volume int) {
	n.mu.Lock()
	n.volume = clampVolume(volume)
	n.mu.Unlock()
}

// SetMuted sets mute state
func (n *Null) SetMuted(muted bool) {
	n.mu.Lock()
	n.muted = muted
	n.mu.Unlock()
}

// Volume returns current volume
func (n *Null) Volume() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.volume
}

// Close releases nothing
func (n *Null) Close() error {
	return nil
}

type nullVoice struct{}

func (nullVoice) Play() error {
	return fmt.Errorf("audio output disabled: %w", ErrPlaybackDenied)
}

func (nullVoice) Pause()          {}
func (nullVoice) IsPlaying() bool { return false }
func (nullVoice) Close() error    { return nil }
