// ABOUTME: Audio output interface definition
// ABOUTME: Common interfaces for playback backends and their voices
package output

import (
	"errors"

	"github.com/siervo-de-dios/siervo-go/pkg/audio"
)

// ErrPlaybackDenied is returned when the host refuses to start playback
var ErrPlaybackDenied = errors.New("playback denied by host")

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(format audio.Format) error

	// NewVoice binds a WAV container to a new platform voice
	NewVoice(container []byte) (Voice, error)

	// SetVolume sets the volume (0-100) for current and future voices
	SetVolume(volume int)

	// SetMuted sets mute state for current and future voices
	SetMuted(muted bool)

	// Volume returns the current volume
	Volume() int

	// Close releases output resources
	Close() error
}

// Voice is one playable container on an Output
type Voice interface {
	// Play starts or resumes playback
	Play() error

	// Pause pauses playback, keeping the position
	Pause()

	// IsPlaying reports whether audio is still being emitted
	IsPlaying() bool

	// Close stops playback and releases the voice
	Close() error
}

// clampVolume keeps volume within 0-100
func clampVolume(volume int) int {
	if volume < 0 {
		return 0
	}
	if volume > 100 {
		return 100
	}
	return volume
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
