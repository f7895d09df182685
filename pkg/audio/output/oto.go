// ABOUTME: Oto-based audio output implementation
// ABOUTME: Plays speech containers as independent oto players with volume control
package output

import (
	"bytes"
	"fmt"
	"log"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/siervo-de-dios/siervo-go/pkg/audio"
	"github.com/siervo-de-dios/siervo-go/pkg/audio/decode"
)

// Oto output implementation using oto library
type Oto struct {
	mu     sync.Mutex
	otoCtx *oto.Context
	format audio.Format
	volume int
	muted  bool
	voices map[*otoVoice]struct{}
}

// NewOto creates a new Oto output
func NewOto() Output {
	return &Oto{
		volume: 100,
		voices: make(map[*otoVoice]struct{}),
	}
}

// Open initializes the output device
func (o *Oto) Open(format audio.Format) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	// oto only supports 16-bit output
	if format.BitDepth != 16 {
		return fmt.Errorf("unsupported bit depth: %d (oto plays 16-bit only)", format.BitDepth)
	}

	if o.otoCtx != nil && o.format == format {
		log.Printf("Audio output already initialized with same format, reusing context")
		return nil
	}

	// oto only allows one context per process
	if o.otoCtx != nil {
		return fmt.Errorf("format change (%dHz %dch -> %dHz %dch) not supported by oto",
			o.format.SampleRate, o.format.Channels, format.SampleRate, format.Channels)
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.format = format

	log.Printf("Audio output initialized: %dHz, %d channels", format.SampleRate, format.Channels)

	return nil
}

// NewVoice creates an oto player over the container's samples
func (o *Oto) NewVoice(container []byte) (Voice, error) {
	format, pcm, err := decode.WAV(container)
	if err != nil {
		return nil, fmt.Errorf("failed to read container: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx == nil {
		return nil, fmt.Errorf("output not initialized: %w", ErrPlaybackDenied)
	}
	if format != o.format {
		return nil, fmt.Errorf("container format %dHz %dch does not match output %dHz %dch",
			format.SampleRate, format.Channels, o.format.SampleRate, o.format.Channels)
	}

	player := o.otoCtx.NewPlayer(bytes.NewReader(pcm))
	player.SetVolume(getVolumeMultiplier(o.volume, o.muted))

	v := &otoVoice{owner: o, ctx: o.otoCtx, player: player}
	o.voices[v] = struct{}{}

	return v, nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.volume = clampVolume(volume)
	o.applyVolume()
	log.Printf("Volume set to %d", o.volume)
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.muted = muted
	o.applyVolume()
	log.Printf("Muted: %v", muted)
}

// Volume returns current volume
func (o *Oto) Volume() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

// applyVolume pushes the multiplier to live voices (must hold o.mu)
func (o *Oto) applyVolume() {
	multiplier := getVolumeMultiplier(o.volume, o.muted)
	for v := range o.voices {
		v.player.SetVolume(multiplier)
	}
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	voices := make([]*otoVoice, 0, len(o.voices))
	for v := range o.voices {
		voices = append(voices, v)
	}
	o.mu.Unlock()

	for _, v := range voices {
		if err := v.Close(); err != nil {
			log.Printf("Warning: voice close error: %v", err)
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			log.Printf("Warning: oto suspend error: %v", err)
		}
	}
	return nil
}

func (o *Oto) forget(v *otoVoice) {
	o.mu.Lock()
	delete(o.voices, v)
	o.mu.Unlock()
}

// otoVoice wraps one oto player
type otoVoice struct {
	owner  *Oto
	ctx    *oto.Context
	player *oto.Player
	once   sync.Once
}

func (v *otoVoice) Play() error {
	if err := v.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackDenied, err)
	}
	v.player.Play()
	return nil
}

func (v *otoVoice) Pause() {
	v.player.Pause()
}

func (v *otoVoice) IsPlaying() bool {
	return v.player.IsPlaying()
}

func (v *otoVoice) Close() error {
	var err error
	v.once.Do(func() {
		v.player.Pause()
		err = v.player.Close()
		v.owner.forget(v)
	})
	return err
}
