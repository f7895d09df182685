// ABOUTME: Fake audio output for player tests
// ABOUTME: Voices record calls and can be finished or denied on demand
package player

import (
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/siervo-de-dios/siervo-go/pkg/audio"
	"github.com/siervo-de-dios/siervo-go/pkg/audio/decode"
	"github.com/siervo-de-dios/siervo-go/pkg/audio/output"
)

type fakeOutput struct {
	mu     sync.Mutex
	deny   bool
	voices []*fakeVoice
	volume int
}

func (f *fakeOutput) Open(format audio.Format) error { return nil }

func (f *fakeOutput) NewVoice(container []byte) (output.Voice, error) {
	if _, err := decode.ParseHeader(container); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	v := &fakeVoice{deny: f.deny, container: container}
	f.voices = append(f.voices, v)
	return v, nil
}

func (f *fakeOutput) SetVolume(volume int) { f.volume = volume }
func (f *fakeOutput) SetMuted(muted bool)  {}
func (f *fakeOutput) Volume() int          { return f.volume }
func (f *fakeOutput) Close() error         { return nil }

func (f *fakeOutput) voiceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.voices)
}

type fakeVoice struct {
	mu        sync.Mutex
	deny      bool
	container []byte
	playing   bool
	plays     int
	closed    bool
}

func (v *fakeVoice) Play() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.deny {
		return output.ErrPlaybackDenied
	}
	v.playing = true
	v.plays++
	return nil
}

func (v *fakeVoice) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playing = false
}

func (v *fakeVoice) IsPlaying() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.playing
}

func (v *fakeVoice) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playing = false
	v.closed = true
	return nil
}

// finish simulates the end of the stream
func (v *fakeVoice) finish() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playing = false
}

func (v *fakeVoice) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

func newTestManager(out output.Output) *Manager {
	return NewManager(ManagerConfig{
		Output:       out,
		PollInterval: time.Millisecond,
	})
}

func testPayload(samples ...int) string {
	return base64.StdEncoding.EncodeToString(audio.Int16Bytes(samples))
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
