// ABOUTME: Tests for WAV container encoder
// ABOUTME: Verifies header layout, field values and the empty-buffer case
package encode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/siervo-de-dios/siervo-go/pkg/audio"
)

func TestSpeechHeaderFields(t *testing.T) {
	samples := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}

	container, err := Speech(samples)
	if err != nil {
		t.Fatalf("Speech failed: %v", err)
	}

	if len(container) != HeaderSize+len(samples) {
		t.Fatalf("expected %d bytes, got %d", HeaderSize+len(samples), len(container))
	}

	tests := []struct {
		name   string
		offset int
		size   int
		want   uint32
	}{
		{"chunk size", 4, 4, uint32(36 + len(samples))},
		{"fmt size", 16, 4, 16},
		{"format tag", 20, 2, 1},
		{"channels", 22, 2, 1},
		{"sample rate", 24, 4, 24000},
		{"byte rate", 28, 4, 48000},
		{"block align", 32, 2, 2},
		{"bits per sample", 34, 2, 16},
		{"data size", 40, 4, uint32(len(samples))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got uint32
			if tt.size == 2 {
				got = uint32(binary.LittleEndian.Uint16(container[tt.offset:]))
			} else {
				got = binary.LittleEndian.Uint32(container[tt.offset:])
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}

	for offset, tag := range map[int]string{0: "RIFF", 8: "WAVE", 12: "fmt ", 36: "data"} {
		if got := string(container[offset : offset+4]); got != tag {
			t.Errorf("offset %d: expected %q, got %q", offset, tag, got)
		}
	}

	if !bytes.Equal(container[HeaderSize:], samples) {
		t.Error("samples were not copied verbatim after the header")
	}
}

func TestWAVEmptySamples(t *testing.T) {
	container, err := Speech([]byte{})
	if err != nil {
		t.Fatalf("Speech failed on empty samples: %v", err)
	}

	if len(container) != HeaderSize {
		t.Fatalf("expected %d bytes, got %d", HeaderSize, len(container))
	}

	if size := binary.LittleEndian.Uint32(container[40:]); size != 0 {
		t.Errorf("expected data size 0, got %d", size)
	}
	if size := binary.LittleEndian.Uint32(container[4:]); size != 36 {
		t.Errorf("expected chunk size 36, got %d", size)
	}
}

func TestWAVNilSamples(t *testing.T) {
	_, err := Speech(nil)
	if !errors.Is(err, ErrNoSamples) {
		t.Fatalf("expected ErrNoSamples, got %v", err)
	}
}

func TestWAVStereoFormat(t *testing.T) {
	format := audio.Format{Codec: "pcm", SampleRate: 44100, Channels: 2, BitDepth: 16}

	container, err := WAV(make([]byte, 8), format)
	if err != nil {
		t.Fatalf("WAV failed: %v", err)
	}

	if rate := binary.LittleEndian.Uint32(container[28:]); rate != 176400 {
		t.Errorf("expected byte rate 176400, got %d", rate)
	}
	if align := binary.LittleEndian.Uint16(container[32:]); align != 4 {
		t.Errorf("expected block align 4, got %d", align)
	}
}

func TestWAVInvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		format audio.Format
	}{
		{"zero rate", audio.Format{SampleRate: 0, Channels: 1, BitDepth: 16}},
		{"zero channels", audio.Format{SampleRate: 24000, Channels: 0, BitDepth: 16}},
		{"odd bit depth", audio.Format{SampleRate: 24000, Channels: 1, BitDepth: 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := WAV([]byte{0, 0}, tt.format); err == nil {
				t.Error("expected error for invalid format")
			}
		})
	}
}
