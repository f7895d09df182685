// ABOUTME: Tests for WAV container reading
// ABOUTME: Round-trips payloads through encode and go-audio/wav on disk
package decode

import (
	"bytes"
	"encoding/base64"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/siervo-de-dios/siervo-go/pkg/audio"
	"github.com/siervo-de-dios/siervo-go/pkg/audio/encode"
)

// sineSamples generates a 440Hz tone in the speech format
func sineSamples(n int) []int {
	samples := make([]int, n)
	for i := range samples {
		t := float64(i) / float64(audio.SpeechFormat.SampleRate)
		samples[i] = int(16383 * math.Sin(2*math.Pi*440*t))
	}
	return samples
}

func TestWrapDataLengthMatchesPayload(t *testing.T) {
	payloads := [][]byte{
		{},
		{0x01, 0x00},
		audio.Int16Bytes(sineSamples(100)),
		audio.Int16Bytes(sineSamples(2401)),
	}

	for _, raw := range payloads {
		samples, err := Payload(base64.StdEncoding.EncodeToString(raw))
		if err != nil {
			t.Fatalf("Payload failed: %v", err)
		}

		container, err := encode.Speech(samples)
		if err != nil {
			t.Fatalf("Speech failed: %v", err)
		}

		header, err := ParseHeader(container)
		if err != nil {
			t.Fatalf("ParseHeader failed: %v", err)
		}

		if int(header.DataSize) != len(samples) {
			t.Errorf("expected data size %d, got %d", len(samples), header.DataSize)
		}
	}
}

func TestEmptyPayloadContainer(t *testing.T) {
	samples, err := Payload(base64.StdEncoding.EncodeToString(nil))
	if err != nil {
		t.Fatalf("Payload failed: %v", err)
	}

	container, err := encode.Speech(samples)
	if err != nil {
		t.Fatalf("Speech failed: %v", err)
	}

	if len(container) != encode.HeaderSize {
		t.Fatalf("expected %d bytes, got %d", encode.HeaderSize, len(container))
	}

	format, pcm, err := WAV(container)
	if err != nil {
		t.Fatalf("WAV failed on empty container: %v", err)
	}
	if len(pcm) != 0 {
		t.Errorf("expected no samples, got %d bytes", len(pcm))
	}
	if format != audio.SpeechFormat {
		t.Errorf("expected speech format, got %+v", format)
	}
}

func TestDuration(t *testing.T) {
	container, err := encode.Speech(make([]byte, 72000))
	if err != nil {
		t.Fatalf("Speech failed: %v", err)
	}

	got, err := Duration(container)
	if err != nil {
		t.Fatalf("Duration failed: %v", err)
	}
	if got != 1500*time.Millisecond {
		t.Errorf("expected 1.5s, got %v", got)
	}

	if _, err := Duration([]byte("RIFF")); err == nil {
		t.Error("expected error for a short container")
	}
}

func TestContainerRoundTripOnDisk(t *testing.T) {
	original := audio.Int16Bytes(sineSamples(2400))

	container, err := encode.Speech(original)
	if err != nil {
		t.Fatalf("Speech failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "reply.wav")
	if err := os.WriteFile(path, container, 0644); err != nil {
		t.Fatalf("failed to write container: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open container: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatalf("go-audio/wav rejected the container: %v", dec.Err())
	}

	if dec.SampleRate != 24000 {
		t.Errorf("expected sample rate 24000, got %d", dec.SampleRate)
	}
	if dec.NumChans != 1 {
		t.Errorf("expected 1 channel, got %d", dec.NumChans)
	}
	if dec.BitDepth != 16 {
		t.Errorf("expected 16-bit, got %d", dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer failed: %v", err)
	}

	if got := audio.Int16Bytes(buf.Data); !bytes.Equal(got, original) {
		t.Errorf("round trip mismatch: expected %d bytes, got %d", len(original), len(got))
	}
}

func TestWAVReadsForeignEncoder(t *testing.T) {
	samples := sineSamples(480)

	path := filepath.Join(t.TempDir(), "foreign.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	enc := wav.NewEncoder(f, 24000, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 24000},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encoder write failed: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("encoder close failed: %v", err)
	}
	f.Close()

	container, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}

	format, pcm, err := WAV(container)
	if err != nil {
		t.Fatalf("WAV failed: %v", err)
	}
	if format != audio.SpeechFormat {
		t.Errorf("expected speech format, got %+v", format)
	}
	if !bytes.Equal(pcm, audio.Int16Bytes(samples)) {
		t.Error("samples differ from encoder input")
	}
}

func TestParseHeaderErrors(t *testing.T) {
	valid, err := encode.Speech([]byte{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Speech failed: %v", err)
	}

	corrupt := func(offset int, b byte) []byte {
		c := bytes.Clone(valid)
		c[offset] = b
		return c
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"too short", valid[:20]},
		{"bad riff", corrupt(0, 'X')},
		{"bad wave", corrupt(8, 'X')},
		{"bad fmt", corrupt(12, 'X')},
		{"bad data tag", corrupt(36, 'X')},
		{"not pcm", corrupt(20, 3)},
		{"truncated samples", valid[:len(valid)-2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseHeader(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWAVRejects24Bit(t *testing.T) {
	format := audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 24}
	container, err := encode.WAV(make([]byte, 12), format)
	if err != nil {
		t.Fatalf("WAV encode failed: %v", err)
	}

	if _, _, err := WAV(container); err == nil {
		t.Error("expected error for 24-bit container")
	}
}
