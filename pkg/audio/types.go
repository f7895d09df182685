// ABOUTME: Audio type definitions
// ABOUTME: Defines the PCM format descriptor and sample helpers
package audio

import (
	"encoding/binary"
	"time"
)

// Format describes a linear PCM stream
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// SpeechFormat is the format produced by the speech synthesizer
var SpeechFormat = Format{
	Codec:      "pcm",
	SampleRate: 24000,
	Channels:   1,
	BitDepth:   16,
}

// BlockAlign returns bytes per frame (all channels)
func (f Format) BlockAlign() int {
	return f.Channels * f.BitDepth / 8
}

// ByteRate returns bytes per second
func (f Format) ByteRate() int {
	return f.SampleRate * f.BlockAlign()
}

// Duration returns the play time of n bytes of PCM in this format
func (f Format) Duration(n int) time.Duration {
	rate := f.ByteRate()
	if rate == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(rate)
}

// Int16Bytes packs samples as little-endian 16-bit PCM
func Int16Bytes(samples []int) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s)))
	}
	return out
}

// Int16Samples unpacks little-endian 16-bit PCM (a trailing odd byte is dropped)
func Int16Samples(data []byte) []int {
	samples := make([]int, len(data)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
	return samples
}
