// ABOUTME: WAV container encoder
// ABOUTME: Prepends a little-endian RIFF/WAVE header to raw PCM bytes
package encode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/siervo-de-dios/siervo-go/pkg/audio"
)

const (
	// HeaderSize is the fixed size of the container header
	HeaderSize = 44

	// riffOverhead is what the RIFF chunk size adds on top of the data length
	riffOverhead = HeaderSize - 8

	formatPCM = 1
)

// ErrNoSamples is returned when Wrap is given a nil sample buffer
var ErrNoSamples = errors.New("no sample buffer")

// Header is the on-disk layout of a canonical PCM WAV header
type Header struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // 36 + DataSize
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	DataSize      uint32
}

// NewHeader builds the header for dataLen bytes of PCM in the given format
func NewHeader(dataLen int, format audio.Format) Header {
	return Header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(riffOverhead + dataLen),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   formatPCM,
		NumChannels:   uint16(format.Channels),
		SampleRate:    uint32(format.SampleRate),
		ByteRate:      uint32(format.ByteRate()),
		BlockAlign:    uint16(format.BlockAlign()),
		BitsPerSample: uint16(format.BitDepth),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		DataSize:      uint32(dataLen),
	}
}

// WAV wraps raw PCM samples in a container for the given format.
// An empty (non-nil) buffer yields a valid 44-byte container.
func WAV(samples []byte, format audio.Format) ([]byte, error) {
	if samples == nil {
		return nil, ErrNoSamples
	}
	if err := validateFormat(format); err != nil {
		return nil, err
	}
	if len(samples) > math.MaxUint32-riffOverhead {
		return nil, fmt.Errorf("sample buffer too large for WAV: %d bytes", len(samples))
	}

	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize+len(samples)))

	header := NewHeader(len(samples), format)
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}

	buf.Write(samples)

	return buf.Bytes(), nil
}

// Speech wraps samples using the fixed speech format (24kHz mono 16-bit)
func Speech(samples []byte) ([]byte, error) {
	return WAV(samples, audio.SpeechFormat)
}

func validateFormat(format audio.Format) error {
	if format.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", format.SampleRate)
	}
	if format.Channels <= 0 {
		return fmt.Errorf("channel count must be positive, got %d", format.Channels)
	}
	if format.BitDepth <= 0 || format.BitDepth%8 != 0 {
		return fmt.Errorf("unsupported bit depth: %d", format.BitDepth)
	}
	return nil
}
