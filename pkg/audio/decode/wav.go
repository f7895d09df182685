// ABOUTME: WAV container reader
// ABOUTME: Parses container headers and extracts PCM via go-audio/wav
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-audio/wav"
	"github.com/siervo-de-dios/siervo-go/pkg/audio"
	"github.com/siervo-de-dios/siervo-go/pkg/audio/encode"
)

// ParseHeader reads and validates the fixed 44-byte container header
func ParseHeader(data []byte) (encode.Header, error) {
	var header encode.Header

	if len(data) < encode.HeaderSize {
		return header, fmt.Errorf("WAV data too short: need at least %d bytes, got %d", encode.HeaderSize, len(data))
	}

	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return header, fmt.Errorf("failed to read WAV header: %w", err)
	}

	if string(header.ChunkID[:]) != "RIFF" {
		return header, fmt.Errorf("invalid WAV file: missing RIFF header")
	}
	if string(header.Format[:]) != "WAVE" {
		return header, fmt.Errorf("invalid WAV file: missing WAVE format")
	}
	if string(header.Subchunk1ID[:]) != "fmt " {
		return header, fmt.Errorf("invalid WAV file: missing fmt chunk")
	}
	if string(header.Subchunk2ID[:]) != "data" {
		return header, fmt.Errorf("invalid WAV file: missing data chunk")
	}
	if header.AudioFormat != 1 {
		return header, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", header.AudioFormat)
	}
	if int64(len(data)-encode.HeaderSize) < int64(header.DataSize) {
		return header, fmt.Errorf("truncated WAV data: header declares %d bytes, have %d",
			header.DataSize, len(data)-encode.HeaderSize)
	}

	return header, nil
}

// HeaderFormat converts header fields to an audio.Format
func HeaderFormat(header encode.Header) audio.Format {
	return audio.Format{
		Codec:      "pcm",
		SampleRate: int(header.SampleRate),
		Channels:   int(header.NumChannels),
		BitDepth:   int(header.BitsPerSample),
	}
}

// Duration returns the play time declared by the container header
func Duration(container []byte) (time.Duration, error) {
	header, err := ParseHeader(container)
	if err != nil {
		return 0, err
	}
	return HeaderFormat(header).Duration(int(header.DataSize)), nil
}

// WAV reads a 16-bit linear-PCM container and returns its format and
// little-endian sample bytes
func WAV(container []byte) (audio.Format, []byte, error) {
	header, err := ParseHeader(container)
	if err != nil {
		return audio.Format{}, nil, err
	}

	format := HeaderFormat(header)
	if format.BitDepth != 16 {
		return format, nil, fmt.Errorf("unsupported bit depth: %d (only 16-bit is supported)", format.BitDepth)
	}

	// go-audio/wav rejects files with no samples; an empty data chunk is silence
	if header.DataSize == 0 {
		return format, []byte{}, nil
	}

	dec := wav.NewDecoder(bytes.NewReader(container))
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return format, nil, fmt.Errorf("failed to read WAV info: %w", err)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return format, nil, fmt.Errorf("failed to read WAV samples: %w", err)
	}

	return format, audio.Int16Bytes(buf.Data), nil
}
