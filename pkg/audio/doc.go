// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and the fixed speech format used by the pipeline
// Package audio provides the audio types shared by the codec, asset and
// output packages.
//
// Speech replies arrive as raw little-endian 16-bit PCM at a fixed format:
//
//	format := audio.SpeechFormat // pcm, 24000 Hz, mono, 16-bit
//	bytesPerSecond := format.ByteRate()
//
// There is no format negotiation. If the upstream synthesizer ever changes its
// output, SpeechFormat is the single place to update.
package audio
