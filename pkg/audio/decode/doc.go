// ABOUTME: Audio decoder package for speech payloads and WAV containers
// ABOUTME: Provides base64 payload decoding and container reading
// Package decode turns speech payloads into raw PCM and reads WAV
// containers back.
//
// Payload decodes the base64 text delivered by the speech synthesizer.
// WAV reads a linear-PCM container through go-audio/wav, which is how the
// output layer consumes what encode produces.
//
// Example:
//
//	samples, err := decode.Payload(message.AudioBase64)
//	format, pcm, err := decode.WAV(container)
package decode
