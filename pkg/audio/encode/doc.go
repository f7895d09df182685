// ABOUTME: Audio encoder package for wrapping PCM in playable containers
// ABOUTME: Builds the 44-byte RIFF/WAVE header around raw samples
// Package encode wraps raw PCM in a minimal linear-PCM WAV container.
//
// The container is the compatibility contract with the playback layer and
// with any external player the exported file is opened in.
//
// Example:
//
//	container, err := encode.Speech(samples)
//	// or, for an explicit format:
//	container, err = encode.WAV(samples, audio.SpeechFormat)
package encode
