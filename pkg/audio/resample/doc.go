// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts 16-bit PCM between sample rates
// Package resample provides audio sample rate conversion.
//
// Speech replies are stored at 24000 Hz. When the synthesizer reports a
// different rate the payload is converted before it is encoded.
//
// Example:
//
//	pcm = resample.ToSpeech(pcm, 48000)
package resample
