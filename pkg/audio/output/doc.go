// ABOUTME: Audio output package for playing speech containers
// ABOUTME: Provides Output/Voice interfaces, an oto backend and a null backend
// Package output provides platform playback for WAV speech containers.
//
// An Output is opened once per process with the fixed speech format. Each
// container gets its own Voice, which can be played, paused, rewound and
// closed independently.
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(audio.SpeechFormat)
//	voice, err := out.NewVoice(container)
//	err = voice.Play()
package output
