// ABOUTME: Extraction of the speech payload from a Gemini response
// ABOUTME: Re-encodes inline PCM as base64 at the speech sample rate
package gemini

import (
	"encoding/base64"
	"errors"
	"log"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"github.com/siervo-de-dios/siervo-go/pkg/audio"
	"github.com/siervo-de-dios/siervo-go/pkg/audio/resample"
)

// ErrNoAudio is returned when a speech response carries no inline audio
var ErrNoAudio = errors.New("response contains no audio")

// SpeechPayload returns the first inline audio part as base64
func SpeechPayload(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrNoAudio
	}

	content := resp.Candidates[0].Content
	if content == nil {
		return "", ErrNoAudio
	}

	for _, part := range content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}

		pcm := part.InlineData.Data
		if rate, ok := mimeRate(part.InlineData.MIMEType); ok && rate != audio.SpeechFormat.SampleRate {
			log.Printf("Resampling speech from %dHz to %dHz", rate, audio.SpeechFormat.SampleRate)
			pcm = resample.ToSpeech(pcm, rate)
		}
		return base64.StdEncoding.EncodeToString(pcm), nil
	}

	return "", ErrNoAudio
}

// mimeRate reads the rate parameter from e.g. "audio/L16;codec=pcm;rate=24000"
func mimeRate(mimeType string) (int, bool) {
	for _, param := range strings.Split(mimeType, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(param), "=")
		if !found || key != "rate" {
			continue
		}
		rate, err := strconv.Atoi(value)
		if err != nil {
			return 0, false
		}
		return rate, true
	}
	return 0, false
}
