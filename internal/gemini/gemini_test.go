// ABOUTME: Tests for Gemini response handling and prompts
// ABOUTME: Builds responses locally; no network calls
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/siervo-de-dios/siervo-go/pkg/audio"
)

func audioResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: genai.RoleModel, Parts: parts}},
		},
	}
}

func TestSpeechPayload(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0xff, 0x7f}

	resp := audioResponse(&genai.Part{
		InlineData: &genai.Blob{MIMEType: "audio/L16;codec=pcm;rate=24000", Data: pcm},
	})

	got, err := SpeechPayload(resp)
	if err != nil {
		t.Fatalf("SpeechPayload failed: %v", err)
	}
	if got != base64.StdEncoding.EncodeToString(pcm) {
		t.Errorf("unexpected payload %q", got)
	}
}

func TestSpeechPayloadResamples(t *testing.T) {
	pcm := audio.Int16Bytes([]int{0, 100, 200, 300, 400})

	resp := audioResponse(&genai.Part{
		InlineData: &genai.Blob{MIMEType: "audio/L16;codec=pcm;rate=48000", Data: pcm},
	})

	got, err := SpeechPayload(resp)
	if err != nil {
		t.Fatalf("SpeechPayload failed: %v", err)
	}

	want := base64.StdEncoding.EncodeToString(audio.Int16Bytes([]int{0, 200, 400}))
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSpeechPayloadSkipsTextParts(t *testing.T) {
	resp := audioResponse(
		&genai.Part{Text: "hola"},
		&genai.Part{InlineData: &genai.Blob{MIMEType: "audio/L16;rate=24000", Data: []byte{1, 2}}},
	)

	got, err := SpeechPayload(resp)
	if err != nil {
		t.Fatalf("SpeechPayload failed: %v", err)
	}
	if got != "AQI=" {
		t.Errorf("expected AQI=, got %q", got)
	}
}

func TestSpeechPayloadMissing(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{"nil response", nil},
		{"no candidates", &genai.GenerateContentResponse{}},
		{"nil content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}},
		{"text only", audioResponse(&genai.Part{Text: "sin audio"})},
		{"empty blob", audioResponse(&genai.Part{InlineData: &genai.Blob{MIMEType: "audio/L16"}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SpeechPayload(tt.resp); !errors.Is(err, ErrNoAudio) {
				t.Errorf("expected ErrNoAudio, got %v", err)
			}
		})
	}
}

func TestMimeRate(t *testing.T) {
	tests := []struct {
		mime   string
		rate   int
		wantOK bool
	}{
		{"audio/L16;codec=pcm;rate=24000", 24000, true},
		{"audio/L16; rate=16000", 16000, true},
		{"audio/L16", 0, false},
		{"audio/L16;rate=abc", 0, false},
	}

	for _, tt := range tests {
		rate, ok := mimeRate(tt.mime)
		if rate != tt.rate || ok != tt.wantOK {
			t.Errorf("mimeRate(%q) = %d, %v; want %d, %v", tt.mime, rate, ok, tt.rate, tt.wantOK)
		}
	}
}

func TestSpeechPrompt(t *testing.T) {
	got := SpeechPrompt("Dios es amor")
	if !strings.HasPrefix(got, "Lee con voz solemne") || !strings.HasSuffix(got, "Dios es amor") {
		t.Errorf("unexpected prompt %q", got)
	}
}

func TestNewMissingAPIKey(t *testing.T) {
	if _, err := New(context.Background(), Config{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ChatModel != "gemini-3-pro-preview" || cfg.SpeechModel != "gemini-2.5-flash-preview-tts" {
		t.Errorf("unexpected models %+v", cfg)
	}
	if cfg.Voice != "Kore" {
		t.Errorf("expected voice Kore, got %s", cfg.Voice)
	}
}
