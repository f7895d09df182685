// ABOUTME: Tests for web chat protocol frames
// ABOUTME: Covers parsing inbound frames and outbound JSON shape
package protocol

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/siervo-de-dios/siervo-go/internal/chat"
)

func TestParse(t *testing.T) {
	in, err := Parse([]byte(`{"type":"chat/send","payload":{"text":"hola"}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if in.Type != TypeChatSend {
		t.Errorf("expected chat/send, got %s", in.Type)
	}

	var send ChatSend
	if err := in.DecodePayload(&send); err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if send.Text != "hola" {
		t.Errorf("expected text hola, got %q", send.Text)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "hola"},
		{"missing type", `{"payload":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDecodePayloadMissing(t *testing.T) {
	in, err := Parse([]byte(`{"type":"chat/retry"}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var send ChatSend
	if err := in.DecodePayload(&send); err == nil {
		t.Error("expected missing payload error")
	}
}

func TestChatMessageJSON(t *testing.T) {
	msg := chat.NewMessage(chat.RoleModel, "Paz")
	msg.AudioBase64 = "AQI="

	data, err := json.Marshal(Message{Type: TypeChatMessage, Payload: ChatMessage{Message: msg, AudioURL: "/api/audio/x.wav"}})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	s := string(data)
	for _, want := range []string{`"type":"chat/message"`, `"role":"model"`, `"audioBase64":"AQI="`, `"audio_url":"/api/audio/x.wav"`} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
}
