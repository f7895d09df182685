// ABOUTME: Tests for base64 payload decoding
// ABOUTME: Covers round trips, padding, empty input and malformed payloads
package decode

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
)

func TestPayloadRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"empty", []byte{}},
		{"one byte", []byte{0x7F}},
		{"two bytes", []byte{0x00, 0x80}},
		{"three bytes", []byte{0x01, 0x02, 0x03}},
		{"pcm frames", []byte{0x00, 0x01, 0xFF, 0xFF, 0x00, 0x80, 0xFF, 0x7F}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := base64.StdEncoding.EncodeToString(tt.input)

			got, err := Payload(encoded)
			if err != nil {
				t.Fatalf("Payload failed: %v", err)
			}
			if !bytes.Equal(got, tt.input) {
				t.Errorf("expected %v, got %v", tt.input, got)
			}
		})
	}
}

func TestPayloadRoundTripAllByteValues(t *testing.T) {
	input := make([]byte, 1024)
	for i := range input {
		input[i] = byte(i * 7)
	}

	got, err := Payload(base64.StdEncoding.EncodeToString(input))
	if err != nil {
		t.Fatalf("Payload failed: %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Error("decoded bytes differ from original")
	}
}

func TestPayloadEmptyIsNotNil(t *testing.T) {
	got, err := Payload("")
	if err != nil {
		t.Fatalf("Payload failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected non-nil empty buffer")
	}
	if len(got) != 0 {
		t.Errorf("expected 0 bytes, got %d", len(got))
	}
}

func TestPayloadMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"invalid character", "AAE*"},
		{"missing padding", "AAE"},
		{"url alphabet", "__8="},
		{"truncated quad", "AAECAw="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Payload(tt.payload)
			if err == nil {
				t.Fatalf("expected error, got %v", got)
			}

			var payloadErr *PayloadError
			if !errors.As(err, &payloadErr) {
				t.Fatalf("expected *PayloadError, got %T", err)
			}
			if payloadErr.Offset < 0 {
				t.Errorf("expected corrupt offset to be reported, got %d", payloadErr.Offset)
			}
		})
	}
}

func TestPayloadErrorMessage(t *testing.T) {
	err := &PayloadError{Offset: -1, Err: errors.New("boom")}
	if err.Error() != "malformed audio payload: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}

	err = &PayloadError{Offset: 3, Err: errors.New("boom")}
	if err.Error() != "malformed audio payload at byte 3: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
