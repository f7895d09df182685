// ABOUTME: Tests for the conversation store, quote parsing and chat flow
// ABOUTME: Uses fake sessions and speakers instead of the Gemini API
package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeSession struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	sent    []string
}

func (f *fakeSession) Send(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, text)
	i := len(f.sent) - 1

	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", nil
}

type fakeSpeaker struct {
	audio string
	err   error
	calls []string
}

func (f *fakeSpeaker) Speak(ctx context.Context, text string) (string, error) {
	f.calls = append(f.calls, text)
	return f.audio, f.err
}

type fakeQuoteSource struct {
	text string
	err  error
}

func (f fakeQuoteSource) QuoteText(ctx context.Context) (string, error) {
	return f.text, f.err
}

func TestStoreAppendOrder(t *testing.T) {
	s := NewStore()

	a := NewMessage(RoleUser, "a")
	b := NewMessage(RoleModel, "b")
	s.Append(a)
	s.Append(b)

	msgs := s.Messages()
	if len(msgs) != 2 || msgs[0].ID != a.ID || msgs[1].ID != b.ID {
		t.Fatalf("unexpected order: %+v", msgs)
	}

	if !s.IsLatest(b.ID) || s.IsLatest(a.ID) {
		t.Error("expected b to be latest")
	}

	found, ok := s.Find(a.ID)
	if !ok || found.Text != "a" {
		t.Errorf("Find(a) = %+v, %v", found, ok)
	}

	// Returned slice is a copy
	msgs[0].Text = "changed"
	if got, _ := s.Find(a.ID); got.Text != "a" {
		t.Error("store mutated through Messages copy")
	}
}

func TestStoreEmpty(t *testing.T) {
	s := NewStore()

	if _, ok := s.Last(); ok {
		t.Error("expected no last message")
	}
	if s.IsLatest("x") {
		t.Error("expected IsLatest false on empty store")
	}
}

func TestNewMessageUniqueIDs(t *testing.T) {
	a := NewMessage(RoleUser, "x")
	b := NewMessage(RoleUser, "x")
	if a.ID == b.ID {
		t.Error("expected unique IDs")
	}
}

func TestParseQuote(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Quote
	}{
		{
			name: "verse and reference",
			text: "Todo lo puedo en Cristo que me fortalece. - Filipenses 4:13",
			want: Quote{"Todo lo puedo en Cristo que me fortalece.", "Filipenses 4:13"},
		},
		{
			name: "no separator",
			text: "El Señor es mi luz",
			want: Quote{"El Señor es mi luz", "Salmos 23:1"},
		},
		{
			name: "empty",
			text: "",
			want: FallbackQuote,
		},
		{
			name: "empty verse",
			text: " - Juan 3:16",
			want: Quote{"Jehová es mi pastor; nada me faltará.", "Juan 3:16"},
		},
		{
			name: "hyphen inside verse",
			text: "Bien-aventurados los mansos - Mateo 5:5",
			want: Quote{"Bien", "aventurados los mansos"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseQuote(tt.text); got != tt.want {
				t.Errorf("ParseQuote(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestLoadQuote(t *testing.T) {
	ctx := context.Background()

	if got := LoadQuote(ctx, fakeQuoteSource{err: errors.New("offline")}); got != ErrorQuote {
		t.Errorf("expected error quote, got %+v", got)
	}
	if got := LoadQuote(ctx, nil); got != ErrorQuote {
		t.Errorf("expected error quote for nil source, got %+v", got)
	}

	got := LoadQuote(ctx, fakeQuoteSource{text: "Dios es amor - 1 Juan 4:8"})
	if got.Verse != "Dios es amor" || got.Reference != "1 Juan 4:8" {
		t.Errorf("unexpected quote %+v", got)
	}
}

func TestStart(t *testing.T) {
	speaker := &fakeSpeaker{audio: "AAAA"}
	c := NewConversation(&fakeSession{}, speaker, nil)

	msg, err := c.Start(context.Background())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if msg.Role != RoleModel || msg.Text != WelcomeText || msg.AudioBase64 != "AAAA" {
		t.Errorf("unexpected welcome %+v", msg)
	}
	if c.Store().Len() != 1 {
		t.Errorf("expected 1 message, got %d", c.Store().Len())
	}

	if _, err := c.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestSend(t *testing.T) {
	session := &fakeSession{replies: []string{"Juan 3:16 dice..."}}
	speaker := &fakeSpeaker{audio: "AQID"}
	c := NewConversation(session, speaker, NewStore())

	msg, err := c.Send(context.Background(), "  ¿Qué dice Juan 3:16?  ")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if msg.Text != "Juan 3:16 dice..." || msg.AudioBase64 != "AQID" {
		t.Errorf("unexpected reply %+v", msg)
	}
	if session.sent[0] != "¿Qué dice Juan 3:16?" {
		t.Errorf("expected trimmed text sent, got %q", session.sent[0])
	}

	msgs := c.Store().Messages()
	if len(msgs) != 2 || msgs[0].Role != RoleUser || msgs[1].Role != RoleModel {
		t.Errorf("unexpected log %+v", msgs)
	}
	if c.Pending() {
		t.Error("expected no pending reply")
	}
}

func TestSendEmpty(t *testing.T) {
	session := &fakeSession{}
	c := NewConversation(session, nil, nil)

	if _, err := c.Send(context.Background(), "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
	if len(session.sent) != 0 || c.Store().Len() != 0 {
		t.Error("empty input must not reach the session or the log")
	}
}

func TestSendEmptyReplyUsesFallback(t *testing.T) {
	c := NewConversation(&fakeSession{replies: []string{"  "}}, nil, nil)

	msg, err := c.Send(context.Background(), "hola")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if msg.Text != FallbackReply {
		t.Errorf("expected fallback reply, got %q", msg.Text)
	}
}

func TestSendSpeechFailureKeepsText(t *testing.T) {
	speaker := &fakeSpeaker{err: errors.New("tts down")}
	c := NewConversation(&fakeSession{replies: []string{"Paz"}}, speaker, nil)

	msg, err := c.Send(context.Background(), "hola")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if msg.Text != "Paz" || msg.HasAudio() {
		t.Errorf("expected text-only reply, got %+v", msg)
	}
}

func TestSendFailureAndRetry(t *testing.T) {
	session := &fakeSession{
		errs:    []error{errors.New("quota"), nil},
		replies: []string{"", "Gracia y paz"},
	}
	c := NewConversation(session, nil, nil)

	msg, err := c.Send(context.Background(), "ora por mí")
	if err == nil {
		t.Fatal("expected error")
	}
	if !msg.Failed || msg.Text != ErrorReply {
		t.Errorf("expected error reply, got %+v", msg)
	}
	if !c.CanRetry() {
		t.Fatal("expected retry available")
	}

	msg, err = c.Retry(context.Background())
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if msg.Text != "Gracia y paz" {
		t.Errorf("unexpected retry reply %+v", msg)
	}
	if session.sent[1] != "ora por mí" {
		t.Errorf("expected retry to resend the same text, got %q", session.sent[1])
	}
	if c.CanRetry() {
		t.Error("expected retry cleared after success")
	}

	// user, error reply, retried reply
	if c.Store().Len() != 3 {
		t.Errorf("expected 3 messages, got %d", c.Store().Len())
	}
}

func TestRetryNothing(t *testing.T) {
	c := NewConversation(&fakeSession{}, nil, nil)

	if _, err := c.Retry(context.Background()); !errors.Is(err, ErrNothingToRetry) {
		t.Errorf("expected ErrNothingToRetry, got %v", err)
	}
}

type blockingSession struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSession) Send(ctx context.Context, text string) (string, error) {
	close(b.entered)
	<-b.release
	return "ok", nil
}

func TestSendWhilePending(t *testing.T) {
	session := &blockingSession{entered: make(chan struct{}), release: make(chan struct{})}
	c := NewConversation(session, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Send(context.Background(), "first")
		done <- err
	}()

	<-session.entered
	if !c.Pending() {
		t.Error("expected pending reply")
	}
	if _, err := c.Send(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}

	close(session.release)
	if err := <-done; err != nil {
		t.Errorf("first Send failed: %v", err)
	}
}
