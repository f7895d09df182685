// ABOUTME: Gemini client for quotes, chat sessions and speech synthesis
// ABOUTME: Wraps google.golang.org/genai with the app's prompts and models
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"google.golang.org/genai"

	"github.com/siervo-de-dios/siervo-go/internal/metrics"
)

const (
	DefaultQuoteModel  = "gemini-3-flash-preview"
	DefaultChatModel   = "gemini-3-pro-preview"
	DefaultSpeechModel = "gemini-2.5-flash-preview-tts"
	DefaultVoice       = "Kore"

	DefaultQuoteTemperature = 1.0
	DefaultChatTemperature  = 0.7

	DefaultTimeout = 60 * time.Second
)

// ErrMissingAPIKey is returned when no API key is configured
var ErrMissingAPIKey = errors.New("gemini API key not set")

// Config holds client configuration
type Config struct {
	APIKey string

	QuoteModel  string
	ChatModel   string
	SpeechModel string
	Voice       string

	QuoteTemperature float32
	ChatTemperature  float32

	// Timeout bounds each request
	Timeout time.Duration

	// Metrics is optional
	Metrics *metrics.Metrics
}

// DefaultConfig returns the stock models and temperatures
func DefaultConfig() Config {
	return Config{
		QuoteModel:       DefaultQuoteModel,
		ChatModel:        DefaultChatModel,
		SpeechModel:      DefaultSpeechModel,
		Voice:            DefaultVoice,
		QuoteTemperature: DefaultQuoteTemperature,
		ChatTemperature:  DefaultChatTemperature,
		Timeout:          DefaultTimeout,
	}
}

// Client talks to the Gemini API
type Client struct {
	genai  *genai.Client
	config Config
}

// New creates a Gemini client
func New(ctx context.Context, config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	defaults := DefaultConfig()
	if config.QuoteModel == "" {
		config.QuoteModel = defaults.QuoteModel
	}
	if config.ChatModel == "" {
		config.ChatModel = defaults.ChatModel
	}
	if config.SpeechModel == "" {
		config.SpeechModel = defaults.SpeechModel
	}
	if config.Voice == "" {
		config.Voice = defaults.Voice
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{genai: client, config: config}, nil
}

// QuoteText asks for a short comforting verse on one hyphen-separated line
func (c *Client) QuoteText(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	started := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.config.QuoteModel, genai.Text(QuotePrompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.config.QuoteTemperature),
	})
	c.config.Metrics.ObserveGemini("quote", started, err)
	if err != nil {
		return "", fmt.Errorf("quote request failed: %w", err)
	}

	return resp.Text(), nil
}

// Speak synthesizes text and returns the base64 PCM payload
func (c *Client) Speak(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	started := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.config.SpeechModel, genai.Text(SpeechPrompt(text)), &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: c.config.Voice,
				},
			},
		},
	})
	c.config.Metrics.ObserveGemini("speech", started, err)
	if err != nil {
		return "", fmt.Errorf("speech request failed: %w", err)
	}

	payload, err := SpeechPayload(resp)
	if err != nil {
		return "", err
	}

	log.Printf("Synthesized speech: %d base64 chars", len(payload))
	return payload, nil
}

// NewSession starts a chat session with the system instruction
func (c *Client) NewSession(ctx context.Context) (*Session, error) {
	chat, err := c.genai.Chats.Create(ctx, c.config.ChatModel, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(c.config.ChatTemperature),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}

	return &Session{chat: chat, timeout: c.config.Timeout, metrics: c.config.Metrics}, nil
}

// Session is one multi-turn chat
type Session struct {
	chat    *genai.Chat
	timeout time.Duration
	metrics *metrics.Metrics
}

// Send sends the user's text and returns the reply text
func (s *Session) Send(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	resp, err := s.chat.SendMessage(ctx, genai.Part{Text: text})
	s.metrics.ObserveGemini("chat", started, err)
	if err != nil {
		return "", fmt.Errorf("chat message failed: %w", err)
	}

	return resp.Text(), nil
}
