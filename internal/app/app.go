// ABOUTME: Main application orchestration
// ABOUTME: Wires audio output, assets, Gemini and the conversation into a run mode
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/siervo-de-dios/siervo-go/internal/chat"
	"github.com/siervo-de-dios/siervo-go/internal/config"
	"github.com/siervo-de-dios/siervo-go/internal/gemini"
	"github.com/siervo-de-dios/siervo-go/internal/metrics"
	"github.com/siervo-de-dios/siervo-go/internal/player"
	"github.com/siervo-de-dios/siervo-go/internal/ui"
	"github.com/siervo-de-dios/siervo-go/internal/web"
	"github.com/siervo-de-dios/siervo-go/pkg/audio"
	"github.com/siervo-de-dios/siervo-go/pkg/audio/output"
)

// Services are the generative collaborators
type Services struct {
	Quotes     chat.QuoteSource
	Speaker    chat.Speaker
	NewSession web.SessionFactory
}

// GeminiServices adapts a Gemini client
func GeminiServices(client *gemini.Client) Services {
	return Services{
		Quotes:  client,
		Speaker: client,
		NewSession: func(ctx context.Context) (chat.Session, error) {
			session, err := client.NewSession(ctx)
			if err != nil {
				return nil, err
			}
			return session, nil
		},
	}
}

// App represents the main application
type App struct {
	config   config.Config
	services Services
	metrics  *metrics.Metrics
	output   output.Output
	assets   *player.Manager
}

// New creates the application backed by Gemini
func New(ctx context.Context, cfg config.Config) (*App, error) {
	m := metrics.New()

	client, err := gemini.New(ctx, gemini.Config{
		APIKey:           cfg.Gemini.APIKey,
		QuoteModel:       cfg.Gemini.QuoteModel,
		ChatModel:        cfg.Gemini.ChatModel,
		SpeechModel:      cfg.Gemini.SpeechModel,
		Voice:            cfg.Gemini.Voice,
		QuoteTemperature: float32(cfg.Gemini.QuoteTemperature),
		ChatTemperature:  float32(cfg.Gemini.ChatTemperature),
		Timeout:          cfg.Timeout(),
		Metrics:          m,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return NewWithServices(cfg, GeminiServices(client), m), nil
}

// NewWithServices creates the application over the given collaborators.
// m may be nil.
func NewWithServices(cfg config.Config, services Services, m *metrics.Metrics) *App {
	out := openOutput(cfg.Audio)
	out.SetVolume(cfg.Audio.Volume)

	return &App{
		config:   cfg,
		services: services,
		metrics:  m,
		output:   out,
		assets: player.NewManager(player.ManagerConfig{
			Output:       out,
			ExportPrefix: cfg.Audio.ExportPrefix,
			Metrics:      m,
		}),
	}
}

// openOutput opens the speaker, falling back to silence
func openOutput(cfg config.AudioConfig) output.Output {
	if !cfg.Enabled {
		log.Printf("Audio output disabled")
		return output.NewNull()
	}

	out := output.NewOto()
	if err := out.Open(audio.SpeechFormat); err != nil {
		log.Printf("Audio output unavailable, continuing without sound: %v", err)
		return output.NewNull()
	}
	return out
}

// Assets returns the asset manager
func (a *App) Assets() *player.Manager {
	return a.assets
}

// RunTUI runs the terminal interface until the user quits
func (a *App) RunTUI(ctx context.Context) error {
	conv, err := a.conversation(ctx)
	if err != nil {
		return err
	}

	return ui.Run(ui.Options{
		Conversation: conv,
		Quotes:       a.services.Quotes,
		Assets:       a.assets,
		Output:       a.output,
		VoiceEnabled: a.config.Audio.VoiceOutput,
		Volume:       a.config.Audio.Volume,
		ExportDir:    a.config.Audio.ExportDir,
	})
}

// RunWeb serves the web mode until ctx is cancelled
func (a *App) RunWeb(ctx context.Context) error {
	server := web.New(web.Config{
		Addr:        a.config.Web.Listen,
		ServiceName: a.config.Web.ServiceName,
		Advertise:   a.config.Web.Advertise,
		MetricsPath: a.config.Web.MetricsPath,
		NewSession:  a.services.NewSession,
		Speaker:     a.services.Speaker,
		Quotes:      a.services.Quotes,
		Assets:      a.assets,
		Metrics:     a.metrics,
	})

	go func() {
		<-ctx.Done()
		server.Stop()
	}()

	return server.Start()
}

// Close releases the audio output
func (a *App) Close() error {
	return a.output.Close()
}

func (a *App) conversation(ctx context.Context) (*chat.Conversation, error) {
	if a.services.NewSession == nil {
		return nil, fmt.Errorf("no chat session available")
	}

	session, err := a.services.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start chat session: %w", err)
	}
	return chat.NewConversation(session, a.services.Speaker, nil), nil
}
