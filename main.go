// ABOUTME: Entry point for the Siervo de Dios scripture chat
// ABOUTME: Parses CLI flags and starts the TUI, console, web or remote mode
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/siervo-de-dios/siervo-go/internal/app"
	"github.com/siervo-de-dios/siervo-go/internal/config"
	"github.com/siervo-de-dios/siervo-go/internal/version"
)

var (
	configPath  = flag.String("config", "", "YAML configuration file")
	envFile     = flag.String("env-file", ".env", "Environment file with GEMINI_API_KEY")
	logFile     = flag.String("log-file", "siervo.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, chat on plain stdin/stdout")
	streamLogs  = flag.Bool("stream-logs", false, "Alias for -no-tui")
	webAddr     = flag.String("web", "", "Serve the web chat on this address (e.g. :8080)")
	advertise   = flag.Bool("advertise", false, "Advertise the web server over mDNS")
	noAudio     = flag.Bool("no-audio", false, "Disable the audio device")
	noVoice     = flag.Bool("no-voice", false, "Start with voice output off")
	volume      = flag.Int("volume", 100, "Playback volume (0-100)")
	exportDir   = flag.String("export-dir", ".", "Directory for downloaded replies")
	connectAddr = flag.String("connect", "", "Chat with a remote siervo web server (host:port)")
	discover    = flag.Bool("discover", false, "Find a siervo web server over mDNS and chat with it")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	remote := *connectAddr != "" || *discover
	useTUI := cfg.UI.TUI && cfg.Web.Listen == "" && !remote

	// Set up logging
	f, err := os.OpenFile(cfg.UI.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else if cfg.Web.Listen != "" {
		// Web mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	} else {
		// Console modes own stdout for the chat
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	log.Printf("Starting %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, useTUI); err != nil {
		log.Printf("Error: %v", err)
		stop()
		_ = f.Close()
		os.Exit(1)
	}

	log.Printf("Stopped")
}

func run(ctx context.Context, cfg config.Config, useTUI bool) error {
	if *connectAddr != "" || *discover {
		return runRemote(ctx, cfg)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	switch {
	case cfg.Web.Listen != "":
		return a.RunWeb(ctx)
	case useTUI:
		return a.RunTUI(ctx)
	default:
		return a.RunConsole(ctx, os.Stdin, os.Stdout)
	}
}

// runRemote needs no API key; the server holds it
func runRemote(ctx context.Context, cfg config.Config) error {
	addr := *connectAddr
	if addr == "" {
		server, err := app.Discover(ctx, 10*time.Second)
		if err != nil {
			return err
		}
		addr = server.URL()
	}

	a := app.NewWithServices(cfg, app.Services{}, nil)
	defer func() { _ = a.Close() }()

	return a.RunRemote(ctx, addr, os.Stdin, os.Stdout)
}

// applyFlags overrides configuration with explicitly set flags
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-file":
			cfg.UI.LogFile = *logFile
		case "no-tui", "stream-logs":
			cfg.UI.TUI = !(*noTUI || *streamLogs)
		case "web":
			cfg.Web.Listen = *webAddr
		case "advertise":
			cfg.Web.Advertise = *advertise
		case "no-audio":
			cfg.Audio.Enabled = !*noAudio
		case "no-voice":
			cfg.Audio.VoiceOutput = !*noVoice
		case "volume":
			cfg.Audio.Volume = *volume
		case "export-dir":
			cfg.Audio.ExportDir = *exportDir
		}
	})
}
