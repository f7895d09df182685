// ABOUTME: Application configuration with YAML, .env and environment overrides
// ABOUTME: Defaults match the stock Gemini models and the speech export naming
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type GeminiConfig struct {
	APIKey           string  `yaml:"api_key"`
	QuoteModel       string  `yaml:"quote_model"`
	ChatModel        string  `yaml:"chat_model"`
	SpeechModel      string  `yaml:"speech_model"`
	Voice            string  `yaml:"voice"`
	QuoteTemperature float64 `yaml:"quote_temperature"`
	ChatTemperature  float64 `yaml:"chat_temperature"`
	TimeoutMS        int     `yaml:"timeout_ms"`
}

type AudioConfig struct {
	Enabled      bool   `yaml:"enabled"`
	VoiceOutput  bool   `yaml:"voice_output"`
	Volume       int    `yaml:"volume"`
	ExportDir    string `yaml:"export_dir"`
	ExportPrefix string `yaml:"export_prefix"`
}

type UIConfig struct {
	TUI     bool   `yaml:"tui"`
	LogFile string `yaml:"log_file"`
}

type WebConfig struct {
	Listen      string `yaml:"listen"`
	Advertise   bool   `yaml:"advertise"`
	ServiceName string `yaml:"service_name"`
	MetricsPath string `yaml:"metrics_path"`
}

type Config struct {
	Gemini GeminiConfig `yaml:"gemini"`
	Audio  AudioConfig  `yaml:"audio"`
	UI     UIConfig     `yaml:"ui"`
	Web    WebConfig    `yaml:"web"`
}

func Default() Config {
	return Config{
		Gemini: GeminiConfig{
			QuoteModel:       "gemini-3-flash-preview",
			ChatModel:        "gemini-3-pro-preview",
			SpeechModel:      "gemini-2.5-flash-preview-tts",
			Voice:            "Kore",
			QuoteTemperature: 1.0,
			ChatTemperature:  0.7,
			TimeoutMS:        60000,
		},
		Audio: AudioConfig{
			Enabled:      true,
			VoiceOutput:  true,
			Volume:       100,
			ExportDir:    ".",
			ExportPrefix: "mensaje_siervo",
		},
		UI: UIConfig{
			TUI:     true,
			LogFile: "siervo.log",
		},
		Web: WebConfig{
			Listen:      "",
			Advertise:   false,
			ServiceName: "siervo",
			MetricsPath: "/metrics",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, an optional .env file and the environment, then validates it.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := loadEnvFile(envFile); err != nil {
		return cfg, err
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadEnvFile loads KEY=value pairs without overriding the real environment.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Gemini.APIKey, "API_KEY")
	overrideString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	overrideString(&cfg.Gemini.QuoteModel, "SIERVO_QUOTE_MODEL")
	overrideString(&cfg.Gemini.ChatModel, "SIERVO_CHAT_MODEL")
	overrideString(&cfg.Gemini.SpeechModel, "SIERVO_SPEECH_MODEL")
	overrideString(&cfg.Gemini.Voice, "SIERVO_VOICE")
	overrideFloat(&cfg.Gemini.QuoteTemperature, "SIERVO_QUOTE_TEMPERATURE")
	overrideFloat(&cfg.Gemini.ChatTemperature, "SIERVO_CHAT_TEMPERATURE")
	overrideInt(&cfg.Gemini.TimeoutMS, "SIERVO_TIMEOUT_MS")
	overrideBool(&cfg.Audio.Enabled, "SIERVO_AUDIO_ENABLED")
	overrideBool(&cfg.Audio.VoiceOutput, "SIERVO_VOICE_OUTPUT")
	overrideInt(&cfg.Audio.Volume, "SIERVO_VOLUME")
	overrideString(&cfg.Audio.ExportDir, "SIERVO_EXPORT_DIR")
	overrideString(&cfg.Audio.ExportPrefix, "SIERVO_EXPORT_PREFIX")
	overrideBool(&cfg.UI.TUI, "SIERVO_TUI")
	overrideString(&cfg.UI.LogFile, "SIERVO_LOG_FILE")
	overrideString(&cfg.Web.Listen, "SIERVO_WEB_LISTEN")
	overrideBool(&cfg.Web.Advertise, "SIERVO_WEB_ADVERTISE")
	overrideString(&cfg.Web.ServiceName, "SIERVO_WEB_SERVICE_NAME")
	overrideString(&cfg.Web.MetricsPath, "SIERVO_METRICS_PATH")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

// Timeout returns the per-request Gemini timeout
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Gemini.TimeoutMS) * time.Millisecond
}

// Validate checks every section
func (c Config) Validate() error {
	if c.Gemini.ChatModel == "" || c.Gemini.QuoteModel == "" || c.Gemini.SpeechModel == "" {
		return errors.New("gemini models must not be empty")
	}
	if c.Gemini.Voice == "" {
		return errors.New("gemini.voice must not be empty")
	}
	if c.Gemini.QuoteTemperature < 0 || c.Gemini.QuoteTemperature > 2 {
		return errors.New("gemini.quote_temperature must be between 0 and 2")
	}
	if c.Gemini.ChatTemperature < 0 || c.Gemini.ChatTemperature > 2 {
		return errors.New("gemini.chat_temperature must be between 0 and 2")
	}
	if c.Gemini.TimeoutMS <= 0 {
		return errors.New("gemini.timeout_ms must be positive")
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return errors.New("audio.volume must be between 0 and 100")
	}
	if c.Audio.ExportPrefix == "" {
		return errors.New("audio.export_prefix must not be empty")
	}
	if strings.ContainsAny(c.Audio.ExportPrefix, `/\`) {
		return errors.New("audio.export_prefix must not contain path separators")
	}
	if c.UI.LogFile == "" {
		return errors.New("ui.log_file must not be empty")
	}
	if c.Web.Advertise && c.Web.Listen == "" {
		return errors.New("web.advertise requires web.listen")
	}
	if c.Web.Listen != "" && !strings.HasPrefix(c.Web.MetricsPath, "/") {
		return errors.New("web.metrics_path must start with /")
	}
	return nil
}
