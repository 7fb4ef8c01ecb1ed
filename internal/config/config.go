package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Completion providers.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// History backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	// Core
	DiscordToken string `env:"DISCORD_TOKEN,required,notEmpty"`
	ChannelID    string `env:"CHANNEL_ID" envDefault:"0"`

	// Completion provider
	Provider              string `env:"PROVIDER" envDefault:"gemini"`
	GeminiAPIKey          string `env:"GEMINI_API_KEY"`
	GeminiModel           string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash-exp"`
	GeminiVisionModel     string `env:"GEMINI_VISION_MODEL" envDefault:"gemini-2.0-flash-exp"`
	OpenRouterKey         string `env:"OPENROUTER_API_KEY"`
	OpenRouterURL         string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	OpenRouterModel       string `env:"OPENROUTER_MODEL" envDefault:"openai/gpt-4o-mini"`
	OpenRouterVisionModel string `env:"OPENROUTER_VISION_MODEL" envDefault:"openai/gpt-4o"`

	// History storage
	HistoryBackend string `env:"HISTORY_BACKEND" envDefault:"file"`
	HistoryPath    string `env:"HISTORY_PATH" envDefault:"chat_history.json"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"data/history.db"`
	DatabaseURL    string `env:"DATABASE_URL"`

	// Telegram transport, disabled when the token is empty
	TelegramToken  string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID" envDefault:"0"`

	// Logging
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
	LogTelegramChatID  int64  `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTelegramTopicID int    `env:"LOG_TELEGRAM_TOPIC_ID"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderGemini:
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider %q", c.Provider)
		}
	case ProviderOpenRouter:
		if strings.TrimSpace(c.OpenRouterKey) == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required for provider %q", c.Provider)
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	switch c.HistoryBackend {
	case BackendFile, BackendSQLite:
	case BackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for history backend %q", c.HistoryBackend)
		}
	default:
		return fmt.Errorf("unknown history backend %q", c.HistoryBackend)
	}
	return nil
}

// RespondsEverywhere reports whether the Discord channel filter is disabled.
func (c *Config) RespondsEverywhere() bool {
	id := strings.TrimSpace(c.ChannelID)
	return id == "" || id == "0"
}

// TelegramEnabled reports whether the Telegram transport should be started.
func (c *Config) TelegramEnabled() bool {
	return strings.TrimSpace(c.TelegramToken) != ""
}

// SlogLevel maps LOG_LEVEL to a slog level, falling back to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
