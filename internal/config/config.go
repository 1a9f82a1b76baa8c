// Package config loads the bot's settings from the environment, an
// optional .env file and built-in defaults, and validates them.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Vocabulary VocabularyConfig `mapstructure:"vocabulary"`
	Session    SessionConfig    `mapstructure:"session"`
	Speech     SpeechConfig     `mapstructure:"speech"`
	Log        LogConfig        `mapstructure:"log"`
}

// TelegramConfig contains the bot API settings.
type TelegramConfig struct {
	Token       string `mapstructure:"token" validate:"required"`
	Debug       bool   `mapstructure:"debug"`
	PollTimeout int    `mapstructure:"poll_timeout" validate:"gt=0"`
}

// DatabaseConfig selects the progress store.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite3 postgres"`
	DSN    string `mapstructure:"dsn" validate:"required"`
}

// VocabularyConfig points at the word list.
type VocabularyConfig struct {
	Path  string `mapstructure:"path" validate:"required"`
	Sheet string `mapstructure:"sheet"`
}

// SessionConfig tunes Activity 1 sessions.
type SessionConfig struct {
	Size          int           `mapstructure:"size" validate:"min=1,max=10"`
	IdleTTL       time.Duration `mapstructure:"idle_ttl" validate:"gt=0"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
}

// SpeechConfig selects the text-to-speech provider.
type SpeechConfig struct {
	Provider     string        `mapstructure:"provider" validate:"oneof=google gemini none"`
	APIKey       string        `mapstructure:"api_key" validate:"required_unless=Provider none"`
	LanguageCode string        `mapstructure:"language_code" validate:"required"`
	Voice        string        `mapstructure:"voice"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// envBindings maps config keys to the environment variables they are read from.
var envBindings = map[string]string{
	"telegram.token":         "TELEGRAM_BOT_TOKEN",
	"telegram.debug":         "TELEGRAM_DEBUG",
	"telegram.poll_timeout":  "TELEGRAM_POLL_TIMEOUT",
	"database.driver":        "DB_TYPE",
	"database.dsn":           "DATABASE_URL",
	"vocabulary.path":        "VOCABULARY_PATH",
	"vocabulary.sheet":       "VOCABULARY_SHEET",
	"session.size":           "SESSION_SIZE",
	"session.idle_ttl":       "SESSION_IDLE_TTL",
	"session.sweep_interval": "SESSION_SWEEP_INTERVAL",
	"speech.provider":        "SPEECH_PROVIDER",
	"speech.api_key":         "SPEECH_API_KEY",
	"speech.language_code":   "SPEECH_LANGUAGE_CODE",
	"speech.voice":           "SPEECH_VOICE",
	"speech.model":           "SPEECH_MODEL",
	"speech.timeout":         "SPEECH_TIMEOUT",
	"log.level":              "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.debug", false)
	v.SetDefault("telegram.poll_timeout", 60)
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "data/ipabot.db")
	v.SetDefault("vocabulary.path", "words1.json")
	v.SetDefault("vocabulary.sheet", "")
	v.SetDefault("session.size", 10)
	v.SetDefault("session.idle_ttl", 2*time.Hour)
	v.SetDefault("session.sweep_interval", 10*time.Minute)
	v.SetDefault("speech.provider", "google")
	v.SetDefault("speech.language_code", "en-US")
	v.SetDefault("speech.voice", "")
	v.SetDefault("speech.model", "gemini-2.5-flash-preview-tts")
	v.SetDefault("speech.timeout", 15*time.Second)
	v.SetDefault("log.level", "info")
}

// Load reads .env (if present) and the environment, applies defaults and
// validates the result. Variables already set in the environment win over .env.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	cfg.Speech.Provider = strings.ToLower(cfg.Speech.Provider)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// SlogLevel converts the configured level name.
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
