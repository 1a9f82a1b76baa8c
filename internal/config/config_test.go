package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv clears every bound variable, then sets the given ones.
// Originals are restored when the test ends.
func setupEnv(t *testing.T, envVars map[string]string) {
	t.Helper()
	for _, name := range envBindings {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	for name, value := range envVars {
		t.Setenv(name, value)
	}
}

func TestLoadDefaults(t *testing.T) {
	setupEnv(t, map[string]string{
		"TELEGRAM_BOT_TOKEN": "123:abc",
		"SPEECH_API_KEY":     "key",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.False(t, cfg.Telegram.Debug)
	assert.Equal(t, 60, cfg.Telegram.PollTimeout)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "data/ipabot.db", cfg.Database.DSN)
	assert.Equal(t, "words1.json", cfg.Vocabulary.Path)
	assert.Equal(t, 10, cfg.Session.Size)
	assert.Equal(t, 2*time.Hour, cfg.Session.IdleTTL)
	assert.Equal(t, 10*time.Minute, cfg.Session.SweepInterval)
	assert.Equal(t, "google", cfg.Speech.Provider)
	assert.Equal(t, "en-US", cfg.Speech.LanguageCode)
	assert.Equal(t, 15*time.Second, cfg.Speech.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	setupEnv(t, map[string]string{
		"TELEGRAM_BOT_TOKEN":     "123:abc",
		"TELEGRAM_DEBUG":         "true",
		"TELEGRAM_POLL_TIMEOUT":  "30",
		"DB_TYPE":                "Postgres",
		"DATABASE_URL":           "postgres://bot:pw@localhost/ipabot?sslmode=disable",
		"VOCABULARY_PATH":        "/srv/words.xlsx",
		"VOCABULARY_SHEET":       "Activity1",
		"SESSION_SIZE":           "5",
		"SESSION_IDLE_TTL":       "30m",
		"SESSION_SWEEP_INTERVAL": "1m",
		"SPEECH_PROVIDER":        "gemini",
		"SPEECH_API_KEY":         "gm-key",
		"SPEECH_VOICE":           "Puck",
		"SPEECH_TIMEOUT":         "5s",
		"LOG_LEVEL":              "DEBUG",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Telegram.Debug)
	assert.Equal(t, 30, cfg.Telegram.PollTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://bot:pw@localhost/ipabot?sslmode=disable", cfg.Database.DSN)
	assert.Equal(t, "/srv/words.xlsx", cfg.Vocabulary.Path)
	assert.Equal(t, "Activity1", cfg.Vocabulary.Sheet)
	assert.Equal(t, 5, cfg.Session.Size)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
	assert.Equal(t, "gemini", cfg.Speech.Provider)
	assert.Equal(t, "gm-key", cfg.Speech.APIKey)
	assert.Equal(t, "Puck", cfg.Speech.Voice)
	assert.Equal(t, 5*time.Second, cfg.Speech.Timeout)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing token", map[string]string{"SPEECH_API_KEY": "k"}},
		{"missing speech key", map[string]string{"TELEGRAM_BOT_TOKEN": "t"}},
		{"unknown provider", map[string]string{"TELEGRAM_BOT_TOKEN": "t", "SPEECH_API_KEY": "k", "SPEECH_PROVIDER": "espeak"}},
		{"unknown driver", map[string]string{"TELEGRAM_BOT_TOKEN": "t", "SPEECH_API_KEY": "k", "DB_TYPE": "mysql"}},
		{"session too large", map[string]string{"TELEGRAM_BOT_TOKEN": "t", "SPEECH_API_KEY": "k", "SESSION_SIZE": "11"}},
		{"session too small", map[string]string{"TELEGRAM_BOT_TOKEN": "t", "SPEECH_API_KEY": "k", "SESSION_SIZE": "0"}},
		{"bad duration", map[string]string{"TELEGRAM_BOT_TOKEN": "t", "SPEECH_API_KEY": "k", "SESSION_IDLE_TTL": "soon"}},
		{"bad log level", map[string]string{"TELEGRAM_BOT_TOKEN": "t", "SPEECH_API_KEY": "k", "LOG_LEVEL": "verbose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupEnv(t, tt.env)
			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadWithoutSpeech(t *testing.T) {
	setupEnv(t, map[string]string{
		"TELEGRAM_BOT_TOKEN": "t",
		"SPEECH_PROVIDER":    "none",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Speech.Provider)
	assert.Empty(t, cfg.Speech.APIKey)
}

func TestLoadDotEnv(t *testing.T) {
	setupEnv(t, map[string]string{"SESSION_SIZE": "4"})

	path := filepath.Join(t.TempDir(), ".env")
	content := "TELEGRAM_BOT_TOKEN=from-file\nSPEECH_API_KEY=file-key\nSESSION_SIZE=7\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Telegram.Token)
	assert.Equal(t, 4, cfg.Session.Size, "environment wins over .env")

	// godotenv writes to the process environment; setupEnv's cleanup restores it
	_, err = Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}
