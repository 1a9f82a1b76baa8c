// Package speech turns a word into playable audio through a remote
// text-to-speech service. Providers are stateless: one request per call,
// no caching and no retries.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Provider names accepted by New
const (
	ProviderGoogle = "google"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Audio formats produced by the providers
const (
	FormatMP3 = "mp3"
	FormatWAV = "wav"
)

// DefaultTimeout bounds a synthesis request when none is configured.
const DefaultTimeout = 15 * time.Second

var (
	// ErrService is matched by every synthesis failure.
	ErrService = errors.New("speech service error")
	// ErrDisabled is returned when no provider is configured.
	ErrDisabled = errors.New("speech synthesis is disabled")
)

// Audio is synthesized speech
type Audio struct {
	Data     []byte
	Format   string
	MIMEType string
}

// Synthesizer converts text to Audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*Audio, error)
}

// ServiceError reports a failed synthesis request
type ServiceError struct {
	Provider string
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s tts: %v", e.Provider, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) Is(target error) bool { return target == ErrService }

// Config selects and configures a provider
type Config struct {
	Provider     string
	APIKey       string
	LanguageCode string
	Voice        string
	Model        string
	Timeout      time.Duration
}

// New builds the synthesizer named by cfg.Provider
func New(ctx context.Context, cfg Config, log *slog.Logger) (Synthesizer, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	switch cfg.Provider {
	case ProviderGoogle:
		opts := []GoogleOption{WithHTTPTimeout(cfg.Timeout)}
		if cfg.LanguageCode != "" {
			opts = append(opts, WithLanguageCode(cfg.LanguageCode))
		}
		if cfg.Voice != "" {
			opts = append(opts, WithVoice(cfg.Voice))
		}
		return NewGoogleClient(cfg.APIKey, log, opts...), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg, log)
	case ProviderNone, "":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown speech provider %q", cfg.Provider)
	}
}

// Disabled is a Synthesizer that always fails with ErrDisabled
type Disabled struct{}

func (Disabled) Synthesize(context.Context, string) (*Audio, error) {
	return nil, &ServiceError{Provider: ProviderNone, Err: ErrDisabled}
}
