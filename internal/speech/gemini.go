package speech

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	defaultGeminiModel = "gemini-2.5-flash-preview-tts"
	defaultGeminiVoice = "Kore"
	// Gemini returns 16-bit mono PCM; the rate is read from the MIME type when present.
	defaultPCMRate = 24000
)

// contentGenerator is the part of genai.Models the client relies on.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient synthesizes speech with a Gemini TTS model.
type GeminiClient struct {
	models       contentGenerator
	model        string
	voice        string
	languageCode string
	timeout      time.Duration
	log          *slog.Logger
}

// NewGeminiClient creates a Gemini TTS client from cfg.
func NewGeminiClient(ctx context.Context, cfg Config, log *slog.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return newGeminiClient(client.Models, cfg, log), nil
}

func newGeminiClient(models contentGenerator, cfg Config, log *slog.Logger) *GeminiClient {
	c := &GeminiClient{
		models:       models,
		model:        cfg.Model,
		voice:        cfg.Voice,
		languageCode: cfg.LanguageCode,
		timeout:      cfg.Timeout,
		log:          log,
	}
	if c.model == "" {
		c.model = defaultGeminiModel
	}
	if c.voice == "" {
		c.voice = defaultGeminiVoice
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	return c
}

// Synthesize converts text to WAV audio.
func (c *GeminiClient) Synthesize(ctx context.Context, text string) (*Audio, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			LanguageCode: c.languageCode,
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.voice},
			},
		},
	}

	c.log.Debug("gemini tts: synthesizing", "chars", len(text), "model", c.model, "voice", c.voice)

	// Without an instruction the model may answer the word instead of reading it.
	prompt := "Say clearly: " + text
	result, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return nil, &ServiceError{Provider: ProviderGemini, Err: err}
	}

	blob := firstAudioBlob(result)
	if blob == nil || len(blob.Data) == 0 {
		return nil, &ServiceError{Provider: ProviderGemini, Err: fmt.Errorf("response contained no audio")}
	}

	wav := EncodeWAV(blob.Data, pcmRate(blob.MIMEType), 1, 16)
	c.log.Debug("gemini tts: got audio", "bytes", len(wav))
	return &Audio{Data: wav, Format: FormatWAV, MIMEType: "audio/wav"}, nil
}

func firstAudioBlob(result *genai.GenerateContentResponse) *genai.Blob {
	if result == nil {
		return nil
	}
	for _, cand := range result.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && strings.HasPrefix(part.InlineData.MIMEType, "audio/") {
				return part.InlineData
			}
		}
	}
	return nil
}

// pcmRate reads the sample rate from a MIME type like "audio/L16;codec=pcm;rate=24000".
func pcmRate(mimeType string) int {
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return defaultPCMRate
	}
	rate, err := strconv.Atoi(params["rate"])
	if err != nil || rate <= 0 {
		return defaultPCMRate
	}
	return rate
}
