package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const googleEndpoint = "https://texttospeech.googleapis.com/v1/text:synthesize"

// GoogleOption configures the Google Cloud TTS client.
type GoogleOption func(*GoogleClient)

// WithVoice sets a named voice (e.g. "en-US-Neural2-C").
func WithVoice(voice string) GoogleOption {
	return func(c *GoogleClient) {
		c.voice = voice
	}
}

// WithLanguageCode sets the BCP-47 language of the voice.
func WithLanguageCode(code string) GoogleOption {
	return func(c *GoogleClient) {
		c.languageCode = code
	}
}

// WithHTTPTimeout sets the HTTP client timeout for TTS requests.
func WithHTTPTimeout(d time.Duration) GoogleOption {
	return func(c *GoogleClient) {
		c.httpClient.Timeout = d
	}
}

// WithEndpoint overrides the synthesize URL.
func WithEndpoint(url string) GoogleOption {
	return func(c *GoogleClient) {
		c.endpoint = url
	}
}

// GoogleClient synthesizes MP3 speech via the Google Cloud Text-to-Speech REST API.
type GoogleClient struct {
	apiKey       string
	endpoint     string
	languageCode string
	voice        string
	httpClient   *http.Client
	log          *slog.Logger
}

// NewGoogleClient creates a client authenticated with an API key.
func NewGoogleClient(apiKey string, log *slog.Logger, opts ...GoogleOption) *GoogleClient {
	c := &GoogleClient{
		apiKey:       apiKey,
		endpoint:     googleEndpoint,
		languageCode: "en-US",
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		log: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type googleRequest struct {
	Input       googleInput       `json:"input"`
	Voice       googleVoice       `json:"voice"`
	AudioConfig googleAudioConfig `json:"audioConfig"`
}

type googleInput struct {
	Text string `json:"text"`
}

type googleVoice struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name,omitempty"`
	SsmlGender   string `json:"ssmlGender,omitempty"`
}

type googleAudioConfig struct {
	AudioEncoding string `json:"audioEncoding"`
}

type googleResponse struct {
	AudioContent string `json:"audioContent"`
}

// Synthesize converts text to MP3 audio.
func (c *GoogleClient) Synthesize(ctx context.Context, text string) (*Audio, error) {
	data, err := c.synthesize(ctx, text)
	if err != nil {
		return nil, &ServiceError{Provider: ProviderGoogle, Err: err}
	}
	return &Audio{Data: data, Format: FormatMP3, MIMEType: "audio/mpeg"}, nil
}

func (c *GoogleClient) synthesize(ctx context.Context, text string) ([]byte, error) {
	voice := googleVoice{LanguageCode: c.languageCode, Name: c.voice}
	if c.voice == "" {
		voice.SsmlGender = "NEUTRAL"
	}

	body, err := json.Marshal(googleRequest{
		Input:       googleInput{Text: text},
		Voice:       voice,
		AudioConfig: googleAudioConfig{AudioEncoding: "MP3"},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	c.log.Debug("google tts: synthesizing", "chars", len(text), "language", c.languageCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("google tts error %d: %s", resp.StatusCode, string(msg))
	}

	var out googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(out.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decoding audio content: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio content")
	}

	c.log.Debug("google tts: got audio", "bytes", len(audio))
	return audio, nil
}
