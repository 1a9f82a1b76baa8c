package bot

import (
	"context"
	"fmt"

	"github.com/example/ipabot/internal/session"
	"github.com/example/ipabot/internal/speech"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AudioSender posts synthesized words to a chat and deletes them on request
type AudioSender struct {
	api API
}

// NewAudioSender creates an AudioSender on top of the Telegram API
func NewAudioSender(api API) *AudioSender {
	return &AudioSender{api: api}
}

// SendAudio uploads the audio as a voice note, or as an audio file for WAV
func (a *AudioSender) SendAudio(_ context.Context, chatID int64, word string, audio *speech.Audio) (session.AudioHandle, error) {
	var msg tgbotapi.Chattable
	switch audio.Format {
	case speech.FormatMP3:
		msg = tgbotapi.NewVoice(chatID, tgbotapi.FileBytes{Name: word + ".mp3", Bytes: audio.Data})
	case speech.FormatWAV:
		// Telegram voice notes do not accept WAV
		upload := tgbotapi.NewAudio(chatID, tgbotapi.FileBytes{Name: word + ".wav", Bytes: audio.Data})
		upload.Title = word
		msg = upload
	default:
		return 0, fmt.Errorf("unsupported audio format %q", audio.Format)
	}

	sent, err := a.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send audio: %w", err)
	}
	return session.AudioHandle(sent.MessageID), nil
}

// DeleteAudio removes a previously sent audio message
func (a *AudioSender) DeleteAudio(_ context.Context, chatID int64, handle session.AudioHandle) error {
	if _, err := a.api.Request(tgbotapi.NewDeleteMessage(chatID, int(handle))); err != nil {
		return fmt.Errorf("failed to delete audio message: %w", err)
	}
	return nil
}
