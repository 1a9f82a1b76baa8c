package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/example/ipabot/internal/database"
	"github.com/example/ipabot/internal/format"
	"github.com/example/ipabot/internal/session"
	"github.com/example/ipabot/internal/speech"
	"github.com/example/ipabot/internal/vocabulary"
	"github.com/example/ipabot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// activity1Key is the progress blob key for Activity 1
const activity1Key = "activity1"

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}

	switch message.Command() {
	case "start":
		return b.handleStart(ctx, message)
	case "help":
		return b.sendText(message.Chat.ID, format.HelpText)
	case "progress":
		return b.handleProgress(ctx, message)
	case "activity1":
		return b.handleActivity1(ctx, message)
	case "activity2":
		return b.sendText(message.Chat.ID, format.Activity2Text)
	case "quit":
		return b.handleQuit(ctx, message)
	default:
		return b.sendText(message.Chat.ID, format.UnknownCommandText)
	}
}

// HandleText handles plain text messages. Only "quit" means anything.
func (b *Bot) HandleText(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.Chat == nil {
		return nil
	}
	if quitPattern.MatchString(message.Text) {
		return b.handleQuit(ctx, message)
	}
	return nil
}

// HandleCallback handles inline button presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback.Message == nil || callback.From == nil {
		return fmt.Errorf("invalid callback data: required fields are missing")
	}

	// Always answer to remove the loading state
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Warn("failed to answer callback", "error", err)
	}

	switch callback.Data {
	case format.ActionListen:
		return b.handleListen(ctx, callback)
	case format.ActionShow:
		return b.handleShow(ctx, callback)
	case format.ActionNext:
		return b.handleNext(ctx, callback)
	case format.ActionProgressActivity1:
		return b.handleLearnedWords(ctx, callback)
	case format.ActionProgressActivity2:
		return b.sendText(callback.Message.Chat.ID, format.Activity2ProgressText)
	default:
		b.log.Warn("unknown callback", "data", callback.Data, "user", callback.From.ID)
		return nil
	}
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	if err := b.users.Register(ctx, message.From.ID, displayName(message.From)); err != nil {
		b.log.Error("failed to register user", "user", message.From.ID, "error", err)
		return b.reportError(message.Chat.ID, err)
	}
	return b.sendText(message.Chat.ID, format.WelcomeText)
}

func (b *Bot) handleProgress(ctx context.Context, message *tgbotapi.Message) error {
	report, err := b.engine.Progress(ctx, message.From.ID)
	if err != nil {
		b.log.Error("failed to load progress", "user", message.From.ID, "error", err)
		return b.reportError(message.Chat.ID, err)
	}

	text, buttons := format.ProgressMenu(report.Complete)
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = createKeyboard(menuButtons(buttons))
	return b.sendMessage(msg)
}

func (b *Bot) handleLearnedWords(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	chatID := callback.Message.Chat.ID
	report, err := b.engine.Progress(ctx, callback.From.ID)
	if err != nil {
		b.log.Error("failed to load progress", "user", callback.From.ID, "error", err)
		return b.reportError(chatID, err)
	}
	return b.sendText(chatID, format.LearnedWords(report.Learned))
}

func (b *Bot) handleActivity1(ctx context.Context, message *tgbotapi.Message) error {
	userID, chatID := message.From.ID, message.Chat.ID

	// Users who skipped /start still get a profile for their progress blob
	if err := b.users.Register(ctx, userID, displayName(message.From)); err != nil {
		b.log.Warn("failed to register user", "user", userID, "error", err)
	}

	out, err := b.engine.Start(ctx, userID, chatID)
	if err != nil {
		b.log.Error("failed to start activity", "user", userID, "error", err)
		return b.reportError(chatID, err)
	}
	return b.present(chatID, out)
}

func (b *Bot) handleQuit(ctx context.Context, message *tgbotapi.Message) error {
	out, err := b.engine.Quit(ctx, message.From.ID)
	if err != nil {
		return b.reportError(message.Chat.ID, err)
	}
	return b.present(message.Chat.ID, out)
}

func (b *Bot) handleListen(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if _, err := b.engine.Listen(ctx, callback.From.ID); err != nil {
		b.log.Warn("listen failed", "user", callback.From.ID, "error", err)
		return b.reportError(callback.Message.Chat.ID, err)
	}
	return nil
}

func (b *Bot) handleShow(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	chatID := callback.Message.Chat.ID
	out, err := b.engine.Show(ctx, callback.From.ID)
	if err != nil {
		return b.reportError(chatID, err)
	}

	card := format.RenderItem(*out.Item, out.Revealed)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, callback.Message.MessageID, card.Text, createKeyboard(menuButtons(card.Buttons)))
	edit.ParseMode = card.ParseMode
	if err := b.sendMessage(edit); err != nil {
		// Pressing Show twice yields "message is not modified"
		b.log.Debug("failed to reveal word", "user", callback.From.ID, "error", err)
	}
	return nil
}

func (b *Bot) handleNext(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	userID, chatID := callback.From.ID, callback.Message.Chat.ID
	out, err := b.engine.Next(ctx, userID)
	if err != nil {
		b.log.Error("failed to advance session", "user", userID, "error", err)
		return b.reportError(chatID, err)
	}

	b.deleteMessage(chatID, callback.Message.MessageID)
	if out.Status == session.StatusComplete || out.Status == session.StatusExhausted {
		b.saveProgress(ctx, userID)
	}
	return b.present(chatID, out)
}

// present sends whatever the user should see after a session transition
func (b *Bot) present(chatID int64, out session.Outcome) error {
	switch out.Status {
	case session.StatusPresenting:
		card := format.RenderItem(*out.Item, out.Revealed)
		msg := tgbotapi.NewMessage(chatID, card.Text)
		msg.ParseMode = card.ParseMode
		msg.ReplyMarkup = createKeyboard(menuButtons(card.Buttons))
		return b.sendMessage(msg)
	case session.StatusComplete:
		return b.sendText(chatID, format.ActivityCompleteText)
	case session.StatusExhausted:
		return b.sendText(chatID, format.SessionCompleteText)
	case session.StatusQuit:
		return b.sendText(chatID, format.QuitText)
	default:
		return fmt.Errorf("unexpected session status %v", out.Status)
	}
}

// saveProgress refreshes the Activity 1 summary in the user's progress
// blob, keeping entries for other activities. Failures are only logged:
// the completed words table stays authoritative.
func (b *Bot) saveProgress(ctx context.Context, userID int64) {
	report, err := b.engine.Progress(ctx, userID)
	if err != nil {
		b.log.Warn("failed to load progress summary", "user", userID, "error", err)
		return
	}

	blob := models.ProgressBlob{}
	user, err := b.users.GetByID(ctx, userID)
	if err != nil {
		b.log.Warn("failed to load user", "user", userID, "error", err)
		return
	}
	if user == nil {
		return
	}
	if strings.TrimSpace(user.ProgressJSON) != "" {
		if err := json.Unmarshal([]byte(user.ProgressJSON), &blob); err != nil {
			b.log.Warn("discarding malformed progress blob", "user", userID, "error", err)
			blob = models.ProgressBlob{}
		}
	}

	blob[activity1Key] = models.ActivitySummary{
		Learned:  len(report.Learned),
		Total:    report.Total,
		Complete: report.Complete,
	}
	data, err := json.Marshal(blob)
	if err != nil {
		b.log.Warn("failed to encode progress blob", "user", userID, "error", err)
		return
	}
	if err := b.users.UpdateProgress(ctx, userID, string(data)); err != nil {
		b.log.Warn("failed to save progress blob", "user", userID, "error", err)
	}
}

// reportError tells the user about a failure. The error itself is
// consumed once the notice is sent.
func (b *Bot) reportError(chatID int64, err error) error {
	var text string
	switch {
	case errors.Is(err, session.ErrNoActiveSession):
		text = format.NoActiveSessionText
	case errors.Is(err, speech.ErrService):
		text = format.AudioFailedText
	case errors.Is(err, vocabulary.ErrResource):
		text = format.VocabularyFailedText
	case errors.Is(err, database.ErrPersistence):
		text = format.StorageFailedText
	default:
		text = format.ErrorText
	}
	return b.sendText(chatID, text)
}

func displayName(user *tgbotapi.User) string {
	if user.FirstName != "" {
		return strings.TrimSpace(user.FirstName + " " + user.LastName)
	}
	return user.UserName
}
