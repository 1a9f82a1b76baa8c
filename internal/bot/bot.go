package bot

import (
	"context"
	"log/slog"
	"regexp"
	"sync"

	"github.com/example/ipabot/internal/format"
	"github.com/example/ipabot/internal/session"
	"github.com/example/ipabot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// quitPattern matches a typed "quit" in any letter case.
var quitPattern = regexp.MustCompile(`(?i)^\s*quit\s*$`)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// menuButtons converts presentation buttons to menu buttons
func menuButtons(rows [][]format.Button) [][]MenuButton {
	out := make([][]MenuButton, 0, len(rows))
	for _, row := range rows {
		menuRow := make([]MenuButton, 0, len(row))
		for _, b := range row {
			menuRow = append(menuRow, MenuButton{Text: b.Text, CallbackData: b.Action})
		}
		out = append(out, menuRow)
	}
	return out
}

// API is the part of tgbotapi.BotAPI the bot uses
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Engine drives Activity 1 sessions
type Engine interface {
	Start(ctx context.Context, userID, chatID int64) (session.Outcome, error)
	Show(ctx context.Context, userID int64) (session.Outcome, error)
	Listen(ctx context.Context, userID int64) (session.Outcome, error)
	Next(ctx context.Context, userID int64) (session.Outcome, error)
	Quit(ctx context.Context, userID int64) (session.Outcome, error)
	Progress(ctx context.Context, userID int64) (session.ProgressReport, error)
}

// UserStore keeps user profiles
type UserStore interface {
	Register(ctx context.Context, userID int64, name string) error
	GetByID(ctx context.Context, userID int64) (*models.User, error)
	UpdateProgress(ctx context.Context, userID int64, progressJSON string) error
}

// Bot represents the Telegram bot application
type Bot struct {
	api         API
	engine      Engine
	users       UserStore
	log         *slog.Logger
	pollTimeout int

	wg sync.WaitGroup
}

// Option configures the bot
type Option func(*Bot)

// WithPollTimeout sets the long-polling timeout in seconds
func WithPollTimeout(seconds int) Option {
	return func(b *Bot) {
		if seconds > 0 {
			b.pollTimeout = seconds
		}
	}
}

// New creates a new bot instance
func New(api API, engine Engine, users UserStore, log *slog.Logger, opts ...Option) *Bot {
	b := &Bot{
		api:         api,
		engine:      engine,
		users:       users,
		log:         log,
		pollTimeout: 60,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start polls for updates until ctx is cancelled. Each update is handled
// in its own goroutine; Start waits for them before returning.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.pollTimeout

	updates := b.api.GetUpdatesChan(updateConfig)
	b.log.Info("polling for updates", "timeout", b.pollTimeout)

	// In-flight updates finish even after shutdown starts.
	handlerCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(handlerCtx, update)
			}()
		}
	}
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil && update.Message.IsCommand():
		err = b.HandleCommand(ctx, update.Message)
	case update.Message != nil:
		err = b.HandleText(ctx, update.Message)
	case update.CallbackQuery != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	}

	if err != nil {
		b.log.Error("failed to handle update", "update", update.UpdateID, "error", err)
	}
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) error {
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// deleteMessage removes a message. Telegram refuses deletes for messages
// already gone or too old; that is only logged.
func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.log.Debug("failed to delete message", "chat", chatID, "message", messageID, "error", err)
	}
}
