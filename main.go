package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/ipabot/internal/bot"
	"github.com/example/ipabot/internal/config"
	"github.com/example/ipabot/internal/database"
	"github.com/example/ipabot/internal/scheduler"
	"github.com/example/ipabot/internal/session"
	"github.com/example/ipabot/internal/speech"
	"github.com/example/ipabot/internal/vocabulary"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// A missing or malformed word list is fatal before any user connects
	words := vocabulary.New(cfg.Vocabulary.Path, cfg.Vocabulary.Sheet)
	entries, err := words.Load()
	if err != nil {
		log.Fatalf("Failed to load vocabulary: %v", err)
	}
	logger.Info("vocabulary loaded", "path", cfg.Vocabulary.Path, "words", len(entries))

	synth, err := speech.New(ctx, speech.Config{
		Provider:     cfg.Speech.Provider,
		APIKey:       cfg.Speech.APIKey,
		LanguageCode: cfg.Speech.LanguageCode,
		Voice:        cfg.Speech.Voice,
		Model:        cfg.Speech.Model,
		Timeout:      cfg.Speech.Timeout,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to create speech synthesizer: %v", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	api.Debug = cfg.Telegram.Debug
	logger.Info("authorized", "account", api.Self.UserName)

	engine := session.New(
		words,
		database.NewUserProgressRepository(db),
		synth,
		bot.NewAudioSender(api),
		logger,
		session.WithSessionSize(cfg.Session.Size),
	)

	sweeper := scheduler.New(engine, cfg.Session.SweepInterval, cfg.Session.IdleTTL, logger)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sweeper.Stop()

	b := bot.New(api, engine, database.NewUserRepository(db), logger, bot.WithPollTimeout(cfg.Telegram.PollTimeout))

	done := make(chan error, 1)
	go func() {
		done <- b.Start(ctx)
	}()
	logger.Info("bot started, press Ctrl+C to stop")

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("bot stopped", "error", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			logger.Warn("timed out waiting for in-flight updates")
		}
	}
	logger.Info("bot stopped")
}
