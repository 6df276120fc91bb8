package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/learnbot/internal/bot"
	"github.com/example/learnbot/internal/config"
	"github.com/example/learnbot/internal/database"
	"github.com/example/learnbot/internal/excel"
	"github.com/example/learnbot/internal/scheduler"
	"github.com/example/learnbot/internal/session"
	"github.com/example/learnbot/internal/spaced_repetition"
)

func main() {
	if err := run(); err != nil {
		slog.Error("bot exited with error", "error", err)
		os.Exit(1)
	}
}

// utcNow is the service clock. Notification hours are UTC, so day boundaries are too.
func utcNow() time.Time {
	return time.Now().UTC()
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if cfg.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := spaced_repetition.New(cfg.Engine)
	if err != nil {
		return err
	}

	learners := database.NewLearnerRepository(db)
	sessions := session.New(engine,
		database.NewReviewItemRepository(db),
		learners,
		database.NewReviewLogRepository(db),
		session.WithClock(utcNow),
	)

	b, err := bot.New(cfg.TelegramToken, sessions, learners, excel.NewImporter(sessions), cfg.IsAdmin, bot.DefaultConfig())
	if err != nil {
		return err
	}

	s := scheduler.New(scheduler.Config{
		StartHour: cfg.NotificationStartHour,
		EndHour:   cfg.NotificationEndHour,
	}, learners, sessions, b)
	b.SetReminders(s)
	if cfg.SchedulerEnabled {
		if err := s.Start(ctx); err != nil {
			return err
		}
		defer s.Stop()
	}

	slog.Info("bot started, press Ctrl+C to stop", "db", cfg.Database.Driver)
	if err := b.Start(ctx); err != nil {
		return err
	}
	slog.Info("bot stopped successfully")
	return nil
}
