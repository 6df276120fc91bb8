package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/learnbot/internal/excel"
	"github.com/example/learnbot/internal/scheduler"
	"github.com/example/learnbot/pkg/models"
)

// sender is the part of the Telegram API the bot talks to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Sessions runs reviews for learners.
type Sessions interface {
	NextItem(ctx context.Context, learnerID int64) (*models.ReviewItem, models.SessionQueue, error)
	Answer(ctx context.Context, learnerID int64, itemID string, expectedReviews int, grade models.Grade) (models.ReviewItem, error)
	Forecast(ctx context.Context, learnerID int64, days int) ([]models.ForecastDay, error)
	ItemStats(ctx context.Context, learnerID int64, itemID string) (models.ItemStats, error)
	Summary(ctx context.Context, learnerID int64) (models.Summary, error)
	ReviewedToday(ctx context.Context, learnerID int64) (int, error)
	History(ctx context.Context, learnerID int64, itemID string) ([]models.ReviewLog, error)
	Retire(ctx context.Context, learnerID int64, itemID string) error
	DeckSize(ctx context.Context, learnerID int64) (int, error)
}

// Learners stores learner settings.
type Learners interface {
	Get(ctx context.Context, id int64) (*models.Learner, error)
	Upsert(ctx context.Context, learner *models.Learner) error
	SetNotification(ctx context.Context, id int64, enabled bool) error
	SetNotificationHour(ctx context.Context, id int64, hour int) error
	SetDailyLimits(ctx context.Context, id int64, maxReviews, maxNew int, includeNew bool) error
}

// Importer loads item files into a learner's deck.
type Importer interface {
	Import(ctx context.Context, learnerID int64, config excel.ImportConfig) (*excel.ImportResult, error)
}

// Reminders sends a learner's daily reminder on demand.
type Reminders interface {
	RunManualCheck(ctx context.Context, learnerID int64) error
}

// Bot represents the Telegram bot application
type Bot struct {
	api      *tgbotapi.BotAPI
	client   sender
	http     *http.Client
	sessions Sessions
	learners Learners
	importer Importer
	isAdmin  func(userID int64) bool
	config   *BotConfig

	reminders Reminders

	mu             sync.Mutex
	awaitingImport map[int64]int64 // chat ID -> learner receiving the import
}

var _ scheduler.Notifier = (*Bot)(nil)

// New connects to Telegram and creates a new bot instance
// isAdmin decides who may run admin commands; nil means nobody.
func New(token string, sessions Sessions, learners Learners, importer Importer, isAdmin func(int64) bool, config *BotConfig) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	slog.Info("authorized on telegram", "account", api.Self.UserName)

	b := newBot(api, sessions, learners, importer, isAdmin, config)
	b.api = api
	return b, nil
}

func newBot(client sender, sessions Sessions, learners Learners, importer Importer, isAdmin func(int64) bool, config *BotConfig) *Bot {
	if config == nil {
		config = DefaultConfig()
	}
	if isAdmin == nil {
		isAdmin = func(int64) bool { return false }
	}
	return &Bot{
		client:         client,
		http:           &http.Client{Timeout: config.DownloadTimeout},
		sessions:       sessions,
		learners:       learners,
		importer:       importer,
		isAdmin:        isAdmin,
		config:         config,
		awaitingImport: make(map[int64]int64),
	}
}

// Start receives updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return fmt.Errorf("bot is not connected")
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout
	updates := b.api.GetUpdatesChan(updateConfig)

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			slog.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

// SendReminder implements the scheduler.Notifier interface.
// In private chats the chat ID equals the user ID.
func (b *Bot) SendReminder(_ context.Context, learnerID int64, reminder scheduler.Reminder) error {
	msg := tgbotapi.NewMessage(learnerID, formatReminder(reminder))
	if reminder.QueueSize > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("▶️ Начать повторение", callbackReview)),
		)
	}
	if err := b.sendMessage(msg); err != nil {
		return err
	}
	slog.Info("reminder sent", "learner_id", learnerID, "queue_size", reminder.QueueSize)
	return nil
}

// SetReminders enables the /remind command.
func (b *Bot) SetReminders(r Reminders) {
	b.reminders = r
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil:
		err = b.HandleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	}
	if err != nil {
		slog.Error("failed to handle update", "update_id", update.UpdateID, "error", err)
	}
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) error {
	if _, err := b.client.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string) error {
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) replyHTML(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	return b.sendMessage(msg)
}

func (b *Bot) setAwaitingImport(chatID, learnerID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.awaitingImport[chatID] = learnerID
}

// takeAwaitingImport returns and clears the pending import target for chatID.
func (b *Bot) takeAwaitingImport(chatID int64) (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	learnerID, ok := b.awaitingImport[chatID]
	delete(b.awaitingImport, chatID)
	return learnerID, ok
}
