package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/learnbot/internal/database"
	"github.com/example/learnbot/internal/excel"
	"github.com/example/learnbot/internal/session"
	"github.com/example/learnbot/pkg/models"
)

// Constants for callback data
const (
	callbackReview      = "review"
	callbackStats       = "stats"
	callbackGradePrefix = "grade:"
)

// Telegram limits callback data to 64 bytes.
const maxCallbackData = 64

// HandleMessage handles commands and uploaded documents
func (b *Bot) HandleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}

	if err := b.ensureLearner(ctx, message.From); err != nil {
		return err
	}

	if message.Document != nil {
		if target, ok := b.takeAwaitingImport(message.Chat.ID); ok {
			return b.handleDocument(ctx, message, target)
		}
		if strings.HasPrefix(message.Caption, "/import") {
			target, ok, err := b.importTarget(ctx, message, strings.TrimSpace(strings.TrimPrefix(message.Caption, "/import")))
			if err != nil || !ok {
				return err
			}
			return b.handleDocument(ctx, message, target)
		}
	}

	if !message.IsCommand() {
		return b.reply(message.Chat.ID, "Я понимаю только команды. Используйте /help для просмотра списка доступных команд.")
	}

	switch message.Command() {
	case "start":
		return b.handleStart(message)
	case "help":
		return b.handleHelp(message)
	case "review":
		return b.sendNextItem(ctx, message.Chat.ID, message.From.ID)
	case "stats":
		return b.handleStats(ctx, message.Chat.ID, message.From.ID)
	case "forecast":
		return b.handleForecast(ctx, message)
	case "item":
		return b.handleItem(ctx, message)
	case "retire":
		return b.handleRetire(ctx, message)
	case "notify":
		return b.handleNotifyCommand(ctx, message)
	case "time":
		return b.handleTimeCommand(ctx, message)
	case "limits":
		return b.handleLimitsCommand(ctx, message)
	case "import":
		return b.handleImportCommand(ctx, message)
	case "remind":
		return b.handleRemindCommand(ctx, message)
	default:
		return b.handleUnknownCommand(message)
	}
}

// HandleCallback handles inline button presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback.Message == nil || callback.From == nil {
		return fmt.Errorf("invalid callback data: required fields are missing")
	}
	chatID := callback.Message.Chat.ID
	userID := callback.From.ID

	switch {
	case callback.Data == callbackReview:
		b.answerCallback(callback.ID, "")
		return b.sendNextItem(ctx, chatID, userID)
	case callback.Data == callbackStats:
		b.answerCallback(callback.ID, "")
		return b.handleStats(ctx, chatID, userID)
	case strings.HasPrefix(callback.Data, callbackGradePrefix):
		return b.handleGrade(ctx, callback)
	default:
		b.answerCallback(callback.ID, "⚠️ Неизвестное действие")
		return nil
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) error {
	text := "👋 Добро пожаловать!\n\n" +
		"Я помогу вам запоминать буквы, слова и грамматику с помощью интервального повторения.\n\n" +
		"🔹 Как это работает:\n" +
		"1. Загрузите свои карточки: /import\n" +
		"2. Повторяйте их каждый день: /review\n" +
		"3. Оценивайте, насколько легко вы вспомнили ответ (0-5)\n" +
		"4. Следите за прогрессом: /stats"

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = mainMenu()
	return b.sendMessage(msg)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) error {
	text := "📖 Справка по использованию бота\n\n" +
		"🔸 Повторение:\n" +
		"/review - Следующая карточка на сегодня\n" +
		"/stats - Статистика по колоде\n" +
		"/forecast [дни] - Прогноз нагрузки\n" +
		"/item <id> - Статистика карточки\n" +
		"/retire <id> - Удалить карточку из колоды\n\n" +
		"⚙️ Настройки:\n" +
		"/notify on|off - Включить/выключить уведомления\n" +
		"/time <час> - Время уведомлений (0-23)\n" +
		"/limits <повторения> <новые> - Дневные лимиты\n" +
		"/import - Загрузить карточки из .xlsx или .csv\n" +
		"/remind [id] - Отправить напоминание (для администраторов)\n\n" +
		"🔄 Оценки:\n" +
		"0-2 - не вспомнил, карточка вернется сегодня\n" +
		"3 - с трудом, 4 - хорошо, 5 - легко"

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = mainMenu()
	return b.sendMessage(msg)
}

// sendNextItem shows the most urgent card of today's queue
func (b *Bot) sendNextItem(ctx context.Context, chatID, learnerID int64) error {
	item, queue, err := b.sessions.NextItem(ctx, learnerID)
	if err != nil {
		return err
	}
	if item == nil {
		return b.reply(chatID, "🎉 На сегодня все! Новые повторения появятся позже.")
	}

	keyboard, err := gradeKeyboard(*item)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, formatItem(*item, queue))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	return b.sendMessage(msg)
}

// handleGrade records a grade from the review keyboard and moves on
func (b *Bot) handleGrade(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	itemID, reviews, grade, err := parseGradeCallback(callback.Data)
	if err != nil {
		b.answerCallback(callback.ID, "⚠️ Неизвестное действие")
		return err
	}

	next, err := b.sessions.Answer(ctx, callback.From.ID, itemID, reviews, grade)
	if errors.Is(err, session.ErrUnknownItem) {
		b.answerCallback(callback.ID, "Эта карточка уже удалена")
		return nil
	}
	if errors.Is(err, session.ErrStaleReview) {
		b.answerCallback(callback.ID, "Эта карточка уже оценена")
		return nil
	}
	if err != nil {
		b.answerCallback(callback.ID, "❌ Произошла ошибка")
		return err
	}
	b.answerCallback(callback.ID, formatGradeResult(grade, next))

	// Drop the keyboard. The appended line leaves the entity offsets valid.
	edit := tgbotapi.NewEditMessageText(callback.Message.Chat.ID, callback.Message.MessageID,
		callback.Message.Text+"\n\n"+formatGradeResult(grade, next))
	edit.Entities = callback.Message.Entities
	if _, err := b.client.Request(edit); err != nil {
		slog.Warn("failed to edit review message", "chat_id", callback.Message.Chat.ID, "error", err)
	}
	return b.sendNextItem(ctx, callback.Message.Chat.ID, callback.From.ID)
}

func (b *Bot) handleStats(ctx context.Context, chatID, learnerID int64) error {
	summary, err := b.sessions.Summary(ctx, learnerID)
	if err != nil {
		return err
	}
	reviewed, err := b.sessions.ReviewedToday(ctx, learnerID)
	if err != nil {
		return err
	}
	return b.replyHTML(chatID, formatSummary(summary, reviewed))
}

func (b *Bot) handleForecast(ctx context.Context, message *tgbotapi.Message) error {
	days := b.config.ForecastDays
	if args := strings.TrimSpace(message.CommandArguments()); args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n < 1 || n > b.config.MaxForecastDays {
			return b.reply(message.Chat.ID, fmt.Sprintf("Пожалуйста, укажите число дней от 1 до %d", b.config.MaxForecastDays))
		}
		days = n
	}

	forecast, err := b.sessions.Forecast(ctx, message.From.ID, days)
	if err != nil {
		return err
	}
	return b.replyHTML(message.Chat.ID, formatForecast(forecast))
}

func (b *Bot) handleItem(ctx context.Context, message *tgbotapi.Message) error {
	itemID := strings.TrimSpace(message.CommandArguments())
	if itemID == "" {
		return b.reply(message.Chat.ID, "Пожалуйста, укажите карточку: /item <id>")
	}
	stats, err := b.sessions.ItemStats(ctx, message.From.ID, itemID)
	if errors.Is(err, session.ErrUnknownItem) {
		return b.reply(message.Chat.ID, "Карточка не найдена")
	}
	if err != nil {
		return err
	}
	history, err := b.sessions.History(ctx, message.From.ID, itemID)
	if err != nil {
		return err
	}
	return b.replyHTML(message.Chat.ID, formatItemStats(itemID, stats, history))
}

func (b *Bot) handleRetire(ctx context.Context, message *tgbotapi.Message) error {
	itemID := strings.TrimSpace(message.CommandArguments())
	if itemID == "" {
		return b.reply(message.Chat.ID, "Пожалуйста, укажите карточку: /retire <id>")
	}
	err := b.sessions.Retire(ctx, message.From.ID, itemID)
	if errors.Is(err, session.ErrUnknownItem) {
		return b.reply(message.Chat.ID, "Карточка не найдена")
	}
	if err != nil {
		return err
	}
	return b.reply(message.Chat.ID, fmt.Sprintf("🗑 Карточка %s удалена из колоды", itemID))
}

func (b *Bot) handleNotifyCommand(ctx context.Context, message *tgbotapi.Message) error {
	var enabled bool
	switch strings.ToLower(strings.TrimSpace(message.CommandArguments())) {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		return b.reply(message.Chat.ID, "Пожалуйста, укажите on или off: /notify <on|off>")
	}

	if err := b.learners.SetNotification(ctx, message.From.ID, enabled); err != nil {
		return fmt.Errorf("failed to update learner: %w", err)
	}
	return b.reply(message.Chat.ID, fmt.Sprintf("✅ Уведомления %s", boolToEnabledString(enabled)))
}

func (b *Bot) handleTimeCommand(ctx context.Context, message *tgbotapi.Message) error {
	args := strings.TrimSpace(message.CommandArguments())
	if args == "" {
		return b.reply(message.Chat.ID, "Пожалуйста, укажите час (0-23): /time <час>")
	}

	hour, err := strconv.Atoi(args)
	if err != nil || hour < 0 || hour > 23 {
		return b.reply(message.Chat.ID, "Пожалуйста, укажите корректный час (0-23)")
	}

	if err := b.learners.SetNotificationHour(ctx, message.From.ID, hour); err != nil {
		return fmt.Errorf("failed to update learner: %w", err)
	}
	return b.reply(message.Chat.ID, fmt.Sprintf("✅ Время уведомлений установлено на %d:00", hour))
}

func (b *Bot) handleLimitsCommand(ctx context.Context, message *tgbotapi.Message) error {
	maxReviews, maxNew, err := parseLimits(message.CommandArguments())
	if err != nil {
		return b.reply(message.Chat.ID, "Пожалуйста, укажите лимиты: /limits <повторения> <новые>, например /limits 100 10")
	}

	if err := b.learners.SetDailyLimits(ctx, message.From.ID, maxReviews, maxNew, maxNew > 0); err != nil {
		return fmt.Errorf("failed to update learner: %w", err)
	}
	text := fmt.Sprintf("✅ Лимиты: до %d карточек в день, из них новых: %d", maxReviews, maxNew)
	if maxNew == 0 {
		text = fmt.Sprintf("✅ Лимиты: до %d карточек в день, новые карточки отключены", maxReviews)
	}
	return b.reply(message.Chat.ID, text)
}

func (b *Bot) handleImportCommand(ctx context.Context, message *tgbotapi.Message) error {
	target, ok, err := b.importTarget(ctx, message, strings.TrimSpace(message.CommandArguments()))
	if err != nil || !ok {
		return err
	}
	b.setAwaitingImport(message.Chat.ID, target)

	text := "📥 Отправьте файл .xlsx или .csv.\n\n" +
		"Колонка A - идентификатор карточки, B - тип (letter, vocabulary, grammar).\n" +
		"Остальные колонки сохраняются как поля карточки по заголовкам первой строки.\n" +
		"Уже существующие карточки не изменяются."
	return b.reply(message.Chat.ID, text)
}

// importTarget resolves whose deck an import goes to. Only admins may import for others.
func (b *Bot) importTarget(ctx context.Context, message *tgbotapi.Message, args string) (int64, bool, error) {
	if args == "" {
		return message.From.ID, true, nil
	}
	if !b.isAdmin(message.From.ID) {
		return 0, false, b.reply(message.Chat.ID, "Импорт в чужую колоду доступен только администраторам.")
	}
	return b.lookupLearner(ctx, message.Chat.ID, args, "/import <id>")
}

// lookupLearner parses a learner ID typed by an admin and checks it is registered.
// The bool is false when the admin has already been told what went wrong.
func (b *Bot) lookupLearner(ctx context.Context, chatID int64, args, usage string) (int64, bool, error) {
	target, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		return 0, false, b.reply(chatID, "Пожалуйста, укажите числовой ID пользователя: "+usage)
	}
	if _, err := b.learners.Get(ctx, target); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, false, b.reply(chatID, "Пользователь не найден. Он должен сначала написать боту /start.")
		}
		return 0, false, err
	}
	return target, true, nil
}

// handleRemindCommand sends today's reminder right away, to the admin or to the given learner
func (b *Bot) handleRemindCommand(ctx context.Context, message *tgbotapi.Message) error {
	if !b.isAdmin(message.From.ID) {
		return b.reply(message.Chat.ID, "Команда доступна только администраторам.")
	}
	if b.reminders == nil {
		return b.reply(message.Chat.ID, "Напоминания отключены.")
	}

	target := message.From.ID
	if args := strings.TrimSpace(message.CommandArguments()); args != "" {
		var ok bool
		var err error
		target, ok, err = b.lookupLearner(ctx, message.Chat.ID, args, "/remind <id>")
		if err != nil || !ok {
			return err
		}
	}

	if err := b.reminders.RunManualCheck(ctx, target); err != nil {
		slog.Error("manual reminder failed", "learner_id", target, "error", err)
		return b.reply(message.Chat.ID, "❌ Не удалось отправить напоминание")
	}
	if target == message.From.ID {
		return nil
	}
	return b.reply(message.Chat.ID, fmt.Sprintf("✅ Напоминание отправлено пользователю %d", target))
}

// handleDocument downloads an uploaded file and imports it
func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message, learnerID int64) error {
	doc := message.Document
	ext := strings.ToLower(filepath.Ext(doc.FileName))
	if ext != ".xlsx" && ext != ".csv" {
		return b.reply(message.Chat.ID, "❌ Поддерживаются только файлы .xlsx и .csv")
	}
	if int64(doc.FileSize) > b.config.MaxImportSize {
		return b.reply(message.Chat.ID, "❌ Файл слишком большой")
	}

	path, err := b.downloadFile(ctx, doc.FileID, ext)
	if err != nil {
		slog.Error("failed to download import file", "file_name", doc.FileName, "error", err)
		return b.reply(message.Chat.ID, "❌ Не удалось загрузить файл")
	}
	defer os.Remove(path)

	config := excel.DefaultImportConfig()
	config.FilePath = path
	result, err := b.importer.Import(ctx, learnerID, config)
	if err != nil {
		slog.Error("import failed", "learner_id", learnerID, "file_name", doc.FileName, "error", err)
		return b.reply(message.Chat.ID, "❌ Не удалось прочитать файл: "+err.Error())
	}
	slog.Info("items imported",
		"learner_id", learnerID,
		"processed", result.TotalProcessed,
		"created", result.Created,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
	deckSize, err := b.sessions.DeckSize(ctx, learnerID)
	if err != nil {
		slog.Warn("failed to count deck", "learner_id", learnerID, "error", err)
		deckSize = -1
	}
	return b.reply(message.Chat.ID, formatImportResult(result, deckSize))
}

func (b *Bot) downloadFile(ctx context.Context, fileID, ext string) (string, error) {
	url, err := b.client.GetFileDirectURL(fileID)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	f, err := os.CreateTemp(b.config.ImportDir, "import-*"+ext)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(f, io.LimitReader(resp.Body, b.config.MaxImportSize))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (b *Bot) handleUnknownCommand(message *tgbotapi.Message) error {
	return b.reply(message.Chat.ID, "Неизвестная команда. Используйте /help для просмотра списка доступных команд.")
}

// ensureLearner registers the user on first contact and refreshes their names
func (b *Bot) ensureLearner(ctx context.Context, user *tgbotapi.User) error {
	_, err := b.learners.Get(ctx, user.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return err
	}
	learner := &models.Learner{
		ID:                  user.ID,
		Username:            user.UserName,
		FirstName:           user.FirstName,
		NotificationEnabled: true,
		NotificationHour:    defaultNotificationHour,
		IncludeNew:          true,
	}
	if err := b.learners.Upsert(ctx, learner); err != nil {
		return fmt.Errorf("failed to create learner: %w", err)
	}
	slog.Info("learner registered", "learner_id", user.ID, "username", user.UserName)
	return nil
}

func (b *Bot) answerCallback(callbackID, text string) {
	if _, err := b.client.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		slog.Warn("failed to answer callback", "error", err)
	}
}

// defaultNotificationHour is the reminder hour of newly registered learners
const defaultNotificationHour = 9

func mainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Повторять", callbackReview),
			tgbotapi.NewInlineKeyboardButtonData("📊 Статистика", callbackStats),
		),
	)
}

// gradeKeyboard builds the 0-5 grade buttons for the current state of item
func gradeKeyboard(item models.ReviewItem) (tgbotapi.InlineKeyboardMarkup, error) {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for g := models.GradeBlackout; g <= models.GradeEasy; g++ {
		data := gradeCallback(item.ItemID, item.ReviewCount, g)
		if len(data) > maxCallbackData {
			return tgbotapi.InlineKeyboardMarkup{}, fmt.Errorf("item ID %q is too long for a button", item.ItemID)
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(gradeLabels[g], data))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), nil
}

var gradeLabels = map[models.Grade]string{
	models.GradeBlackout:          "0 😶",
	models.GradeIncorrect:         "1 ❌",
	models.GradeIncorrectFamiliar: "2 🤔",
	models.GradeHard:              "3 😓",
	models.GradeGood:              "4 🙂",
	models.GradeEasy:              "5 😎",
}

// gradeCallback encodes a grade for the item state with the given review count.
func gradeCallback(itemID string, reviews int, grade models.Grade) string {
	return fmt.Sprintf("%s%s:%d:%d", callbackGradePrefix, itemID, reviews, int(grade))
}

// parseGradeCallback splits "grade:<item>:<reviews>:<g>". Item IDs may contain colons.
func parseGradeCallback(data string) (string, int, models.Grade, error) {
	rest, ok := strings.CutPrefix(data, callbackGradePrefix)
	if !ok {
		return "", 0, 0, fmt.Errorf("not a grade callback: %q", data)
	}
	i := strings.LastIndex(rest, ":")
	if i < 0 {
		return "", 0, 0, fmt.Errorf("malformed grade callback: %q", data)
	}
	g, err := strconv.Atoi(rest[i+1:])
	if err != nil {
		return "", 0, 0, fmt.Errorf("malformed grade callback: %q", data)
	}
	rest = rest[:i]
	j := strings.LastIndex(rest, ":")
	if j <= 0 {
		return "", 0, 0, fmt.Errorf("malformed grade callback: %q", data)
	}
	reviews, err := strconv.Atoi(rest[j+1:])
	if err != nil || reviews < 0 {
		return "", 0, 0, fmt.Errorf("malformed grade callback: %q", data)
	}
	grade := models.Grade(g)
	if !grade.IsValid() {
		return "", 0, 0, fmt.Errorf("grade out of range: %q", data)
	}
	return rest[:j], reviews, grade, nil
}

// parseLimits reads "<reviews> <new>"
func parseLimits(args string) (int, int, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected two numbers")
	}
	maxReviews, err := strconv.Atoi(fields[0])
	if err != nil || maxReviews < 1 {
		return 0, 0, fmt.Errorf("invalid review limit %q", fields[0])
	}
	maxNew, err := strconv.Atoi(fields[1])
	if err != nil || maxNew < 0 || maxNew > maxReviews {
		return 0, 0, fmt.Errorf("invalid new limit %q", fields[1])
	}
	return maxReviews, maxNew, nil
}

// boolToEnabledString converts a boolean to a human-readable enabled/disabled string
func boolToEnabledString(enabled bool) string {
	if enabled {
		return "включены"
	}
	return "выключены"
}
