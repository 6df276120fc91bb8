package bot

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/example/learnbot/internal/excel"
	"github.com/example/learnbot/internal/scheduler"
	"github.com/example/learnbot/pkg/models"
)

// answerKeys are metadata fields hidden behind a spoiler until the learner taps them.
var answerKeys = map[string]bool{
	"back":        true,
	"answer":      true,
	"translation": true,
}

var maturityNames = map[models.Maturity]string{
	models.MaturityNew:      "новые",
	models.MaturityLearning: "изучаются",
	models.MaturityYoung:    "молодые",
	models.MaturityMature:   "зрелые",
}

// plural picks the Russian word form for n: one (1, 21), few (2-4, 22-24) or many.
func plural(n int, one, few, many string) string {
	n %= 100
	if n < 0 {
		n = -n
	}
	if n >= 11 && n <= 14 {
		return many
	}
	switch n % 10 {
	case 1:
		return one
	case 2, 3, 4:
		return few
	default:
		return many
	}
}

func cards(n int) string {
	return fmt.Sprintf("%d %s", n, plural(n, "карточка", "карточки", "карточек"))
}

func days(n int) string {
	return fmt.Sprintf("%d %s", n, plural(n, "день", "дня", "дней"))
}

// formatItem renders a review card as HTML
func formatItem(item models.ReviewItem, queue models.SessionQueue) string {
	var sb strings.Builder
	label := "🔁 Повторение"
	if item.IsNew() {
		label = "🆕 Новая карточка"
	}
	fmt.Fprintf(&sb, "%s · осталось: %d\n\n", label, queue.Stats.QueueSize)
	fmt.Fprintf(&sb, "<b>%s</b> <i>(%s)</i>\n", html.EscapeString(item.ItemID), html.EscapeString(item.ItemType))

	keys := make([]string, 0, len(item.Metadata))
	for k := range item.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		value := html.EscapeString(item.Metadata[k])
		if answerKeys[strings.ToLower(k)] {
			value = "<tg-spoiler>" + value + "</tg-spoiler>"
		}
		fmt.Fprintf(&sb, "%s: %s\n", html.EscapeString(k), value)
	}
	sb.WriteString("\nНасколько легко вы вспомнили?")
	return sb.String()
}

// formatGradeResult tells the learner when the card comes back
func formatGradeResult(grade models.Grade, next models.ReviewItem) string {
	if next.Interval == 0 {
		return fmt.Sprintf("Оценка %d · карточка вернется сегодня", int(grade))
	}
	return fmt.Sprintf("Оценка %d · следующий повтор через %s", int(grade), days(next.Interval))
}

// formatSummary renders deck statistics as HTML
func formatSummary(s models.Summary, reviewedToday int) string {
	if s.TotalItems == 0 {
		return "📊 В колоде пока нет карточек. Загрузите их командой /import."
	}
	var sb strings.Builder
	sb.WriteString("📊 <b>Статистика</b>\n\n")
	fmt.Fprintf(&sb, "Всего: %s\n", cards(s.TotalItems))
	fmt.Fprintf(&sb, "К повторению сейчас: %d\n", s.DueNow)
	fmt.Fprintf(&sb, "Новых: %d\n", s.NewItems)
	fmt.Fprintf(&sb, "Повторений: %d, ошибок: %d\n", s.TotalReviews, s.TotalLapses)
	fmt.Fprintf(&sb, "Успешность: %d%%\n", s.SuccessRate)
	fmt.Fprintf(&sb, "Повторено сегодня: %d\n\n", reviewedToday)

	for _, m := range models.Maturities {
		fmt.Fprintf(&sb, "• %s: %d\n", maturityNames[m], s.ByMaturity[m])
	}

	types := make([]string, 0, len(s.ByType))
	for t := range s.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	if len(types) > 0 {
		sb.WriteString("\n")
	}
	for _, t := range types {
		fmt.Fprintf(&sb, "• %s: %d\n", html.EscapeString(t), s.ByType[t])
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatForecast renders the workload for the next days as HTML
func formatForecast(forecast []models.ForecastDay) string {
	var sb strings.Builder
	sb.WriteString("📅 <b>Прогноз</b>\n")
	total := 0
	for _, day := range forecast {
		label := day.Date.Format("02.01")
		switch day.Day {
		case 0:
			label = "Сегодня"
		case 1:
			label = "Завтра"
		}
		fmt.Fprintf(&sb, "\n%s: %d", label, day.DueCount)
		total += day.DueCount
	}
	fmt.Fprintf(&sb, "\n\nВсего за %s: %s", days(len(forecast)), cards(total))
	return sb.String()
}

// historyShown is how many past reviews /item lists.
const historyShown = 5

// formatItemStats renders one card's statistics and latest reviews as HTML
func formatItemStats(itemID string, s models.ItemStats, history []models.ReviewLog) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🗂 <b>%s</b>\n\n", html.EscapeString(itemID))
	fmt.Fprintf(&sb, "Стадия: %s\n", maturityNames[s.Maturity])
	fmt.Fprintf(&sb, "Повторений: %d, ошибок: %d\n", s.TotalReviews, s.LapseCount)
	fmt.Fprintf(&sb, "Успешность: %d%%\n", s.SuccessRate)
	if s.RecentGradeCount > 0 {
		fmt.Fprintf(&sb, "Средняя оценка (последние %d): %.1f\n", s.RecentGradeCount, s.AvgRecentGrade)
	}
	fmt.Fprintf(&sb, "Серия верных ответов: %d\n", s.CurrentStreak)
	if s.NextReviewIn > 0 {
		fmt.Fprintf(&sb, "Следующий повтор через %s", days(s.NextReviewIn))
	} else {
		sb.WriteString("Пора повторить!")
	}

	if len(history) > historyShown {
		history = history[len(history)-historyShown:]
	}
	if len(history) > 0 {
		sb.WriteString("\n\nПоследние ответы:")
	}
	for _, log := range history {
		fmt.Fprintf(&sb, "\n%s: %s", log.ReviewedAt.Format("02.01.2006"), gradeLabels[log.Grade])
	}
	return sb.String()
}

// formatImportResult summarizes an import for the uploader. A negative
// deckSize leaves the deck total out.
func formatImportResult(r *excel.ImportResult, deckSize int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Обработано строк: %d\n- Добавлено: %d\n- Уже были в колоде: %d\n",
		r.TotalProcessed, r.Created, r.Skipped)
	if deckSize >= 0 {
		fmt.Fprintf(&sb, "В колоде теперь: %s\n", cards(deckSize))
	}

	if len(r.Errors) > 0 {
		fmt.Fprintf(&sb, "\n❌ Ошибки (%d):\n", len(r.Errors))
		const shown = 10
		for i, e := range r.Errors {
			if i == shown {
				fmt.Fprintf(&sb, "... и еще %d\n", len(r.Errors)-shown)
				break
			}
			sb.WriteString("- " + e + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatReminder renders the daily reminder
func formatReminder(r scheduler.Reminder) string {
	if r.QueueSize == 0 {
		if r.DueTomorrow > 0 {
			return fmt.Sprintf("На сегодня повторений нет. Завтра: %s.", cards(r.DueTomorrow))
		}
		return "На сегодня повторений нет."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "⏰ Сегодня у вас %s для повторения", cards(r.QueueSize))
	if r.TotalDue > 0 || r.TotalNew > 0 {
		fmt.Fprintf(&sb, " (к повторению: %d, новых: %d)", r.TotalDue, r.TotalNew)
	}
	sb.WriteString(".")
	if r.HasOverflow {
		sb.WriteString("\nНакопилось больше, чем дневной лимит: остальные карточки перейдут на следующие дни.")
	}
	if r.DueTomorrow > 0 {
		fmt.Fprintf(&sb, "\nЗавтра: %s.", cards(r.DueTomorrow))
	}
	return sb.String()
}
