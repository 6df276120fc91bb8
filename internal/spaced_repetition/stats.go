package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/learnbot/pkg/models"
)

// ItemStats summarizes item's review history at now.
func (e *Engine) ItemStats(item models.ReviewItem, now time.Time) models.ItemStats {
	stats := models.ItemStats{
		SuccessRate:      successRate(item.ReviewCount, item.LapseCount),
		TotalReviews:     item.ReviewCount,
		LapseCount:       item.LapseCount,
		Maturity:         maturityOf(item),
		RecentGradeCount: len(item.RecentGrades),
		CurrentStreak:    CurrentStreak(item.RecentGrades),
	}

	if len(item.RecentGrades) > 0 {
		sum := 0
		for _, g := range item.RecentGrades {
			sum += int(g)
		}
		stats.AvgRecentGrade = float64(sum) / float64(len(item.RecentGrades))
	}

	if until := item.DueDate.Sub(now); until > 0 {
		stats.NextReviewIn = int(math.Ceil(until.Hours() / 24))
	}
	return stats
}

// CurrentStreak counts consecutive passing grades at the end of grades.
func CurrentStreak(grades []models.Grade) int {
	streak := 0
	for i := len(grades) - 1; i >= 0; i-- {
		if grades[i].IsLapse() {
			break
		}
		streak++
	}
	return streak
}

// Summarize aggregates a learner's items at now.
func (e *Engine) Summarize(items []models.ReviewItem, now time.Time) models.Summary {
	summary := models.Summary{
		TotalItems: len(items),
		ByMaturity: make(map[models.Maturity]int, len(models.Maturities)),
		ByType:     make(map[string]int),
	}
	for _, m := range models.Maturities {
		summary.ByMaturity[m] = 0
	}

	for _, item := range items {
		summary.ByMaturity[maturityOf(item)]++
		summary.ByType[item.ItemType]++
		summary.TotalReviews += item.ReviewCount
		summary.TotalLapses += item.LapseCount
		switch {
		case item.IsNew():
			summary.NewItems++
		case item.IsDue(now):
			summary.DueNow++
		}
	}
	summary.SuccessRate = successRate(summary.TotalReviews, summary.TotalLapses)
	return summary
}

func successRate(reviews, lapses int) int {
	if reviews == 0 {
		return 0
	}
	return int(math.Round(100 * float64(reviews-lapses) / float64(reviews)))
}
