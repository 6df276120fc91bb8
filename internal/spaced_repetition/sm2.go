package spaced_repetition

import (
	"fmt"
	"maps"
	"math"
	"time"

	"github.com/example/learnbot/pkg/models"
)

// Day is the length of one scheduling interval unit.
const Day = 24 * time.Hour

const (
	graduatingInterval = 6   // days after the second successful review
	hardMultiplier     = 1.2 // interval growth for "hard" answers past the first step
)

// CalculateEaseFactor applies the SM-2 ease update for grade.
// The result never drops below the configured minimum; there is no upper bound.
func (e *Engine) CalculateEaseFactor(current float64, grade models.Grade) (float64, error) {
	if !grade.IsValid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidGrade, int(grade))
	}

	q := float64(models.GradeEasy - grade)
	ef := current + (0.1 - q*(0.08+q*0.02))
	if ef < e.minEase {
		ef = e.minEase
	}
	return ef, nil
}

// CalculateInterval returns the next interval in whole days for item answered with grade.
//
// Failures reset the interval to 0. The first pass after a reset yields 1 day,
// the second yields 6 days (or 1.2x for "hard"), and later passes grow by 1.2x for
// "hard", by the ease factor for "good" and by ease times the easy bonus for "easy".
func (e *Engine) CalculateInterval(item models.ReviewItem, grade models.Grade) (int, error) {
	if !grade.IsValid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidGrade, int(grade))
	}
	if grade.IsLapse() {
		return 0, nil
	}

	interval := float64(item.Interval)
	var next int
	switch {
	case item.Interval <= 0:
		next = 1
	case item.Interval == 1:
		if grade == models.GradeHard {
			next = roundDays(interval * hardMultiplier)
		} else {
			next = graduatingInterval
		}
	default:
		ease := e.easeOf(item)
		switch grade {
		case models.GradeHard:
			next = roundDays(interval * hardMultiplier)
		case models.GradeGood:
			next = roundDays(interval * ease)
		default:
			next = roundDays(interval * ease * e.easyBonus)
		}
	}

	if next < 1 {
		next = 1
	}
	if next > e.maxInterval {
		next = e.maxInterval
	}
	return next, nil
}

// ProcessReview returns the next state of item after a review graded grade at time at.
// A zero at means "now". The input is never modified; unknown metadata is carried over.
func (e *Engine) ProcessReview(item *models.ReviewItem, grade models.Grade, at time.Time) (models.ReviewItem, error) {
	if item == nil {
		return models.ReviewItem{}, ErrMissingItem
	}

	ease, err := e.CalculateEaseFactor(e.easeOf(*item), grade)
	if err != nil {
		return models.ReviewItem{}, err
	}
	interval, err := e.CalculateInterval(*item, grade)
	if err != nil {
		return models.ReviewItem{}, err
	}
	if at.IsZero() {
		at = e.clock()
	}

	next := *item
	next.EaseFactor = ease
	next.Interval = interval
	next.ReviewCount = item.ReviewCount + 1
	next.LapseCount = item.LapseCount
	if grade.IsLapse() {
		next.LapseCount++
	}
	next.LastReviewDate = at
	next.DueDate = at.Add(time.Duration(interval) * Day)
	next.RecentGrades = appendRecentGrade(item.RecentGrades, grade)
	next.Metadata = maps.Clone(item.Metadata)
	return next, nil
}

// easeOf treats a zero ease factor as an item that was never initialized.
func (e *Engine) easeOf(item models.ReviewItem) float64 {
	if item.EaseFactor == 0 {
		return e.initialEase
	}
	return item.EaseFactor
}

// appendRecentGrade returns a fresh slice holding the last MaxRecentGrades grades.
func appendRecentGrade(grades []models.Grade, g models.Grade) []models.Grade {
	start := 0
	if n := len(grades) + 1; n > models.MaxRecentGrades {
		start = n - models.MaxRecentGrades
	}
	out := make([]models.Grade, 0, models.MaxRecentGrades)
	out = append(out, grades[start:]...)
	return append(out, g)
}

func roundDays(days float64) int {
	return int(math.Round(days))
}
