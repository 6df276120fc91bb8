package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/learnbot/pkg/models"
)

const (
	// overdueDayWeight is the score of one started day of overdueness. It exceeds
	// maxTypeWeight+maxMaturityWeight, so a later day bucket always wins.
	overdueDayWeight = 100.0
	// overdueFraction keeps the score strictly increasing inside a day bucket.
	overdueFraction = 0.01
)

// CalculatePriority returns a sort key for item at now; higher is more urgent.
//
// The score is the sum of three components:
//   - overdueness, counted in started days (any overdue item lands at least one
//     bucket above an on-time one, any future item at least one below), plus a
//     small continuous term;
//   - the item type weight from the type table;
//   - the maturity weight, which puts fragile LEARNING items above MATURE ones.
func (e *Engine) CalculatePriority(item models.ReviewItem, now time.Time) float64 {
	return overdueScore(now.Sub(item.DueDate)) +
		e.typeWeights[item.ItemType] +
		e.maturityWeights[maturityOf(item)]
}

func overdueScore(overdue time.Duration) float64 {
	days := overdue.Hours() / 24
	var bucket float64
	switch {
	case overdue > 0:
		bucket = math.Ceil(days)
	case overdue < 0:
		bucket = -math.Ceil(-days)
	}
	return bucket*overdueDayWeight + days*overdueFraction
}
