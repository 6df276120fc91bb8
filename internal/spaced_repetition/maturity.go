package spaced_repetition

import "github.com/example/learnbot/pkg/models"

// Interval thresholds in days.
const (
	youngInterval  = 21
	matureInterval = 100
)

// Maturity classifies item into a learning stage. Lower bounds are inclusive:
// exactly 21 days is YOUNG and exactly 100 days is MATURE.
func (e *Engine) Maturity(item models.ReviewItem) models.Maturity {
	return maturityOf(item)
}

func maturityOf(item models.ReviewItem) models.Maturity {
	switch {
	case item.ReviewCount == 0 || item.Interval <= 0:
		return models.MaturityNew
	case item.Interval < youngInterval:
		return models.MaturityLearning
	case item.Interval < matureInterval:
		return models.MaturityYoung
	default:
		return models.MaturityMature
	}
}
