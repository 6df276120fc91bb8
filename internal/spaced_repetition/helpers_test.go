package spaced_repetition

import (
	"time"

	"github.com/example/learnbot/pkg/models"
)

var t0 = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func days(n float64) time.Duration {
	return time.Duration(n * float64(Day))
}

// reviewedItem returns an item that has been reviewed before and is due at due.
func reviewedItem(id, itemType string, interval int, due time.Time) models.ReviewItem {
	return models.ReviewItem{
		ItemID:      id,
		ItemType:    itemType,
		EaseFactor:  DefaultInitialEaseFactor,
		Interval:    interval,
		DueDate:     due,
		ReviewCount: 3,
	}
}
