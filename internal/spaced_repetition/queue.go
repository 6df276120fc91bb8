package spaced_repetition

import (
	"cmp"
	"slices"
	"time"

	"github.com/example/learnbot/pkg/models"
)

// QueueOptions limits a daily queue. Zero limits fall back to the engine's daily defaults.
type QueueOptions struct {
	IncludeNew bool
	MaxNew     int
	MaxReviews int
}

// DailyQueue builds the review queue for now.
//
// Due items are reviewed items whose due date has passed; they are ordered by
// priority, most urgent first, and capped at MaxReviews (HasOverflow reports the
// cut). Never-reviewed items are new: when IncludeNew is set, up to MaxNew of them
// are appended in input order within the remaining MaxReviews budget.
func (e *Engine) DailyQueue(items []models.ReviewItem, now time.Time, opts QueueOptions) models.SessionQueue {
	maxReviews := opts.MaxReviews
	if maxReviews <= 0 {
		maxReviews = e.maxReviewsPerDay
	}
	maxNew := opts.MaxNew
	if maxNew <= 0 {
		maxNew = e.maxNewPerDay
	}

	type scored struct {
		item     models.ReviewItem
		priority float64
	}
	var due []scored
	var fresh []models.ReviewItem
	for _, item := range items {
		switch {
		case item.IsNew():
			fresh = append(fresh, item)
		case item.IsDue(now):
			due = append(due, scored{item: item, priority: e.CalculatePriority(item, now)})
		}
	}

	slices.SortStableFunc(due, func(a, b scored) int {
		return cmp.Compare(b.priority, a.priority)
	})

	result := models.SessionQueue{
		Queue: make([]models.ReviewItem, 0, min(len(due), maxReviews)),
		Stats: models.QueueStats{
			TotalDue: len(due),
			TotalNew: len(fresh),
			ByType:   make(map[string]int),
		},
	}

	if len(due) > maxReviews {
		due = due[:maxReviews]
		result.HasOverflow = true
	}
	for _, s := range due {
		result.Queue = append(result.Queue, s.item)
	}

	if opts.IncludeNew {
		n := min(maxNew, maxReviews-len(result.Queue), len(fresh))
		if n > 0 {
			result.Queue = append(result.Queue, fresh[:n]...)
		}
	}

	for _, item := range result.Queue {
		result.Stats.ByType[item.ItemType]++
	}
	result.Stats.QueueSize = len(result.Queue)
	return result
}
