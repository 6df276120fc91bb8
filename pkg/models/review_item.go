package models

import "time"

// ReviewItem is the scheduling state of one learnable unit (a letter, a word, a grammar point).
type ReviewItem struct {
	ItemID         string            `json:"item_id" db:"item_id"`
	ItemType       string            `json:"item_type" db:"item_type"`
	EaseFactor     float64           `json:"ease_factor" db:"ease_factor"`
	Interval       int               `json:"interval" db:"interval_days"` // days; 0 means new or just lapsed
	DueDate        time.Time         `json:"due_date" db:"due_date"`
	ReviewCount    int               `json:"review_count" db:"review_count"`
	LapseCount     int               `json:"lapse_count" db:"lapse_count"`
	LastReviewDate time.Time         `json:"last_review_date" db:"last_review_date"` // zero if never reviewed
	RecentGrades   []Grade           `json:"recent_grades" db:"recent_grades"`       // oldest first, at most MaxRecentGrades
	Metadata       map[string]string `json:"metadata,omitempty" db:"metadata"`
}

// MaxRecentGrades bounds ReviewItem.RecentGrades.
const MaxRecentGrades = 10

// IsNew reports whether the item has never been reviewed.
func (i ReviewItem) IsNew() bool {
	return i.ReviewCount == 0
}

// IsDue reports whether the item is eligible for review at now.
func (i ReviewItem) IsDue(now time.Time) bool {
	return !i.DueDate.After(now)
}
