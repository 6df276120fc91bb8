package models

import "time"

// ReviewLog records one graded review for history and auditing.
type ReviewLog struct {
	ID             string    `json:"id" db:"id"`
	LearnerID      int64     `json:"learner_id" db:"learner_id"`
	ItemID         string    `json:"item_id" db:"item_id"`
	Grade          Grade     `json:"grade" db:"grade"`
	ReviewedAt     time.Time `json:"reviewed_at" db:"reviewed_at"`
	IntervalBefore int       `json:"interval_before" db:"interval_before"`
	IntervalAfter  int       `json:"interval_after" db:"interval_after"`
	EaseAfter      float64   `json:"ease_after" db:"ease_after"`
}
