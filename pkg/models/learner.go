package models

import "time"

// Learner is a Telegram user studying a deck of review items.
type Learner struct {
	ID                  int64     `json:"id" db:"id"` // Telegram user ID
	Username            string    `json:"username" db:"username"`
	FirstName           string    `json:"first_name" db:"first_name"`
	NotificationEnabled bool      `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int       `json:"notification_hour" db:"notification_hour"`     // 0-23, UTC
	MaxReviewsPerDay    int       `json:"max_reviews_per_day" db:"max_reviews_per_day"` // 0 = engine default
	MaxNewPerDay        int       `json:"max_new_per_day" db:"max_new_per_day"`         // 0 = engine default
	IncludeNew          bool      `json:"include_new" db:"include_new"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}
