package models

import "time"

// SessionQueue is the ordered list of items to present in one sitting.
type SessionQueue struct {
	Queue       []ReviewItem `json:"queue"`
	Stats       QueueStats   `json:"stats"`
	HasOverflow bool         `json:"has_overflow"` // more due items existed than the cap allowed
}

// QueueStats summarizes a SessionQueue. TotalDue and TotalNew count the whole input,
// not just what made it into the queue.
type QueueStats struct {
	TotalDue  int            `json:"total_due"`
	TotalNew  int            `json:"total_new"`
	QueueSize int            `json:"queue_size"`
	ByType    map[string]int `json:"by_type"`
}

// ForecastDay is the number of items becoming due on one calendar day.
type ForecastDay struct {
	Day      int       `json:"day"`  // offset from today, 0 = today
	Date     time.Time `json:"date"` // local midnight of that day
	DueCount int       `json:"due_count"`
}
