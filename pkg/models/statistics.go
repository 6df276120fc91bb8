package models

// ItemStats describes the mastery trajectory of a single item.
type ItemStats struct {
	SuccessRate      int      `json:"success_rate"` // percent
	TotalReviews     int      `json:"total_reviews"`
	LapseCount       int      `json:"lapse_count"`
	Maturity         Maturity `json:"maturity"`
	AvgRecentGrade   float64  `json:"avg_recent_grade"` // meaningless when RecentGradeCount is 0
	RecentGradeCount int      `json:"recent_grade_count"`
	CurrentStreak    int      `json:"current_streak"`
	NextReviewIn     int      `json:"next_review_in"` // whole days, 0 when already due
}

// Summary is a deck-level view over a learner's items.
type Summary struct {
	TotalItems   int              `json:"total_items"`
	DueNow       int              `json:"due_now"`
	NewItems     int              `json:"new_items"`
	TotalReviews int              `json:"total_reviews"`
	TotalLapses  int              `json:"total_lapses"`
	SuccessRate  int              `json:"success_rate"`
	ByMaturity   map[Maturity]int `json:"by_maturity"`
	ByType       map[string]int   `json:"by_type"`
}
