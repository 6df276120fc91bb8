package spaced_repetition

import (
	"time"

	"github.com/example/learnbot/pkg/models"
)

// Forecast returns one entry per calendar day offset 0..days-1 from now, counting
// the items whose due date falls on that day in now's location. Items already
// overdue count towards day 0; items beyond the horizon are left out.
func (e *Engine) Forecast(items []models.ReviewItem, now time.Time, days int) []models.ForecastDay {
	if days <= 0 {
		return []models.ForecastDay{}
	}

	y, m, d := now.Date()
	loc := now.Location()
	forecast := make([]models.ForecastDay, days)
	for i := range forecast {
		forecast[i] = models.ForecastDay{
			Day:  i,
			Date: time.Date(y, m, d+i, 0, 0, 0, 0, loc),
		}
	}

	for _, item := range items {
		offset := dayOffset(now, item.DueDate)
		if offset < 0 {
			offset = 0
		}
		if offset >= days {
			continue
		}
		forecast[offset].DueCount++
	}
	return forecast
}

// dayOffset counts calendar days from now's date to t's date, both in now's location.
func dayOffset(now, t time.Time) int {
	y1, m1, d1 := now.Date()
	y2, m2, d2 := t.In(now.Location()).Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from) / Day)
}
