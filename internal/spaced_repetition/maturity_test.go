package spaced_repetition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/learnbot/pkg/models"
)

func TestMaturity(t *testing.T) {
	tests := []struct {
		name     string
		interval int
		reviews  int
		want     models.Maturity
	}{
		{"never reviewed", 0, 0, models.MaturityNew},
		{"never reviewed with interval", 5, 0, models.MaturityNew},
		{"lapsed", 0, 7, models.MaturityNew},
		{"one day", 1, 1, models.MaturityLearning},
		{"twenty days", 20, 4, models.MaturityLearning},
		{"young boundary", 21, 4, models.MaturityYoung},
		{"ninety nine days", 99, 6, models.MaturityYoung},
		{"mature boundary", 100, 7, models.MaturityMature},
		{"years", 800, 12, models.MaturityMature},
	}

	e := NewDefault()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := reviewedItem("a", "letter", tt.interval, t0)
			item.ReviewCount = tt.reviews
			assert.Equal(t, tt.want, e.Maturity(item))
		})
	}
}
