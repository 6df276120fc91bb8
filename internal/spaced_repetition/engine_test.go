package spaced_repetition

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/learnbot/pkg/models"
)

func TestNewDefault(t *testing.T) {
	cfg := NewDefault().Config()

	assert.Equal(t, 1.3, cfg.MinEaseFactor)
	assert.Equal(t, 2.5, cfg.InitialEaseFactor)
	assert.Equal(t, 1.3, cfg.EasyBonus)
	assert.Equal(t, 200, cfg.MaxReviewsPerDay)
	assert.Equal(t, 20, cfg.MaxNewPerDay)
	assert.Equal(t, DefaultMaxInterval, cfg.MaxInterval)
	assert.Equal(t, DefaultTypeWeights(), cfg.TypeWeights)
}

func TestNewFillsZeroFields(t *testing.T) {
	e, err := New(Config{MinEaseFactor: 1.5})
	require.NoError(t, err)

	cfg := e.Config()
	assert.Equal(t, 1.5, cfg.MinEaseFactor)
	assert.Equal(t, DefaultInitialEaseFactor, cfg.InitialEaseFactor)
	assert.Equal(t, DefaultMaxNewPerDay, cfg.MaxNewPerDay)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative min ease", Config{MinEaseFactor: -1}},
		{"initial below min", Config{MinEaseFactor: 2, InitialEaseFactor: 1.5}},
		{"easy bonus below one", Config{EasyBonus: 0.5}},
		{"negative review cap", Config{MaxReviewsPerDay: -1}},
		{"negative new cap", Config{MaxNewPerDay: -5}},
		{"negative max interval", Config{MaxInterval: -1}},
		{"type weight too large", Config{TypeWeights: map[string]float64{"letter": 75}}},
		{"negative maturity weight", Config{MaturityWeights: map[models.Maturity]float64{models.MaturityNew: -1}}},
		{"NaN min ease", Config{MinEaseFactor: math.NaN()}},
		{"NaN initial ease", Config{InitialEaseFactor: math.NaN()}},
		{"infinite initial ease", Config{InitialEaseFactor: math.Inf(1)}},
		{"NaN easy bonus", Config{EasyBonus: math.NaN()}},
		{"infinite easy bonus", Config{EasyBonus: math.Inf(1)}},
		{"negative infinite min ease", Config{MinEaseFactor: math.Inf(-1)}},
		{"NaN type weight", Config{TypeWeights: map[string]float64{"letter": math.NaN()}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestConfigIsCopied(t *testing.T) {
	weights := map[string]float64{"letter": 5}
	e, err := New(Config{TypeWeights: weights})
	require.NoError(t, err)

	weights["letter"] = 40
	assert.Equal(t, 5.0, e.Config().TypeWeights["letter"])
}

func TestNewItem(t *testing.T) {
	item := NewDefault().NewItem("a", "letter", t0)

	assert.Equal(t, "a", item.ItemID)
	assert.Equal(t, "letter", item.ItemType)
	assert.Equal(t, 2.5, item.EaseFactor)
	assert.Zero(t, item.Interval)
	assert.Zero(t, item.ReviewCount)
	assert.True(t, item.DueDate.Equal(t0))
	assert.True(t, item.LastReviewDate.IsZero())
}

func TestWithClock(t *testing.T) {
	fixed := t0.Add(time.Hour)
	e := NewDefault().WithClock(func() time.Time { return fixed })
	item := e.NewItem("a", "letter", t0)

	next, err := e.ProcessReview(&item, models.GradeGood, time.Time{})
	require.NoError(t, err)
	assert.True(t, next.LastReviewDate.Equal(fixed))
	assert.True(t, next.DueDate.Equal(fixed.Add(Day)))
}
