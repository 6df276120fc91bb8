package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityIncreasesWithOverdue(t *testing.T) {
	e := NewDefault()
	onTime := e.CalculatePriority(reviewedItem("a", "vocabulary", 6, t0), t0)
	oneDay := e.CalculatePriority(reviewedItem("b", "vocabulary", 6, t0.Add(-days(1))), t0)
	threeDays := e.CalculatePriority(reviewedItem("c", "vocabulary", 6, t0.Add(-days(3))), t0)
	future := e.CalculatePriority(reviewedItem("d", "vocabulary", 6, t0.Add(days(2))), t0)

	assert.Greater(t, threeDays, oneDay)
	assert.Greater(t, oneDay, onTime)
	assert.Greater(t, onTime, future)
}

func TestPriorityFollowsTypeTable(t *testing.T) {
	e := NewDefault()
	letter := e.CalculatePriority(reviewedItem("a", "letter", 6, t0), t0)
	vocabulary := e.CalculatePriority(reviewedItem("b", "vocabulary", 6, t0), t0)
	grammar := e.CalculatePriority(reviewedItem("c", "grammar", 6, t0), t0)
	unknown := e.CalculatePriority(reviewedItem("d", "phonics", 6, t0), t0)

	assert.Greater(t, letter, vocabulary)
	assert.Greater(t, vocabulary, grammar)
	assert.Greater(t, grammar, unknown)
}

func TestPriorityCustomTypeTable(t *testing.T) {
	e, err := New(Config{TypeWeights: map[string]float64{"grammar": 40, "letter": 1}})
	require.NoError(t, err)

	letter := e.CalculatePriority(reviewedItem("a", "letter", 6, t0), t0)
	grammar := e.CalculatePriority(reviewedItem("b", "grammar", 6, t0), t0)
	assert.Greater(t, grammar, letter)
}

func TestPriorityLearningBeforeMature(t *testing.T) {
	e := NewDefault()
	learning := e.CalculatePriority(reviewedItem("a", "vocabulary", 10, t0), t0)
	mature := e.CalculatePriority(reviewedItem("b", "vocabulary", 150, t0), t0)

	assert.Greater(t, learning, mature)
}

func TestPriorityOverdueDayDominatesTypeAndMaturity(t *testing.T) {
	e := NewDefault()
	// grammar, mature, one minute overdue against letter, learning, exactly on time
	slightlyLate := e.CalculatePriority(reviewedItem("a", "grammar", 150, t0.Add(-time.Minute)), t0)
	onTime := e.CalculatePriority(reviewedItem("b", "letter", 10, t0), t0)
	assert.Greater(t, slightlyLate, onTime)

	twoDays := e.CalculatePriority(reviewedItem("c", "grammar", 150, t0.Add(-days(2))), t0)
	oneDay := e.CalculatePriority(reviewedItem("d", "letter", 10, t0.Add(-days(1))), t0)
	assert.Greater(t, twoDays, oneDay)
}

func TestPriorityStrictlyIncreasingWithinDay(t *testing.T) {
	e := NewDefault()
	early := e.CalculatePriority(reviewedItem("a", "letter", 6, t0.Add(-2*time.Hour)), t0)
	later := e.CalculatePriority(reviewedItem("b", "letter", 6, t0.Add(-3*time.Hour)), t0)
	assert.Greater(t, later, early)
}
