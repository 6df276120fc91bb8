package spaced_repetition

import "errors"

// Sentinel errors for the spaced_repetition package.
// Use errors.Is to check: errors.Is(err, spaced_repetition.ErrInvalidGrade)
var (
	ErrInvalidGrade  = errors.New("spaced_repetition: grade out of range [0, 5]")
	ErrMissingItem   = errors.New("spaced_repetition: review item is nil")
	ErrInvalidConfig = errors.New("spaced_repetition: invalid engine config")
)
