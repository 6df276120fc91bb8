package models

import "fmt"

// Grade is the quality of a single review attempt, 0 through 5.
type Grade int

const (
	// Complete blackout, unable to recall
	GradeBlackout Grade = 0
	// Incorrect response but remembered upon seeing the correct answer
	GradeIncorrect Grade = 1
	// Incorrect response but the correct answer felt familiar
	GradeIncorrectFamiliar Grade = 2
	// Correct response but required significant effort
	GradeHard Grade = 3
	// Correct response after some hesitation
	GradeGood Grade = 4
	// Perfect response with no hesitation
	GradeEasy Grade = 5
)

// PassThreshold is the lowest grade counted as a successful recall.
const PassThreshold = GradeHard

// IsValid reports whether g is within 0..5.
func (g Grade) IsValid() bool {
	return g >= GradeBlackout && g <= GradeEasy
}

// IsLapse reports whether g is a failed recall.
func (g Grade) IsLapse() bool {
	return g < PassThreshold
}

func (g Grade) String() string {
	switch g {
	case GradeBlackout:
		return "blackout"
	case GradeIncorrect:
		return "incorrect"
	case GradeIncorrectFamiliar:
		return "familiar"
	case GradeHard:
		return "hard"
	case GradeGood:
		return "good"
	case GradeEasy:
		return "easy"
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}
