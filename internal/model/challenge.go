package model

import "strings"

// Difficulty labels a challenge question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty normalizes s and reports whether it names a known level.
func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, true
	default:
		return "", false
	}
}

// ChallengeQuestion is a generated comprehension question.
type ChallengeQuestion struct {
	Question       string     `json:"question"`
	ExpectedAnswer string     `json:"expected_answer"`
	Difficulty     Difficulty `json:"difficulty"`
}

// ChallengeSet is the response to a challenge request.
type ChallengeSet struct {
	Questions []ChallengeQuestion `json:"questions"`
	SessionID string              `json:"session_id"`
}
