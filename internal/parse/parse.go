// Package parse extracts typed results from free-text model output.
package parse

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-assistant/internal/model"
)

// ErrParse marks output that could not be turned into a structured result.
var ErrParse = eris.New("parse: malformed model output")

// ChallengeCount is the number of questions in every challenge set.
const ChallengeCount = 3

// DefaultScore is the percentage used when evaluation text holds no number.
const DefaultScore = 75.0

var (
	jsonObject = regexp.MustCompile(`(?s)\{.*\}`)
	number     = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
)

// Text returns raw with surrounding whitespace removed. Summary and answer
// output is passed through otherwise unchanged.
func Text(raw string) string {
	return strings.TrimSpace(raw)
}

type challengeEnvelope struct {
	Questions []struct {
		Question       string `json:"question"`
		ExpectedAnswer string `json:"expected_answer"`
		Difficulty     string `json:"difficulty"`
	} `json:"questions"`
}

// ParseChallenge extracts the greedy span from the first '{' to the last '}'
// in raw and decodes it as a question set. Records with an empty question or
// an unknown difficulty are rejected. Fewer than ChallengeCount valid records
// is an error; extra records are dropped.
func ParseChallenge(raw string) ([]model.ChallengeQuestion, error) {
	span := jsonObject.FindString(raw)
	if span == "" {
		return nil, eris.Wrap(ErrParse, "challenge: no JSON object found")
	}

	var env challengeEnvelope
	if err := json.Unmarshal([]byte(span), &env); err != nil {
		return nil, eris.Wrapf(ErrParse, "challenge: decode: %v", err)
	}

	out := make([]model.ChallengeQuestion, 0, ChallengeCount)
	for _, q := range env.Questions {
		text := strings.TrimSpace(q.Question)
		if text == "" {
			continue
		}
		d, ok := model.ParseDifficulty(q.Difficulty)
		if !ok {
			continue
		}
		out = append(out, model.ChallengeQuestion{
			Question:       text,
			ExpectedAnswer: strings.TrimSpace(q.ExpectedAnswer),
			Difficulty:     d,
		})
		if len(out) == ChallengeCount {
			return out, nil
		}
	}

	return nil, eris.Wrapf(ErrParse, "challenge: %d valid questions, want %d", len(out), ChallengeCount)
}

// FallbackChallenge returns the fixed question set used when model output
// cannot be parsed.
func FallbackChallenge() []model.ChallengeQuestion {
	return []model.ChallengeQuestion{
		{
			Question:       "What is the main objective or purpose described in this document?",
			ExpectedAnswer: "Based on document content",
			Difficulty:     model.DifficultyMedium,
		},
		{
			Question:       "What are the key findings or conclusions mentioned?",
			ExpectedAnswer: "Based on document content",
			Difficulty:     model.DifficultyMedium,
		},
		{
			Question:       "What implications or recommendations are discussed?",
			ExpectedAnswer: "Based on document content",
			Difficulty:     model.DifficultyHard,
		},
	}
}

// ChallengeOrFallback parses raw and substitutes FallbackChallenge on any
// error. The bool reports whether the fallback was used.
func ChallengeOrFallback(raw string) ([]model.ChallengeQuestion, bool) {
	qs, err := ParseChallenge(raw)
	if err != nil {
		return FallbackChallenge(), true
	}
	return qs, false
}

// ParseScore returns the first integer or decimal number in raw. It does not
// check that the number is the score the model intended.
func ParseScore(raw string) (float64, error) {
	m := number.FindString(raw)
	if m == "" {
		return 0, eris.Wrap(ErrParse, "score: no number found")
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, eris.Wrapf(ErrParse, "score: %v", err)
	}
	return v, nil
}

// Score converts evaluation text to a fraction in [0,1]. When no number is
// present DefaultScore is used and defaulted is true.
func Score(raw string) (fraction float64, defaulted bool) {
	pct, err := ParseScore(raw)
	if err != nil {
		pct, defaulted = DefaultScore, true
	}
	fraction = pct / 100
	if fraction > 1 {
		fraction = 1
	}
	if fraction < 0 {
		fraction = 0
	}
	return fraction, defaulted
}
