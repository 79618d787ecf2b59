package backend

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-assistant/internal/model"
	"github.com/sells-group/research-assistant/internal/parse"
	"github.com/sells-group/research-assistant/internal/prompt"
)

const energyDoc = "This is a test about renewable energy. It has two benefits: cost and sustainability."

func generateRule(t *testing.T, p prompt.Prompt) string {
	t.Helper()
	text, err := NewRuleBased().Generate(context.Background(), Request{Prompt: p.Text, System: p.System})
	require.NoError(t, err)
	require.NotEmpty(t, text)
	return text
}

func TestRuleBased_Summary(t *testing.T) {
	b := prompt.NewBuilder(150)
	got := generateRule(t, b.Summarize("One. Two.  Three. Four."))
	assert.Equal(t, "One. Two. Three.", got)

	got = generateRule(t, b.Summarize(energyDoc))
	assert.Equal(t, energyDoc, got)
}

func TestRuleBased_SummaryEmptyDocument(t *testing.T) {
	got := generateRule(t, prompt.NewBuilder(150).Summarize("..."))
	assert.Contains(t, got, "does not contain enough text")
}

func TestRuleBased_Answer(t *testing.T) {
	history := []model.Turn{{Question: "Summary please?", Answer: "It evaluates energy."}}
	got := generateRule(t, prompt.NewBuilder(150).Answer(energyDoc, history, "benefits"))
	assert.Contains(t, got, "It has two benefits: cost and sustainability")
	assert.NotContains(t, got, "renewable")
}

func TestRuleBased_Challenge(t *testing.T) {
	got := generateRule(t, prompt.NewBuilder(150).Challenge(energyDoc))

	qs, err := parse.ParseChallenge(got)
	require.NoError(t, err)
	require.Len(t, qs, 3)
	assert.Equal(t, model.DifficultyEasy, qs[0].Difficulty)
	assert.Equal(t, model.DifficultyMedium, qs[1].Difficulty)
	assert.Equal(t, model.DifficultyHard, qs[2].Difficulty)
	assert.Equal(t, "This is a test about renewable energy.", qs[0].ExpectedAnswer)
}

func TestRuleBased_ChallengeShortDocument(t *testing.T) {
	got := generateRule(t, prompt.NewBuilder(150).Challenge("Only one sentence"))

	var env struct {
		Questions []map[string]string `json:"questions"`
	}
	require.NoError(t, json.Unmarshal([]byte(got), &env))
	require.Len(t, env.Questions, 3)
	assert.Equal(t, "Only one sentence.", env.Questions[1]["expected_answer"])
}

func TestRuleBased_Evaluate(t *testing.T) {
	b := prompt.NewBuilder(150)

	got := generateRule(t, b.Evaluate(energyDoc, "What are the benefits?", "Cost and sustainability."))
	score, defaulted := parse.Score(got)
	assert.False(t, defaulted)
	assert.InDelta(t, 1.0, score, 0.001)

	got = generateRule(t, b.Evaluate(energyDoc, "What are the benefits?", "cost and pizza"))
	score, _ = parse.Score(got)
	assert.InDelta(t, 0.67, score, 0.001)

	got = generateRule(t, b.Evaluate(energyDoc, "What are the benefits?", ""))
	score, defaulted = parse.Score(got)
	assert.False(t, defaulted)
	assert.Zero(t, score)
}

func TestRuleBased_Unknown(t *testing.T) {
	got, err := NewRuleBased().Generate(context.Background(), Request{Prompt: "Translate this.\n\nhello"})
	require.NoError(t, err)
	assert.Equal(t, unavailableMessage, got)
}

func TestDocumentSection(t *testing.T) {
	p := prompt.NewBuilder(150).Evaluate("Doc line one.\n\nDoc line two.", "Q?", "A")
	assert.Equal(t, "Doc line one.\n\nDoc line two.", documentSection(p.Text, true))
	assert.Equal(t, "Q?", sectionLine(p.Text, questionMarker))
	assert.Equal(t, "A", sectionLine(p.Text, userAnswerMarker))
	assert.Equal(t, "", documentSection("no marker", false))
}

func TestDocumentSection_KeepsDocumentQuestions(t *testing.T) {
	faq := "Solar panels convert light.\n\nQuestion: Do they work in winter?\nYes, at lower output."
	b := prompt.NewBuilder(150)

	assert.Equal(t, faq, documentSection(b.Summarize(faq).Text, false))
	assert.Equal(t, faq, documentSection(b.Challenge(faq).Text, false))
	assert.Equal(t, faq, documentSection(b.Evaluate(faq, "Q?", "A").Text, true))

	got, err := NewRuleBased().Generate(context.Background(), Request{Prompt: b.Summarize(faq).Text})
	require.NoError(t, err)
	assert.Contains(t, got, "lower output")
}
