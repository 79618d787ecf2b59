package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/research-assistant/internal/highlight"
)

const unavailableMessage = "The language model backends are currently unavailable. Please try again later."

// Prompt section markers read by the rule-based backend.
const (
	documentMarker   = "Document:\n"
	questionMarker   = "Question: "
	userAnswerMarker = "User's Answer: "
)

// RuleBased answers from the prompt text alone. It needs no network and
// never fails.
type RuleBased struct{}

// NewRuleBased creates a RuleBased backend.
func NewRuleBased() *RuleBased { return &RuleBased{} }

// Name implements Backend.
func (r *RuleBased) Name() string { return "rule_based" }

// Generate inspects the instruction header of the prompt, the text before the
// first blank line, for task keywords and derives an answer from the
// document section.
func (r *RuleBased) Generate(_ context.Context, req Request) (string, error) {
	header, _, _ := strings.Cut(req.Prompt, "\n\n")
	header = strings.ToLower(header)

	switch {
	case strings.Contains(header, "evaluate"):
		doc := documentSection(req.Prompt, true)
		return ruleEvaluate(doc, sectionLine(req.Prompt, userAnswerMarker)), nil
	case strings.Contains(header, "challeng"):
		return ruleChallenge(documentSection(req.Prompt, false)), nil
	case strings.Contains(header, "summary"):
		return ruleSummary(documentSection(req.Prompt, false)), nil
	case strings.Contains(header, "question"):
		doc := documentSection(req.Prompt, true)
		return ruleAnswer(doc, sectionLine(req.Prompt, questionMarker)), nil
	default:
		return unavailableMessage, nil
	}
}

// documentSection returns the text after the "Document:" marker. When the
// prompt ends with a "Question:" block, as answer and evaluate prompts do,
// that block is cut off.
func documentSection(prompt string, trailingQuestion bool) string {
	i := strings.Index(prompt, documentMarker)
	if i < 0 {
		return ""
	}
	doc := prompt[i+len(documentMarker):]
	if !trailingQuestion {
		return strings.TrimSpace(doc)
	}
	if j := strings.LastIndex(doc, "\n\n"+questionMarker); j >= 0 {
		doc = doc[:j]
	}
	return strings.TrimSpace(doc)
}

// sectionLine returns the rest of the line starting with marker.
func sectionLine(prompt, marker string) string {
	i := strings.LastIndex(prompt, "\n"+marker)
	if i < 0 {
		return ""
	}
	line := prompt[i+1+len(marker):]
	line, _, _ = strings.Cut(line, "\n")
	return strings.TrimSpace(line)
}

// sentences returns up to n non-empty period-delimited sentences.
func sentences(doc string, n int) []string {
	var out []string
	for _, s := range strings.Split(doc, ".") {
		s = strings.Join(strings.Fields(s), " ")
		if s == "" {
			continue
		}
		out = append(out, s+".")
		if len(out) == n {
			break
		}
	}
	return out
}

func ruleSummary(doc string) string {
	ss := sentences(doc, 3)
	if len(ss) == 0 {
		return "The document does not contain enough text to summarize."
	}
	return strings.Join(ss, " ")
}

func ruleAnswer(doc, question string) string {
	if doc == "" {
		return unavailableMessage
	}
	return "Relevant excerpt from the document: " + highlight.Highlight(doc, question)
}

type ruleQuestion struct {
	Question       string `json:"question"`
	ExpectedAnswer string `json:"expected_answer"`
	Difficulty     string `json:"difficulty"`
}

func ruleChallenge(doc string) string {
	ss := sentences(doc, 3)
	for len(ss) < 3 {
		if len(ss) == 0 {
			ss = append(ss, "The document does not state this.")
			continue
		}
		ss = append(ss, ss[len(ss)-1])
	}

	out := struct {
		Questions []ruleQuestion `json:"questions"`
	}{Questions: []ruleQuestion{
		{
			Question:       "What is the opening statement of the document?",
			ExpectedAnswer: ss[0],
			Difficulty:     "easy",
		},
		{
			Question:       "What detail does the document give after its opening statement?",
			ExpectedAnswer: ss[1],
			Difficulty:     "medium",
		},
		{
			Question:       "How do the first points made in the document relate to each other?",
			ExpectedAnswer: strings.Join(ss, " "),
			Difficulty:     "hard",
		},
	}}

	b, err := json.Marshal(out)
	if err != nil {
		return unavailableMessage
	}
	return string(b)
}

// ruleEvaluate scores an answer by the share of its distinct words that
// appear in the document.
func ruleEvaluate(doc, answer string) string {
	docWords := wordSet(doc)
	answerWords := wordSet(answer)

	score := 0
	if len(answerWords) > 0 {
		hits := 0
		for w := range answerWords {
			if _, ok := docWords[w]; ok {
				hits++
			}
		}
		score = int(math.Round(100 * float64(hits) / float64(len(answerWords))))
	}

	return fmt.Sprintf("Score: %d\nFeedback: %d%% of the words in your answer appear in the document. "+
		"This score was computed automatically because no language model was available.", score, score)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?\"'()[]{}")
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}
