// Package prompt builds task-specific prompts with bounded document context.
package prompt

import (
	"fmt"
	"strings"

	"github.com/sells-group/research-assistant/internal/highlight"
	"github.com/sells-group/research-assistant/internal/model"
)

// Task identifies the kind of request a prompt encodes.
type Task string

const (
	TaskSummarize Task = "summarize"
	TaskAnswer    Task = "answer"
	TaskChallenge Task = "challenge"
	TaskEvaluate  Task = "evaluate"
)

// Character budgets applied to document text. Truncation is a plain prefix
// cut, so the last sentence may be partial.
const (
	SummaryBudget   = 8000
	ChallengeBudget = 6000
	EvaluateBudget  = 6000

	// HistoryWindow is the number of most recent turns rendered into an
	// answer prompt.
	HistoryWindow = 5

	// DefaultSummaryWords is used when the builder has no configured limit.
	DefaultSummaryWords = 150
)

// System instructions per task.
const (
	summarySystem   = "You are a helpful assistant that creates concise, accurate summaries of documents. Focus on extracting the most important information. Do not include information that is not present in the document."
	answerSystem    = "You are a helpful assistant that answers questions based strictly on the provided document content. Always cite specific parts of the document to support your answers. Never fabricate information that is not in the document."
	challengeSystem = "You are a helpful assistant that creates challenging comprehension questions based on document content. Only ask about information present in the document. Always respond with valid JSON format."
	evaluateSystem  = "You are a helpful assistant that evaluates answers based strictly on document content. Provide constructive feedback and accurate scoring. Do not rely on knowledge outside the document."
)

// Prompt is a rendered prompt ready to send to a backend.
type Prompt struct {
	Task   Task
	Text   string
	System string
}

// Builder renders prompts.
type Builder struct {
	summaryWords int
}

// NewBuilder creates a Builder. A non-positive summaryWords falls back to
// DefaultSummaryWords.
func NewBuilder(summaryWords int) *Builder {
	if summaryWords <= 0 {
		summaryWords = DefaultSummaryWords
	}
	return &Builder{summaryWords: summaryWords}
}

// Summarize renders a summarization prompt over the first SummaryBudget
// characters of doc.
func (b *Builder) Summarize(doc string) Prompt {
	text := fmt.Sprintf(`Please provide a concise summary of the following document in no more than %d words. Focus on the main points, key findings, and conclusions.

Document:
%s`, b.summaryWords, Truncate(doc, SummaryBudget))

	return Prompt{Task: TaskSummarize, Text: text, System: summarySystem}
}

// Answer renders a question-answering prompt. The full document is included
// along with the last HistoryWindow turns of history.
func (b *Builder) Answer(doc string, history []model.Turn, question string) Prompt {
	text := fmt.Sprintf(`Based on the following document, answer the question with contextual understanding. Provide a clear answer and justify it with specific references from the document. Do not hallucinate or fabricate information not present in the document.

Previous conversation context:
%s

Document:
%s

Question: %s

Please provide:
1. A clear answer
2. Justification with specific references from the document
3. A confidence score (0-1)`, RenderHistory(history), doc, question)

	return Prompt{Task: TaskAnswer, Text: text, System: answerSystem}
}

// Challenge renders a prompt asking for three comprehension questions as JSON.
func (b *Builder) Challenge(doc string) Prompt {
	text := fmt.Sprintf(`Based on the following document, generate exactly 3 challenging questions that test:
1. Comprehension and understanding
2. Logical reasoning
3. Critical thinking

Make sure the questions can be answered from the document content.
Format your response as JSON with the following structure:
{
    "questions": [
        {
            "question": "Your question here",
            "expected_answer": "Expected answer based on document",
            "difficulty": "easy/medium/hard"
        }
    ]
}

Document:
%s`, Truncate(doc, ChallengeBudget))

	return Prompt{Task: TaskChallenge, Text: text, System: challengeSystem}
}

// Evaluate renders a grading prompt for a user's answer.
func (b *Builder) Evaluate(doc, question, userAnswer string) Prompt {
	text := fmt.Sprintf(`Evaluate the user's answer to the question based on the document content.
Provide a score (0-100), feedback, and the correct answer with justification.

Document:
%s

Question: %s
User's Answer: %s

Please evaluate and provide:
1. Score (0-100)
2. Detailed feedback
3. Correct answer based on document
4. Justification with document references`, Truncate(doc, EvaluateBudget), question, userAnswer)

	return Prompt{Task: TaskEvaluate, Text: text, System: evaluateSystem}
}

// RenderHistory formats the last HistoryWindow turns as Q:/A: pairs, oldest
// first, one pair per line group.
func RenderHistory(history []model.Turn) string {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	lines := make([]string, 0, len(history))
	for _, t := range history {
		lines = append(lines, "Q: "+t.Question+"\nA: "+t.Answer)
	}
	return strings.Join(lines, "\n")
}

// Truncate cuts s to at most n characters.
func Truncate(s string, n int) string {
	return highlight.Prefix(s, n)
}
