// Package assistant orchestrates document sessions: intake, question
// answering, and comprehension quizzes over a backend chain.
package assistant

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/research-assistant/internal/backend"
	"github.com/sells-group/research-assistant/internal/extract"
	"github.com/sells-group/research-assistant/internal/highlight"
	"github.com/sells-group/research-assistant/internal/model"
	"github.com/sells-group/research-assistant/internal/parse"
	"github.com/sells-group/research-assistant/internal/prompt"
	"github.com/sells-group/research-assistant/internal/store"
)

// PreviewRunes is the length of the document preview returned on upload.
const PreviewRunes = 1000

// Fallback kinds reported to a FallbackObserver.
const (
	FallbackChallenge = "challenge_parse"
	FallbackScore     = "score_default"
)

// Generator produces text for a prompt. *backend.Chain satisfies it.
type Generator interface {
	Generate(ctx context.Context, req backend.Request) backend.Completion
}

// FallbackObserver is told whenever a degraded result is substituted.
type FallbackObserver interface {
	ObserveFallback(kind string)
}

type nopObserver struct{}

func (nopObserver) ObserveFallback(string) {}

// Service implements the assistant operations on top of a session store.
type Service struct {
	store     store.Store
	gen       Generator
	builder   *prompt.Builder
	extractor extract.Extractor
	keys      KeyGenerator
	observer  FallbackObserver
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithKeyGenerator sets the session key strategy. Default: TimestampKeys.
func WithKeyGenerator(k KeyGenerator) Option {
	return func(s *Service) {
		if k != nil {
			s.keys = k
		}
	}
}

// WithFallbackObserver reports fallback substitutions.
func WithFallbackObserver(o FallbackObserver) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service.
func New(st store.Store, gen Generator, builder *prompt.Builder, ext extract.Extractor, opts ...Option) *Service {
	if builder == nil {
		builder = prompt.NewBuilder(0)
	}
	s := &Service{
		store:     st,
		gen:       gen,
		builder:   builder,
		extractor: ext,
		keys:      TimestampKeys(),
		observer:  nopObserver{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadInput is a document submitted for intake.
type UploadInput struct {
	Filename string
	Data     []byte
	// SessionID, when set, is used verbatim as the session key.
	SessionID string
}

// Upload extracts text, summarizes it, and creates the session. Nothing is
// stored unless both extraction and summarization finish.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*model.UploadResult, error) {
	log := zap.L().With(zap.String("filename", in.Filename))

	if _, err := extract.DetectFormat(in.Filename); err != nil {
		return nil, err
	}
	text, err := s.extractor.ExtractText(ctx, in.Filename, in.Data)
	if err != nil {
		return nil, err
	}

	p := s.builder.Summarize(text)
	c := s.gen.Generate(ctx, backend.Request{Prompt: p.Text, System: p.System})
	summary := parse.Text(c.Text)

	now := s.now().UTC()
	key := in.SessionID
	if key == "" {
		key = s.keys(now)
	}

	sess := model.Session{
		Key:          key,
		DocumentText: text,
		Filename:     in.Filename,
		UploadedAt:   now,
		Summary:      summary,
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, eris.Wrap(err, "assistant: create session")
	}

	log.Info("assistant: document uploaded",
		zap.String("session_id", key),
		zap.Int("chars", len(text)),
		zap.String("backend", c.Backend),
		zap.Bool("fallback", c.Fallback),
	)

	return &model.UploadResult{
		SessionID:  key,
		Summary:    summary,
		Content:    Preview(text),
		Filename:   in.Filename,
		UploadTime: now,
	}, nil
}

// Ask answers a question about a session's document and records the turn.
func (s *Service) Ask(ctx context.Context, key, question string) (*model.Answer, error) {
	sess, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	p := s.builder.Answer(sess.DocumentText, sess.RecentTurns(prompt.HistoryWindow), question)
	c := s.gen.Generate(ctx, backend.Request{Prompt: p.Text, System: p.System})
	answer := parse.Text(c.Text)

	turn := model.Turn{Question: question, Answer: answer, AskedAt: s.now().UTC()}
	if err := s.store.AppendTurn(ctx, key, turn); err != nil {
		return nil, eris.Wrap(err, "assistant: record turn")
	}

	zap.L().Debug("assistant: question answered",
		zap.String("session_id", key),
		zap.String("backend", c.Backend),
	)

	return &model.Answer{
		Answer:          answer,
		Justification:   fmt.Sprintf("Based on the document '%s'", sess.Filename),
		HighlightedText: highlight.Highlight(sess.DocumentText, question),
		Confidence:      model.DefaultConfidence,
	}, nil
}

// Challenge generates three comprehension questions for a session.
func (s *Service) Challenge(ctx context.Context, key string) (*model.ChallengeSet, error) {
	sess, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	p := s.builder.Challenge(sess.DocumentText)
	c := s.gen.Generate(ctx, backend.Request{Prompt: p.Text, System: p.System})

	questions, fellBack := parse.ChallengeOrFallback(c.Text)
	if fellBack {
		s.observer.ObserveFallback(FallbackChallenge)
		zap.L().Warn("assistant: challenge response unparseable, using fallback questions",
			zap.String("session_id", key),
			zap.String("backend", c.Backend),
		)
	}

	return &model.ChallengeSet{Questions: questions, SessionID: key}, nil
}

// Evaluate grades a user's answer to a challenge question.
func (s *Service) Evaluate(ctx context.Context, key, question, userAnswer string) (*model.Evaluation, error) {
	sess, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	p := s.builder.Evaluate(sess.DocumentText, question, userAnswer)
	c := s.gen.Generate(ctx, backend.Request{Prompt: p.Text, System: p.System})
	feedback := parse.Text(c.Text)

	score, defaulted := parse.Score(feedback)
	if defaulted {
		s.observer.ObserveFallback(FallbackScore)
	}

	return &model.Evaluation{
		Score:         score,
		Feedback:      feedback,
		CorrectAnswer: "Based on document analysis",
		Justification: fmt.Sprintf("Evaluated against document '%s'", sess.Filename),
	}, nil
}

// Sessions lists stored sessions, oldest first.
func (s *Service) Sessions(ctx context.Context) ([]model.SessionSummary, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "assistant: list sessions")
	}
	if out == nil {
		out = []model.SessionSummary{}
	}
	return out, nil
}

// Session returns the full session for key.
func (s *Service) Session(ctx context.Context, key string) (*model.Session, error) {
	return s.store.Get(ctx, key)
}

// Preview returns the first PreviewRunes runes of text, with "..." appended
// when text is longer.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= PreviewRunes {
		return text
	}
	return highlight.Prefix(text, PreviewRunes) + "..."
}
