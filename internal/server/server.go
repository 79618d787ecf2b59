// Package server exposes the assistant over HTTP. Handlers are thin
// adapters: they decode requests, call the service, and map errors to
// status codes.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/research-assistant/internal/assistant"
	"github.com/sells-group/research-assistant/internal/model"
)

// DefaultMaxUploadBytes bounds multipart uploads when Options leaves it unset.
const DefaultMaxUploadBytes = 20 << 20

// Assistant is the service surface used by the handlers.
type Assistant interface {
	Upload(ctx context.Context, in assistant.UploadInput) (*model.UploadResult, error)
	Ask(ctx context.Context, key, question string) (*model.Answer, error)
	Challenge(ctx context.Context, key string) (*model.ChallengeSet, error)
	Evaluate(ctx context.Context, key, question, userAnswer string) (*model.Evaluation, error)
	Sessions(ctx context.Context) ([]model.SessionSummary, error)
}

// Options configures the HTTP surface.
type Options struct {
	// Backends names the active chain, reported by /health.
	Backends []string
	// Metrics is mounted at /metrics when set.
	Metrics        http.Handler
	MaxUploadBytes int64
	CORSOrigins    []string
}

// Server routes HTTP requests to an Assistant.
type Server struct {
	svc  Assistant
	opts Options
}

// New creates a Server.
func New(svc Assistant, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.Backends == nil {
		opts.Backends = []string{}
	}
	return &Server{svc: svc, opts: opts}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger, recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/sessions", s.handleSessions)
	r.Post("/upload", s.handleUpload)
	r.Post("/ask", s.handleAsk)
	r.Post("/challenge", s.handleChallenge)
	r.Post("/evaluate", s.handleEvaluate)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}
	return r
}
