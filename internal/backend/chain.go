package backend

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/research-assistant/internal/resilience"
)

// DefaultTimeout bounds a backend call when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Outcome labels the result of one backend attempt.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeError       Outcome = "error"
	OutcomeTimeout     Outcome = "timeout"
	OutcomeCircuitOpen Outcome = "circuit_open"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeInvalid     Outcome = "invalid_response"
	OutcomeCanceled    Outcome = "canceled"
)

// Observer receives one call per backend attempt.
type Observer interface {
	ObserveAttempt(backend string, outcome Outcome, elapsed time.Duration)
}

// Completion is the result of a chain call.
type Completion struct {
	Text    string
	Backend string
	// Fallback is true when every network backend failed and the text came
	// from the last resort backend.
	Fallback bool
}

type link struct {
	backend Backend
	timeout time.Duration
	breaker *resilience.Breaker
	limiter *rate.Limiter
}

// LinkOption configures a backend in the chain.
type LinkOption func(*link)

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) LinkOption {
	return func(l *link) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithBreaker sets the circuit breaker configuration.
func WithBreaker(cfg resilience.BreakerConfig) LinkOption {
	return func(l *link) {
		l.breaker = resilience.NewBreaker(l.backend.Name(), cfg)
	}
}

// WithLimiter admits calls through a token bucket. Calls that cannot be
// admitted before the deadline count as failures.
func WithLimiter(lim *rate.Limiter) LinkOption {
	return func(l *link) { l.limiter = lim }
}

// Chain tries backends in order and falls back to a final backend that is
// not expected to fail.
type Chain struct {
	links    []*link
	fallback Backend
	observer Observer
}

// NewChain creates a chain whose last resort is fallback.
func NewChain(fallback Backend) *Chain {
	return &Chain{fallback: fallback}
}

// Use appends a backend to the chain.
func (c *Chain) Use(b Backend, opts ...LinkOption) *Chain {
	l := &link{backend: b, timeout: DefaultTimeout}
	for _, o := range opts {
		o(l)
	}
	if l.breaker == nil {
		l.breaker = resilience.NewBreaker(b.Name(), resilience.DefaultBreakerConfig())
	}
	c.links = append(c.links, l)
	return c
}

// WithObserver sets the attempt observer.
func (c *Chain) WithObserver(o Observer) *Chain {
	c.observer = o
	return c
}

// Names returns backend names in the order they are tried.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.links)+1)
	for _, l := range c.links {
		names = append(names, l.backend.Name())
	}
	return append(names, c.fallback.Name())
}

// Generate returns the first acceptable text produced by the chain. It never
// fails: when all backends fail the fallback's answer is returned.
func (c *Chain) Generate(ctx context.Context, req Request) Completion {
	for _, l := range c.links {
		text, err := c.attempt(ctx, l, req)
		if err == nil {
			return Completion{Text: text, Backend: l.backend.Name()}
		}
		zap.L().Warn("backend attempt failed",
			zap.String("backend", l.backend.Name()),
			zap.String("kind", string(resilience.Classify(err))),
			zap.Error(err),
		)
	}

	start := time.Now()
	text, err := c.fallback.Generate(ctx, req)
	if err != nil {
		zap.L().Error("fallback backend failed", zap.String("backend", c.fallback.Name()), zap.Error(err))
		text = unavailableMessage
	}
	c.observe(c.fallback.Name(), OutcomeSuccess, time.Since(start))
	return Completion{Text: text, Backend: c.fallback.Name(), Fallback: true}
}

func (c *Chain) attempt(ctx context.Context, l *link, req Request) (string, error) {
	name := l.backend.Name()
	if err := l.breaker.Allow(); err != nil {
		c.observe(name, OutcomeCircuitOpen, 0)
		return "", err
	}

	actx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	start := time.Now()
	if l.limiter != nil {
		if err := l.limiter.Wait(actx); err != nil {
			l.breaker.Release()
			if ctx.Err() != nil {
				c.observe(name, OutcomeCanceled, time.Since(start))
				return "", eris.Wrapf(err, "backend %s: canceled", name)
			}
			c.observe(name, OutcomeRateLimited, time.Since(start))
			return "", eris.Wrapf(err, "backend %s: rate limited", name)
		}
	}

	raw, err := l.backend.Generate(actx, req)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			l.breaker.Release()
			c.observe(name, OutcomeCanceled, elapsed)
			return "", eris.Wrapf(err, "backend %s: canceled", name)
		}
		l.breaker.Record(err)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(actx.Err(), context.DeadlineExceeded) {
			c.observe(name, OutcomeTimeout, elapsed)
			return "", eris.Wrapf(context.DeadlineExceeded, "backend %s: %v", name, err)
		}
		c.observe(name, OutcomeError, elapsed)
		return "", err
	}

	text, err := CheckText(raw)
	l.breaker.Record(err)
	if err != nil {
		c.observe(name, OutcomeInvalid, elapsed)
		return "", eris.Wrapf(err, "backend %s", name)
	}

	c.observe(name, OutcomeSuccess, elapsed)
	zap.L().Debug("backend attempt succeeded",
		zap.String("backend", name),
		zap.Duration("elapsed", elapsed),
	)
	return text, nil
}

func (c *Chain) observe(name string, outcome Outcome, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveAttempt(name, outcome, elapsed)
	}
}
