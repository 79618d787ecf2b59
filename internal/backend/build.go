package backend

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/research-assistant/internal/config"
	"github.com/sells-group/research-assistant/internal/resilience"
	"github.com/sells-group/research-assistant/pkg/anthropic"
)

// FromConfig builds the chain described by cfg.Backends.Order. Hosted
// backends whose credential is missing or a placeholder are skipped. The
// rule-based backend always terminates the chain.
func FromConfig(ctx context.Context, cfg *config.Config) (*Chain, error) {
	chain := NewChain(NewRuleBased())
	breaker := resilience.FromBreakerConfig(cfg.Backends.Breaker.FailureThreshold, cfg.Backends.Breaker.ResetTimeoutSecs)

	for _, name := range cfg.Backends.Order {
		opts := []LinkOption{WithBreaker(breaker)}
		if cfg.Backends.RatePerSec > 0 {
			burst := cfg.Backends.Burst
			if burst <= 0 {
				burst = 1
			}
			opts = append(opts, WithLimiter(rate.NewLimiter(rate.Limit(cfg.Backends.RatePerSec), burst)))
		}

		switch name {
		case "anthropic":
			if config.IsPlaceholder(cfg.Anthropic.Key) {
				zap.L().Info("anthropic backend disabled: no api key")
				continue
			}
			client := anthropic.NewClient(cfg.Anthropic.Key, anthropic.WithBaseURL(cfg.Anthropic.BaseURL))
			opts = append(opts, WithTimeout(cfg.Backends.HostedTimeout()))
			chain.Use(NewAnthropic(client, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens), opts...)
		case "gemini":
			if config.IsPlaceholder(cfg.Gemini.Key) {
				zap.L().Info("gemini backend disabled: no api key")
				continue
			}
			g, err := NewGemini(ctx, cfg.Gemini.Key, cfg.Gemini.Model, "")
			if err != nil {
				return nil, err
			}
			opts = append(opts, WithTimeout(cfg.Backends.HostedTimeout()))
			chain.Use(g, opts...)
		case "ollama":
			if cfg.Ollama.BaseURL == "" {
				continue
			}
			o, err := NewOllama(cfg.Ollama.BaseURL, cfg.Ollama.Model, OllamaOptions{
				Temperature: cfg.Ollama.Temperature,
				TopP:        cfg.Ollama.TopP,
				NumPredict:  cfg.Ollama.NumPredict,
			}, nil)
			if err != nil {
				return nil, err
			}
			opts = append(opts, WithTimeout(cfg.Backends.LocalTimeout()))
			chain.Use(o, opts...)
		default:
			zap.L().Warn("unknown backend in chain order", zap.String("backend", name))
		}
	}

	zap.L().Info("backend chain ready", zap.Strings("order", chain.Names()))
	return chain, nil
}
