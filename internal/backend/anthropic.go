package backend

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-assistant/pkg/anthropic"
)

// Anthropic generates text with the Anthropic Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic creates an Anthropic backend.
func NewAnthropic(client anthropic.Client, model string, maxTokens int64) *Anthropic {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &Anthropic{client: client, model: model, maxTokens: maxTokens}
}

// Name implements Backend.
func (a *Anthropic) Name() string { return "anthropic" }

// Generate implements Backend.
func (a *Anthropic) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    req.System,
		Messages:  []anthropic.Message{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			return "", &BackendError{Backend: a.Name(), StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", eris.Wrap(err, "anthropic: generate")
	}
	resp.Usage.LogCost(a.model, "generate")
	return resp.Text(), nil
}
