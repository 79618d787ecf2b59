package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/rotisserie/eris"
)

// OllamaOptions are the sampling options sent with every request.
type OllamaOptions struct {
	Temperature float64
	TopP        float64
	NumPredict  int
}

// Ollama generates text with a local Ollama server.
type Ollama struct {
	client  *api.Client
	model   string
	options map[string]any
}

// NewOllama creates an Ollama backend for the server at baseURL. A nil
// httpClient uses http.DefaultClient; deadlines come from the request
// context.
func NewOllama(baseURL, model string, opts OllamaOptions, httpClient *http.Client) (*Ollama, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, eris.Wrapf(err, "ollama: parse base url %q", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Ollama{
		client: api.NewClient(u, httpClient),
		model:  model,
		options: map[string]any{
			"temperature": opts.Temperature,
			"top_p":       opts.TopP,
			"num_predict": opts.NumPredict,
		},
	}, nil
}

// Name implements Backend.
func (o *Ollama) Name() string { return "ollama" }

// Generate implements Backend with a single non-streaming request.
func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	stream := false
	greq := &api.GenerateRequest{
		Model:   o.model,
		Prompt:  req.Prompt,
		System:  req.System,
		Stream:  &stream,
		Options: o.options,
	}

	var sb strings.Builder
	err := o.client.Generate(ctx, greq, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		var se api.StatusError
		if errors.As(err, &se) {
			return "", &BackendError{Backend: o.Name(), StatusCode: se.StatusCode, Message: se.ErrorMessage, Err: err}
		}
		return "", eris.Wrap(err, "ollama: generate")
	}
	return sb.String(), nil
}
