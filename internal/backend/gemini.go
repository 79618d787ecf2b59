package backend

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

// Gemini generates text with the Google Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini backend. baseURL overrides the API host when
// set.
func NewGemini(ctx context.Context, apiKey, model, baseURL string) (*Gemini, error) {
	if apiKey == "" {
		return nil, eris.New("gemini: missing api key")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	cfg := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: new client")
	}
	return &Gemini{client: c, model: model}, nil
}

// Name implements Backend.
func (g *Gemini) Name() string { return "gemini" }

// Generate implements Backend.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	var gcfg *genai.GenerateContentConfig
	if req.System != "" {
		gcfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		}
	}
	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}, gcfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &BackendError{Backend: g.Name(), StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
		}
		var apiErrPtr *genai.APIError
		if errors.As(err, &apiErrPtr) {
			return "", &BackendError{Backend: g.Name(), StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message, Err: err}
		}
		return "", eris.Wrap(err, "gemini: generate")
	}
	return res.Text(), nil
}
