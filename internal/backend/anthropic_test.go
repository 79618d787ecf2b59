package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-assistant/pkg/anthropic"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func TestAnthropic_Generate(t *testing.T) {
	client := &MockClient{}
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-haiku-4-5-20251001" &&
			req.MaxTokens == 2048 &&
			req.System == "Be accurate." &&
			len(req.Messages) == 1 &&
			req.Messages[0].Role == "user" &&
			req.Messages[0].Content == "Summarize"
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "Short summary."}},
		Usage:   anthropic.TokenUsage{InputTokens: 10, OutputTokens: 3},
	}, nil)

	a := NewAnthropic(client, "claude-haiku-4-5-20251001", 0)
	text, err := a.Generate(context.Background(), Request{Prompt: "Summarize", System: "Be accurate."})
	require.NoError(t, err)
	assert.Equal(t, "Short summary.", text)
	client.AssertExpectations(t)
}

func TestAnthropic_APIError(t *testing.T) {
	client := &MockClient{}
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, &anthropic.APIError{StatusCode: 529, Err: errors.New("overloaded")})

	_, err := NewAnthropic(client, "m", 16).Generate(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)

	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 529, be.HTTPStatus())
	assert.Equal(t, "anthropic", be.Backend)
}

func TestAnthropic_TransportError(t *testing.T) {
	client := &MockClient{}
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, errors.New("dial tcp: connection refused"))

	_, err := NewAnthropic(client, "m", 16).Generate(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: generate")
}
