// Package backend implements the ordered chain of inference backends that
// turns prompts into text.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrorMarker is the prefix some backends use to report failures in-band.
const ErrorMarker = "Error:"

var (
	// ErrEmptyResponse is returned when a backend produced only whitespace.
	ErrEmptyResponse = eris.New("backend returned empty text")
	// ErrMarkedResponse is returned when a backend reported an in-band error.
	ErrMarkedResponse = eris.New("backend returned an error marker")
)

// Request is a prompt with its system instructions.
type Request struct {
	Prompt string
	System string
}

// Backend generates text for a prompt.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// BackendError is a non-success response from a backend.
type BackendError struct {
	Backend    string
	StatusCode int
	Message    string
	Err        error
}

func (e *BackendError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s: status %d: %s", e.Backend, e.StatusCode, msg)
}

func (e *BackendError) Unwrap() error { return e.Err }

// HTTPStatus returns the response status code.
func (e *BackendError) HTTPStatus() int { return e.StatusCode }

// CheckText validates backend output and returns it trimmed.
func CheckText(text string) (string, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", ErrEmptyResponse
	}
	if strings.HasPrefix(t, ErrorMarker) {
		return "", eris.Wrapf(ErrMarkedResponse, "%.80s", t)
	}
	return t, nil
}
