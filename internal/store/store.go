// Package store persists document sessions and their conversation history.
package store

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-assistant/internal/model"
)

// ErrNotFound is returned for unknown session keys.
var ErrNotFound = eris.New("session not found")

// Store defines the persistence interface for sessions.
type Store interface {
	// Create stores s under s.Key. An existing session with the same key is
	// replaced and its history discarded.
	Create(ctx context.Context, s model.Session) error
	// Get returns a copy of the session including all turns.
	Get(ctx context.Context, key string) (*model.Session, error)
	// AppendTurn adds a turn to the end of a session's history.
	AppendTurn(ctx context.Context, key string, turn model.Turn) error
	// List returns all sessions ordered by upload time, oldest first.
	List(ctx context.Context) ([]model.SessionSummary, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func notFound(key string) error {
	return eris.Wrapf(ErrNotFound, "session %s", key)
}

func sortSummaries(out []model.SessionSummary) {
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.Before(out[j].UploadedAt)
		}
		return out[i].Key < out[j].Key
	})
}
