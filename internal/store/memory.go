package store

import (
	"context"
	"sync"

	"github.com/sells-group/research-assistant/internal/model"
)

// MemoryStore implements Store with an in-process map. Each operation is
// atomic; nothing survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*model.Session)}
}

func (m *MemoryStore) Create(_ context.Context, s model.Session) error {
	s = s.Clone()
	s.Turns = nil

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Key] = &s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[key]
	if !ok {
		return nil, notFound(key)
	}
	out := s.Clone()
	return &out, nil
}

func (m *MemoryStore) AppendTurn(_ context.Context, key string, turn model.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[key]
	if !ok {
		return notFound(key)
	}
	s.Turns = append(s.Turns, turn)
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]model.SessionSummary, error) {
	m.mu.RLock()
	out := make([]model.SessionSummary, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Listing())
	}
	m.mu.RUnlock()

	sortSummaries(out)
	return out, nil
}

func (m *MemoryStore) Migrate(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
