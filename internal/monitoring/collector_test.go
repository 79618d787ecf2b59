package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-assistant/internal/model"
	"github.com/sells-group/research-assistant/internal/store"
)

type failingStore struct {
	store.Store
}

func (failingStore) List(context.Context) ([]model.SessionSummary, error) {
	return nil, assert.AnError
}

func seedStore(t *testing.T) store.Store {
	t.Helper()
	st := store.NewMemory()
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, st.Create(ctx, model.Session{Key: "old", Filename: "a.txt", UploadedAt: now.Add(-72 * time.Hour)}))
	require.NoError(t, st.Create(ctx, model.Session{Key: "new1", Filename: "b.txt", UploadedAt: now.Add(-time.Hour)}))
	require.NoError(t, st.Create(ctx, model.Session{Key: "new2", Filename: "c.pdf", UploadedAt: now}))
	return st
}

func TestCollector_Collect(t *testing.T) {
	c := NewCollector(seedStore(t))

	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.TotalSessions)
	assert.Equal(t, 2, snap.RecentSessions)
	assert.Equal(t, 24, snap.LookbackHours)
	assert.False(t, snap.CollectedAt.IsZero())
}

func TestCollector_EmptyStore(t *testing.T) {
	c := NewCollector(store.NewMemory())

	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)
	assert.Zero(t, snap.TotalSessions)
	assert.Zero(t, snap.RecentSessions)
}

func TestCollector_ListError(t *testing.T) {
	c := NewCollector(failingStore{})

	_, err := c.Collect(context.Background(), 24)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list sessions")
}
