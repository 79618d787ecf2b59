package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-assistant/internal/store"
)

// Snapshot holds a point-in-time view of the session store.
type Snapshot struct {
	TotalSessions  int       `json:"total_sessions"`
	RecentSessions int       `json:"recent_sessions"`
	LookbackHours  int       `json:"lookback_hours"`
	CollectedAt    time.Time `json:"collected_at"`
}

// Collector gathers metrics from the store.
type Collector struct {
	store store.Store
}

// NewCollector creates a new metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot of the store over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	now := time.Now().UTC()
	snap := &Snapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	sessions, err := c.store.List(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list sessions")
	}

	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)
	snap.TotalSessions = len(sessions)
	for _, s := range sessions {
		if !s.UploadedAt.Before(cutoff) {
			snap.RecentSessions++
		}
	}
	return snap, nil
}
