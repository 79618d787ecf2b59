package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Checker refreshes store gauges in the background.
type Checker struct {
	collector     *Collector
	metrics       *Metrics
	interval      time.Duration
	lookbackHours int
}

// NewChecker creates a background gauge refresher. A non-positive interval
// defaults to one minute and a non-positive lookback to 24 hours.
func NewChecker(collector *Collector, metrics *Metrics, interval time.Duration, lookbackHours int) *Checker {
	if interval <= 0 {
		interval = time.Minute
	}
	if lookbackHours <= 0 {
		lookbackHours = 24
	}
	return &Checker{
		collector:     collector,
		metrics:       metrics,
		interval:      interval,
		lookbackHours: lookbackHours,
	}
}

// Run starts the periodic check loop. It blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting session checker",
		zap.Duration("interval", c.interval),
		zap.Int("lookback_hours", c.lookbackHours),
	)

	c.check(ctx, log)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("session checker stopped")
			return
		case <-ticker.C:
			c.check(ctx, log)
		}
	}
}

func (c *Checker) check(ctx context.Context, log *zap.Logger) {
	snap, err := c.collector.Collect(ctx, c.lookbackHours)
	if err != nil {
		log.Error("monitoring: failed to collect metrics", zap.Error(err))
		return
	}
	c.metrics.SetSnapshot(snap)
	log.Debug("monitoring: session snapshot",
		zap.Int("total", snap.TotalSessions),
		zap.Int("recent", snap.RecentSessions),
	)
}
