package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Refresher periodically refreshes the registry through its public entry
// point. It shares the registry's TTL throttle, so a tick landing just
// after a forced foreground refresh is a no-op.
type Refresher struct {
	registry *Registry
	interval time.Duration
	logger   *zap.Logger
}

// NewRefresher builds a background refresher. A non-positive interval
// falls back to the registry default.
func NewRefresher(registry *Registry, interval time.Duration, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultDiscoveryInterval
	}
	return &Refresher{registry: registry, interval: interval, logger: logger.Named("refresher")}
}

// Run blocks until ctx is cancelled, refreshing on each tick. Refresh
// errors are logged and the loop continues; the registry keeps serving the
// previous snapshot.
func (f *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := f.registry.Refresh(ctx, false); err != nil {
				f.logger.Warn("background refresh failed", zap.Error(err))
			}
		case <-ctx.Done():
			f.logger.Info("background refresher stopped")
			return
		}
	}
}
