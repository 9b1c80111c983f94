// Package reaper removes expired inboxes and, optionally, over-age
// messages in the background. It consumes only the idempotent and
// silent removal operations of the core, so a sweep can never fail a
// batch because an entry raced away.
package reaper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vaultsandbox/gateway-sub005/internal/inbox"
)

// Config tunes the sweep loop.
type Config struct {
	// Interval between sweeps.
	Interval time.Duration
	// MaxEmailAge evicts messages older than this; zero disables
	// message-age eviction.
	MaxEmailAge time.Duration
}

// Reaper periodically deletes expired inboxes via the registry's
// idempotent delete and trims over-age messages via silent eviction.
type Reaper struct {
	reg    *inbox.Registry
	store  *inbox.Store
	cfg    Config
	logger *zap.Logger
}

// New creates a reaper. A nil logger is replaced with a no-op logger.
func New(reg *inbox.Registry, store *inbox.Store, cfg Config, logger *zap.Logger) *Reaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &Reaper{reg: reg, store: store, cfg: cfg, logger: logger}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(time.Now())
		}
	}
}

// Sweep performs one pass and returns the number of inboxes removed.
func (r *Reaper) Sweep(now time.Time) int {
	var expired int
	for _, in := range r.reg.Snapshot() {
		if in.IsExpired(now) {
			if r.reg.Delete(in.EmailAddress) {
				expired++
			}
			continue
		}
		if r.cfg.MaxEmailAge > 0 {
			if n := r.store.EvictOlderThan(in.EmailAddress, now.Add(-r.cfg.MaxEmailAge)); n > 0 {
				r.logger.Info("evicted over-age emails",
					zap.String("address", in.EmailAddress), zap.Int("count", n))
			}
		}
	}

	if expired > 0 {
		r.logger.Info("expired inboxes removed", zap.Int("count", expired))
	}
	return expired
}
