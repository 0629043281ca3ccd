package store

import (
	"context"
	"time"

	"porg/internal/app/port"
)

// Sweeper periodically applies the store's retention bounds.
type Sweeper struct {
	store             port.Store
	interval          time.Duration
	snapshotRetention time.Duration
	keepPrices        int
	logger            port.Logger
}

// NewSweeper creates a sweeper. Start must be called to run it.
func NewSweeper(store port.Store, interval, snapshotRetention time.Duration, keepPrices int, logger port.Logger) *Sweeper {
	return &Sweeper{
		store:             store,
		interval:          interval,
		snapshotRetention: snapshotRetention,
		keepPrices:        keepPrices,
		logger:            logger,
	}
}

// Start runs the sweep loop until ctx is cancelled. It sweeps once
// immediately and then on every tick.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Retention sweeper started",
		"interval", s.interval.String(),
		"snapshot_retention", s.snapshotRetention.String(),
		"keep_prices", s.keepPrices)

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Retention sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if err := s.store.Sweep(ctx, s.snapshotRetention, s.keepPrices); err != nil {
		s.logger.Error("Retention sweep failed", "error", err)
	}
}
