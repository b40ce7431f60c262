// Package retention prunes aged-out telemetry and location samples on a
// fixed interval.
package retention

import (
	"context"
	"log/slog"
	"time"

	"caremon-go/internal/config"
	"caremon-go/internal/metrics"
	"caremon-go/internal/store"
)

// Sweeper periodically deletes samples older than the configured
// retention windows. Failures are logged and retried on the next tick;
// a missed sweep only delays cleanup.
type Sweeper struct {
	telemetry store.TelemetryRepository
	locations store.LocationRepository
	cfg       *config.RetentionConfig
	logger    *slog.Logger
}

// NewSweeper creates a retention sweeper.
func NewSweeper(telemetry store.TelemetryRepository, locations store.LocationRepository, cfg *config.RetentionConfig, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		telemetry: telemetry,
		locations: locations,
		cfg:       cfg,
		logger:    logger.With("component", "retention-sweeper"),
	}
}

// Run sweeps on the configured interval until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over both sample stores.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now().UTC()

	deleted, err := s.telemetry.DeleteOlderThan(ctx, now.Add(-s.cfg.TelemetryMaxAge))
	if err != nil {
		s.logger.Error("telemetry sweep failed", "error", err)
	} else if deleted > 0 {
		metrics.RetentionSweepDeletedTotal.WithLabelValues("telemetry").Add(float64(deleted))
		s.logger.Info("telemetry sweep complete", "deleted", deleted)
	}

	deleted, err = s.locations.DeleteOlderThan(ctx, now.Add(-s.cfg.LocationMaxAge))
	if err != nil {
		s.logger.Error("location sweep failed", "error", err)
	} else if deleted > 0 {
		metrics.RetentionSweepDeletedTotal.WithLabelValues("location").Add(float64(deleted))
		s.logger.Info("location sweep complete", "deleted", deleted)
	}
}
