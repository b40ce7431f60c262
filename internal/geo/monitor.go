package geo

import (
	"context"
	"log/slog"

	"caremon-go/internal/domain"
	"caremon-go/internal/events"
	"caremon-go/internal/metrics"
	"caremon-go/internal/store"
)

// Monitor evaluates location observations against a ward's enabled
// geofences and emits violation events on containment transitions. It is
// stateless itself; last-known containment lives in the ContainmentStore
// so multiple instances can share it.
type Monitor struct {
	geofences   store.GeofenceRepository
	containment store.ContainmentStore
	publisher   events.Publisher
	logger      *slog.Logger
}

// NewMonitor creates a geofence monitor.
func NewMonitor(geofences store.GeofenceRepository, containment store.ContainmentStore, publisher events.Publisher, logger *slog.Logger) *Monitor {
	return &Monitor{
		geofences:   geofences,
		containment: containment,
		publisher:   publisher,
		logger:      logger.With("component", "geofence-monitor"),
	}
}

// Observe checks one location sample against the ward's enabled geofences,
// records the new containment state, and publishes a violation event for
// each detected safe-zone exit. A ward with no enabled geofences yields no
// violations. Storage outages degrade to an empty result rather than an
// error so location ingestion is never blocked by geofence checks.
func (m *Monitor) Observe(ctx context.Context, wardID string, loc *domain.LocationSample) ([]domain.GeofenceViolation, error) {
	fences, err := m.geofences.ListEnabledByWard(ctx, wardID)
	if err != nil {
		m.logger.Error("failed to load geofences, skipping checks",
			"ward_id", wardID,
			"error", err)
		return nil, nil
	}
	if len(fences) == 0 {
		return nil, nil
	}

	point := domain.GeoPoint{Latitude: loc.Latitude, Longitude: loc.Longitude}

	var violations []domain.GeofenceViolation
	for _, fence := range fences {
		isInside := Contains(point, fence)
		metrics.GeofenceChecksTotal.Inc()

		prev, err := m.containment.Get(ctx, wardID, fence.ID)
		if err != nil {
			m.logger.Error("failed to read containment state",
				"ward_id", wardID,
				"geofence_id", fence.ID,
				"error", err)
			continue
		}

		if err := m.containment.Set(ctx, wardID, fence.ID, &store.Containment{Inside: isInside}); err != nil {
			m.logger.Error("failed to record containment state",
				"ward_id", wardID,
				"geofence_id", fence.ID,
				"error", err)
		}

		// First observation establishes a baseline, never a violation.
		if prev == nil {
			continue
		}

		violationType, ok := ClassifyTransition(prev.Inside, isInside, fence.Type)
		if !ok {
			continue
		}

		violation := domain.GeofenceViolation{
			WardID:        wardID,
			GeofenceID:    fence.ID,
			GeofenceType:  fence.Type,
			Location:      point,
			ViolationType: violationType,
		}
		violations = append(violations, violation)
		metrics.GeofenceViolationsTotal.WithLabelValues(string(fence.Type)).Inc()

		m.logger.Warn("geofence violation detected",
			"ward_id", wardID,
			"geofence_id", fence.ID,
			"geofence_name", fence.Name,
			"violation_type", violationType)

		event := domain.NewEvent(domain.EventGeofenceViolation, wardID, violation)
		if err := m.publisher.Publish(ctx, event); err != nil {
			m.logger.Error("failed to publish violation event",
				"ward_id", wardID,
				"geofence_id", fence.ID,
				"error", err)
		}
	}

	return violations, nil
}
