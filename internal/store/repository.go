package store

import (
	"context"
	"time"

	"caremon-go/internal/domain"
)

// TelemetryRepository defines the interface for persistent metric-sample
// storage. Samples are written append-only in batches; a batch write
// either persists every sample or none.
type TelemetryRepository interface {
	// CreateBatch stores all samples of a batch in a single write.
	CreateBatch(ctx context.Context, batch *domain.TelemetryBatch) error

	// ListByWard retrieves samples for a ward matching the filter.
	ListByWard(ctx context.Context, wardID string, filter TelemetryFilter) ([]*domain.MetricSample, error)

	// Latest retrieves the most recent sample per metric type for a ward.
	Latest(ctx context.Context, wardID string) ([]*domain.MetricSample, error)

	// DeleteOlderThan removes samples observed before the cutoff.
	// Used only by the retention sweep. Returns the number removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// TelemetryFilter provides filtering options for telemetry queries.
type TelemetryFilter struct {
	From       time.Time
	To         time.Time
	MetricType domain.MetricType
	Limit      int
	Offset     int
}

// LocationRepository defines the interface for persistent location-sample
// storage, append-only with the same lifecycle as telemetry.
type LocationRepository interface {
	// Create stores a single location sample.
	Create(ctx context.Context, sample *domain.LocationSample) error

	// Latest retrieves the most recent location for a ward.
	// Returns nil, nil when no location has been recorded.
	Latest(ctx context.Context, wardID string) (*domain.LocationSample, error)

	// History retrieves location samples for a ward in a time range,
	// newest first.
	History(ctx context.Context, wardID string, filter LocationFilter) ([]*domain.LocationSample, error)

	// DeleteOlderThan removes samples observed before the cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// LocationFilter provides filtering options for location history queries.
type LocationFilter struct {
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// GeofenceRepository defines the interface for geofence persistence.
// Geofences are read-mostly from the hot path.
type GeofenceRepository interface {
	// Create stores a new geofence. The definition must already be
	// validated; invalid geofences are never partially persisted.
	Create(ctx context.Context, g *domain.Geofence) error

	// Update modifies an existing geofence.
	Update(ctx context.Context, g *domain.Geofence) error

	// Delete removes a geofence by ID.
	Delete(ctx context.Context, id string) error

	// GetByID retrieves a geofence by its ID.
	GetByID(ctx context.Context, id string) (*domain.Geofence, error)

	// ListByWard retrieves all geofences for a ward.
	ListByWard(ctx context.Context, wardID string) ([]*domain.Geofence, error)

	// ListEnabledByWard retrieves the ward's enabled geofences only.
	// This is the hot-path read used by the geofence monitor.
	ListEnabledByWard(ctx context.Context, wardID string) ([]*domain.Geofence, error)
}

// AlertRepository defines the interface for persistent alert storage.
type AlertRepository interface {
	// Create stores a new alert.
	Create(ctx context.Context, alert *domain.Alert) error

	// Update modifies an existing alert.
	Update(ctx context.Context, alert *domain.Alert) error

	// GetByID retrieves an alert by its ID.
	GetByID(ctx context.Context, id string) (*domain.Alert, error)

	// List retrieves alerts matching the filter criteria.
	List(ctx context.Context, filter domain.AlertFilter) ([]*domain.Alert, error)
}
