// Package store defines interfaces for data persistence and state
// management. These abstractions allow swapping implementations (Redis,
// PostgreSQL, in-memory) without changing business logic.
package store

import (
	"context"
)

// Containment is the last-known inside/outside status of a ward relative
// to one geofence. Entries are independent per (ward, geofence) pair and
// may be sharded freely.
type Containment struct {
	// Inside is whether the ward was inside the geofence at the last
	// observation.
	Inside bool `json:"inside"`
}

// ContainmentStore tracks last-known containment per (ward, geofence)
// pair so the monitor can detect transitions rather than instantaneous
// state. Typically backed by Redis in production. All methods must be
// safe for concurrent use.
type ContainmentStore interface {
	// Get retrieves the last-known containment for a pair.
	// Returns nil, nil when the pair has never been observed.
	Get(ctx context.Context, wardID, geofenceID string) (*Containment, error)

	// Set records the containment status for a pair.
	Set(ctx context.Context, wardID, geofenceID string, c *Containment) error

	// Delete removes the entry for a pair. Called when a geofence is
	// deleted so stale state cannot trigger a future transition.
	Delete(ctx context.Context, wardID, geofenceID string) error

	// Close releases any resources held by the store.
	Close() error
}
