package domain

import (
	"errors"
	"time"
)

// LocationSample is a single resolved coordinate for a ward. Samples are
// immutable and append-only, with the same lifecycle as metric samples.
type LocationSample struct {
	ID        string  `json:"id"`
	WardID    string  `json:"ward_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Accuracy is the reported accuracy in meters, if available.
	Accuracy *float64 `json:"accuracy,omitempty"`

	// Source identifies how the coordinate was obtained (gps, wifi, ...).
	Source string `json:"source"`

	ObservedAt time.Time `json:"observed_at"`
}

// Validation errors for LocationSample.
var (
	ErrEmptyLocationWard   = errors.New("ward_id is required")
	ErrInvalidCoordinates  = errors.New("latitude and longitude must be finite")
	ErrEmptyLocationSource = errors.New("source is required")
)

// Validate checks the location sample for well-formedness.
func (l *LocationSample) Validate() error {
	if l.WardID == "" {
		return ErrEmptyLocationWard
	}
	if !finite(l.Latitude) || !finite(l.Longitude) {
		return ErrInvalidCoordinates
	}
	if l.Source == "" {
		return ErrEmptyLocationSource
	}
	return nil
}

// GeofenceViolation is the derived record of a ward leaving a safe zone.
// It is emitted once per detected transition and carried as the payload of
// a location.geofence.violation event; it is not persisted as its own
// entity.
type GeofenceViolation struct {
	WardID        string       `json:"ward_id"`
	GeofenceID    string       `json:"geofence_id"`
	GeofenceType  GeofenceType `json:"geofence_type"`
	Location      GeoPoint     `json:"location"`
	ViolationType string       `json:"violation_type"`
}

// Violation types. Only exits are produced for safe zones; entry is
// reserved for future restricted-zone handling.
const (
	ViolationExit  = "exit"
	ViolationEntry = "entry"
)
