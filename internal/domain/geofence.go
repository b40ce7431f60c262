package domain

import (
	"errors"
	"math"
	"time"
)

// ErrGeofenceNotFound is returned when a geofence cannot be found.
var ErrGeofenceNotFound = errors.New("geofence not found")

// GeofenceType distinguishes zones the ward should stay inside from zones
// the ward should stay out of.
type GeofenceType string

const (
	GeofenceSafeZone       GeofenceType = "safe_zone"
	GeofenceRestrictedZone GeofenceType = "restricted_zone"
)

// IsValid returns true if the geofence type is a known valid value.
func (t GeofenceType) IsValid() bool {
	return t == GeofenceSafeZone || t == GeofenceRestrictedZone
}

// GeofenceShape identifies the geometry of a geofence.
type GeofenceShape string

const (
	ShapeCircle  GeofenceShape = "circle"
	ShapePolygon GeofenceShape = "polygon"
)

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Circle is a circular geofence geometry.
type Circle struct {
	CenterLatitude  float64 `json:"center_latitude"`
	CenterLongitude float64 `json:"center_longitude"`
	RadiusMeters    float64 `json:"radius_meters"`
}

// Geofence is a named spatial region associated with a ward, used to
// detect unsafe departures. Invalid definitions are rejected at creation
// and never partially persisted.
type Geofence struct {
	ID      string        `json:"id"`
	WardID  string        `json:"ward_id"`
	Name    string        `json:"name"`
	Type    GeofenceType  `json:"type"`
	Shape   GeofenceShape `json:"shape"`
	Circle  *Circle       `json:"circle,omitempty"`
	Polygon []GeoPoint    `json:"polygon,omitempty"`
	Enabled bool          `json:"enabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validation errors for Geofence.
var (
	ErrEmptyGeofenceWard    = errors.New("ward_id is required")
	ErrEmptyGeofenceName    = errors.New("name is required")
	ErrInvalidGeofenceType  = errors.New("type must be 'safe_zone' or 'restricted_zone'")
	ErrInvalidGeofenceShape = errors.New("shape must be 'circle' or 'polygon'")
	ErrMissingCircle        = errors.New("circle geometry is required for shape 'circle'")
	ErrInvalidCircle        = errors.New("circle center must be finite and radius_meters > 0")
	ErrPolygonTooSmall      = errors.New("polygon requires at least 3 points")
	ErrInvalidPolygonPoint  = errors.New("polygon points must be finite coordinates")
)

// Validate checks the geofence definition. A circle must have finite
// center coordinates and a positive radius; a polygon must have at least
// three finite vertices.
func (g *Geofence) Validate() error {
	if g.WardID == "" {
		return ErrEmptyGeofenceWard
	}
	if g.Name == "" {
		return ErrEmptyGeofenceName
	}
	if !g.Type.IsValid() {
		return ErrInvalidGeofenceType
	}
	switch g.Shape {
	case ShapeCircle:
		if g.Circle == nil {
			return ErrMissingCircle
		}
		if !finite(g.Circle.CenterLatitude) || !finite(g.Circle.CenterLongitude) ||
			!finite(g.Circle.RadiusMeters) || g.Circle.RadiusMeters <= 0 {
			return ErrInvalidCircle
		}
	case ShapePolygon:
		if len(g.Polygon) < 3 {
			return ErrPolygonTooSmall
		}
		for _, p := range g.Polygon {
			if !finite(p.Latitude) || !finite(p.Longitude) {
				return ErrInvalidPolygonPoint
			}
		}
	default:
		return ErrInvalidGeofenceShape
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
