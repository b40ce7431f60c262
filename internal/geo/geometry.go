// Package geo implements geofence geometry tests and the geofence monitor
// that turns containment transitions into violation events.
package geo

import (
	"math"

	"caremon-go/internal/domain"
)

// earthRadiusMeters is the mean Earth radius used for haversine distance.
const earthRadiusMeters = 6371000

// Contains reports whether the point lies inside the geofence. Circles use
// haversine great-circle distance against the radius (boundary inclusive);
// polygons use a ray-casting test over the ordered vertex list, treated as
// implicitly closed. A polygon with fewer than 3 points contains nothing
// (such fences are rejected at creation).
func Contains(p domain.GeoPoint, g *domain.Geofence) bool {
	switch g.Shape {
	case domain.ShapeCircle:
		if g.Circle == nil {
			return false
		}
		center := domain.GeoPoint{Latitude: g.Circle.CenterLatitude, Longitude: g.Circle.CenterLongitude}
		return DistanceMeters(p, center) <= g.Circle.RadiusMeters
	case domain.ShapePolygon:
		return pointInPolygon(p, g.Polygon)
	default:
		return false
	}
}

// DistanceMeters returns the haversine great-circle distance between two
// WGS84 coordinates in meters.
func DistanceMeters(a, b domain.GeoPoint) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

func toRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// pointInPolygon is a standard ray-casting test: cast a ray east from the
// point and count edge crossings.
func pointInPolygon(p domain.GeoPoint, polygon []domain.GeoPoint) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		pi, pj := polygon[i], polygon[j]
		if (pi.Longitude > p.Longitude) != (pj.Longitude > p.Longitude) {
			cross := (pj.Latitude-pi.Latitude)*(p.Longitude-pi.Longitude)/
				(pj.Longitude-pi.Longitude) + pi.Latitude
			if p.Latitude < cross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// ClassifyTransition decides whether the change from wasInside to isInside
// constitutes a violation. Only a safe-zone exit is a violation; first-ever
// observations (no prior state) must be handled by the caller, which only
// invokes this with a known prior state.
func ClassifyTransition(wasInside, isInside bool, fenceType domain.GeofenceType) (string, bool) {
	if fenceType == domain.GeofenceSafeZone && wasInside && !isInside {
		return domain.ViolationExit, true
	}
	return "", false
}
