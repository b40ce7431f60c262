package geo

import (
	"testing"

	"caremon-go/internal/domain"
)

func circleFence(lat, lon, radius float64) *domain.Geofence {
	return &domain.Geofence{
		ID:    "gf-circle",
		Type:  domain.GeofenceSafeZone,
		Shape: domain.ShapeCircle,
		Circle: &domain.Circle{
			CenterLatitude:  lat,
			CenterLongitude: lon,
			RadiusMeters:    radius,
		},
	}
}

func TestContains_Circle(t *testing.T) {
	// 100m circle centered at the origin. One degree of longitude at the
	// equator is ~111.32km, so 100m is ~0.000898 degrees.
	fence := circleFence(0, 0, 100)

	tests := []struct {
		name  string
		point domain.GeoPoint
		want  bool
	}{
		{"center", domain.GeoPoint{Latitude: 0, Longitude: 0}, true},
		{"well inside", domain.GeoPoint{Latitude: 0, Longitude: 0.0005}, true},
		{"just inside boundary", domain.GeoPoint{Latitude: 0, Longitude: 0.00089}, true},
		{"just outside boundary", domain.GeoPoint{Latitude: 0, Longitude: 0.00091}, false},
		{"far away", domain.GeoPoint{Latitude: 1, Longitude: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contains(tt.point, fence); got != tt.want {
				t.Errorf("Contains() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContains_CircleBoundaryInclusive(t *testing.T) {
	center := domain.GeoPoint{Latitude: 0, Longitude: 0}
	edge := domain.GeoPoint{Latitude: 0, Longitude: 0.0009}

	// Make the radius exactly the distance to the edge point. The edge
	// point must then be contained, and one meter further must not.
	radius := DistanceMeters(center, edge)
	fence := circleFence(0, 0, radius)

	if !Contains(edge, fence) {
		t.Error("point at exactly the radius should be contained")
	}

	beyond := domain.GeoPoint{Latitude: 0, Longitude: 0.0009 + 1.0/111320}
	if Contains(beyond, fence) {
		t.Error("point one meter beyond the radius should not be contained")
	}
}

func TestContains_Polygon(t *testing.T) {
	fence := &domain.Geofence{
		ID:    "gf-poly",
		Type:  domain.GeofenceSafeZone,
		Shape: domain.ShapePolygon,
		Polygon: []domain.GeoPoint{
			{Latitude: 0, Longitude: 0},
			{Latitude: 0, Longitude: 10},
			{Latitude: 10, Longitude: 10},
			{Latitude: 10, Longitude: 0},
		},
	}

	tests := []struct {
		name  string
		point domain.GeoPoint
		want  bool
	}{
		{"center of square", domain.GeoPoint{Latitude: 5, Longitude: 5}, true},
		{"outside square", domain.GeoPoint{Latitude: 15, Longitude: 15}, false},
		{"outside on one axis", domain.GeoPoint{Latitude: 5, Longitude: 11}, false},
		{"near a corner inside", domain.GeoPoint{Latitude: 0.5, Longitude: 0.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contains(tt.point, fence); got != tt.want {
				t.Errorf("Contains() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContains_DegeneratePolygon(t *testing.T) {
	fence := &domain.Geofence{
		ID:      "gf-degenerate",
		Shape:   domain.ShapePolygon,
		Polygon: []domain.GeoPoint{{Latitude: 0, Longitude: 0}, {Latitude: 1, Longitude: 1}},
	}
	if Contains(domain.GeoPoint{Latitude: 0.5, Longitude: 0.5}, fence) {
		t.Error("polygon with fewer than 3 vertices should contain nothing")
	}
}

func TestDistanceMeters(t *testing.T) {
	// One degree of latitude is roughly 111.19km on the sphere used here.
	a := domain.GeoPoint{Latitude: 0, Longitude: 0}
	b := domain.GeoPoint{Latitude: 1, Longitude: 0}

	d := DistanceMeters(a, b)
	if d < 111000 || d > 111300 {
		t.Errorf("DistanceMeters() = %v, want ~111195", d)
	}

	if got := DistanceMeters(a, a); got != 0 {
		t.Errorf("DistanceMeters() of identical points = %v, want 0", got)
	}
}

func TestClassifyTransition(t *testing.T) {
	tests := []struct {
		name      string
		wasInside bool
		isInside  bool
		fenceType domain.GeofenceType
		wantType  string
		wantOK    bool
	}{
		{"safe zone exit", true, false, domain.GeofenceSafeZone, domain.ViolationExit, true},
		{"safe zone entry", false, true, domain.GeofenceSafeZone, "", false},
		{"safe zone stays inside", true, true, domain.GeofenceSafeZone, "", false},
		{"safe zone stays outside", false, false, domain.GeofenceSafeZone, "", false},
		{"restricted zone exit", true, false, domain.GeofenceRestrictedZone, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotOK := ClassifyTransition(tt.wasInside, tt.isInside, tt.fenceType)
			if gotType != tt.wantType || gotOK != tt.wantOK {
				t.Errorf("ClassifyTransition() = (%q, %v), want (%q, %v)",
					gotType, gotOK, tt.wantType, tt.wantOK)
			}
		})
	}
}
