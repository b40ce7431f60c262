package domain

import (
	"math"
	"testing"
)

func TestGeofence_Validate(t *testing.T) {
	validCircle := &Circle{CenterLatitude: 55.75, CenterLongitude: 37.61, RadiusMeters: 100}
	square := []GeoPoint{{0, 0}, {0, 10}, {10, 10}, {10, 0}}

	tests := []struct {
		name    string
		fence   Geofence
		wantErr error
	}{
		{
			name:    "valid circle",
			fence:   Geofence{WardID: "w1", Name: "home", Type: GeofenceSafeZone, Shape: ShapeCircle, Circle: validCircle},
			wantErr: nil,
		},
		{
			name:    "valid polygon",
			fence:   Geofence{WardID: "w1", Name: "yard", Type: GeofenceRestrictedZone, Shape: ShapePolygon, Polygon: square},
			wantErr: nil,
		},
		{
			name:    "missing ward",
			fence:   Geofence{Name: "home", Type: GeofenceSafeZone, Shape: ShapeCircle, Circle: validCircle},
			wantErr: ErrEmptyGeofenceWard,
		},
		{
			name:    "missing name",
			fence:   Geofence{WardID: "w1", Type: GeofenceSafeZone, Shape: ShapeCircle, Circle: validCircle},
			wantErr: ErrEmptyGeofenceName,
		},
		{
			name:    "bad type",
			fence:   Geofence{WardID: "w1", Name: "home", Type: "danger_zone", Shape: ShapeCircle, Circle: validCircle},
			wantErr: ErrInvalidGeofenceType,
		},
		{
			name:    "bad shape",
			fence:   Geofence{WardID: "w1", Name: "home", Type: GeofenceSafeZone, Shape: "ellipse"},
			wantErr: ErrInvalidGeofenceShape,
		},
		{
			name:    "circle missing geometry",
			fence:   Geofence{WardID: "w1", Name: "home", Type: GeofenceSafeZone, Shape: ShapeCircle},
			wantErr: ErrMissingCircle,
		},
		{
			name: "circle zero radius",
			fence: Geofence{WardID: "w1", Name: "home", Type: GeofenceSafeZone, Shape: ShapeCircle,
				Circle: &Circle{CenterLatitude: 1, CenterLongitude: 1, RadiusMeters: 0}},
			wantErr: ErrInvalidCircle,
		},
		{
			name: "circle NaN center",
			fence: Geofence{WardID: "w1", Name: "home", Type: GeofenceSafeZone, Shape: ShapeCircle,
				Circle: &Circle{CenterLatitude: math.NaN(), CenterLongitude: 1, RadiusMeters: 10}},
			wantErr: ErrInvalidCircle,
		},
		{
			name: "polygon two points",
			fence: Geofence{WardID: "w1", Name: "yard", Type: GeofenceSafeZone, Shape: ShapePolygon,
				Polygon: []GeoPoint{{0, 0}, {1, 1}}},
			wantErr: ErrPolygonTooSmall,
		},
		{
			name: "polygon infinite vertex",
			fence: Geofence{WardID: "w1", Name: "yard", Type: GeofenceSafeZone, Shape: ShapePolygon,
				Polygon: []GeoPoint{{0, 0}, {0, 1}, {math.Inf(1), 1}}},
			wantErr: ErrInvalidPolygonPoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fence.Validate()
			if err != tt.wantErr {
				t.Errorf("Geofence.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
