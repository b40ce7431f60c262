package domain

import (
	"math"
	"testing"
)

func TestNewEvent(t *testing.T) {
	e := NewEvent(EventTelemetryReceived, "w-1", TelemetryReceivedData{BatchID: "b-1"})

	if e.EventID == "" {
		t.Error("EventID should be set")
	}
	if e.CorrelationID == "" {
		t.Error("CorrelationID should be set")
	}
	if e.EventType != EventTelemetryReceived {
		t.Errorf("EventType = %v, want %v", e.EventType, EventTelemetryReceived)
	}
	if e.Source != EventSource {
		t.Errorf("Source = %v, want %v", e.Source, EventSource)
	}
	if e.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
	if e.Version != "1.0" {
		t.Errorf("Version = %v, want 1.0", e.Version)
	}

	// Event ids must be unique per emission for consumer dedup.
	e2 := NewEvent(EventTelemetryReceived, "w-1", nil)
	if e.EventID == e2.EventID {
		t.Error("consecutive events should have distinct EventIDs")
	}
}

func TestMetricSample_Validate(t *testing.T) {
	q := 0.9
	badQ := 1.5

	tests := []struct {
		name    string
		sample  MetricSample
		wantErr error
	}{
		{
			name:    "valid",
			sample:  MetricSample{Type: MetricHeartRate, Value: 72, QualityScore: &q},
			wantErr: nil,
		},
		{
			name:    "unknown type still valid",
			sample:  MetricSample{Type: "skin_conductance", Value: 0.3},
			wantErr: nil,
		},
		{
			name:    "missing type",
			sample:  MetricSample{Value: 72},
			wantErr: ErrEmptyMetricType,
		},
		{
			name:    "NaN value",
			sample:  MetricSample{Type: MetricSpO2, Value: math.NaN()},
			wantErr: ErrNonFiniteValue,
		},
		{
			name:    "infinite value",
			sample:  MetricSample{Type: MetricSpO2, Value: math.Inf(-1)},
			wantErr: ErrNonFiniteValue,
		},
		{
			name:    "quality score out of range",
			sample:  MetricSample{Type: MetricSpO2, Value: 95, QualityScore: &badQ},
			wantErr: ErrInvalidQualityScore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sample.Validate()
			if err != tt.wantErr {
				t.Errorf("MetricSample.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLocationSample_Validate(t *testing.T) {
	tests := []struct {
		name    string
		sample  LocationSample
		wantErr error
	}{
		{
			name:    "valid",
			sample:  LocationSample{WardID: "w-1", Latitude: 55.75, Longitude: 37.61, Source: "gps"},
			wantErr: nil,
		},
		{
			name:    "missing ward",
			sample:  LocationSample{Latitude: 55.75, Longitude: 37.61, Source: "gps"},
			wantErr: ErrEmptyLocationWard,
		},
		{
			name:    "NaN latitude",
			sample:  LocationSample{WardID: "w-1", Latitude: math.NaN(), Longitude: 37.61, Source: "gps"},
			wantErr: ErrInvalidCoordinates,
		},
		{
			name:    "missing source",
			sample:  LocationSample{WardID: "w-1", Latitude: 55.75, Longitude: 37.61},
			wantErr: ErrEmptyLocationSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sample.Validate()
			if err != tt.wantErr {
				t.Errorf("LocationSample.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
