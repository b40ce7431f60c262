// Package domain contains the core business entities and value objects for
// the care-monitoring pipeline: vital-sign samples, critical findings,
// alerts, geofences, location samples, and the domain event envelope.
package domain

import (
	"errors"
	"math"
	"time"
)

// MetricType identifies the kind of vital-sign measurement a sample carries.
type MetricType string

const (
	MetricHeartRate    MetricType = "heart_rate"
	MetricSpO2         MetricType = "spo2"
	MetricTemperature  MetricType = "temperature"
	MetricFallDetected MetricType = "fall_detected"
	MetricActivity     MetricType = "activity"
	MetricSteps        MetricType = "steps"
)

// MetricSample is a single measurement reported by a wearable device.
// Samples are immutable once created and persisted append-only; they are
// never updated or deleted outside the retention sweep.
type MetricSample struct {
	// WardID is the monitored person this sample belongs to.
	// Set to WardUnknown when device identity resolution fails.
	WardID string `json:"ward_id"`

	// DeviceID is the reporting device.
	DeviceID string `json:"device_id"`

	// Type is the metric type. Unmapped types are stored but never
	// produce findings.
	Type MetricType `json:"type"`

	// Value is the measured value.
	Value float64 `json:"value"`

	// Unit is an optional unit of measurement (bpm, %, c).
	Unit string `json:"unit,omitempty"`

	// QualityScore is an optional signal-quality estimate in [0,1].
	QualityScore *float64 `json:"quality_score,omitempty"`

	// ObservedAt is when the device took the measurement.
	ObservedAt time.Time `json:"observed_at"`
}

// WardUnknown is the sentinel ward identity used when a device cannot be
// resolved to a monitored person. Telemetry is still persisted under it.
const WardUnknown = "unknown"

// Validation errors for MetricSample.
var (
	ErrEmptyMetricType     = errors.New("metric type is required")
	ErrNonFiniteValue      = errors.New("metric value must be finite")
	ErrInvalidQualityScore = errors.New("quality score must be in [0,1]")
)

// Validate checks the sample for well-formedness. Unknown metric types are
// valid: they are persisted without evaluation.
func (m *MetricSample) Validate() error {
	if m.Type == "" {
		return ErrEmptyMetricType
	}
	if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return ErrNonFiniteValue
	}
	if m.QualityScore != nil && (*m.QualityScore < 0 || *m.QualityScore > 1) {
		return ErrInvalidQualityScore
	}
	return nil
}

// TelemetryBatch is a persisted group of samples from one ingest call.
// All samples share the batch id and are written in a single operation.
type TelemetryBatch struct {
	ID         string         `json:"id"`
	DeviceID   string         `json:"device_id"`
	WardID     string         `json:"ward_id"`
	Samples    []MetricSample `json:"samples"`
	ReceivedAt time.Time      `json:"received_at"`
}
