// Package ingest provides the telemetry ingestion service.
// It handles receiving device batches, resolving device identity,
// persisting samples, running threshold evaluation and geofence checks,
// and announcing the batch on the event bus.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"caremon-go/internal/alerting"
	"caremon-go/internal/domain"
	"caremon-go/internal/events"
	"caremon-go/internal/metrics"
	"caremon-go/internal/registry"
	"caremon-go/internal/store"
	"caremon-go/internal/vitals"
)

// GeofenceObserver checks one location observation for geofence
// violations. Implemented by geo.Monitor.
type GeofenceObserver interface {
	Observe(ctx context.Context, wardID string, loc *domain.LocationSample) ([]domain.GeofenceViolation, error)
}

// Service handles telemetry ingestion logic.
// It is responsible for:
// - Resolving the reporting device to a ward
// - Persisting the sample batch atomically
// - Evaluating vital-sign thresholds and raising alerts
// - Forwarding location samples to the geofence monitor
// - Publishing the telemetry.data.received event
type Service struct {
	telemetry store.TelemetryRepository
	locations store.LocationRepository
	devices   registry.DeviceRegistry
	alerts    alerting.Client
	monitor   GeofenceObserver
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService creates a new ingest service.
func NewService(
	telemetry store.TelemetryRepository,
	locations store.LocationRepository,
	devices registry.DeviceRegistry,
	alerts alerting.Client,
	monitor GeofenceObserver,
	publisher events.Publisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		telemetry: telemetry,
		locations: locations,
		devices:   devices,
		alerts:    alerts,
		monitor:   monitor,
		publisher: publisher,
		logger:    logger,
	}
}

// Errors returned by the ingest service.
var (
	ErrEmptyBatch    = errors.New("telemetry batch has no metrics")
	ErrPersistFailed = errors.New("failed to persist telemetry batch")
)

// Batch is one incoming device report: a set of metric samples and an
// optional location fix taken at the same time.
type Batch struct {
	DeviceID string
	Metrics  []domain.MetricSample
	Location *domain.LocationSample
}

// Result summarizes a successfully ingested batch.
type Result struct {
	BatchID      string    `json:"batch_id"`
	DeviceID     string    `json:"device_id"`
	WardID       string    `json:"ward_id"`
	MetricsCount int       `json:"metrics_count"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// Ingest processes one incoming telemetry batch.
//
// The processing flow:
// 1. Resolve the device to a ward, falling back to the unknown ward
// 2. Persist all samples atomically (the only fatal step)
// 3. Evaluate thresholds and raise an alert per critical finding,
//    skipped for unresolved wards
// 4. Forward the location, if any, to the geofence monitor, likewise
//    skipped for unresolved wards
// 5. Publish telemetry.data.received
//
// Steps 3-5 are best-effort: their failures are logged but never fail
// the ingest call once the batch is persisted.
func (s *Service) Ingest(ctx context.Context, batch *Batch) (*Result, error) {
	ingestStart := time.Now()

	if len(batch.Metrics) == 0 {
		return nil, ErrEmptyBatch
	}
	for i := range batch.Metrics {
		if err := batch.Metrics[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid metric at index %d: %w", i, err)
		}
	}
	for i := range batch.Metrics {
		metrics.SamplesReceivedTotal.WithLabelValues(string(batch.Metrics[i].Type)).Inc()
	}

	// Step 1: Resolve device identity
	wardID := s.resolveWard(ctx, batch.DeviceID)

	// Step 2: Persist the batch
	stored := &domain.TelemetryBatch{
		ID:         uuid.NewString(),
		DeviceID:   batch.DeviceID,
		WardID:     wardID,
		Samples:    batch.Metrics,
		ReceivedAt: time.Now().UTC(),
	}
	if err := s.telemetry.CreateBatch(ctx, stored); err != nil {
		metrics.BatchesPersistedTotal.WithLabelValues("failure").Inc()
		s.logger.Error("failed to persist telemetry batch",
			"device_id", batch.DeviceID,
			"error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	metrics.BatchesPersistedTotal.WithLabelValues("success").Inc()

	// Steps 3 and 4 run only for resolved wards. Unresolved batches are
	// stored but not evaluated or located: there is no one to alert, and
	// the persisted samples remain available once the device is linked.
	var findings []domain.CriticalFinding
	var location *domain.LocationSample
	if wardID != domain.WardUnknown {
		// Step 3: Threshold evaluation
		findings = vitals.Evaluate(batch.Metrics)
		for i := range findings {
			s.raiseAlert(ctx, wardID, batch.DeviceID, &findings[i])
		}

		// Step 4: Geofence checks on the attached location
		if batch.Location != nil {
			location = s.forwardLocation(ctx, wardID, batch.Location)
		}
	}

	// Step 5: Announce the batch. Emitted whether or not any finding or
	// violation was produced.
	event := domain.NewEvent(domain.EventTelemetryReceived, wardID, domain.TelemetryReceivedData{
		BatchID:  stored.ID,
		DeviceID: batch.DeviceID,
		Metrics:  batch.Metrics,
		Location: location,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish telemetry.data.received",
			"batch_id", stored.ID,
			"error", err)
	}

	metrics.IngestLatency.Observe(time.Since(ingestStart).Seconds())

	s.logger.Debug("telemetry batch ingested",
		"batch_id", stored.ID,
		"ward_id", wardID,
		"metrics", len(batch.Metrics),
		"findings", len(findings))

	return &Result{
		BatchID:      stored.ID,
		DeviceID:     batch.DeviceID,
		WardID:       wardID,
		MetricsCount: len(batch.Metrics),
		ProcessedAt:  stored.ReceivedAt,
	}, nil
}

// resolveWard maps the device to its ward, degrading to WardUnknown when
// the registry fails or has no assignment.
func (s *Service) resolveWard(ctx context.Context, deviceID string) string {
	wardID, err := s.devices.WardIDForDevice(ctx, deviceID)
	if err != nil {
		if errors.Is(err, registry.ErrDeviceNotAssigned) {
			s.logger.Warn("device has no ward assignment", "device_id", deviceID)
		} else {
			s.logger.Error("device resolution failed", "device_id", deviceID, "error", err)
		}
		metrics.UnresolvedDevicesTotal.Inc()
		return domain.WardUnknown
	}
	return wardID
}

// raiseAlert asks the alert service to create an alert for one finding.
// The returned alert is intentionally discarded: alert delivery is the
// alert service's concern, and its failure must not fail ingestion.
func (s *Service) raiseAlert(ctx context.Context, wardID, deviceID string, finding *domain.CriticalFinding) {
	metrics.FindingsDetectedTotal.WithLabelValues(finding.AlertType, string(finding.Severity)).Inc()

	_, err := s.alerts.CreateImmediateAlert(ctx, alerting.CreateRequest{
		WardID:      wardID,
		AlertType:   finding.AlertType,
		Title:       finding.Title,
		Description: finding.Description,
		Severity:    finding.Severity,
		DataSnapshot: map[string]any{
			"device_id":   deviceID,
			"metric_type": string(finding.MetricType),
			"value":       finding.Value,
		},
	})
	if err != nil {
		metrics.AlertRequestsTotal.WithLabelValues("failure").Inc()
		s.logger.Error("failed to create alert for finding",
			"ward_id", wardID,
			"alert_type", finding.AlertType,
			"error", err)
		return
	}
	metrics.AlertRequestsTotal.WithLabelValues("success").Inc()
}

// forwardLocation persists the location and runs geofence checks.
// Returns the stored sample, or nil when it could not be persisted.
func (s *Service) forwardLocation(ctx context.Context, wardID string, loc *domain.LocationSample) *domain.LocationSample {
	sample := *loc
	sample.WardID = wardID
	if sample.ID == "" {
		sample.ID = uuid.NewString()
	}
	if sample.ObservedAt.IsZero() {
		sample.ObservedAt = time.Now().UTC()
	}

	if err := sample.Validate(); err != nil {
		s.logger.Warn("dropping invalid location sample",
			"ward_id", wardID,
			"error", err)
		return nil
	}

	if err := s.locations.Create(ctx, &sample); err != nil {
		s.logger.Error("failed to persist location sample",
			"ward_id", wardID,
			"error", err)
		return nil
	}

	if _, err := s.monitor.Observe(ctx, wardID, &sample); err != nil {
		s.logger.Error("geofence check failed",
			"ward_id", wardID,
			"error", err)
	}

	return &sample
}
