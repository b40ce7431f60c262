package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"caremon-go/internal/alerting"
	"caremon-go/internal/domain"
	"caremon-go/internal/events"
	"caremon-go/internal/geo"
	"caremon-go/internal/queue"
	"caremon-go/internal/queue/memory"
	"caremon-go/internal/registry"
	"caremon-go/internal/store"
	storemem "caremon-go/internal/store/memory"
)

// fixture wires an ingest service against in-memory collaborators.
type fixture struct {
	service   *Service
	telemetry *storemem.TelemetryRepository
	locations *storemem.LocationRepository
	geofences *storemem.GeofenceRepository
	alerts    *recordingAlertClient
	queue     *memory.Queue
}

type recordingAlertClient struct {
	mu       sync.Mutex
	requests []alerting.CreateRequest
	err      error
}

func (c *recordingAlertClient) CreateImmediateAlert(ctx context.Context, req alerting.CreateRequest) (*domain.Alert, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.requests = append(c.requests, req)
	return domain.NewAlert("a-test", req.WardID, req.AlertType, req.Title, req.Description, req.Severity, req.DataSnapshot), nil
}

func (c *recordingAlertClient) recorded() []alerting.CreateRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]alerting.CreateRequest(nil), c.requests...)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	q := memory.NewQueue(100)
	telemetry := storemem.NewTelemetryRepository()
	locations := storemem.NewLocationRepository()
	geofences := storemem.NewGeofenceRepository()
	alerts := &recordingAlertClient{}
	publisher := events.NewBrokerPublisher(q, logger)
	monitor := geo.NewMonitor(geofences, storemem.NewContainmentStore(), publisher, logger)
	devices := registry.NewStaticRegistry(map[string]string{"d-1": "w-1"})

	return &fixture{
		service:   NewService(telemetry, locations, devices, alerts, monitor, publisher, logger),
		telemetry: telemetry,
		locations: locations,
		geofences: geofences,
		alerts:    alerts,
		queue:     q,
	}
}

func metric(metricType domain.MetricType, value float64) domain.MetricSample {
	return domain.MetricSample{
		Type:       metricType,
		Value:      value,
		ObservedAt: time.Now().UTC(),
	}
}

func TestService_Ingest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.Ingest(ctx, &Batch{
		DeviceID: "d-1",
		Metrics: []domain.MetricSample{
			metric(domain.MetricHeartRate, 72),
			metric(domain.MetricSpO2, 97),
		},
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if result.WardID != "w-1" {
		t.Errorf("WardID = %v, want w-1", result.WardID)
	}
	if result.MetricsCount != 2 {
		t.Errorf("MetricsCount = %v, want 2", result.MetricsCount)
	}
	if result.BatchID == "" {
		t.Error("BatchID should be set")
	}
	if result.ProcessedAt.IsZero() {
		t.Error("ProcessedAt should be set")
	}

	// Samples were persisted under the resolved ward.
	stored, _ := f.telemetry.ListByWard(ctx, "w-1", storeFilter())
	if len(stored) != 2 {
		t.Errorf("persisted samples = %d, want 2", len(stored))
	}

	// Normal vitals raise no alerts.
	if len(f.alerts.recorded()) != 0 {
		t.Errorf("no alerts expected, got %d", len(f.alerts.recorded()))
	}

	// The batch was announced even with nothing abnormal.
	if f.queue.Len() != 1 {
		t.Errorf("queue should have 1 message, got %d", f.queue.Len())
	}
}

func TestService_Ingest_CriticalFindingRaisesAlert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.Ingest(ctx, &Batch{
		DeviceID: "d-1",
		Metrics:  []domain.MetricSample{metric(domain.MetricSpO2, 80)},
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if result.WardID != "w-1" {
		t.Errorf("WardID = %v, want w-1", result.WardID)
	}

	requests := f.alerts.recorded()
	if len(requests) != 1 {
		t.Fatalf("expected 1 alert request, got %d", len(requests))
	}
	req := requests[0]
	if req.AlertType != "low_oxygen_critical" {
		t.Errorf("AlertType = %v, want low_oxygen_critical", req.AlertType)
	}
	if req.Severity != domain.SeverityCritical {
		t.Errorf("Severity = %v, want critical", req.Severity)
	}
	if req.WardID != "w-1" {
		t.Errorf("alert WardID = %v, want w-1", req.WardID)
	}
	if req.DataSnapshot["device_id"] != "d-1" {
		t.Errorf("snapshot device_id = %v, want d-1", req.DataSnapshot["device_id"])
	}
}

func TestService_Ingest_UnresolvedDeviceFallsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.Ingest(ctx, &Batch{
		DeviceID: "d-unassigned",
		Metrics:  []domain.MetricSample{metric(domain.MetricFallDetected, 1)},
		Location: &domain.LocationSample{Latitude: 1, Longitude: 1, Source: "gps"},
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if result.WardID != domain.WardUnknown {
		t.Errorf("WardID = %v, want %v", result.WardID, domain.WardUnknown)
	}

	// Telemetry is persisted under the unknown ward.
	stored, _ := f.telemetry.ListByWard(ctx, domain.WardUnknown, storeFilter())
	if len(stored) != 1 {
		t.Errorf("persisted samples = %d, want 1", len(stored))
	}

	// Unresolved batches are stored but never evaluated: no one to alert.
	if requests := f.alerts.recorded(); len(requests) != 0 {
		t.Errorf("expected 0 alert requests for an unresolved ward, got %d", len(requests))
	}

	// The location is not forwarded either.
	if loc, _ := f.locations.Latest(ctx, domain.WardUnknown); loc != nil {
		t.Errorf("location was recorded for an unresolved ward: %+v", loc)
	}

	// The batch announcement is still published.
	if f.queue.Len() != 1 {
		t.Errorf("queue should have 1 message, got %d", f.queue.Len())
	}
}

func TestService_Ingest_AlertFailureDoesNotFailIngest(t *testing.T) {
	f := newFixture(t)
	f.alerts.err = errors.New("alert service down")
	ctx := context.Background()

	result, err := f.service.Ingest(ctx, &Batch{
		DeviceID: "d-1",
		Metrics:  []domain.MetricSample{metric(domain.MetricHeartRate, 35)},
	})
	if err != nil {
		t.Fatalf("Ingest() should succeed despite alert failure, got %v", err)
	}
	if result.MetricsCount != 1 {
		t.Errorf("MetricsCount = %v, want 1", result.MetricsCount)
	}

	// The batch event is still published.
	if f.queue.Len() != 1 {
		t.Errorf("queue should have 1 message, got %d", f.queue.Len())
	}
}

func TestService_Ingest_LocationForwardedToGeofenceMonitor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fence := &domain.Geofence{
		ID:      "gf-1",
		WardID:  "w-1",
		Name:    "home",
		Type:    domain.GeofenceSafeZone,
		Shape:   domain.ShapeCircle,
		Circle:  &domain.Circle{CenterLatitude: 0, CenterLongitude: 0, RadiusMeters: 100},
		Enabled: true,
	}
	if err := f.geofences.Create(ctx, fence); err != nil {
		t.Fatal(err)
	}

	// Baseline inside the fence.
	_, err := f.service.Ingest(ctx, &Batch{
		DeviceID: "d-1",
		Metrics:  []domain.MetricSample{metric(domain.MetricHeartRate, 70)},
		Location: &domain.LocationSample{Latitude: 0, Longitude: 0, Source: "gps"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Next report is outside: a violation event joins the batch events.
	_, err = f.service.Ingest(ctx, &Batch{
		DeviceID: "d-1",
		Metrics:  []domain.MetricSample{metric(domain.MetricHeartRate, 71)},
		Location: &domain.LocationSample{Latitude: 1, Longitude: 1, Source: "gps"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Both locations were persisted under the ward.
	latest, _ := f.locations.Latest(ctx, "w-1")
	if latest == nil || latest.Latitude != 1 {
		t.Fatalf("latest location = %+v, want latitude 1", latest)
	}

	// 2 telemetry events + 1 violation event.
	if f.queue.Len() != 3 {
		t.Fatalf("queue should have 3 messages, got %d", f.queue.Len())
	}

	types := consumeRoutingKeys(t, f.queue, 3)
	if types[domain.EventGeofenceViolation] != 1 {
		t.Errorf("violation events = %d, want 1", types[domain.EventGeofenceViolation])
	}
	if types[domain.EventTelemetryReceived] != 2 {
		t.Errorf("telemetry events = %d, want 2", types[domain.EventTelemetryReceived])
	}
}

func TestService_Ingest_EmptyBatchRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Ingest(context.Background(), &Batch{DeviceID: "d-1"})
	if !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestService_Ingest_InvalidMetricRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Ingest(context.Background(), &Batch{
		DeviceID: "d-1",
		Metrics:  []domain.MetricSample{{Value: 80, ObservedAt: time.Now()}},
	})
	if !errors.Is(err, domain.ErrEmptyMetricType) {
		t.Errorf("expected ErrEmptyMetricType, got %v", err)
	}
}

func TestService_Ingest_EventPayload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.Ingest(ctx, &Batch{
		DeviceID: "d-1",
		Metrics:  []domain.MetricSample{metric(domain.MetricTemperature, 36.8)},
	})
	if err != nil {
		t.Fatal(err)
	}

	consumeCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var received domain.Event
	_ = f.queue.Start(consumeCtx, func(ctx context.Context, msg *queue.Message) error {
		_ = json.Unmarshal(msg.Value, &received)
		return nil
	})

	if received.EventType != domain.EventTelemetryReceived {
		t.Errorf("EventType = %v, want %v", received.EventType, domain.EventTelemetryReceived)
	}
	if received.WardID != "w-1" {
		t.Errorf("WardID = %v, want w-1", received.WardID)
	}
	if received.Version != "1.0" {
		t.Errorf("Version = %v, want 1.0", received.Version)
	}

	data, _ := json.Marshal(received.Data)
	var payload domain.TelemetryReceivedData
	_ = json.Unmarshal(data, &payload)
	if payload.BatchID != result.BatchID {
		t.Errorf("payload BatchID = %v, want %v", payload.BatchID, result.BatchID)
	}
	if payload.DeviceID != "d-1" {
		t.Errorf("payload DeviceID = %v, want d-1", payload.DeviceID)
	}
}

// storeFilter returns an unconstrained telemetry filter.
func storeFilter() store.TelemetryFilter { return store.TelemetryFilter{} }

// consumeRoutingKeys drains n messages and counts them by routing key.
func consumeRoutingKeys(t *testing.T, q *memory.Queue, n int) map[string]int {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	counts := make(map[string]int)
	seen := 0
	_ = q.Start(ctx, func(ctx context.Context, msg *queue.Message) error {
		counts[msg.RoutingKey()]++
		seen++
		if seen == n {
			cancel()
		}
		return nil
	})

	return counts
}
