// Package metrics provides Prometheus metrics for the care-monitoring
// pipeline. It tracks ingestion, threshold findings, geofence checks,
// event publishing, and realtime broadcast activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "caremon"
)

// Ingestion metrics track the telemetry pipeline.
var (
	// SamplesReceivedTotal counts metric samples received by the ingest API.
	SamplesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_received_total",
			Help:      "Total number of metric samples received by the ingest API",
		},
		[]string{"metric_type"},
	)

	// BatchesPersistedTotal counts telemetry batches written to storage.
	BatchesPersistedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_persisted_total",
			Help:      "Total number of telemetry batches persisted",
		},
		[]string{"result"}, // result: success, failure
	)

	// UnresolvedDevicesTotal counts ingest calls whose device could not
	// be resolved to a ward.
	UnresolvedDevicesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unresolved_devices_total",
			Help:      "Total number of ingest calls with an unresolvable device",
		},
	)

	// IngestLatency measures end-to-end time for one ingest call.
	IngestLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_latency_seconds",
			Help:      "Time to process a single ingest call in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

// Detection metrics track threshold findings and alert creation.
var (
	// FindingsDetectedTotal counts critical findings, labeled by alert type.
	FindingsDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_detected_total",
			Help:      "Total number of critical findings detected",
		},
		[]string{"alert_type", "severity"},
	)

	// AlertsCreatedTotal counts alerts created from findings or violations.
	AlertsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_created_total",
			Help:      "Total number of alerts created",
		},
		[]string{"alert_type", "severity"},
	)

	// AlertRequestsTotal counts alert-creation collaborator calls.
	AlertRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_requests_total",
			Help:      "Total number of alert-creation requests issued",
		},
		[]string{"status"}, // status: success, failure
	)
)

// Geofence metrics track the location monitoring path.
var (
	// GeofenceChecksTotal counts individual point-in-geofence evaluations.
	GeofenceChecksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geofence_checks_total",
			Help:      "Total number of geofence containment checks",
		},
	)

	// GeofenceViolationsTotal counts emitted safe-zone exit violations.
	GeofenceViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geofence_violations_total",
			Help:      "Total number of geofence violations emitted",
		},
		[]string{"geofence_type"},
	)
)

// Event metrics track broker publishing.
var (
	// EventsPublishedTotal counts events published, labeled by routing key.
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of domain events published to the broker",
		},
		[]string{"routing_key"},
	)

	// EventPublishFailuresTotal counts publishes that exhausted retries.
	EventPublishFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Total number of event publishes that failed after retries",
		},
		[]string{"routing_key"},
	)

	// EventPublishLatency measures time to publish one event including retries.
	EventPublishLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_publish_latency_seconds",
			Help:      "Time to publish an event to the broker in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

// Realtime metrics track the broadcast gateway.
var (
	// RealtimeConnections tracks currently connected websocket clients.
	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_connections",
			Help:      "Current number of connected realtime clients",
		},
	)

	// BroadcastDeliveriesTotal counts per-connection message deliveries.
	BroadcastDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_deliveries_total",
			Help:      "Total number of realtime message deliveries",
		},
		[]string{"channel"},
	)

	// BroadcastEvictionsTotal counts connections evicted during broadcast.
	BroadcastEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_evictions_total",
			Help:      "Total number of connections evicted from channels",
		},
	)
)

// Storage metrics track database and cache operations.
var (
	// StorageOperationLatency measures latency of storage operations.
	StorageOperationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_operation_latency_seconds",
			Help:      "Latency of storage operations in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5},
		},
		[]string{"store", "operation"}, // store: postgres, redis
	)

	// RetentionSweepDeletedTotal counts rows removed by the retention sweep.
	RetentionSweepDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_sweep_deleted_total",
			Help:      "Total number of samples removed by the retention sweep",
		},
		[]string{"kind"}, // kind: telemetry, location
	)
)
