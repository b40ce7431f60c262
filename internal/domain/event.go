package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event types emitted on the care-monitoring.events topic. The event type
// doubles as the broker routing key.
const (
	EventTelemetryReceived = "telemetry.data.received"
	EventGeofenceViolation = "location.geofence.violation"
	EventAlertCreated      = "alert.created"
)

// EventSource identifies this service in emitted events.
const EventSource = "caremon-go"

// eventVersion is the envelope schema version.
const eventVersion = "1.0"

// Event is the uniform envelope for all cross-service event emission.
// EventID is unique per emission so consumers can deduplicate redeliveries.
type Event struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	Timestamp     time.Time `json:"timestamp"`
	Version       string    `json:"version"`
	CorrelationID string    `json:"correlation_id"`
	Source        string    `json:"source"`

	// WardID is the best-known subject identity, possibly WardUnknown.
	WardID string `json:"ward_id,omitempty"`

	// Data is the event-type-specific payload.
	Data any `json:"data,omitempty"`
}

// NewEvent creates an event envelope with fresh identifiers.
func NewEvent(eventType, wardID string, data any) *Event {
	return &Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Timestamp:     time.Now().UTC(),
		Version:       eventVersion,
		CorrelationID: uuid.NewString(),
		Source:        EventSource,
		WardID:        wardID,
		Data:          data,
	}
}

// TelemetryReceivedData is the payload of a telemetry.data.received event.
type TelemetryReceivedData struct {
	BatchID  string          `json:"batch_id"`
	DeviceID string          `json:"device_id"`
	Metrics  []MetricSample  `json:"metrics"`
	Location *LocationSample `json:"location,omitempty"`
}

// AlertCreatedData is the payload of an alert.created event.
type AlertCreatedData struct {
	AlertID      string         `json:"alert_id"`
	AlertType    string         `json:"alert_type"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	Severity     Severity       `json:"severity"`
	Status       AlertStatus    `json:"status"`
	DataSnapshot map[string]any `json:"data_snapshot,omitempty"`
	TriggeredAt  time.Time      `json:"triggered_at"`
}
