package domain

import (
	"errors"
	"time"
)

// ErrAlertNotFound is returned when an alert cannot be found.
var ErrAlertNotFound = errors.New("alert not found")

// ErrInvalidAlertTransition is returned when a status transition is not
// allowed from the alert's current status.
var ErrInvalidAlertTransition = errors.New("invalid alert status transition")

// AlertStatus represents the current state of an alert.
type AlertStatus string

const (
	// AlertStatusActive indicates the alert condition is live and unhandled.
	AlertStatusActive AlertStatus = "active"
	// AlertStatusAcknowledged indicates a caregiver has seen the alert.
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	// AlertStatusResolved indicates the alert has been handled.
	AlertStatusResolved AlertStatus = "resolved"
	// AlertStatusFalsePositive indicates the alert was judged spurious.
	AlertStatusFalsePositive AlertStatus = "false_positive"
)

// IsValid returns true if the status is a known valid value.
func (s AlertStatus) IsValid() bool {
	switch s {
	case AlertStatusActive, AlertStatusAcknowledged, AlertStatusResolved, AlertStatusFalsePositive:
		return true
	default:
		return false
	}
}

// Alert is a persisted, actionable notification created from a critical
// finding or a geofence violation. Alerts are mutated only through the
// explicit status-transition methods below, never overwritten.
type Alert struct {
	// ID is the unique identifier for this alert.
	ID string `json:"id"`

	// WardID is the monitored person the alert concerns.
	WardID string `json:"ward_id"`

	// AlertType classifies the alert, e.g. "low_oxygen_critical".
	AlertType string `json:"alert_type"`

	// Title is a short human-readable summary.
	Title string `json:"title"`

	// Description explains what triggered the alert.
	Description string `json:"description"`

	// Severity indicates the alert severity level.
	Severity Severity `json:"severity"`

	// Status indicates the current lifecycle state.
	Status AlertStatus `json:"status"`

	// DataSnapshot carries the triggering data for later review.
	DataSnapshot map[string]any `json:"data_snapshot,omitempty"`

	// CreatedAt is when the alert was first created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the alert was last modified.
	UpdatedAt time.Time `json:"updated_at"`

	// ResolvedAt is when the alert was resolved. Nil while open.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// NewAlert creates a new active alert.
func NewAlert(id, wardID, alertType, title, description string, severity Severity, snapshot map[string]any) *Alert {
	now := time.Now().UTC()
	return &Alert{
		ID:           id,
		WardID:       wardID,
		AlertType:    alertType,
		Title:        title,
		Description:  description,
		Severity:     severity,
		Status:       AlertStatusActive,
		DataSnapshot: snapshot,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsActive returns true if the alert is currently active.
func (a *Alert) IsActive() bool {
	return a.Status == AlertStatusActive
}

// IsOpen returns true if the alert still needs handling.
func (a *Alert) IsOpen() bool {
	return a.Status == AlertStatusActive || a.Status == AlertStatusAcknowledged
}

// Acknowledge marks the alert as seen by a caregiver.
// Only active alerts can be acknowledged.
func (a *Alert) Acknowledge() error {
	if a.Status != AlertStatusActive {
		return ErrInvalidAlertTransition
	}
	a.Status = AlertStatusAcknowledged
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Resolve marks the alert as handled. Allowed from active or acknowledged.
func (a *Alert) Resolve() error {
	if !a.IsOpen() {
		return ErrInvalidAlertTransition
	}
	now := time.Now().UTC()
	a.Status = AlertStatusResolved
	a.UpdatedAt = now
	a.ResolvedAt = &now
	return nil
}

// MarkFalsePositive marks the alert as spurious. Allowed from active or
// acknowledged.
func (a *Alert) MarkFalsePositive() error {
	if !a.IsOpen() {
		return ErrInvalidAlertTransition
	}
	now := time.Now().UTC()
	a.Status = AlertStatusFalsePositive
	a.UpdatedAt = now
	a.ResolvedAt = &now
	return nil
}

// AlertFilter provides filtering options for querying alerts.
type AlertFilter struct {
	WardID   string
	Status   AlertStatus
	Severity Severity
	Limit    int
	Offset   int
}
