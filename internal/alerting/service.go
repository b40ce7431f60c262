package alerting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"caremon-go/internal/domain"
	"caremon-go/internal/events"
	"caremon-go/internal/metrics"
	"caremon-go/internal/store"
)

// Service is the in-process alert service. It persists alerts, drives
// their status transitions, and announces new alerts on the event bus.
type Service struct {
	alerts    store.AlertRepository
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService creates an alert service.
func NewService(alerts store.AlertRepository, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		alerts:    alerts,
		publisher: publisher,
		logger:    logger.With("component", "alerting"),
	}
}

// CreateImmediateAlert creates an active alert, persists it, and emits an
// alert.created event. The event publish is best-effort: a broker outage
// does not undo the persisted alert.
func (s *Service) CreateImmediateAlert(ctx context.Context, req CreateRequest) (*domain.Alert, error) {
	alert := domain.NewAlert(
		uuid.NewString(),
		req.WardID,
		req.AlertType,
		req.Title,
		req.Description,
		req.Severity,
		req.DataSnapshot,
	)

	if err := s.alerts.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to persist alert: %w", err)
	}

	metrics.AlertsCreatedTotal.WithLabelValues(alert.AlertType, string(alert.Severity)).Inc()
	s.logger.Info("alert created",
		"alert_id", alert.ID,
		"ward_id", alert.WardID,
		"alert_type", alert.AlertType,
		"severity", alert.Severity)

	event := domain.NewEvent(domain.EventAlertCreated, alert.WardID, domain.AlertCreatedData{
		AlertID:      alert.ID,
		AlertType:    alert.AlertType,
		Title:        alert.Title,
		Description:  alert.Description,
		Severity:     alert.Severity,
		Status:       alert.Status,
		DataSnapshot: alert.DataSnapshot,
		TriggeredAt:  alert.CreatedAt,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish alert.created event",
			"alert_id", alert.ID,
			"error", err)
	}

	return alert, nil
}

// Get retrieves an alert by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Alert, error) {
	return s.alerts.GetByID(ctx, id)
}

// List retrieves alerts matching the filter.
func (s *Service) List(ctx context.Context, filter domain.AlertFilter) ([]*domain.Alert, error) {
	return s.alerts.List(ctx, filter)
}

// Acknowledge transitions an alert from active to acknowledged.
func (s *Service) Acknowledge(ctx context.Context, id string) (*domain.Alert, error) {
	return s.transition(ctx, id, (*domain.Alert).Acknowledge)
}

// Resolve transitions an open alert to resolved.
func (s *Service) Resolve(ctx context.Context, id string) (*domain.Alert, error) {
	return s.transition(ctx, id, (*domain.Alert).Resolve)
}

// MarkFalsePositive transitions an open alert to false_positive.
func (s *Service) MarkFalsePositive(ctx context.Context, id string) (*domain.Alert, error) {
	return s.transition(ctx, id, (*domain.Alert).MarkFalsePositive)
}

// transition loads, mutates through the domain method, and persists.
func (s *Service) transition(ctx context.Context, id string, mutate func(*domain.Alert) error) (*domain.Alert, error) {
	alert, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := mutate(alert); err != nil {
		return nil, err
	}

	if err := s.alerts.Update(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to persist alert transition: %w", err)
	}

	s.logger.Info("alert status changed",
		"alert_id", alert.ID,
		"status", alert.Status)

	return alert, nil
}
