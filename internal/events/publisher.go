// Package events implements durable, at-least-once publishing of domain
// events onto the care-monitoring.events topic.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"caremon-go/internal/domain"
	"caremon-go/internal/metrics"
	"caremon-go/internal/queue"
)

// Publisher defines the interface for emitting domain events. The event
// type doubles as the broker routing key.
type Publisher interface {
	// Publish hands the event to the durable broker. It retries
	// transient failures with bounded backoff; if the broker is still
	// unreachable after retries the error is surfaced to the caller.
	Publish(ctx context.Context, event *domain.Event) error
}

// Default retry policy for broker publishes.
const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 100 * time.Millisecond
)

// BrokerPublisher implements Publisher on top of a queue.Producer.
// Messages are keyed by ward id so events for one ward preserve order.
type BrokerPublisher struct {
	producer    queue.Producer
	logger      *slog.Logger
	maxAttempts int
	backoffBase time.Duration
}

// NewBrokerPublisher creates a publisher with the default retry policy.
func NewBrokerPublisher(producer queue.Producer, logger *slog.Logger) *BrokerPublisher {
	return &BrokerPublisher{
		producer:    producer,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
	}
}

// Publish serializes the event and writes it to the broker, retrying with
// exponential backoff. Every emission carries its unique event id so
// consumers can deduplicate redeliveries.
func (p *BrokerPublisher) Publish(ctx context.Context, event *domain.Event) error {
	publishStart := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	msg := &queue.Message{
		Key:   []byte(event.WardID),
		Value: payload,
		Headers: map[string]string{
			queue.HeaderRoutingKey: event.EventType,
			"event_id":             event.EventID,
			"source":               event.Source,
		},
	}

	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		lastErr = p.producer.Publish(ctx, msg)
		if lastErr == nil {
			metrics.EventsPublishedTotal.WithLabelValues(event.EventType).Inc()
			metrics.EventPublishLatency.Observe(time.Since(publishStart).Seconds())

			p.logger.Debug("event published",
				"event_type", event.EventType,
				"event_id", event.EventID,
				"ward_id", event.WardID,
			)
			return nil
		}

		if ctx.Err() != nil {
			break
		}

		if attempt < p.maxAttempts {
			backoff := p.backoffBase * time.Duration(1<<(attempt-1))
			p.logger.Warn("event publish failed, retrying",
				"event_type", event.EventType,
				"event_id", event.EventID,
				"attempt", attempt,
				"backoff", backoff,
				"error", lastErr,
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	metrics.EventPublishFailuresTotal.WithLabelValues(event.EventType).Inc()
	return fmt.Errorf("failed to publish event %s after %d attempts: %w",
		event.EventID, p.maxAttempts, lastErr)
}
