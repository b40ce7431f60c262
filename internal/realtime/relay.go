package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"caremon-go/internal/domain"
	"caremon-go/internal/queue"
)

// Well-known broadcast channels. Each event type has a home channel, and
// every event is additionally mirrored to the per-ward channel so a
// dashboard can follow a single person.
const (
	ChannelAlerts    = "alerts"
	ChannelTelemetry = "telemetry"
	ChannelLocations = "locations"

	// wardChannelPrefix forms per-ward channel names, e.g. "ward.w-1".
	wardChannelPrefix = "ward."
)

// channelForEvent maps event types to their home channel.
var channelForEvent = map[string]string{
	domain.EventAlertCreated:      ChannelAlerts,
	domain.EventTelemetryReceived: ChannelTelemetry,
	domain.EventGeofenceViolation: ChannelLocations,
}

// WardChannel returns the per-ward channel name for a ward id.
func WardChannel(wardID string) string {
	return wardChannelPrefix + wardID
}

// Relay consumes the event topic and pushes each event to its channel
// subscribers. It is the bridge between the broker and the gateway.
type Relay struct {
	consumer queue.Consumer
	registry *BroadcastRegistry
	logger   *slog.Logger
}

// NewRelay creates a relay feeding the given registry.
func NewRelay(consumer queue.Consumer, registry *BroadcastRegistry, logger *slog.Logger) *Relay {
	return &Relay{
		consumer: consumer,
		registry: registry,
		logger:   logger.With("component", "realtime-relay"),
	}
}

// Run consumes events until the context is canceled. Undecodable
// messages are logged and skipped; they must not wedge the consumer.
func (r *Relay) Run(ctx context.Context) error {
	return r.consumer.Start(ctx, r.handle)
}

// handle dispatches one broker message to the appropriate channels.
func (r *Relay) handle(ctx context.Context, msg *queue.Message) error {
	var event domain.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		r.logger.Warn("skipping undecodable event",
			"routing_key", msg.RoutingKey(),
			"error", err)
		return nil
	}

	channel, ok := channelForEvent[event.EventType]
	if !ok {
		r.logger.Debug("no channel for event type", "event_type", event.EventType)
		return nil
	}

	r.registry.Broadcast(channel, &event)

	if event.WardID != "" && event.WardID != domain.WardUnknown {
		r.registry.Broadcast(WardChannel(event.WardID), &event)
	}

	return nil
}
