// Package queue defines interfaces for message broker operations.
// This abstraction allows swapping implementations (Kafka, in-memory)
// without changing business logic.
package queue

import (
	"context"
)

// HeaderRoutingKey is the message header carrying the event routing key
// (e.g. "telemetry.data.received"). Consumers use it to route messages
// without deserializing the payload.
const HeaderRoutingKey = "routing_key"

// Message represents a message on the broker.
type Message struct {
	// Key is the partition key. Messages with the same key preserve
	// relative order; the pipeline keys by ward id.
	Key []byte

	// Value is the message payload.
	Value []byte

	// Headers contains optional metadata, including the routing key.
	Headers map[string]string
}

// RoutingKey returns the message's routing key header, or "".
func (m *Message) RoutingKey() string {
	return m.Headers[HeaderRoutingKey]
}

// Producer defines the interface for publishing messages to the broker.
// Implementations must be safe for concurrent use.
type Producer interface {
	// Publish sends a message to the broker. The message is persisted
	// durably before the call returns without error.
	Publish(ctx context.Context, msg *Message) error

	// Close releases any resources held by the producer.
	Close() error
}

// MessageHandler is a callback function for processing consumed messages.
// Return an error to indicate processing failure.
type MessageHandler func(ctx context.Context, msg *Message) error

// Consumer defines the interface for consuming messages from the broker.
type Consumer interface {
	// Start begins consuming messages and calls the handler for each
	// one. This is a blocking call that runs until the context is
	// canceled or an unrecoverable error occurs.
	Start(ctx context.Context, handler MessageHandler) error

	// Close stops consuming and releases any resources.
	Close() error
}
