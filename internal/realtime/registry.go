// Package realtime is the WebSocket gateway: it fans domain events out
// to connected dashboard clients, grouped into named channels.
package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"caremon-go/internal/metrics"
)

// Conn is the subset of a WebSocket connection the registry needs.
// Satisfied by *websocket.Conn.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// textMessage mirrors websocket.TextMessage so the registry does not
// import the websocket package directly.
const textMessage = 1

// Envelope is the wire format delivered to subscribers: the channel the
// message was broadcast on plus the payload.
type Envelope struct {
	Channel string `json:"channel"`
	Payload any    `json:"payload"`
}

// BroadcastRegistry tracks which connections subscribe to which channel
// and delivers broadcasts. Connections whose writes fail are evicted and
// closed; a broadcast never blocks on a dead client longer than the
// connection's write deadline.
type BroadcastRegistry struct {
	mu       sync.RWMutex
	channels map[string]map[Conn]struct{}
	logger   *slog.Logger
}

// NewBroadcastRegistry creates an empty registry.
func NewBroadcastRegistry(logger *slog.Logger) *BroadcastRegistry {
	return &BroadcastRegistry{
		channels: make(map[string]map[Conn]struct{}),
		logger:   logger.With("component", "broadcast-registry"),
	}
}

// Subscribe adds a connection to a channel.
func (r *BroadcastRegistry) Subscribe(channel string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channels[channel] == nil {
		r.channels[channel] = make(map[Conn]struct{})
	}
	r.channels[channel][conn] = struct{}{}

	metrics.RealtimeConnections.Inc()
}

// Unsubscribe removes a connection from a channel. Empty channels are
// dropped from the map.
func (r *BroadcastRegistry) Unsubscribe(channel string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.remove(channel, conn)
}

// remove assumes the caller holds the write lock.
func (r *BroadcastRegistry) remove(channel string, conn Conn) {
	conns, ok := r.channels[channel]
	if !ok {
		return
	}
	if _, subscribed := conns[conn]; !subscribed {
		return
	}

	delete(conns, conn)
	if len(conns) == 0 {
		delete(r.channels, channel)
	}

	metrics.RealtimeConnections.Dec()
}

// Broadcast delivers the payload to every subscriber of the channel,
// wrapped in an Envelope. Failed connections are closed and evicted.
func (r *BroadcastRegistry) Broadcast(channel string, payload any) {
	data, err := json.Marshal(Envelope{Channel: channel, Payload: payload})
	if err != nil {
		r.logger.Error("failed to encode broadcast payload",
			"channel", channel,
			"error", err)
		return
	}

	// Snapshot subscribers so slow writes do not hold the lock.
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.channels[channel]))
	for conn := range r.channels[channel] {
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	var failed []Conn
	for _, conn := range conns {
		if err := conn.WriteMessage(textMessage, data); err != nil {
			failed = append(failed, conn)
			continue
		}
		metrics.BroadcastDeliveriesTotal.WithLabelValues(channel).Inc()
	}

	if len(failed) == 0 {
		return
	}

	r.mu.Lock()
	for _, conn := range failed {
		r.remove(channel, conn)
	}
	r.mu.Unlock()

	for _, conn := range failed {
		_ = conn.Close()
		metrics.BroadcastEvictionsTotal.Inc()
	}

	r.logger.Debug("evicted dead connections",
		"channel", channel,
		"count", len(failed))
}

// Subscribers returns the current subscriber count for a channel.
func (r *BroadcastRegistry) Subscribers(channel string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[channel])
}
