package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"caremon-go/internal/config"
)

// Gateway upgrades HTTP requests to WebSocket connections and registers
// them on their requested channel. Channels are free-form names; the
// relay decides which channels receive which events.
type Gateway struct {
	registry *BroadcastRegistry
	upgrader websocket.Upgrader
	logger   *slog.Logger

	writeTimeout time.Duration
	maxMessage   int64
}

// NewGateway creates a gateway that registers connections with the given
// broadcast registry.
func NewGateway(cfg *config.RealtimeConfig, registry *BroadcastRegistry, logger *slog.Logger) *Gateway {
	return &Gateway{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Dashboards connect cross-origin; access control happens
			// upstream at the ingress.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:       logger.With("component", "realtime-gateway"),
		writeTimeout: cfg.WriteTimeout,
		maxMessage:   cfg.MaxMessageBytes,
	}
}

// ServeHTTP handles a connection request. The channel comes from the
// path (/ws/{channel}) or the channel query parameter; without either
// the client lands on the default alerts channel.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	channel := channelFromRequest(r)
	subject := subjectHint(r.URL.Query().Get("token"))
	tenant := r.URL.Query().Get("tenant")

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		g.logger.Warn("websocket upgrade failed",
			"channel", channel,
			"remote", r.RemoteAddr,
			"error", err)
		return
	}

	conn.SetReadLimit(g.maxMessage)

	wrapped := &timedConn{Conn: conn, timeout: g.writeTimeout}
	g.registry.Subscribe(channel, wrapped)

	g.logger.Info("client connected",
		"channel", channel,
		"remote", r.RemoteAddr,
		"subject", subject,
		"tenant", tenant)

	// Clients may publish {channel, payload} envelopes of their own;
	// those are re-broadcast exactly like server-originated messages.
	// Malformed frames are dropped and the connection stays open.
	go func() {
		defer func() {
			g.registry.Unsubscribe(channel, wrapped)
			_ = conn.Close()
			g.logger.Info("client disconnected",
				"channel", channel,
				"remote", r.RemoteAddr)
		}()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var env clientEnvelope
			if err := json.Unmarshal(data, &env); err != nil || env.Channel == "" {
				g.logger.Debug("dropping malformed client message",
					"channel", channel,
					"remote", r.RemoteAddr)
				continue
			}
			g.registry.Broadcast(env.Channel, env.Payload)
		}
	}()
}

// clientEnvelope is the inbound counterpart of Envelope. The payload is
// kept raw so re-broadcast does not re-encode client data.
type clientEnvelope struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

// channelFromRequest resolves the channel name for a connection.
func channelFromRequest(r *http.Request) string {
	if trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/ws"), "/"); trimmed != "" {
		return trimmed
	}
	if channel := r.URL.Query().Get("channel"); channel != "" {
		return channel
	}
	return ChannelAlerts
}

// timedConn applies a write deadline before every write so one stalled
// client cannot block a broadcast indefinitely. The mutex serializes
// writers: the relay and every client read goroutine broadcast
// concurrently, and the underlying connection supports only one writer
// at a time.
type timedConn struct {
	*websocket.Conn
	timeout time.Duration

	writeMu sync.Mutex
}

func (c *timedConn) WriteMessage(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(messageType, data)
}
