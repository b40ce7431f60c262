package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"caremon-go/internal/config"
)

// Server hosts the WebSocket gateway on its own listener, separate from
// the HTTP API. WebSocket upgrades need direct access to the underlying
// connection, which the API's fasthttp stack does not expose.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates the realtime server with the gateway mounted at /ws.
func NewServer(cfg *config.RealtimeConfig, gateway *Gateway, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/ws", gateway)
	mux.Handle("/ws/", gateway)
	mux.HandleFunc("/healthz", healthHandler)

	return &Server{
		server: &http.Server{
			Addr:        cfg.Address(),
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			IdleTimeout: 120 * time.Second,
		},
		logger: logger.With("component", "realtime-server"),
	}
}

// healthHandler reports liveness of the realtime listener.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Start runs the listener until it fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info("realtime server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
