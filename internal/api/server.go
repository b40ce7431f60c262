package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"caremon-go/internal/config"
)

// Server represents the HTTP server with all configured routes and middleware.
type Server struct {
	app    *fiber.App
	config *config.ServerConfig
	logger *slog.Logger

	// Handlers
	telemetryHandler *TelemetryHandler
	locationHandler  *LocationHandler
	geofenceHandler  *GeofenceHandler
	alertHandler     *AlertHandler
}

// ServerDeps contains all dependencies required to create a new Server.
type ServerDeps struct {
	Config           *config.ServerConfig
	Logger           *slog.Logger
	TelemetryHandler *TelemetryHandler
	LocationHandler  *LocationHandler
	GeofenceHandler  *GeofenceHandler
	AlertHandler     *AlertHandler
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(deps ServerDeps) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StrictRouting:         true,
		CaseSensitive:         true,
		ReadTimeout:           deps.Config.ReadTimeout,
		WriteTimeout:          deps.Config.WriteTimeout,
		IdleTimeout:           deps.Config.IdleTimeout,
		ErrorHandler:          customErrorHandler,
	})

	s := &Server{
		app:              app,
		config:           deps.Config,
		logger:           deps.Logger,
		telemetryHandler: deps.TelemetryHandler,
		locationHandler:  deps.LocationHandler,
		geofenceHandler:  deps.GeofenceHandler,
		alertHandler:     deps.AlertHandler,
	}

	s.registerMiddleware()
	s.registerRoutes()

	return s
}

// registerMiddleware sets up all middleware for the server.
func (s *Server) registerMiddleware() {
	// Recovery middleware to handle panics
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// Request ID middleware for tracing
	s.app.Use(requestid.New())

	// Logger middleware for request logging
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} | ${path} | ${error}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
}

// registerRoutes sets up all API routes.
func (s *Server) registerRoutes() {
	// Health check endpoint (outside versioned API)
	s.app.Get("/healthz", s.healthCheck)

	// Prometheus metrics endpoint
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Internal service-to-service endpoints
	s.app.Post("/internal/alerts/immediate", s.alertHandler.CreateImmediate)

	// API v1 routes
	v1 := s.app.Group("/v1")

	// Telemetry ingestion and queries
	v1.Post("/telemetry", s.telemetryHandler.Ingest)
	v1.Get("/wards/:wardID/telemetry", s.telemetryHandler.ListByWard)
	v1.Get("/wards/:wardID/telemetry/latest", s.telemetryHandler.Latest)

	// Location queries
	v1.Get("/wards/:wardID/location", s.locationHandler.Latest)
	v1.Get("/wards/:wardID/location/history", s.locationHandler.History)

	// Geofence management
	v1.Post("/geofences", s.geofenceHandler.Create)
	v1.Get("/geofences/:id", s.geofenceHandler.GetByID)
	v1.Put("/geofences/:id", s.geofenceHandler.Update)
	v1.Delete("/geofences/:id", s.geofenceHandler.Delete)
	v1.Get("/wards/:wardID/geofences", s.geofenceHandler.ListByWard)

	// Alerts
	v1.Get("/alerts", s.alertHandler.List)
	v1.Get("/alerts/:id", s.alertHandler.GetByID)
	v1.Post("/alerts/:id/acknowledge", s.alertHandler.Acknowledge)
	v1.Post("/alerts/:id/resolve", s.alertHandler.Resolve)
	v1.Post("/alerts/:id/false-positive", s.alertHandler.MarkFalsePositive)
}

// healthCheck returns the health status of the service.
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return Success(c, map[string]string{
		"status": "healthy",
	})
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	addr := s.config.Address()
	s.logger.Info("starting HTTP server", "address", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler handles errors returned from handlers.
func customErrorHandler(c *fiber.Ctx, err error) error {
	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		return Error(c, e.Code, ErrCodeInternalError, e.Message)
	}

	// Default to internal server error
	return InternalError(c, fmt.Sprintf("unexpected error: %v", err))
}
