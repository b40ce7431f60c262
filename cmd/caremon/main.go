// Package main is the entry point for the care-monitoring service.
// It initializes all components and starts the HTTP API, the realtime
// gateway, the event relay, and the retention sweeper.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"caremon-go/internal/alerting"
	"caremon-go/internal/api"
	"caremon-go/internal/config"
	"caremon-go/internal/events"
	"caremon-go/internal/geo"
	"caremon-go/internal/ingest"
	"caremon-go/internal/queue"
	kafkaqueue "caremon-go/internal/queue/kafka"
	memoryqueue "caremon-go/internal/queue/memory"
	"caremon-go/internal/realtime"
	"caremon-go/internal/registry"
	"caremon-go/internal/retention"
	"caremon-go/internal/store"
	memorystor "caremon-go/internal/store/memory"
	postgresstor "caremon-go/internal/store/postgres"
	redisstor "caremon-go/internal/store/redis"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	// Load configuration, falling back to defaults when no file exists
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err, "path", *configPath)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(&cfg.Logger)

	logger.Info("configuration loaded",
		"path", *configPath,
		"storage_mode", cfg.Storage.Mode,
	)

	// Initialize dependencies based on storage mode
	deps, cleanup, err := initDependencies(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Create context that listens for shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Start event relay in background
	go func() {
		if err := deps.relay.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("relay error", "error", err)
			cancel()
		}
	}()

	// Start retention sweeper in background
	go deps.sweeper.Run(ctx)

	// Start realtime gateway
	go func() {
		if err := deps.realtime.Start(); err != nil {
			logger.Error("realtime server error", "error", err)
			cancel()
		}
	}()

	// Start HTTP API server
	go func() {
		if err := deps.server.Start(); err != nil {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	logger.Info("care-monitoring service started",
		"api_address", cfg.Server.Address(),
		"realtime_address", cfg.Realtime.Address(),
		"storage_mode", cfg.Storage.Mode,
	)

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := deps.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := deps.realtime.Shutdown(shutdownCtx); err != nil {
		logger.Error("realtime shutdown error", "error", err)
	}

	logger.Info("care-monitoring service stopped")
}

// dependencies holds all initialized service dependencies.
type dependencies struct {
	server   *api.Server
	realtime *realtime.Server
	relay    *realtime.Relay
	sweeper  *retention.Sweeper
}

// initDependencies creates and wires all service dependencies based on config.
// Returns the dependencies and a cleanup function.
func initDependencies(cfg *config.Config, logger *slog.Logger) (*dependencies, func(), error) {
	var (
		telemetryRepo store.TelemetryRepository
		locationRepo  store.LocationRepository
		geofenceRepo  store.GeofenceRepository
		alertRepo     store.AlertRepository
		containment   store.ContainmentStore
		producer      queue.Producer
		consumer      queue.Consumer
		cleanupFuncs  []func()
	)

	if cfg.Storage.UseMemory() {
		// Initialize in-memory implementations
		logger.Info("initializing in-memory storage")

		telemetryRepo = memorystor.NewTelemetryRepository()
		locationRepo = memorystor.NewLocationRepository()
		geofenceRepo = memorystor.NewGeofenceRepository()
		alertRepo = memorystor.NewAlertRepository()
		containment = memorystor.NewContainmentStore()

		memQueue := memoryqueue.NewQueue(10000)
		producer = memQueue
		consumer = memQueue
		cleanupFuncs = append(cleanupFuncs, func() { _ = memQueue.Close() })
	} else {
		// Initialize real storage implementations
		logger.Info("initializing production storage (Kafka, Redis, PostgreSQL)")

		// Initialize PostgreSQL
		ctx := context.Background()
		db, err := postgresstor.NewDB(ctx, &cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		cleanupFuncs = append(cleanupFuncs, db.Close)

		// Run migrations
		if err := db.RunMigrations(ctx); err != nil {
			return nil, nil, err
		}
		logger.Info("database migrations completed")

		telemetryRepo = postgresstor.NewTelemetryRepository(db)
		locationRepo = postgresstor.NewLocationRepository(db)
		geofenceRepo = postgresstor.NewGeofenceRepository(db)
		alertRepo = postgresstor.NewAlertRepository(db)

		// Initialize Redis
		redisStore, err := redisstor.NewContainmentStore(&cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		containment = redisStore
		cleanupFuncs = append(cleanupFuncs, func() { _ = redisStore.Close() })

		// Initialize Kafka
		kafkaProducer := kafkaqueue.NewProducer(&cfg.Kafka)
		producer = kafkaProducer
		cleanupFuncs = append(cleanupFuncs, func() { _ = kafkaProducer.Close() })

		kafkaConsumer := kafkaqueue.NewConsumer(&cfg.Kafka, logger)
		consumer = kafkaConsumer
		cleanupFuncs = append(cleanupFuncs, func() { _ = kafkaConsumer.Close() })
	}

	publisher := events.NewBrokerPublisher(producer, logger)

	// Device registry: remote when a base URL is configured, otherwise the
	// static in-process mapping from config.
	var devices registry.DeviceRegistry
	if strings.TrimSpace(cfg.Registry.BaseURL) != "" {
		devices = registry.NewHTTPRegistry(&cfg.Registry, logger)
	} else {
		devices = registry.NewStaticRegistry(cfg.Registry.Devices)
	}

	// The alerting service owns the alert repository and serves the alert
	// API. Ingest raises alerts through it directly, or through the HTTP
	// client when a remote alert service is configured.
	alertService := alerting.NewService(alertRepo, publisher, logger)
	var alertClient alerting.Client = alertService
	if strings.TrimSpace(cfg.Alerting.BaseURL) != "" {
		alertClient = alerting.NewHTTPClient(&cfg.Alerting, logger)
	}

	monitor := geo.NewMonitor(geofenceRepo, containment, publisher, logger)

	ingestService := ingest.NewService(
		telemetryRepo,
		locationRepo,
		devices,
		alertClient,
		monitor,
		publisher,
		logger,
	)

	// Initialize API handlers
	telemetryHandler := api.NewTelemetryHandler(ingestService, telemetryRepo, logger)
	locationHandler := api.NewLocationHandler(locationRepo, logger)
	geofenceHandler := api.NewGeofenceHandler(geofenceRepo, containment, logger)
	alertHandler := api.NewAlertHandler(alertService, logger)

	// Initialize HTTP server
	server := api.NewServer(api.ServerDeps{
		Config:           &cfg.Server,
		Logger:           logger,
		TelemetryHandler: telemetryHandler,
		LocationHandler:  locationHandler,
		GeofenceHandler:  geofenceHandler,
		AlertHandler:     alertHandler,
	})

	// Initialize realtime gateway
	broadcast := realtime.NewBroadcastRegistry(logger)
	gateway := realtime.NewGateway(&cfg.Realtime, broadcast, logger)
	realtimeServer := realtime.NewServer(&cfg.Realtime, gateway, logger)
	relay := realtime.NewRelay(consumer, broadcast, logger)

	sweeper := retention.NewSweeper(telemetryRepo, locationRepo, &cfg.Retention, logger)

	// Build cleanup function
	cleanup := func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			cleanupFuncs[i]()
		}
	}

	return &dependencies{
		server:   server,
		realtime: realtimeServer,
		relay:    relay,
		sweeper:  sweeper,
	}, cleanup, nil
}

// loadConfig reads the config file at path, or returns the built-in
// defaults when the file does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

// initLogger creates and configures the application logger.
func initLogger(cfg *config.LoggerConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
