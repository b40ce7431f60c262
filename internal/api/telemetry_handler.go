package api

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"caremon-go/internal/domain"
	"caremon-go/internal/ingest"
	"caremon-go/internal/store"
)

// TelemetryHandler handles HTTP requests for telemetry ingestion and queries.
type TelemetryHandler struct {
	service   *ingest.Service
	telemetry store.TelemetryRepository
	logger    *slog.Logger
}

// NewTelemetryHandler creates a new telemetry handler.
func NewTelemetryHandler(service *ingest.Service, telemetry store.TelemetryRepository, logger *slog.Logger) *TelemetryHandler {
	return &TelemetryHandler{
		service:   service,
		telemetry: telemetry,
		logger:    logger,
	}
}

// telemetryRequest is the request body for POST /v1/telemetry.
type telemetryRequest struct {
	DeviceID string                 `json:"device_id"`
	Metrics  []domain.MetricSample  `json:"metrics"`
	Location *domain.LocationSample `json:"location,omitempty"`
}

// Ingest handles POST /v1/telemetry
// Receives a device batch, runs the full pipeline, and returns the
// ingest summary once the batch is durably persisted.
func (h *TelemetryHandler) Ingest(c *fiber.Ctx) error {
	var req telemetryRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("failed to parse telemetry body", "error", err)
		return BadRequest(c, "invalid request body")
	}

	if req.DeviceID == "" {
		return ValidationError(c, "device_id is required")
	}

	result, err := h.service.Ingest(c.Context(), &ingest.Batch{
		DeviceID: req.DeviceID,
		Metrics:  req.Metrics,
		Location: req.Location,
	})
	if err != nil {
		if errors.Is(err, ingest.ErrEmptyBatch) {
			return ValidationError(c, "metrics must not be empty")
		}
		if isValidationError(err) {
			return ValidationError(c, err.Error())
		}
		h.logger.Error("failed to ingest telemetry", "device_id", req.DeviceID, "error", err)
		return InternalError(c, "failed to ingest telemetry")
	}

	return Created(c, result)
}

// ListByWard handles GET /v1/wards/:wardID/telemetry
// Returns samples for a ward, newest first, filtered by query parameters.
func (h *TelemetryHandler) ListByWard(c *fiber.Ctx) error {
	wardID := c.Params("wardID")
	if wardID == "" {
		return BadRequest(c, "wardID is required")
	}

	filter := store.TelemetryFilter{
		MetricType: domain.MetricType(c.Query("type")),
	}

	var err error
	if filter.From, err = parseTimeQuery(c, "from"); err != nil {
		return ValidationError(c, "from must be RFC3339")
	}
	if filter.To, err = parseTimeQuery(c, "to"); err != nil {
		return ValidationError(c, "to must be RFC3339")
	}

	filter.Limit, filter.Offset = parsePagination(c)

	samples, err := h.telemetry.ListByWard(c.Context(), wardID, filter)
	if err != nil {
		h.logger.Error("failed to list telemetry", "ward_id", wardID, "error", err)
		return InternalError(c, "failed to list telemetry")
	}

	return Success(c, samples)
}

// Latest handles GET /v1/wards/:wardID/telemetry/latest
// Returns the most recent sample per metric type.
func (h *TelemetryHandler) Latest(c *fiber.Ctx) error {
	wardID := c.Params("wardID")
	if wardID == "" {
		return BadRequest(c, "wardID is required")
	}

	samples, err := h.telemetry.Latest(c.Context(), wardID)
	if err != nil {
		h.logger.Error("failed to get latest telemetry", "ward_id", wardID, "error", err)
		return InternalError(c, "failed to get latest telemetry")
	}

	return Success(c, samples)
}

// isValidationError reports whether the ingest error is a client error.
func isValidationError(err error) bool {
	return errors.Is(err, domain.ErrEmptyMetricType) ||
		errors.Is(err, domain.ErrNonFiniteValue) ||
		errors.Is(err, domain.ErrInvalidQualityScore)
}

// parseTimeQuery parses an optional RFC3339 query parameter.
func parseTimeQuery(c *fiber.Ctx, name string) (time.Time, error) {
	value := c.Query(name)
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}

// parsePagination reads limit and offset query parameters with a default
// limit of 100.
func parsePagination(c *fiber.Ctx) (limit, offset int) {
	limit = 100
	if raw := c.Query("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil && l > 0 {
			limit = l
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if o, err := strconv.Atoi(raw); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}
