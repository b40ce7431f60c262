package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"caremon-go/internal/alerting"
	"caremon-go/internal/domain"
)

// headerInternalService authenticates internal service-to-service calls.
const headerInternalService = "X-Internal-Service"

// AlertHandler handles HTTP requests for alert operations.
type AlertHandler struct {
	service *alerting.Service
	logger  *slog.Logger
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(service *alerting.Service, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{
		service: service,
		logger:  logger,
	}
}

// List handles GET /v1/alerts
// Returns alerts matching query parameters, newest first.
func (h *AlertHandler) List(c *fiber.Ctx) error {
	filter := domain.AlertFilter{
		WardID:   c.Query("ward_id"),
		Status:   domain.AlertStatus(c.Query("status")),
		Severity: domain.Severity(c.Query("severity")),
	}
	filter.Limit, filter.Offset = parsePagination(c)

	if filter.Status != "" && !filter.Status.IsValid() {
		return ValidationError(c, "unknown alert status")
	}
	if filter.Severity != "" && !filter.Severity.IsValid() {
		return ValidationError(c, "unknown severity")
	}

	alerts, err := h.service.List(c.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list alerts", "error", err)
		return InternalError(c, "failed to list alerts")
	}

	return Success(c, alerts)
}

// GetByID handles GET /v1/alerts/:id
func (h *AlertHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	alert, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAlertNotFound) {
			return NotFound(c, "alert not found")
		}
		h.logger.Error("failed to get alert", "id", id, "error", err)
		return InternalError(c, "failed to get alert")
	}

	return Success(c, alert)
}

// Acknowledge handles POST /v1/alerts/:id/acknowledge
func (h *AlertHandler) Acknowledge(c *fiber.Ctx) error {
	return h.transition(c, h.service.Acknowledge)
}

// Resolve handles POST /v1/alerts/:id/resolve
func (h *AlertHandler) Resolve(c *fiber.Ctx) error {
	return h.transition(c, h.service.Resolve)
}

// MarkFalsePositive handles POST /v1/alerts/:id/false-positive
func (h *AlertHandler) MarkFalsePositive(c *fiber.Ctx) error {
	return h.transition(c, h.service.MarkFalsePositive)
}

// transition runs one status-transition operation with uniform error mapping.
func (h *AlertHandler) transition(c *fiber.Ctx, op func(ctx context.Context, id string) (*domain.Alert, error)) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	alert, err := op(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAlertNotFound) {
			return NotFound(c, "alert not found")
		}
		if errors.Is(err, domain.ErrInvalidAlertTransition) {
			return Conflict(c, "transition not allowed from current status")
		}
		h.logger.Error("failed to transition alert", "id", id, "error", err)
		return InternalError(c, "failed to transition alert")
	}

	return Success(c, alert)
}

// CreateImmediate handles POST /internal/alerts/immediate
// The internal create endpoint used by service-to-service callers. The
// caller must identify itself via the X-Internal-Service header.
func (h *AlertHandler) CreateImmediate(c *fiber.Ctx) error {
	if c.Get(headerInternalService) == "" {
		return Unauthorized(c, "internal endpoint")
	}

	var req alerting.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}

	if req.WardID == "" {
		return ValidationError(c, "ward_id is required")
	}
	if req.AlertType == "" {
		return ValidationError(c, "alert_type is required")
	}
	if !req.Severity.IsValid() {
		return ValidationError(c, "unknown severity")
	}

	alert, err := h.service.CreateImmediateAlert(c.Context(), req)
	if err != nil {
		h.logger.Error("failed to create alert", "ward_id", req.WardID, "error", err)
		return InternalError(c, "failed to create alert")
	}

	return Created(c, alert)
}
