package api

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"caremon-go/internal/domain"
	"caremon-go/internal/store"
)

// GeofenceHandler handles HTTP requests for geofence management.
type GeofenceHandler struct {
	geofences   store.GeofenceRepository
	containment store.ContainmentStore
	logger      *slog.Logger
}

// NewGeofenceHandler creates a new geofence handler.
func NewGeofenceHandler(geofences store.GeofenceRepository, containment store.ContainmentStore, logger *slog.Logger) *GeofenceHandler {
	return &GeofenceHandler{
		geofences:   geofences,
		containment: containment,
		logger:      logger,
	}
}

// geofenceRequest is the request body for create and update operations.
type geofenceRequest struct {
	WardID  string               `json:"ward_id"`
	Name    string               `json:"name"`
	Type    domain.GeofenceType  `json:"type"`
	Shape   domain.GeofenceShape `json:"shape"`
	Circle  *domain.Circle       `json:"circle,omitempty"`
	Polygon []domain.GeoPoint    `json:"polygon,omitempty"`
	Enabled *bool                `json:"enabled,omitempty"`
}

// Create handles POST /v1/geofences
func (h *GeofenceHandler) Create(c *fiber.Ctx) error {
	var req geofenceRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}

	now := time.Now().UTC()
	fence := &domain.Geofence{
		ID:        uuid.NewString(),
		WardID:    req.WardID,
		Name:      req.Name,
		Type:      req.Type,
		Shape:     req.Shape,
		Circle:    req.Circle,
		Polygon:   req.Polygon,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Enabled != nil {
		fence.Enabled = *req.Enabled
	}

	if err := fence.Validate(); err != nil {
		return ValidationError(c, err.Error())
	}

	if err := h.geofences.Create(c.Context(), fence); err != nil {
		h.logger.Error("failed to create geofence", "ward_id", req.WardID, "error", err)
		return InternalError(c, "failed to create geofence")
	}

	return Created(c, fence)
}

// Update handles PUT /v1/geofences/:id
func (h *GeofenceHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	existing, err := h.geofences.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrGeofenceNotFound) {
			return NotFound(c, "geofence not found")
		}
		h.logger.Error("failed to get geofence", "id", id, "error", err)
		return InternalError(c, "failed to get geofence")
	}

	var req geofenceRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}

	fence := &domain.Geofence{
		ID:        existing.ID,
		WardID:    req.WardID,
		Name:      req.Name,
		Type:      req.Type,
		Shape:     req.Shape,
		Circle:    req.Circle,
		Polygon:   req.Polygon,
		Enabled:   existing.Enabled,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}
	if req.Enabled != nil {
		fence.Enabled = *req.Enabled
	}

	if err := fence.Validate(); err != nil {
		return ValidationError(c, err.Error())
	}

	if err := h.geofences.Update(c.Context(), fence); err != nil {
		if errors.Is(err, domain.ErrGeofenceNotFound) {
			return NotFound(c, "geofence not found")
		}
		h.logger.Error("failed to update geofence", "id", id, "error", err)
		return InternalError(c, "failed to update geofence")
	}

	// A resized or moved fence invalidates the remembered containment;
	// drop it so the next observation re-baselines instead of firing a
	// spurious exit.
	if err := h.containment.Delete(c.Context(), fence.WardID, fence.ID); err != nil {
		h.logger.Warn("failed to clear containment state", "geofence_id", fence.ID, "error", err)
	}

	return Success(c, fence)
}

// Delete handles DELETE /v1/geofences/:id
func (h *GeofenceHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	fence, err := h.geofences.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrGeofenceNotFound) {
			return NotFound(c, "geofence not found")
		}
		h.logger.Error("failed to get geofence", "id", id, "error", err)
		return InternalError(c, "failed to get geofence")
	}

	if err := h.geofences.Delete(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrGeofenceNotFound) {
			return NotFound(c, "geofence not found")
		}
		h.logger.Error("failed to delete geofence", "id", id, "error", err)
		return InternalError(c, "failed to delete geofence")
	}

	if err := h.containment.Delete(c.Context(), fence.WardID, fence.ID); err != nil {
		h.logger.Warn("failed to clear containment state", "geofence_id", fence.ID, "error", err)
	}

	return NoContent(c)
}

// GetByID handles GET /v1/geofences/:id
func (h *GeofenceHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	fence, err := h.geofences.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrGeofenceNotFound) {
			return NotFound(c, "geofence not found")
		}
		h.logger.Error("failed to get geofence", "id", id, "error", err)
		return InternalError(c, "failed to get geofence")
	}

	return Success(c, fence)
}

// ListByWard handles GET /v1/wards/:wardID/geofences
func (h *GeofenceHandler) ListByWard(c *fiber.Ctx) error {
	wardID := c.Params("wardID")
	if wardID == "" {
		return BadRequest(c, "wardID is required")
	}

	fences, err := h.geofences.ListByWard(c.Context(), wardID)
	if err != nil {
		h.logger.Error("failed to list geofences", "ward_id", wardID, "error", err)
		return InternalError(c, "failed to list geofences")
	}

	return Success(c, fences)
}
