package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"caremon-go/internal/store"
)

// LocationHandler handles HTTP requests for location queries.
type LocationHandler struct {
	locations store.LocationRepository
	logger    *slog.Logger
}

// NewLocationHandler creates a new location handler.
func NewLocationHandler(locations store.LocationRepository, logger *slog.Logger) *LocationHandler {
	return &LocationHandler{
		locations: locations,
		logger:    logger,
	}
}

// Latest handles GET /v1/wards/:wardID/location
// Returns the most recent location fix, or 404 when none was recorded.
func (h *LocationHandler) Latest(c *fiber.Ctx) error {
	wardID := c.Params("wardID")
	if wardID == "" {
		return BadRequest(c, "wardID is required")
	}

	sample, err := h.locations.Latest(c.Context(), wardID)
	if err != nil {
		h.logger.Error("failed to get latest location", "ward_id", wardID, "error", err)
		return InternalError(c, "failed to get latest location")
	}
	if sample == nil {
		return NotFound(c, "no location recorded for ward")
	}

	return Success(c, sample)
}

// History handles GET /v1/wards/:wardID/location/history
// Returns location samples in a time range, newest first.
func (h *LocationHandler) History(c *fiber.Ctx) error {
	wardID := c.Params("wardID")
	if wardID == "" {
		return BadRequest(c, "wardID is required")
	}

	var filter store.LocationFilter
	var err error
	if filter.From, err = parseTimeQuery(c, "from"); err != nil {
		return ValidationError(c, "from must be RFC3339")
	}
	if filter.To, err = parseTimeQuery(c, "to"); err != nil {
		return ValidationError(c, "to must be RFC3339")
	}
	filter.Limit, filter.Offset = parsePagination(c)

	samples, err := h.locations.History(c.Context(), wardID, filter)
	if err != nil {
		h.logger.Error("failed to get location history", "ward_id", wardID, "error", err)
		return InternalError(c, "failed to get location history")
	}

	return Success(c, samples)
}
