package registry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"

	"caremon-go/internal/config"
)

// deviceResponse is the device-service payload for a device lookup.
type deviceResponse struct {
	DeviceID string `json:"device_id"`
	WardID   string `json:"ward_id"`
}

// HTTPRegistry resolves devices against a remote device service. Lookups
// carry a bounded timeout so a slow registry cannot stall ingestion.
type HTTPRegistry struct {
	client *resty.Client
	logger *slog.Logger
}

// NewHTTPRegistry creates a registry client for the configured device
// service.
func NewHTTPRegistry(cfg *config.RegistryConfig, logger *slog.Logger) *HTTPRegistry {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &HTTPRegistry{
		client: client,
		logger: logger.With("component", "device-registry"),
	}
}

// WardIDForDevice resolves a device id via the device service.
func (r *HTTPRegistry) WardIDForDevice(ctx context.Context, deviceID string) (string, error) {
	var device deviceResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(&device).
		SetPathParam("deviceID", deviceID).
		Get("/v1/devices/{deviceID}")

	if err != nil {
		return "", fmt.Errorf("device lookup failed: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return "", ErrDeviceNotAssigned
	case resp.IsError():
		return "", fmt.Errorf("device service returned status %d", resp.StatusCode())
	}

	if device.WardID == "" {
		return "", ErrDeviceNotAssigned
	}

	return device.WardID, nil
}
