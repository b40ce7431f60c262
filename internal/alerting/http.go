package alerting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"

	"caremon-go/internal/config"
	"caremon-go/internal/domain"
)

// headerInternalService authenticates internal service-to-service calls
// to the alert service's create endpoint.
const headerInternalService = "X-Internal-Service"

// HTTPClient creates alerts against a remote alert service. Used when
// alerting runs as its own deployment.
type HTTPClient struct {
	client *resty.Client
	logger *slog.Logger
}

// NewHTTPClient creates an alert-service client.
func NewHTTPClient(cfg *config.AlertingConfig, logger *slog.Logger) *HTTPClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader(headerInternalService, cfg.ServiceName)

	return &HTTPClient{
		client: client,
		logger: logger.With("component", "alert-client"),
	}
}

// CreateImmediateAlert posts the alert to the remote service's internal
// create endpoint.
func (c *HTTPClient) CreateImmediateAlert(ctx context.Context, req CreateRequest) (*domain.Alert, error) {
	var alert domain.Alert
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&alert).
		Post("/internal/alerts/immediate")

	if err != nil {
		return nil, fmt.Errorf("alert creation request failed: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("alert service returned status %d", resp.StatusCode())
	}

	return &alert, nil
}
