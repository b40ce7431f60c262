// Package alerting creates and manages alerts raised from critical
// findings and geofence violations. Alert creation is exposed behind a
// Client so the pipeline can target either the in-process service or a
// remote alert service.
package alerting

import (
	"context"

	"caremon-go/internal/domain"
)

// CreateRequest describes an alert to be created immediately, bypassing
// any batching or deduplication a full alerting pipeline might do.
type CreateRequest struct {
	WardID       string          `json:"ward_id"`
	AlertType    string          `json:"alert_type"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Severity     domain.Severity `json:"severity"`
	DataSnapshot map[string]any  `json:"data_snapshot,omitempty"`
}

// Client creates alerts on behalf of the detection pipeline.
type Client interface {
	// CreateImmediateAlert creates an active alert right away.
	CreateImmediateAlert(ctx context.Context, req CreateRequest) (*domain.Alert, error)
}
