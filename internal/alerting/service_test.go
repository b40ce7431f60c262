package alerting

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caremon-go/internal/domain"
	"caremon-go/internal/events"
	"caremon-go/internal/queue/memory"
	storememory "caremon-go/internal/store/memory"
)

func newTestService(t *testing.T) (*Service, *storememory.AlertRepository, *memory.Queue) {
	t.Helper()

	repo := storememory.NewAlertRepository()
	q := memory.NewQueue(10)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewService(repo, events.NewBrokerPublisher(q, logger), logger), repo, q
}

func TestService_CreateImmediateAlert(t *testing.T) {
	svc, repo, q := newTestService(t)
	ctx := context.Background()

	alert, err := svc.CreateImmediateAlert(ctx, CreateRequest{
		WardID:      "w-1",
		AlertType:   "low_oxygen_critical",
		Title:       "Critically Low Blood Oxygen",
		Description: "SpO2 at 80%",
		Severity:    domain.SeverityCritical,
		DataSnapshot: map[string]any{
			"metric_type": "spo2",
			"value":       80.0,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, alert)

	assert.NotEmpty(t, alert.ID)
	assert.Equal(t, domain.AlertStatusActive, alert.Status)
	assert.Equal(t, "w-1", alert.WardID)
	assert.False(t, alert.CreatedAt.IsZero())

	stored, err := repo.GetByID(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, "low_oxygen_critical", stored.AlertType)

	// An alert.created event was announced.
	assert.Equal(t, 1, q.Len())
}

func TestService_Transitions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	alert, err := svc.CreateImmediateAlert(ctx, CreateRequest{
		WardID:    "w-1",
		AlertType: "fall_detected",
		Title:     "Fall Detected",
		Severity:  domain.SeverityCritical,
	})
	require.NoError(t, err)

	acked, err := svc.Acknowledge(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AlertStatusAcknowledged, acked.Status)

	// Acknowledging twice is rejected.
	_, err = svc.Acknowledge(ctx, alert.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidAlertTransition)

	resolved, err := svc.Resolve(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AlertStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	// Resolved alerts cannot transition further.
	_, err = svc.MarkFalsePositive(ctx, alert.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidAlertTransition)
}

func TestService_MarkFalsePositive(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	alert, err := svc.CreateImmediateAlert(ctx, CreateRequest{
		WardID:    "w-1",
		AlertType: "high_heart_rate",
		Title:     "High Heart Rate",
		Severity:  domain.SeverityHigh,
	})
	require.NoError(t, err)

	fp, err := svc.MarkFalsePositive(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AlertStatusFalsePositive, fp.Status)
	require.NotNil(t, fp.ResolvedAt)
}

func TestService_UnknownAlert(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAlertNotFound)

	_, err = svc.Acknowledge(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAlertNotFound)
}
