package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"caremon-go/internal/domain"
	"caremon-go/internal/store"
)

// TelemetryRepository implements store.TelemetryRepository using PostgreSQL.
type TelemetryRepository struct {
	db *DB
}

// NewTelemetryRepository creates a new PostgreSQL-backed telemetry repository.
func NewTelemetryRepository(db *DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

// CreateBatch stores all samples of a batch in a single transaction so a
// batch is never partially persisted.
func (r *TelemetryRepository) CreateBatch(ctx context.Context, batch *domain.TelemetryBatch) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO metric_samples (
			batch_id, ward_id, device_id, metric_type, value, unit,
			quality_score, observed_at, received_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for i := range batch.Samples {
		sample := &batch.Samples[i]
		_, err := tx.Exec(ctx, query,
			batch.ID,
			batch.WardID,
			batch.DeviceID,
			sample.Type,
			sample.Value,
			nullableString(sample.Unit),
			sample.QualityScore,
			sample.ObservedAt,
			batch.ReceivedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	return nil
}

// ListByWard retrieves samples for a ward matching the filter, newest first.
func (r *TelemetryRepository) ListByWard(ctx context.Context, wardID string, filter store.TelemetryFilter) ([]*domain.MetricSample, error) {
	query := `
		SELECT ward_id, device_id, metric_type, value, unit, quality_score, observed_at
		FROM metric_samples
		WHERE ward_id = $1
	`
	args := []interface{}{wardID}
	argNum := 2

	if filter.MetricType != "" {
		query += fmt.Sprintf(" AND metric_type = $%d", argNum)
		args = append(args, filter.MetricType)
		argNum++
	}

	if !filter.From.IsZero() {
		query += fmt.Sprintf(" AND observed_at >= $%d", argNum)
		args = append(args, filter.From)
		argNum++
	}

	if !filter.To.IsZero() {
		query += fmt.Sprintf(" AND observed_at <= $%d", argNum)
		args = append(args, filter.To)
		argNum++
	}

	query += " ORDER BY observed_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
		argNum++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list samples: %w", err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

// Latest retrieves the most recent sample per metric type for a ward.
func (r *TelemetryRepository) Latest(ctx context.Context, wardID string) ([]*domain.MetricSample, error) {
	query := `
		SELECT DISTINCT ON (metric_type)
			ward_id, device_id, metric_type, value, unit, quality_score, observed_at
		FROM metric_samples
		WHERE ward_id = $1
		ORDER BY metric_type, observed_at DESC
	`

	rows, err := r.db.pool.Query(ctx, query, wardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest samples: %w", err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

// DeleteOlderThan removes samples observed before the cutoff.
func (r *TelemetryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.pool.Exec(ctx,
		`DELETE FROM metric_samples WHERE observed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old samples: %w", err)
	}

	return result.RowsAffected(), nil
}

// scanSamples scans multiple rows into a slice of MetricSamples.
func scanSamples(rows pgx.Rows) ([]*domain.MetricSample, error) {
	var samples []*domain.MetricSample

	for rows.Next() {
		var sample domain.MetricSample
		var unit *string

		err := rows.Scan(
			&sample.WardID,
			&sample.DeviceID,
			&sample.Type,
			&sample.Value,
			&unit,
			&sample.QualityScore,
			&sample.ObservedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}

		if unit != nil {
			sample.Unit = *unit
		}

		samples = append(samples, &sample)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating samples: %w", err)
	}

	return samples, nil
}

// nullableString returns nil if the string is empty, otherwise returns a pointer to it.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
