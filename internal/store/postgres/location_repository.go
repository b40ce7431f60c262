package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"caremon-go/internal/domain"
	"caremon-go/internal/store"
)

// LocationRepository implements store.LocationRepository using PostgreSQL.
type LocationRepository struct {
	db *DB
}

// NewLocationRepository creates a new PostgreSQL-backed location repository.
func NewLocationRepository(db *DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Create stores a single location sample.
func (r *LocationRepository) Create(ctx context.Context, sample *domain.LocationSample) error {
	query := `
		INSERT INTO location_samples (
			id, ward_id, latitude, longitude, accuracy, source, observed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.pool.Exec(ctx, query,
		sample.ID,
		sample.WardID,
		sample.Latitude,
		sample.Longitude,
		sample.Accuracy,
		sample.Source,
		sample.ObservedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create location sample: %w", err)
	}

	return nil
}

// Latest retrieves the most recent location for a ward.
// Returns nil, nil when no location has been recorded.
func (r *LocationRepository) Latest(ctx context.Context, wardID string) (*domain.LocationSample, error) {
	query := `
		SELECT id, ward_id, latitude, longitude, accuracy, source, observed_at
		FROM location_samples
		WHERE ward_id = $1
		ORDER BY observed_at DESC
		LIMIT 1
	`

	row := r.db.pool.QueryRow(ctx, query, wardID)

	var sample domain.LocationSample
	err := row.Scan(
		&sample.ID,
		&sample.WardID,
		&sample.Latitude,
		&sample.Longitude,
		&sample.Accuracy,
		&sample.Source,
		&sample.ObservedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest location: %w", err)
	}

	return &sample, nil
}

// History retrieves location samples for a ward in a time range, newest first.
func (r *LocationRepository) History(ctx context.Context, wardID string, filter store.LocationFilter) ([]*domain.LocationSample, error) {
	query := `
		SELECT id, ward_id, latitude, longitude, accuracy, source, observed_at
		FROM location_samples
		WHERE ward_id = $1
	`
	args := []interface{}{wardID}
	argNum := 2

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
		return nil, fmt.Errorf("failed to query location history: %w", err)
	}
	defer rows.Close()

	var samples []*domain.LocationSample
	for rows.Next() {
		var sample domain.LocationSample
		err := rows.Scan(
			&sample.ID,
			&sample.WardID,
			&sample.Latitude,
			&sample.Longitude,
			&sample.Accuracy,
			&sample.Source,
			&sample.ObservedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location sample: %w", err)
		}
		samples = append(samples, &sample)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating location samples: %w", err)
	}

	return samples, nil
}

// DeleteOlderThan removes samples observed before the cutoff.
func (r *LocationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.pool.Exec(ctx,
		`DELETE FROM location_samples WHERE observed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old locations: %w", err)
	}

	return result.RowsAffected(), nil
}
