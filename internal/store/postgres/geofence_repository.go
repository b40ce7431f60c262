package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"caremon-go/internal/domain"
)

// GeofenceRepository implements store.GeofenceRepository using PostgreSQL.
// The shape definition (circle or polygon) is stored as a JSONB document
// so both shapes share one table.
type GeofenceRepository struct {
	db *DB
}

// NewGeofenceRepository creates a new PostgreSQL-backed geofence repository.
func NewGeofenceRepository(db *DB) *GeofenceRepository {
	return &GeofenceRepository{db: db}
}

// geofenceDefinition is the JSONB payload for the shape definition.
type geofenceDefinition struct {
	Circle  *domain.Circle    `json:"circle,omitempty"`
	Polygon []domain.GeoPoint `json:"polygon,omitempty"`
}

// Create stores a new geofence.
func (r *GeofenceRepository) Create(ctx context.Context, g *domain.Geofence) error {
	definition, err := json.Marshal(geofenceDefinition{Circle: g.Circle, Polygon: g.Polygon})
	if err != nil {
		return fmt.Errorf("failed to encode geofence definition: %w", err)
	}

	query := `
		INSERT INTO geofences (
			id, ward_id, name, type, shape, definition, enabled, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.pool.Exec(ctx, query,
		g.ID,
		g.WardID,
		g.Name,
		g.Type,
		g.Shape,
		definition,
		g.Enabled,
		g.CreatedAt,
		g.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create geofence: %w", err)
	}

	return nil
}

// Update modifies an existing geofence.
func (r *GeofenceRepository) Update(ctx context.Context, g *domain.Geofence) error {
	definition, err := json.Marshal(geofenceDefinition{Circle: g.Circle, Polygon: g.Polygon})
	if err != nil {
		return fmt.Errorf("failed to encode geofence definition: %w", err)
	}

	query := `
		UPDATE geofences SET
			ward_id = $2,
			name = $3,
			type = $4,
			shape = $5,
			definition = $6,
			enabled = $7,
			updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.pool.Exec(ctx, query,
		g.ID,
		g.WardID,
		g.Name,
		g.Type,
		g.Shape,
		definition,
		g.Enabled,
		g.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update geofence: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrGeofenceNotFound
	}

	return nil
}

// Delete removes a geofence by ID.
func (r *GeofenceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `DELETE FROM geofences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete geofence: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrGeofenceNotFound
	}

	return nil
}

// GetByID retrieves a geofence by its ID.
func (r *GeofenceRepository) GetByID(ctx context.Context, id string) (*domain.Geofence, error) {
	query := `
		SELECT id, ward_id, name, type, shape, definition, enabled, created_at, updated_at
		FROM geofences
		WHERE id = $1
	`

	row := r.db.pool.QueryRow(ctx, query, id)

	g, err := scanGeofence(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGeofenceNotFound
		}
		return nil, fmt.Errorf("failed to get geofence: %w", err)
	}

	return g, nil
}

// ListByWard retrieves all geofences for a ward.
func (r *GeofenceRepository) ListByWard(ctx context.Context, wardID string) ([]*domain.Geofence, error) {
	return r.list(ctx, `WHERE ward_id = $1`, wardID)
}

// ListEnabledByWard retrieves the ward's enabled geofences only.
func (r *GeofenceRepository) ListEnabledByWard(ctx context.Context, wardID string) ([]*domain.Geofence, error) {
	return r.list(ctx, `WHERE ward_id = $1 AND enabled = TRUE`, wardID)
}

// list retrieves geofences matching the given condition.
func (r *GeofenceRepository) list(ctx context.Context, condition string, args ...interface{}) ([]*domain.Geofence, error) {
	query := fmt.Sprintf(`
		SELECT id, ward_id, name, type, shape, definition, enabled, created_at, updated_at
		FROM geofences
		%s
		ORDER BY id
	`, condition)

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list geofences: %w", err)
	}
	defer rows.Close()

	var fences []*domain.Geofence
	for rows.Next() {
		g, err := scanGeofence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan geofence: %w", err)
		}
		fences = append(fences, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating geofences: %w", err)
	}

	return fences, nil
}

// scanGeofence scans a single row into a Geofence.
func scanGeofence(row pgx.Row) (*domain.Geofence, error) {
	var g domain.Geofence
	var definition []byte

	err := row.Scan(
		&g.ID,
		&g.WardID,
		&g.Name,
		&g.Type,
		&g.Shape,
		&definition,
		&g.Enabled,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	var def geofenceDefinition
	if err := json.Unmarshal(definition, &def); err != nil {
		return nil, fmt.Errorf("failed to decode geofence definition: %w", err)
	}
	g.Circle = def.Circle
	g.Polygon = def.Polygon

	return &g, nil
}
