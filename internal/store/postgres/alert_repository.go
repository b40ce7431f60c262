package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"caremon-go/internal/domain"
)

// AlertRepository implements store.AlertRepository using PostgreSQL.
type AlertRepository struct {
	db *DB
}

// NewAlertRepository creates a new PostgreSQL-backed alert repository.
func NewAlertRepository(db *DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create stores a new alert.
func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	snapshot, err := marshalSnapshot(alert.DataSnapshot)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO alerts (
			id, ward_id, alert_type, title, description, severity,
			status, data_snapshot, created_at, updated_at, resolved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.pool.Exec(ctx, query,
		alert.ID,
		alert.WardID,
		alert.AlertType,
		alert.Title,
		alert.Description,
		alert.Severity,
		alert.Status,
		snapshot,
		alert.CreatedAt,
		alert.UpdatedAt,
		alert.ResolvedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

// Update modifies an existing alert.
func (r *AlertRepository) Update(ctx context.Context, alert *domain.Alert) error {
	query := `
		UPDATE alerts SET
			status = $2,
			updated_at = $3,
			resolved_at = $4
		WHERE id = $1
	`

	result, err := r.db.pool.Exec(ctx, query,
		alert.ID,
		alert.Status,
		alert.UpdatedAt,
		alert.ResolvedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrAlertNotFound
	}

	return nil
}

// GetByID retrieves an alert by its ID.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	query := `
		SELECT id, ward_id, alert_type, title, description, severity,
			   status, data_snapshot, created_at, updated_at, resolved_at
		FROM alerts
		WHERE id = $1
	`

	row := r.db.pool.QueryRow(ctx, query, id)

	alert, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return alert, nil
}

// List retrieves alerts matching the filter criteria.
func (r *AlertRepository) List(ctx context.Context, filter domain.AlertFilter) ([]*domain.Alert, error) {
	query := `
		SELECT id, ward_id, alert_type, title, description, severity,
			   status, data_snapshot, created_at, updated_at, resolved_at
		FROM alerts
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.WardID != "" {
		query += fmt.Sprintf(" AND ward_id = $%d", argNum)
		args = append(args, filter.WardID)
		argNum++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filter.Status)
		argNum++
	}

	if filter.Severity != "" {
		query += fmt.Sprintf(" AND severity = $%d", argNum)
		args = append(args, filter.Severity)
		argNum++
	}

	query += " ORDER BY created_at DESC"

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
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*domain.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}

	return alerts, nil
}

// scanAlert scans a single row into an Alert.
func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var alert domain.Alert
	var description *string
	var snapshot []byte

	err := row.Scan(
		&alert.ID,
		&alert.WardID,
		&alert.AlertType,
		&alert.Title,
		&description,
		&alert.Severity,
		&alert.Status,
		&snapshot,
		&alert.CreatedAt,
		&alert.UpdatedAt,
		&alert.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}

	if description != nil {
		alert.Description = *description
	}
	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &alert.DataSnapshot); err != nil {
			return nil, fmt.Errorf("failed to decode data snapshot: %w", err)
		}
	}

	return &alert, nil
}

// marshalSnapshot encodes the data snapshot for storage, nil when empty.
func marshalSnapshot(snapshot map[string]any) ([]byte, error) {
	if len(snapshot) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode data snapshot: %w", err)
	}
	return data, nil
}
