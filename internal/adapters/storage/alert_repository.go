package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/plantline/plantline/internal/core/domain"
	"github.com/plantline/plantline/internal/core/ports"
)

// AlertRepository implements ports.AlertRepository using SQLite.
type AlertRepository struct {
	db *DB
}

// NewAlertRepository creates a new alert repository.
func NewAlertRepository(db *DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create persists a new alert.
func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	_, err = r.db.conn.ExecContext(ctx,
		"INSERT INTO alerts (id, status, created_at, data) VALUES (?, ?, ?, ?)",
		idBytes(alert.ID), string(alert.Status), alert.CreatedAt.UnixMilli(), data,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// GetByID retrieves an alert by its ID, or nil when none exists.
func (r *AlertRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Alert, error) {
	row := r.db.conn.QueryRowContext(ctx,
		"SELECT data FROM alerts WHERE id = ?", idBytes(id))

	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var alert domain.Alert
	if err := json.Unmarshal(data, &alert); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert: %w", err)
	}
	return &alert, nil
}

// Update updates an existing alert.
func (r *AlertRepository) Update(ctx context.Context, alert *domain.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	_, err = r.db.conn.ExecContext(ctx,
		"UPDATE alerts SET status = ?, data = ? WHERE id = ?",
		string(alert.Status), data, idBytes(alert.ID),
	)
	return err
}

// ListActive retrieves alerts that are not yet resolved, newest first.
func (r *AlertRepository) ListActive(ctx context.Context) ([]*domain.Alert, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		"SELECT data FROM alerts WHERE status != ? ORDER BY created_at DESC",
		string(domain.AlertStatusResolved))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*domain.Alert
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var alert domain.Alert
		if err := json.Unmarshal(data, &alert); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert: %w", err)
		}
		alerts = append(alerts, &alert)
	}
	return alerts, rows.Err()
}

var _ ports.AlertRepository = (*AlertRepository)(nil)
