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

// DeviceRepository implements ports.DeviceRepository using SQLite.
type DeviceRepository struct {
	db *DB
}

// NewDeviceRepository creates a new device repository.
func NewDeviceRepository(db *DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Create persists a new device.
func (r *DeviceRepository) Create(ctx context.Context, device *domain.Device) error {
	data, err := json.Marshal(device)
	if err != nil {
		return fmt.Errorf("failed to marshal device: %w", err)
	}

	_, err = r.db.conn.ExecContext(ctx,
		"INSERT INTO devices (id, device_type_id, status, data) VALUES (?, ?, ?, ?)",
		idBytes(device.ID), idBytes(device.DeviceTypeID), string(device.Status), data,
	)
	if err != nil {
		return fmt.Errorf("failed to insert device: %w", err)
	}
	return nil
}

// GetByID retrieves a device by its ID, or nil when none exists.
func (r *DeviceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Device, error) {
	row := r.db.conn.QueryRowContext(ctx,
		"SELECT data FROM devices WHERE id = ?", idBytes(id))

	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var device domain.Device
	if err := json.Unmarshal(data, &device); err != nil {
		return nil, fmt.Errorf("failed to unmarshal device: %w", err)
	}
	return &device, nil
}

// Update updates an existing device.
func (r *DeviceRepository) Update(ctx context.Context, device *domain.Device) error {
	data, err := json.Marshal(device)
	if err != nil {
		return fmt.Errorf("failed to marshal device: %w", err)
	}

	_, err = r.db.conn.ExecContext(ctx,
		"UPDATE devices SET device_type_id = ?, status = ?, data = ? WHERE id = ?",
		idBytes(device.DeviceTypeID), string(device.Status), data, idBytes(device.ID),
	)
	return err
}

// List retrieves devices with optional filtering.
func (r *DeviceRepository) List(ctx context.Context, filter ports.DeviceFilter) ([]*domain.Device, error) {
	query := "SELECT data FROM devices WHERE 1=1"
	var args []interface{}

	if filter.DeviceTypeID != nil {
		query += " AND device_type_id = ?"
		args = append(args, idBytes(*filter.DeviceTypeID))
	}
	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*filter.Status))
	}

	query += " ORDER BY id ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*domain.Device
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var device domain.Device
		if err := json.Unmarshal(data, &device); err != nil {
			return nil, fmt.Errorf("failed to unmarshal device: %w", err)
		}
		devices = append(devices, &device)
	}
	return devices, rows.Err()
}

var _ ports.DeviceRepository = (*DeviceRepository)(nil)
