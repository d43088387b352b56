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

// ProjectRepository implements ports.ProjectRepository using SQLite.
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create persists a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	data, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	_, err = r.db.conn.ExecContext(ctx,
		"INSERT INTO projects (id, status, is_deleted, updated_at, data) VALUES (?, ?, ?, ?, ?)",
		idBytes(project.ID), string(project.Status), boolInt(project.IsDeleted),
		project.UpdatedAt.UnixMilli(), data,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

// GetByID retrieves a project by its ID, or nil when it is missing or deleted.
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	row := r.db.conn.QueryRowContext(ctx,
		"SELECT data FROM projects WHERE id = ? AND is_deleted = 0", idBytes(id))

	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var project domain.Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	return &project, nil
}

// Update updates an existing project.
func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	data, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	_, err = r.db.conn.ExecContext(ctx,
		"UPDATE projects SET status = ?, is_deleted = ?, updated_at = ?, data = ? WHERE id = ?",
		string(project.Status), boolInt(project.IsDeleted), project.UpdatedAt.UnixMilli(),
		data, idBytes(project.ID),
	)
	return err
}

// Delete soft-deletes a project.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.conn.ExecContext(ctx,
		"UPDATE projects SET is_deleted = 1, data = json_set(data, '$.is_deleted', json('true')) WHERE id = ?",
		idBytes(id))
	return err
}

// List retrieves projects with optional filtering.
func (r *ProjectRepository) List(ctx context.Context, filter ports.ProjectFilter) ([]*domain.Project, error) {
	query := "SELECT data FROM projects WHERE is_deleted = 0"
	var args []interface{}

	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*filter.Status))
	}

	query += " ORDER BY updated_at DESC"
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

	var projects []*domain.Project
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var project domain.Project
		if err := json.Unmarshal(data, &project); err != nil {
			return nil, fmt.Errorf("failed to unmarshal project: %w", err)
		}
		projects = append(projects, &project)
	}
	return projects, rows.Err()
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)
