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

// TaskRepository implements ports.TaskRepository using SQLite.
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create persists a new task.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	return r.insert(ctx, r.db.conn, task)
}

// CreateBatch persists a recipe's full task chain in one transaction, so an
// expansion lands all-or-nothing per recipe.
func (r *TaskRepository) CreateBatch(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, task := range tasks {
		if err := r.insert(ctx, tx, task); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *TaskRepository) insert(ctx context.Context, conn execer, task *domain.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	query := `
		INSERT INTO tasks (id, project_id, recipe_snapshot_id, device_type_id,
		                   device_id, worker_id, status, is_last_step, priority, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = conn.ExecContext(ctx, query,
		idBytes(task.ID),
		idBytes(task.ProjectID),
		idBytes(task.RecipeSnapshotID),
		idBytes(task.DeviceTypeID),
		nullableID(task.DeviceID),
		nullableID(task.WorkerID),
		string(task.Status),
		boolInt(task.IsLastStepInRecipe),
		task.Priority,
		data,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// GetByID retrieves a task by its ID, or nil when none exists.
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	row := r.db.conn.QueryRowContext(ctx,
		"SELECT data FROM tasks WHERE id = ?", idBytes(id))

	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return unmarshalTask(data)
}

// Update updates an existing task together with its filter columns.
func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	query := `
		UPDATE tasks SET
			device_id = ?, worker_id = ?, status = ?, priority = ?, data = ?
		WHERE id = ?
	`
	_, err = r.db.conn.ExecContext(ctx, query,
		nullableID(task.DeviceID),
		nullableID(task.WorkerID),
		string(task.Status),
		task.Priority,
		data,
		idBytes(task.ID),
	)
	return err
}

// List retrieves tasks with optional filtering.
func (r *TaskRepository) List(ctx context.Context, filter ports.TaskFilter) ([]*domain.Task, error) {
	query := "SELECT data FROM tasks WHERE 1=1"
	var args []interface{}

	if filter.ProjectID != nil {
		query += " AND project_id = ?"
		args = append(args, idBytes(*filter.ProjectID))
	}
	if filter.RecipeSnapshotID != nil {
		query += " AND recipe_snapshot_id = ?"
		args = append(args, idBytes(*filter.RecipeSnapshotID))
	}
	if filter.DeviceTypeID != nil {
		query += " AND device_type_id = ?"
		args = append(args, idBytes(*filter.DeviceTypeID))
	}
	if filter.DeviceID != nil {
		query += " AND device_id = ?"
		args = append(args, idBytes(*filter.DeviceID))
	}
	if filter.WorkerID != nil {
		query += " AND worker_id = ?"
		args = append(args, idBytes(*filter.WorkerID))
	}
	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*filter.Status))
	}
	if filter.OnlyLastStep {
		query += " AND is_last_step = 1"
	}

	query += " ORDER BY priority DESC, id ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return r.queryTasks(ctx, query, args...)
}

// ListByProject retrieves every task of a project.
func (r *TaskRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error) {
	return r.queryTasks(ctx,
		"SELECT data FROM tasks WHERE project_id = ? ORDER BY id ASC", idBytes(projectID))
}

// CountByProject returns total and completed task counts for a project.
func (r *TaskRepository) CountByProject(ctx context.Context, projectID uuid.UUID) (int64, int64, error) {
	row := r.db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(status = 'COMPLETED'), 0) FROM tasks WHERE project_id = ?",
		idBytes(projectID))

	var total, completed int64
	if err := row.Scan(&total, &completed); err != nil {
		return 0, 0, err
	}
	return total, completed, nil
}

// DeleteByProject removes all tasks of a project.
func (r *TaskRepository) DeleteByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	result, err := r.db.conn.ExecContext(ctx,
		"DELETE FROM tasks WHERE project_id = ?", idBytes(projectID))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *TaskRepository) queryTasks(ctx context.Context, query string, args ...interface{}) ([]*domain.Task, error) {
	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		task, err := unmarshalTask(data)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func unmarshalTask(data []byte) (*domain.Task, error) {
	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

var _ ports.TaskRepository = (*TaskRepository)(nil)
