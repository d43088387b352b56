// Package ports defines the interfaces (ports) for the hexagonal architecture.
// These interfaces decouple the domain from infrastructure implementations.
package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/plantline/plantline/internal/core/domain"
)

// RecipeRepository defines the interface for live recipe persistence.
type RecipeRepository interface {
	// Create persists a new recipe.
	Create(ctx context.Context, recipe *domain.Recipe) error

	// GetByID retrieves a recipe by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Recipe, error)

	// Update updates an existing recipe.
	Update(ctx context.Context, recipe *domain.Recipe) error

	// Delete soft-deletes a recipe.
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves all recipes that are not deleted.
	List(ctx context.Context) ([]*domain.Recipe, error)
}

// ProductRepository defines the interface for live product persistence.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*domain.Product, error)
}

// RecipeSnapshotRepository defines the interface for immutable recipe
// snapshot persistence. Snapshots are append-only: there is no update or
// delete.
type RecipeSnapshotRepository interface {
	// Create persists a new snapshot version.
	Create(ctx context.Context, snapshot *domain.RecipeSnapshot) error

	// GetByID retrieves a snapshot by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RecipeSnapshot, error)

	// GetLatest retrieves the highest-version snapshot for a live recipe,
	// or nil when none exists.
	GetLatest(ctx context.Context, recipeID uuid.UUID) (*domain.RecipeSnapshot, error)

	// ListByRecipe retrieves all snapshot versions of a recipe, newest first.
	ListByRecipe(ctx context.Context, recipeID uuid.UUID) ([]*domain.RecipeSnapshot, error)
}

// ProductSnapshotRepository defines the interface for immutable product
// snapshot persistence.
type ProductSnapshotRepository interface {
	Create(ctx context.Context, snapshot *domain.ProductSnapshot) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductSnapshot, error)
	GetLatest(ctx context.Context, productID uuid.UUID) (*domain.ProductSnapshot, error)
}

// ProjectRepository defines the interface for project persistence.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	Update(ctx context.Context, project *domain.Project) error

	// Delete soft-deletes a project. Task removal is the project service's
	// responsibility, not a storage trigger.
	Delete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, filter ProjectFilter) ([]*domain.Project, error)
}

// ProjectFilter defines filtering options for project queries.
type ProjectFilter struct {
	Status *domain.ProjectStatus
	Limit  int
	Offset int
}

// TaskRepository defines the interface for task persistence.
type TaskRepository interface {
	// Create persists a new task.
	Create(ctx context.Context, task *domain.Task) error

	// CreateBatch persists a recipe's full task chain in one transaction.
	// Expansion must be all-or-nothing per recipe.
	CreateBatch(ctx context.Context, tasks []*domain.Task) error

	// GetByID retrieves a task by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update updates an existing task.
	Update(ctx context.Context, task *domain.Task) error

	// List retrieves tasks with optional filtering.
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// ListByProject retrieves every task of a project.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error)

	// CountByProject returns total and completed task counts for a project.
	CountByProject(ctx context.Context, projectID uuid.UUID) (total, completed int64, err error)

	// DeleteByProject removes all tasks of a project. Tasks never outlive
	// their project.
	DeleteByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
}

// TaskFilter defines filtering options for task queries.
type TaskFilter struct {
	ProjectID        *uuid.UUID
	RecipeSnapshotID *uuid.UUID
	DeviceTypeID     *uuid.UUID
	DeviceID         *uuid.UUID
	WorkerID         *uuid.UUID
	Status           *domain.TaskStatus
	OnlyLastStep     bool
	Limit            int
	Offset           int
}

// DeviceRepository defines the interface for device persistence.
type DeviceRepository interface {
	Create(ctx context.Context, device *domain.Device) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Device, error)
	Update(ctx context.Context, device *domain.Device) error
	List(ctx context.Context, filter DeviceFilter) ([]*domain.Device, error)
}

// DeviceFilter defines filtering options for device queries.
type DeviceFilter struct {
	DeviceTypeID *uuid.UUID
	Status       *domain.DeviceStatus
	Limit        int
	Offset       int
}

// AlertRepository defines the interface for alert persistence.
type AlertRepository interface {
	Create(ctx context.Context, alert *domain.Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Alert, error)
	Update(ctx context.Context, alert *domain.Alert) error

	// ListActive retrieves alerts that are not yet resolved.
	ListActive(ctx context.Context) ([]*domain.Alert, error)
}
