package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus represents the current state of a production project.
type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "PLANNING"
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusOnHold    ProjectStatus = "ON_HOLD"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
	ProjectStatusCancelled ProjectStatus = "CANCELLED"
)

// Project is one production run: a target quantity executed against a pinned
// recipe or product snapshot. Exactly one of RecipeSnapshotID or
// ProductSnapshotID is set.
type Project struct {
	ID                uuid.UUID     `json:"id"`
	Name              string        `json:"name"`
	Description       string        `json:"description,omitempty"`
	TargetQuantity    int           `json:"target_quantity"`
	Priority          int           `json:"priority"`
	RecipeID          *uuid.UUID    `json:"recipe_id,omitempty"`
	RecipeSnapshotID  *uuid.UUID    `json:"recipe_snapshot_id,omitempty"`
	ProductID         *uuid.UUID    `json:"product_id,omitempty"`
	ProductSnapshotID *uuid.UUID    `json:"product_snapshot_id,omitempty"`
	Status            ProjectStatus `json:"status"`
	Progress          float64       `json:"progress"`
	ProducedQuantity  int           `json:"produced_quantity"`
	StartDate         *time.Time    `json:"start_date,omitempty"`
	EndDate           *time.Time    `json:"end_date,omitempty"`
	IsDeleted         bool          `json:"is_deleted"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// NewRecipeProject creates a planning-state project producing a recipe.
func NewRecipeProject(name string, recipeID uuid.UUID, targetQuantity int) *Project {
	p := newProject(name, targetQuantity)
	p.RecipeID = &recipeID
	return p
}

// NewProductProject creates a planning-state project producing a product.
func NewProductProject(name string, productID uuid.UUID, targetQuantity int) *Project {
	p := newProject(name, targetQuantity)
	p.ProductID = &productID
	return p
}

func newProject(name string, targetQuantity int) *Project {
	now := time.Now()
	return &Project{
		ID:             uuid.Must(uuid.NewV7()),
		Name:           name,
		TargetQuantity: targetQuantity,
		Status:         ProjectStatusPlanning,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsProductBased reports whether the project produces a multi-recipe product.
func (p *Project) IsProductBased() bool {
	return p.ProductID != nil
}

// Activate marks the project active and stamps the start date once.
func (p *Project) Activate() {
	now := time.Now()
	p.Status = ProjectStatusActive
	if p.StartDate == nil {
		p.StartDate = &now
	}
	p.UpdatedAt = now
}

// Complete marks the project completed, stamping the end date if unset.
func (p *Project) Complete() {
	now := time.Now()
	p.Status = ProjectStatusCompleted
	if p.EndDate == nil {
		p.EndDate = &now
	}
	p.UpdatedAt = now
}

// Reactivate reverts a completed project to active and clears the end date.
// Completion is re-derived from task state, not a one-way ratchet.
func (p *Project) Reactivate() {
	p.Status = ProjectStatusActive
	p.EndDate = nil
	p.UpdatedAt = time.Now()
}
