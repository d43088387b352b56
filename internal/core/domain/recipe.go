// Package domain contains the core business entities of Plantline.
// These entities are pure and have no knowledge of persistence or presentation.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// QualityCheck describes an inspection attached to a recipe step.
type QualityCheck struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool   `json:"required" yaml:"required"`
}

// RecipeStep is one ordered manufacturing step bound to a device type.
type RecipeStep struct {
	ID                uuid.UUID      `json:"id" yaml:"-"`
	Order             int            `json:"order" yaml:"order"`
	Name              string         `json:"name" yaml:"name"`
	Description       string         `json:"description,omitempty" yaml:"description,omitempty"`
	DeviceTypeID      uuid.UUID      `json:"device_type_id" yaml:"device_type_id"`
	EstimatedDuration time.Duration  `json:"estimated_duration" yaml:"estimated_duration"`
	DependsOn         []uuid.UUID    `json:"depends_on,omitempty" yaml:"-"`
	QualityChecks     []QualityCheck `json:"quality_checks,omitempty" yaml:"quality_checks,omitempty"`
}

// Recipe is the live, editable definition of how to produce one unit.
type Recipe struct {
	ID                uuid.UUID     `json:"id"`
	Name              string        `json:"name"`
	Description       string        `json:"description,omitempty"`
	Steps             []RecipeStep  `json:"steps"`
	EstimatedDuration time.Duration `json:"estimated_duration"`
	IsDeleted         bool          `json:"is_deleted"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// NewRecipe creates an empty recipe.
func NewRecipe(name, description string) *Recipe {
	now := time.Now()
	return &Recipe{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        name,
		Description: description,
		Steps:       []RecipeStep{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AddStep appends a step and returns a pointer to the stored copy.
func (r *Recipe) AddStep(name string, order int, deviceTypeID uuid.UUID, duration time.Duration, dependsOn []uuid.UUID) *RecipeStep {
	step := RecipeStep{
		ID:                uuid.Must(uuid.NewV7()),
		Order:             order,
		Name:              name,
		DeviceTypeID:      deviceTypeID,
		EstimatedDuration: duration,
		DependsOn:         dependsOn,
	}
	r.Steps = append(r.Steps, step)
	r.UpdatedAt = time.Now()
	return &r.Steps[len(r.Steps)-1]
}

// GetStep returns the step with the given ID, or nil.
func (r *Recipe) GetStep(stepID uuid.UUID) *RecipeStep {
	for i := range r.Steps {
		if r.Steps[i].ID == stepID {
			return &r.Steps[i]
		}
	}
	return nil
}

// RecomputeDuration re-derives the recipe's estimated duration as the sum of
// its step durations. Invoked on every save.
func (r *Recipe) RecomputeDuration() {
	var total time.Duration
	for _, step := range r.Steps {
		total += step.EstimatedDuration
	}
	r.EstimatedDuration = total
}

// ValidateSteps checks that every depends_on reference resolves inside the
// step collection and that the induced graph is acyclic. Dangling references
// are reported before cycle detection so the editor sees the cheaper error
// first.
func ValidateSteps(steps []RecipeStep) error {
	byID := make(map[uuid.UUID]*RecipeStep, len(steps))
	for i := range steps {
		byID[steps[i].ID] = &steps[i]
	}

	for i := range steps {
		for _, depID := range steps[i].DependsOn {
			if _, ok := byID[depID]; !ok {
				return &DanglingDependencyError{StepOrder: steps[i].Order, Missing: depID}
			}
		}
	}

	// White/gray/black DFS: recStack holds the gray set, visited the black.
	visited := make(map[uuid.UUID]bool, len(steps))
	recStack := make(map[uuid.UUID]bool, len(steps))

	var dfs func(id uuid.UUID) *RecipeStep
	dfs = func(id uuid.UUID) *RecipeStep {
		visited[id] = true
		recStack[id] = true

		for _, depID := range byID[id].DependsOn {
			if !visited[depID] {
				if offender := dfs(depID); offender != nil {
					return offender
				}
			} else if recStack[depID] {
				return byID[depID]
			}
		}

		recStack[id] = false
		return nil
	}

	for i := range steps {
		if !visited[steps[i].ID] {
			if offender := dfs(steps[i].ID); offender != nil {
				return &CycleError{StepID: offender.ID, Order: offender.Order}
			}
		}
	}

	return nil
}

// Validate runs the structural checks required before a recipe may be saved.
func (r *Recipe) Validate() error {
	return ValidateSteps(r.Steps)
}
