package domain

import (
	"time"

	"github.com/google/uuid"
)

// StepSnapshot is an immutable copy of a recipe step. Snapshot steps carry
// their own stable IDs; DependsOn references point at sibling snapshot steps.
type StepSnapshot struct {
	ID                uuid.UUID      `json:"id"`
	OriginalStepID    uuid.UUID      `json:"original_step_id"`
	Order             int            `json:"order"`
	Name              string         `json:"name"`
	DeviceTypeID      uuid.UUID      `json:"device_type_id"`
	EstimatedDuration time.Duration  `json:"estimated_duration"`
	DependsOn         []uuid.UUID    `json:"depends_on,omitempty"`
	QualityChecks     []QualityCheck `json:"quality_checks,omitempty"`
}

// RecipeSnapshot is an immutable, versioned copy of a recipe taken at
// execution time. Never mutated after creation; superseded by a newer
// version when the live recipe changes.
type RecipeSnapshot struct {
	ID                uuid.UUID      `json:"id"`
	OriginalRecipeID  uuid.UUID      `json:"original_recipe_id"`
	Version           int            `json:"version"`
	Name              string         `json:"name"`
	Steps             []StepSnapshot `json:"steps"`
	EstimatedDuration time.Duration  `json:"estimated_duration"`
	CreatedAt         time.Time      `json:"created_at"`
}

// SnapshotRecipe deep-copies a live recipe into a new snapshot with the given
// version. Step IDs are re-minted; depends_on references are remapped onto
// the new IDs so the snapshot is self-contained.
func SnapshotRecipe(recipe *Recipe, version int) *RecipeSnapshot {
	idMap := make(map[uuid.UUID]uuid.UUID, len(recipe.Steps))
	for _, step := range recipe.Steps {
		idMap[step.ID] = uuid.Must(uuid.NewV7())
	}

	steps := make([]StepSnapshot, len(recipe.Steps))
	for i, step := range recipe.Steps {
		deps := make([]uuid.UUID, 0, len(step.DependsOn))
		for _, depID := range step.DependsOn {
			deps = append(deps, idMap[depID])
		}
		checks := make([]QualityCheck, len(step.QualityChecks))
		copy(checks, step.QualityChecks)
		steps[i] = StepSnapshot{
			ID:                idMap[step.ID],
			OriginalStepID:    step.ID,
			Order:             step.Order,
			Name:              step.Name,
			DeviceTypeID:      step.DeviceTypeID,
			EstimatedDuration: step.EstimatedDuration,
			DependsOn:         deps,
			QualityChecks:     checks,
		}
	}

	return &RecipeSnapshot{
		ID:                uuid.Must(uuid.NewV7()),
		OriginalRecipeID:  recipe.ID,
		Version:           version,
		Name:              recipe.Name,
		Steps:             steps,
		EstimatedDuration: recipe.EstimatedDuration,
		CreatedAt:         time.Now(),
	}
}

// GetStep returns the snapshot step with the given ID, or nil.
func (s *RecipeSnapshot) GetStep(stepID uuid.UUID) *StepSnapshot {
	for i := range s.Steps {
		if s.Steps[i].ID == stepID {
			return &s.Steps[i]
		}
	}
	return nil
}

// ProductSnapshotRef pins one recipe of a product snapshot to an exact
// recipe snapshot version.
type ProductSnapshotRef struct {
	RecipeID         uuid.UUID `json:"recipe_id"`
	RecipeSnapshotID uuid.UUID `json:"recipe_snapshot_id"`
	Quantity         int       `json:"quantity"`
}

// ProductSnapshot is an immutable, versioned copy of a product whose recipe
// references point at recipe snapshots, not live recipes.
type ProductSnapshot struct {
	ID                uuid.UUID            `json:"id"`
	OriginalProductID uuid.UUID            `json:"original_product_id"`
	Version           int                  `json:"version"`
	Name              string               `json:"name"`
	Recipes           []ProductSnapshotRef `json:"recipes"`
	CreatedAt         time.Time            `json:"created_at"`
}

// SnapshotProduct copies a live product into a new snapshot. resolved maps
// each live recipe ID to the recipe snapshot pinned for this bundle; every
// referenced recipe must already be resolved.
func SnapshotProduct(product *Product, version int, resolved map[uuid.UUID]uuid.UUID) *ProductSnapshot {
	refs := make([]ProductSnapshotRef, len(product.Recipes))
	for i, ref := range product.Recipes {
		refs[i] = ProductSnapshotRef{
			RecipeID:         ref.RecipeID,
			RecipeSnapshotID: resolved[ref.RecipeID],
			Quantity:         ref.Quantity,
		}
	}

	return &ProductSnapshot{
		ID:                uuid.Must(uuid.NewV7()),
		OriginalProductID: product.ID,
		Version:           version,
		Name:              product.Name,
		Recipes:           refs,
		CreatedAt:         time.Now(),
	}
}
