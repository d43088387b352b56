package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/plantline/plantline/internal/core/domain"
	"github.com/plantline/plantline/internal/core/ports"
)

// Expander turns a pinned snapshot plus a target quantity into the complete,
// dependency-ordered task set. Expansion is a pure function of its inputs:
// the same snapshot and quantity always yield the same topology, only ids
// and timestamps differ.
type Expander struct {
	recipeSnapRepo ports.RecipeSnapshotRepository
	logger         ports.Logger
}

// NewExpander creates a new task expander.
func NewExpander(recipeSnapRepo ports.RecipeSnapshotRepository, logger ports.Logger) *Expander {
	return &Expander{recipeSnapRepo: recipeSnapRepo, logger: logger}
}

// RecipeExpansion is the task chain family generated for one recipe
// snapshot. Task persistence must be all-or-nothing per expansion.
type RecipeExpansion struct {
	RecipeSnapshotID uuid.UUID
	Tasks            []*domain.Task
}

// ExpandRecipe generates the task set for a recipe-based project:
// TargetQuantity independent execution chains, each a linear sequence over
// the snapshot's steps sorted by order.
func (e *Expander) ExpandRecipe(project *domain.Project, snapshot *domain.RecipeSnapshot) (*RecipeExpansion, error) {
	tasks, err := e.expandChains(project, snapshot, project.TargetQuantity, nil, nil)
	if err != nil {
		return nil, err
	}
	return &RecipeExpansion{RecipeSnapshotID: snapshot.ID, Tasks: tasks}, nil
}

// ExpandProduct generates one independent family of execution chains per
// recipe reference of the product snapshot, each sized
// TargetQuantity * ref.Quantity.
func (e *Expander) ExpandProduct(ctx context.Context, project *domain.Project, snapshot *domain.ProductSnapshot) ([]*RecipeExpansion, error) {
	expansions := make([]*RecipeExpansion, 0, len(snapshot.Recipes))
	for _, ref := range snapshot.Recipes {
		recipeSnap, err := e.recipeSnapRepo.GetByID(ctx, ref.RecipeSnapshotID)
		if err != nil {
			return nil, fmt.Errorf("failed to load recipe snapshot: %w", err)
		}
		if recipeSnap == nil {
			return nil, &domain.NotFoundError{Kind: "recipe snapshot", ID: ref.RecipeSnapshotID}
		}

		total := project.TargetQuantity * ref.Quantity
		tasks, err := e.expandChains(project, recipeSnap, total, &snapshot.OriginalProductID, &snapshot.ID)
		if err != nil {
			return nil, err
		}
		expansions = append(expansions, &RecipeExpansion{RecipeSnapshotID: recipeSnap.ID, Tasks: tasks})
	}
	return expansions, nil
}

// expandChains walks the snapshot's steps sorted by order and creates one
// task per (step, execution). Each execution forms a linear chain: a task
// depends on the previous step's task of the same execution, and executions
// are independent of one another.
func (e *Expander) expandChains(
	project *domain.Project,
	snapshot *domain.RecipeSnapshot,
	totalExecutions int,
	productID, productSnapshotID *uuid.UUID,
) ([]*domain.Task, error) {
	steps := make([]domain.StepSnapshot, len(snapshot.Steps))
	copy(steps, snapshot.Steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })

	// A step without a device type poisons the whole recipe: the caller
	// must not persist a partial task set.
	for _, step := range steps {
		if step.DeviceTypeID == uuid.Nil {
			return nil, &domain.MissingDeviceTypeError{
				RecipeSnapshotID: snapshot.ID,
				StepOrder:        step.Order,
				StepName:         step.Name,
			}
		}
	}

	tasks := make([]*domain.Task, 0, len(steps)*totalExecutions)
	now := time.Now()
	for execution := 1; execution <= totalExecutions; execution++ {
		var previous *domain.Task
		for i, step := range steps {
			task := &domain.Task{
				ID:                 uuid.Must(uuid.NewV7()),
				ProjectID:          project.ID,
				RecipeSnapshotID:   snapshot.ID,
				RecipeStepID:       step.ID,
				ProductID:          productID,
				ProductSnapshotID:  productSnapshotID,
				Name:               step.Name,
				ExecutionNumber:    execution,
				TotalExecutions:    totalExecutions,
				StepOrder:          step.Order,
				// Only the final position in the sorted chain is terminal;
				// duplicate order numbers must not yield two terminal tasks.
				IsLastStepInRecipe: i == len(steps)-1,
				DeviceTypeID:       step.DeviceTypeID,
				Priority:           project.Priority,
				Status:             domain.TaskStatusPending,
				EstimatedDuration:  step.EstimatedDuration,
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			if previous != nil {
				depID := previous.ID
				task.DependentTaskID = &depID
			}
			tasks = append(tasks, task)
			previous = task
		}
	}

	e.logger.Debug("Expanded recipe snapshot",
		"snapshot", snapshot.ID, "executions", totalExecutions, "tasks", len(tasks))
	return tasks, nil
}

// GroupByDeviceType aggregates generated tasks into per-device-type counts
// for the tasks-generated notification.
func GroupByDeviceType(expansions []*RecipeExpansion) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int)
	for _, expansion := range expansions {
		for _, task := range expansion.Tasks {
			counts[task.DeviceTypeID]++
		}
	}
	return counts
}
