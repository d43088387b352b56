package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/plantline/plantline/internal/core/domain"
)

// seedTask inserts a task directly into the task repository.
func seedTask(t *testing.T, e *env, projectID, snapshotID uuid.UUID, status domain.TaskStatus, lastStep bool) *domain.Task {
	t.Helper()
	task := &domain.Task{
		ID:                 uuid.Must(uuid.NewV7()),
		ProjectID:          projectID,
		RecipeSnapshotID:   snapshotID,
		RecipeStepID:       uuid.New(),
		Name:               "step",
		ExecutionNumber:    1,
		TotalExecutions:    1,
		StepOrder:          1,
		IsLastStepInRecipe: lastStep,
		DeviceTypeID:       uuid.New(),
		Status:             status,
	}
	if err := e.taskRepo.Create(context.Background(), task); err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}
	return task
}

func seedActiveProject(t *testing.T, e *env, target int) *domain.Project {
	t.Helper()
	project := domain.NewRecipeProject("run", uuid.New(), target)
	project.Activate()
	if err := e.projectRepo.Create(context.Background(), project); err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}
	return project
}

func TestRecalculateProgress(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	project := seedActiveProject(t, e, 10)
	snap := uuid.New()

	seedTask(t, e, project.ID, snap, domain.TaskStatusCompleted, false)
	seedTask(t, e, project.ID, snap, domain.TaskStatusCompleted, true)
	seedTask(t, e, project.ID, snap, domain.TaskStatusOngoing, false)

	updated, err := e.production.Recalculate(ctx, project.ID)
	if err != nil {
		t.Fatalf("recalculate failed: %v", err)
	}

	if updated.Progress != 66.67 {
		t.Errorf("expected progress 66.67, got %v", updated.Progress)
	}
	if updated.ProducedQuantity != 1 {
		t.Errorf("expected produced quantity 1, got %d", updated.ProducedQuantity)
	}
	if updated.Status != domain.ProjectStatusActive {
		t.Errorf("project with in-flight tasks must stay ACTIVE, got %s", updated.Status)
	}
}

func TestRecalculateEmptyTaskSet(t *testing.T) {
	e := newEnv()
	project := seedActiveProject(t, e, 5)

	updated, err := e.production.Recalculate(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("recalculate failed: %v", err)
	}
	if updated.Progress != 0 || updated.ProducedQuantity != 0 {
		t.Errorf("empty task set must yield zeros, got progress=%v produced=%d", updated.Progress, updated.ProducedQuantity)
	}
}

func TestRecalculateIdempotent(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	project := seedActiveProject(t, e, 10)
	snap := uuid.New()
	seedTask(t, e, project.ID, snap, domain.TaskStatusCompleted, true)
	seedTask(t, e, project.ID, snap, domain.TaskStatusPending, false)

	first, err := e.production.Recalculate(ctx, project.ID)
	if err != nil {
		t.Fatalf("first recalculate failed: %v", err)
	}
	second, err := e.production.Recalculate(ctx, project.ID)
	if err != nil {
		t.Fatalf("second recalculate failed: %v", err)
	}

	if first.Progress != second.Progress || first.ProducedQuantity != second.ProducedQuantity {
		t.Errorf("recalculation on an unchanged task set must be stable: %v/%d vs %v/%d",
			first.Progress, first.ProducedQuantity, second.Progress, second.ProducedQuantity)
	}
}

func TestRecalculateBottleneck(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	frameSnap := uuid.New()
	wheelSnap := uuid.New()
	productSnap := &domain.ProductSnapshot{
		ID:                uuid.Must(uuid.NewV7()),
		OriginalProductID: uuid.New(),
		Version:           1,
		Recipes: []domain.ProductSnapshotRef{
			{RecipeID: uuid.New(), RecipeSnapshotID: frameSnap, Quantity: 2},
			{RecipeID: uuid.New(), RecipeSnapshotID: wheelSnap, Quantity: 3},
		},
	}
	if err := e.productSnapRepo.Create(ctx, productSnap); err != nil {
		t.Fatal(err)
	}

	project := domain.NewProductProject("bikes", productSnap.OriginalProductID, 100)
	project.ProductSnapshotID = &productSnap.ID
	project.Activate()
	if err := e.projectRepo.Create(ctx, project); err != nil {
		t.Fatal(err)
	}

	// 10 completed terminal frame executions, 9 completed terminal wheel
	// executions: min(floor(10/2), floor(9/3)) = 3.
	for i := 0; i < 10; i++ {
		seedTask(t, e, project.ID, frameSnap, domain.TaskStatusCompleted, true)
	}
	for i := 0; i < 9; i++ {
		seedTask(t, e, project.ID, wheelSnap, domain.TaskStatusCompleted, true)
	}
	// In-flight work must earn no credit.
	seedTask(t, e, project.ID, wheelSnap, domain.TaskStatusOngoing, true)

	updated, err := e.production.Recalculate(ctx, project.ID)
	if err != nil {
		t.Fatalf("recalculate failed: %v", err)
	}
	if updated.ProducedQuantity != 3 {
		t.Errorf("expected bottlenecked produced quantity 3, got %d", updated.ProducedQuantity)
	}
}

func TestRecalculateCompletesProject(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	project := seedActiveProject(t, e, 2)
	snap := uuid.New()
	seedTask(t, e, project.ID, snap, domain.TaskStatusCompleted, true)
	seedTask(t, e, project.ID, snap, domain.TaskStatusCompleted, true)

	updated, err := e.production.Recalculate(ctx, project.ID)
	if err != nil {
		t.Fatalf("recalculate failed: %v", err)
	}
	if updated.Status != domain.ProjectStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", updated.Status)
	}
	if updated.Progress != 100 {
		t.Errorf("expected progress 100, got %v", updated.Progress)
	}
	if updated.EndDate == nil {
		t.Error("completion must stamp the end date")
	}
}

func TestRecalculateCompletesOnAllTerminal(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	project := seedActiveProject(t, e, 5)
	snap := uuid.New()
	seedTask(t, e, project.ID, snap, domain.TaskStatusCompleted, true)
	seedTask(t, e, project.ID, snap, domain.TaskStatusFailed, true)

	updated, err := e.production.Recalculate(ctx, project.ID)
	if err != nil {
		t.Fatalf("recalculate failed: %v", err)
	}
	// Every task terminal: the run is over even though the target was missed.
	if updated.Status != domain.ProjectStatusCompleted {
		t.Errorf("expected COMPLETED when all tasks are terminal, got %s", updated.Status)
	}
}

func TestRecalculateRevertsCompletion(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	project := seedActiveProject(t, e, 5)
	snap := uuid.New()
	task := seedTask(t, e, project.ID, snap, domain.TaskStatusCompleted, true)

	if _, err := e.production.Recalculate(ctx, project.ID); err != nil {
		t.Fatalf("recalculate failed: %v", err)
	}
	stored, _ := e.projectRepo.GetByID(ctx, project.ID)
	if stored.Status != domain.ProjectStatusCompleted {
		t.Fatalf("setup: expected COMPLETED, got %s", stored.Status)
	}

	// Re-open the task: completion is re-derived, not ratcheted.
	task.Status = domain.TaskStatusOngoing
	if err := e.taskRepo.Update(ctx, task); err != nil {
		t.Fatal(err)
	}

	updated, err := e.production.Recalculate(ctx, project.ID)
	if err != nil {
		t.Fatalf("recalculate failed: %v", err)
	}
	if updated.Status != domain.ProjectStatusActive {
		t.Errorf("expected reversion to ACTIVE, got %s", updated.Status)
	}
	if updated.EndDate != nil {
		t.Error("reversion must clear the end date")
	}
}
