package services

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/plantline/plantline/internal/core/domain"
	"github.com/plantline/plantline/internal/core/ports"
)

// ProductionService recomputes a project's progress and produced quantity
// from current task state. Recomputation is always from scratch, never
// incremental, so a stale run is corrected by the next one. It never raises
// domain errors: empty task sets simply yield zero progress and output.
type ProductionService struct {
	projectRepo     ports.ProjectRepository
	taskRepo        ports.TaskRepository
	productSnapRepo ports.ProductSnapshotRepository
	events          ports.EventSink
	logger          ports.Logger
}

// NewProductionService creates a new production aggregation service.
func NewProductionService(
	projectRepo ports.ProjectRepository,
	taskRepo ports.TaskRepository,
	productSnapRepo ports.ProductSnapshotRepository,
	events ports.EventSink,
	logger ports.Logger,
) *ProductionService {
	return &ProductionService{
		projectRepo:     projectRepo,
		taskRepo:        taskRepo,
		productSnapRepo: productSnapRepo,
		events:          events,
		logger:          logger,
	}
}

// Recalculate re-derives progress, produced quantity, and completion status
// for the project and persists the result. Called after every task creation
// and every task status mutation.
func (s *ProductionService) Recalculate(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if project == nil {
		return nil, &domain.NotFoundError{Kind: "project", ID: projectID}
	}

	tasks, err := s.taskRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project tasks: %w", err)
	}

	var completed int
	allTerminal := len(tasks) > 0
	for _, task := range tasks {
		if task.Status == domain.TaskStatusCompleted {
			completed++
		}
		if !task.Status.IsTerminal() {
			allTerminal = false
		}
	}

	if len(tasks) == 0 {
		project.Progress = 0
	} else {
		project.Progress = round2(float64(completed) / float64(len(tasks)) * 100)
	}

	produced, err := s.producedQuantity(ctx, project, tasks)
	if err != nil {
		return nil, err
	}
	project.ProducedQuantity = produced

	switch {
	case produced >= project.TargetQuantity && project.TargetQuantity > 0:
		project.Progress = 100
		project.Complete()
	case allTerminal:
		project.Complete()
	case project.Status == domain.ProjectStatusCompleted:
		// A task was re-opened after completion: completion is re-derived,
		// not ratcheted.
		project.Reactivate()
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to persist project: %w", err)
	}

	if err := s.events.Publish(ctx, ports.TopicProjectUpdated, project); err != nil {
		s.logger.Error("Failed to publish project update", "project", project.ID, "error", err)
	}

	s.logger.Debug("Project recalculated",
		"project", project.ID, "progress", project.Progress, "produced", project.ProducedQuantity)
	return project, nil
}

// producedQuantity counts finished execution chains. For product-based
// projects the bottleneck rule applies: each recipe reference yields
// floor(completedTerminal/quantity) complete sets, and the slowest recipe
// caps the product output. Partial, in-flight executions earn no credit.
func (s *ProductionService) producedQuantity(ctx context.Context, project *domain.Project, tasks []*domain.Task) (int, error) {
	terminalCompleted := make(map[uuid.UUID]int)
	for _, task := range tasks {
		if task.IsLastStepInRecipe && task.Status == domain.TaskStatusCompleted {
			terminalCompleted[task.RecipeSnapshotID]++
		}
	}

	if !project.IsProductBased() {
		var total int
		for _, n := range terminalCompleted {
			total += n
		}
		return total, nil
	}

	if project.ProductSnapshotID == nil {
		return 0, nil
	}
	snapshot, err := s.productSnapRepo.GetByID(ctx, *project.ProductSnapshotID)
	if err != nil {
		return 0, fmt.Errorf("failed to load product snapshot: %w", err)
	}
	if snapshot == nil || len(snapshot.Recipes) == 0 {
		return 0, nil
	}

	produced := math.MaxInt
	for _, ref := range snapshot.Recipes {
		if ref.Quantity <= 0 {
			continue
		}
		sets := terminalCompleted[ref.RecipeSnapshotID] / ref.Quantity
		if sets < produced {
			produced = sets
		}
	}
	if produced == math.MaxInt {
		return 0, nil
	}
	return produced, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
