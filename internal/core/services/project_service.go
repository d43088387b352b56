package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/plantline/plantline/internal/core/domain"
	"github.com/plantline/plantline/internal/core/ports"
)

// ProjectService owns the project life cycle. Activation runs the full
// pipeline: pin a snapshot, re-validate it, expand the task set, persist it
// per recipe, then notify downstream consumers.
type ProjectService struct {
	projectRepo ports.ProjectRepository
	taskRepo    ports.TaskRepository
	snapshots   *SnapshotService
	expander    *Expander
	production  *ProductionService
	events      ports.EventSink
	logger      ports.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(
	projectRepo ports.ProjectRepository,
	taskRepo ports.TaskRepository,
	snapshots *SnapshotService,
	expander *Expander,
	production *ProductionService,
	events ports.EventSink,
	logger ports.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		snapshots:   snapshots,
		expander:    expander,
		production:  production,
		events:      events,
		logger:      logger,
	}
}

// CreateProject persists a new planning-state project.
func (s *ProjectService) CreateProject(ctx context.Context, project *domain.Project) error {
	if project.TargetQuantity < 1 {
		return fmt.Errorf("target quantity must be positive, got %d", project.TargetQuantity)
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	s.logger.Info("Project created", "id", project.ID, "name", project.Name, "target", project.TargetQuantity)
	return nil
}

// GetProject retrieves a project by ID.
func (s *ProjectService) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, &domain.NotFoundError{Kind: "project", ID: id}
	}
	return project, nil
}

// Activate transitions a planning project to ACTIVE: snapshot the definition,
// expand the full task set, and persist it. Task creation is all-or-nothing
// per recipe; the tasks-generated notification fires only after every task is
// durably created.
func (s *ProjectService) Activate(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != domain.ProjectStatusPlanning {
		return nil, fmt.Errorf("project %s is %s, only PLANNING projects can be activated", project.ID, project.Status)
	}

	var expansions []*RecipeExpansion
	if project.IsProductBased() {
		snapshot, err := s.snapshots.GetOrCreateProductSnapshot(ctx, *project.ProductID)
		if err != nil {
			return nil, err
		}
		project.ProductSnapshotID = &snapshot.ID

		expansions, err = s.expander.ExpandProduct(ctx, project, snapshot)
		if err != nil {
			return nil, err
		}
	} else {
		if project.RecipeID == nil {
			return nil, fmt.Errorf("project %s references neither a recipe nor a product", project.ID)
		}
		snapshot, err := s.snapshots.GetOrCreateRecipeSnapshot(ctx, *project.RecipeID)
		if err != nil {
			return nil, err
		}
		project.RecipeSnapshotID = &snapshot.ID

		expansion, err := s.expander.ExpandRecipe(project, snapshot)
		if err != nil {
			return nil, err
		}
		expansions = []*RecipeExpansion{expansion}
	}

	project.Activate()
	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to persist project: %w", err)
	}

	for _, expansion := range expansions {
		if err := s.taskRepo.CreateBatch(ctx, expansion.Tasks); err != nil {
			return nil, fmt.Errorf("failed to persist task chain for snapshot %s: %w", expansion.RecipeSnapshotID, err)
		}
	}

	if _, err := s.production.Recalculate(ctx, project.ID); err != nil {
		s.logger.Error("Failed to recalculate after expansion", "project", project.ID, "error", err)
	}

	counts := GroupByDeviceType(expansions)
	payload := make(map[string]int, len(counts))
	total := 0
	for deviceType, n := range counts {
		payload[deviceType.String()] = n
		total += n
	}
	if err := s.events.Publish(ctx, ports.TopicTasksGenerated, payload); err != nil {
		s.logger.Error("Failed to publish tasks-generated", "project", project.ID, "error", err)
	}

	s.logger.Info("Project activated", "id", project.ID, "tasks", total)
	return project, nil
}

// Hold transitions an active project to ON_HOLD.
func (s *ProjectService) Hold(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	return s.setStatus(ctx, projectID, domain.ProjectStatusActive, domain.ProjectStatusOnHold)
}

// Resume transitions an on-hold project back to ACTIVE.
func (s *ProjectService) Resume(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	return s.setStatus(ctx, projectID, domain.ProjectStatusOnHold, domain.ProjectStatusActive)
}

// Cancel transitions a project to CANCELLED.
func (s *ProjectService) Cancel(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status == domain.ProjectStatusCompleted || project.Status == domain.ProjectStatusCancelled {
		return nil, fmt.Errorf("project %s is already %s", project.ID, project.Status)
	}

	project.Status = domain.ProjectStatusCancelled
	project.UpdatedAt = time.Now()
	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to persist project: %w", err)
	}

	s.publishProject(ctx, project)
	return project, nil
}

// Delete removes a project and all its tasks. Tasks are owned by the project
// that spawned them and never outlive it.
func (s *ProjectService) Delete(ctx context.Context, projectID uuid.UUID) error {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return err
	}

	removed, err := s.taskRepo.DeleteByProject(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("failed to delete project tasks: %w", err)
	}
	if err := s.projectRepo.Delete(ctx, project.ID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.logger.Info("Project deleted", "id", project.ID, "tasks_removed", removed)
	return nil
}

// ListProjects lists projects with optional filtering.
func (s *ProjectService) ListProjects(ctx context.Context, filter ports.ProjectFilter) ([]*domain.Project, error) {
	return s.projectRepo.List(ctx, filter)
}

func (s *ProjectService) setStatus(ctx context.Context, projectID uuid.UUID, from, to domain.ProjectStatus) (*domain.Project, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != from {
		return nil, fmt.Errorf("project %s is %s, expected %s", project.ID, project.Status, from)
	}

	project.Status = to
	project.UpdatedAt = time.Now()
	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to persist project: %w", err)
	}

	s.publishProject(ctx, project)
	return project, nil
}

func (s *ProjectService) publishProject(ctx context.Context, project *domain.Project) {
	if err := s.events.Publish(ctx, ports.TopicProjectUpdated, project); err != nil {
		s.logger.Error("Failed to publish project update", "project", project.ID, "error", err)
	}
}
