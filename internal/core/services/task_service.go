package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/plantline/plantline/internal/core/domain"
	"github.com/plantline/plantline/internal/core/ports"
)

// TaskService drives task life-cycle transitions. Every mutation is
// validated against the state machine before persistence, triggers a
// production recomputation, and publishes an outbound event. Publish and
// recompute failures are logged, never propagated: they must not roll back
// the persisted transition.
type TaskService struct {
	taskRepo   ports.TaskRepository
	deviceRepo ports.DeviceRepository
	registry   ports.DeviceRegistry
	production *ProductionService
	events     ports.EventSink
	logger     ports.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(
	taskRepo ports.TaskRepository,
	deviceRepo ports.DeviceRepository,
	registry ports.DeviceRegistry,
	production *ProductionService,
	events ports.EventSink,
	logger ports.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:   taskRepo,
		deviceRepo: deviceRepo,
		registry:   registry,
		production: production,
		events:     events,
		logger:     logger,
	}
}

// GetTask retrieves a task by ID.
func (s *TaskService) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.loadTask(ctx, id)
}

// ListTasks lists tasks with optional filtering.
func (s *TaskService) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]*domain.Task, error) {
	return s.taskRepo.List(ctx, filter)
}

// Assign binds a worker and a device to a task. The device's type must match
// the task's required device type; the check runs at every (re)binding.
func (s *TaskService) Assign(ctx context.Context, taskID, deviceID, workerID uuid.UUID) (*domain.Task, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	deviceType, err := s.registry.GetDeviceTypeOf(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if deviceType != task.DeviceTypeID {
		return nil, &domain.DeviceTypeMismatchError{
			TaskID:     task.ID,
			DeviceID:   deviceID,
			Required:   task.DeviceTypeID,
			DeviceType: deviceType,
		}
	}

	task.Assign(deviceID, workerID)
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to persist assignment: %w", err)
	}

	s.publish(ctx, ports.TopicTaskAssigned, task)
	s.logger.Info("Task assigned", "task", task.ID, "device", deviceID, "worker", workerID)
	return task, nil
}

// Start transitions a task to ONGOING. The dependent task, if any, must
// already be completed; the bound device is marked in use.
func (s *TaskService) Start(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.DependentTaskID != nil {
		dependent, err := s.loadTask(ctx, *task.DependentTaskID)
		if err != nil {
			return nil, err
		}
		if dependent.Status != domain.TaskStatusCompleted {
			return nil, &domain.InvalidTransitionError{
				From: task.Status, To: domain.TaskStatusOngoing,
				Reason: fmt.Sprintf("dependent task %s is %s, not COMPLETED", dependent.ID, dependent.Status),
			}
		}
	}

	if err := task.Start(); err != nil {
		return nil, err
	}
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to persist task: %w", err)
	}

	s.setDeviceStatus(ctx, task.DeviceID, domain.DeviceStatusInUse, "task "+task.ID.String())
	s.afterTransition(ctx, task)
	return task, nil
}

// Pause transitions an ongoing task to PAUSED.
func (s *TaskService) Pause(ctx context.Context, taskID uuid.UUID, reason, pausedBy string) (*domain.Task, error) {
	return s.mutate(ctx, taskID, func(task *domain.Task) error {
		return task.Pause(reason, pausedBy)
	})
}

// Resume transitions a paused task back to ONGOING.
func (s *TaskService) Resume(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	return s.mutate(ctx, taskID, func(task *domain.Task) error {
		return task.Resume()
	})
}

// Complete transitions an ongoing task to COMPLETED and releases its device.
func (s *TaskService) Complete(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := task.Complete(); err != nil {
		return nil, err
	}
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to persist task: %w", err)
	}

	s.releaseDevice(ctx, task.DeviceID)
	s.publish(ctx, ports.TopicTaskCompleted, task)
	s.afterTransition(ctx, task)
	return task, nil
}

// Fail transitions an ongoing task to FAILED and releases its device.
func (s *TaskService) Fail(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := task.Fail(); err != nil {
		return nil, err
	}
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to persist task: %w", err)
	}

	s.releaseDevice(ctx, task.DeviceID)
	s.afterTransition(ctx, task)
	return task, nil
}

// mutate applies a state-machine transition and runs the shared
// persist/recompute/publish tail.
func (s *TaskService) mutate(ctx context.Context, taskID uuid.UUID, transition func(*domain.Task) error) (*domain.Task, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := transition(task); err != nil {
		return nil, err
	}
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to persist task: %w", err)
	}

	s.afterTransition(ctx, task)
	return task, nil
}

func (s *TaskService) loadTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if task == nil {
		return nil, &domain.NotFoundError{Kind: "task", ID: id}
	}
	return task, nil
}

// afterTransition publishes the status change and recomputes project
// aggregates. Neither failure affects the already-persisted transition.
func (s *TaskService) afterTransition(ctx context.Context, task *domain.Task) {
	s.publish(ctx, ports.TopicTaskStatusChanged, task)

	if _, err := s.production.Recalculate(ctx, task.ProjectID); err != nil {
		s.logger.Error("Failed to recalculate project", "project", task.ProjectID, "error", err)
	}

	s.logger.Info("Task transitioned", "task", task.ID, "status", task.Status)
}

func (s *TaskService) publish(ctx context.Context, topic string, task *domain.Task) {
	if err := s.events.Publish(ctx, topic, task); err != nil {
		s.logger.Error("Failed to publish task event", "topic", topic, "task", task.ID, "error", err)
	}
}

func (s *TaskService) setDeviceStatus(ctx context.Context, deviceID *uuid.UUID, status domain.DeviceStatus, reason string) {
	if deviceID == nil {
		return
	}
	device, err := s.deviceRepo.GetByID(ctx, *deviceID)
	if err != nil || device == nil {
		s.logger.Warn("Device lookup failed during transition", "device", deviceID, "error", err)
		return
	}
	device.SetStatus(status, reason)
	if err := s.deviceRepo.Update(ctx, device); err != nil {
		s.logger.Error("Failed to persist device status", "device", device.ID, "error", err)
		return
	}
	if err := s.events.Publish(ctx, ports.TopicDeviceUpdated, device); err != nil {
		s.logger.Error("Failed to publish device update", "device", device.ID, "error", err)
	}
}

// releaseDevice returns an in-use device to the available pool. Devices in
// maintenance stay quarantined.
func (s *TaskService) releaseDevice(ctx context.Context, deviceID *uuid.UUID) {
	if deviceID == nil {
		return
	}
	device, err := s.deviceRepo.GetByID(ctx, *deviceID)
	if err != nil || device == nil {
		return
	}
	if device.Status != domain.DeviceStatusInUse {
		return
	}
	device.SetStatus(domain.DeviceStatusAvailable, "")
	if err := s.deviceRepo.Update(ctx, device); err != nil {
		s.logger.Error("Failed to release device", "device", device.ID, "error", err)
	}
}
