package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/plantline/plantline/internal/core/domain"
	"github.com/plantline/plantline/internal/core/ports"
)

// EmergencyService reacts to EMERGENCY alerts: it force-pauses the
// referenced task and quarantines the referenced device, and reverses both
// effects when the alert is resolved. Resolution is idempotent per alert.
type EmergencyService struct {
	alertRepo  ports.AlertRepository
	taskRepo   ports.TaskRepository
	deviceRepo ports.DeviceRepository
	production *ProductionService
	events     ports.EventSink
	logger     ports.Logger
}

// NewEmergencyService creates a new emergency interrupt handler.
func NewEmergencyService(
	alertRepo ports.AlertRepository,
	taskRepo ports.TaskRepository,
	deviceRepo ports.DeviceRepository,
	production *ProductionService,
	events ports.EventSink,
	logger ports.Logger,
) *EmergencyService {
	return &EmergencyService{
		alertRepo:  alertRepo,
		taskRepo:   taskRepo,
		deviceRepo: deviceRepo,
		production: production,
		events:     events,
		logger:     logger,
	}
}

// Raise creates an EMERGENCY alert and applies its interrupts: an ONGOING
// referenced task moves to PAUSED_EMERGENCY, a referenced device not already
// in maintenance is quarantined with its prior status recorded for
// restoration.
func (s *EmergencyService) Raise(ctx context.Context, title, message, reportedBy string, taskID, deviceID *uuid.UUID) (*domain.Alert, error) {
	alert := domain.NewAlert(domain.AlertTypeEmergency, title, message, reportedBy)
	alert.TaskID = taskID
	alert.DeviceID = deviceID

	// Validate the references up front; interrupts are applied only after
	// the alert is persisted, so an interrupted task or quarantined device
	// always has a resolvable alert behind it.
	var task *domain.Task
	if taskID != nil {
		loaded, err := s.taskRepo.GetByID(ctx, *taskID)
		if err != nil {
			return nil, fmt.Errorf("failed to load task: %w", err)
		}
		if loaded == nil {
			return nil, &domain.NotFoundError{Kind: "task", ID: *taskID}
		}
		task = loaded
	}

	var device *domain.Device
	if deviceID != nil {
		loaded, err := s.deviceRepo.GetByID(ctx, *deviceID)
		if err != nil {
			return nil, fmt.Errorf("failed to load device: %w", err)
		}
		if loaded == nil {
			return nil, &domain.NotFoundError{Kind: "device", ID: *deviceID}
		}
		device = loaded
		if device.Status != domain.DeviceStatusMaintenance {
			prior := device.Status
			alert.DevicePriorStatus = &prior
		}
	}

	if err := s.alertRepo.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to persist alert: %w", err)
	}

	if task != nil && task.Status == domain.TaskStatusOngoing {
		if err := task.PauseEmergency(title, reportedBy); err != nil {
			return nil, err
		}
		if err := s.taskRepo.Update(ctx, task); err != nil {
			return nil, fmt.Errorf("failed to persist task: %w", err)
		}
		s.publish(ctx, ports.TopicTaskStatusChanged, task)
		s.recalculate(ctx, task.ProjectID)
	}

	if device != nil && alert.DevicePriorStatus != nil {
		device.SetStatus(domain.DeviceStatusMaintenance, title)
		if err := s.deviceRepo.Update(ctx, device); err != nil {
			return nil, fmt.Errorf("failed to persist device: %w", err)
		}
		s.publish(ctx, ports.TopicDeviceUpdated, device)
	}

	s.publish(ctx, ports.TopicAlertRaised, alert)
	s.logger.Warn("Emergency raised", "alert", alert.ID, "title", title, "task", taskID, "device", deviceID)
	return alert, nil
}

// Acknowledge marks an active alert as seen.
func (s *EmergencyService) Acknowledge(ctx context.Context, alertID uuid.UUID) (*domain.Alert, error) {
	alert, err := s.loadAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}

	alert.Acknowledge()
	if err := s.alertRepo.Update(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to persist alert: %w", err)
	}

	s.publish(ctx, ports.TopicAlertAcknowledged, alert)
	return alert, nil
}

// Resolve reverses an emergency's effects: the device returns to its
// recorded prior status and the task resumes from PAUSED_EMERGENCY.
// Re-resolving an already-resolved alert is a no-op, not an error.
func (s *EmergencyService) Resolve(ctx context.Context, alertID uuid.UUID) (*domain.Alert, error) {
	alert, err := s.loadAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert.IsResolved() {
		return alert, nil
	}

	if alert.TaskID != nil {
		task, err := s.taskRepo.GetByID(ctx, *alert.TaskID)
		if err != nil {
			return nil, fmt.Errorf("failed to load task: %w", err)
		}
		if task != nil && task.Status == domain.TaskStatusPausedEmergency {
			if err := task.ResumeEmergency(); err != nil {
				return nil, err
			}
			if err := s.taskRepo.Update(ctx, task); err != nil {
				return nil, fmt.Errorf("failed to persist task: %w", err)
			}
			s.publish(ctx, ports.TopicTaskStatusChanged, task)
			s.recalculate(ctx, task.ProjectID)
		}
	}

	if alert.DeviceID != nil && alert.DevicePriorStatus != nil {
		device, err := s.deviceRepo.GetByID(ctx, *alert.DeviceID)
		if err != nil {
			return nil, fmt.Errorf("failed to load device: %w", err)
		}
		if device != nil && device.Status == domain.DeviceStatusMaintenance {
			device.SetStatus(*alert.DevicePriorStatus, "")
			if err := s.deviceRepo.Update(ctx, device); err != nil {
				return nil, fmt.Errorf("failed to persist device: %w", err)
			}
			s.publish(ctx, ports.TopicDeviceUpdated, device)
		}
	}

	alert.Resolve()
	if err := s.alertRepo.Update(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to persist alert: %w", err)
	}

	s.publish(ctx, ports.TopicAlertResolved, alert)
	s.logger.Info("Emergency resolved", "alert", alert.ID)
	return alert, nil
}

// ListActive lists unresolved alerts.
func (s *EmergencyService) ListActive(ctx context.Context) ([]*domain.Alert, error) {
	return s.alertRepo.ListActive(ctx)
}

func (s *EmergencyService) loadAlert(ctx context.Context, id uuid.UUID) (*domain.Alert, error) {
	alert, err := s.alertRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}
	if alert == nil {
		return nil, &domain.NotFoundError{Kind: "alert", ID: id}
	}
	return alert, nil
}

func (s *EmergencyService) recalculate(ctx context.Context, projectID uuid.UUID) {
	if _, err := s.production.Recalculate(ctx, projectID); err != nil {
		s.logger.Error("Failed to recalculate project", "project", projectID, "error", err)
	}
}

func (s *EmergencyService) publish(ctx context.Context, topic string, payload interface{}) {
	if err := s.events.Publish(ctx, topic, payload); err != nil {
		s.logger.Error("Failed to publish event", "topic", topic, "error", err)
	}
}
