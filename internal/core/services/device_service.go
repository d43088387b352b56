package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/plantline/plantline/internal/core/domain"
	"github.com/plantline/plantline/internal/core/ports"
)

// DeviceService manages floor devices and backs the DeviceRegistry port used
// by the task state machine's binding invariant.
type DeviceService struct {
	deviceRepo ports.DeviceRepository
	events     ports.EventSink
	logger     ports.Logger
}

// NewDeviceService creates a new device service.
func NewDeviceService(deviceRepo ports.DeviceRepository, events ports.EventSink, logger ports.Logger) *DeviceService {
	return &DeviceService{deviceRepo: deviceRepo, events: events, logger: logger}
}

// Register persists a new available device.
func (s *DeviceService) Register(ctx context.Context, name string, deviceTypeID uuid.UUID) (*domain.Device, error) {
	device := domain.NewDevice(name, deviceTypeID)
	if err := s.deviceRepo.Create(ctx, device); err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	s.logger.Info("Device registered", "id", device.ID, "name", name, "type", deviceTypeID)
	return device, nil
}

// GetDevice retrieves a device by ID.
func (s *DeviceService) GetDevice(ctx context.Context, id uuid.UUID) (*domain.Device, error) {
	device, err := s.deviceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, &domain.NotFoundError{Kind: "device", ID: id}
	}
	return device, nil
}

// GetDeviceTypeOf implements ports.DeviceRegistry.
func (s *DeviceService) GetDeviceTypeOf(ctx context.Context, deviceID uuid.UUID) (uuid.UUID, error) {
	device, err := s.GetDevice(ctx, deviceID)
	if err != nil {
		return uuid.Nil, err
	}
	return device.DeviceTypeID, nil
}

// SetStatus changes a device's status, recording the change in its history.
func (s *DeviceService) SetStatus(ctx context.Context, deviceID uuid.UUID, status domain.DeviceStatus, reason string) (*domain.Device, error) {
	device, err := s.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	device.SetStatus(status, reason)
	if err := s.deviceRepo.Update(ctx, device); err != nil {
		return nil, fmt.Errorf("failed to persist device: %w", err)
	}

	if err := s.events.Publish(ctx, ports.TopicDeviceUpdated, device); err != nil {
		s.logger.Error("Failed to publish device update", "device", device.ID, "error", err)
	}
	return device, nil
}

// List lists devices with optional filtering.
func (s *DeviceService) List(ctx context.Context, filter ports.DeviceFilter) ([]*domain.Device, error) {
	return s.deviceRepo.List(ctx, filter)
}

var _ ports.DeviceRegistry = (*DeviceService)(nil)
