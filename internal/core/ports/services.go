package ports

import (
	"context"

	"github.com/google/uuid"
)

// Logger defines the structured logging interface used across the core.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	With(args ...interface{}) Logger
}

// EventSink publishes outbound events for transport layers (WebSocket, MQTT)
// to fan out. Publishing is fire-and-forget relative to state mutations: a
// failed publish is logged by the caller and never rolls back the mutation.
type EventSink interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// Event topics published by the core services.
const (
	TopicTaskAssigned      = "task.assigned"
	TopicTaskStatusChanged = "task.status_changed"
	TopicTaskCompleted     = "task.completed"
	TopicTasksGenerated    = "tasks.generated"
	TopicProjectUpdated    = "project.updated"
	TopicDeviceUpdated     = "device.updated"
	TopicAlertRaised       = "alert.raised"
	TopicAlertAcknowledged = "alert.acknowledged"
	TopicAlertResolved     = "alert.resolved"
)

// DeviceRegistry resolves a device's type, backing the state machine's
// cross-entity binding invariant.
type DeviceRegistry interface {
	// GetDeviceTypeOf returns the device type of the given device.
	GetDeviceTypeOf(ctx context.Context, deviceID uuid.UUID) (uuid.UUID, error)
}
