package domain

import (
	"time"

	"github.com/google/uuid"
)

// AlertType classifies an alert raised from the floor.
type AlertType string

const (
	AlertTypeEmergency AlertType = "EMERGENCY"
	AlertTypeWarning   AlertType = "WARNING"
	AlertTypeInfo      AlertType = "INFO"
)

// AlertStatus represents the life cycle of a raised alert.
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "ACTIVE"
	AlertStatusAcknowledged AlertStatus = "ACKNOWLEDGED"
	AlertStatusResolved     AlertStatus = "RESOLVED"
)

// Alert is a floor-raised notification, optionally referencing the task
// and/or device it concerns. EMERGENCY alerts trigger the interrupt handler.
type Alert struct {
	ID         uuid.UUID   `json:"id"`
	Type       AlertType   `json:"type"`
	Title      string      `json:"title"`
	Message    string      `json:"message,omitempty"`
	ReportedBy string      `json:"reported_by"`
	TaskID     *uuid.UUID  `json:"task_id,omitempty"`
	DeviceID   *uuid.UUID  `json:"device_id,omitempty"`
	Status     AlertStatus `json:"status"`

	// DevicePriorStatus records the device status at raise time so
	// resolution can restore it.
	DevicePriorStatus *DeviceStatus `json:"device_prior_status,omitempty"`

	CreatedAt      time.Time  `json:"created_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// NewAlert creates an active alert.
func NewAlert(alertType AlertType, title, message, reportedBy string) *Alert {
	return &Alert{
		ID:         uuid.Must(uuid.NewV7()),
		Type:       alertType,
		Title:      title,
		Message:    message,
		ReportedBy: reportedBy,
		Status:     AlertStatusActive,
		CreatedAt:  time.Now(),
	}
}

// Acknowledge marks the alert as seen.
func (a *Alert) Acknowledge() {
	if a.Status != AlertStatusActive {
		return
	}
	now := time.Now()
	a.Status = AlertStatusAcknowledged
	a.AcknowledgedAt = &now
}

// Resolve marks the alert resolved. Resolving twice is a no-op.
func (a *Alert) Resolve() {
	if a.Status == AlertStatusResolved {
		return
	}
	now := time.Now()
	a.Status = AlertStatusResolved
	a.ResolvedAt = &now
}

// IsResolved reports whether the alert has been resolved.
func (a *Alert) IsResolved() bool {
	return a.Status == AlertStatusResolved
}
