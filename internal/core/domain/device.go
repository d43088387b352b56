package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeviceStatus represents the availability of a production device.
type DeviceStatus string

const (
	DeviceStatusAvailable   DeviceStatus = "AVAILABLE"
	DeviceStatusInUse       DeviceStatus = "IN_USE"
	DeviceStatusMaintenance DeviceStatus = "MAINTENANCE"
	DeviceStatusOffline     DeviceStatus = "OFFLINE"
)

// DeviceStatusChange is one entry in a device's status history.
type DeviceStatusChange struct {
	From      DeviceStatus `json:"from"`
	To        DeviceStatus `json:"to"`
	Reason    string       `json:"reason,omitempty"`
	ChangedAt time.Time    `json:"changed_at"`
}

// Device is a machine on the floor, identified by its device type. Tasks may
// only be bound to devices of the step's required type.
type Device struct {
	ID            uuid.UUID            `json:"id"`
	Name          string               `json:"name"`
	DeviceTypeID  uuid.UUID            `json:"device_type_id"`
	Status        DeviceStatus         `json:"status"`
	ErrorReason   string               `json:"error_reason,omitempty"`
	StatusHistory []DeviceStatusChange `json:"status_history,omitempty"`
	IsDeleted     bool                 `json:"is_deleted"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// NewDevice registers an available device of the given type.
func NewDevice(name string, deviceTypeID uuid.UUID) *Device {
	now := time.Now()
	return &Device{
		ID:           uuid.Must(uuid.NewV7()),
		Name:         name,
		DeviceTypeID: deviceTypeID,
		Status:       DeviceStatusAvailable,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SetStatus changes the device status and appends to the status history.
func (d *Device) SetStatus(to DeviceStatus, reason string) {
	now := time.Now()
	d.StatusHistory = append(d.StatusHistory, DeviceStatusChange{
		From:      d.Status,
		To:        to,
		Reason:    reason,
		ChangedAt: now,
	})
	d.Status = to
	if to == DeviceStatusMaintenance {
		d.ErrorReason = reason
	} else {
		d.ErrorReason = ""
	}
	d.UpdatedAt = now
}

// PriorStatus returns the status the device held before its latest change,
// falling back to AVAILABLE when there is no history.
func (d *Device) PriorStatus() DeviceStatus {
	if len(d.StatusHistory) == 0 {
		return DeviceStatusAvailable
	}
	return d.StatusHistory[len(d.StatusHistory)-1].From
}
