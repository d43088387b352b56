package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a work unit.
type TaskStatus string

const (
	TaskStatusPending         TaskStatus = "PENDING"
	TaskStatusOngoing         TaskStatus = "ONGOING"
	TaskStatusPaused          TaskStatus = "PAUSED"
	TaskStatusPausedEmergency TaskStatus = "PAUSED_EMERGENCY"
	TaskStatusCompleted       TaskStatus = "COMPLETED"
	TaskStatusFailed          TaskStatus = "FAILED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// PauseEntry is one pause/resume event in a task's history. An entry with a
// nil ResumedAt is open.
type PauseEntry struct {
	PausedAt  time.Time  `json:"paused_at"`
	ResumedAt *time.Time `json:"resumed_at,omitempty"`
	Reason    string     `json:"reason"`
	PausedBy  string     `json:"paused_by"`
}

// Task is one step of one execution, the atomic trackable work unit. Its
// identity is (RecipeSnapshotID, ExecutionNumber, StepOrder).
type Task struct {
	ID                uuid.UUID  `json:"id"`
	ProjectID         uuid.UUID  `json:"project_id"`
	RecipeSnapshotID  uuid.UUID  `json:"recipe_snapshot_id"`
	RecipeStepID      uuid.UUID  `json:"recipe_step_id"`
	ProductID         *uuid.UUID `json:"product_id,omitempty"`
	ProductSnapshotID *uuid.UUID `json:"product_snapshot_id,omitempty"`

	Name               string    `json:"name"`
	ExecutionNumber    int       `json:"execution_number"`
	TotalExecutions    int       `json:"total_executions"`
	StepOrder          int       `json:"step_order"`
	IsLastStepInRecipe bool      `json:"is_last_step_in_recipe"`
	DeviceTypeID       uuid.UUID `json:"device_type_id"`
	Priority           int       `json:"priority"`

	DeviceID        *uuid.UUID `json:"device_id,omitempty"`
	WorkerID        *uuid.UUID `json:"worker_id,omitempty"`
	DependentTaskID *uuid.UUID `json:"dependent_task_id,omitempty"`

	Status            TaskStatus    `json:"status"`
	Progress          float64       `json:"progress"`
	PauseHistory      []PauseEntry  `json:"pause_history,omitempty"`
	EstimatedDuration time.Duration `json:"estimated_duration"`
	ActualDuration    time.Duration `json:"actual_duration"`
	PausedDuration    time.Duration `json:"paused_duration"`
	StartedAt         *time.Time    `json:"started_at,omitempty"`
	CompletedAt       *time.Time    `json:"completed_at,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// Assign binds the worker and device that will perform the task. The caller
// must verify the device's type against DeviceTypeID before binding.
func (t *Task) Assign(deviceID, workerID uuid.UUID) {
	t.DeviceID = &deviceID
	t.WorkerID = &workerID
	t.UpdatedAt = time.Now()
}

// Start transitions PENDING -> ONGOING. Requires a bound device and worker;
// the caller must have verified that the dependent task, if any, is
// completed. StartedAt is stamped exactly once.
func (t *Task) Start() error {
	if t.Status != TaskStatusPending {
		return &InvalidTransitionError{From: t.Status, To: TaskStatusOngoing}
	}
	if t.DeviceID == nil || t.WorkerID == nil {
		return &InvalidTransitionError{
			From: t.Status, To: TaskStatusOngoing,
			Reason: "device and worker must be assigned before starting",
		}
	}

	now := time.Now()
	t.Status = TaskStatusOngoing
	if t.StartedAt == nil {
		t.StartedAt = &now
	}
	t.UpdatedAt = now
	return nil
}

// Pause transitions ONGOING -> PAUSED and opens a pause-history entry.
func (t *Task) Pause(reason, pausedBy string) error {
	if t.Status != TaskStatusOngoing {
		return &InvalidTransitionError{From: t.Status, To: TaskStatusPaused}
	}
	t.openPause(TaskStatusPaused, reason, pausedBy)
	return nil
}

// PauseEmergency transitions ONGOING -> PAUSED_EMERGENCY in response to an
// emergency alert, tagging the pause entry with the alert's title/reporter.
func (t *Task) PauseEmergency(reason, pausedBy string) error {
	if t.Status != TaskStatusOngoing {
		return &InvalidTransitionError{From: t.Status, To: TaskStatusPausedEmergency}
	}
	t.openPause(TaskStatusPausedEmergency, reason, pausedBy)
	return nil
}

func (t *Task) openPause(to TaskStatus, reason, pausedBy string) {
	now := time.Now()
	t.Status = to
	t.PauseHistory = append(t.PauseHistory, PauseEntry{
		PausedAt: now,
		Reason:   reason,
		PausedBy: pausedBy,
	})
	t.UpdatedAt = now
}

// Resume transitions PAUSED -> ONGOING, closing the most recent open pause
// entry and folding the elapsed time into PausedDuration.
func (t *Task) Resume() error {
	if t.Status != TaskStatusPaused {
		return &InvalidTransitionError{From: t.Status, To: TaskStatusOngoing}
	}
	t.closePause()
	t.Status = TaskStatusOngoing
	return nil
}

// ResumeEmergency transitions PAUSED_EMERGENCY -> ONGOING when the emergency
// is resolved.
func (t *Task) ResumeEmergency() error {
	if t.Status != TaskStatusPausedEmergency {
		return &InvalidTransitionError{From: t.Status, To: TaskStatusOngoing}
	}
	t.closePause()
	t.Status = TaskStatusOngoing
	return nil
}

// closePause closes the most recent open pause entry, if any. Re-closing is
// a no-op, which makes emergency resolution idempotent.
func (t *Task) closePause() {
	now := time.Now()
	for i := len(t.PauseHistory) - 1; i >= 0; i-- {
		entry := &t.PauseHistory[i]
		if entry.ResumedAt == nil {
			entry.ResumedAt = &now
			t.PausedDuration += now.Sub(entry.PausedAt)
			break
		}
	}
	t.UpdatedAt = now
}

// HasOpenPause reports whether the latest pause entry is still open.
func (t *Task) HasOpenPause() bool {
	if len(t.PauseHistory) == 0 {
		return false
	}
	return t.PauseHistory[len(t.PauseHistory)-1].ResumedAt == nil
}

// Complete transitions ONGOING -> COMPLETED. CompletedAt is stamped exactly
// once; ActualDuration is derived from the wall-clock span minus paused time.
func (t *Task) Complete() error {
	if t.Status != TaskStatusOngoing {
		return &InvalidTransitionError{From: t.Status, To: TaskStatusCompleted}
	}
	if t.DeviceID == nil || t.WorkerID == nil {
		return &InvalidTransitionError{
			From: t.Status, To: TaskStatusCompleted,
			Reason: "device and worker must be assigned before completion",
		}
	}

	now := time.Now()
	t.Status = TaskStatusCompleted
	t.Progress = 100
	if t.CompletedAt == nil {
		t.CompletedAt = &now
		if t.StartedAt != nil {
			t.ActualDuration = now.Sub(*t.StartedAt) - t.PausedDuration
		}
	}
	t.UpdatedAt = now
	return nil
}

// Fail transitions ONGOING -> FAILED. A task that never started cannot fail;
// it can only remain PENDING or be removed with its project.
func (t *Task) Fail() error {
	if t.Status != TaskStatusOngoing {
		return &InvalidTransitionError{From: t.Status, To: TaskStatusFailed}
	}
	t.Status = TaskStatusFailed
	t.UpdatedAt = time.Now()
	return nil
}
