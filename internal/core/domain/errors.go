package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// CycleError reports a circular dependency in a recipe's step graph.
type CycleError struct {
	StepID uuid.UUID
	Order  int
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected involving step %d (%s)", e.Order, e.StepID)
}

// DanglingDependencyError reports a depends_on reference to a step that does
// not exist in the same recipe.
type DanglingDependencyError struct {
	StepOrder int
	Missing   uuid.UUID
}

func (e *DanglingDependencyError) Error() string {
	return fmt.Sprintf("step %d depends on unknown step: %s", e.StepOrder, e.Missing)
}

// InvalidTransitionError reports a task status mutation that is not in the
// state machine's transition table, or one whose preconditions are unmet.
type InvalidTransitionError struct {
	From   TaskStatus
	To     TaskStatus
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition %s -> %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

// DeviceTypeMismatchError reports a device binding whose device type does not
// match the task's required device type.
type DeviceTypeMismatchError struct {
	TaskID     uuid.UUID
	DeviceID   uuid.UUID
	Required   uuid.UUID
	DeviceType uuid.UUID
}

func (e *DeviceTypeMismatchError) Error() string {
	return fmt.Sprintf("device %s has type %s, task %s requires type %s",
		e.DeviceID, e.DeviceType, e.TaskID, e.Required)
}

// MissingDeviceTypeError aborts task expansion when a snapshot step carries
// no required device type.
type MissingDeviceTypeError struct {
	RecipeSnapshotID uuid.UUID
	StepOrder        int
	StepName         string
}

func (e *MissingDeviceTypeError) Error() string {
	return fmt.Sprintf("step %d (%q) of recipe snapshot %s has no required device type",
		e.StepOrder, e.StepName, e.RecipeSnapshotID)
}

// NotFoundError reports a dangling reference to a stored entity.
type NotFoundError struct {
	Kind string
	ID   uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}
