package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/plantline/plantline/internal/core/domain"
	"github.com/plantline/plantline/internal/core/ports"
)

// emergencyFixture puts one ongoing task on an in-use device.
func emergencyFixture(t *testing.T, e *env) (*domain.Task, *domain.Device) {
	t.Helper()
	ctx := context.Background()
	project := seedActiveProject(t, e, 1)
	task := seedTask(t, e, project.ID, uuid.New(), domain.TaskStatusPending, true)

	device, err := e.devices.Register(ctx, "cnc-9", task.DeviceTypeID)
	if err != nil {
		t.Fatalf("failed to register device: %v", err)
	}
	if _, err := e.tasks.Assign(ctx, task.ID, device.ID, uuid.New()); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if _, err := e.tasks.Start(ctx, task.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	return task, device
}

func TestRaiseInterruptsTaskAndDevice(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	task, device := emergencyFixture(t, e)

	alert, err := e.emergency.Raise(ctx, "coolant leak", "line 3 flooded", "sensor-12", &task.ID, &device.ID)
	if err != nil {
		t.Fatalf("raise failed: %v", err)
	}

	if alert.Type != domain.AlertTypeEmergency || alert.Status != domain.AlertStatusActive {
		t.Errorf("unexpected alert state: %s/%s", alert.Type, alert.Status)
	}
	if alert.DevicePriorStatus == nil || *alert.DevicePriorStatus != domain.DeviceStatusInUse {
		t.Errorf("alert must record the device's prior status, got %v", alert.DevicePriorStatus)
	}

	storedTask, _ := e.taskRepo.GetByID(ctx, task.ID)
	if storedTask.Status != domain.TaskStatusPausedEmergency {
		t.Errorf("expected PAUSED_EMERGENCY, got %s", storedTask.Status)
	}
	if !storedTask.HasOpenPause() {
		t.Error("emergency pause must open a pause entry")
	}

	storedDevice, _ := e.deviceRepo.GetByID(ctx, device.ID)
	if storedDevice.Status != domain.DeviceStatusMaintenance {
		t.Errorf("expected device MAINTENANCE, got %s", storedDevice.Status)
	}
	if storedDevice.ErrorReason != "coolant leak" {
		t.Errorf("quarantine must carry the alert title, got %q", storedDevice.ErrorReason)
	}

	if e.sink.count(ports.TopicAlertRaised) != 1 {
		t.Errorf("expected one %s event, got %d", ports.TopicAlertRaised, e.sink.count(ports.TopicAlertRaised))
	}
}

func TestRaiseSkipsNonOngoingTask(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	project := seedActiveProject(t, e, 1)
	task := seedTask(t, e, project.ID, uuid.New(), domain.TaskStatusPending, true)

	if _, err := e.emergency.Raise(ctx, "spill", "aisle blocked", "operator", &task.ID, nil); err != nil {
		t.Fatalf("raise failed: %v", err)
	}

	stored, _ := e.taskRepo.GetByID(ctx, task.ID)
	if stored.Status != domain.TaskStatusPending {
		t.Errorf("a non-ongoing task must be left alone, got %s", stored.Status)
	}
}

func TestRaiseLeavesMaintenanceDeviceUntouched(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	device, err := e.devices.Register(ctx, "grinder-2", uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.devices.SetStatus(ctx, device.ID, domain.DeviceStatusMaintenance, "scheduled service"); err != nil {
		t.Fatal(err)
	}

	alert, err := e.emergency.Raise(ctx, "smoke", "smell near grinder", "operator", nil, &device.ID)
	if err != nil {
		t.Fatalf("raise failed: %v", err)
	}
	if alert.DevicePriorStatus != nil {
		t.Error("no prior status should be recorded for an already quarantined device")
	}

	stored, _ := e.deviceRepo.GetByID(ctx, device.ID)
	if stored.ErrorReason != "scheduled service" {
		t.Errorf("existing quarantine reason must persist, got %q", stored.ErrorReason)
	}
}

func TestRaiseLeavesNoInterruptsWhenAlertPersistFails(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	task, device := emergencyFixture(t, e)

	e.alertRepo.createErr = errors.New("disk full")
	if _, err := e.emergency.Raise(ctx, "coolant leak", "", "sensor-12", &task.ID, &device.ID); err == nil {
		t.Fatal("expected the persistence error to surface")
	}

	// A task stuck in PAUSED_EMERGENCY without an alert could never be
	// resumed, so nothing may be interrupted when the alert was not stored.
	storedTask, _ := e.taskRepo.GetByID(ctx, task.ID)
	if storedTask.Status != domain.TaskStatusOngoing {
		t.Errorf("task must be untouched, got %s", storedTask.Status)
	}
	storedDevice, _ := e.deviceRepo.GetByID(ctx, device.ID)
	if storedDevice.Status != domain.DeviceStatusInUse {
		t.Errorf("device must be untouched, got %s", storedDevice.Status)
	}
	if e.sink.count(ports.TopicAlertRaised) != 0 {
		t.Error("no event may be published for an unpersisted alert")
	}
}

func TestResolveRestoresTaskAndDevice(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	task, device := emergencyFixture(t, e)

	alert, err := e.emergency.Raise(ctx, "jam", "feeder jammed", "operator", &task.ID, &device.ID)
	if err != nil {
		t.Fatalf("raise failed: %v", err)
	}

	resolved, err := e.emergency.Resolve(ctx, alert.ID)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !resolved.IsResolved() {
		t.Fatal("alert must be resolved")
	}

	storedTask, _ := e.taskRepo.GetByID(ctx, task.ID)
	if storedTask.Status != domain.TaskStatusOngoing {
		t.Errorf("resolution must resume the task, got %s", storedTask.Status)
	}
	if storedTask.HasOpenPause() {
		t.Error("resolution must close the emergency pause entry")
	}

	storedDevice, _ := e.deviceRepo.GetByID(ctx, device.ID)
	if storedDevice.Status != domain.DeviceStatusInUse {
		t.Errorf("resolution must restore the recorded prior status, got %s", storedDevice.Status)
	}
	if storedDevice.ErrorReason != "" {
		t.Errorf("restoration must clear the error reason, got %q", storedDevice.ErrorReason)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	task, device := emergencyFixture(t, e)

	alert, err := e.emergency.Raise(ctx, "jam", "feeder jammed", "operator", &task.ID, &device.ID)
	if err != nil {
		t.Fatalf("raise failed: %v", err)
	}
	if _, err := e.emergency.Resolve(ctx, alert.ID); err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}

	// Operator pauses the task again for an unrelated reason.
	if _, err := e.tasks.Pause(ctx, task.ID, "tooling swap", "operator"); err != nil {
		t.Fatalf("pause failed: %v", err)
	}

	resolvedCount := e.sink.count(ports.TopicAlertResolved)
	if _, err := e.emergency.Resolve(ctx, alert.ID); err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}

	storedTask, _ := e.taskRepo.GetByID(ctx, task.ID)
	if storedTask.Status != domain.TaskStatusPaused {
		t.Errorf("a redundant resolve must not disturb the later pause, got %s", storedTask.Status)
	}
	if e.sink.count(ports.TopicAlertResolved) != resolvedCount {
		t.Error("a redundant resolve must not republish")
	}
}

func TestAcknowledgeAndListActive(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	first, err := e.emergency.Raise(ctx, "leak", "", "operator", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.emergency.Raise(ctx, "fire drill", "", "operator", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	acked, err := e.emergency.Acknowledge(ctx, first.ID)
	if err != nil {
		t.Fatalf("acknowledge failed: %v", err)
	}
	if acked.Status != domain.AlertStatusAcknowledged {
		t.Errorf("expected ACKNOWLEDGED, got %s", acked.Status)
	}

	if _, err := e.emergency.Resolve(ctx, second.ID); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	active, err := e.emergency.ListActive(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != first.ID {
		t.Errorf("only the acknowledged, unresolved alert should remain active, got %d", len(active))
	}
}
