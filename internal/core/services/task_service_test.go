package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/plantline/plantline/internal/core/domain"
	"github.com/plantline/plantline/internal/core/ports"
)

func TestAssignRejectsDeviceTypeMismatch(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	project := seedActiveProject(t, e, 1)
	task := seedTask(t, e, project.ID, uuid.New(), domain.TaskStatusPending, true)

	device, err := e.devices.Register(ctx, "laser-7", uuid.New())
	if err != nil {
		t.Fatalf("failed to register device: %v", err)
	}

	_, err = e.tasks.Assign(ctx, task.ID, device.ID, uuid.New())
	var mismatch *domain.DeviceTypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected DeviceTypeMismatchError, got %v", err)
	}
	if mismatch.Required != task.DeviceTypeID || mismatch.DeviceType != device.DeviceTypeID {
		t.Errorf("mismatch error carries wrong types: %+v", mismatch)
	}

	stored, _ := e.taskRepo.GetByID(ctx, task.ID)
	if stored.DeviceID != nil || stored.WorkerID != nil {
		t.Error("a rejected assignment must not bind anything")
	}
}

func TestAssignBindsAndPublishes(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	project := seedActiveProject(t, e, 1)
	task := seedTask(t, e, project.ID, uuid.New(), domain.TaskStatusPending, true)

	device, err := e.devices.Register(ctx, "press-1", task.DeviceTypeID)
	if err != nil {
		t.Fatalf("failed to register device: %v", err)
	}
	workerID := uuid.New()

	updated, err := e.tasks.Assign(ctx, task.ID, device.ID, workerID)
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if updated.DeviceID == nil || *updated.DeviceID != device.ID {
		t.Error("device not bound")
	}
	if updated.WorkerID == nil || *updated.WorkerID != workerID {
		t.Error("worker not bound")
	}
	if e.sink.count(ports.TopicTaskAssigned) != 1 {
		t.Errorf("expected one %s event, got %d", ports.TopicTaskAssigned, e.sink.count(ports.TopicTaskAssigned))
	}
}

func TestStartBlockedByIncompleteDependency(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	project := seedActiveProject(t, e, 1)

	first := seedTask(t, e, project.ID, uuid.New(), domain.TaskStatusPending, false)
	second := seedTask(t, e, project.ID, first.RecipeSnapshotID, domain.TaskStatusPending, true)
	second.DependentTaskID = &first.ID
	if err := e.taskRepo.Update(ctx, second); err != nil {
		t.Fatal(err)
	}

	device, _ := e.devices.Register(ctx, "mill-2", second.DeviceTypeID)
	if _, err := e.tasks.Assign(ctx, second.ID, device.ID, uuid.New()); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	_, err := e.tasks.Start(ctx, second.ID)
	var invalid *domain.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}

	stored, _ := e.taskRepo.GetByID(ctx, second.ID)
	if stored.Status != domain.TaskStatusPending {
		t.Errorf("blocked start must leave the task PENDING, got %s", stored.Status)
	}
}

func TestStartMarksDeviceInUse(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	project := seedActiveProject(t, e, 1)
	task := seedTask(t, e, project.ID, uuid.New(), domain.TaskStatusPending, true)

	device, _ := e.devices.Register(ctx, "oven-3", task.DeviceTypeID)
	if _, err := e.tasks.Assign(ctx, task.ID, device.ID, uuid.New()); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	started, err := e.tasks.Start(ctx, task.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if started.Status != domain.TaskStatusOngoing {
		t.Errorf("expected ONGOING, got %s", started.Status)
	}

	stored, _ := e.deviceRepo.GetByID(ctx, device.ID)
	if stored.Status != domain.DeviceStatusInUse {
		t.Errorf("expected device IN_USE, got %s", stored.Status)
	}
}

func TestTaskLifecycleEndToEnd(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	project := seedActiveProject(t, e, 1)
	task := seedTask(t, e, project.ID, uuid.New(), domain.TaskStatusPending, true)

	device, _ := e.devices.Register(ctx, "lathe-4", task.DeviceTypeID)
	workerID := uuid.New()

	if _, err := e.tasks.Assign(ctx, task.ID, device.ID, workerID); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if _, err := e.tasks.Start(ctx, task.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := e.tasks.Pause(ctx, task.ID, "shift change", "operator"); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if _, err := e.tasks.Resume(ctx, task.ID); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	completed, err := e.tasks.Complete(ctx, task.ID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if completed.Status != domain.TaskStatusCompleted || completed.Progress != 100 {
		t.Errorf("unexpected terminal state: %s/%v", completed.Status, completed.Progress)
	}
	if len(completed.PauseHistory) != 1 || completed.PauseHistory[0].ResumedAt == nil {
		t.Error("pause history must hold one closed entry")
	}

	storedDevice, _ := e.deviceRepo.GetByID(ctx, device.ID)
	if storedDevice.Status != domain.DeviceStatusAvailable {
		t.Errorf("completion must release the device, got %s", storedDevice.Status)
	}

	storedProject, _ := e.projectRepo.GetByID(ctx, project.ID)
	if storedProject.Status != domain.ProjectStatusCompleted {
		t.Errorf("single-task project must complete, got %s", storedProject.Status)
	}

	if got := e.sink.count(ports.TopicTaskStatusChanged); got != 4 {
		t.Errorf("expected 4 status-change events (start, pause, resume, complete), got %d", got)
	}
	if got := e.sink.count(ports.TopicTaskCompleted); got != 1 {
		t.Errorf("expected 1 completion event, got %d", got)
	}
}

func TestFailReleasesDevice(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	project := seedActiveProject(t, e, 1)
	task := seedTask(t, e, project.ID, uuid.New(), domain.TaskStatusPending, true)

	device, _ := e.devices.Register(ctx, "welder-5", task.DeviceTypeID)
	if _, err := e.tasks.Assign(ctx, task.ID, device.ID, uuid.New()); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if _, err := e.tasks.Start(ctx, task.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	failed, err := e.tasks.Fail(ctx, task.ID)
	if err != nil {
		t.Fatalf("fail failed: %v", err)
	}
	if failed.Status != domain.TaskStatusFailed {
		t.Errorf("expected FAILED, got %s", failed.Status)
	}

	storedDevice, _ := e.deviceRepo.GetByID(ctx, device.ID)
	if storedDevice.Status != domain.DeviceStatusAvailable {
		t.Errorf("failure must release the device, got %s", storedDevice.Status)
	}
}

func TestMutateUnknownTask(t *testing.T) {
	e := newEnv()
	_, err := e.tasks.Start(context.Background(), uuid.New())
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
