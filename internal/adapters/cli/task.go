package cli

import (
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/plantline/plantline/internal/core/domain"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage shop-floor tasks",
	Long:  `List, assign, and drive tasks through their lifecycle.`,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long:  `List tasks with optional filtering by project, status, or device.`,
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskAssignCmd = &cobra.Command{
	Use:   "assign [id]",
	Short: "Assign a device and worker to a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskAssign,
}

var taskStartCmd = &cobra.Command{
	Use:   "start [id]",
	Short: "Start an assigned task",
	Args:  cobra.ExactArgs(1),
	RunE:  taskAction("start"),
}

var taskPauseCmd = &cobra.Command{
	Use:   "pause [id]",
	Short: "Pause an ongoing task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskPause,
}

var taskResumeCmd = &cobra.Command{
	Use:   "resume [id]",
	Short: "Resume a manually paused task",
	Args:  cobra.ExactArgs(1),
	RunE:  taskAction("resume"),
}

var taskCompleteCmd = &cobra.Command{
	Use:   "complete [id]",
	Short: "Mark an ongoing task as completed",
	Args:  cobra.ExactArgs(1),
	RunE:  taskAction("complete"),
}

var taskFailCmd = &cobra.Command{
	Use:   "fail [id]",
	Short: "Mark a task as failed",
	Args:  cobra.ExactArgs(1),
	RunE:  taskAction("fail"),
}

var (
	taskFilterProject string
	taskFilterStatus  string
	taskFilterDevice  string
	taskDeviceID      string
	taskWorkerID      string
	taskPauseReason   string
	taskPausedBy      string
)

func init() {
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskAssignCmd)
	taskCmd.AddCommand(taskStartCmd)
	taskCmd.AddCommand(taskPauseCmd)
	taskCmd.AddCommand(taskResumeCmd)
	taskCmd.AddCommand(taskCompleteCmd)
	taskCmd.AddCommand(taskFailCmd)

	taskListCmd.Flags().StringVar(&taskFilterProject, "project", "", "Filter by project ID")
	taskListCmd.Flags().StringVar(&taskFilterStatus, "status", "", "Filter by status (PENDING, ONGOING, PAUSED, PAUSED_EMERGENCY, COMPLETED, FAILED)")
	taskListCmd.Flags().StringVar(&taskFilterDevice, "device", "", "Filter by assigned device ID")

	taskAssignCmd.Flags().StringVar(&taskDeviceID, "device", "", "Device ID to bind")
	taskAssignCmd.Flags().StringVar(&taskWorkerID, "worker", "", "Worker ID to bind")
	_ = taskAssignCmd.MarkFlagRequired("device")
	_ = taskAssignCmd.MarkFlagRequired("worker")

	taskPauseCmd.Flags().StringVar(&taskPauseReason, "reason", "", "Why the task is paused")
	taskPauseCmd.Flags().StringVar(&taskPausedBy, "by", "", "Who paused the task")
}

func runTaskList(cmd *cobra.Command, args []string) error {
	query := url.Values{}
	if taskFilterProject != "" {
		query.Set("project_id", taskFilterProject)
	}
	if taskFilterStatus != "" {
		query.Set("status", taskFilterStatus)
	}
	if taskFilterDevice != "" {
		query.Set("device_id", taskFilterDevice)
	}
	path := "/api/v1/tasks"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var tasks []*domain.Task
	if err := newAPIClient().get(path, &tasks); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tUNIT\tSTEP\tSTATUS\tDEVICE")
	for _, t := range tasks {
		device := "-"
		if t.DeviceID != nil {
			device = t.DeviceID.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d\t%s\t%s\n",
			t.ID, t.Name, t.ExecutionNumber, t.TotalExecutions, t.StepOrder, t.Status, device)
	}
	return w.Flush()
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	var task domain.Task
	if err := newAPIClient().get("/api/v1/tasks/"+args[0], &task); err != nil {
		return err
	}

	fmt.Printf("Task: %s\n", task.Name)
	fmt.Printf("  ID:        %s\n", task.ID)
	fmt.Printf("  Project:   %s\n", task.ProjectID)
	fmt.Printf("  Unit:      %d of %d\n", task.ExecutionNumber, task.TotalExecutions)
	fmt.Printf("  Step:      %d", task.StepOrder)
	if task.IsLastStepInRecipe {
		fmt.Print(" (final)")
	}
	fmt.Println()
	fmt.Printf("  Status:    %s\n", task.Status)
	fmt.Printf("  Estimated: %s\n", task.EstimatedDuration)
	if task.DeviceID != nil {
		fmt.Printf("  Device:    %s\n", *task.DeviceID)
	}
	if task.WorkerID != nil {
		fmt.Printf("  Worker:    %s\n", *task.WorkerID)
	}
	if task.StartedAt != nil {
		fmt.Printf("  Started:   %s\n", task.StartedAt.Format("2006-01-02 15:04"))
	}
	if task.CompletedAt != nil {
		fmt.Printf("  Completed: %s\n", task.CompletedAt.Format("2006-01-02 15:04"))
	}
	for _, pause := range task.PauseHistory {
		state := "open"
		if pause.ResumedAt != nil {
			state = "resumed " + pause.ResumedAt.Format("15:04")
		}
		fmt.Printf("  Pause:     %s by %s (%s, %s)\n",
			pause.PausedAt.Format("15:04"), pause.PausedBy, pause.Reason, state)
	}
	return nil
}

func runTaskAssign(cmd *cobra.Command, args []string) error {
	deviceID, err := uuid.Parse(taskDeviceID)
	if err != nil {
		return fmt.Errorf("invalid device id: %w", err)
	}
	workerID, err := uuid.Parse(taskWorkerID)
	if err != nil {
		return fmt.Errorf("invalid worker id: %w", err)
	}

	req := map[string]uuid.UUID{"device_id": deviceID, "worker_id": workerID}
	var task domain.Task
	if err := newAPIClient().post("/api/v1/tasks/"+args[0]+"/assign", req, &task); err != nil {
		return err
	}

	fmt.Printf("Assigned task %q to device %s\n", task.Name, deviceID)
	return nil
}

func runTaskPause(cmd *cobra.Command, args []string) error {
	req := map[string]string{"reason": taskPauseReason, "paused_by": taskPausedBy}
	var task domain.Task
	if err := newAPIClient().post("/api/v1/tasks/"+args[0]+"/pause", req, &task); err != nil {
		return err
	}
	fmt.Printf("Task %q is now %s\n", task.Name, task.Status)
	return nil
}

// taskAction builds a RunE that posts a lifecycle action and prints the result.
func taskAction(action string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		var task domain.Task
		if err := newAPIClient().post("/api/v1/tasks/"+args[0]+"/"+action, nil, &task); err != nil {
			return err
		}
		fmt.Printf("Task %q is now %s\n", task.Name, task.Status)
		return nil
	}
}
