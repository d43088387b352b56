package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/plantline/plantline/internal/core/domain"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage production projects",
	Long:  `Create, activate, and track production projects.`,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE:  runProjectList,
}

var projectShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a project with its progress",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectShow,
}

var projectCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a project",
	Long: `Create a production project in PLANNING state.

Exactly one of --recipe or --product must be given. The project stays in
PLANNING until it is activated, which pins a snapshot and expands tasks.`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectCreate,
}

var projectActivateCmd = &cobra.Command{
	Use:   "activate [id]",
	Short: "Activate a project and expand its tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  projectAction("activate"),
}

var projectHoldCmd = &cobra.Command{
	Use:   "hold [id]",
	Short: "Put an active project on hold",
	Args:  cobra.ExactArgs(1),
	RunE:  projectAction("hold"),
}

var projectResumeCmd = &cobra.Command{
	Use:   "resume [id]",
	Short: "Resume a held project",
	Args:  cobra.ExactArgs(1),
	RunE:  projectAction("resume"),
}

var projectCancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a project",
	Args:  cobra.ExactArgs(1),
	RunE:  projectAction("cancel"),
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a project and its tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectDelete,
}

var (
	projectRecipeID     string
	projectProductID    string
	projectQuantity     int
	projectPriority     int
	projectDescription  string
	projectFilterStatus string
)

func init() {
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectActivateCmd)
	projectCmd.AddCommand(projectHoldCmd)
	projectCmd.AddCommand(projectResumeCmd)
	projectCmd.AddCommand(projectCancelCmd)
	projectCmd.AddCommand(projectDeleteCmd)

	projectListCmd.Flags().StringVar(&projectFilterStatus, "status", "", "Filter by status (PLANNING, ACTIVE, ON_HOLD, COMPLETED, CANCELLED)")

	projectCreateCmd.Flags().StringVar(&projectRecipeID, "recipe", "", "Recipe ID to produce")
	projectCreateCmd.Flags().StringVar(&projectProductID, "product", "", "Product ID to produce")
	projectCreateCmd.Flags().IntVar(&projectQuantity, "quantity", 1, "Target quantity")
	projectCreateCmd.Flags().IntVar(&projectPriority, "priority", 0, "Project priority (higher = more urgent)")
	projectCreateCmd.Flags().StringVar(&projectDescription, "description", "", "Project description")
	projectCreateCmd.MarkFlagsMutuallyExclusive("recipe", "product")
	projectCreateCmd.MarkFlagsOneRequired("recipe", "product")
}

func runProjectList(cmd *cobra.Command, args []string) error {
	path := "/api/v1/projects"
	if projectFilterStatus != "" {
		path += "?status=" + projectFilterStatus
	}

	var projects []*domain.Project
	if err := newAPIClient().get(path, &projects); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tPROGRESS\tPRODUCED/TARGET")
	for _, p := range projects {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f%%\t%d/%d\n",
			p.ID, p.Name, p.Status, p.Progress, p.ProducedQuantity, p.TargetQuantity)
	}
	return w.Flush()
}

func runProjectShow(cmd *cobra.Command, args []string) error {
	client := newAPIClient()

	var project domain.Project
	if err := client.get("/api/v1/projects/"+args[0], &project); err != nil {
		return err
	}

	fmt.Printf("Project: %s\n", project.Name)
	fmt.Printf("  ID:       %s\n", project.ID)
	fmt.Printf("  Status:   %s\n", project.Status)
	fmt.Printf("  Progress: %.1f%%\n", project.Progress)
	fmt.Printf("  Produced: %d of %d\n", project.ProducedQuantity, project.TargetQuantity)
	if project.StartDate != nil {
		fmt.Printf("  Started:  %s\n", project.StartDate.Format("2006-01-02 15:04"))
	}
	if project.EndDate != nil {
		fmt.Printf("  Finished: %s\n", project.EndDate.Format("2006-01-02 15:04"))
	}

	var tasks []*domain.Task
	if err := client.get("/api/v1/projects/"+args[0]+"/tasks", &tasks); err != nil {
		return err
	}
	byStatus := map[domain.TaskStatus]int{}
	for _, t := range tasks {
		byStatus[t.Status]++
	}
	fmt.Printf("  Tasks:    %d total", len(tasks))
	for _, status := range []domain.TaskStatus{
		domain.TaskStatusPending, domain.TaskStatusOngoing, domain.TaskStatusPaused,
		domain.TaskStatusPausedEmergency, domain.TaskStatusCompleted, domain.TaskStatusFailed,
	} {
		if n := byStatus[status]; n > 0 {
			fmt.Printf(", %d %s", n, status)
		}
	}
	fmt.Println()
	return nil
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	req := map[string]interface{}{
		"name":            args[0],
		"description":     projectDescription,
		"target_quantity": projectQuantity,
		"priority":        projectPriority,
	}
	if projectRecipeID != "" {
		id, err := uuid.Parse(projectRecipeID)
		if err != nil {
			return fmt.Errorf("invalid recipe id: %w", err)
		}
		req["recipe_id"] = id
	} else {
		id, err := uuid.Parse(projectProductID)
		if err != nil {
			return fmt.Errorf("invalid product id: %w", err)
		}
		req["product_id"] = id
	}

	var project domain.Project
	if err := newAPIClient().post("/api/v1/projects", req, &project); err != nil {
		return err
	}

	fmt.Printf("Created project %q (target %d)\n", project.Name, project.TargetQuantity)
	fmt.Printf("  ID: %s\n", project.ID)
	fmt.Println("Run 'plantline project activate' to expand tasks and start production.")
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	if err := newAPIClient().delete("/api/v1/projects/" + args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted project %s\n", args[0])
	return nil
}

// projectAction builds a RunE that posts a lifecycle action and prints the result.
func projectAction(action string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		var project domain.Project
		if err := newAPIClient().post("/api/v1/projects/"+args[0]+"/"+action, nil, &project); err != nil {
			return err
		}
		fmt.Printf("Project %q is now %s\n", project.Name, project.Status)
		return nil
	}
}
