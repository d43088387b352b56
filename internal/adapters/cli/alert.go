package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/plantline/plantline/internal/core/domain"
)

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Manage emergency alerts",
	Long:  `Raise, acknowledge, and resolve emergency alerts.`,
}

var alertListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active alerts",
	RunE:  runAlertList,
}

var alertRaiseCmd = &cobra.Command{
	Use:   "raise [title]",
	Short: "Raise an emergency alert",
	Long: `Raise an emergency alert.

If --task points at an ONGOING task it is paused; if --device points at a
device it is put into MAINTENANCE until the alert is resolved.`,
	Args: cobra.ExactArgs(1),
	RunE: runAlertRaise,
}

var alertAckCmd = &cobra.Command{
	Use:   "ack [id]",
	Short: "Acknowledge an alert",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertAck,
}

var alertResolveCmd = &cobra.Command{
	Use:   "resolve [id]",
	Short: "Resolve an alert and undo its interrupts",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertResolve,
}

var (
	alertMessage    string
	alertReportedBy string
	alertTaskID     string
	alertDeviceID   string
)

func init() {
	alertCmd.AddCommand(alertListCmd)
	alertCmd.AddCommand(alertRaiseCmd)
	alertCmd.AddCommand(alertAckCmd)
	alertCmd.AddCommand(alertResolveCmd)

	alertRaiseCmd.Flags().StringVar(&alertMessage, "message", "", "Alert details")
	alertRaiseCmd.Flags().StringVar(&alertReportedBy, "by", "", "Who reported the alert")
	alertRaiseCmd.Flags().StringVar(&alertTaskID, "task", "", "Task to interrupt")
	alertRaiseCmd.Flags().StringVar(&alertDeviceID, "device", "", "Device to quarantine")
}

func runAlertList(cmd *cobra.Command, args []string) error {
	var alerts []*domain.Alert
	if err := newAPIClient().get("/api/v1/alerts", &alerts); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tREPORTED BY\tCREATED")
	for _, a := range alerts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.Title, a.Status, a.ReportedBy, a.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runAlertRaise(cmd *cobra.Command, args []string) error {
	req := map[string]interface{}{
		"title":       args[0],
		"message":     alertMessage,
		"reported_by": alertReportedBy,
	}
	if alertTaskID != "" {
		id, err := uuid.Parse(alertTaskID)
		if err != nil {
			return fmt.Errorf("invalid task id: %w", err)
		}
		req["task_id"] = id
	}
	if alertDeviceID != "" {
		id, err := uuid.Parse(alertDeviceID)
		if err != nil {
			return fmt.Errorf("invalid device id: %w", err)
		}
		req["device_id"] = id
	}

	var alert domain.Alert
	if err := newAPIClient().post("/api/v1/alerts", req, &alert); err != nil {
		return err
	}

	fmt.Printf("Raised alert %q\n", alert.Title)
	fmt.Printf("  ID: %s\n", alert.ID)
	return nil
}

func runAlertAck(cmd *cobra.Command, args []string) error {
	var alert domain.Alert
	if err := newAPIClient().post("/api/v1/alerts/"+args[0]+"/acknowledge", nil, &alert); err != nil {
		return err
	}
	fmt.Printf("Alert %q acknowledged\n", alert.Title)
	return nil
}

func runAlertResolve(cmd *cobra.Command, args []string) error {
	var alert domain.Alert
	if err := newAPIClient().post("/api/v1/alerts/"+args[0]+"/resolve", nil, &alert); err != nil {
		return err
	}
	fmt.Printf("Alert %q resolved\n", alert.Title)
	return nil
}
