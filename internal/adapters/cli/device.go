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

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Manage shop-floor devices",
	Long:  `Register devices and manage their availability.`,
}

var deviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List devices",
	RunE:  runDeviceList,
}

var deviceRegisterCmd = &cobra.Command{
	Use:   "register [name]",
	Short: "Register a device",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeviceRegister,
}

var deviceStatusCmd = &cobra.Command{
	Use:   "set-status [id] [status]",
	Short: "Set a device's status",
	Long:  `Set a device's status to AVAILABLE, IN_USE, MAINTENANCE, or OFFLINE.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runDeviceStatus,
}

var (
	deviceTypeID       string
	deviceFilterStatus string
	deviceFilterType   string
	deviceStatusReason string
)

func init() {
	deviceCmd.AddCommand(deviceListCmd)
	deviceCmd.AddCommand(deviceRegisterCmd)
	deviceCmd.AddCommand(deviceStatusCmd)

	deviceRegisterCmd.Flags().StringVar(&deviceTypeID, "type", "", "Device type ID")
	_ = deviceRegisterCmd.MarkFlagRequired("type")

	deviceListCmd.Flags().StringVar(&deviceFilterStatus, "status", "", "Filter by status")
	deviceListCmd.Flags().StringVar(&deviceFilterType, "type", "", "Filter by device type ID")

	deviceStatusCmd.Flags().StringVar(&deviceStatusReason, "reason", "", "Why the status changed")
}

func runDeviceList(cmd *cobra.Command, args []string) error {
	query := url.Values{}
	if deviceFilterStatus != "" {
		query.Set("status", deviceFilterStatus)
	}
	if deviceFilterType != "" {
		query.Set("device_type_id", deviceFilterType)
	}
	path := "/api/v1/devices"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var devices []*domain.Device
	if err := newAPIClient().get(path, &devices); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tSTATUS\tREASON")
	for _, d := range devices {
		reason := d.ErrorReason
		if reason == "" {
			reason = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Name, d.DeviceTypeID, d.Status, reason)
	}
	return w.Flush()
}

func runDeviceRegister(cmd *cobra.Command, args []string) error {
	typeID, err := uuid.Parse(deviceTypeID)
	if err != nil {
		return fmt.Errorf("invalid device type id: %w", err)
	}

	req := map[string]interface{}{"name": args[0], "device_type_id": typeID}
	var device domain.Device
	if err := newAPIClient().post("/api/v1/devices", req, &device); err != nil {
		return err
	}

	fmt.Printf("Registered device %q (%s)\n", device.Name, device.Status)
	fmt.Printf("  ID: %s\n", device.ID)
	return nil
}

func runDeviceStatus(cmd *cobra.Command, args []string) error {
	req := map[string]string{"status": args[1], "reason": deviceStatusReason}
	var device domain.Device
	if err := newAPIClient().do("PUT", "/api/v1/devices/"+args[0]+"/status", req, &device); err != nil {
		return err
	}

	fmt.Printf("Device %q is now %s\n", device.Name, device.Status)
	return nil
}
