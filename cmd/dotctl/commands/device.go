package commands

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// NewDeviceCommand creates the device command
func NewDeviceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Inspect bridged devices",
	}

	cmd.AddCommand(
		newDeviceListCommand(),
		newDeviceGetCommand(),
	)

	return cmd
}

// newDeviceListCommand creates the device list command
func newDeviceListCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ok := clientFromContext(cmd.Context())
			if !ok {
				return fmt.Errorf("no API client in context")
			}
			devices, err := c.GetDevices(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get devices: %w", err)
			}

			if len(devices) == 0 {
				if parseable {
					return nil
				}
				pterm.Info.Println("No devices configured")
				return nil
			}

			if parseable {
				// Print one line per device in key=value format
				for _, d := range sortedDevices(devices) {
					fmt.Println(DeviceParseable(d))
				}
				return nil
			}

			for _, d := range sortedDevices(devices) {
				pterm.DefaultTable.WithData(DeviceTableData(d)).Render()
				pterm.Println() // Blank line between devices
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

// newDeviceGetCommand creates the device get command
func newDeviceGetCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "get <address>",
		Short: "Get a single device by bus address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid device address %q", args[0])
			}

			c, ok := clientFromContext(cmd.Context())
			if !ok {
				return fmt.Errorf("no API client in context")
			}
			device, err := c.GetDevice(cmd.Context(), address)
			if err != nil {
				return fmt.Errorf("failed to get device %d: %w", address, err)
			}

			if parseable {
				fmt.Println(DeviceParseable(device))
				return nil
			}

			pterm.DefaultTable.WithData(DeviceTableData(device)).Render()
			return nil
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}
