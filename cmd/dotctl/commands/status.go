package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// newStatusCommand creates the status command
func newStatusCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show bridge status and ingest statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ok := clientFromContext(cmd.Context())
			if !ok {
				return fmt.Errorf("no API client in context")
			}

			if err := c.GetHealth(cmd.Context()); err != nil {
				return fmt.Errorf("daemon unhealthy: %w", err)
			}

			stats, err := c.GetStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get stats: %w", err)
			}

			if parseable {
				fmt.Printf("queue_decoded=%d queue_dropped=%d queue_overflows=%d\n",
					stats.Queue.Decoded, stats.Queue.Dropped, stats.Queue.Overflows)
				for _, d := range stats.Devices {
					fmt.Println(DeviceParseable(d))
				}
				return nil
			}

			pterm.DefaultSection.Println("Ingest queue")
			pterm.DefaultTable.WithData(pterm.TableData{
				[]string{"Decoded", fmt.Sprintf("%d", stats.Queue.Decoded)},
				[]string{"Dropped", fmt.Sprintf("%d", stats.Queue.Dropped)},
				[]string{"Overflows", fmt.Sprintf("%d", stats.Queue.Overflows)},
			}).Render()

			pterm.DefaultSection.Println("Devices")
			for _, d := range stats.Devices {
				pterm.DefaultTable.WithData(DeviceTableData(d)).Render()
				pterm.Println()
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}
