package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dotctl",
		Short: "Inspect the dotbridged OSC-to-device bridge",
	}

	// Add global flags
	cmd.PersistentFlags().String("server", "", "Base URL of the dotbridged API")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")

	// Add commands
	cmd.AddCommand(newVersionCommand(version, commit, buildDate))
	cmd.AddCommand(NewDeviceCommand())
	cmd.AddCommand(newStatusCommand())
	cmd.AddCommand(NewSendCommand())

	return cmd
}

// newVersionCommand creates the version command
func newVersionCommand(version, commit, buildDate string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Client:\n")
			fmt.Printf("  Version:    %s\n", version)
			fmt.Printf("  Commit:     %s\n", commit)
			fmt.Printf("  Build Date: %s\n", buildDate)

			// Try to query the daemon for its version
			c, ok := clientFromContext(cmd.Context())
			if !ok {
				return
			}
			v, err := c.GetVersion(cmd.Context())
			if err != nil {
				fmt.Printf("\nDaemon: not reachable\n")
				return
			}
			fmt.Printf("\nDaemon:\n")
			fmt.Printf("  Version:    %s\n", v.Version)
			fmt.Printf("  Commit:     %s\n", v.Commit)
			fmt.Printf("  Build Date: %s\n", v.BuildDate)
		},
	}
}
