package commands

import (
	"fmt"
	"net"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/dotfeel/dotbridged/internal/config"
	"github.com/dotfeel/dotbridged/internal/osc"
)

// NewSendCommand creates the send command
func NewSendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Emit test OSC messages at the daemon",
	}

	cmd.PersistentFlags().String("target", config.DefaultOSCListenAddress,
		"UDP address of the daemon's OSC listener")

	cmd.AddCommand(
		newSendRGBCommand(),
		newSendIntensityCommand(),
		newSendFrequencyCommand(),
		newSendSelectCommand(),
		newSendBatchCommand(),
	)

	return cmd
}

// newSendRGBCommand creates the send rgb command
func newSendRGBCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rgb <r> <g> <b>",
		Short: "Set the selected device's LED color (0-255 per channel)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			vals := make([]any, 0, 3)
			for _, a := range args {
				v, err := parseChannel(a)
				if err != nil {
					return err
				}
				vals = append(vals, v)
			}
			return sendMessage(cmd, osc.Message{Address: osc.AddressRGB, Args: vals})
		},
	}
}

// newSendIntensityCommand creates the send intensity command
func newSendIntensityCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "intensity <value>",
		Short: "Set the selected device's vibration intensity (0.0-1.0)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[0], 32)
			if err != nil {
				return fmt.Errorf("invalid intensity %q", args[0])
			}
			return sendMessage(cmd, osc.Message{
				Address: osc.AddressIntensity,
				Args:    []any{float32(v)},
			})
		},
	}
}

// newSendFrequencyCommand creates the send frequency command
func newSendFrequencyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "frequency <hz>",
		Short: "Set the selected device's vibration frequency in Hz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[0], 32)
			if err != nil {
				return fmt.Errorf("invalid frequency %q", args[0])
			}
			return sendMessage(cmd, osc.Message{
				Address: osc.AddressFrequency,
				Args:    []any{float32(v)},
			})
		},
	}
}

// newSendSelectCommand creates the send select command
func newSendSelectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "select <address>",
		Short: "Select the device that subsequent messages apply to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 0 || v > 255 {
				return fmt.Errorf("invalid device address %q", args[0])
			}
			return sendMessage(cmd, osc.Message{
				Address: osc.AddressSelect,
				Args:    []any{int32(v)},
			})
		},
	}
}

// newSendBatchCommand creates the send batch command
func newSendBatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <json>",
		Short: "Send a batch update payload for multiple devices",
		Long: `Send a batch update payload for multiple devices.

The payload maps device addresses to their targets, e.g.:
  {"devices":{"1":{"rgb":[255,0,0],"vibration":0.5,"frequency":120}}}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendMessage(cmd, osc.Message{
				Address: osc.AddressBatch,
				Args:    []any{args[0]},
			})
		},
	}
}

func parseChannel(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil || v < 0 || v > 255 {
		return 0, fmt.Errorf("invalid channel value %q (want 0-255)", s)
	}
	return float32(v), nil
}

// sendMessage encodes the message and fires it at the daemon's UDP listener.
func sendMessage(cmd *cobra.Command, msg osc.Message) error {
	target, err := cmd.Flags().GetString("target")
	if err != nil {
		return err
	}

	data, err := osc.Encode(msg)
	if err != nil {
		return err
	}

	conn, err := net.Dial("udp", target)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", target, err)
	}
	defer conn.Close()

	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("failed to send to %s: %w", target, err)
	}

	pterm.Success.Printfln("Sent %s to %s", msg.Address, target)
	return nil
}
