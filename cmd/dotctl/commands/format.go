package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/dotfeel/dotbridged/pkg/client"
)

// DeviceTableData returns the table data for a device, with bold address.
func DeviceTableData(d client.Device) pterm.TableData {
	return pterm.TableData{
		[]string{pterm.Bold.Sprint("Address"), pterm.Bold.Sprint(strconv.Itoa(d.Address))},
		[]string{"Name", d.Name},
		[]string{"Color", fmt.Sprintf("#%02X%02X%02X", d.Color[0], d.Color[1], d.Color[2])},
		[]string{"Intensity", fmt.Sprintf("%.2f", d.Intensity)},
		[]string{"Frequency", fmt.Sprintf("%.0f Hz", d.Frequency)},
		[]string{"Connected", formatConnected(d.Connected)},
		[]string{"Dirty", fmt.Sprintf("%v", d.Dirty)},
		[]string{"Updates", fmt.Sprintf("%d", d.UpdateCount)},
		[]string{"Errors", fmt.Sprintf("%d", d.ErrorCount)},
		[]string{"Last Update", formatAge(d.LastUpdateAgeMS)},
		[]string{"Skin Temp", formatTemp(d.SkinTempC)},
	}
}

// DeviceParseable returns the parseable key=value string for a device.
func DeviceParseable(d client.Device) string {
	return fmt.Sprintf(
		"address=%d name=%q color=%02X%02X%02X intensity=%.3f frequency=%.1f connected=%v dirty=%v updates=%d errors=%d last_update_age_ms=%d",
		d.Address,
		d.Name,
		d.Color[0], d.Color[1], d.Color[2],
		d.Intensity,
		d.Frequency,
		d.Connected,
		d.Dirty,
		d.UpdateCount,
		d.ErrorCount,
		d.LastUpdateAgeMS,
	)
}

// sortedDevices returns devices in ascending address order regardless of the
// map iteration order.
func sortedDevices(devices map[string]client.Device) []client.Device {
	out := make([]client.Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func formatConnected(connected bool) string {
	if connected {
		return pterm.Green("yes")
	}
	return pterm.Red("no")
}

func formatAge(ageMS int64) string {
	if ageMS < 0 {
		return "never"
	}
	return fmt.Sprintf("%dms ago", ageMS)
}

func formatTemp(temp *float64) string {
	if temp == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f C", *temp)
}
