package handlers

import (
	"context"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dotfeel/dotbridged/internal/bridge"
	"github.com/dotfeel/dotbridged/pkg/dot"
)

// --- List Devices ---

// ListDevicesInput is the input for listing all devices.
type ListDevicesInput struct{}

// ListDevicesOutput is the output for listing all devices, keyed by address.
type ListDevicesOutput struct {
	Body map[string]DeviceResponse
}

// --- Get Device ---

// GetDeviceInput is the input for getting a single device.
type GetDeviceInput struct {
	ID int `path:"id" minimum:"1" maximum:"255" doc:"Device address"`
}

// GetDeviceOutput is the output for getting a single device.
type GetDeviceOutput struct {
	Body DeviceResponse
}

// DeviceHandler implements device-related HTTP handlers over the stats
// collector's snapshot view.
type DeviceHandler struct {
	Stats *bridge.Collector
}

// ListDevices returns all configured devices as a map keyed by address.
func (h *DeviceHandler) ListDevices(_ context.Context, _ *ListDevicesInput) (*ListDevicesOutput, error) {
	snap := h.Stats.Snapshot()
	return &ListDevicesOutput{
		Body: DevicesMapFromBridge(snap.Devices),
	}, nil
}

// GetDevice returns a single device by bus address, including the
// conditioner's recent sample history.
func (h *DeviceHandler) GetDevice(_ context.Context, input *GetDeviceInput) (*GetDeviceOutput, error) {
	snap := h.Stats.Snapshot()
	for _, d := range snap.Devices {
		if int(d.Address) == input.ID {
			body := DeviceFromBridge(d)
			if hist, err := h.Stats.SampleHistory(dot.Address(input.ID)); err == nil && len(hist) > 0 {
				body.History = hist
			}
			return &GetDeviceOutput{Body: body}, nil
		}
	}
	return nil, huma.Error404NotFound(fmt.Sprintf("Device not found: %d", input.ID))
}

// Ensure DeviceHandler implements the interface at compile time.
var _ DeviceHandlers = (*DeviceHandler)(nil)

// DeviceHandlers defines the interface for device operations.
type DeviceHandlers interface {
	ListDevices(ctx context.Context, input *ListDevicesInput) (*ListDevicesOutput, error)
	GetDevice(ctx context.Context, input *GetDeviceInput) (*GetDeviceOutput, error)
}
