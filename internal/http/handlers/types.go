// Package handlers provides typed Huma request/response structs and handler
// implementations for the dotbridged HTTP API.
package handlers

import (
	"strconv"
	"time"

	"github.com/dotfeel/dotbridged/internal/bridge"
)

// --- Device types ---

// DeviceResponse is the API representation of one bridged device.
type DeviceResponse struct {
	Address         int       `json:"address" doc:"Device address on the bus (1-based)"`
	Name            string    `json:"name" doc:"Display name of the device"`
	Color           [3]int    `json:"color" doc:"Current target LED color (RGB, 0-255 per channel)"`
	Intensity       float64   `json:"intensity" doc:"Current target vibration intensity (0.0-1.0)"`
	Frequency       float64   `json:"frequency" doc:"Current target vibration frequency in Hz"`
	Dirty           bool      `json:"dirty" doc:"Whether the target differs from the last applied state"`
	Connected       bool      `json:"connected" doc:"Whether the most recent bus write succeeded"`
	UpdateCount     uint64    `json:"update_count" doc:"Successful bus writes since startup"`
	ErrorCount      uint64    `json:"error_count" doc:"Exhausted write cycles since startup"`
	LastAppliedAt   time.Time `json:"last_applied_at" doc:"Time of the last successful write (zero if never)"`
	LastUpdateAgeMS int64     `json:"last_update_age_ms" doc:"Milliseconds since the last successful write, -1 if never"`
	SkinTempC       *float64  `json:"skin_temp_c,omitempty" doc:"Last skin temperature read back from the device, if any"`

	// Filled only in the single-device view; the list view stays compact.
	History map[string][]float64 `json:"history,omitempty" doc:"Recent conditioner input samples per channel, oldest first"`
}

// DeviceFromBridge converts a bridge device status to its API shape.
func DeviceFromBridge(d bridge.DeviceStatus) DeviceResponse {
	return DeviceResponse{
		Address:         int(d.Address),
		Name:            d.Name,
		Color:           d.Color,
		Intensity:       d.Intensity,
		Frequency:       d.Frequency,
		Dirty:           d.Dirty,
		Connected:       d.Stats.Connected,
		UpdateCount:     d.Stats.UpdateCount,
		ErrorCount:      d.Stats.ErrorCount,
		LastAppliedAt:   d.LastAppliedAt,
		LastUpdateAgeMS: d.LastUpdateAgeMS,
		SkinTempC:       d.SkinTempC,
	}
}

// DevicesMapFromBridge converts device statuses to a map keyed by address,
// the shape browser monitors expect.
func DevicesMapFromBridge(devices []bridge.DeviceStatus) map[string]DeviceResponse {
	result := make(map[string]DeviceResponse, len(devices))
	for _, d := range devices {
		result[strconv.Itoa(int(d.Address))] = DeviceFromBridge(d)
	}
	return result
}

// --- Stats types ---

// QueueResponse is the ingest-queue health view.
type QueueResponse struct {
	Overflows uint64 `json:"overflows" doc:"Messages evicted from a full ingest queue"`
	Decoded   uint64 `json:"decoded" doc:"Messages decoded and applied to device state"`
	Dropped   uint64 `json:"dropped" doc:"Malformed or unroutable messages dropped"`
}

// StatsResponse is the full bridge status snapshot.
type StatsResponse struct {
	Devices []DeviceResponse `json:"devices" doc:"Per-device status in ascending address order"`
	Queue   QueueResponse    `json:"queue" doc:"Ingest queue counters"`
	TakenAt time.Time        `json:"taken_at" doc:"When this snapshot was taken"`
}

// StatsFromBridge converts a bridge snapshot to its API shape.
func StatsFromBridge(s bridge.Snapshot) StatsResponse {
	out := StatsResponse{
		Devices: make([]DeviceResponse, 0, len(s.Devices)),
		Queue: QueueResponse{
			Overflows: s.Queue.Overflows,
			Decoded:   s.Queue.Decoded,
			Dropped:   s.Queue.Dropped,
		},
		TakenAt: s.TakenAt,
	}
	for _, d := range s.Devices {
		out.Devices = append(out.Devices, DeviceFromBridge(d))
	}
	return out
}
