package bridge

import (
	"sync"
	"time"

	"github.com/dotfeel/dotbridged/pkg/dot"
)

// QueueStatus is the ingest-queue health view. Overflow is distinct from
// device errors: an evicted message never reached a device.
type QueueStatus struct {
	Overflows uint64 `json:"overflows"`
	Decoded   uint64 `json:"decoded"`
	Dropped   uint64 `json:"dropped"`
}

// DeviceStatus is one device's externally visible status.
type DeviceStatus struct {
	DeviceSnapshot
	LastUpdateAgeMS int64    `json:"last_update_age_ms"`
	SkinTempC       *float64 `json:"skin_temp_c,omitempty"`
}

// Snapshot is the periodic read-only view handed to the API and dotctl.
type Snapshot struct {
	Devices []DeviceStatus `json:"devices"`
	Queue   QueueStatus    `json:"queue"`
	TakenAt time.Time      `json:"taken_at"`
}

// Collector aggregates ingest health and telemetry on top of the store's
// per-device counters. Counters only ever increase; nothing is persisted.
type Collector struct {
	store *Store

	mu        sync.Mutex
	queue     QueueStatus
	telemetry map[dot.Address]float64
}

// NewCollector creates a collector over the store.
func NewCollector(store *Store) *Collector {
	return &Collector{
		store:     store,
		telemetry: make(map[dot.Address]float64),
	}
}

// RecordApplied notes a successful write and any telemetry it returned.
func (c *Collector) RecordApplied(addr dot.Address, tel *dot.Telemetry) {
	if tel == nil {
		return
	}
	c.mu.Lock()
	c.telemetry[addr] = tel.SkinTempC
	c.mu.Unlock()
}

// RecordFailed notes an exhausted write cycle. The store already carries the
// error counter; nothing extra is tracked here yet.
func (c *Collector) RecordFailed(dot.Address) {}

// RecordOverflow notes one ingest-queue eviction.
func (c *Collector) RecordOverflow() {
	c.mu.Lock()
	c.queue.Overflows++
	c.mu.Unlock()
}

// RecordDecoded notes one successfully decoded inbound message.
func (c *Collector) RecordDecoded() {
	c.mu.Lock()
	c.queue.Decoded++
	c.mu.Unlock()
}

// RecordDropped notes one malformed inbound message dropped at the decoder.
func (c *Collector) RecordDropped() {
	c.mu.Lock()
	c.queue.Dropped++
	c.mu.Unlock()
}

// Connected reports the outcome of the device's most recent write attempt.
func (c *Collector) Connected(addr dot.Address) bool {
	snap, err := c.store.Get(addr)
	if err != nil {
		return false
	}
	return snap.Stats.Connected
}

// SampleHistory exposes the conditioner's recent input samples for one
// device, for the single-device API view.
func (c *Collector) SampleHistory(addr dot.Address) (map[string][]float64, error) {
	return c.store.SampleHistory(addr)
}

// Snapshot assembles the full status view.
func (c *Collector) Snapshot() Snapshot {
	now := time.Now()
	devices := c.store.Snapshot()

	c.mu.Lock()
	queue := c.queue
	tele := make(map[dot.Address]float64, len(c.telemetry))
	for k, v := range c.telemetry {
		tele[k] = v
	}
	c.mu.Unlock()

	out := Snapshot{
		Devices: make([]DeviceStatus, 0, len(devices)),
		Queue:   queue,
		TakenAt: now,
	}
	for _, d := range devices {
		status := DeviceStatus{DeviceSnapshot: d}
		if !d.LastAppliedAt.IsZero() {
			status.LastUpdateAgeMS = now.Sub(d.LastAppliedAt).Milliseconds()
		} else {
			status.LastUpdateAgeMS = -1
		}
		if temp, ok := tele[d.Address]; ok {
			t := temp
			status.SkinTempC = &t
		}
		out.Devices = append(out.Devices, status)
	}
	return out
}
