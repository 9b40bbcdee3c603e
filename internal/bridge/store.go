// Package bridge implements the synchronization core between the OSC ingest
// path and the shared device bus: the device state store, signal conditioning,
// the tick scheduler, and the bus write executor.
package bridge

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dotfeel/dotbridged/internal/config"
	"github.com/dotfeel/dotbridged/internal/errors"
	"github.com/dotfeel/dotbridged/pkg/dot"
)

// DeviceStats are the per-device monotonic counters plus the outcome of the
// most recent write attempt.
type DeviceStats struct {
	UpdateCount uint64 `json:"update_count"`
	ErrorCount  uint64 `json:"error_count"`
	Connected   bool   `json:"connected"`
}

// deviceState is one roster entry. All fields are guarded by the store mutex;
// the conditioner and scheduler only touch entries through store methods.
type deviceState struct {
	addr dot.Address
	name string

	// Conditioned target, pending until applied.
	target dot.Target

	// Quantized values as of the last successful write. Hysteresis compares
	// fresh samples against these, and a write that races a target change
	// compares these to decide whether dirty survives.
	appliedColor [3]int
	appliedVib   int // byte-scaled intensity
	appliedFreq  int // whole Hz

	dirty         bool
	writeInFlight bool
	lastAppliedAt time.Time
	everApplied   bool

	stats DeviceStats

	// Conditioner state, one per channel: r, g, b, intensity, frequency.
	cond [5]channelState
}

// DeviceSnapshot is the read-only external view of one device.
type DeviceSnapshot struct {
	Address       dot.Address `json:"address"`
	Name          string      `json:"name"`
	Color         [3]int      `json:"color"`
	Intensity     float64     `json:"intensity"`
	Frequency     float64     `json:"frequency"`
	Dirty         bool        `json:"dirty"`
	WriteInFlight bool        `json:"write_in_flight"`
	LastAppliedAt time.Time   `json:"last_applied_at"`
	Stats         DeviceStats `json:"stats"`
}

// DispatchTarget is one claimed write handed from the store to the scheduler.
type DispatchTarget struct {
	Addr   dot.Address
	Target dot.Target
}

// Store owns the device map. Entries are created once from the configured
// roster and live for the process lifetime.
type Store struct {
	mu       sync.Mutex
	devices  map[dot.Address]*deviceState
	order    []dot.Address // ascending, fixed at creation
	selected dot.Address

	cond   conditioner
	logger *slog.Logger
}

// NewStore builds the store from the roster. The lowest address starts
// selected, mirroring the firmware's power-on default.
func NewStore(roster []config.DeviceConfig, bridgeCfg config.BridgeConfig, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		devices: make(map[dot.Address]*deviceState, len(roster)),
		cond:    newConditioner(bridgeCfg),
		logger:  logger,
	}

	for _, d := range roster {
		if _, exists := s.devices[d.Address]; exists {
			continue
		}
		s.devices[d.Address] = &deviceState{addr: d.Address, name: d.Name}
		s.order = append(s.order, d.Address)
	}
	sortAddresses(s.order)

	if len(s.order) > 0 {
		s.selected = s.order[0]
	}

	logger.Info("bridge: store initialized", "devices", len(s.order))
	return s
}

func sortAddresses(addrs []dot.Address) {
	// Insertion sort; the roster is tiny.
	for i := 1; i < len(addrs); i++ {
		for j := i; j > 0 && addrs[j] < addrs[j-1]; j-- {
			addrs[j], addrs[j-1] = addrs[j-1], addrs[j]
		}
	}
}

// Addresses returns the roster in ascending order.
func (s *Store) Addresses() []dot.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dot.Address, len(s.order))
	copy(out, s.order)
	return out
}

// Has reports whether addr is on the roster.
func (s *Store) Has(addr dot.Address) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.devices[addr]
	return ok
}

// Select changes the device that non-addressed messages apply to.
func (s *Store) Select(addr dot.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[addr]; !ok {
		return errors.NotFoundf("device %d", addr)
	}
	s.selected = addr
	return nil
}

// Selected returns the currently selected device address.
func (s *Store) Selected() dot.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// UpdateColor conditions an RGB sample for the device and marks it dirty on a
// material change.
func (s *Store) UpdateColor(addr dot.Address, r, g, b float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.devices[addr]
	if !ok {
		return errors.NotFoundf("device %d", addr)
	}

	changed := false
	samples := [3]float64{r, g, b}
	for i := 0; i < 3; i++ {
		q := s.cond.conditionByte(&dev.cond[i], samples[i])
		dev.target.Color[i] = uint8(q)
		if q != dev.appliedColor[i] {
			changed = true
		}
	}
	if changed {
		dev.dirty = true
	}
	return nil
}

// UpdateIntensity conditions a normalized vibration intensity sample.
func (s *Store) UpdateIntensity(addr dot.Address, v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.devices[addr]
	if !ok {
		return errors.NotFoundf("device %d", addr)
	}

	q := s.cond.conditionByte(&dev.cond[3], dot.ClampIntensity(v)*255)
	dev.target.Intensity = float64(q) / 255
	if q != dev.appliedVib {
		dev.dirty = true
	}
	return nil
}

// UpdateFrequency conditions a vibration frequency sample in Hz.
func (s *Store) UpdateFrequency(addr dot.Address, hz float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.devices[addr]
	if !ok {
		return errors.NotFoundf("device %d", addr)
	}

	q := s.cond.conditionFrequency(&dev.cond[4], dot.ClampFrequency(hz))
	dev.target.Frequency = float64(q)
	if abs(q-dev.appliedFreq) >= s.cond.step {
		dev.dirty = true
	}
	return nil
}

// ClaimEligible selects every dirty device whose rate-limit window has
// elapsed and marks it in flight, returning claims in ascending address
// order. Claimed devices cannot be selected again until the claim resolves
// through MarkApplied, MarkFailed, or Release.
func (s *Store) ClaimEligible(now time.Time, minInterval time.Duration) []DispatchTarget {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []DispatchTarget
	for _, addr := range s.order {
		dev := s.devices[addr]
		if !dev.dirty || dev.writeInFlight {
			continue
		}
		if dev.everApplied && now.Sub(dev.lastAppliedAt) < minInterval {
			continue
		}
		dev.writeInFlight = true
		out = append(out, DispatchTarget{Addr: addr, Target: dev.target})
	}
	return out
}

// MarkApplied resolves a claim after a successful write. Dirty survives only
// if the target moved while the write was on the wire.
func (s *Store) MarkApplied(addr dot.Address, written dot.Target, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.devices[addr]
	if !ok {
		return
	}

	dev.appliedColor = [3]int{int(written.Color[0]), int(written.Color[1]), int(written.Color[2])}
	dev.appliedVib = int(written.Intensity*255 + 0.5)
	dev.appliedFreq = int(written.Frequency + 0.5)

	dev.writeInFlight = false
	dev.lastAppliedAt = now
	dev.everApplied = true
	dev.stats.UpdateCount++
	dev.stats.Connected = true
	dev.dirty = dev.targetDiffersLocked()
}

// MarkFailed resolves a claim after all attempts were exhausted or a fatal
// transport error. The device stays dirty so the next eligible tick retries
// with the then-current target.
func (s *Store) MarkFailed(addr dot.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.devices[addr]
	if !ok {
		return
	}
	dev.writeInFlight = false
	dev.stats.ErrorCount++
	dev.stats.Connected = false
}

// Release abandons a claim without a write attempt, e.g. on shutdown between
// claim and dispatch.
func (s *Store) Release(addr dot.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dev, ok := s.devices[addr]; ok {
		dev.writeInFlight = false
	}
}

// targetDiffersLocked reports whether the conditioned target differs from the
// last applied values. Caller holds the mutex.
func (d *deviceState) targetDiffersLocked() bool {
	for i := 0; i < 3; i++ {
		if int(d.target.Color[i]) != d.appliedColor[i] {
			return true
		}
	}
	if int(d.target.Intensity*255+0.5) != d.appliedVib {
		return true
	}
	if int(d.target.Frequency+0.5) != d.appliedFreq {
		return true
	}
	return false
}

// SampleHistory returns the recent conditioner input samples for one device,
// keyed by channel ("r", "g", "b", "intensity", "frequency"), oldest first.
// Channels that never received a sample are omitted. Intensity samples are in
// the byte domain the conditioner works in.
func (s *Store) SampleHistory(addr dot.Address) (map[string][]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.devices[addr]
	if !ok {
		return nil, errors.NotFoundf("device %d", addr)
	}

	names := [5]string{"r", "g", "b", "intensity", "frequency"}
	out := make(map[string][]float64)
	for i, name := range names {
		if h := dev.cond[i].History(); len(h) > 0 {
			out[name] = h
		}
	}
	return out, nil
}

// Get returns the snapshot for one device.
func (s *Store) Get(addr dot.Address) (DeviceSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.devices[addr]
	if !ok {
		return DeviceSnapshot{}, errors.NotFoundf("device %d", addr)
	}
	return dev.snapshotLocked(), nil
}

// Snapshot returns all devices in ascending address order.
func (s *Store) Snapshot() []DeviceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]DeviceSnapshot, 0, len(s.order))
	for _, addr := range s.order {
		out = append(out, s.devices[addr].snapshotLocked())
	}
	return out
}

func (d *deviceState) snapshotLocked() DeviceSnapshot {
	return DeviceSnapshot{
		Address:       d.addr,
		Name:          d.name,
		Color:         [3]int{int(d.target.Color[0]), int(d.target.Color[1]), int(d.target.Color[2])},
		Intensity:     d.target.Intensity,
		Frequency:     d.target.Frequency,
		Dirty:         d.dirty,
		WriteInFlight: d.writeInFlight,
		LastAppliedAt: d.lastAppliedAt,
		Stats:         d.stats,
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
