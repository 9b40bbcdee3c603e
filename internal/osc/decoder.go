package osc

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/dotfeel/dotbridged/internal/bridge"
	"github.com/dotfeel/dotbridged/internal/config"
	"github.com/dotfeel/dotbridged/internal/errors"
	"github.com/dotfeel/dotbridged/internal/events"
	"github.com/dotfeel/dotbridged/pkg/dot"
)

// Address patterns the bridge handles. Single-channel addresses apply to the
// currently selected device; batch_update carries per-device payloads.
const (
	AddressRGB       = "/datafeel/led/rgb"
	AddressIntensity = "/datafeel/vibration/intensity"
	AddressFrequency = "/datafeel/vibration/frequency"
	AddressSelect    = "/datafeel/device/select"
	AddressBatch     = "/datafeel/batch_update"
)

// MessagePayload is the event-bus Data shape for decoded messages, consumed
// by the WebSocket monitor feed.
type MessagePayload struct {
	Address string `json:"address"`
	Args    []any  `json:"args"`
}

// Decoder turns parsed OSC messages into device store updates. Malformed
// payloads and unknown devices are dropped with a debug log; ingest problems
// never surface as device errors.
type Decoder struct {
	store  *bridge.Store
	stats  *bridge.Collector
	bus    *events.Bus
	logger *slog.Logger
}

// NewDecoder wires the decoder over the store.
func NewDecoder(store *bridge.Store, stats *bridge.Collector, bus *events.Bus, logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{store: store, stats: stats, bus: bus, logger: logger}
}

// Run drains the queue on a fixed interval until ctx is cancelled, applying
// each message in arrival order.
func (d *Decoder) Run(ctx context.Context, queue *Queue, interval time.Duration) error {
	if interval <= 0 {
		interval = config.DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.logger.Info("osc: decoder started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("osc: decoder stopped")
			return nil
		case <-ticker.C:
			for _, msg := range queue.Drain() {
				d.Apply(msg)
			}
		}
	}
}

// Apply routes one message into the store.
func (d *Decoder) Apply(msg Message) {
	var err error
	switch msg.Address {
	case AddressRGB:
		err = d.applyRGB(msg)
	case AddressIntensity:
		err = d.applyIntensity(msg)
	case AddressFrequency:
		err = d.applyFrequency(msg)
	case AddressSelect:
		err = d.applySelect(msg)
	case AddressBatch:
		err = d.applyBatch(msg)
	default:
		d.logger.Debug("osc: ignoring unhandled address", "address", msg.Address)
		d.stats.RecordDropped()
		return
	}
	if err != nil {
		d.logger.Debug("osc: dropping message", "address", msg.Address, "error", err)
		d.stats.RecordDropped()
		return
	}

	d.stats.RecordDecoded()
	if d.bus != nil {
		d.bus.Publish(events.NewEvent(events.OSCMessage, MessagePayload{
			Address: msg.Address,
			Args:    msg.Args,
		}))
	}
}

func (d *Decoder) applyRGB(msg Message) error {
	r, ok1 := msg.Float(0)
	g, ok2 := msg.Float(1)
	b, ok3 := msg.Float(2)
	if !ok1 || !ok2 || !ok3 {
		return errors.InvalidInputf("rgb requires three numeric arguments, got %d", len(msg.Args))
	}
	return d.store.UpdateColor(d.store.Selected(), r, g, b)
}

func (d *Decoder) applyIntensity(msg Message) error {
	v, ok := msg.Float(0)
	if !ok {
		return errors.InvalidInputf("intensity requires one numeric argument")
	}
	return d.store.UpdateIntensity(d.store.Selected(), normalizeIntensity(v))
}

func (d *Decoder) applyFrequency(msg Message) error {
	v, ok := msg.Float(0)
	if !ok {
		return errors.InvalidInputf("frequency requires one numeric argument")
	}
	return d.store.UpdateFrequency(d.store.Selected(), normalizeFrequency(v))
}

func (d *Decoder) applySelect(msg Message) error {
	v, ok := msg.Float(0)
	if !ok {
		return errors.InvalidInputf("select requires one numeric argument")
	}
	if v < 0 || v > 255 {
		return errors.InvalidInputf("device id %v out of range", v)
	}
	return d.store.Select(dot.Address(v))
}

// batchUpdate is the JSON payload carried as batch_update's single string
// argument. The timestamp field senders include is ignored.
type batchUpdate struct {
	Devices map[string]batchDevice `json:"devices"`
}

type batchDevice struct {
	RGB       []float64 `json:"rgb"`
	Vibration *float64  `json:"vibration"`
	Frequency *float64  `json:"frequency"`
}

func (d *Decoder) applyBatch(msg Message) error {
	raw, ok := msg.String(0)
	if !ok {
		return errors.InvalidInputf("batch_update requires one string argument")
	}
	var batch batchUpdate
	if err := json.Unmarshal([]byte(raw), &batch); err != nil {
		return errors.InvalidInputf("batch_update payload is not valid JSON: %v", err)
	}

	for id, update := range batch.Devices {
		addr, err := strconv.ParseUint(id, 10, 8)
		if err != nil || !d.store.Has(dot.Address(addr)) {
			d.logger.Debug("osc: batch_update skipping unknown device", "id", id)
			continue
		}
		d.applyBatchDevice(dot.Address(addr), update)
	}
	return nil
}

func (d *Decoder) applyBatchDevice(addr dot.Address, update batchDevice) {
	if len(update.RGB) == 3 {
		if err := d.store.UpdateColor(addr, update.RGB[0], update.RGB[1], update.RGB[2]); err != nil {
			d.logger.Debug("osc: batch_update color rejected", "device", addr, "error", err)
		}
	}
	if update.Vibration != nil {
		if err := d.store.UpdateIntensity(addr, normalizeIntensity(*update.Vibration)); err != nil {
			d.logger.Debug("osc: batch_update vibration rejected", "device", addr, "error", err)
		}
	}
	if update.Frequency != nil {
		if err := d.store.UpdateFrequency(addr, normalizeFrequency(*update.Frequency)); err != nil {
			d.logger.Debug("osc: batch_update frequency rejected", "device", addr, "error", err)
		}
	}
}

// normalizeIntensity maps byte-scale senders (0-255) onto the canonical 0-1
// range. Values at or below 1.0 are already normalized.
func normalizeIntensity(v float64) float64 {
	if v > 1.0 {
		return v / 255.0
	}
	return v
}

// normalizeFrequency maps normalized senders (0-1) onto Hz. Values above 1.0
// are already Hz.
func normalizeFrequency(v float64) float64 {
	if v > 0 && v <= 1.0 {
		return v * config.MaxFrequency
	}
	return v
}
