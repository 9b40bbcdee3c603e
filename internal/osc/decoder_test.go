package osc

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotfeel/dotbridged/internal/bridge"
	"github.com/dotfeel/dotbridged/internal/config"
	"github.com/dotfeel/dotbridged/pkg/dot"
)

type decoderFixture struct {
	store   *bridge.Store
	stats   *bridge.Collector
	decoder *Decoder
}

func newDecoderFixture(t *testing.T) *decoderFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.BridgeConfig{
		SmoothingAlpha: 1.0, // pass samples through so assertions track inputs
		NoiseStep:      1,
		SampleHistory:  config.DefaultSampleHistory,
	}
	store := bridge.NewStore(config.DefaultRoster(), cfg, logger)
	stats := bridge.NewCollector(store)
	return &decoderFixture{
		store:   store,
		stats:   stats,
		decoder: NewDecoder(store, stats, nil, logger),
	}
}

func (f *decoderFixture) snapshot(t *testing.T, addr dot.Address) bridge.DeviceSnapshot {
	t.Helper()
	snap, err := f.store.Get(addr)
	require.NoError(t, err)
	return snap
}

func TestApplyRGBTargetsSelectedDevice(t *testing.T) {
	f := newDecoderFixture(t)

	f.decoder.Apply(Message{Address: AddressSelect, Args: []any{int32(3)}})
	f.decoder.Apply(Message{Address: AddressRGB, Args: []any{int32(10), int32(20), int32(30)}})

	snap := f.snapshot(t, 3)
	assert.Equal(t, [3]int{10, 20, 30}, snap.Color)
	assert.True(t, snap.Dirty)

	untouched := f.snapshot(t, 1)
	assert.False(t, untouched.Dirty)

	assert.Equal(t, uint64(2), f.stats.Snapshot().Queue.Decoded)
}

func TestApplyIntensityNormalizesByteScale(t *testing.T) {
	f := newDecoderFixture(t)

	f.decoder.Apply(Message{Address: AddressIntensity, Args: []any{float32(0.5)}})
	snap := f.snapshot(t, 1)
	assert.InDelta(t, 0.5, snap.Intensity, 0.01)

	// Byte-scale senders land on the same canonical range.
	f.decoder.Apply(Message{Address: AddressIntensity, Args: []any{int32(255)}})
	snap = f.snapshot(t, 1)
	assert.InDelta(t, 1.0, snap.Intensity, 0.01)
}

func TestApplyFrequencyNormalizesUnitScale(t *testing.T) {
	f := newDecoderFixture(t)

	f.decoder.Apply(Message{Address: AddressFrequency, Args: []any{float32(0.5)}})
	assert.InDelta(t, 125, f.snapshot(t, 1).Frequency, 1)

	f.decoder.Apply(Message{Address: AddressFrequency, Args: []any{float32(120)}})
	assert.InDelta(t, 120, f.snapshot(t, 1).Frequency, 1)
}

func TestApplyMalformedLeavesStateUntouched(t *testing.T) {
	f := newDecoderFixture(t)

	before := f.snapshot(t, 1)
	f.decoder.Apply(Message{Address: AddressIntensity, Args: []any{"loud"}})
	f.decoder.Apply(Message{Address: AddressRGB, Args: []any{int32(1), int32(2)}})
	f.decoder.Apply(Message{Address: "/datafeel/unknown", Args: []any{int32(1)}})

	after := f.snapshot(t, 1)
	assert.Equal(t, before, after)

	q := f.stats.Snapshot().Queue
	assert.Equal(t, uint64(0), q.Decoded)
	assert.Equal(t, uint64(3), q.Dropped)
}

func TestApplySelectUnknownDeviceDropped(t *testing.T) {
	f := newDecoderFixture(t)

	f.decoder.Apply(Message{Address: AddressSelect, Args: []any{int32(9)}})
	assert.Equal(t, dot.Address(1), f.store.Selected(), "selection must survive a bad select")
	assert.Equal(t, uint64(1), f.stats.Snapshot().Queue.Dropped)
}

func TestApplyBatchUpdate(t *testing.T) {
	f := newDecoderFixture(t)

	payload := `{
		"devices": {
			"1": {"rgb": [10, 20, 30], "vibration": 0.5, "frequency": 120},
			"2": {"rgb": [40, 50, 60]},
			"9": {"rgb": [99, 99, 99]}
		},
		"timestamp": 1700000000.5
	}`
	f.decoder.Apply(Message{Address: AddressBatch, Args: []any{payload}})

	one := f.snapshot(t, 1)
	assert.Equal(t, [3]int{10, 20, 30}, one.Color)
	assert.InDelta(t, 0.5, one.Intensity, 0.01)
	assert.InDelta(t, 120, one.Frequency, 1)
	assert.True(t, one.Dirty)

	two := f.snapshot(t, 2)
	assert.Equal(t, [3]int{40, 50, 60}, two.Color)

	// One decoded message overall; the unknown id is skipped, not an error.
	q := f.stats.Snapshot().Queue
	assert.Equal(t, uint64(1), q.Decoded)
	assert.Equal(t, uint64(0), q.Dropped)
}

func TestApplyBatchInvalidJSONDropped(t *testing.T) {
	f := newDecoderFixture(t)

	f.decoder.Apply(Message{Address: AddressBatch, Args: []any{"{not json"}})
	f.decoder.Apply(Message{Address: AddressBatch, Args: []any{int32(7)}})

	q := f.stats.Snapshot().Queue
	assert.Equal(t, uint64(2), q.Dropped)
}
