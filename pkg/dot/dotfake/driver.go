// Package dotfake provides an in-memory dot.Driver for tests and for running
// the daemon without hardware (bus.transport: fake). Failures can be scripted
// per device to exercise the retry and disconnect paths.
package dotfake

import (
	"context"
	"sync"

	"github.com/dotfeel/dotbridged/internal/errors"
	"github.com/dotfeel/dotbridged/pkg/dot"
)

// WriteRecord captures one Write call in arrival order.
type WriteRecord struct {
	Addr   dot.Address
	Target dot.Target
}

// Driver is a scriptable in-memory bus.
type Driver struct {
	mu sync.Mutex

	opened bool
	writes []WriteRecord

	// timeouts[addr] is the number of upcoming Write calls for addr that
	// fail with a timeout before succeeding again.
	timeouts map[dot.Address]int

	// fatal[addr] makes every Write for addr fail with a non-timeout error.
	fatal map[dot.Address]bool

	// Telemetry returned by Read; zero value is fine.
	Temp float64

	// WriteDelay, if set, is invoked before each write completes. Tests use
	// it to block writes and observe in-flight state.
	WriteDelay func()
}

// New creates an open-ready fake driver.
func New() *Driver {
	return &Driver{
		timeouts: make(map[dot.Address]int),
		fatal:    make(map[dot.Address]bool),
	}
}

// FailTimeouts scripts the next n writes to addr to fail with a timeout.
func (d *Driver) FailTimeouts(addr dot.Address, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timeouts[addr] = n
}

// FailFatal makes writes to addr fail with a non-timeout error until cleared.
func (d *Driver) FailFatal(addr dot.Address, fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fatal[addr] = fail
}

// Writes returns a copy of all recorded writes.
func (d *Driver) Writes() []WriteRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]WriteRecord, len(d.writes))
	copy(out, d.writes)
	return out
}

// WritesFor returns recorded writes for one device.
func (d *Driver) WritesFor(addr dot.Address) []WriteRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []WriteRecord
	for _, w := range d.writes {
		if w.Addr == addr {
			out = append(out, w)
		}
	}
	return out
}

// LastWrite returns the most recent write for addr, if any.
func (d *Driver) LastWrite(addr dot.Address) (WriteRecord, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.writes) - 1; i >= 0; i-- {
		if d.writes[i].Addr == addr {
			return d.writes[i], true
		}
	}
	return WriteRecord{}, false
}

// Open marks the driver open.
func (d *Driver) Open(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = true
	return nil
}

// Write records the target unless a scripted failure applies.
func (d *Driver) Write(_ context.Context, addr dot.Address, target dot.Target) error {
	d.mu.Lock()
	if !d.opened {
		d.mu.Unlock()
		return errors.DeviceUnavailablef("fake bus not open")
	}
	if d.fatal[addr] {
		d.mu.Unlock()
		return errors.DeviceUnavailablef("fake fatal error for device %d", addr)
	}
	if d.timeouts[addr] > 0 {
		d.timeouts[addr]--
		d.mu.Unlock()
		return errors.WriteTimeoutf("fake timeout for device %d", addr)
	}
	delay := d.WriteDelay
	d.mu.Unlock()

	if delay != nil {
		delay()
	}

	d.mu.Lock()
	d.writes = append(d.writes, WriteRecord{Addr: addr, Target: target})
	d.mu.Unlock()
	return nil
}

// Read returns the configured telemetry.
func (d *Driver) Read(_ context.Context, _ dot.Address) (dot.Telemetry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened {
		return dot.Telemetry{}, errors.DeviceUnavailablef("fake bus not open")
	}
	return dot.Telemetry{SkinTempC: d.Temp}, nil
}

// Close marks the driver closed.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = false
	return nil
}
