package dot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/dotfeel/dotbridged/internal/errors"
)

// Wire framing for the Dot serial protocol. Every transaction is initiated by
// the host; devices only ever answer a read-back request.
const (
	frameWrite = 0xA1
	frameRead  = 0xA2

	writeFrameLen = 9 // marker addr r g b intensity freqLo freqHi checksum
	readFrameLen  = 3 // marker addr checksum
	replyFrameLen = 4 // addr tempLo tempHi checksum
)

// SerialDriver drives Dots over a shared serial (or serial-over-BLE) port.
// A single mutex covers each full write+read transaction so concurrent
// callers can never interleave frames on the wire.
type SerialDriver struct {
	portName string
	baud     int
	logger   *slog.Logger

	mu   sync.Mutex
	port io.ReadWriteCloser

	// Completion channel of a transaction that hit its deadline while the
	// port call was still blocked. Guarded by mu.
	pending chan error
}

// NewSerialDriver creates a driver for the given port. The port is not
// opened until Open is called.
func NewSerialDriver(portName string, baud int, logger *slog.Logger) *SerialDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SerialDriver{
		portName: portName,
		baud:     baud,
		logger:   logger,
	}
}

// Open opens the serial port.
func (d *SerialDriver) Open(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port != nil {
		return nil
	}

	port, err := serial.OpenPort(&serial.Config{
		Name: d.portName,
		Baud: d.baud,
		// Short poll so blocked reads re-check the caller's deadline.
		ReadTimeout: 50 * time.Millisecond,
	})
	if err != nil {
		return errors.DeviceUnavailablef("opening %s: %v", d.portName, err)
	}

	d.port = port
	d.logger.Info("bus: serial port opened", "port", d.portName, "baud", d.baud)
	return nil
}

// Write sends one target frame to the addressed device.
func (d *SerialDriver) Write(ctx context.Context, addr Address, target Target) error {
	frame := encodeWriteFrame(addr, target)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port == nil {
		return errors.DeviceUnavailablef("serial port not open")
	}
	if err := ctx.Err(); err != nil {
		return errors.WriteTimeoutf("before write to device %d", addr)
	}

	d.logger.Debug("bus: write frame",
		"device", addr,
		"color", target.Color,
		"intensity", target.Intensity,
		"frequency", target.Frequency,
	)

	if err := d.transact(ctx, func() error {
		_, err := d.port.Write(frame)
		return err
	}); err != nil {
		return err
	}
	return nil
}

// Read requests and decodes the telemetry frame from the addressed device.
func (d *SerialDriver) Read(ctx context.Context, addr Address) (Telemetry, error) {
	req := []byte{frameRead, addr, checksum([]byte{frameRead, addr})}
	reply := make([]byte, replyFrameLen)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port == nil {
		return Telemetry{}, errors.DeviceUnavailablef("serial port not open")
	}

	err := d.transact(ctx, func() error {
		if _, err := d.port.Write(req); err != nil {
			return err
		}
		return d.readFull(ctx, reply)
	})
	if err != nil {
		return Telemetry{}, err
	}

	if reply[0] != addr {
		return Telemetry{}, errors.DeviceUnavailablef("telemetry reply addressed to %d, want %d", reply[0], addr)
	}
	if checksum(reply[:replyFrameLen-1]) != reply[replyFrameLen-1] {
		return Telemetry{}, errors.DeviceUnavailablef("telemetry checksum mismatch for device %d", addr)
	}

	raw := uint16(reply[1]) | uint16(reply[2])<<8
	return Telemetry{SkinTempC: float64(raw) / 10}, nil
}

// Close closes the serial port.
func (d *SerialDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	return err
}

// transact runs fn under the caller's deadline. The serial library has no
// per-call deadline on writes, so the call runs on its own goroutine. When
// the context expires first, the goroutine is still blocked inside the port;
// its completion channel is parked on the driver and the next transaction
// waits it out before touching the port, so an abandoned write can never
// interleave with a fresh frame and an abandoned read can never consume the
// next reply.
func (d *SerialDriver) transact(ctx context.Context, fn func() error) error {
	if d.pending != nil {
		select {
		case <-d.pending:
			d.pending = nil
		case <-ctx.Done():
			return errors.WriteTimeoutf("bus busy with abandoned transaction")
		}
	}

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		if err != nil {
			if ctx.Err() != nil {
				return errors.WriteTimeoutf("serial transaction")
			}
			return errors.DeviceUnavailablef("serial transaction: %v", err)
		}
		return nil
	case <-ctx.Done():
		d.pending = done
		return errors.WriteTimeoutf("serial transaction")
	}
}

// readFull reads len(buf) bytes, looping over the port's short read timeout
// until the buffer is full or the context deadline passes.
func (d *SerialDriver) readFull(ctx context.Context, buf []byte) error {
	off := 0
	for off < len(buf) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("short telemetry read (%d/%d): %w", off, len(buf), err)
		}
		n, err := d.port.Read(buf[off:])
		if err != nil && err != io.EOF {
			return err
		}
		off += n
	}
	return nil
}

func encodeWriteFrame(addr Address, target Target) []byte {
	freq := frequencyWord(target.Frequency)
	frame := []byte{
		frameWrite,
		addr,
		target.Color[0],
		target.Color[1],
		target.Color[2],
		intensityByte(target.Intensity),
		uint8(freq & 0xFF),
		uint8(freq >> 8),
		0,
	}
	frame[writeFrameLen-1] = checksum(frame[:writeFrameLen-1])
	return frame
}

// checksum is the XOR of all frame bytes.
func checksum(b []byte) uint8 {
	var sum uint8
	for _, v := range b {
		sum ^= v
	}
	return sum
}
