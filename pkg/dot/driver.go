package dot

import "context"

// Driver is the transport contract the bridge writes through. Implementations
// own the physical connection and must be safe for use from a single writer
// goroutine; the bus tolerates exactly one transaction in flight, so a Write
// or Read call covers one full transaction including any response.
//
// Timeouts are signalled via the context deadline; implementations must return
// an error wrapping errors.ErrWriteTimeout when the deadline expires so the
// caller can tell transient congestion from a fatal transport error.
type Driver interface {
	// Open establishes the transport. Called once at startup; failure is
	// fatal for the daemon.
	Open(ctx context.Context) error

	// Write applies the target state to the addressed device.
	Write(ctx context.Context, addr Address, target Target) error

	// Read performs the telemetry read-back for the addressed device.
	Read(ctx context.Context, addr Address) (Telemetry, error)

	// Close releases the transport.
	Close() error
}
