package config

import "time"

// Common constants shared between daemon and client
const (
	// ConfigDirName is the name of the config directory within XDG_CONFIG_HOME
	ConfigDirName = "dotbridge"

	// DaemonConfigFilename is the base filename for daemon config
	DaemonConfigFilename = "dotbridged.yaml"

	// ClientConfigFilename is the base filename for client config
	ClientConfigFilename = "dotctl.yaml"

	// DefaultOSCListenAddress is the default UDP address for inbound OSC
	DefaultOSCListenAddress = "127.0.0.1:8000"

	// DefaultAPIListenAddress is the default HTTP API listen address
	DefaultAPIListenAddress = "127.0.0.1:9123"
)

// Ingest defaults
const (
	// DefaultQueueCapacity bounds the OSC ingest queue; the oldest entry is
	// evicted when a message arrives at capacity.
	DefaultQueueCapacity = 100
)

// Bridge timing defaults
const (
	// DefaultMinUpdateInterval is the per-device write-rate floor (~30Hz ceiling).
	DefaultMinUpdateInterval = 33 * time.Millisecond

	// DefaultTickInterval is the scheduler tick; aligned to the per-device floor.
	DefaultTickInterval = 33 * time.Millisecond

	// DefaultWriteTimeout is the base per-attempt bus write timeout.
	// Attempt n waits n times this long before giving up.
	DefaultWriteTimeout = 250 * time.Millisecond

	// DefaultRetryDelay is the pause between retry attempts.
	DefaultRetryDelay = 50 * time.Millisecond

	// DefaultMaxAttempts is the number of write attempts before a device is
	// marked disconnected for the cycle.
	DefaultMaxAttempts = 3

	// DefaultBusWritesPerSecond caps aggregate bus transactions across all
	// devices. 0 disables the cap.
	DefaultBusWritesPerSecond = 120
)

// Conditioning defaults
const (
	// DefaultSmoothingAlpha is the EMA smoothing factor applied to every
	// inbound channel sample.
	DefaultSmoothingAlpha = 0.3

	// DefaultNoiseStep quantizes conditioned channels; a device only goes
	// dirty when a channel moves by at least this much from the last applied
	// value.
	DefaultNoiseStep = 5

	// DefaultSampleHistory bounds the per-channel sample history retained for
	// the monitor feed.
	DefaultSampleHistory = 20
)

// Device constraints
const (
	// MaxDevices is the size of the addressable roster on one bus.
	MaxDevices = 4

	// MinFrequency is the lowest supported vibration frequency in Hz
	MinFrequency = 0

	// MaxFrequency is the highest supported vibration frequency in Hz
	MaxFrequency = 250
)

// Serial bus defaults
const (
	// DefaultSerialBaud is the line rate for the serial transport.
	DefaultSerialBaud = 115200
)

// Logging constants
const (
	// LogLevelDebug represents debug log level
	LogLevelDebug = "debug"

	// LogLevelInfo represents info log level
	LogLevelInfo = "info"

	// LogLevelWarn represents warning log level
	LogLevelWarn = "warn"

	// LogLevelError represents error log level
	LogLevelError = "error"

	// LogFormatText represents text log format
	LogFormatText = "text"

	// LogFormatJSON represents JSON log format
	LogFormatJSON = "json"
)
