package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DaemonConfigFilename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	// Point at a file that doesn't exist so only defaults apply.
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultOSCListenAddress, cfg.OSC.ListenAddress)
	assert.Equal(t, DefaultQueueCapacity, cfg.OSC.QueueCapacity)
	assert.Equal(t, DefaultMinUpdateInterval, cfg.Bridge.MinUpdateInterval)
	assert.Equal(t, DefaultSmoothingAlpha, cfg.Bridge.SmoothingAlpha)
	assert.Equal(t, DefaultNoiseStep, cfg.Bridge.NoiseStep)
	assert.Equal(t, DefaultMaxAttempts, cfg.Bridge.MaxAttempts)
	assert.Equal(t, "serial", cfg.Bus.Transport)

	// Default roster: four devices, addresses 1..4.
	require.Len(t, cfg.Devices, MaxDevices)
	assert.Equal(t, uint8(1), cfg.Devices[0].Address)
	assert.Equal(t, uint8(4), cfg.Devices[3].Address)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
osc:
  listen_address: "0.0.0.0:9001"
  queue_capacity: 50
bus:
  transport: fake
bridge:
  min_update_interval: 50ms
  smoothing_alpha: 0.5
  max_attempts: 5
devices:
  - address: 1
    name: left-wrist
  - address: 2
    name: right-wrist
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9001", cfg.OSC.ListenAddress)
	assert.Equal(t, 50, cfg.OSC.QueueCapacity)
	assert.Equal(t, "fake", cfg.Bus.Transport)
	assert.Equal(t, 50*time.Millisecond, cfg.Bridge.MinUpdateInterval)
	assert.Equal(t, 0.5, cfg.Bridge.SmoothingAlpha)
	assert.Equal(t, 5, cfg.Bridge.MaxAttempts)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	require.Len(t, cfg.Devices, 2)
	assert.Equal(t, "left-wrist", cfg.Devices[0].Name)
	assert.Equal(t, uint8(2), cfg.Devices[1].Address)

	// Unset sections keep their defaults.
	assert.Equal(t, DefaultWriteTimeout, cfg.Bridge.WriteTimeout)
	assert.Equal(t, DefaultAPIListenAddress, cfg.API.ListenAddress)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("DOTBRIDGE_OSC_LISTEN_ADDRESS", "127.0.0.1:7777")
	t.Setenv("DOTBRIDGE_LOGGING_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7777", cfg.OSC.ListenAddress)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "duplicate addresses",
			yaml: "devices:\n  - address: 1\n  - address: 1\n",
		},
		{
			name: "reserved address zero",
			yaml: "devices:\n  - address: 0\n",
		},
		{
			name: "alpha out of range",
			yaml: "bridge:\n  smoothing_alpha: 1.5\n",
		},
		{
			name: "noise step too large",
			yaml: "bridge:\n  noise_step: 500\n",
		},
		{
			name: "zero attempts",
			yaml: "bridge:\n  max_attempts: 0\n",
		},
		{
			name: "zero queue capacity",
			yaml: "osc:\n  queue_capacity: 0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}
