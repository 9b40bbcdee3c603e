package commands

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotfeel/dotbridged/pkg/client"
)

// mockClient implements the Client interface and returns static data.
type mockClient struct {
	healthErr error
}

var _ Client = (*mockClient)(nil)

func (m *mockClient) GetVersion(context.Context) (client.Version, error) {
	return client.Version{Version: "9.9.9", Commit: "cafef00d", BuildDate: "2026-02-03"}, nil
}

func (m *mockClient) GetHealth(context.Context) error {
	return m.healthErr
}

func (m *mockClient) GetDevices(context.Context) (map[string]client.Device, error) {
	return map[string]client.Device{
		"1": testDevice(1, true),
		"2": testDevice(2, false),
	}, nil
}

func (m *mockClient) GetDevice(_ context.Context, address int) (client.Device, error) {
	if address > 4 {
		return client.Device{}, fmt.Errorf("HTTP error 404: Device not found: %d", address)
	}
	return testDevice(address, true), nil
}

func (m *mockClient) GetStats(context.Context) (client.Stats, error) {
	return client.Stats{
		Devices: []client.Device{testDevice(1, true), testDevice(2, false)},
		Queue:   client.Queue{Decoded: 10, Dropped: 2, Overflows: 1},
		TakenAt: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

func testDevice(address int, connected bool) client.Device {
	age := int64(-1)
	if connected {
		age = 120
	}
	return client.Device{
		Address:         address,
		Name:            fmt.Sprintf("dot-%d", address),
		Color:           [3]int{255, 128, 0},
		Intensity:       0.5,
		Frequency:       170,
		Connected:       connected,
		UpdateCount:     7,
		LastUpdateAgeMS: age,
	}
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand("test", "none", "never")
	root.SetArgs(args)
	ctx := context.WithValue(context.Background(), ClientContextKey, &mockClient{})

	var err error
	out := captureStdout(func() {
		err = root.ExecuteContext(ctx)
	})
	return out, err
}

func TestDeviceListParseable(t *testing.T) {
	out, err := runCommand(t, "device", "list", "--parseable")
	require.NoError(t, err)

	assert.Contains(t, out, `address=1 name="dot-1" color=FF8000`)
	assert.Contains(t, out, "connected=true")
	assert.Contains(t, out, "last_update_age_ms=-1")
}

func TestDeviceListTable(t *testing.T) {
	out, err := runCommand(t, "device", "list")
	require.NoError(t, err)

	assert.Contains(t, out, "dot-1")
	assert.Contains(t, out, "dot-2")
	assert.Contains(t, out, "#FF8000")
	assert.Contains(t, out, "170 Hz")
	assert.Contains(t, out, "never")
}

func TestDeviceGet(t *testing.T) {
	out, err := runCommand(t, "device", "get", "3", "--parseable")
	require.NoError(t, err)
	assert.Contains(t, out, `address=3 name="dot-3"`)
}

func TestDeviceGetInvalidAddress(t *testing.T) {
	_, err := runCommand(t, "device", "get", "banana")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid device address")
}

func TestDeviceGetNotFound(t *testing.T) {
	_, err := runCommand(t, "device", "get", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestStatusParseable(t *testing.T) {
	out, err := runCommand(t, "status", "--parseable")
	require.NoError(t, err)
	assert.Contains(t, out, "queue_decoded=10 queue_dropped=2 queue_overflows=1")
	assert.Contains(t, out, `address=1 name="dot-1"`)
}

func TestStatusUnhealthyDaemon(t *testing.T) {
	root := NewRootCommand("test", "none", "never")
	root.SetArgs([]string{"status"})
	ctx := context.WithValue(context.Background(), ClientContextKey,
		&mockClient{healthErr: fmt.Errorf("connection refused")})

	var err error
	captureStdout(func() {
		err = root.ExecuteContext(ctx)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unhealthy")
}
