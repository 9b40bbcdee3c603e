package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotfeel/dotbridged/internal/bridge"
	"github.com/dotfeel/dotbridged/internal/config"
	"github.com/dotfeel/dotbridged/internal/events"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := bridge.NewStore(config.DefaultRoster(), config.BridgeConfig{}, logger)
	stats := bridge.NewCollector(store)
	bus := events.NewBus()

	srv := New(logger, config.APIConfig{}, stats, bus, BuildInfo{
		Version:   "test",
		Commit:    "deadbeef",
		BuildDate: "2026-01-01",
	})

	ts := httptest.NewServer(srv.router())
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
	})
	return srv, ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	var health struct {
		Status string `json:"status"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/health", &health))
	assert.Equal(t, "ok", health.Status)

	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/healthz", nil))
}

func TestVersionEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	var version struct {
		Version string `json:"version"`
		Commit  string `json:"commit"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/version", &version))
	assert.Equal(t, "test", version.Version)
	assert.Equal(t, "deadbeef", version.Commit)
}

func TestDevicesEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	var devices map[string]struct {
		Address int    `json:"address"`
		Name    string `json:"name"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/devices", &devices))
	require.Len(t, devices, 4)
	assert.Equal(t, "dot-2", devices["2"].Name)

	var device struct {
		Address   int  `json:"address"`
		Connected bool `json:"connected"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/devices/3", &device))
	assert.Equal(t, 3, device.Address)
	assert.False(t, device.Connected)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/v1/devices/9", nil))
}

func TestStatsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	var stats struct {
		Devices []struct {
			Address int `json:"address"`
		} `json:"devices"`
		Queue struct {
			Decoded uint64 `json:"decoded"`
		} `json:"queue"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/stats", &stats))
	require.Len(t, stats.Devices, 4)
	assert.Equal(t, 1, stats.Devices[0].Address)
	assert.Equal(t, uint64(0), stats.Queue.Decoded)
}

func TestWebSocketRoute(t *testing.T) {
	_, ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
}
