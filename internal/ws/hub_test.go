package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotfeel/dotbridged/internal/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func startTestHub(t *testing.T) (*Hub, *events.Bus, context.CancelFunc) {
	t.Helper()
	bus := events.NewBus()
	logger := testLogger()
	hub := NewHub(logger, bus)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	// Give the hub's Run loop time to start
	time.Sleep(10 * time.Millisecond)

	return hub, bus, cancel
}

func startTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	logger := testLogger()
	server := httptest.NewServer(Handler(hub, logger))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dialWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	dialer := websocket.Dialer{}
	conn, _, err := dialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var evt events.Event
	require.NoError(t, json.Unmarshal(msg, &evt))
	return evt
}

// --- Hub lifecycle tests ---

func TestNewHub_CreatesHub(t *testing.T) {
	bus := events.NewBus()
	logger := testLogger()
	hub := NewHub(logger, bus)

	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.NotNil(t, hub.unsub)
}

func TestHub_ClientCount(t *testing.T) {
	hub, _, cancel := startTestHub(t)
	defer cancel()

	server := startTestServer(t, hub)

	assert.Equal(t, 0, hub.ClientCount())

	conn1 := dialWS(t, server)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, hub.ClientCount())

	conn2 := dialWS(t, server)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, hub.ClientCount())

	// Close one connection
	conn1.Close()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, hub.ClientCount())

	conn2.Close()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, hub.ClientCount())
}

// --- Event broadcasting tests ---

func TestHub_BroadcastsEventToClients(t *testing.T) {
	hub, bus, cancel := startTestHub(t)
	defer cancel()

	server := startTestServer(t, hub)
	conn := dialWS(t, server)
	time.Sleep(20 * time.Millisecond)

	bus.Publish(events.NewEvent(events.DeviceApplied, events.DevicePayload{
		Device: 2,
		Color:  [3]int{255, 0, 0},
	}))

	evt := readEvent(t, conn)
	assert.Equal(t, events.DeviceApplied, evt.Type)

	var data events.DevicePayload
	require.NoError(t, json.Unmarshal(evt.Data, &data))
	assert.Equal(t, uint8(2), data.Device)
	assert.Equal(t, [3]int{255, 0, 0}, data.Color)
}

func TestHub_BroadcastsToMultipleClients(t *testing.T) {
	hub, bus, cancel := startTestHub(t)
	defer cancel()

	server := startTestServer(t, hub)
	conn1 := dialWS(t, server)
	conn2 := dialWS(t, server)
	time.Sleep(20 * time.Millisecond)

	bus.Publish(events.NewEvent(events.DeviceConnected, events.DevicePayload{Device: 1}))

	var wg sync.WaitGroup
	wg.Add(2)

	var evt1, evt2 events.Event
	go func() { defer wg.Done(); evt1 = readEvent(t, conn1) }()
	go func() { defer wg.Done(); evt2 = readEvent(t, conn2) }()
	wg.Wait()

	assert.Equal(t, events.DeviceConnected, evt1.Type)
	assert.Equal(t, events.DeviceConnected, evt2.Type)
}

func TestHub_MultipleEventsInSequence(t *testing.T) {
	hub, bus, cancel := startTestHub(t)
	defer cancel()

	server := startTestServer(t, hub)
	conn := dialWS(t, server)
	time.Sleep(20 * time.Millisecond)

	eventTypes := []events.EventType{
		events.OSCMessage,
		events.DeviceApplied,
		events.DeviceWriteFailed,
	}
	for _, et := range eventTypes {
		bus.Publish(events.NewEvent(et, nil))
	}

	var received []events.EventType
	for i := 0; i < 3; i++ {
		received = append(received, readEvent(t, conn).Type)
	}

	assert.Equal(t, eventTypes, received)
}

// --- History replay tests ---

func TestHub_ReplaysHistoryToNewClient(t *testing.T) {
	hub, bus, cancel := startTestHub(t)
	defer cancel()

	server := startTestServer(t, hub)

	// Events published before anyone connects.
	bus.Publish(events.NewEvent(events.DeviceConnected, events.DevicePayload{Device: 1}))
	bus.Publish(events.NewEvent(events.DeviceApplied, events.DevicePayload{Device: 1}))
	time.Sleep(20 * time.Millisecond)

	conn := dialWS(t, server)

	assert.Equal(t, events.DeviceConnected, readEvent(t, conn).Type)
	assert.Equal(t, events.DeviceApplied, readEvent(t, conn).Type)
}

func TestHub_HistoryBounded(t *testing.T) {
	hub, bus, cancel := startTestHub(t)
	defer cancel()

	server := startTestServer(t, hub)

	total := historySize + 20
	for i := 0; i < total; i++ {
		bus.Publish(events.NewEvent(events.OSCMessage, MessageSeq{Seq: i}))
		// Publishing in a tight loop can outrun the broadcast buffer.
		if i%64 == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
	time.Sleep(50 * time.Millisecond)

	conn := dialWS(t, server)

	evt := readEvent(t, conn)
	var first MessageSeq
	require.NoError(t, json.Unmarshal(evt.Data, &first))
	assert.Equal(t, total-historySize, first.Seq,
		fmt.Sprintf("replay must start %d events from the end", historySize))
}

// MessageSeq is a test payload carrying an ordering sequence number.
type MessageSeq struct {
	Seq int `json:"seq"`
}

// --- Handler tests ---

func TestHandler_UpgradesConnection(t *testing.T) {
	hub, _, cancel := startTestHub(t)
	defer cancel()

	server := startTestServer(t, hub)

	dialer := websocket.Dialer{}
	conn, resp, err := dialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
}

func TestHandler_NonWebSocketRequest(t *testing.T) {
	hub, _, cancel := startTestHub(t)
	defer cancel()

	logger := testLogger()
	server := httptest.NewServer(Handler(hub, logger))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	// gorilla/websocket returns 400 Bad Request for non-upgrade requests
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// --- Hub shutdown tests ---

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, _, cancel := startTestHub(t)

	server := startTestServer(t, hub)
	conn := dialWS(t, server)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, hub.ClientCount())

	cancel()
	time.Sleep(100 * time.Millisecond)

	conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

// --- NewClient tests ---

func TestNewClient(t *testing.T) {
	bus := events.NewBus()
	logger := testLogger()
	hub := NewHub(logger, bus)

	client := hub.NewClient(nil)
	assert.Equal(t, hub, client.hub)
	assert.Nil(t, client.conn)
	assert.NotNil(t, client.send)
	assert.Equal(t, sendBufferSize, cap(client.send))
}
