package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/dotfeel/dotbridged/internal/http/mw"
)

// Register registers all API routes with the given Huma API instance.
// Pass real handler implementations for the main server, or stub
// implementations for OpenAPI generation.
func Register(api huma.API, h *Handlers) {
	// --- Health ---
	mw.PublicGet(api, "/api/v1/health", h.HealthCheck,
		mw.WithTags("Health"),
		mw.WithSummary("Health check"),
		mw.WithDescription("Returns service health status."),
		mw.WithOperationID("healthCheck"))

	mw.HiddenGet(api, "/healthz", h.HealthCheck)

	// --- Version ---
	mw.PublicGet(api, "/api/v1/version", h.VersionCheck,
		mw.WithTags("Version"),
		mw.WithSummary("Daemon version"),
		mw.WithDescription("Returns the running daemon's version, commit, and build date."),
		mw.WithOperationID("getVersion"))

	// --- Devices ---
	mw.PublicGet(api, "/api/v1/devices", h.Device.ListDevices,
		mw.WithTags("Devices"),
		mw.WithSummary("List all devices"),
		mw.WithDescription("Returns all configured devices as a map keyed by bus address."),
		mw.WithOperationID("listDevices"))

	mw.PublicGet(api, "/api/v1/devices/{id}", h.Device.GetDevice,
		mw.WithTags("Devices"),
		mw.WithSummary("Get a device"),
		mw.WithOperationID("getDevice"))

	// --- Stats ---
	mw.PublicGet(api, "/api/v1/stats", h.Stats.GetStats,
		mw.WithTags("Stats"),
		mw.WithSummary("Bridge status snapshot"),
		mw.WithDescription("Returns per-device state plus ingest queue counters."),
		mw.WithOperationID("getStats"))

	// Note: /api/v1/ws is registered as a raw Chi route in server.go because
	// WebSocket upgrades bypass Huma's typed request handling.
}
