package routes

import (
	"context"

	"github.com/dotfeel/dotbridged/internal/http/handlers"
)

// Handlers aggregates all handler implementations for route registration.
// For the main server, pass real handler implementations.
// For OpenAPI generation, pass stub implementations.
type Handlers struct {
	HealthCheck  func(context.Context, *handlers.HealthInput) (*handlers.HealthOutput, error)
	VersionCheck func(context.Context, *handlers.VersionInput) (*handlers.VersionOutput, error)
	Device       handlers.DeviceHandlers
	Stats        handlers.StatsHandlers
}
