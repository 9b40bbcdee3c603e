package commands

import (
	"context"

	"github.com/dotfeel/dotbridged/pkg/client"
)

// Client defines the daemon operations the CLI uses.
// Used for testability and mocking in command tests.
type Client interface {
	GetVersion(ctx context.Context) (client.Version, error)
	GetHealth(ctx context.Context) error
	GetDevices(ctx context.Context) (map[string]client.Device, error)
	GetDevice(ctx context.Context, address int) (client.Device, error)
	GetStats(ctx context.Context) (client.Stats, error)
}

// Ensure the real client satisfies the interface at compile time.
var _ Client = (*client.Client)(nil)
