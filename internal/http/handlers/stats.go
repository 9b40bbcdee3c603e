package handlers

import (
	"context"

	"github.com/dotfeel/dotbridged/internal/bridge"
)

// --- Get Stats ---

// GetStatsInput is the input for the stats snapshot.
type GetStatsInput struct{}

// GetStatsOutput is the output for the stats snapshot.
type GetStatsOutput struct {
	Body StatsResponse
}

// StatsHandler implements the status snapshot endpoint.
type StatsHandler struct {
	Stats *bridge.Collector
}

// GetStats returns the full bridge status: per-device state plus ingest
// queue counters.
func (h *StatsHandler) GetStats(_ context.Context, _ *GetStatsInput) (*GetStatsOutput, error) {
	return &GetStatsOutput{
		Body: StatsFromBridge(h.Stats.Snapshot()),
	}, nil
}

// Ensure StatsHandler implements the interface at compile time.
var _ StatsHandlers = (*StatsHandler)(nil)

// StatsHandlers defines the interface for stats operations.
type StatsHandlers interface {
	GetStats(ctx context.Context, input *GetStatsInput) (*GetStatsOutput, error)
}
