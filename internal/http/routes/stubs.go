package routes

import (
	"context"

	"github.com/dotfeel/dotbridged/internal/http/handlers"
)

// StubHandlers returns a Handlers instance with stub implementations.
// All handlers return nil responses — these are only used for OpenAPI
// generation, where Huma extracts type information from function signatures.
func StubHandlers() *Handlers {
	return &Handlers{
		HealthCheck: func(_ context.Context, _ *handlers.HealthInput) (*handlers.HealthOutput, error) {
			return nil, nil
		},
		VersionCheck: func(_ context.Context, _ *handlers.VersionInput) (*handlers.VersionOutput, error) {
			return nil, nil
		},
		Device: &stubDeviceHandlers{},
		Stats:  &stubStatsHandlers{},
	}
}

// --- Device stubs ---

type stubDeviceHandlers struct{}

func (s *stubDeviceHandlers) ListDevices(_ context.Context, _ *handlers.ListDevicesInput) (*handlers.ListDevicesOutput, error) {
	return nil, nil
}

func (s *stubDeviceHandlers) GetDevice(_ context.Context, _ *handlers.GetDeviceInput) (*handlers.GetDeviceOutput, error) {
	return nil, nil
}

// --- Stats stubs ---

type stubStatsHandlers struct{}

func (s *stubStatsHandlers) GetStats(_ context.Context, _ *handlers.GetStatsInput) (*handlers.GetStatsOutput, error) {
	return nil, nil
}
