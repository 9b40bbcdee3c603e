// Package routes provides shared route registration for the dotbridged HTTP API.
// Both the main server and the OpenAPI generator use the same route definitions,
// ensuring the spec is always in sync with the implementation.
package routes

import (
	"github.com/danielgtaylor/huma/v2"
)

// NewHumaConfig creates the shared Huma configuration for the API.
func NewHumaConfig(version, baseURL string) huma.Config {
	cfg := huma.DefaultConfig("dotbridged API", version)
	cfg.Info.Description = "Read-only REST API for monitoring the dotbridged OSC-to-device bridge."

	// Disable $schema field in responses
	cfg.CreateHooks = nil

	if baseURL != "" {
		cfg.Servers = []*huma.Server{
			{URL: baseURL, Description: "API Server"},
		}
	}

	// Define OpenAPI tags
	cfg.Tags = []*huma.Tag{
		{Name: "Devices", Description: "Bridged device state"},
		{Name: "Stats", Description: "Bridge and ingest statistics"},
		{Name: "Health", Description: "Service health"},
		{Name: "Version", Description: "Build information"},
	}

	return cfg
}
