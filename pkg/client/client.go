// Package client is a small read-only HTTP client for the dotbridged status
// API, used by dotctl.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Device is the client-side view of one bridged device.
type Device struct {
	Address         int       `json:"address"`
	Name            string    `json:"name"`
	Color           [3]int    `json:"color"`
	Intensity       float64   `json:"intensity"`
	Frequency       float64   `json:"frequency"`
	Dirty           bool      `json:"dirty"`
	Connected       bool      `json:"connected"`
	UpdateCount     uint64    `json:"update_count"`
	ErrorCount      uint64    `json:"error_count"`
	LastAppliedAt   time.Time `json:"last_applied_at"`
	LastUpdateAgeMS int64     `json:"last_update_age_ms"`
	SkinTempC       *float64  `json:"skin_temp_c,omitempty"`

	// Recent conditioner input samples per channel; single-device view only.
	History map[string][]float64 `json:"history,omitempty"`
}

// Queue holds the ingest queue counters.
type Queue struct {
	Overflows uint64 `json:"overflows"`
	Decoded   uint64 `json:"decoded"`
	Dropped   uint64 `json:"dropped"`
}

// Stats is the full bridge status snapshot.
type Stats struct {
	Devices []Device  `json:"devices"`
	Queue   Queue     `json:"queue"`
	TakenAt time.Time `json:"taken_at"`
}

// Version holds the daemon's build information.
type Version struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Client represents an HTTP connection to dotbridged.
type Client struct {
	logger  *slog.Logger
	baseURL string
	client  *http.Client
}

// New creates a new client against baseURL.
func New(logger *slog.Logger, baseURL string) *Client {
	// Ensure baseURL doesn't have trailing slash
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &Client{
		logger:  logger,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// get performs a GET request and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, resp any) error {
	url := c.baseURL + path
	c.logger.Debug("HTTP request", "method", http.MethodGet, "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed", "error", err)
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		c.logger.Error("HTTP error response", "status", httpResp.StatusCode, "body", string(respBody))
		return fmt.Errorf("HTTP error %d: %s", httpResp.StatusCode, bytes.TrimSpace(respBody))
	}

	if resp != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, resp); err != nil {
			c.logger.Error("Failed to decode response", "error", err, "body", string(respBody))
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// GetVersion returns the running daemon's version information.
func (c *Client) GetVersion(ctx context.Context) (Version, error) {
	var resp Version
	err := c.get(ctx, "/api/v1/version", &resp)
	return resp, err
}

// GetHealth reports whether the daemon answers its health check.
func (c *Client) GetHealth(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/api/v1/health", &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("daemon reported status %q", resp.Status)
	}
	return nil
}

// GetDevices returns all devices keyed by bus address.
func (c *Client) GetDevices(ctx context.Context) (map[string]Device, error) {
	var resp map[string]Device
	err := c.get(ctx, "/api/v1/devices", &resp)
	return resp, err
}

// GetDevice returns a single device by bus address.
func (c *Client) GetDevice(ctx context.Context, address int) (Device, error) {
	var resp Device
	err := c.get(ctx, fmt.Sprintf("/api/v1/devices/%d", address), &resp)
	return resp, err
}

// GetStats returns the full bridge status snapshot.
func (c *Client) GetStats(ctx context.Context) (Stats, error) {
	var resp Stats
	err := c.get(ctx, "/api/v1/stats", &resp)
	return resp, err
}
