package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitConfig tunes the per-IP request limiter.
type RateLimitConfig struct {
	// RequestsPerMinute caps requests per minute per client IP. Zero or
	// negative disables the limiter.
	RequestsPerMinute int
}

// DefaultRateLimitConfig allows a monitor polling every 250ms with headroom
// for the occasional dotctl run alongside it.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 300,
	}
}

// RateLimitByIP limits requests per client IP over a one-minute window.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.RequestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.LimitByIP(cfg.RequestsPerMinute, time.Minute)
}
