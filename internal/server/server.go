// Package server hosts the HTTP monitoring surface: the Huma status API and
// the WebSocket event feed, both on one chi router.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/dotfeel/dotbridged/internal/bridge"
	"github.com/dotfeel/dotbridged/internal/config"
	"github.com/dotfeel/dotbridged/internal/events"
	"github.com/dotfeel/dotbridged/internal/http/handlers"
	"github.com/dotfeel/dotbridged/internal/http/mw"
	"github.com/dotfeel/dotbridged/internal/http/routes"
	"github.com/dotfeel/dotbridged/internal/ws"
)

// BuildInfo carries the version identifiers stamped at link time.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// Server manages the HTTP API and WebSocket hub lifecycle.
type Server struct {
	logger     *slog.Logger
	cfg        config.APIConfig
	stats      *bridge.Collector
	eventBus   *events.Bus
	build      BuildInfo
	httpServer *http.Server
	rootCtx    context.Context
	rootCancel context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a new server instance. The server owns nothing about the
// bridge itself; it only reads the collector's snapshots and relays events.
func New(logger *slog.Logger, cfg config.APIConfig, stats *bridge.Collector, eventBus *events.Bus, build BuildInfo) *Server {
	rootCtx, rootCancel := context.WithCancel(context.Background())
	return &Server{
		logger:     logger,
		cfg:        cfg,
		stats:      stats,
		eventBus:   eventBus,
		build:      build,
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
	}
}

// router assembles the chi router: global middleware, Huma-typed routes, and
// the raw WebSocket route.
func (s *Server) router() *chi.Mux {
	router := chi.NewRouter()
	router.Use(mw.RequestLogging(s.logger))
	router.Use(mw.RateLimitByIP(mw.RateLimitConfig{RequestsPerMinute: s.cfg.RequestsPerMinute}))

	humaConfig := routes.NewHumaConfig(s.build.Version, "")
	api := humachi.New(router, humaConfig)

	routes.Register(api, &routes.Handlers{
		HealthCheck:  handlers.HealthCheck,
		VersionCheck: handlers.NewVersionCheck(s.build.Version, s.build.Commit, s.build.BuildDate),
		Device:       &handlers.DeviceHandler{Stats: s.stats},
		Stats:        &handlers.StatsHandler{Stats: s.stats},
	})

	// WebSocket upgrades bypass Huma's typed request handling, so the
	// monitor feed is a raw chi route.
	wsHub := ws.NewHub(s.logger, s.eventBus)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in WebSocket hub", "recover", r)
			}
		}()
		wsHub.Run(s.rootCtx)
	}()
	router.Get("/api/v1/ws", ws.Handler(wsHub, s.logger))

	return router
}

// Start begins serving the HTTP API. It returns immediately; the listener
// runs in a background goroutine until Stop is called.
func (s *Server) Start() error {
	if s.cfg.ListenAddress == "" {
		s.logger.Info("HTTP API disabled (no listen address configured)")
		return nil
	}

	s.logger.Info("Starting HTTP API server", "address", s.cfg.ListenAddress)

	s.httpServer = &http.Server{
		Addr:         s.cfg.ListenAddress,
		Handler:      s.router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in HTTP server goroutine", "recover", r)
			}
		}()
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server failed", "error", err)
		}
		s.logger.Info("HTTP server stopped")
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server and the WebSocket hub.
func (s *Server) Stop() {
	s.logger.Info("Shutting down HTTP API server")
	s.rootCancel()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown failed", "error", err)
		}
	}

	s.wg.Wait()
	s.logger.Info("HTTP API server shut down gracefully")
}
