package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dotfeel/dotbridged/internal/bridge"
	"github.com/dotfeel/dotbridged/internal/config"
	"github.com/dotfeel/dotbridged/internal/events"
	"github.com/dotfeel/dotbridged/internal/osc"
	"github.com/dotfeel/dotbridged/internal/server"
	"github.com/dotfeel/dotbridged/pkg/dot"
	"github.com/dotfeel/dotbridged/pkg/dot/dotfake"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// Set up Viper for configuration
	v := viper.New()
	v.SetEnvPrefix("DOTBRIDGE")
	v.AutomaticEnv()

	// Set up command line flags
	pflag.String("log-level", "info", "Log level (debug, info, warn, error)")
	pflag.String("log-format", "text", "Log format (text, json)")
	pflag.String("config", "", "Path to config file")
	pflag.String("osc-listen", "", "OSC UDP listen address (overrides config)")
	pflag.String("bus-transport", "", "Bus transport: serial or fake (overrides config)")
	pflag.String("bus-port", "", "Serial port path (overrides config)")
	pflag.Parse()

	// Bind flags to Viper - this ensures flags take precedence
	v.BindPFlag("logging.level", pflag.Lookup("log-level"))
	v.BindPFlag("logging.format", pflag.Lookup("log-format"))
	v.BindPFlag("osc.listen_address", pflag.Lookup("osc-listen"))
	v.BindPFlag("bus.transport", pflag.Lookup("bus-transport"))
	v.BindPFlag("bus.port", pflag.Lookup("bus-port"))

	// Load configuration
	cfg, err := config.Load(v.GetString("config"))
	if err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Flags override anything the file or environment set.
	applyFlagOverrides(v, cfg)

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("Starting dotbridged",
		"version", version,
		"commit", commit,
		"buildDate", buildDate,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The bus driver must open before anything else; a dead bus at startup
	// is a configuration problem, not something to limp through.
	driver := newDriver(cfg.Bus, logger)
	if err := driver.Open(ctx); err != nil {
		logger.Error("failed to open device bus", "transport", cfg.Bus.Transport, "error", err)
		os.Exit(1)
	}
	defer driver.Close()

	eventBus := events.NewBus()
	store := bridge.NewStore(cfg.Devices, cfg.Bridge, logger)
	stats := bridge.NewCollector(store)
	exec := bridge.NewExecutor(driver, cfg.Bridge, logger)
	sched := bridge.NewScheduler(store, exec, stats, eventBus, cfg.Bridge, cfg.Bus, logger)

	queue := osc.NewQueue(cfg.OSC.QueueCapacity, func(m osc.Message) {
		stats.RecordOverflow()
		eventBus.Publish(events.NewEvent(events.QueueOverflow, osc.MessagePayload{
			Address: m.Address,
			Args:    m.Args,
		}))
	})
	decoder := osc.NewDecoder(store, stats, eventBus, logger)
	oscServer := osc.NewServer(cfg.OSC.ListenAddress, queue, logger)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := oscServer.Run(ctx); err != nil {
			logger.Error("OSC listener failed", "error", err)
			cancel()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = decoder.Run(ctx, queue, cfg.Bridge.TickInterval)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = sched.Run(ctx)
	}()

	srv := server.New(logger, cfg.API, stats, eventBus, server.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
	})
	if err := srv.Start(); err != nil {
		logger.Error("Failed to start HTTP server", "error", err)
		cancel()
		wg.Wait()
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		logger.Info("Shutting down...")
	case <-ctx.Done():
		logger.Info("Shutting down after component failure...")
	}
	cancel()

	srv.Stop()
	wg.Wait()
	logger.Info("dotbridged stopped")
}

// applyFlagOverrides re-applies flag-bound keys on top of the loaded config.
func applyFlagOverrides(v *viper.Viper, cfg *config.Config) {
	if s := v.GetString("logging.level"); s != "" {
		cfg.Logging.Level = s
	}
	if s := v.GetString("logging.format"); s != "" {
		cfg.Logging.Format = s
	}
	if s := v.GetString("osc.listen_address"); s != "" {
		cfg.OSC.ListenAddress = s
	}
	if s := v.GetString("bus.transport"); s != "" {
		cfg.Bus.Transport = s
	}
	if s := v.GetString("bus.port"); s != "" {
		cfg.Bus.Port = s
	}
}

func newDriver(cfg config.BusConfig, logger *slog.Logger) dot.Driver {
	if cfg.Transport == "fake" {
		logger.Warn("using fake bus driver; no hardware will be driven")
		return dotfake.New()
	}
	return dot.NewSerialDriver(cfg.Port, cfg.Baud, logger)
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := getLogLevel(cfg.Level)
	var handler slog.Handler
	if cfg.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

func getLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
