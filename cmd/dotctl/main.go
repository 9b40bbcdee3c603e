package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dotfeel/dotbridged/cmd/dotctl/commands"
	"github.com/dotfeel/dotbridged/internal/config"
	"github.com/dotfeel/dotbridged/pkg/client"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	rootCmd := commands.NewRootCommand(version, commit, buildDate)

	// Parse flags early so --server and --log-level take effect before the
	// client is built.
	_ = rootCmd.ParseFlags(os.Args[1:])

	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logFormat, _ := rootCmd.PersistentFlags().GetString("log-format")
	logger := newLogger(logLevel, logFormat)
	slog.SetDefault(logger)

	serverURL, _ := rootCmd.PersistentFlags().GetString("server")
	if serverURL == "" {
		serverURL = "http://" + config.DefaultAPIListenAddress
	}

	apiClient := client.New(logger, serverURL)

	ctx := context.WithValue(context.Background(), commands.ClientContextKey, apiClient)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: getLogLevel(level)}
	var handler slog.Handler
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func getLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
