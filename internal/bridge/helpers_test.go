package bridge

import (
	"bytes"
	"log/slog"
)

// testLogger returns a logger that discards output but still exercises the
// structured logging paths.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}
