package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/dotfeel/dotbridged/internal/config"
	"github.com/dotfeel/dotbridged/internal/errors"
	"github.com/dotfeel/dotbridged/pkg/dot"
)

// Outcome is the result of one scheduling cycle for one device: exactly one
// of applied or failed.
type Outcome struct {
	Applied   bool
	Attempts  int
	Telemetry *dot.Telemetry
	Err       error
}

// Executor performs the bus transaction for one claimed device: a write, an
// optional telemetry read-back, and bounded retries on timeout. Non-timeout
// errors abort immediately; bus congestion is the only failure treated as
// transient.
type Executor struct {
	driver dot.Driver
	logger *slog.Logger

	writeTimeout time.Duration
	retryDelay   time.Duration
	maxAttempts  int
	readBack     bool
}

// NewExecutor creates an executor over the given driver.
func NewExecutor(driver dot.Driver, cfg config.BridgeConfig, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	e := &Executor{
		driver:       driver,
		logger:       logger,
		writeTimeout: cfg.WriteTimeout,
		retryDelay:   cfg.RetryDelay,
		maxAttempts:  cfg.MaxAttempts,
		readBack:     cfg.ReadBack,
	}
	if e.writeTimeout <= 0 {
		e.writeTimeout = config.DefaultWriteTimeout
	}
	if e.maxAttempts < 1 {
		e.maxAttempts = config.DefaultMaxAttempts
	}
	return e
}

// Execute runs the write cycle for one device. The per-attempt timeout grows
// linearly with the attempt number to ride out short bus congestion.
func (e *Executor) Execute(ctx context.Context, addr dot.Address, target dot.Target) Outcome {
	var lastErr error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Outcome{Attempts: attempt - 1, Err: errors.WriteTimeoutf("cancelled before attempt %d", attempt)}
		}

		tel, err := e.attempt(ctx, addr, target, attempt)
		if err == nil {
			return Outcome{Applied: true, Attempts: attempt, Telemetry: tel}
		}
		lastErr = err

		if !errors.IsWriteTimeout(err) {
			// Fatal transport error; retrying won't help.
			e.logger.Warn("bridge: write aborted",
				"device", addr,
				"attempt", attempt,
				"error", err,
			)
			return Outcome{Attempts: attempt, Err: err}
		}

		e.logger.Debug("bridge: write attempt timed out",
			"device", addr,
			"attempt", attempt,
			"of", e.maxAttempts,
		)

		if attempt < e.maxAttempts && e.retryDelay > 0 {
			select {
			case <-ctx.Done():
				return Outcome{Attempts: attempt, Err: lastErr}
			case <-time.After(e.retryDelay):
			}
		}
	}

	return Outcome{Attempts: e.maxAttempts, Err: lastErr}
}

// attempt performs one write (and optional read-back) bounded by this
// attempt's deadline.
func (e *Executor) attempt(ctx context.Context, addr dot.Address, target dot.Target, attempt int) (*dot.Telemetry, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.writeTimeout*time.Duration(attempt))
	defer cancel()

	if err := e.driver.Write(attemptCtx, addr, target); err != nil {
		return nil, err
	}

	if !e.readBack {
		return nil, nil
	}

	tel, err := e.driver.Read(attemptCtx, addr)
	if err != nil {
		return nil, err
	}
	return &tel, nil
}
