package bridge

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/dotfeel/dotbridged/internal/config"
	"github.com/dotfeel/dotbridged/internal/events"
	"github.com/dotfeel/dotbridged/pkg/dot"
)

// Scheduler drives all bus access. On each tick it claims every eligible
// device and dispatches the claims in ascending address order on the tick
// goroutine, so writes never interleave on the wire, service order is
// deterministic across ticks, and ticks cannot overlap.
type Scheduler struct {
	store  *Store
	exec   *Executor
	stats  *Collector
	bus    *events.Bus
	logger *slog.Logger

	tickInterval      time.Duration
	minUpdateInterval time.Duration

	// limiter caps aggregate bus transactions; nil means uncapped.
	limiter *rate.Limiter
}

// NewScheduler wires the scheduler over the store and executor.
func NewScheduler(store *Store, exec *Executor, stats *Collector, bus *events.Bus, cfg config.BridgeConfig, busCfg config.BusConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		store:             store,
		exec:              exec,
		stats:             stats,
		bus:               bus,
		logger:            logger,
		tickInterval:      cfg.TickInterval,
		minUpdateInterval: cfg.MinUpdateInterval,
	}
	if s.tickInterval <= 0 {
		s.tickInterval = config.DefaultTickInterval
	}
	if s.minUpdateInterval <= 0 {
		s.minUpdateInterval = config.DefaultMinUpdateInterval
	}
	if busCfg.WritesPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(busCfg.WritesPerSecond), 1)
	}
	return s
}

// Run blocks until ctx is cancelled. Claims left unwritten at shutdown are
// released, not flushed; the bridge never completes further bus writes after
// the shutdown signal.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("bridge: scheduler started",
		"tick", s.tickInterval,
		"min_update_interval", s.minUpdateInterval,
	)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("bridge: scheduler stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick claims and dispatches every eligible device. Dispatch is synchronous
// per device; a slow bus stretches the tick rather than stacking writes.
func (s *Scheduler) tick(ctx context.Context) {
	claims := s.store.ClaimEligible(time.Now(), s.minUpdateInterval)

	for i, claim := range claims {
		if ctx.Err() != nil {
			for _, rest := range claims[i:] {
				s.store.Release(rest.Addr)
			}
			return
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				for _, rest := range claims[i:] {
					s.store.Release(rest.Addr)
				}
				return
			}
		}

		s.dispatch(ctx, claim)
	}
}

func (s *Scheduler) dispatch(ctx context.Context, claim DispatchTarget) {
	wasConnected := s.stats.Connected(claim.Addr)
	outcome := s.exec.Execute(ctx, claim.Addr, claim.Target)

	if outcome.Applied {
		s.store.MarkApplied(claim.Addr, claim.Target, time.Now())
		s.stats.RecordApplied(claim.Addr, outcome.Telemetry)

		payload := events.DevicePayload{
			Device: claim.Addr,
			Color:  colorOf(claim.Target),
		}
		if outcome.Telemetry != nil {
			payload.TempC = outcome.Telemetry.SkinTempC
		}
		s.publish(events.DeviceApplied, payload)
		if !wasConnected {
			s.publish(events.DeviceConnected, events.DevicePayload{Device: claim.Addr})
		}
		return
	}

	s.store.MarkFailed(claim.Addr)
	s.stats.RecordFailed(claim.Addr)
	s.logger.Warn("bridge: device write failed",
		"device", claim.Addr,
		"attempts", outcome.Attempts,
		"error", outcome.Err,
	)

	s.publish(events.DeviceWriteFailed, events.DevicePayload{
		Device:   claim.Addr,
		Attempts: outcome.Attempts,
		Error:    errString(outcome.Err),
	})
	if wasConnected {
		s.publish(events.DeviceDisconnected, events.DevicePayload{Device: claim.Addr})
	}
}

func (s *Scheduler) publish(t events.EventType, payload events.DevicePayload) {
	if s.bus != nil {
		s.bus.Publish(events.NewEvent(t, payload))
	}
}

func colorOf(t dot.Target) [3]int {
	return [3]int{int(t.Color[0]), int(t.Color[1]), int(t.Color[2])}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
