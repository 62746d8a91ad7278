package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"crmagent/internal/logging"
)

// Sweeper evicts completed sessions older than the retention window on a
// cron schedule.
type Sweeper struct {
	registry  *Registry
	retention time.Duration
	schedule  string
	logger    *slog.Logger
	now       func() time.Time
}

// NewSweeper validates schedule and returns a Sweeper. A zero retention
// produces a Sweeper whose Run only waits for ctx.
func NewSweeper(registry *Registry, retention time.Duration, schedule string, logger *slog.Logger) (*Sweeper, error) {
	if registry == nil {
		return nil, fmt.Errorf("session registry is required")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", schedule, err)
	}
	return &Sweeper{
		registry:  registry,
		retention: retention,
		schedule:  schedule,
		logger:    logging.NewComponentLogger(logger, "session-sweeper"),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// SweepOnce removes expired sessions now.
func (s *Sweeper) SweepOnce() int {
	if s.retention <= 0 {
		return 0
	}
	removed := s.registry.Sweep(s.now().Add(-s.retention))
	if removed > 0 {
		s.logger.Info("expired sessions removed",
			logging.String(logging.FieldEventType, "session_sweep"),
			logging.Int("removed", removed),
			logging.Int("remaining", s.registry.Len()),
		)
	}
	return removed
}

// Run schedules sweeps until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.retention <= 0 {
		s.logger.Debug("session retention disabled")
		<-ctx.Done()
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() { s.SweepOnce() }); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	c.Start()
	s.logger.Info("session sweeper started",
		logging.String("schedule", s.schedule),
		logging.Duration("retention", s.retention),
	)

	<-ctx.Done()
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		logging.WarnWithContext(s.logger, "sweep still running at shutdown", "session_sweep_timeout")
	}
	return nil
}
