package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/cucia/job-sentinel/internal/pipeline"
)

// CycleRunner is the unit of work the scheduler drives. Satisfied by
// pipeline.Runner.
type CycleRunner interface {
	RunCycle(ctx context.Context) (pipeline.CycleStats, error)
}

// Scheduler owns the main loop: runs one cycle immediately, then ticks on a
// fixed interval forever. A failed cycle is logged and retried on the next
// tick; it never brings the process down.
type Scheduler struct {
	runner   CycleRunner
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that runs cycles at the given interval.
func NewScheduler(runner CycleRunner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the cycle loop. It returns nil when ctx is cancelled
// (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	stats, err := s.runner.RunCycle(ctx)
	if err != nil {
		// Typically the store being unavailable. The next tick retries the
		// whole cycle; dedup makes re-ingestion harmless.
		s.logger.Error("cycle failed", "error", err)
		return
	}

	s.logger.Info("cycle complete",
		"seen", stats.Seen,
		"enqueued", stats.Enqueued,
		"entry_skipped", stats.EntrySkipped,
		"policy_skipped", stats.PolicySkipped,
		"ai_skipped", stats.AISkipped,
		"review", stats.Review+stats.ReviewApply,
		"applied", stats.Applied,
		"deferred", stats.Deferred,
	)
}
