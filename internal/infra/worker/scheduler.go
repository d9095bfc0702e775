// Package worker hosts the long-running side of the monitor: the cron
// scheduler that triggers generation runs, run metrics, and the health
// server exposing readiness, client status and Prometheus metrics.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context)

// Scheduler runs a Job on a cron schedule. Overlapping runs are skipped:
// a run that is still going when the next tick fires keeps the tool
// client to itself.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	spec    string
	timeout time.Duration

	stopRuns context.CancelFunc
}

// NewScheduler registers job under spec in loc. Each run gets its own
// context bounded by timeout (zero means no bound) and canceled by Stop.
func NewScheduler(spec string, loc *time.Location, timeout time.Duration, job Job, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	s := &Scheduler{cron: c, logger: logger, spec: spec, timeout: timeout}
	ctx, cancel := context.WithCancel(context.Background())
	_, err := c.AddFunc(spec, func() {
		runCtx, done := ctx, context.CancelFunc(func() {})
		if timeout > 0 {
			runCtx, done = context.WithTimeout(ctx, timeout)
		}
		defer done()
		job(runCtx)
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("add cron job %q: %w", spec, err)
	}
	s.stopRuns = cancel
	return s, nil
}

// Start begins firing the job in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started",
		slog.String("schedule", s.spec),
		slog.String("timezone", s.cron.Location().String()),
		slog.Time("next_run", s.Next()))
}

// Next returns the next scheduled fire time, or zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop cancels the running job, if any, and waits for it to return or
// for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.stopRuns()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{slog.Any("error", err)}, keysAndValues...)...)
}
