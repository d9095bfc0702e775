package main

import (
	"context"
	"log/slog"
	"time"

	"parliament-monitor/internal/domain/entity"
	"parliament-monitor/internal/observability/slo"
	"parliament-monitor/internal/usecase/generate"
)

// runner is the part of generate.Service a job drives.
type runner interface {
	Run(ctx context.Context, kinds []entity.OutputKind, baseDate string) generate.RunStats
}

// runRecorder is the part of worker.RunMetrics a job reports to.
type runRecorder interface {
	RecordRun(status string)
	RecordRunDuration(seconds float64)
	RecordOutputs(count int)
	RecordLastSuccess()
}

// job is one generation run plus its bookkeeping.
type job struct {
	generator runner
	metrics   runRecorder
	kinds     []entity.OutputKind
	logger    *slog.Logger
}

func newJob(generator runner, metrics runRecorder, kinds []entity.OutputKind, logger *slog.Logger) *job {
	return &job{generator: generator, metrics: metrics, kinds: kinds, logger: logger}
}

func (j *job) run(ctx context.Context, date string) generate.RunStats {
	start := time.Now()
	j.metrics.RecordRun("started")

	stats := j.generator.Run(ctx, j.kinds, date)

	j.metrics.RecordRunDuration(time.Since(start).Seconds())
	j.metrics.RecordOutputs(stats.Succeeded)

	outcome := slo.RunOutcome{
		Requested: stats.Succeeded + stats.Failed,
		Published: stats.Succeeded,
		FullyLive: stats.FullyLive,
	}
	slo.Observe(outcome)

	status := runStatus(stats)
	j.metrics.RecordRun(status)
	if status == "success" {
		j.metrics.RecordLastSuccess()
	}

	j.logger.Info("run recorded",
		slog.String("run_id", stats.RunID),
		slog.String("status", status),
		slog.String("date", date),
		slog.Int("succeeded", stats.Succeeded),
		slog.Int("failed", stats.Failed),
		slog.Int("degraded", stats.Degraded),
		slog.Int("fully_live", stats.FullyLive),
		slog.Bool("slo_met", slo.Met(outcome)))
	return stats
}

func runStatus(stats generate.RunStats) string {
	switch {
	case stats.Failed == 0:
		return "success"
	case stats.Succeeded > 0:
		return "partial"
	default:
		return "failure"
	}
}
