package generate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"parliament-monitor/internal/domain/entity"
	"parliament-monitor/internal/observability/logging"
	"parliament-monitor/internal/observability/metrics"
	"parliament-monitor/internal/usecase/fetch"
)

// Window lengths, in days.
const (
	weekAheadDays = 7
	lookbackDays  = 30
)

// Fetcher produces the payload of one output. *fetch.Service implements it.
type Fetcher interface {
	Fetch(ctx context.Context, kind entity.OutputKind, w fetch.Window) (*entity.Payload, error)
}

// RunStats summarizes one generation run.
type RunStats struct {
	RunID     string
	Succeeded int
	Failed    int
	// Degraded counts published outputs served without touching the network.
	Degraded int
	// FullyLive counts published outputs that needed no fallback data.
	FullyLive int
	Errors   map[entity.OutputKind]error
	Duration time.Duration
}

// Service runs generation passes.
type Service struct {
	fetcher   Fetcher
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
	newRunID  func() string
}

// NewService creates a generation service.
func NewService(fetcher Fetcher, publisher Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher:   fetcher,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
}

// Run generates every output in kinds for baseDate (YYYY-MM-DD). An empty
// kinds runs all outputs; an empty baseDate means today in UTC. Each
// output succeeds or fails on its own and the outcome is reported in
// RunStats, never as an error.
func (s *Service) Run(ctx context.Context, kinds []entity.OutputKind, baseDate string) RunStats {
	start := s.now()
	stats := RunStats{
		RunID:  s.newRunID(),
		Errors: make(map[entity.OutputKind]error),
	}
	ctx = logging.ContextWithRunID(ctx, stats.RunID)
	logger := logging.WithRunID(ctx, s.logger)

	if len(kinds) == 0 {
		kinds = entity.AllOutputKinds()
	}
	if baseDate == "" {
		baseDate = start.UTC().Format(entity.DateLayout)
	}

	logger.Info("generation run started",
		slog.String("base_date", baseDate),
		slog.Int("outputs", len(kinds)))

	base, dateErr := entity.ParseDate(baseDate)

	for _, kind := range kinds {
		if ctx.Err() != nil {
			stats.fail(kind, ctx.Err())
			continue
		}
		if dateErr != nil {
			stats.fail(kind, dateErr)
			metrics.RecordOutputGenerated(string(kind), false)
			continue
		}

		payload, err := s.runOutput(ctx, kind, base)
		metrics.RecordOutputGenerated(string(kind), err == nil)
		if err != nil {
			stats.fail(kind, err)
			logger.Error("output failed",
				slog.String("output", string(kind)),
				slog.Any("error", err))
			continue
		}
		stats.Succeeded++
		if payload.Degraded {
			stats.Degraded++
		}
		if payload.FullyLive() {
			stats.FullyLive++
		}
	}

	stats.Duration = s.now().Sub(start)
	logger.Info("generation run finished",
		slog.Int("succeeded", stats.Succeeded),
		slog.Int("failed", stats.Failed),
		slog.Int("degraded", stats.Degraded),
		slog.Duration("duration", stats.Duration))

	return stats
}

func (s *Service) runOutput(ctx context.Context, kind entity.OutputKind, base time.Time) (payload *entity.Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("output %s panicked: %v", kind, r)
		}
	}()

	w, err := WindowFor(kind, base)
	if err != nil {
		return nil, err
	}
	payload, err = s.fetcher.Fetch(ctx, kind, w)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", kind, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("fetch %s: no payload", kind)
	}
	if err := s.publisher.Publish(ctx, payload); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrPublish, kind, err)
	}
	return payload, nil
}

// WindowFor returns the date range an output covers for a run on base.
// week-ahead looks forward one week; the others look back thirty days.
func WindowFor(kind entity.OutputKind, base time.Time) (fetch.Window, error) {
	switch kind {
	case entity.OutputWeekAhead:
		return fetch.NewWindow(base, weekAheadDays), nil
	case entity.OutputCommitteeReports, entity.OutputMotions:
		return fetch.Window{From: base.AddDate(0, 0, -lookbackDays), To: base}, nil
	}
	return fetch.Window{}, fmt.Errorf("%w: %q", fetch.ErrUnknownOutput, kind)
}

func (st *RunStats) fail(kind entity.OutputKind, err error) {
	st.Failed++
	st.Errors[kind] = err
}
