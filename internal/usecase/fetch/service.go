package fetch

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"parliament-monitor/internal/domain/entity"
	"parliament-monitor/internal/mcp"
	"parliament-monitor/internal/observability/logging"
	"parliament-monitor/internal/observability/metrics"
	"parliament-monitor/internal/observability/tracing"
	"parliament-monitor/internal/resilience/circuitbreaker"
)

// Fetch result labels reported to metrics.
const (
	ResultLive     = "live"
	ResultPartial  = "partial"
	ResultDegraded = "degraded"
)

// Config selects what the plans ask the tool server for.
type Config struct {
	// Committees are the committee ids tracked by committee-reports. The
	// first one also feeds week-ahead.
	Committees []string
	// Keyword is the document search term.
	Keyword string
	// Limit caps list sizes requested from the server.
	Limit int
}

// DefaultConfig returns the committees and limits used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Committees: []string{"ENVI", "ECON", "AFET", "LIBE", "AGRI"},
		Keyword:    "parliament",
		Limit:      20,
	}
}

// Service gathers the payload of one output.
type Service struct {
	caller  mcp.ToolCaller
	breaker *circuitbreaker.Breaker
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates an orchestrator. The breaker is shared across every
// Service in the process; zero config fields fall back to DefaultConfig.
func NewService(caller mcp.ToolCaller, breaker *circuitbreaker.Breaker, cfg Config, logger *slog.Logger) *Service {
	def := DefaultConfig()
	if len(cfg.Committees) == 0 {
		cfg.Committees = def.Committees
	}
	if cfg.Keyword == "" {
		cfg.Keyword = def.Keyword
	}
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		caller:  caller,
		breaker: breaker,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Fetch returns the payload for kind over w. The returned payload is always
// complete: slices whose calls failed carry fallback data. Only an unknown
// output or an invalid window is reported as an error.
func (s *Service) Fetch(ctx context.Context, kind entity.OutputKind, w Window) (*entity.Payload, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	calls, err := s.plan(kind, w)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	logger := logging.WithRunID(ctx, s.logger).With(slog.String("output", string(kind)))
	payload := &entity.Payload{
		Kind:      kind,
		DateFrom:  w.FromDate(),
		DateTo:    w.ToDate(),
		FetchedAt: s.now(),
	}

	permit, ok := s.breaker.Acquire()
	if !ok {
		payload.Degraded = true
		s.fillFallbacks(payload, sections(calls), nil, w)
		logger.Warn("circuit open, serving fallback data",
			slog.String("circuit", s.breaker.Name()))
		metrics.RecordOutputFetch(string(kind), ResultDegraded, time.Since(start))
		return payload, nil
	}

	ctx, span := tracing.StartFetchSpan(ctx, string(kind), len(calls))

	tasks := make([]func(context.Context) (*mcp.ToolCallResult, error), len(calls))
	for i, c := range calls {
		req := c.req
		tasks[i] = func(ctx context.Context) (*mcp.ToolCallResult, error) {
			if err := req.Validate(); err != nil {
				logger.Debug("skipping tool call with invalid arguments",
					slog.String("tool", req.ToolName()),
					slog.Any("error", err))
				return mcp.EmptyResult(req.ToolName()), nil
			}
			return s.caller.CallTool(ctx, req)
		}
	}
	outcomes := Settle(ctx, tasks...)

	failed := Failed(outcomes)
	s.recordBatch(permit, len(outcomes), failed)

	records := make(map[string][]record)
	for i, o := range outcomes {
		c := calls[i]
		if o.Err != nil {
			logger.Warn("tool call failed",
				slog.String("tool", c.req.ToolName()),
				slog.Any("error", o.Err))
			continue
		}
		items, err := decodeRecords(c.section, o.Value)
		if err != nil {
			logger.Warn("tool payload not understood",
				slog.String("tool", c.req.ToolName()),
				slog.Any("error", err))
			continue
		}
		records[c.section] = append(records[c.section], items...)
	}

	s.fillFallbacks(payload, sections(calls), records, w)

	result := ResultLive
	if len(payload.IllustrativeSections()) > 0 {
		result = ResultPartial
	}
	span.SetAttributes(
		attribute.Int("fetch.failed_calls", failed),
		attribute.String("fetch.result", result),
	)
	tracing.EndSpan(span, nil)
	metrics.RecordOutputFetch(string(kind), result, time.Since(start))

	logger.Info("output fetched",
		slog.String("result", result),
		slog.Int("calls", len(calls)),
		slog.Int("failed_calls", failed),
		slog.Bool("probe", permit.Probe),
		slog.Duration("duration", time.Since(start)))

	return payload, nil
}

// recordBatch applies exactly one breaker update for a settled batch. A
// batch counts as failed when every call failed, or when it carried the
// half-open probe and any call failed.
func (s *Service) recordBatch(permit circuitbreaker.Permit, total, failed int) {
	switch {
	case total > 0 && failed == total:
		s.breaker.RecordFailure()
	case permit.Probe && failed > 0:
		s.breaker.RecordFailure()
	default:
		s.breaker.RecordSuccess()
	}
}

// fillFallbacks normalizes the records of each planned section and
// substitutes fallback data for the sections that came back empty.
func (s *Service) fillFallbacks(p *entity.Payload, planned []string, records map[string][]record, w Window) {
	output := string(p.Kind)
	for _, section := range planned {
		recs := records[section]
		switch section {
		case entity.SectionSessions:
			p.Sessions = pick(normalizeSessions(recs), func() []entity.PlenarySession { return fallbackSessions(w) })
			s.noteFallback(output, section, p.Sessions.Illustrative())
		case entity.SectionCommittees:
			p.Committees = pick(normalizeCommittees(recs), func() []entity.Committee { return fallbackCommittees(s.cfg.Committees) })
			s.noteFallback(output, section, p.Committees.Illustrative())
		case entity.SectionDocuments:
			p.Documents = pick(normalizeDocuments(recs), func() []entity.Document { return fallbackDocuments(w) })
			s.noteFallback(output, section, p.Documents.Illustrative())
		case entity.SectionQuestions:
			p.Questions = pick(normalizeQuestions(recs), func() []entity.Question { return fallbackQuestions(w) })
			s.noteFallback(output, section, p.Questions.Illustrative())
		case entity.SectionVotes:
			p.Votes = pick(normalizeVotes(recs), func() []entity.VotingRecord { return fallbackVotes(w) })
			s.noteFallback(output, section, p.Votes.Illustrative())
		case entity.SectionMEPs:
			p.MEPs = pick(normalizeMEPs(recs), fallbackMEPs)
			s.noteFallback(output, section, p.MEPs.Illustrative())
		}
	}
}

func (s *Service) noteFallback(output, section string, illustrative bool) {
	if illustrative {
		metrics.RecordSliceFallback(output, section)
	}
}

// pick keeps live items, or builds the fallback slice when there are none.
func pick[T any](items []T, fallback func() []T) entity.Slice[T] {
	if len(items) > 0 {
		return entity.Live(items)
	}
	return entity.Fallback(fallback())
}
