package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"parliament-monitor/internal/pkg/config"
)

// RunMetrics tracks scheduled generation runs.
type RunMetrics struct {
	*config.ConfigMetrics

	// RunsTotal counts runs by status (started, success, partial, failure).
	RunsTotal *prometheus.CounterVec

	// RunDurationSeconds observes wall time per run.
	RunDurationSeconds prometheus.Histogram

	// OutputsTotal counts outputs published across all runs.
	OutputsTotal prometheus.Counter

	// LastSuccessTimestamp is the Unix time of the last run with no failed output.
	LastSuccessTimestamp prometheus.Gauge
}

// NewRunMetrics registers the run metrics on reg. A nil reg means the
// default Prometheus registerer.
func NewRunMetrics(reg prometheus.Registerer) *RunMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &RunMetrics{
		ConfigMetrics: config.NewConfigMetrics("monitor", reg),

		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_runs_total",
			Help: "Total number of generation runs by status",
		}, []string{"status"}),

		RunDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "monitor_run_duration_seconds",
			Help:    "Duration of generation runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),

		OutputsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "monitor_outputs_published_total",
			Help: "Total number of outputs published across all runs",
		}),

		LastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "monitor_last_success_timestamp",
			Help: "Unix timestamp of the last run in which every output succeeded",
		}),
	}
}

// RecordRun counts a run with the given status.
func (m *RunMetrics) RecordRun(status string) {
	m.RunsTotal.WithLabelValues(status).Inc()
}

// RecordRunDuration observes the wall time of one run.
func (m *RunMetrics) RecordRunDuration(seconds float64) {
	m.RunDurationSeconds.Observe(seconds)
}

// RecordOutputs adds published outputs.
func (m *RunMetrics) RecordOutputs(count int) {
	m.OutputsTotal.Add(float64(count))
}

// RecordLastSuccess stamps the last fully successful run.
func (m *RunMetrics) RecordLastSuccess() {
	m.LastSuccessTimestamp.SetToCurrentTime()
}
