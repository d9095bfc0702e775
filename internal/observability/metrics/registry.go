// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tool-call metrics track traffic to the tool server
var (
	// ToolCallsTotal counts tool calls by tool name and outcome
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcp_tool_calls_total",
			Help: "Total number of tool calls issued to the tool server",
		},
		[]string{"tool", "status"}, // status: success, failure, timeout, rate_limited, session_expired
	)

	// ToolCallDuration measures a single tool call attempt in seconds
	ToolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mcp_tool_call_duration_seconds",
			Help:    "Tool call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"tool"},
	)

	// ToolCallRetriesTotal counts retry attempts after a failed call
	ToolCallRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcp_tool_call_retries_total",
			Help: "Total number of tool call retries",
		},
		[]string{"tool", "reason"}, // reason: timeout, rate_limited, error
	)

	// ReconnectsTotal counts reconnect attempts by result
	ReconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcp_reconnects_total",
			Help: "Total number of reconnect attempts",
		},
		[]string{"result"}, // result: success, failure, exhausted
	)

	// ConnectionUp is 1 while the tool server channel is connected
	ConnectionUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mcp_connection_up",
			Help: "Whether the tool server connection is up (1) or down (0)",
		},
	)
)

// Circuit breaker metrics
var (
	// CircuitBreakerState tracks breaker state.
	// 0 = closed, 1 = open, 2 = half-open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerTransitionsTotal counts state transitions by target state
	CircuitBreakerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "to"},
	)
)

// Output metrics track content-generation fetch cycles
var (
	// OutputFetchTotal counts output fetch cycles by result
	OutputFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "output_fetch_total",
			Help: "Total number of output fetch cycles",
		},
		[]string{"output", "result"}, // result: live, partial, degraded
	)

	// OutputFetchDuration measures a whole fan-out batch
	OutputFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "output_fetch_duration_seconds",
			Help:    "Time taken to fetch every slice of one output",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"output"},
	)

	// SliceFallbacksTotal counts slices replaced by fallback data
	SliceFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "output_slice_fallbacks_total",
			Help: "Total number of slices replaced with illustrative fallback data",
		},
		[]string{"output", "slice"},
	)

	// OutputsGeneratedTotal counts outputs handed to the publisher by result
	OutputsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outputs_generated_total",
			Help: "Total number of outputs produced by generation runs",
		},
		[]string{"output", "result"}, // result: success, failure
	)
)
