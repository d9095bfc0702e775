package metrics

import (
	"time"
)

// RecordToolCall records the outcome and latency of a single tool call attempt.
// Status should be one of "success", "failure", "timeout", "rate_limited"
// or "session_expired".
func RecordToolCall(tool, status string, duration time.Duration) {
	ToolCallsTotal.WithLabelValues(tool, status).Inc()
	ToolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordToolCallRetry records that a failed call is about to be retried.
func RecordToolCallRetry(tool, reason string) {
	ToolCallRetriesTotal.WithLabelValues(tool, reason).Inc()
}

// RecordReconnect records the result of a reconnect attempt.
func RecordReconnect(result string) {
	ReconnectsTotal.WithLabelValues(result).Inc()
}

// SetConnectionUp mirrors the connected flag of the protocol client.
func SetConnectionUp(up bool) {
	if up {
		ConnectionUp.Set(1)
		return
	}
	ConnectionUp.Set(0)
}

// RecordCircuitState records a circuit breaker state.
// State should be "closed", "open" or "half-open".
func RecordCircuitState(name, state string) {
	var value float64
	switch state {
	case "open":
		value = 1
	case "half-open":
		value = 2
	}
	CircuitBreakerState.WithLabelValues(name).Set(value)
	CircuitBreakerTransitionsTotal.WithLabelValues(name, state).Inc()
}

// RecordOutputFetch records one fan-out cycle for an output.
// Result should be "live", "partial" or "degraded".
func RecordOutputFetch(output, result string, duration time.Duration) {
	OutputFetchTotal.WithLabelValues(output, result).Inc()
	OutputFetchDuration.WithLabelValues(output).Observe(duration.Seconds())
}

// RecordSliceFallback records that a slice was replaced with fallback data.
func RecordSliceFallback(output, slice string) {
	SliceFallbacksTotal.WithLabelValues(output, slice).Inc()
}

// RecordOutputGenerated records whether an output made it to the publisher.
func RecordOutputGenerated(output string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	OutputsGeneratedTotal.WithLabelValues(output, result).Inc()
}
