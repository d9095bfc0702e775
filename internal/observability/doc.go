// Package observability groups the monitor's logging, metrics and tracing.
//
// Subpackages:
//   - logging: slog construction and run-id propagation
//   - metrics: Prometheus collectors for tool calls, breaker state,
//     reconnects and output generation
//   - tracing: OpenTelemetry spans for tool calls and output fetches
//
// Example usage:
//
//	import (
//	    "parliament-monitor/internal/observability/logging"
//	    "parliament-monitor/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("monitor started")
//
//	    metrics.RecordOutputGenerated("week-ahead", true)
//	}
package observability
