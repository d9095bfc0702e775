// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - Tool call metrics (count, latency, retries, reconnects)
//   - Circuit breaker state
//   - Output fetch cycles and fallback substitutions
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "parliament-monitor/internal/observability/metrics"
//
//	start := time.Now()
//	result, err := client.CallTool(ctx, req)
//	status := "success"
//	if err != nil {
//	    status = "failure"
//	}
//	metrics.RecordToolCall(req.ToolName(), status, time.Since(start))
package metrics
