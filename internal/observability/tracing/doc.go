// Package tracing provides OpenTelemetry tracing integration.
//
// Spans are created per tool call attempt and per output fetch batch, and
// the W3C trace context is injected into outgoing gateway requests. The
// HTTP middleware traces the health and metrics endpoints.
//
// Example usage:
//
//	ctx, span := tracing.StartToolSpan(ctx, "get_meps")
//	result, err := client.CallTool(ctx, req)
//	tracing.EndSpan(span, err)
package tracing
