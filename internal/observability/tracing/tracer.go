package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName identifies spans emitted by the monitor.
const instrumentationName = "parliament-monitor"

// GetTracer returns the tracer for creating spans. It is resolved from the
// global provider on every call so a provider installed at startup (or in
// a test) is always honoured.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "operation-name")
//	defer span.End()
func GetTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartToolSpan starts a client span around a single tool call attempt.
func StartToolSpan(ctx context.Context, tool string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "mcp.tools/call "+tool,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("mcp.tool", tool)),
	)
}

// StartFetchSpan starts a span around one output's fan-out batch.
func StartFetchSpan(ctx context.Context, output string, calls int) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "fetch "+output,
		trace.WithAttributes(
			attribute.String("monitor.output", output),
			attribute.Int("monitor.calls", calls),
		),
	)
}

// EndSpan records err on the span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
