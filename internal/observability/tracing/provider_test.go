package tracing

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetup_InstallsProviderAndPropagator(t *testing.T) {
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(sdktrace.NewTracerProvider())
		otel.SetTextMapPropagator(prevProp)
	})

	exporter := tracetest.NewInMemoryExporter()
	shutdown := Setup(sdktrace.WithSyncer(exporter))

	ctx, span := StartToolSpan(context.Background(), "get_meps")
	header := http.Header{}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(header))
	span.End()

	assert.NotEmpty(t, header.Get("traceparent"), "W3C trace context is propagated")
	assert.Len(t, exporter.GetSpans(), 1)
	require.NoError(t, shutdown(context.Background()))
}
