package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitTracerInstallsProvider(t *testing.T) {
	ctx := context.Background()

	tp, err := InitTracer(ctx, TracerConfig{
		ServiceName: "video-intelligence-test",
		Endpoint:    "http://127.0.0.1:4318/v1/traces",
	})
	require.NoError(t, err)
	defer tp.Shutdown(ctx)

	assert.Same(t, tp, otel.GetTracerProvider())

	_, span := otel.Tracer("test").Start(ctx, "probe")
	assert.True(t, span.SpanContext().IsValid())
	assert.True(t, span.SpanContext().IsSampled())
	span.End()
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.ParentBased(sdktrace.AlwaysSample()).Description(), sampler(0).Description())
	assert.Equal(t, sdktrace.ParentBased(sdktrace.AlwaysSample()).Description(), sampler(1).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}
