package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"github.com/SantiagoDeStefano/ml-ops/internal/infrastructure/config"
)

func TestSetup(t *testing.T) {
	t.Run("disabled tracing installs a noop provider", func(t *testing.T) {
		cfg := &config.TracingConfig{Enabled: false, ServiceName: "inference-gateway", SampleRatio: 1}

		tp, shutdown, err := Setup(context.Background(), cfg, zap.NewNop())

		require.NoError(t, err)
		require.NotNil(t, tp)
		_, span := tp.Tracer("test").Start(context.Background(), "noop")
		assert.False(t, span.SpanContext().IsValid())
		span.End()
		assert.NoError(t, shutdown(context.Background()))
		assert.NotNil(t, otel.GetTextMapPropagator())
	})

	t.Run("enabled tracing creates an exporter without dialing", func(t *testing.T) {
		cfg := &config.TracingConfig{
			Enabled:     true,
			Endpoint:    "localhost:4317",
			Insecure:    true,
			ServiceName: "inference-gateway",
			SampleRatio: 1,
		}

		tp, shutdown, err := Setup(context.Background(), cfg, zap.NewNop())

		require.NoError(t, err)
		require.NotNil(t, tp)
		_, ok := tp.(*sdktrace.TracerProvider)
		assert.True(t, ok)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_ = shutdown(ctx)
	})
}

func TestNewProvider(t *testing.T) {
	t.Run("attaches service name resource", func(t *testing.T) {
		recorder := tracetest.NewSpanRecorder()
		tp := NewProvider(&config.TracingConfig{ServiceName: "inference-gateway", SampleRatio: 1},
			sdktrace.WithSpanProcessor(recorder))

		_, span := tp.Tracer("test").Start(context.Background(), "op")
		span.End()

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		var found bool
		for _, kv := range spans[0].Resource().Attributes() {
			if kv.Key == "service.name" {
				found = true
				assert.Equal(t, "inference-gateway", kv.Value.AsString())
			}
		}
		assert.True(t, found)
	})

	t.Run("zero sample ratio drops root spans", func(t *testing.T) {
		recorder := tracetest.NewSpanRecorder()
		tp := NewProvider(&config.TracingConfig{ServiceName: "inference-gateway", SampleRatio: 0},
			sdktrace.WithSpanProcessor(recorder))

		_, span := tp.Tracer("test").Start(context.Background(), "op")
		span.End()

		assert.Empty(t, recorder.Ended())
	})
}
