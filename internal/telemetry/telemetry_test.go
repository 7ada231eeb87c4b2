package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"

	"github.com/rocketscienceinc/chess-relay/internal/config"
)

func TestInitOtel_Disabled(t *testing.T) {
	// Given: the global providers before init
	tracerProvider := otel.GetTracerProvider()
	meterProvider := otel.GetMeterProvider()

	// When
	shutdown, err := InitOtel(context.Background(), config.Telemetry{Enabled: false})

	// Then: nothing was replaced and shutdown is a no-op
	require.NoError(t, err)
	assert.Same(t, tracerProvider, otel.GetTracerProvider())
	assert.Same(t, meterProvider, otel.GetMeterProvider())
	require.NoError(t, shutdown(context.Background()))
}

func TestNewResource(t *testing.T) {
	res, err := NewResource("chess-relay")
	require.NoError(t, err)

	value, ok := res.Set().Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "chess-relay", value.AsString())
}
