package relay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/rocketscienceinc/chess-relay/internal/protocol"
)

func collectSum(t *testing.T, reader sdkmetric.Reader, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	want := attribute.NewSet(attrs...)

	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}

			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)

			for _, point := range sum.DataPoints {
				if len(attrs) == 0 || point.Attributes.Equals(&want) {
					total += point.Value
				}
			}
		}
	}

	return total
}

func TestServer_Metrics(t *testing.T) {
	// Given: a meter provider read on demand
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(noop.NewMeterProvider())
		_ = provider.Shutdown(context.Background())
	})

	relay := startRelay(t)
	white, black := relay.pair(t)

	// When: one move is forwarded and white leaves
	send(t, white, protocol.NewMove(entity.White, entity.NewMove(6, 4, 4, 4)))
	readMessage(t, black)
	require.NoError(t, white.Close())
	readMessage(t, black)

	// Then
	assert.Equal(t, int64(1), collectSum(t, reader, "relay.messages.forwarded",
		attribute.String("message.type", protocol.TypeMove.String())))
	assert.Equal(t, int64(1), collectSum(t, reader, "relay.players"))
	assert.Equal(t, int64(1), collectSum(t, reader, "relay.matches",
		attribute.String("match.status", entity.MatchOngoing)))
	assert.Equal(t, int64(1), collectSum(t, reader, "relay.matches",
		attribute.String("match.status", entity.MatchAbandoned)))
	assert.Zero(t, collectSum(t, reader, "relay.connections.rejected"))
}
