package relay

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// instruments - relay counters exported through the global meter provider.
type instruments struct {
	players   metric.Int64UpDownCounter
	forwarded metric.Int64Counter
	rejected  metric.Int64Counter
	matches   metric.Int64Counter
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	players, err := meter.Int64UpDownCounter("relay.players",
		metric.WithDescription("Players currently connected to the relay"))
	if err != nil {
		return nil, fmt.Errorf("failed to create players counter: %w", err)
	}

	forwarded, err := meter.Int64Counter("relay.messages.forwarded",
		metric.WithDescription("Messages delivered to the other player"))
	if err != nil {
		return nil, fmt.Errorf("failed to create forwarded counter: %w", err)
	}

	rejected, err := meter.Int64Counter("relay.connections.rejected",
		metric.WithDescription("Connections closed because the roster was full"))
	if err != nil {
		return nil, fmt.Errorf("failed to create rejected counter: %w", err)
	}

	matches, err := meter.Int64Counter("relay.matches",
		metric.WithDescription("Match transitions by resulting status"))
	if err != nil {
		return nil, fmt.Errorf("failed to create matches counter: %w", err)
	}

	return &instruments{
		players:   players,
		forwarded: forwarded,
		rejected:  rejected,
		matches:   matches,
	}, nil
}

func (that *instruments) matchTransition(ctx context.Context, status string) {
	that.matches.Add(ctx, 1, metric.WithAttributes(attribute.String("match.status", status)))
}
