package weather

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/yegors/wxdash/internal/weather"

// TracedProvider records a span around every lookup of the wrapped provider
type TracedProvider struct {
	provider Provider
	tracer   trace.Tracer
}

// NewTracedProvider wraps provider using the global tracer provider
func NewTracedProvider(provider Provider) *TracedProvider {
	return &TracedProvider{
		provider: provider,
		tracer:   otel.Tracer(tracerName),
	}
}

// Current starts a span, delegates to the wrapped provider and records the outcome
func (t *TracedProvider) Current(ctx context.Context, location string) (*Snapshot, error) {
	ctx, span := t.tracer.Start(ctx, "weather.Current",
		trace.WithAttributes(
			attribute.String("weather.provider", t.provider.Name()),
			attribute.String("weather.location", location),
		))
	defer span.End()

	snapshot, err := t.provider.Current(ctx, location)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("weather.condition", string(snapshot.Condition)),
		attribute.Int("weather.temperature", snapshot.Temperature),
	)
	return snapshot, nil
}

// Name returns the wrapped provider's name
func (t *TracedProvider) Name() string {
	return t.provider.Name()
}

var _ Provider = (*TracedProvider)(nil)
