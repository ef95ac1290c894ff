package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EventDeliveryMetrics counts outbox deliveries per subscriber and outcome
type EventDeliveryMetrics struct {
	deliveries metric.Int64Counter
}

func NewEventDeliveryMetrics(meter metric.Meter) (*EventDeliveryMetrics, error) {
	c, err := meter.Int64Counter("events.deliveries",
		metric.WithDescription("Event deliveries to bus subscribers by outcome"))
	if err != nil {
		return nil, err
	}
	return &EventDeliveryMetrics{deliveries: c}, nil
}

func (m *EventDeliveryMetrics) RecordDelivery(ctx context.Context, handler, eventType, outcome string) {
	m.deliveries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("handler", handler),
		attribute.String("event_type", eventType),
		attribute.String("outcome", outcome),
	))
}
