package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/domain/trade"
	"github.com/b2bshop/backend/internal/infrastructure/telemetry"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Header keys set on every relayed message
const (
	HeaderEventType  = "event_type"
	HeaderEventID    = "event_id"
	HeaderOccurredAt = "occurred_at"
)

// Serializer encodes a domain event into the message value
type Serializer interface {
	Serialize(event shared.DomainEvent) ([]byte, error)
}

// OrderEventRelay publishes order events to a Kafka topic.
// Messages are keyed by order ID so one order's events stay on one partition.
type OrderEventRelay struct {
	writer     MessageWriter
	serializer Serializer
	topic      string
	logger     *zap.Logger
}

// NewOrderEventRelay creates a new OrderEventRelay
func NewOrderEventRelay(writer MessageWriter, serializer Serializer, topic string, logger *zap.Logger) *OrderEventRelay {
	return &OrderEventRelay{
		writer:     writer,
		serializer: serializer,
		topic:      topic,
		logger:     logger.Named("kafka_relay"),
	}
}

// EventTypes returns the event types this handler is interested in
func (r *OrderEventRelay) EventTypes() []string {
	return []string{trade.EventTypeOrderPlaced, trade.EventTypeOrderCancelled, trade.EventTypeOrderStatusChanged}
}

// Handle writes the event to Kafka. An error leaves the outbox entry for retry.
func (r *OrderEventRelay) Handle(ctx context.Context, event shared.DomainEvent) error {
	ctx, span := telemetry.StartSpanWithKind(ctx, r.topic+" publish", trace.SpanKindProducer,
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination.name", r.topic),
		attribute.String("event_type", event.EventType()),
		attribute.String("event_id", event.EventID().String()),
	)
	defer span.End()

	value, err := r.serializer.Serialize(event)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	headers := []kafka.Header{
		{Key: HeaderEventType, Value: []byte(event.EventType())},
		{Key: HeaderEventID, Value: []byte(event.EventID().String())},
		{Key: HeaderOccurredAt, Value: []byte(event.OccurredAt().UTC().Format(time.RFC3339Nano))},
	}
	msg := kafka.Message{
		Key:     []byte(event.AggregateID().String()),
		Value:   value,
		Headers: InjectTraceHeaders(ctx, headers),
	}

	if err := r.writer.WriteMessages(ctx, msg); err != nil {
		telemetry.RecordError(span, err)
		r.logger.Warn("failed to relay order event",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err))
		return fmt.Errorf("publish %s to %s: %w", event.EventType(), r.topic, err)
	}

	r.logger.Debug("order event relayed",
		zap.String("event_type", event.EventType()),
		zap.String("order_id", event.AggregateID().String()))
	return nil
}

// Close closes the underlying writer
func (r *OrderEventRelay) Close() error {
	return r.writer.Close()
}

var _ shared.EventHandler = (*OrderEventRelay)(nil)
