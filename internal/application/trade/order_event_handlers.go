package trade

import (
	"context"
	"fmt"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderMetrics records order business metrics
type OrderMetrics interface {
	RecordOrderPlaced(ctx context.Context, total decimal.Decimal, units int)
	RecordOrderCancelled(ctx context.Context, total decimal.Decimal, previousStatus string)
	RecordStatusChange(ctx context.Context, from, to string)
}

// OrderMetricsHandler feeds order events into OrderMetrics
type OrderMetricsHandler struct {
	metrics OrderMetrics
}

// NewOrderMetricsHandler creates a new OrderMetricsHandler
func NewOrderMetricsHandler(metrics OrderMetrics) *OrderMetricsHandler {
	return &OrderMetricsHandler{metrics: metrics}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderMetricsHandler) EventTypes() []string {
	return []string{trade.EventTypeOrderPlaced, trade.EventTypeOrderCancelled, trade.EventTypeOrderStatusChanged}
}

// Handle records the metric matching the event
func (h *OrderMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *trade.OrderPlacedEvent:
		units := 0
		for _, item := range e.Items {
			units += item.Quantity
		}
		h.metrics.RecordOrderPlaced(ctx, e.Total, units)
	case *trade.OrderCancelledEvent:
		h.metrics.RecordOrderCancelled(ctx, e.Total, e.PreviousStatus)
	case *trade.OrderStatusChangedEvent:
		h.metrics.RecordStatusChange(ctx, e.FromStatus, e.ToStatus)
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	return nil
}

// OrderAuditHandler writes a structured audit line for every order event
type OrderAuditHandler struct {
	logger *zap.Logger
}

// NewOrderAuditHandler creates a new OrderAuditHandler
func NewOrderAuditHandler(logger *zap.Logger) *OrderAuditHandler {
	return &OrderAuditHandler{logger: logger.Named("audit")}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderAuditHandler) EventTypes() []string {
	return []string{trade.EventTypeOrderPlaced, trade.EventTypeOrderCancelled, trade.EventTypeOrderStatusChanged}
}

// Handle logs the event
func (h *OrderAuditHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("order_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *trade.OrderPlacedEvent:
		fields = append(fields,
			zap.String("order_number", e.OrderNumber),
			zap.String("customer_id", e.CustomerID.String()),
			zap.Int("items", len(e.Items)),
			zap.String("total", e.Total.StringFixed(2)),
		)
	case *trade.OrderCancelledEvent:
		fields = append(fields,
			zap.String("order_number", e.OrderNumber),
			zap.String("customer_id", e.CustomerID.String()),
			zap.String("previous_status", e.PreviousStatus),
		)
	case *trade.OrderStatusChangedEvent:
		fields = append(fields,
			zap.String("order_number", e.OrderNumber),
			zap.String("from", e.FromStatus),
			zap.String("to", e.ToStatus),
			zap.String("tracking_number", e.TrackingNumber),
		)
	}

	h.logger.Info("order event", fields...)
	return nil
}

var (
	_ shared.EventHandler = (*OrderMetricsHandler)(nil)
	_ shared.EventHandler = (*OrderAuditHandler)(nil)
)
