package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OrderMetrics records order business metrics on an OTel meter
type OrderMetrics struct {
	placed        metric.Int64Counter
	placedValue   metric.Float64Histogram
	units         metric.Int64Counter
	cancelled     metric.Int64Counter
	statusChanges metric.Int64Counter
}

// NewOrderMetrics creates the order instruments on meter
func NewOrderMetrics(meter metric.Meter) (*OrderMetrics, error) {
	m := &OrderMetrics{}
	var err error
	if m.placed, err = meter.Int64Counter("orders.placed",
		metric.WithDescription("Orders placed")); err != nil {
		return nil, err
	}
	if m.placedValue, err = meter.Float64Histogram("orders.value",
		metric.WithDescription("Grand total of placed orders"),
		metric.WithUnit("INR"),
		metric.WithExplicitBucketBoundaries(500, 1000, 5000, 10000, 50000, 100000, 500000)); err != nil {
		return nil, err
	}
	if m.units, err = meter.Int64Counter("orders.units",
		metric.WithDescription("Units ordered across all lines")); err != nil {
		return nil, err
	}
	if m.cancelled, err = meter.Int64Counter("orders.cancelled",
		metric.WithDescription("Orders cancelled")); err != nil {
		return nil, err
	}
	if m.statusChanges, err = meter.Int64Counter("orders.status_changes",
		metric.WithDescription("Admin status transitions")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *OrderMetrics) RecordOrderPlaced(ctx context.Context, total decimal.Decimal, units int) {
	m.placed.Add(ctx, 1)
	m.placedValue.Record(ctx, total.InexactFloat64())
	m.units.Add(ctx, int64(units))
}

func (m *OrderMetrics) RecordOrderCancelled(ctx context.Context, _ decimal.Decimal, previousStatus string) {
	m.cancelled.Add(ctx, 1, metric.WithAttributes(attribute.String("from_status", previousStatus)))
}

func (m *OrderMetrics) RecordStatusChange(ctx context.Context, from, to string) {
	m.statusChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from_status", from),
		attribute.String("to_status", to),
	))
}

