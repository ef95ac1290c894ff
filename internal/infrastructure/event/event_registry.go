package event

import (
	"github.com/b2bshop/backend/internal/domain/trade"
)

// RegisterOrderEvents registers the order events written to the outbox.
// The outbox processor cannot relay a type that is missing here.
func RegisterOrderEvents(serializer *EventSerializer) {
	serializer.Register(trade.EventTypeOrderPlaced, &trade.OrderPlacedEvent{})
	serializer.Register(trade.EventTypeOrderCancelled, &trade.OrderCancelledEvent{})
	serializer.Register(trade.EventTypeOrderStatusChanged, &trade.OrderStatusChangedEvent{})
}
