package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, trade.AggregateTypeOrder, uuid.New()),
		Data:            "ORD-2026-001",
	}
}

type recordingHandler struct {
	eventTypes []string
	mu         sync.Mutex
	handled    []shared.DomainEvent
	err        error
	panicWith  any
}

func newRecordingHandler(eventTypes ...string) *recordingHandler {
	return &recordingHandler{eventTypes: eventTypes}
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	h.handled = append(h.handled, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.eventTypes }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	placed := newRecordingHandler(trade.EventTypeOrderPlaced)
	all := newRecordingHandler()
	bus.Subscribe(placed)
	bus.Subscribe(all)

	err := bus.Publish(context.Background(),
		newTestEvent(trade.EventTypeOrderPlaced),
		newTestEvent(trade.EventTypeOrderCancelled),
	)

	require.NoError(t, err)
	assert.Equal(t, 1, placed.count())
	assert.Equal(t, 2, all.count())
}

func TestInMemoryEventBus_Publish_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newRecordingHandler(trade.EventTypeOrderPlaced)
	bus.Subscribe(h, trade.EventTypeOrderStatusChanged)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent(trade.EventTypeOrderPlaced)))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent(trade.EventTypeOrderStatusChanged)))

	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_Publish_HandlerErrorIsReturned(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := newRecordingHandler(trade.EventTypeOrderPlaced)
	failing.err = errors.New("broker unavailable")
	healthy := newRecordingHandler(trade.EventTypeOrderPlaced)
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent(trade.EventTypeOrderPlaced))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
	assert.Equal(t, 1, healthy.count(), "remaining handlers still run")
}

func TestInMemoryEventBus_Publish_PanicBecomesError(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newRecordingHandler(trade.EventTypeOrderPlaced)
	h.panicWith = "nil map"
	bus.Subscribe(h)

	err := bus.Publish(context.Background(), newTestEvent(trade.EventTypeOrderPlaced))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newRecordingHandler(trade.EventTypeOrderPlaced)
	bus.Subscribe(h)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent(trade.EventTypeOrderPlaced)))

	bus.Unsubscribe(h)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent(trade.EventTypeOrderPlaced)))

	assert.Equal(t, 1, h.count())
}

func TestHandlerRegistry(t *testing.T) {
	r := NewHandlerRegistry()
	typed := newRecordingHandler()
	wildcard := newRecordingHandler()
	r.Register(typed, trade.EventTypeOrderPlaced, trade.EventTypeOrderCancelled)
	r.Register(wildcard)

	assert.Len(t, r.GetHandlers(trade.EventTypeOrderPlaced), 2)
	assert.Len(t, r.GetHandlers(trade.EventTypeOrderStatusChanged), 1)
	assert.Len(t, r.GetAllHandlers(), 2, "a handler registered for two types is listed once")

	r.Unregister(typed)
	assert.Equal(t, []shared.EventHandler{wildcard}, r.GetHandlers(trade.EventTypeOrderCancelled))
}
