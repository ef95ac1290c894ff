package trade

import (
	"context"
	"time"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CartRepository defines the interface for cart persistence
type CartRepository interface {
	// FindByCustomer returns the customer's cart or ErrCartNotFound
	FindByCustomer(ctx context.Context, customerID uuid.UUID) (*Cart, error)

	// Save inserts a new cart or updates an existing one with a version check.
	// A stale version returns a CONCURRENCY_CONFLICT error.
	Save(ctx context.Context, cart *Cart) error

	// DeleteExpired removes carts whose expiry is before the given time
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDForCustomer finds an order only if it belongs to the customer
	FindByIDForCustomer(ctx context.Context, customerID, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds a customer's order by its human readable number
	FindByOrderNumber(ctx context.Context, customerID uuid.UUID, orderNumber string) (*Order, error)

	// FindByCustomer lists a customer's orders, newest first, with the total count
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]Order, int64, error)

	// FindAll lists orders of all customers for staff, with the total count
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, int64, error)

	// Create inserts a new order with its items
	Create(ctx context.Context, order *Order) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, order *Order) error

	// GenerateOrderNumber generates the next ORD-<year>-<seq> number for the year of at
	GenerateOrderNumber(ctx context.Context, at time.Time) (string, error)
}
