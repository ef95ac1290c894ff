package partner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerRepository persists customers and their order statistics
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	Save(ctx context.Context, customer *Customer) error

	// IncrementOrderStats atomically adds one order of the given amount
	IncrementOrderStats(ctx context.Context, id uuid.UUID, amount decimal.Decimal, at time.Time) error

	// DecrementOrderStats atomically removes one order of the given amount
	DecrementOrderStats(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}
