package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository is the catalog store the ordering core reads from and adjusts
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs returns the products that exist; missing ids are silently skipped
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	FindBySKU(ctx context.Context, sku string) (*Product, error)

	Save(ctx context.Context, product *Product) error

	// AdjustStock atomically adds delta to the stock quantity.
	// A negative delta is applied only if the result stays >= 0; otherwise
	// INSUFFICIENT_STOCK is returned and nothing changes. Returns
	// shared.ErrNotFound if the product does not exist.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}
