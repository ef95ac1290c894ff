package catalog

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Error codes raised when a product cannot satisfy an order line
const (
	CodeProductNotFound   = "PRODUCT_NOT_FOUND"
	CodeProductInactive   = "PRODUCT_INACTIVE"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeBelowMinimumOrder = "BELOW_MINIMUM_ORDER"
	CodeAboveMaximumOrder = "ABOVE_MAXIMUM_ORDER"
)

// Product is a catalog entry that can be ordered in wholesale quantities.
// StockQuantity never goes negative.
type Product struct {
	shared.BaseAggregateRoot
	SKU              string
	Name             string
	Category         string
	Price            decimal.Decimal
	OriginalPrice    *decimal.Decimal // list price before wholesale discount, optional
	StockQuantity    int
	MinOrderQuantity int
	MaxOrderQuantity int
	Active           bool
}

// NewProduct creates an active product
func NewProduct(sku, name string, price valueobject.Money, stock, minQty, maxQty int) (*Product, error) {
	sku = strings.TrimSpace(sku)
	name = strings.TrimSpace(name)
	if sku == "" || len(sku) > 64 {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU must be 1-64 characters")
	}
	if name == "" || utf8.RuneCountInString(name) > 200 {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name must be 1-200 characters")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if stock < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Stock quantity cannot be negative")
	}
	if err := validateOrderBounds(minQty, maxQty); err != nil {
		return nil, err
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
		Price:             price.Amount(),
		StockQuantity:     stock,
		MinOrderQuantity:  minQty,
		MaxOrderQuantity:  maxQty,
		Active:            true,
	}, nil
}

func validateOrderBounds(minQty, maxQty int) error {
	if minQty < 1 {
		return shared.NewDomainError("INVALID_ORDER_BOUNDS", "Minimum order quantity must be at least 1")
	}
	if maxQty < minQty {
		return shared.NewDomainError("INVALID_ORDER_BOUNDS", "Maximum order quantity cannot be below the minimum")
	}
	return nil
}

// SetOriginalPrice records the list price shown as struck-through. Nil clears it.
func (p *Product) SetOriginalPrice(price *valueobject.Money) {
	if price == nil {
		p.OriginalPrice = nil
	} else {
		amount := price.Amount()
		p.OriginalPrice = &amount
	}
	p.Touch()
}

// SetOrderBounds changes the allowed quantity range per order
func (p *Product) SetOrderBounds(minQty, maxQty int) error {
	if err := validateOrderBounds(minQty, maxQty); err != nil {
		return err
	}
	p.MinOrderQuantity = minQty
	p.MaxOrderQuantity = maxQty
	p.Touch()
	return nil
}

func (p *Product) Activate() {
	p.Active = true
	p.Touch()
}

func (p *Product) Deactivate() {
	p.Active = false
	p.Touch()
}

// IsActive reports whether the product can be sold
func (p *Product) IsActive() bool {
	return p.Active
}

// InStock is true when the product is active and has at least one unit
func (p *Product) InStock() bool {
	return p.Active && p.StockQuantity > 0
}

// EffectiveMaxOrderQuantity clamps the configured maximum to what is on hand
func (p *Product) EffectiveMaxOrderQuantity() int {
	return min(p.MaxOrderQuantity, p.StockQuantity)
}

// CheckOrderable validates a requested quantity against the live product state.
// Rules are checked in order: active, stock, minimum, maximum.
func (p *Product) CheckOrderable(quantity int) error {
	details := map[string]any{
		"product_id":   p.ID.String(),
		"product_name": p.Name,
		"requested":    quantity,
	}
	switch {
	case !p.Active:
		return shared.NewDomainError(CodeProductInactive,
			fmt.Sprintf("%s is no longer available", p.Name)).WithDetails(details)
	case p.StockQuantity < quantity:
		details["available"] = p.StockQuantity
		return shared.NewDomainError(CodeInsufficientStock,
			fmt.Sprintf("Only %d units of %s are available", p.StockQuantity, p.Name)).WithDetails(details)
	case quantity < p.MinOrderQuantity:
		details["min"] = p.MinOrderQuantity
		return shared.NewDomainError(CodeBelowMinimumOrder,
			fmt.Sprintf("Minimum order quantity for %s is %d", p.Name, p.MinOrderQuantity)).WithDetails(details)
	case quantity > p.MaxOrderQuantity:
		details["max"] = p.MaxOrderQuantity
		return shared.NewDomainError(CodeAboveMaximumOrder,
			fmt.Sprintf("Maximum order quantity for %s is %d", p.Name, p.MaxOrderQuantity)).WithDetails(details)
	}
	return nil
}

// DecreaseStock removes units from stock, refusing to go negative
func (p *Product) DecreaseStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if p.StockQuantity < quantity {
		return InsufficientStockError(p.ID.String(), p.Name, p.StockQuantity, quantity)
	}
	p.StockQuantity -= quantity
	p.UpdatedAt = time.Now()
	return nil
}

// IncreaseStock returns units to stock
func (p *Product) IncreaseStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	p.StockQuantity += quantity
	p.UpdatedAt = time.Now()
	return nil
}

// ProductNotFoundError reports a product reference that no longer resolves
func ProductNotFoundError(productID string) *shared.DomainError {
	return shared.NewDomainError(CodeProductNotFound, "Product not found").
		WithDetails(map[string]any{"product_id": productID})
}

// InsufficientStockError reports a stock shortfall for one product
func InsufficientStockError(productID, name string, available, requested int) *shared.DomainError {
	msg := "Insufficient stock"
	if name != "" {
		msg = fmt.Sprintf("Only %d units of %s are available", available, name)
	}
	return shared.NewDomainError(CodeInsufficientStock, msg).WithDetails(map[string]any{
		"product_id":   productID,
		"product_name": name,
		"available":    available,
		"requested":    requested,
	})
}
