package trade

import (
	"time"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartTTL is how long an untouched cart is kept
const CartTTL = 30 * 24 * time.Hour

// ProductSnapshot is the catalog state captured into a cart line at add time
type ProductSnapshot struct {
	ProductID        uuid.UUID
	Name             string
	SKU              string
	UnitPrice        decimal.Decimal
	OriginalPrice    *decimal.Decimal
	MinOrderQuantity int
	MaxOrderQuantity int
	InStock          bool
}

// CartItem is one product line in a cart. Prices are snapshots; the checkout
// preview and placement price through AtLivePrices instead.
type CartItem struct {
	ProductID        uuid.UUID
	Name             string
	SKU              string
	Quantity         int
	UnitPrice        decimal.Decimal
	OriginalPrice    *decimal.Decimal
	MinOrderQuantity int
	MaxOrderQuantity int
	InStock          bool

	// AvailableMax is filled by Refresh for display only and is never persisted
	AvailableMax int
}

// LineTotal returns unit price times quantity
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Savings returns (original - unit) * quantity when the original price is higher
func (i CartItem) Savings() decimal.Decimal {
	if i.OriginalPrice == nil || !i.OriginalPrice.GreaterThan(i.UnitPrice) {
		return decimal.Zero
	}
	return i.OriginalPrice.Sub(i.UnitPrice).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartTotals are the derived amounts of a cart
type CartTotals struct {
	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
	ShippingCost decimal.Decimal
	Total        decimal.Decimal
}

// RecomputeTotals derives cart totals from its lines.
// subtotal = sum(unitPrice * quantity); the discount is clamped to [0, subtotal];
// total = subtotal - discount + shipping.
func RecomputeTotals(lines []CartItem, discount, shipping decimal.Decimal) CartTotals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal())
	}
	discount = decimal.Min(decimal.Max(discount, decimal.Zero), subtotal)
	return CartTotals{
		Subtotal:     subtotal,
		Discount:     discount,
		ShippingCost: shipping,
		Total:        subtotal.Sub(discount).Add(shipping),
	}
}

// Cart is the single mutable basket owned by one customer.
// Every mutator leaves Totals consistent with Items before returning.
type Cart struct {
	shared.BaseAggregateRoot
	CustomerID uuid.UUID
	Items      []CartItem
	Totals     CartTotals
	ExpiresAt  time.Time
}

// NewCart creates an empty cart for a customer
func NewCart(customerID uuid.UUID) *Cart {
	c := &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Items:             make([]CartItem, 0),
	}
	c.recompute()
	return c
}

// AddItem adds quantity of a product. An existing line is increased, and the
// add is rejected as a whole if the line would exceed its stored maximum.
func (c *Cart) AddItem(snapshot ProductSnapshot, quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError(CodeInvalidQuantity, "Quantity must be positive")
	}

	if idx := c.indexOf(snapshot.ProductID); idx >= 0 {
		item := &c.Items[idx]
		if item.Quantity+quantity > item.MaxOrderQuantity {
			return quantityExceedsMax(item, quantity)
		}
		item.Quantity += quantity
		c.recompute()
		return nil
	}

	c.Items = append(c.Items, CartItem{
		ProductID:        snapshot.ProductID,
		Name:             snapshot.Name,
		SKU:              snapshot.SKU,
		Quantity:         quantity,
		UnitPrice:        snapshot.UnitPrice,
		OriginalPrice:    snapshot.OriginalPrice,
		MinOrderQuantity: snapshot.MinOrderQuantity,
		MaxOrderQuantity: snapshot.MaxOrderQuantity,
		InStock:          snapshot.InStock,
	})
	c.recompute()
	return nil
}

// UpdateItemQuantity sets a line's quantity within its stored bounds
func (c *Cart) UpdateItemQuantity(productID uuid.UUID, quantity int) error {
	idx := c.indexOf(productID)
	if idx < 0 {
		return itemNotFound(productID)
	}
	item := &c.Items[idx]
	if quantity < item.MinOrderQuantity {
		return belowMinimum(item, quantity)
	}
	if quantity > item.MaxOrderQuantity {
		return aboveMaximum(item, quantity)
	}
	item.Quantity = quantity
	c.recompute()
	return nil
}

// RemoveItem drops a line; removing an absent product is a no-op
func (c *Cart) RemoveItem(productID uuid.UUID) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.Items = kept
	c.recompute()
}

// Clear empties the cart and zeroes every total
func (c *Cart) Clear() {
	c.Items = make([]CartItem, 0)
	c.Totals.Discount = decimal.Zero
	c.Totals.ShippingCost = decimal.Zero
	c.recompute()
}

// ApplyDiscount sets a flat cart discount. It is re-clamped on every recompute.
func (c *Cart) ApplyDiscount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	c.Totals.Discount = amount
	c.recompute()
	return nil
}

// LiveProduct is the catalog state a cart line is refreshed against
type LiveProduct struct {
	Name          string
	SKU           string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	Active        bool
	StockQuantity int
}

// Refresh recomputes each line's stock flag and display maximum against live
// catalog data. Lines whose product is missing from live are shown out of stock.
// Prices are not touched.
func (c *Cart) Refresh(live map[uuid.UUID]LiveProduct) {
	for i := range c.Items {
		item := &c.Items[i]
		p, ok := live[item.ProductID]
		if !ok {
			item.InStock = false
			item.AvailableMax = 0
			continue
		}
		item.InStock = p.Active && p.StockQuantity > 0
		item.AvailableMax = min(item.MaxOrderQuantity, p.StockQuantity)
	}
}

// AtLivePrices returns a copy of the cart whose lines carry the live name, sku
// and prices, with totals recomputed. Lines missing from live keep their
// snapshot. The receiver is not modified and the copy is never persisted.
func (c *Cart) AtLivePrices(live map[uuid.UUID]LiveProduct) *Cart {
	priced := *c
	priced.Items = make([]CartItem, len(c.Items))
	for i, item := range c.Items {
		if p, ok := live[item.ProductID]; ok {
			item.Name = p.Name
			item.SKU = p.SKU
			item.UnitPrice = p.Price
			item.OriginalPrice = p.OriginalPrice
		}
		priced.Items[i] = item
	}
	priced.Totals = RecomputeTotals(priced.Items, c.Totals.Discount, c.Totals.ShippingCost)
	return &priced
}

// OrderLines converts the cart lines into order lines at their current prices
func (c *Cart) OrderLines() []OrderLine {
	lines := make([]OrderLine, len(c.Items))
	for i, item := range c.Items {
		lines[i] = OrderLine{
			ProductID:     item.ProductID,
			Name:          item.Name,
			SKU:           item.SKU,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			OriginalPrice: item.OriginalPrice,
		}
	}
	return lines
}

// Item returns the line for a product
func (c *Cart) Item(productID uuid.UUID) (CartItem, bool) {
	if idx := c.indexOf(productID); idx >= 0 {
		return c.Items[idx], true
	}
	return CartItem{}, false
}

// QuantityOf returns the quantity already in the cart for a product
func (c *Cart) QuantityOf(productID uuid.UUID) int {
	item, _ := c.Item(productID)
	return item.Quantity
}

// ProductIDs lists the products referenced by the cart in line order
func (c *Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.ProductID
	}
	return ids
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// IsExpired reports whether the cart has been untouched past its TTL
func (c *Cart) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// CartSummary is the read model shown next to the cart
type CartSummary struct {
	ItemCount    int
	TotalItems   int
	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
	ShippingCost decimal.Decimal
	Total        decimal.Decimal
	Savings      decimal.Decimal
}

// Summary returns counts, totals and the savings against original prices
func (c *Cart) Summary() CartSummary {
	totalItems := 0
	savings := decimal.Zero
	for _, item := range c.Items {
		totalItems += item.Quantity
		savings = savings.Add(item.Savings())
	}
	return CartSummary{
		ItemCount:    len(c.Items),
		TotalItems:   totalItems,
		Subtotal:     c.Totals.Subtotal,
		Discount:     c.Totals.Discount,
		ShippingCost: c.Totals.ShippingCost,
		Total:        c.Totals.Total,
		Savings:      savings,
	}
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// recompute refreshes derived totals and the expiry window
func (c *Cart) recompute() {
	c.Totals = RecomputeTotals(c.Items, c.Totals.Discount, c.Totals.ShippingCost)
	now := time.Now()
	c.UpdatedAt = now
	c.ExpiresAt = now.Add(CartTTL)
}
