package trade

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is an immutable line snapshot taken at placement
type OrderItem struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	ProductID     uuid.UUID
	Name          string
	SKU           string
	Quantity      int
	UnitPrice     decimal.Decimal
	TotalPrice    decimal.Decimal
	OriginalPrice *decimal.Decimal
	Discount      decimal.Decimal // (original - unit) * quantity, never negative
}

// OrderLine is the priced input for one order item
type OrderLine struct {
	ProductID     uuid.UUID
	Name          string
	SKU           string
	Quantity      int
	UnitPrice     decimal.Decimal
	OriginalPrice *decimal.Decimal
}

func newOrderItem(orderID uuid.UUID, line OrderLine) (OrderItem, error) {
	if line.ProductID == uuid.Nil {
		return OrderItem{}, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if line.Quantity <= 0 {
		return OrderItem{}, shared.NewDomainError(CodeInvalidQuantity, "Quantity must be positive")
	}
	if line.UnitPrice.IsNegative() {
		return OrderItem{}, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	qty := decimal.NewFromInt(int64(line.Quantity))
	discount := decimal.Zero
	if line.OriginalPrice != nil && line.OriginalPrice.GreaterThan(line.UnitPrice) {
		discount = line.OriginalPrice.Sub(line.UnitPrice).Mul(qty)
	}

	return OrderItem{
		ID:            uuid.New(),
		OrderID:       orderID,
		ProductID:     line.ProductID,
		Name:          line.Name,
		SKU:           line.SKU,
		Quantity:      line.Quantity,
		UnitPrice:     line.UnitPrice,
		TotalPrice:    line.UnitPrice.Mul(qty),
		OriginalPrice: line.OriginalPrice,
		Discount:      discount,
	}, nil
}

// StatusChange is one entry of the order's status history
type StatusChange struct {
	Status OrderStatus
	Note   string
	At     time.Time
}

// Order is the durable record of a checkout. Items and amounts are fixed at
// creation; only status, payment and tracking fields change afterwards.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber       string
	CustomerID        uuid.UUID
	Items             []OrderItem
	Subtotal          decimal.Decimal
	Discount          decimal.Decimal
	ShippingCost      decimal.Decimal
	Tax               decimal.Decimal
	Total             decimal.Decimal
	ShippingAddress   valueobject.ShippingAddress
	Status            OrderStatus
	PaymentStatus     PaymentStatus
	PaymentMethod     PaymentMethod
	TrackingNumber    string
	Carrier           string
	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time
	CustomerNotes     string
	AdminNotes        string
	OrderDate         time.Time
	StatusUpdatedAt   time.Time
	StatusHistory     []StatusChange
}

// PlaceOrderParams carries everything needed to create an order
type PlaceOrderParams struct {
	OrderNumber     string
	CustomerID      uuid.UUID
	Lines           []OrderLine
	CartDiscount    decimal.Decimal
	ShippingAddress valueobject.ShippingAddress
	PaymentMethod   PaymentMethod
	CustomerNotes   string
	Pricing         PricingPolicy
}

// NewOrder prices the lines and creates a pending order.
// total = subtotal - discount + shipping + tax.
func NewOrder(p PlaceOrderParams) (*Order, error) {
	if p.OrderNumber == "" || len(p.OrderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number must be 1-50 characters")
	}
	if p.CustomerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if len(p.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	if p.ShippingAddress.IsEmpty() {
		return nil, shared.NewDomainError(CodeInvalidAddress, "Shipping address is required")
	}
	if !p.PaymentMethod.IsValid() {
		return nil, shared.NewDomainError(CodeInvalidPayment,
			fmt.Sprintf("Payment method %q is not supported", p.PaymentMethod))
	}
	notes := strings.TrimSpace(p.CustomerNotes)
	if utf8.RuneCountInString(notes) > 1000 {
		return nil, shared.NewDomainError("INVALID_NOTES", "Notes cannot exceed 1000 characters")
	}

	now := time.Now()
	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       p.OrderNumber,
		CustomerID:        p.CustomerID,
		Items:             make([]OrderItem, 0, len(p.Lines)),
		Discount:          decimal.Max(p.CartDiscount, decimal.Zero),
		ShippingAddress:   p.ShippingAddress,
		Status:            OrderStatusPending,
		PaymentStatus:     PaymentStatusPending,
		PaymentMethod:     p.PaymentMethod,
		CustomerNotes:     notes,
		OrderDate:         now,
		StatusUpdatedAt:   now,
		StatusHistory:     []StatusChange{{Status: OrderStatusPending, Note: "Order placed", At: now}},
	}

	for _, line := range p.Lines {
		item, err := newOrderItem(order.ID, line)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	order.RecalculateTotals(p.Pricing)
	order.AddDomainEvent(NewOrderPlacedEvent(order))

	return order, nil
}

// RecalculateTotals re-prices the order from its items. Totals are never
// recomputed implicitly; callers invoke this explicitly.
func (o *Order) RecalculateTotals(policy PricingPolicy) {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.TotalPrice)
	}
	discount := decimal.Min(o.Discount, subtotal)
	quote := policy.Price(subtotal, discount)

	o.Subtotal = quote.Subtotal
	o.Discount = quote.Discount
	o.ShippingCost = quote.ShippingCost
	o.Tax = quote.Tax
	o.Total = quote.Total
}

// ItemDiscountTotal sums the per-item savings against original prices
func (o *Order) ItemDiscountTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Discount)
	}
	return total
}

// TotalQuantity returns the number of units across all items
func (o *Order) TotalQuantity() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// Cancel moves a pending or confirmed order to cancelled.
// Stock restoration is the caller's responsibility within the same unit of work.
func (o *Order) Cancel(reason string) error {
	if !o.Status.IsCancellable() {
		return invalidTransition(o.Status, OrderStatusCancelled)
	}
	from := o.Status
	note := strings.TrimSpace(reason)
	if note == "" {
		note = "Cancelled by customer"
	}
	o.setStatus(OrderStatusCancelled, note)
	o.AddDomainEvent(NewOrderCancelledEvent(o, from))
	return nil
}

// TrackingUpdate holds the optional shipping bookkeeping sent with a status update
type TrackingUpdate struct {
	TrackingNumber    *string
	Carrier           *string
	EstimatedDelivery *time.Time
	AdminNotes        *string
}

// AdminUpdateStatus sets the status chosen by staff and applies tracking fields.
// Cancellation must go through Cancel so stock is restored, and a cancelled
// order cannot be reopened.
func (o *Order) AdminUpdateStatus(status OrderStatus, tracking TrackingUpdate) error {
	if !status.IsValid() {
		return shared.NewDomainError(CodeInvalidStatus, fmt.Sprintf("Unknown order status %q", status))
	}
	if status == OrderStatusCancelled || o.Status.IsTerminal() {
		return invalidTransition(o.Status, status)
	}

	if tracking.TrackingNumber != nil {
		o.TrackingNumber = strings.TrimSpace(*tracking.TrackingNumber)
	}
	if tracking.Carrier != nil {
		o.Carrier = strings.TrimSpace(*tracking.Carrier)
	}
	if tracking.EstimatedDelivery != nil {
		eta := *tracking.EstimatedDelivery
		o.EstimatedDelivery = &eta
	}
	note := ""
	if tracking.AdminNotes != nil {
		note = strings.TrimSpace(*tracking.AdminNotes)
		o.AdminNotes = note
	}

	from := o.Status
	o.setStatus(status, note)
	if status == OrderStatusDelivered {
		delivered := o.StatusUpdatedAt
		o.ActualDelivery = &delivered
		if o.PaymentMethod == PaymentMethodCOD {
			o.PaymentStatus = PaymentStatusPaid
		}
	}
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from))
	return nil
}

func (o *Order) setStatus(status OrderStatus, note string) {
	now := time.Now()
	o.Status = status
	o.StatusUpdatedAt = now
	o.UpdatedAt = now
	o.StatusHistory = append(o.StatusHistory, StatusChange{Status: status, Note: note, At: now})
}

// BelongsTo reports whether the order was placed by the customer
func (o *Order) BelongsTo(customerID uuid.UUID) bool {
	return o.CustomerID == customerID
}

// FormatOrderNumber renders ORD-<year>-<seq>, the sequence zero padded to three digits
func FormatOrderNumber(year int, seq int64) string {
	return fmt.Sprintf("ORD-%d-%03d", year, seq)
}

// OrderNumberPrefix returns the prefix shared by all order numbers of a year
func OrderNumberPrefix(year int) string {
	return fmt.Sprintf("ORD-%d-", year)
}
