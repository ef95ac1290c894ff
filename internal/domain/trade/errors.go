package trade

import (
	"fmt"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Error codes raised by the cart and order aggregates
const (
	CodeEmptyCart          = "EMPTY_CART"
	CodeCartNotFound       = "CART_NOT_FOUND"
	CodeItemNotFound       = "ITEM_NOT_FOUND"
	CodeQuantityExceedsMax = "QUANTITY_EXCEEDS_MAX"
	CodeBelowMinimumOrder  = "BELOW_MINIMUM_ORDER"
	CodeAboveMaximumOrder  = "ABOVE_MAXIMUM_ORDER"
	CodeOrderNotFound      = "ORDER_NOT_FOUND"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeInvalidAddress     = "INVALID_ADDRESS"
	CodeInvalidStatus      = "INVALID_STATUS"
	CodeInvalidPayment     = "INVALID_PAYMENT_METHOD"
	CodeInvalidQuantity    = "INVALID_QUANTITY"
)

var (
	ErrEmptyCart     = shared.NewDomainError(CodeEmptyCart, "Cart is empty")
	ErrCartNotFound  = shared.NewDomainError(CodeCartNotFound, "Cart not found")
	ErrOrderNotFound = shared.NewDomainError(CodeOrderNotFound, "Order not found")
)

func itemNotFound(productID uuid.UUID) *shared.DomainError {
	return shared.NewDomainError(CodeItemNotFound, "Item not found in cart").
		WithDetails(map[string]any{"product_id": productID.String()})
}

func quantityExceedsMax(item *CartItem, requested int) *shared.DomainError {
	return shared.NewDomainError(CodeQuantityExceedsMax,
		fmt.Sprintf("Cannot add %d more of %s: cart would hold %d, maximum per order is %d",
			requested, item.Name, item.Quantity+requested, item.MaxOrderQuantity)).
		WithDetails(map[string]any{
			"product_id":   item.ProductID.String(),
			"product_name": item.Name,
			"in_cart":      item.Quantity,
			"requested":    requested,
			"max":          item.MaxOrderQuantity,
		})
}

func belowMinimum(item *CartItem, quantity int) *shared.DomainError {
	return shared.NewDomainError(CodeBelowMinimumOrder,
		fmt.Sprintf("Minimum order quantity for %s is %d", item.Name, item.MinOrderQuantity)).
		WithDetails(map[string]any{
			"product_id":   item.ProductID.String(),
			"product_name": item.Name,
			"requested":    quantity,
			"min":          item.MinOrderQuantity,
		})
}

func aboveMaximum(item *CartItem, quantity int) *shared.DomainError {
	return shared.NewDomainError(CodeAboveMaximumOrder,
		fmt.Sprintf("Maximum order quantity for %s is %d", item.Name, item.MaxOrderQuantity)).
		WithDetails(map[string]any{
			"product_id":   item.ProductID.String(),
			"product_name": item.Name,
			"requested":    quantity,
			"max":          item.MaxOrderQuantity,
		})
}

func invalidTransition(from, to OrderStatus) *shared.DomainError {
	return shared.NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("Cannot move order from %s to %s", from, to)).
		WithDetails(map[string]any{"from": string(from), "to": string(to)})
}
