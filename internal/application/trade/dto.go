package trade

import (
	"time"

	"github.com/b2bshop/backend/internal/domain/shared/valueobject"
	"github.com/b2bshop/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Cart DTOs ====================

// AddToCartRequest represents a request to add a product to the cart
type AddToCartRequest struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents a request to change a cart line quantity
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// CartItemResponse represents a cart line in API responses
type CartItemResponse struct {
	ProductID        uuid.UUID        `json:"product_id"`
	Name             string           `json:"name"`
	SKU              string           `json:"sku"`
	Quantity         int              `json:"quantity"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	OriginalPrice    *decimal.Decimal `json:"original_price,omitempty"`
	LineTotal        decimal.Decimal  `json:"line_total"`
	MinOrderQuantity int              `json:"min_order_quantity"`
	MaxOrderQuantity int              `json:"max_order_quantity"`
	AvailableMax     int              `json:"available_max"`
	InStock          bool             `json:"in_stock"`
}

// CartResponse represents a cart in API responses
type CartResponse struct {
	ID           uuid.UUID          `json:"id"`
	CustomerID   uuid.UUID          `json:"customer_id"`
	Items        []CartItemResponse `json:"items"`
	Subtotal     decimal.Decimal    `json:"subtotal"`
	Discount     decimal.Decimal    `json:"discount"`
	ShippingCost decimal.Decimal    `json:"shipping_cost"`
	Total        decimal.Decimal    `json:"total"`
	UpdatedAt    time.Time          `json:"updated_at"`
	ExpiresAt    time.Time          `json:"expires_at"`
	Version      int                `json:"version"`
}

// CheckoutPreview is the pricing a checkout would apply to the current cart
type CheckoutPreview struct {
	ShippingCost          decimal.Decimal `json:"shipping_cost"`
	Tax                   decimal.Decimal `json:"tax"`
	Total                 decimal.Decimal `json:"total"`
	FreeShippingRemaining decimal.Decimal `json:"free_shipping_remaining"`
}

// CartSummaryResponse represents the cart summary in API responses
type CartSummaryResponse struct {
	ItemCount    int             `json:"item_count"`
	TotalItems   int             `json:"total_items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Total        decimal.Decimal `json:"total"`
	Savings      decimal.Decimal `json:"savings"`
	Checkout     CheckoutPreview `json:"checkout"`
}

// ToCartResponse converts a domain Cart to response DTO
func ToCartResponse(cart *trade.Cart) CartResponse {
	items := make([]CartItemResponse, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemResponse{
			ProductID:        item.ProductID,
			Name:             item.Name,
			SKU:              item.SKU,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			OriginalPrice:    item.OriginalPrice,
			LineTotal:        item.LineTotal(),
			MinOrderQuantity: item.MinOrderQuantity,
			MaxOrderQuantity: item.MaxOrderQuantity,
			AvailableMax:     item.AvailableMax,
			InStock:          item.InStock,
		}
	}
	return CartResponse{
		ID:           cart.ID,
		CustomerID:   cart.CustomerID,
		Items:        items,
		Subtotal:     cart.Totals.Subtotal,
		Discount:     cart.Totals.Discount,
		ShippingCost: cart.Totals.ShippingCost,
		Total:        cart.Totals.Total,
		UpdatedAt:    cart.UpdatedAt,
		ExpiresAt:    cart.ExpiresAt,
		Version:      cart.Version,
	}
}

// ToCartSummaryResponse converts a cart summary and its checkout quote
func ToCartSummaryResponse(s trade.CartSummary, quote trade.Quote, policy trade.PricingPolicy) CartSummaryResponse {
	remaining := policy.FreeShippingThreshold.Sub(s.Subtotal)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return CartSummaryResponse{
		ItemCount:    s.ItemCount,
		TotalItems:   s.TotalItems,
		Subtotal:     s.Subtotal,
		Discount:     s.Discount,
		ShippingCost: s.ShippingCost,
		Total:        s.Total,
		Savings:      s.Savings,
		Checkout: CheckoutPreview{
			ShippingCost:          quote.ShippingCost,
			Tax:                   quote.Tax,
			Total:                 quote.Total,
			FreeShippingRemaining: remaining,
		},
	}
}

// ==================== Order DTOs ====================

// ShippingAddressInput is the delivery address submitted at checkout
type ShippingAddressInput struct {
	Street       string `json:"street" binding:"required,max=300"`
	City         string `json:"city" binding:"required,max=100"`
	State        string `json:"state" binding:"required,max=100"`
	Pincode      string `json:"pincode" binding:"required,pincode"`
	Phone        string `json:"phone" binding:"required"`
	Instructions string `json:"instructions" binding:"max=500"`
}

// PlaceOrderRequest represents a checkout request
type PlaceOrderRequest struct {
	PaymentMethod   string               `json:"paymentMethod" binding:"required,oneof=cod"`
	ShippingAddress ShippingAddressInput `json:"shippingAddress" binding:"required"`
	CustomerNotes   string               `json:"customerNotes" binding:"max=1000"`
}

// CancelOrderRequest carries an optional cancellation reason
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// UpdateOrderStatusRequest represents an admin status update
type UpdateOrderStatusRequest struct {
	Status            string     `json:"status" binding:"required,order_status"`
	TrackingNumber    *string    `json:"trackingNumber" binding:"omitempty,max=100"`
	Carrier           *string    `json:"carrier" binding:"omitempty,max=100"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
	AdminNotes        *string    `json:"adminNotes" binding:"omitempty,max=1000"`
}

// OrderListFilter represents filter options for order lists
type OrderListFilter struct {
	Status     string     `form:"status" binding:"omitempty,order_status"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by" binding:"omitempty,oneof=created_at order_date total status"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ShippingAddressResponse represents the delivery address in API responses
type ShippingAddressResponse struct {
	Street       string `json:"street"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	Phone        string `json:"phone"`
	Instructions string `json:"instructions,omitempty"`
}

// OrderItemResponse represents an order line in API responses
type OrderItemResponse struct {
	ProductID     uuid.UUID        `json:"product_id"`
	Name          string           `json:"name"`
	SKU           string           `json:"sku"`
	Quantity      int              `json:"quantity"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	TotalPrice    decimal.Decimal  `json:"total_price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Discount      decimal.Decimal  `json:"discount"`
}

// StatusChangeResponse represents a status history entry
type StatusChangeResponse struct {
	Status string    `json:"status"`
	Note   string    `json:"note,omitempty"`
	At     time.Time `json:"at"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                uuid.UUID               `json:"id"`
	OrderNumber       string                  `json:"order_number"`
	CustomerID        uuid.UUID               `json:"customer_id"`
	Items             []OrderItemResponse     `json:"items"`
	ItemCount         int                     `json:"item_count"`
	TotalQuantity     int                     `json:"total_quantity"`
	Subtotal          decimal.Decimal         `json:"subtotal"`
	Discount          decimal.Decimal         `json:"discount"`
	ShippingCost      decimal.Decimal         `json:"shipping_cost"`
	Tax               decimal.Decimal         `json:"tax"`
	Total             decimal.Decimal         `json:"total"`
	ShippingAddress   ShippingAddressResponse `json:"shipping_address"`
	Status            string                  `json:"status"`
	PaymentStatus     string                  `json:"payment_status"`
	PaymentMethod     string                  `json:"payment_method"`
	TrackingNumber    string                  `json:"tracking_number,omitempty"`
	Carrier           string                  `json:"carrier,omitempty"`
	EstimatedDelivery *time.Time              `json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time              `json:"actual_delivery,omitempty"`
	CustomerNotes     string                  `json:"customer_notes,omitempty"`
	AdminNotes        string                  `json:"admin_notes,omitempty"`
	StatusHistory     []StatusChangeResponse  `json:"status_history"`
	OrderDate         time.Time               `json:"order_date"`
	StatusUpdatedAt   time.Time               `json:"status_updated_at"`
	Version           int                     `json:"version"`
}

// OrderListItemResponse represents an order in list responses
type OrderListItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	OrderNumber   string          `json:"order_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	ItemCount     int             `json:"item_count"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	OrderDate     time.Time       `json:"order_date"`
}

func toShippingAddressResponse(a valueobject.ShippingAddress) ShippingAddressResponse {
	return ShippingAddressResponse{
		Street:       a.Street(),
		City:         a.City(),
		State:        a.State(),
		Pincode:      a.Pincode(),
		Phone:        a.Phone(),
		Instructions: a.Instructions(),
	}
}

// ToOrderResponse converts a domain Order to response DTO
func ToOrderResponse(order *trade.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ProductID:     item.ProductID,
			Name:          item.Name,
			SKU:           item.SKU,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			TotalPrice:    item.TotalPrice,
			OriginalPrice: item.OriginalPrice,
			Discount:      item.Discount,
		}
	}
	history := make([]StatusChangeResponse, len(order.StatusHistory))
	for i, h := range order.StatusHistory {
		history[i] = StatusChangeResponse{Status: string(h.Status), Note: h.Note, At: h.At}
	}

	return OrderResponse{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		CustomerID:        order.CustomerID,
		Items:             items,
		ItemCount:         len(order.Items),
		TotalQuantity:     order.TotalQuantity(),
		Subtotal:          order.Subtotal,
		Discount:          order.Discount,
		ShippingCost:      order.ShippingCost,
		Tax:               order.Tax,
		Total:             order.Total,
		ShippingAddress:   toShippingAddressResponse(order.ShippingAddress),
		Status:            string(order.Status),
		PaymentStatus:     string(order.PaymentStatus),
		PaymentMethod:     string(order.PaymentMethod),
		TrackingNumber:    order.TrackingNumber,
		Carrier:           order.Carrier,
		EstimatedDelivery: order.EstimatedDelivery,
		ActualDelivery:    order.ActualDelivery,
		CustomerNotes:     order.CustomerNotes,
		AdminNotes:        order.AdminNotes,
		StatusHistory:     history,
		OrderDate:         order.OrderDate,
		StatusUpdatedAt:   order.StatusUpdatedAt,
		Version:           order.Version,
	}
}

// ToOrderListItemResponses converts a slice of domain orders to list responses
func ToOrderListItemResponses(orders []trade.Order) []OrderListItemResponse {
	responses := make([]OrderListItemResponse, len(orders))
	for i := range orders {
		o := &orders[i]
		responses[i] = OrderListItemResponse{
			ID:            o.ID,
			OrderNumber:   o.OrderNumber,
			CustomerID:    o.CustomerID,
			ItemCount:     len(o.Items),
			Total:         o.Total,
			Status:        string(o.Status),
			PaymentStatus: string(o.PaymentStatus),
			OrderDate:     o.OrderDate,
		}
	}
	return responses
}
