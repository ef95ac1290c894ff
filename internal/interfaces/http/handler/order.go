package handler

import (
	"context"

	tradeapp "github.com/b2bshop/backend/internal/application/trade"
	"github.com/b2bshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderPlacer converts a cart into an order
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, customerID uuid.UUID, req tradeapp.PlaceOrderRequest) (*tradeapp.OrderResponse, error)
}

// OrderLifecycle covers order queries, cancellation and admin status changes
type OrderLifecycle interface {
	GetForCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*tradeapp.OrderResponse, error)
	GetByNumber(ctx context.Context, customerID uuid.UUID, orderNumber string) (*tradeapp.OrderResponse, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, filter tradeapp.OrderListFilter) ([]tradeapp.OrderListItemResponse, int64, error)
	ListAll(ctx context.Context, filter tradeapp.OrderListFilter) ([]tradeapp.OrderListItemResponse, int64, error)
	Cancel(ctx context.Context, customerID, orderID uuid.UUID, req tradeapp.CancelOrderRequest) (*tradeapp.OrderResponse, error)
	AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, req tradeapp.UpdateOrderStatusRequest) (*tradeapp.OrderResponse, error)
}

// OrderHandler serves the customer's order endpoints
type OrderHandler struct {
	BaseHandler
	placer    OrderPlacer
	lifecycle OrderLifecycle
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(placer OrderPlacer, lifecycle OrderLifecycle) *OrderHandler {
	return &OrderHandler{placer: placer, lifecycle: lifecycle}
}

// Place checks out the caller's cart.
// POST /orders
func (h *OrderHandler) Place(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}
	var req tradeapp.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}
	order, err := h.placer.PlaceOrder(c.Request.Context(), customerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// List pages through the caller's orders, newest first.
// GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}
	var filter tradeapp.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleBindError(c, err)
		return
	}
	// customers only ever see their own orders
	filter.CustomerID = nil

	orders, total, err := h.lifecycle.ListForCustomer(c.Request.Context(), customerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, orders, total, page, pageSize)
}

// Get returns one of the caller's orders; other customers' orders are 404.
// GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	order, err := h.lifecycle.GetForCustomer(c.Request.Context(), customerID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// GetByNumber looks an order up by its ORD-YYYY-NNNNNN number.
// GET /orders/number/:orderNumber
func (h *OrderHandler) GetByNumber(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}
	order, err := h.lifecycle.GetByNumber(c.Request.Context(), customerID, c.Param("orderNumber"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Cancel cancels a pending or confirmed order and restocks its items.
// PUT /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.CancelOrderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleBindError(c, err)
			return
		}
	}
	order, err := h.lifecycle.Cancel(c.Request.Context(), customerID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
