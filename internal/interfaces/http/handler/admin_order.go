package handler

import (
	tradeapp "github.com/b2bshop/backend/internal/application/trade"
	"github.com/b2bshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AdminOrderHandler serves order administration across customers
type AdminOrderHandler struct {
	BaseHandler
	lifecycle OrderLifecycle
}

// NewAdminOrderHandler creates a new AdminOrderHandler
func NewAdminOrderHandler(lifecycle OrderLifecycle) *AdminOrderHandler {
	return &AdminOrderHandler{lifecycle: lifecycle}
}

// List pages through all orders, optionally narrowed by status or customer.
// GET /admin/orders
func (h *AdminOrderHandler) List(c *gin.Context) {
	var filter tradeapp.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleBindError(c, err)
		return
	}
	orders, total, err := h.lifecycle.ListAll(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, orders, total, page, pageSize)
}

// UpdateStatus moves an order along the status graph and records fulfilment details.
// PUT /admin/orders/:id/status
func (h *AdminOrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}
	order, err := h.lifecycle.AdminUpdateStatus(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
