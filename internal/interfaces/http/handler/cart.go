package handler

import (
	"context"

	tradeapp "github.com/b2bshop/backend/internal/application/trade"
	"github.com/b2bshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CartService is the cart use-case surface the handler depends on
type CartService interface {
	Get(ctx context.Context, customerID uuid.UUID) (*tradeapp.CartResponse, error)
	Summary(ctx context.Context, customerID uuid.UUID) (*tradeapp.CartSummaryResponse, error)
	AddItem(ctx context.Context, customerID uuid.UUID, req tradeapp.AddToCartRequest) (*tradeapp.CartResponse, error)
	UpdateItem(ctx context.Context, customerID, productID uuid.UUID, req tradeapp.UpdateCartItemRequest) (*tradeapp.CartResponse, error)
	RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (*tradeapp.CartResponse, error)
	Clear(ctx context.Context, customerID uuid.UUID) (*tradeapp.CartResponse, error)
}

// CartHandler serves the caller's own cart
type CartHandler struct {
	BaseHandler
	carts CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// Get returns the cart with live product data; an absent cart is returned empty.
// GET /cart
func (h *CartHandler) Get(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}
	cart, err := h.carts.Get(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// Summary returns counts, totals and the checkout preview.
// GET /cart/summary
func (h *CartHandler) Summary(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}
	summary, err := h.carts.Summary(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// AddItem adds a product or increases the quantity of an existing line.
// POST /cart/add
func (h *CartHandler) AddItem(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}
	var req tradeapp.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}
	cart, err := h.carts.AddItem(c.Request.Context(), customerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// UpdateItem sets a line's quantity; zero removes the line.
// PUT /cart/update/:productId
func (h *CartHandler) UpdateItem(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "productId")
	if !ok {
		return
	}
	var req tradeapp.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}
	cart, err := h.carts.UpdateItem(c.Request.Context(), customerID, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// RemoveItem deletes a line from the cart.
// DELETE /cart/remove/:productId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "productId")
	if !ok {
		return
	}
	cart, err := h.carts.RemoveItem(c.Request.Context(), customerID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// Clear empties the cart.
// DELETE /cart/clear
func (h *CartHandler) Clear(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}
	cart, err := h.carts.Clear(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}
