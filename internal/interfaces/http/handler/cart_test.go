package handler

import (
	"net/http"
	"testing"

	tradeapp "github.com/b2bshop/backend/internal/application/trade"
	"github.com/b2bshop/backend/internal/domain/catalog"
	"github.com/b2bshop/backend/internal/domain/trade"
	"github.com/b2bshop/backend/internal/infrastructure/auth"
	"github.com/b2bshop/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCartRouter(svc CartService, principal *auth.Principal) *gin.Engine {
	h := NewCartHandler(svc)
	router := newTestRouter(principal)
	router.GET("/cart", h.Get)
	router.GET("/cart/summary", h.Summary)
	router.POST("/cart/add", h.AddItem)
	router.PUT("/cart/update/:productId", h.UpdateItem)
	router.DELETE("/cart/remove/:productId", h.RemoveItem)
	router.DELETE("/cart/clear", h.Clear)
	return router
}

func TestCartHandler_Get(t *testing.T) {
	customer := &auth.Principal{ID: uuid.New(), Role: auth.RoleCustomer}
	svc := new(mockCartService)
	svc.On("Get", mock.Anything, customer.ID).Return(&tradeapp.CartResponse{
		CustomerID: customer.ID,
		Items:      []tradeapp.CartItemResponse{},
		Total:      decimal.Zero,
	}, nil)

	w := doRequest(newCartRouter(svc, customer), http.MethodGet, "/cart", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)
	svc.AssertExpectations(t)
}

func TestCartHandler_Unauthenticated(t *testing.T) {
	svc := new(mockCartService)

	w := doRequest(newCartRouter(svc, nil), http.MethodGet, "/cart", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestCartHandler_Summary(t *testing.T) {
	customer := &auth.Principal{ID: uuid.New(), Role: auth.RoleCustomer}
	svc := new(mockCartService)
	svc.On("Summary", mock.Anything, customer.ID).Return(&tradeapp.CartSummaryResponse{ItemCount: 2, TotalItems: 7}, nil)

	w := doRequest(newCartRouter(svc, customer), http.MethodGet, "/cart/summary", "")

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]any)
	assert.EqualValues(t, 7, data["total_items"])
}

func TestCartHandler_AddItem(t *testing.T) {
	customer := &auth.Principal{ID: uuid.New(), Role: auth.RoleCustomer}
	productID := uuid.New()

	t.Run("binds and forwards", func(t *testing.T) {
		svc := new(mockCartService)
		svc.On("AddItem", mock.Anything, customer.ID, tradeapp.AddToCartRequest{ProductID: productID, Quantity: 5}).
			Return(&tradeapp.CartResponse{CustomerID: customer.ID}, nil)

		w := doRequest(newCartRouter(svc, customer), http.MethodPost, "/cart/add",
			`{"productId":"`+productID.String()+`","quantity":5}`)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("zero quantity rejected before the service", func(t *testing.T) {
		svc := new(mockCartService)

		w := doRequest(newCartRouter(svc, customer), http.MethodPost, "/cart/add",
			`{"productId":"`+productID.String()+`","quantity":0}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.CodeValidation, decode(t, w).Error.Code)
		svc.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stock conflict keeps details", func(t *testing.T) {
		svc := new(mockCartService)
		svc.On("AddItem", mock.Anything, customer.ID, mock.Anything).
			Return(nil, catalog.InsufficientStockError(productID.String(), "Toor Dal 30kg", 4, 9))

		w := doRequest(newCartRouter(svc, customer), http.MethodPost, "/cart/add",
			`{"productId":"`+productID.String()+`","quantity":9}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, catalog.CodeInsufficientStock, resp.Error.Code)
		assert.EqualValues(t, 4, resp.Error.Details["available"])
	})
}

func TestCartHandler_UpdateItem(t *testing.T) {
	customer := &auth.Principal{ID: uuid.New(), Role: auth.RoleCustomer}
	productID := uuid.New()

	t.Run("zero quantity is allowed", func(t *testing.T) {
		svc := new(mockCartService)
		svc.On("UpdateItem", mock.Anything, customer.ID, productID, tradeapp.UpdateCartItemRequest{Quantity: 0}).
			Return(&tradeapp.CartResponse{}, nil)

		w := doRequest(newCartRouter(svc, customer), http.MethodPut, "/cart/update/"+productID.String(), `{"quantity":0}`)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("negative quantity", func(t *testing.T) {
		svc := new(mockCartService)
		w := doRequest(newCartRouter(svc, customer), http.MethodPut, "/cart/update/"+productID.String(), `{"quantity":-1}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad product id", func(t *testing.T) {
		svc := new(mockCartService)
		w := doRequest(newCartRouter(svc, customer), http.MethodPut, "/cart/update/not-a-uuid", `{"quantity":1}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing line", func(t *testing.T) {
		svc := new(mockCartService)
		svc.On("UpdateItem", mock.Anything, customer.ID, productID, mock.Anything).
			Return(nil, trade.ErrCartNotFound)

		w := doRequest(newCartRouter(svc, customer), http.MethodPut, "/cart/update/"+productID.String(), `{"quantity":2}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, trade.CodeCartNotFound, decode(t, w).Error.Code)
	})
}

func TestCartHandler_RemoveAndClear(t *testing.T) {
	customer := &auth.Principal{ID: uuid.New(), Role: auth.RoleCustomer}
	productID := uuid.New()
	svc := new(mockCartService)
	svc.On("RemoveItem", mock.Anything, customer.ID, productID).Return(&tradeapp.CartResponse{}, nil)
	svc.On("Clear", mock.Anything, customer.ID).Return(&tradeapp.CartResponse{}, nil)
	router := newCartRouter(svc, customer)

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodDelete, "/cart/remove/"+productID.String(), "").Code)
	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodDelete, "/cart/clear", "").Code)
	svc.AssertExpectations(t)
}
