package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/b2bshop/backend/internal/domain/catalog"
	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/domain/trade"
	"github.com/b2bshop/backend/internal/interfaces/http/dto"
	"github.com/b2bshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.SuccessWithMeta(c, []string{"a", "b"}, 45, 2, 20)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"empty cart", trade.ErrEmptyCart, http.StatusBadRequest, trade.CodeEmptyCart},
		{"wrapped not found", fmt.Errorf("load: %w", trade.ErrOrderNotFound), http.StatusNotFound, trade.CodeOrderNotFound},
		{"stock conflict", catalog.InsufficientStockError("p1", "Basmati Rice 25kg", 3, 10), http.StatusBadRequest, catalog.CodeInsufficientStock},
		{"lost lock", shared.ErrConcurrencyConflict, http.StatusConflict, "CONCURRENCY_CONFLICT"},
		{"invalid transition", shared.NewDomainError(trade.CodeInvalidTransition, "Cannot move order from delivered to pending"), http.StatusBadRequest, trade.CodeInvalidTransition},
		{"plain error", errors.New("connection reset"), http.StatusInternalServerError, dto.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(middleware.RequestIDKey, "req-1")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, "req-1", resp.RequestID)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}

	t.Run("details reach the client", func(t *testing.T) {
		h := &BaseHandler{}
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		h.HandleError(c, catalog.InsufficientStockError("p1", "Basmati Rice 25kg", 3, 10))

		resp := decode(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "Basmati Rice 25kg", resp.Error.Details["product_name"])
		assert.EqualValues(t, 3, resp.Error.Details["available"])
	})

	t.Run("internal message is hidden", func(t *testing.T) {
		h := &BaseHandler{}
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		h.HandleError(c, errors.New("pq: password authentication failed"))

		assert.NotContains(t, w.Body.String(), "password")
	})
}

func TestPageOrDefault(t *testing.T) {
	page, size := pageOrDefault(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	page, size = pageOrDefault(3, 50)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, size)
}
