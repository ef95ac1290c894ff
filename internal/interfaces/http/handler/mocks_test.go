package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/b2bshop/backend/internal/application/event"
	tradeapp "github.com/b2bshop/backend/internal/application/trade"
	"github.com/b2bshop/backend/internal/infrastructure/auth"
	"github.com/b2bshop/backend/internal/interfaces/http/dto"
	"github.com/b2bshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

// newTestRouter authenticates every request as principal
func newTestRouter(principal *auth.Principal) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	if principal != nil {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.PrincipalKey, *principal)
			c.Set(middleware.CustomerIDKey, principal.ID.String())
			c.Next()
		})
	}
	return router
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

type mockCartService struct{ mock.Mock }

func (m *mockCartService) cart(args mock.Arguments) (*tradeapp.CartResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.CartResponse), args.Error(1)
}

func (m *mockCartService) Get(ctx context.Context, customerID uuid.UUID) (*tradeapp.CartResponse, error) {
	return m.cart(m.Called(ctx, customerID))
}

func (m *mockCartService) Summary(ctx context.Context, customerID uuid.UUID) (*tradeapp.CartSummaryResponse, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.CartSummaryResponse), args.Error(1)
}

func (m *mockCartService) AddItem(ctx context.Context, customerID uuid.UUID, req tradeapp.AddToCartRequest) (*tradeapp.CartResponse, error) {
	return m.cart(m.Called(ctx, customerID, req))
}

func (m *mockCartService) UpdateItem(ctx context.Context, customerID, productID uuid.UUID, req tradeapp.UpdateCartItemRequest) (*tradeapp.CartResponse, error) {
	return m.cart(m.Called(ctx, customerID, productID, req))
}

func (m *mockCartService) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (*tradeapp.CartResponse, error) {
	return m.cart(m.Called(ctx, customerID, productID))
}

func (m *mockCartService) Clear(ctx context.Context, customerID uuid.UUID) (*tradeapp.CartResponse, error) {
	return m.cart(m.Called(ctx, customerID))
}

type mockOrderPlacer struct{ mock.Mock }

func (m *mockOrderPlacer) PlaceOrder(ctx context.Context, customerID uuid.UUID, req tradeapp.PlaceOrderRequest) (*tradeapp.OrderResponse, error) {
	args := m.Called(ctx, customerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.OrderResponse), args.Error(1)
}

type mockOrderLifecycle struct{ mock.Mock }

func (m *mockOrderLifecycle) order(args mock.Arguments) (*tradeapp.OrderResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.OrderResponse), args.Error(1)
}

func (m *mockOrderLifecycle) list(args mock.Arguments) ([]tradeapp.OrderListItemResponse, int64, error) {
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]tradeapp.OrderListItemResponse), args.Get(1).(int64), args.Error(2)
}

func (m *mockOrderLifecycle) GetForCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, customerID, orderID))
}

func (m *mockOrderLifecycle) GetByNumber(ctx context.Context, customerID uuid.UUID, orderNumber string) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, customerID, orderNumber))
}

func (m *mockOrderLifecycle) ListForCustomer(ctx context.Context, customerID uuid.UUID, filter tradeapp.OrderListFilter) ([]tradeapp.OrderListItemResponse, int64, error) {
	return m.list(m.Called(ctx, customerID, filter))
}

func (m *mockOrderLifecycle) ListAll(ctx context.Context, filter tradeapp.OrderListFilter) ([]tradeapp.OrderListItemResponse, int64, error) {
	return m.list(m.Called(ctx, filter))
}

func (m *mockOrderLifecycle) Cancel(ctx context.Context, customerID, orderID uuid.UUID, req tradeapp.CancelOrderRequest) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, customerID, orderID, req))
}

func (m *mockOrderLifecycle) AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, req tradeapp.UpdateOrderStatusRequest) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, orderID, req))
}

type mockOutboxService struct{ mock.Mock }

func (m *mockOutboxService) ListDead(ctx context.Context, filter event.OutboxFilter) ([]event.OutboxEntryDTO, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]event.OutboxEntryDTO), args.Get(1).(int64), args.Error(2)
}

func (m *mockOutboxService) Retry(ctx context.Context, id uuid.UUID) (*event.OutboxEntryDTO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxEntryDTO), args.Error(1)
}

func (m *mockOutboxService) Stats(ctx context.Context) (*event.OutboxStatsDTO, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxStatsDTO), args.Error(1)
}

var (
	_ CartService    = (*mockCartService)(nil)
	_ OrderPlacer    = (*mockOrderPlacer)(nil)
	_ OrderLifecycle = (*mockOrderLifecycle)(nil)
	_ OutboxService  = (*mockOutboxService)(nil)
)
