package trade

import (
	"context"
	"testing"

	"github.com/b2bshop/backend/internal/domain/catalog"
	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/domain/shared/valueobject"
	"github.com/b2bshop/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newProduct(t *testing.T, price int64, stock, minQty, maxQty int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("SKU-"+uuid.NewString()[:8], "Toor Dal 30kg", valueobject.NewMoneyINR(decimal.NewFromInt(price)), stock, minQty, maxQty)
	require.NoError(t, err)
	return p
}

type cartFixture struct {
	carts    *MockCartRepository
	products *MockProductRepository
	locker   *mutexLocker
	svc      *CartService
}

func newCartFixture() *cartFixture {
	f := &cartFixture{
		carts:    new(MockCartRepository),
		products: new(MockProductRepository),
		locker:   &mutexLocker{},
	}
	f.svc = NewCartService(f.carts, f.products, f.locker, trade.DefaultPricingPolicy())
	return f
}

func TestCartService_GetCreatesCart(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	customerID := uuid.New()

	f.carts.On("FindByCustomer", ctx, customerID).Return(nil, trade.ErrCartNotFound).Once()
	f.carts.On("Save", ctx, mock.AnythingOfType("*trade.Cart")).Return(nil).Once()

	cart, err := f.svc.Get(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, customerID, cart.CustomerID)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
	f.carts.AssertExpectations(t)
	f.products.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything)
}

func TestCartService_GetCreateRace(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	customerID := uuid.New()
	existing := trade.NewCart(customerID)

	f.carts.On("FindByCustomer", ctx, customerID).Return(nil, trade.ErrCartNotFound).Once()
	f.carts.On("Save", ctx, mock.Anything).Return(shared.ErrAlreadyExists).Once()
	f.carts.On("FindByCustomer", ctx, customerID).Return(existing, nil).Once()

	cart, err := f.svc.Get(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, cart.ID)
}

func TestCartService_GetRefreshesLines(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	customerID := uuid.New()
	product := newProduct(t, 100, 3, 1, 10)

	cart := trade.NewCart(customerID)
	require.NoError(t, cart.AddItem(snapshotOf(product), 2))
	f.carts.On("FindByCustomer", ctx, customerID).Return(cart, nil)

	live := *product
	live.StockQuantity = 0
	f.products.On("FindByIDs", ctx, []uuid.UUID{product.ID}).Return([]catalog.Product{live}, nil)

	resp, err := f.svc.Get(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.False(t, resp.Items[0].InStock)
	assert.Equal(t, 0, resp.Items[0].AvailableMax)
	assert.Equal(t, 2, resp.Items[0].Quantity)
	f.carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCartService_AddItem(t *testing.T) {
	tests := []struct {
		name     string
		product  func(t *testing.T) *catalog.Product
		inCart   int
		quantity int
		wantCode string
		wantQty  int
	}{
		{
			name:     "new line within bounds",
			product:  func(t *testing.T) *catalog.Product { return newProduct(t, 100, 5, 1, 10) },
			quantity: 3,
			wantQty:  3,
		},
		{
			name:     "exactly max",
			product:  func(t *testing.T) *catalog.Product { return newProduct(t, 100, 50, 1, 10) },
			quantity: 10,
			wantQty:  10,
		},
		{
			name:     "one over max",
			product:  func(t *testing.T) *catalog.Product { return newProduct(t, 100, 50, 1, 10) },
			quantity: 11,
			wantCode: catalog.CodeAboveMaximumOrder,
		},
		{
			name:     "below min",
			product:  func(t *testing.T) *catalog.Product { return newProduct(t, 100, 50, 5, 10) },
			quantity: 4,
			wantCode: catalog.CodeBelowMinimumOrder,
		},
		{
			name: "inactive product",
			product: func(t *testing.T) *catalog.Product {
				p := newProduct(t, 100, 50, 1, 10)
				p.Deactivate()
				return p
			},
			quantity: 1,
			wantCode: catalog.CodeProductInactive,
		},
		{
			name:     "more than stock",
			product:  func(t *testing.T) *catalog.Product { return newProduct(t, 100, 2, 1, 10) },
			quantity: 3,
			wantCode: catalog.CodeInsufficientStock,
		},
		{
			name:     "existing line combined over stock",
			product:  func(t *testing.T) *catalog.Product { return newProduct(t, 100, 6, 1, 10) },
			inCart:   4,
			quantity: 3,
			wantCode: catalog.CodeInsufficientStock,
			wantQty:  4,
		},
		{
			name:     "existing line combined over max",
			product:  func(t *testing.T) *catalog.Product { return newProduct(t, 100, 50, 1, 10) },
			inCart:   8,
			quantity: 3,
			wantCode: trade.CodeQuantityExceedsMax,
			wantQty:  8,
		},
		{
			name:     "existing line accumulates",
			product:  func(t *testing.T) *catalog.Product { return newProduct(t, 100, 50, 1, 10) },
			inCart:   4,
			quantity: 4,
			wantQty:  8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCartFixture()
			ctx := context.Background()
			customerID := uuid.New()
			product := tt.product(t)

			cart := trade.NewCart(customerID)
			if tt.inCart > 0 {
				require.NoError(t, cart.AddItem(snapshotOf(product), tt.inCart))
			}
			f.carts.On("FindByCustomer", mock.Anything, customerID).Return(cart, nil)
			f.carts.On("Save", mock.Anything, cart).Return(nil)
			f.products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
			f.products.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Product{*product}, nil)

			resp, err := f.svc.AddItem(ctx, customerID, AddToCartRequest{ProductID: product.ID, Quantity: tt.quantity})

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, domainCode(err))
				assert.Nil(t, resp)
				assert.Equal(t, tt.wantQty, cart.QuantityOf(product.ID))
				f.carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			require.Len(t, resp.Items, 1)
			assert.Equal(t, tt.wantQty, resp.Items[0].Quantity)
			assert.Equal(t, 1, f.locker.calls)
			f.carts.AssertCalled(t, "Save", mock.Anything, cart)
		})
	}
}

func TestCartService_AddItemProductNotFound(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	customerID := uuid.New()
	productID := uuid.New()

	f.carts.On("FindByCustomer", mock.Anything, customerID).Return(trade.NewCart(customerID), nil)
	f.products.On("FindByID", mock.Anything, productID).Return(nil, shared.ErrNotFound)

	_, err := f.svc.AddItem(ctx, customerID, AddToCartRequest{ProductID: productID, Quantity: 1})
	assert.Equal(t, catalog.CodeProductNotFound, domainCode(err))
}

func TestCartService_UpdateItem(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	customerID := uuid.New()
	product := newProduct(t, 100, 50, 1, 10)

	cart := trade.NewCart(customerID)
	require.NoError(t, cart.AddItem(snapshotOf(product), 2))
	f.carts.On("FindByCustomer", mock.Anything, customerID).Return(cart, nil)
	f.carts.On("Save", mock.Anything, cart).Return(nil)
	f.products.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Product{*product}, nil)

	_, err := f.svc.UpdateItem(ctx, customerID, product.ID, UpdateCartItemRequest{Quantity: 0})
	assert.Equal(t, trade.CodeBelowMinimumOrder, domainCode(err))

	_, err = f.svc.UpdateItem(ctx, customerID, uuid.New(), UpdateCartItemRequest{Quantity: 2})
	assert.Equal(t, trade.CodeItemNotFound, domainCode(err))

	resp, err := f.svc.UpdateItem(ctx, customerID, product.ID, UpdateCartItemRequest{Quantity: 7})
	require.NoError(t, err)
	assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(700)))
}

func TestCartService_RemoveAndClear(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	customerID := uuid.New()
	product := newProduct(t, 100, 50, 1, 10)

	cart := trade.NewCart(customerID)
	require.NoError(t, cart.AddItem(snapshotOf(product), 2))
	f.carts.On("FindByCustomer", mock.Anything, customerID).Return(cart, nil)
	f.carts.On("Save", mock.Anything, cart).Return(nil)
	f.products.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Product{*product}, nil)

	resp, err := f.svc.RemoveItem(ctx, customerID, uuid.New())
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)

	resp, err = f.svc.Clear(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.True(t, resp.Total.IsZero())
}

func TestCartService_Summary(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	customerID := uuid.New()
	product := newProduct(t, 100, 5, 1, 10)

	cart := trade.NewCart(customerID)
	require.NoError(t, cart.AddItem(snapshotOf(product), 3))
	f.carts.On("FindByCustomer", mock.Anything, customerID).Return(cart, nil)
	f.products.On("FindByIDs", mock.Anything, []uuid.UUID{product.ID}).Return([]catalog.Product{*product}, nil)

	summary, err := f.svc.Summary(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ItemCount)
	assert.Equal(t, 3, summary.TotalItems)
	assert.True(t, summary.Checkout.Tax.Equal(decimal.NewFromInt(54)))
	assert.True(t, summary.Checkout.ShippingCost.Equal(decimal.NewFromInt(500)))
	assert.True(t, summary.Checkout.Total.Equal(decimal.NewFromInt(854)))
	assert.True(t, summary.Checkout.FreeShippingRemaining.Equal(decimal.NewFromInt(9700)))
}

func TestCartService_SummaryPricesAtLiveCatalog(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	customerID := uuid.New()
	product := newProduct(t, 100, 5, 1, 10)

	cart := trade.NewCart(customerID)
	require.NoError(t, cart.AddItem(snapshotOf(product), 3))
	f.carts.On("FindByCustomer", mock.Anything, customerID).Return(cart, nil)

	repriced := *product
	repriced.Price = decimal.NewFromInt(4000)
	repriced.StockQuantity = 2
	f.products.On("FindByIDs", mock.Anything, []uuid.UUID{product.ID}).Return([]catalog.Product{repriced}, nil)

	summary, err := f.svc.Summary(ctx, customerID)
	require.NoError(t, err)
	assert.True(t, summary.Subtotal.Equal(decimal.NewFromInt(12000)), summary.Subtotal.String())
	assert.True(t, summary.Checkout.ShippingCost.IsZero())
	assert.True(t, summary.Checkout.Tax.Equal(decimal.NewFromInt(2160)))
	assert.True(t, summary.Checkout.Total.Equal(decimal.NewFromInt(14160)))
	assert.True(t, summary.Checkout.FreeShippingRemaining.IsZero())

	// the stored snapshot is left alone
	item, ok := cart.Item(product.ID)
	require.True(t, ok)
	assert.True(t, item.UnitPrice.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 2, item.AvailableMax)
}
