package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/b2bshop/backend/internal/domain/catalog"
	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotOf(p *catalog.Product) trade.ProductSnapshot {
	return trade.ProductSnapshot{
		ProductID:        p.ID,
		Name:             p.Name,
		SKU:              p.SKU,
		UnitPrice:        p.Price,
		OriginalPrice:    p.OriginalPrice,
		MinOrderQuantity: p.MinOrderQuantity,
		MaxOrderQuantity: p.MaxOrderQuantity,
		InStock:          p.InStock(),
	}
}

func TestGormCartRepository_SaveAndLoad(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()
	customerID := uuid.New()
	rice := seedProduct(t, db, "RICE-25", 1200, 40)
	dal := seedProduct(t, db, "DAL-10", 900, 40)

	cart := trade.NewCart(customerID)
	require.NoError(t, cart.AddItem(snapshotOf(dal), 3))
	require.NoError(t, cart.AddItem(snapshotOf(rice), 2))
	require.NoError(t, repo.Save(ctx, cart))
	assert.Equal(t, 1, cart.Version, "an inserted cart keeps its initial version")

	got, err := repo.FindByCustomer(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, dal.ID, got.Items[0].ProductID, "lines keep insertion order")
	assert.Equal(t, rice.ID, got.Items[1].ProductID)
	assert.True(t, got.Totals.Subtotal.Equal(decimal.NewFromInt(3*900+2*1200)))

	t.Run("update replaces lines and bumps the version", func(t *testing.T) {
		got.RemoveItem(dal.ID)
		require.NoError(t, got.UpdateItemQuantity(rice.ID, 5))
		require.NoError(t, repo.Save(ctx, got))
		assert.Equal(t, 2, got.Version)

		reloaded, err := repo.FindByCustomer(ctx, customerID)
		require.NoError(t, err)
		require.Len(t, reloaded.Items, 1)
		assert.Equal(t, 5, reloaded.Items[0].Quantity)
		assert.Equal(t, 2, reloaded.Version)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		stale := *cart
		stale.Items = nil
		err := repo.Save(ctx, &stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("second cart for the same customer", func(t *testing.T) {
		err := repo.Save(ctx, trade.NewCart(customerID))
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestGormCartRepository_FindMissing(t *testing.T) {
	repo := NewGormCartRepository(newTestDB(t))
	_, err := repo.FindByCustomer(context.Background(), uuid.New())
	assert.ErrorIs(t, err, trade.ErrCartNotFound)
}

func TestGormCartRepository_DeleteExpired(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, "TEA-1", 450, 10)

	stale := trade.NewCart(uuid.New())
	require.NoError(t, stale.AddItem(snapshotOf(p), 1))
	stale.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Save(ctx, stale))

	fresh := trade.NewCart(uuid.New())
	require.NoError(t, fresh.AddItem(snapshotOf(p), 1))
	require.NoError(t, repo.Save(ctx, fresh))

	deleted, err := repo.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindByCustomer(ctx, stale.CustomerID)
	assert.ErrorIs(t, err, trade.ErrCartNotFound)
	_, err = repo.FindByCustomer(ctx, fresh.CustomerID)
	assert.NoError(t, err)

	var orphans int64
	require.NoError(t, db.Table("cart_items").Where("cart_id = ?", stale.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)
}
