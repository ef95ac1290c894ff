package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/domain/trade"
	"github.com/b2bshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCartRepository implements trade.CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByCustomer loads the customer's cart with its lines in insertion order
func (r *GormCartRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*trade.Cart, error) {
	var model models.CartModel
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("customer_id = ?", customerID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, trade.ErrCartNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save writes the cart header with a version check and replaces its lines.
// A new cart is inserted; a duplicate customer_id surfaces as ErrAlreadyExists.
func (r *GormCartRepository) Save(ctx context.Context, cart *trade.Cart) error {
	model := models.CartModelFromDomain(cart)
	now := time.Now().UTC()
	inserted := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.CartModel{}).
			Where("id = ? AND version = ?", cart.ID, cart.Version).
			Updates(map[string]any{
				"subtotal":      model.Subtotal,
				"discount":      model.Discount,
				"shipping_cost": model.ShippingCost,
				"total":         model.Total,
				"expires_at":    model.ExpiresAt,
				"version":       cart.Version + 1,
				"updated_at":    now,
			})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.CartModel{}).Where("id = ?", cart.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return shared.ErrConcurrencyConflict
			}
			model.UpdatedAt = now
			if model.CreatedAt.IsZero() {
				model.CreatedAt = now
			}
			if err := tx.Omit("Items").Create(model).Error; err != nil {
				return translate(err)
			}
			inserted = true
		} else if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItemModel{}).Error; err != nil {
			return err
		}

		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !inserted {
		cart.Version++
	}
	cart.UpdatedAt = now
	return nil
}

// DeleteExpired removes carts idle past their expiry together with their lines
func (r *GormCartRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&models.CartModel{}).Select("id").Where("expires_at < ?", before)
		if err := tx.Where("cart_id IN (?)", expired).Delete(&models.CartItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("expires_at < ?", before).Delete(&models.CartModel{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}

var _ trade.CartRepository = (*GormCartRepository)(nil)
