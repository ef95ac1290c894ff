package persistence

import (
	"context"
	"time"

	"github.com/b2bshop/backend/internal/domain/partner"
	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCustomerRepository keeps customers and their running order statistics
type GormCustomerRepository struct {
	db *gorm.DB
}

func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var row models.CustomerModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.ToDomain(), nil
}

// Save upserts the whole customer row
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return translate(r.db.WithContext(ctx).Save(models.CustomerModelFromDomain(customer)).Error)
}

// IncrementOrderStats counts one more order of amount, placed at at
func (r *GormCustomerRepository) IncrementOrderStats(ctx context.Context, id uuid.UUID, amount decimal.Decimal, at time.Time) error {
	return r.adjustStats(ctx, id, map[string]any{
		"total_orders":    gorm.Expr("total_orders + 1"),
		"total_spent":     gorm.Expr("total_spent + ?", amount),
		"last_order_date": at,
	})
}

// DecrementOrderStats takes one order of amount back off; neither total goes below zero
func (r *GormCustomerRepository) DecrementOrderStats(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return r.adjustStats(ctx, id, map[string]any{
		"total_orders": gorm.Expr("CASE WHEN total_orders > 0 THEN total_orders - 1 ELSE 0 END"),
		"total_spent":  gorm.Expr("CASE WHEN total_spent > ? THEN total_spent - ? ELSE 0 END", amount, amount),
	})
}

// adjustStats applies the column expressions in one UPDATE so concurrent
// placements for the same customer never lose a count.
func (r *GormCustomerRepository) adjustStats(ctx context.Context, id uuid.UUID, set map[string]any) error {
	set["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.CustomerModel{}).Where("id = ?", id).Updates(set)
	switch {
	case res.Error != nil:
		return res.Error
	case res.RowsAffected == 0:
		return shared.ErrNotFound
	}
	return nil
}

var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
