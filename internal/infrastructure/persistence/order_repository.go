package persistence

import (
	"context"
	"time"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/domain/trade"
	"github.com/b2bshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements trade.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		})
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.withChildren(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForCustomer returns ErrNotFound for orders of other customers
func (r *GormOrderRepository) FindByIDForCustomer(ctx context.Context, customerID, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.withChildren(ctx).
		Where("customer_id = ? AND id = ?", customerID, id).
		First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindByOrderNumber finds a customer's order by order number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, customerID uuid.UUID, orderNumber string) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.withChildren(ctx).
		Where("customer_id = ? AND order_number = ?", customerID, orderNumber).
		First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindByCustomer lists one customer's orders
func (r *GormOrderRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]trade.Order, int64, error) {
	if filter.Filters == nil {
		filter.Filters = map[string]any{}
	}
	filter.Filters["customer_id"] = customerID
	return r.FindAll(ctx, filter)
}

// FindAll lists orders matching the filter with the unpaginated total
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Order, int64, error) {
	var total int64
	base := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.OrderModel
	query := r.applyFilter(r.withChildren(ctx).Model(&models.OrderModel{}), filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]trade.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

// Create inserts a new order with its items and initial history.
// A taken order number surfaces as ErrAlreadyExists.
func (r *GormOrderRepository) Create(ctx context.Context, order *trade.Order) error {
	model := models.OrderModelFromDomain(order)
	return translate(r.db.WithContext(ctx).Create(model).Error)
}

// SaveWithLock saves with optimistic locking (version check).
// Items are immutable after placement; only new history rows are appended.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *trade.Order) error {
	model := models.OrderModelFromDomain(order)
	now := time.Now().UTC()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.OrderModel{}).
			Where("id = ? AND version = ?", order.ID, order.Version).
			Updates(map[string]any{
				"status":             model.Status,
				"payment_status":     model.PaymentStatus,
				"tracking_number":    model.TrackingNumber,
				"carrier":            model.Carrier,
				"estimated_delivery": model.EstimatedDelivery,
				"actual_delivery":    model.ActualDelivery,
				"admin_notes":        model.AdminNotes,
				"status_updated_at":  model.StatusUpdatedAt,
				"version":            order.Version + 1,
				"updated_at":         now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.OrderModel{}).Where("id = ?", order.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.ErrConcurrencyConflict
		}

		var persisted int64
		if err := tx.Model(&models.OrderStatusHistoryModel{}).
			Where("order_id = ?", order.ID).
			Count(&persisted).Error; err != nil {
			return err
		}
		if fresh := models.HistoryModelsFromDomain(order.ID, order.StatusHistory, int(persisted)); len(fresh) > 0 {
			if err := tx.Create(&fresh).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	order.Version++
	order.UpdatedAt = now
	return nil
}

// GenerateOrderNumber numbers orders sequentially within the year of at.
// Two concurrent placements can draw the same number; the unique index
// rejects the second and placement retries.
func (r *GormOrderRepository) GenerateOrderNumber(ctx context.Context, at time.Time) (string, error) {
	year := at.Year()
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("order_number LIKE ?", trade.OrderNumberPrefix(year)+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return trade.FormatOrderNumber(year, count+1), nil
}

// applyFilter applies filter, ordering and pagination to the query
func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	query = query.Order(orderClause(filter.OrderBy, filter.OrderDir, orderSortColumns, "order_date")).Order("id DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

func (r *GormOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "from":
			if t, ok := value.(time.Time); ok {
				query = query.Where("order_date >= ?", t)
			}
		case "to":
			if t, ok := value.(time.Time); ok {
				query = query.Where("order_date < ?", t)
			}
		}
	}
	return query
}

var _ trade.OrderRepository = (*GormOrderRepository)(nil)
