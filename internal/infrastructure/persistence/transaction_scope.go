package persistence

import (
	"context"

	apptrade "github.com/b2bshop/backend/internal/application/trade"
	"github.com/b2bshop/backend/internal/domain/catalog"
	"github.com/b2bshop/backend/internal/domain/partner"
	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Events saved through the scope land in the outbox in the same transaction.
type GormTransactionScope struct {
	db     *gorm.DB
	events shared.OutboxEventSaver
}

// NewGormTransactionScope creates a new GormTransactionScope.
// A nil saver makes SaveEvents a no-op.
func NewGormTransactionScope(db *gorm.DB, events shared.OutboxEventSaver) *GormTransactionScope {
	return &GormTransactionScope{db: db, events: events}
}

// Execute runs fn within a database transaction, rolling back on error
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos apptrade.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, events: s.events})
	})
}

type gormTransactionalRepositories struct {
	tx     *gorm.DB
	events shared.OutboxEventSaver
}

func (r *gormTransactionalRepositories) OrderRepo() trade.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) CustomerRepo() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

func (r *gormTransactionalRepositories) CartRepo() trade.CartRepository {
	return NewGormCartRepository(r.tx)
}

func (r *gormTransactionalRepositories) SaveEvents(ctx context.Context, events ...shared.DomainEvent) error {
	if r.events == nil || len(events) == 0 {
		return nil
	}
	return r.events.SaveEvents(ctx, r.tx, events...)
}

var _ apptrade.TransactionScope = (*GormTransactionScope)(nil)
var _ apptrade.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
