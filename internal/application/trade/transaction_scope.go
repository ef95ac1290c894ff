package trade

import (
	"context"

	"github.com/b2bshop/backend/internal/domain/catalog"
	"github.com/b2bshop/backend/internal/domain/partner"
	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/domain/trade"
)

// TransactionScope runs order writes as one unit of work.
// If fn returns an error, every write made through repos is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories that share the current transaction.
//
// Placement touches four aggregates (Order, Product stock, Customer stats, Cart)
// plus the event outbox; all of them must commit together.
type TransactionalRepositories interface {
	OrderRepo() trade.OrderRepository
	ProductRepo() catalog.ProductRepository
	CustomerRepo() partner.CustomerRepository
	CartRepo() trade.CartRepository
	// SaveEvents writes domain events to the outbox inside the transaction
	SaveEvents(ctx context.Context, events ...shared.DomainEvent) error
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// Events are handed to the publisher immediately when one is set.
type NoOpTransactionScope struct {
	orderRepo    trade.OrderRepository
	productRepo  catalog.ProductRepository
	customerRepo partner.CustomerRepository
	cartRepo     trade.CartRepository
	publisher    shared.EventPublisher
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	orderRepo trade.OrderRepository,
	productRepo catalog.ProductRepository,
	customerRepo partner.CustomerRepository,
	cartRepo trade.CartRepository,
	publisher shared.EventPublisher,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		cartRepo:     cartRepo,
		publisher:    publisher,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) OrderRepo() trade.OrderRepository         { return s.orderRepo }
func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository   { return s.productRepo }
func (s *NoOpTransactionScope) CustomerRepo() partner.CustomerRepository { return s.customerRepo }
func (s *NoOpTransactionScope) CartRepo() trade.CartRepository           { return s.cartRepo }

// SaveEvents publishes directly, or drops the events without a publisher
func (s *NoOpTransactionScope) SaveEvents(ctx context.Context, events ...shared.DomainEvent) error {
	if s.publisher == nil || len(events) == 0 {
		return nil
	}
	return s.publisher.Publish(ctx, events...)
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
