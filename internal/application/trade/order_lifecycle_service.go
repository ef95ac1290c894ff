package trade

import (
	"context"
	"errors"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/domain/trade"
	"github.com/b2bshop/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OrderLifecycleService handles order queries and status transitions
type OrderLifecycleService struct {
	orderRepo trade.OrderRepository
	txScope   TransactionScope
	logger    *zap.Logger
}

// NewOrderLifecycleService creates a new OrderLifecycleService
func NewOrderLifecycleService(orderRepo trade.OrderRepository, txScope TransactionScope, logger *zap.Logger) *OrderLifecycleService {
	return &OrderLifecycleService{
		orderRepo: orderRepo,
		txScope:   txScope,
		logger:    logger,
	}
}

// GetForCustomer retrieves an order owned by the customer
func (s *OrderLifecycleService) GetForCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForCustomer(ctx, customerID, orderID)
	if err != nil {
		return nil, orderLookupError(err)
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// GetByNumber retrieves a customer's order by its order number
func (s *OrderLifecycleService) GetByNumber(ctx context.Context, customerID uuid.UUID, orderNumber string) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, customerID, orderNumber)
	if err != nil {
		return nil, orderLookupError(err)
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// ListForCustomer lists the customer's own orders, newest first
func (s *OrderLifecycleService) ListForCustomer(ctx context.Context, customerID uuid.UUID, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	filter.CustomerID = nil
	orders, total, err := s.orderRepo.FindByCustomer(ctx, customerID, toDomainFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return ToOrderListItemResponses(orders), total, nil
}

// ListAll lists orders across customers for staff
func (s *OrderLifecycleService) ListAll(ctx context.Context, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	orders, total, err := s.orderRepo.FindAll(ctx, toDomainFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return ToOrderListItemResponses(orders), total, nil
}

// Cancel cancels a pending or confirmed order of the customer.
// The status change, stock restoration and statistics reversal commit together,
// so a cancelled order always has its stock returned exactly once.
// Products deleted since placement are skipped.
func (s *OrderLifecycleService) Cancel(ctx context.Context, customerID, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "order.cancel", attribute.String("order_id", orderID.String()))
	defer span.End()

	var order *trade.Order
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = repos.OrderRepo().FindByIDForCustomer(ctx, customerID, orderID)
		if err != nil {
			return orderLookupError(err)
		}

		if err := order.Cancel(req.Reason); err != nil {
			return err
		}

		for _, item := range order.Items {
			err := repos.ProductRepo().AdjustStock(ctx, item.ProductID, item.Quantity)
			if errors.Is(err, shared.ErrNotFound) {
				s.logger.Warn("product gone, stock not restored",
					zap.String("order_number", order.OrderNumber),
					zap.String("product_id", item.ProductID.String()),
					zap.Int("quantity", item.Quantity),
				)
				continue
			}
			if err != nil {
				return err
			}
		}

		err = repos.CustomerRepo().DecrementOrderStats(ctx, order.CustomerID, order.Total)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		if err := repos.OrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}
		if err := repos.SaveEvents(ctx, order.GetDomainEvents()...); err != nil {
			return err
		}
		order.ClearDomainEvents()
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("order cancelled",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("customer_id", customerID.String()),
	)
	response := ToOrderResponse(order)
	return &response, nil
}

// AdminUpdateStatus applies a staff status change with tracking bookkeeping.
// It has no stock side effects.
func (s *OrderLifecycleService) AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, req UpdateOrderStatusRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "order.update_status",
		attribute.String("order_id", orderID.String()),
		attribute.String("order_status", req.Status),
	)
	defer span.End()

	var order *trade.Order
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return orderLookupError(err)
		}

		if err := order.AdminUpdateStatus(trade.OrderStatus(req.Status), trade.TrackingUpdate{
			TrackingNumber:    req.TrackingNumber,
			Carrier:           req.Carrier,
			EstimatedDelivery: req.EstimatedDelivery,
			AdminNotes:        req.AdminNotes,
		}); err != nil {
			return err
		}

		if err := repos.OrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}
		if err := repos.SaveEvents(ctx, order.GetDomainEvents()...); err != nil {
			return err
		}
		order.ClearDomainEvents()
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("order status updated",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(order.Status)),
	)
	response := ToOrderResponse(order)
	return &response, nil
}

func orderLookupError(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return trade.ErrOrderNotFound
	}
	return err
}

func toDomainFilter(filter OrderListFilter) shared.Filter {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.CustomerID != nil {
		f.Filters["customer_id"] = *filter.CustomerID
	}
	return f
}
