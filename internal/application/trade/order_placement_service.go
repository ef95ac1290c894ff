package trade

import (
	"context"
	"errors"
	"time"

	"github.com/b2bshop/backend/internal/domain/catalog"
	"github.com/b2bshop/backend/internal/domain/partner"
	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/domain/shared/valueobject"
	"github.com/b2bshop/backend/internal/domain/trade"
	"github.com/b2bshop/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// maxOrderNumberAttempts bounds retries when two placements draw the same order number
const maxOrderNumberAttempts = 3

var (
	ErrCustomerNotFound  = shared.NewDomainError("CUSTOMER_NOT_FOUND", "Customer account not found")
	ErrCustomerSuspended = shared.NewDomainError("CUSTOMER_SUSPENDED", "Account is suspended and cannot place orders")
)

// OrderPlacementService converts a customer's cart into an order
type OrderPlacementService struct {
	cartRepo     trade.CartRepository
	productRepo  catalog.ProductRepository
	customerRepo partner.CustomerRepository
	txScope      TransactionScope
	pricing      trade.PricingPolicy
	logger       *zap.Logger
	now          func() time.Time
}

// NewOrderPlacementService creates a new OrderPlacementService
func NewOrderPlacementService(
	cartRepo trade.CartRepository,
	productRepo catalog.ProductRepository,
	customerRepo partner.CustomerRepository,
	txScope TransactionScope,
	pricing trade.PricingPolicy,
	logger *zap.Logger,
) *OrderPlacementService {
	return &OrderPlacementService{
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		txScope:      txScope,
		pricing:      pricing,
		logger:       logger,
		now:          time.Now,
	}
}

// PlaceOrder validates the cart against the live catalog and, in one transaction,
// writes the order, decrements stock for every line, updates the customer's
// statistics, empties the cart and records the OrderPlaced event.
//
// Validation failures return before any write. Any failure inside the
// transaction rolls back every write, including stock already decremented.
func (s *OrderPlacementService) PlaceOrder(ctx context.Context, customerID uuid.UUID, req PlaceOrderRequest) (_ *OrderResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "order.place", attribute.String("customer_id", customerID.String()))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	address, err := valueobject.NewShippingAddress(
		req.ShippingAddress.Street,
		req.ShippingAddress.City,
		req.ShippingAddress.State,
		req.ShippingAddress.Pincode,
		req.ShippingAddress.Phone,
		req.ShippingAddress.Instructions,
	)
	if err != nil {
		return nil, shared.NewDomainError(trade.CodeInvalidAddress, err.Error())
	}
	method := trade.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		return nil, shared.NewDomainError(trade.CodeInvalidPayment, "Only cash on delivery is supported")
	}

	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	if !customer.IsActive() {
		return nil, ErrCustomerSuspended
	}

	cart, err := s.cartRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, trade.ErrCartNotFound) {
			return nil, trade.ErrEmptyCart
		}
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, trade.ErrEmptyCart
	}

	lines, err := s.validateLines(ctx, cart)
	if err != nil {
		return nil, err
	}

	var order *trade.Order
	for attempt := 1; ; attempt++ {
		order, err = s.commit(ctx, customerID, cart, lines, address, method, req.CustomerNotes)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrAlreadyExists) || attempt >= maxOrderNumberAttempts {
			s.logger.Warn("order placement failed",
				zap.String("customer_id", customerID.String()),
				zap.Int("lines", len(lines)),
				zap.Error(err),
			)
			return nil, err
		}
		s.logger.Info("order number taken, retrying placement",
			zap.String("customer_id", customerID.String()),
			zap.Int("attempt", attempt),
		)
	}

	span.SetAttributes(
		attribute.String("order_id", order.ID.String()),
		attribute.String("order_number", order.OrderNumber),
		attribute.Int("order_lines", len(lines)),
	)
	s.logger.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("customer_id", customerID.String()),
		zap.String("total", order.Total.StringFixed(2)),
	)

	response := ToOrderResponse(order)
	return &response, nil
}

// validateLines checks every cart line against the live product, failing on the
// first violation. Lines are priced at the live catalog price through the same
// view the checkout preview uses.
func (s *OrderPlacementService) validateLines(ctx context.Context, cart *trade.Cart) ([]trade.OrderLine, error) {
	live, err := liveCatalog(ctx, s.productRepo, cart)
	if err != nil {
		return nil, err
	}
	for _, item := range cart.Items {
		product, ok := live[item.ProductID]
		if !ok {
			return nil, catalog.ProductNotFoundError(item.ProductID.String()).
				WithDetails(map[string]any{"product_name": item.Name})
		}
		if err := product.CheckOrderable(item.Quantity); err != nil {
			return nil, err
		}
	}
	return cart.AtLivePrices(liveState(live)).OrderLines(), nil
}

func (s *OrderPlacementService) commit(
	ctx context.Context,
	customerID uuid.UUID,
	cart *trade.Cart,
	lines []trade.OrderLine,
	address valueobject.ShippingAddress,
	method trade.PaymentMethod,
	notes string,
) (*trade.Order, error) {
	var order *trade.Order
	// the cart is mutated inside the transaction; work on a copy so a retry starts clean
	working := *cart
	working.Items = append([]trade.CartItem(nil), cart.Items...)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		now := s.now()
		number, err := repos.OrderRepo().GenerateOrderNumber(ctx, now)
		if err != nil {
			return err
		}

		order, err = trade.NewOrder(trade.PlaceOrderParams{
			OrderNumber:     number,
			CustomerID:      customerID,
			Lines:           lines,
			CartDiscount:    working.Totals.Discount,
			ShippingAddress: address,
			PaymentMethod:   method,
			CustomerNotes:   notes,
			Pricing:         s.pricing,
		})
		if err != nil {
			return err
		}
		if err := repos.OrderRepo().Create(ctx, order); err != nil {
			return err
		}

		for _, item := range order.Items {
			if err := repos.ProductRepo().AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return catalog.ProductNotFoundError(item.ProductID.String())
				}
				return annotateStockError(err, item)
			}
		}

		if err := repos.CustomerRepo().IncrementOrderStats(ctx, customerID, order.Total, now); err != nil {
			return err
		}

		working.Clear()
		if err := repos.CartRepo().Save(ctx, &working); err != nil {
			return err
		}

		if err := repos.SaveEvents(ctx, order.GetDomainEvents()...); err != nil {
			return err
		}
		order.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	*cart = working
	return order, nil
}

// annotateStockError fills in the product name on a stock shortfall raised at decrement time
func annotateStockError(err error, item trade.OrderItem) error {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Code == catalog.CodeInsufficientStock {
		return de.WithDetails(map[string]any{
			"product_name": item.Name,
			"requested":    item.Quantity,
		})
	}
	return err
}
