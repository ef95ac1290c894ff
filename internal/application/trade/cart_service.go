package trade

import (
	"context"
	"errors"

	"github.com/b2bshop/backend/internal/domain/catalog"
	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/domain/trade"
	"github.com/google/uuid"
)

// CartLocker serializes cart mutations per customer.
// fn runs while the customer's lock is held; the lock is released when fn returns.
type CartLocker interface {
	WithLock(ctx context.Context, customerID uuid.UUID, fn func(ctx context.Context) error) error
}

// CartService handles cart operations for an authenticated customer
type CartService struct {
	cartRepo    trade.CartRepository
	productRepo catalog.ProductRepository
	locker      CartLocker
	pricing     trade.PricingPolicy
}

// NewCartService creates a new CartService
func NewCartService(
	cartRepo trade.CartRepository,
	productRepo catalog.ProductRepository,
	locker CartLocker,
	pricing trade.PricingPolicy,
) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		locker:      locker,
		pricing:     pricing,
	}
}

// Get returns the customer's cart, creating an empty one on first access.
// Lines are refreshed against the live catalog before returning.
func (s *CartService) Get(ctx context.Context, customerID uuid.UUID) (*CartResponse, error) {
	cart, err := s.loadOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, cart)
}

// Summary returns counts, savings and the checkout pricing of the current cart.
// Lines are refreshed and priced at the live catalog price, the same way
// placement prices them, so the preview matches what checkout charges.
func (s *CartService) Summary(ctx context.Context, customerID uuid.UUID) (*CartSummaryResponse, error) {
	cart, err := s.loadOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	live, err := liveCatalog(ctx, s.productRepo, cart)
	if err != nil {
		return nil, err
	}
	state := liveState(live)
	cart.Refresh(state)

	summary := cart.AtLivePrices(state).Summary()
	quote := s.pricing.Price(summary.Subtotal, summary.Discount)
	response := ToCartSummaryResponse(summary, quote, s.pricing)
	return &response, nil
}

// AddItem adds a product to the cart after validating it against the live catalog.
// A new line must satisfy every ordering rule; an existing line is checked for
// availability of the combined quantity and against its stored maximum.
func (s *CartService) AddItem(ctx context.Context, customerID uuid.UUID, req AddToCartRequest) (*CartResponse, error) {
	return s.mutate(ctx, customerID, func(ctx context.Context, cart *trade.Cart) error {
		product, err := s.findProduct(ctx, req.ProductID)
		if err != nil {
			return err
		}

		combined := cart.QuantityOf(product.ID) + req.Quantity
		if combined == req.Quantity {
			if err := product.CheckOrderable(req.Quantity); err != nil {
				return err
			}
		} else if !product.IsActive() || product.StockQuantity < combined {
			return product.CheckOrderable(combined)
		}

		return cart.AddItem(snapshotOf(product), req.Quantity)
	})
}

// UpdateItem sets the quantity of an existing line
func (s *CartService) UpdateItem(ctx context.Context, customerID, productID uuid.UUID, req UpdateCartItemRequest) (*CartResponse, error) {
	return s.mutate(ctx, customerID, func(_ context.Context, cart *trade.Cart) error {
		return cart.UpdateItemQuantity(productID, req.Quantity)
	})
}

// RemoveItem removes a line; removing a product that is not in the cart succeeds
func (s *CartService) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (*CartResponse, error) {
	return s.mutate(ctx, customerID, func(_ context.Context, cart *trade.Cart) error {
		cart.RemoveItem(productID)
		return nil
	})
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, customerID uuid.UUID) (*CartResponse, error) {
	return s.mutate(ctx, customerID, func(_ context.Context, cart *trade.Cart) error {
		cart.Clear()
		return nil
	})
}

// mutate runs a read-modify-write of the whole cart under the customer's lock
func (s *CartService) mutate(ctx context.Context, customerID uuid.UUID, fn func(ctx context.Context, cart *trade.Cart) error) (*CartResponse, error) {
	var cart *trade.Cart
	err := s.locker.WithLock(ctx, customerID, func(ctx context.Context) error {
		var err error
		cart, err = s.loadOrCreate(ctx, customerID)
		if err != nil {
			return err
		}
		if err := fn(ctx, cart); err != nil {
			return err
		}
		return s.cartRepo.Save(ctx, cart)
	})
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, cart)
}

func (s *CartService) loadOrCreate(ctx context.Context, customerID uuid.UUID) (*trade.Cart, error) {
	cart, err := s.cartRepo.FindByCustomer(ctx, customerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, trade.ErrCartNotFound) {
		return nil, err
	}

	cart = trade.NewCart(customerID)
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		// another request created it first
		if errors.Is(err, shared.ErrAlreadyExists) {
			return s.cartRepo.FindByCustomer(ctx, customerID)
		}
		return nil, err
	}
	return cart, nil
}

func (s *CartService) respond(ctx context.Context, cart *trade.Cart) (*CartResponse, error) {
	if err := s.refresh(ctx, cart); err != nil {
		return nil, err
	}
	response := ToCartResponse(cart)
	return &response, nil
}

// refresh recomputes stock flags and display maximums from the live catalog
func (s *CartService) refresh(ctx context.Context, cart *trade.Cart) error {
	live, err := liveCatalog(ctx, s.productRepo, cart)
	if err != nil {
		return err
	}
	cart.Refresh(liveState(live))
	return nil
}

// liveCatalog loads the products behind the cart's lines, keyed by id.
// Products that no longer exist are absent from the map.
func liveCatalog(ctx context.Context, repo catalog.ProductRepository, cart *trade.Cart) (map[uuid.UUID]*catalog.Product, error) {
	if cart.IsEmpty() {
		return map[uuid.UUID]*catalog.Product{}, nil
	}
	products, err := repo.FindByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID, nil
}

func liveState(products map[uuid.UUID]*catalog.Product) map[uuid.UUID]trade.LiveProduct {
	state := make(map[uuid.UUID]trade.LiveProduct, len(products))
	for id, p := range products {
		state[id] = trade.LiveProduct{
			Name:          p.Name,
			SKU:           p.SKU,
			Price:         p.Price,
			OriginalPrice: p.OriginalPrice,
			Active:        p.Active,
			StockQuantity: p.StockQuantity,
		}
	}
	return state
}

func (s *CartService) findProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, catalog.ProductNotFoundError(id.String())
		}
		return nil, err
	}
	return product, nil
}

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
