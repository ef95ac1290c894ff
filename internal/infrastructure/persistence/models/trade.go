package models

import (
	"time"

	"github.com/b2bshop/backend/internal/domain/shared/valueobject"
	"github.com/b2bshop/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartModel is the persistence model for the Cart aggregate. One row per customer.
type CartModel struct {
	AggregateModel
	CustomerID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Items        []CartItemModel `gorm:"foreignKey:CartID;references:ID;constraint:OnDelete:CASCADE"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Discount     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	ShippingCost decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Total        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	ExpiresAt    time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (CartModel) TableName() string {
	return "carts"
}

// CartItemModel is one product line of a cart
type CartItemModel struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey"`
	CartID           uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_cart_item_product,priority:1"`
	ProductID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_cart_item_product,priority:2"`
	Position         int              `gorm:"not null;default:0"`
	Name             string           `gorm:"type:varchar(200);not null"`
	SKU              string           `gorm:"column:sku;type:varchar(64);not null"`
	Quantity         int              `gorm:"not null"`
	UnitPrice        decimal.Decimal  `gorm:"type:decimal(14,2);not null"`
	OriginalPrice    *decimal.Decimal `gorm:"type:decimal(14,2)"`
	MinOrderQuantity int              `gorm:"not null"`
	MaxOrderQuantity int              `gorm:"not null"`
	InStock          bool             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartItemModel) TableName() string {
	return "cart_items"
}

// ToDomain converts the persistence model to a domain Cart
func (m *CartModel) ToDomain() *trade.Cart {
	cart := &trade.Cart{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CustomerID:        m.CustomerID,
		Items:             make([]trade.CartItem, len(m.Items)),
		Totals: trade.CartTotals{
			Subtotal:     m.Subtotal,
			Discount:     m.Discount,
			ShippingCost: m.ShippingCost,
			Total:        m.Total,
		},
		ExpiresAt: m.ExpiresAt,
	}
	for i, item := range m.Items {
		cart.Items[i] = trade.CartItem{
			ProductID:        item.ProductID,
			Name:             item.Name,
			SKU:              item.SKU,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			OriginalPrice:    item.OriginalPrice,
			MinOrderQuantity: item.MinOrderQuantity,
			MaxOrderQuantity: item.MaxOrderQuantity,
			InStock:          item.InStock,
		}
	}
	return cart
}

// FromDomain populates the persistence model from a domain Cart.
// Item rows get fresh ids; the repository replaces all lines on every save.
func (m *CartModel) FromDomain(c *trade.Cart) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.CustomerID = c.CustomerID
	m.Subtotal = c.Totals.Subtotal
	m.Discount = c.Totals.Discount
	m.ShippingCost = c.Totals.ShippingCost
	m.Total = c.Totals.Total
	m.ExpiresAt = c.ExpiresAt
	m.Items = make([]CartItemModel, len(c.Items))
	for i, item := range c.Items {
		m.Items[i] = CartItemModel{
			ID:               uuid.New(),
			CartID:           c.ID,
			ProductID:        item.ProductID,
			Position:         i,
			Name:             item.Name,
			SKU:              item.SKU,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			OriginalPrice:    item.OriginalPrice,
			MinOrderQuantity: item.MinOrderQuantity,
			MaxOrderQuantity: item.MaxOrderQuantity,
			InStock:          item.InStock,
		}
	}
}

// CartModelFromDomain creates a new persistence model from a domain Cart
func CartModelFromDomain(c *trade.Cart) *CartModel {
	m := &CartModel{}
	m.FromDomain(c)
	return m
}

// OrderModel is the persistence model for the Order aggregate
type OrderModel struct {
	AggregateModel
	OrderNumber       string                    `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID        uuid.UUID                 `gorm:"type:uuid;not null;index:idx_orders_customer_date,priority:1"`
	Items             []OrderItemModel          `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	History           []OrderStatusHistoryModel `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	Subtotal          decimal.Decimal           `gorm:"type:decimal(14,2);not null"`
	Discount          decimal.Decimal           `gorm:"type:decimal(14,2);not null;default:0"`
	ShippingCost      decimal.Decimal           `gorm:"type:decimal(14,2);not null;default:0"`
	Tax               decimal.Decimal           `gorm:"type:decimal(14,2);not null;default:0"`
	Total             decimal.Decimal           `gorm:"type:decimal(14,2);not null"`
	ShipStreet        string                    `gorm:"type:varchar(300);not null"`
	ShipCity          string                    `gorm:"type:varchar(100);not null"`
	ShipState         string                    `gorm:"type:varchar(100);not null"`
	ShipPincode       string                    `gorm:"type:varchar(6);not null"`
	ShipPhone         string                    `gorm:"type:varchar(20);not null"`
	ShipInstructions  string                    `gorm:"type:varchar(500)"`
	Status            trade.OrderStatus         `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentStatus     trade.PaymentStatus       `gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentMethod     trade.PaymentMethod       `gorm:"type:varchar(20);not null;default:'cod'"`
	TrackingNumber    string                    `gorm:"type:varchar(100)"`
	Carrier           string                    `gorm:"type:varchar(100)"`
	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time
	CustomerNotes     string    `gorm:"type:varchar(1000)"`
	AdminNotes        string    `gorm:"type:text"`
	OrderDate         time.Time `gorm:"not null;index:idx_orders_customer_date,priority:2"`
	StatusUpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is an immutable line of an order
type OrderItemModel struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	Name          string           `gorm:"type:varchar(200);not null"`
	SKU           string           `gorm:"column:sku;type:varchar(64);not null"`
	Quantity      int              `gorm:"not null"`
	UnitPrice     decimal.Decimal  `gorm:"type:decimal(14,2);not null"`
	TotalPrice    decimal.Decimal  `gorm:"type:decimal(14,2);not null"`
	OriginalPrice *decimal.Decimal `gorm:"type:decimal(14,2)"`
	Discount      decimal.Decimal  `gorm:"type:decimal(14,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// OrderStatusHistoryModel is one append-only status history row
type OrderStatusHistoryModel struct {
	ID       uuid.UUID         `gorm:"type:uuid;primaryKey"`
	OrderID  uuid.UUID         `gorm:"type:uuid;not null;index:idx_order_history_seq,priority:1"`
	Sequence int               `gorm:"not null;index:idx_order_history_seq,priority:2"`
	Status   trade.OrderStatus `gorm:"type:varchar(20);not null"`
	Note     string            `gorm:"type:varchar(500)"`
	At       time.Time         `gorm:"column:changed_at;not null"`
}

// TableName returns the table name for GORM
func (OrderStatusHistoryModel) TableName() string {
	return "order_status_history"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *trade.Order {
	order := &trade.Order{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		CustomerID:        m.CustomerID,
		Items:             make([]trade.OrderItem, len(m.Items)),
		Subtotal:          m.Subtotal,
		Discount:          m.Discount,
		ShippingCost:      m.ShippingCost,
		Tax:               m.Tax,
		Total:             m.Total,
		ShippingAddress: valueobject.RestoreShippingAddress(
			m.ShipStreet, m.ShipCity, m.ShipState, m.ShipPincode, m.ShipPhone, m.ShipInstructions,
		),
		Status:            m.Status,
		PaymentStatus:     m.PaymentStatus,
		PaymentMethod:     m.PaymentMethod,
		TrackingNumber:    m.TrackingNumber,
		Carrier:           m.Carrier,
		EstimatedDelivery: m.EstimatedDelivery,
		ActualDelivery:    m.ActualDelivery,
		CustomerNotes:     m.CustomerNotes,
		AdminNotes:        m.AdminNotes,
		OrderDate:         m.OrderDate,
		StatusUpdatedAt:   m.StatusUpdatedAt,
		StatusHistory:     make([]trade.StatusChange, len(m.History)),
	}
	for i, item := range m.Items {
		order.Items[i] = trade.OrderItem{
			ID:            item.ID,
			OrderID:       item.OrderID,
			ProductID:     item.ProductID,
			Name:          item.Name,
			SKU:           item.SKU,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			TotalPrice:    item.TotalPrice,
			OriginalPrice: item.OriginalPrice,
			Discount:      item.Discount,
		}
	}
	for i, h := range m.History {
		order.StatusHistory[i] = trade.StatusChange{Status: h.Status, Note: h.Note, At: h.At}
	}
	return order
}

// FromDomain populates the persistence model from a domain Order, items and history included
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.CustomerID = o.CustomerID
	m.Subtotal = o.Subtotal
	m.Discount = o.Discount
	m.ShippingCost = o.ShippingCost
	m.Tax = o.Tax
	m.Total = o.Total
	m.ShipStreet = o.ShippingAddress.Street()
	m.ShipCity = o.ShippingAddress.City()
	m.ShipState = o.ShippingAddress.State()
	m.ShipPincode = o.ShippingAddress.Pincode()
	m.ShipPhone = o.ShippingAddress.Phone()
	m.ShipInstructions = o.ShippingAddress.Instructions()
	m.Status = o.Status
	m.PaymentStatus = o.PaymentStatus
	m.PaymentMethod = o.PaymentMethod
	m.TrackingNumber = o.TrackingNumber
	m.Carrier = o.Carrier
	m.EstimatedDelivery = o.EstimatedDelivery
	m.ActualDelivery = o.ActualDelivery
	m.CustomerNotes = o.CustomerNotes
	m.AdminNotes = o.AdminNotes
	m.OrderDate = o.OrderDate
	m.StatusUpdatedAt = o.StatusUpdatedAt

	m.Items = make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = OrderItemModel{
			ID:            item.ID,
			OrderID:       o.ID,
			ProductID:     item.ProductID,
			Name:          item.Name,
			SKU:           item.SKU,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			TotalPrice:    item.TotalPrice,
			OriginalPrice: item.OriginalPrice,
			Discount:      item.Discount,
		}
	}
	m.History = HistoryModelsFromDomain(o.ID, o.StatusHistory, 0)
}

// HistoryModelsFromDomain converts history entries starting at index from
func HistoryModelsFromDomain(orderID uuid.UUID, history []trade.StatusChange, from int) []OrderStatusHistoryModel {
	if from >= len(history) {
		return nil
	}
	rows := make([]OrderStatusHistoryModel, 0, len(history)-from)
	for i := from; i < len(history); i++ {
		rows = append(rows, OrderStatusHistoryModel{
			ID:       uuid.New(),
			OrderID:  orderID,
			Sequence: i,
			Status:   history[i].Status,
			Note:     history[i].Note,
			At:       history[i].At,
		})
	}
	return rows
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
