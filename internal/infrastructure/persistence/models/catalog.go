package models

import (
	"github.com/b2bshop/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate.
// stock_quantity carries a CHECK (stock_quantity >= 0) in the SQL migrations.
type ProductModel struct {
	AggregateModel
	SKU              string           `gorm:"column:sku;type:varchar(64);not null;uniqueIndex"`
	Name             string           `gorm:"type:varchar(200);not null"`
	Category         string           `gorm:"type:varchar(100);index"`
	Price            decimal.Decimal  `gorm:"type:decimal(14,2);not null"`
	OriginalPrice    *decimal.Decimal `gorm:"type:decimal(14,2)"`
	StockQuantity    int              `gorm:"not null;default:0"`
	MinOrderQuantity int              `gorm:"not null;default:1"`
	MaxOrderQuantity int              `gorm:"not null;default:1000"`
	Active           bool             `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		SKU:               m.SKU,
		Name:              m.Name,
		Category:          m.Category,
		Price:             m.Price,
		OriginalPrice:     m.OriginalPrice,
		StockQuantity:     m.StockQuantity,
		MinOrderQuantity:  m.MinOrderQuantity,
		MaxOrderQuantity:  m.MaxOrderQuantity,
		Active:            m.Active,
	}
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.SKU = p.SKU
	m.Name = p.Name
	m.Category = p.Category
	m.Price = p.Price
	m.OriginalPrice = p.OriginalPrice
	m.StockQuantity = p.StockQuantity
	m.MinOrderQuantity = p.MinOrderQuantity
	m.MaxOrderQuantity = p.MaxOrderQuantity
	m.Active = p.Active
}

// ProductModelFromDomain creates a new persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
