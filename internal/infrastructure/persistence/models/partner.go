package models

import (
	"time"

	"github.com/b2bshop/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer aggregate.
// Order statistics live on the same row so they update in the placement transaction.
type CustomerModel struct {
	AggregateModel
	BusinessName  string                 `gorm:"type:varchar(200);not null"`
	ContactName   string                 `gorm:"type:varchar(100)"`
	Email         string                 `gorm:"type:varchar(200);index"`
	Phone         string                 `gorm:"type:varchar(20)"`
	GSTIN         string                 `gorm:"column:gstin;type:varchar(15)"`
	Status        partner.CustomerStatus `gorm:"type:varchar(20);not null;default:'active'"`
	TotalOrders   int                    `gorm:"not null;default:0"`
	TotalSpent    decimal.Decimal        `gorm:"type:decimal(16,2);not null;default:0"`
	LastOrderDate *time.Time
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		BusinessName:      m.BusinessName,
		ContactName:       m.ContactName,
		Email:             m.Email,
		Phone:             m.Phone,
		GSTIN:             m.GSTIN,
		Status:            m.Status,
		Stats: partner.OrderStats{
			TotalOrders:   m.TotalOrders,
			TotalSpent:    m.TotalSpent,
			LastOrderDate: m.LastOrderDate,
		},
	}
}

// FromDomain populates the persistence model from a domain Customer
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.BusinessName = c.BusinessName
	m.ContactName = c.ContactName
	m.Email = c.Email
	m.Phone = c.Phone
	m.GSTIN = c.GSTIN
	m.Status = c.Status
	m.TotalOrders = c.Stats.TotalOrders
	m.TotalSpent = c.Stats.TotalSpent
	m.LastOrderDate = c.Stats.LastOrderDate
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
