package partner

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerStatus represents the status of a customer account
type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "active"
	CustomerStatusSuspended CustomerStatus = "suspended"
)

var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

// OrderStats are the running purchase totals kept on the customer ledger
type OrderStats struct {
	TotalOrders   int
	TotalSpent    decimal.Decimal
	LastOrderDate *time.Time
}

// Customer is a wholesale buyer. Its ID is the authenticated user id.
type Customer struct {
	shared.BaseAggregateRoot
	BusinessName string
	ContactName  string
	Email        string
	Phone        string
	GSTIN        string
	Status       CustomerStatus
	Stats        OrderStats
}

// NewCustomer registers a buyer under an existing user id
func NewCustomer(id uuid.UUID, businessName, email string) (*Customer, error) {
	if id == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	businessName = strings.TrimSpace(businessName)
	if businessName == "" || utf8.RuneCountInString(businessName) > 200 {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Business name must be 1-200 characters")
	}

	root := shared.NewBaseAggregateRoot()
	root.ID = id
	return &Customer{
		BaseAggregateRoot: root,
		BusinessName:      businessName,
		Email:             strings.ToLower(strings.TrimSpace(email)),
		Status:            CustomerStatusActive,
		Stats:             OrderStats{TotalSpent: decimal.Zero},
	}, nil
}

// SetGSTIN records the buyer's tax registration number; empty clears it
func (c *Customer) SetGSTIN(gstin string) error {
	gstin = strings.ToUpper(strings.TrimSpace(gstin))
	if gstin != "" && !gstinPattern.MatchString(gstin) {
		return shared.NewDomainError("INVALID_GSTIN", "GSTIN format is invalid")
	}
	c.GSTIN = gstin
	c.Touch()
	return nil
}

// Suspend blocks the account from ordering
func (c *Customer) Suspend() {
	c.Status = CustomerStatusSuspended
	c.Touch()
}

func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}

// RecordOrder adds a placed order to the running totals
func (c *Customer) RecordOrder(total decimal.Decimal, at time.Time) {
	c.Stats.TotalOrders++
	c.Stats.TotalSpent = c.Stats.TotalSpent.Add(total)
	c.Stats.LastOrderDate = &at
	c.Touch()
}

// RevertOrder is the inverse of RecordOrder, applied on cancellation.
// Totals never drop below zero.
func (c *Customer) RevertOrder(total decimal.Decimal) {
	c.Stats.TotalOrders = max(c.Stats.TotalOrders-1, 0)
	c.Stats.TotalSpent = decimal.Max(c.Stats.TotalSpent.Sub(total), decimal.Zero)
	c.Touch()
}
