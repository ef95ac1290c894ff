package trade

import (
	"errors"

	"github.com/shopspring/decimal"
)

var errNegativePricing = errors.New("pricing values cannot be negative")

// PricingPolicy holds the checkout charges applied on top of the item subtotal.
// Both the cart preview and order placement price through the same policy.
type PricingPolicy struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	TaxRate               decimal.Decimal
}

// DefaultPricingPolicy returns the standard wholesale charges:
// free shipping from 10000, otherwise a flat 500, and 18% tax on the subtotal.
func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		FreeShippingThreshold: decimal.NewFromInt(10000),
		FlatShippingFee:       decimal.NewFromInt(500),
		TaxRate:               decimal.RequireFromString("0.18"),
	}
}

// Quote is the priced breakdown of a set of lines
type Quote struct {
	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
	ShippingCost decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
}

// ShippingFor returns zero at or above the threshold, the flat fee below it
func (p PricingPolicy) ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return p.FlatShippingFee
}

// TaxFor applies the flat tax rate to the subtotal, rounded to two places
func (p PricingPolicy) TaxFor(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(p.TaxRate).Round(2)
}

// Price computes total = subtotal - discount + shipping + tax
func (p PricingPolicy) Price(subtotal, discount decimal.Decimal) Quote {
	shipping := p.ShippingFor(subtotal)
	tax := p.TaxFor(subtotal)
	return Quote{
		Subtotal:     subtotal,
		Discount:     discount,
		ShippingCost: shipping,
		Tax:          tax,
		Total:        subtotal.Sub(discount).Add(shipping).Add(tax),
	}
}

// Validate rejects negative charges
func (p PricingPolicy) Validate() error {
	if p.FreeShippingThreshold.IsNegative() || p.FlatShippingFee.IsNegative() || p.TaxRate.IsNegative() {
		return errNegativePricing
	}
	return nil
}
