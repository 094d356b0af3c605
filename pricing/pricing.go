// Package pricing derives order totals from cart contents.
//
// All arithmetic is exact; values are rounded to cents only by Display.
package pricing

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/Abh1nav004/Really/cartstore"
)

var (
	// DefaultShipping is the flat shipping fee.
	DefaultShipping = decimal.RequireFromString("9.99")
	// DefaultTaxRate is applied to the subtotal.
	DefaultTaxRate = decimal.RequireFromString("0.10")
)

// Totals are computed on demand from a cart and never stored.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// DisplayTotals holds the totals rounded to two places.
type DisplayTotals struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

// Display rounds each value to cents.
func (t Totals) Display() DisplayTotals {
	return DisplayTotals{
		Subtotal: t.Subtotal.StringFixed(2),
		Shipping: t.Shipping.StringFixed(2),
		Tax:      t.Tax.StringFixed(2),
		Total:    t.Total.StringFixed(2),
	}
}

// Pricer holds the flat shipping fee and the tax rate.
type Pricer struct {
	shipping decimal.Decimal
	taxRate  decimal.Decimal
}

// NewPricer validates and returns a Pricer.
func NewPricer(shipping, taxRate decimal.Decimal) (*Pricer, error) {
	if shipping.IsNegative() {
		return nil, errors.Wrapf(cartstore.ErrInvalidInput, "shipping must not be negative (got %s)", shipping)
	}
	if taxRate.IsNegative() {
		return nil, errors.Wrapf(cartstore.ErrInvalidInput, "tax rate must not be negative (got %s)", taxRate)
	}
	return &Pricer{shipping: shipping, taxRate: taxRate}, nil
}

// DefaultPricer uses a 9.99 flat fee and 10% tax.
func DefaultPricer() *Pricer {
	return &Pricer{shipping: DefaultShipping, taxRate: DefaultTaxRate}
}

// Shipping returns the flat shipping fee.
func (p *Pricer) Shipping() decimal.Decimal { return p.shipping }

// TaxRate returns the tax rate.
func (p *Pricer) TaxRate() decimal.Decimal { return p.taxRate }

// ComputeTotals prices items. An empty cart totals to the shipping fee.
func (p *Pricer) ComputeTotals(items []cartstore.LineItem) Totals {
	subtotal := Subtotal(items)
	tax := subtotal.Mul(p.taxRate)
	return Totals{
		Subtotal: subtotal,
		Shipping: p.shipping,
		Tax:      tax,
		Total:    subtotal.Add(p.shipping).Add(tax),
	}
}

// Subtotal is the sum of price times quantity over items.
func Subtotal(items []cartstore.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(LineTotal(item))
	}
	return sum
}

// LineTotal is price times quantity for one entry.
func LineTotal(item cartstore.LineItem) decimal.Decimal {
	return item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}
