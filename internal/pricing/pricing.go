// Package pricing computes checkout totals in integer cents.
package pricing

import (
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// TaxRate is the flat sales tax applied to every order.
var TaxRate = decimal.RequireFromString("0.08725")

// ShippingCents is charged on every order. Shipping is currently free.
const ShippingCents int64 = 0

// Line is a single priced entry.
type Line struct {
	PriceCents int64
	Count      int
}

// Quote is the breakdown shown before payment and verified before commit.
type Quote struct {
	SubtotalCents int64 `json:"subtotal"`
	TaxCents      int64 `json:"tax"`
	ShippingCents int64 `json:"shipping"`
	TotalCents    int64 `json:"total"`
}

// Price computes the quote for lines. It has no side effects.
func Price(lines []Line) Quote {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.PriceCents * int64(l.Count)
	}
	tax := Tax(subtotal)
	return Quote{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		ShippingCents: ShippingCents,
		TotalCents:    subtotal + tax + ShippingCents,
	}
}

// Tax truncates subtotal × TaxRate toward zero.
func Tax(subtotal int64) int64 {
	return decimal.NewFromInt(subtotal).Mul(TaxRate).Floor().IntPart()
}

// FromCart prices cart lines at the products' current prices.
func FromCart(lines []domain.CartLine) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, Line{PriceCents: l.Product.PriceCents, Count: l.Count})
	}
	return out
}

// FromOrder prices order lines at their stored historical prices.
func FromOrder(lines []domain.OrderLine) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, Line{PriceCents: l.PriceCents, Count: l.Count})
	}
	return out
}
