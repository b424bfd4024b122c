// Package pricing computes order totals for a set of cart lines.
//
// All arithmetic is exact. Values are rounded to cents only when formatted
// for display, so totals never accumulate rounding error.
package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	// DiscountRate is the storewide discount applied to every subtotal.
	DiscountRate = decimal.RequireFromString("0.10")
	// TaxRate is applied to the discounted subtotal.
	TaxRate = decimal.RequireFromString("0.15")
	// Shipping is the flat shipping charge per order.
	Shipping = decimal.RequireFromString("12.00")
)

// Item is a priced line for calculation purposes.
type Item struct {
	Price    decimal.Decimal
	Quantity int
}

// Totals is the full price breakdown for an order.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// DiscountedSubtotal returns the subtotal after the discount.
func (t Totals) DiscountedSubtotal() decimal.Decimal {
	return t.Subtotal.Sub(t.Discount)
}

// LineTotals is the per-line breakdown shown on the cart page. It carries no
// shipping.
type LineTotals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Calculate returns the totals for the given items. Shipping is always
// charged; callers that display an empty cart show zero instead.
func Calculate(items []Item) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(lineSubtotal(item))
	}

	discount := subtotal.Mul(DiscountRate)
	discounted := subtotal.Sub(discount)
	tax := discounted.Mul(TaxRate)

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Shipping: Shipping,
		Total:    discounted.Add(tax).Add(Shipping),
	}
}

// Line returns the breakdown for a single line using the same rates as Calculate.
func Line(item Item) LineTotals {
	subtotal := lineSubtotal(item)
	discount := subtotal.Mul(DiscountRate)
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(TaxRate)

	return LineTotals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Total:    taxable.Add(tax),
	}
}

func lineSubtotal(item Item) decimal.Decimal {
	return item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}
