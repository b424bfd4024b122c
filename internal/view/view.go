// Package view builds the view models for the cart, checkout summary and
// invoice pages from stored state.
package view

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/storage"
)

// Placeholder texts for empty views.
const (
	EmptyCartText     = "Your cart is currently empty."
	EmptySummaryText  = "Your cart is empty."
	NoRecentOrderText = "No recent order was found."
)

// Breakdown row labels on the checkout summary.
const (
	LabelSubtotal = "Items Subtotal"
	LabelDiscount = "Discount (10%)"
	LabelTax      = "Tax (15%)"
	LabelShipping = "Shipping"
)

var zeroMoney = pricing.Money(decimal.Zero)

// CartSource loads the current cart.
type CartSource interface {
	Get(ctx context.Context) (cart.Cart, error)
}

// OrderSource loads the last committed order.
type OrderSource interface {
	LastOrder(ctx context.Context) (*checkout.Order, bool, error)
}

// Renderer builds views for one client.
type Renderer struct {
	kv     storage.Store
	carts  CartSource
	orders OrderSource
}

// NewRenderer creates a Renderer. kv receives the cached order total.
func NewRenderer(kv storage.Store, carts CartSource, orders OrderSource) *Renderer {
	return &Renderer{
		kv:     kv,
		carts:  carts,
		orders: orders,
	}
}

// CartRow is one line of the cart table.
type CartRow struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Qty      int    `json:"qty"`
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

// CartPage is the cart table. Placeholder is set only for an empty cart.
type CartPage struct {
	Rows        []CartRow `json:"rows"`
	Placeholder string    `json:"placeholder,omitempty"`
	Total       string    `json:"total"`
}

// Cart renders the stored cart.
func (r *Renderer) Cart(ctx context.Context) (*CartPage, error) {
	c, err := r.carts.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	return RenderCart(c), nil
}

// RenderCart builds the cart table. Each row carries its own discount and
// tax; the grand total is the sum of line totals and excludes shipping.
func RenderCart(c cart.Cart) *CartPage {
	if c.IsEmpty() {
		return &CartPage{
			Rows:        []CartRow{},
			Placeholder: EmptyCartText,
			Total:       zeroMoney,
		}
	}

	page := &CartPage{Rows: make([]CartRow, 0, len(c))}
	grand := decimal.Zero
	for _, item := range c {
		line := pricing.Line(pricing.Item{Price: item.Price, Quantity: item.Qty})
		grand = grand.Add(line.Total)

		page.Rows = append(page.Rows, CartRow{
			Name:     item.Name,
			Price:    pricing.Money(item.Price),
			Qty:      item.Qty,
			Subtotal: pricing.Money(line.Subtotal),
			Discount: pricing.Money(line.Discount),
			Tax:      pricing.Money(line.Tax),
			Total:    pricing.Money(line.Total),
		})
	}
	page.Total = pricing.Money(grand)
	return page
}

// SummaryLine is a label/amount pair on the checkout summary.
type SummaryLine struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

// CheckoutSummary is the order summary panel on the checkout page.
type CheckoutSummary struct {
	Items       []SummaryLine `json:"items"`
	Breakdown   []SummaryLine `json:"breakdown"`
	Placeholder string        `json:"placeholder,omitempty"`
	Total       string        `json:"total"`
	// Amount is the value for the payment amount field.
	Amount string `json:"amount"`
}

// CheckoutSummary renders the summary for the stored cart. enteredAmount is
// the current payment field value; it is kept when non-empty and otherwise
// prefilled with the total. The rounded total is cached under order_total.
func (r *Renderer) CheckoutSummary(ctx context.Context, enteredAmount string) (*CheckoutSummary, error) {
	c, err := r.carts.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}

	if c.IsEmpty() {
		return &CheckoutSummary{
			Items:       []SummaryLine{},
			Breakdown:   []SummaryLine{},
			Placeholder: EmptySummaryText,
			Total:       zeroMoney,
		}, nil
	}

	totals := c.Totals()
	summary := &CheckoutSummary{
		Items: make([]SummaryLine, 0, len(c)),
		Breakdown: []SummaryLine{
			{Label: LabelSubtotal, Amount: pricing.Money(totals.Subtotal)},
			{Label: LabelDiscount, Amount: pricing.Deduction(totals.Discount)},
			{Label: LabelTax, Amount: pricing.Money(totals.Tax)},
			{Label: LabelShipping, Amount: pricing.Money(totals.Shipping)},
		},
		Total:  pricing.Money(totals.Total),
		Amount: enteredAmount,
	}
	for _, item := range c {
		line := pricing.Line(pricing.Item{Price: item.Price, Quantity: item.Qty})
		summary.Items = append(summary.Items, SummaryLine{
			Label:  fmt.Sprintf("%s (x%d)", item.Name, item.Qty),
			Amount: pricing.Money(line.Subtotal),
		})
	}

	total := pricing.Cents(totals.Total)
	if summary.Amount == "" {
		summary.Amount = total
	}
	if err := storage.SetJSON(ctx, r.kv, storage.KeyOrderTotal, total); err != nil {
		return nil, errors.Wrap(err, "cache order total")
	}
	return summary, nil
}

// InvoiceRow is one line of the invoice table.
type InvoiceRow struct {
	Name     string `json:"name"`
	Qty      int    `json:"qty"`
	Price    string `json:"price"`
	Subtotal string `json:"subtotal"`
}

// Billing is the billed-to block of the invoice.
type Billing struct {
	Name     string `json:"name"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	Email    string `json:"email"`
}

// Invoice is the invoice page for the last order.
type Invoice struct {
	Rows        []InvoiceRow `json:"rows"`
	Placeholder string       `json:"placeholder,omitempty"`
	Subtotal    string       `json:"subtotal"`
	Discount    string       `json:"discount"`
	Tax         string       `json:"tax"`
	Shipping    string       `json:"shipping"`
	Total       string       `json:"total"`
	Billing     *Billing     `json:"billing,omitempty"`
	Date        string       `json:"date,omitempty"`
}

// Invoice renders the last order using its stored totals.
func (r *Renderer) Invoice(ctx context.Context) (*Invoice, error) {
	o, ok, err := r.orders.LastOrder(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get last order")
	}
	if !ok {
		o = nil
	}
	return RenderInvoice(o), nil
}

// RenderInvoice builds the invoice view. A nil or empty order renders the
// placeholder with zeroed totals.
func RenderInvoice(o *checkout.Order) *Invoice {
	if o.IsEmpty() {
		return &Invoice{
			Rows:        []InvoiceRow{},
			Placeholder: NoRecentOrderText,
			Subtotal:    zeroMoney,
			Discount:    pricing.Deduction(decimal.Zero),
			Tax:         zeroMoney,
			Shipping:    zeroMoney,
			Total:       zeroMoney,
		}
	}

	inv := &Invoice{
		Rows:     make([]InvoiceRow, 0, len(o.Cart)),
		Subtotal: pricing.Money(o.Totals.Subtotal),
		Discount: pricing.Deduction(o.Totals.Discount),
		Tax:      pricing.Money(o.Totals.Tax),
		Shipping: pricing.Money(o.Totals.Shipping),
		Total:    pricing.Money(o.Totals.Total),
		Billing: &Billing{
			Name:     o.Customer.Name,
			Address1: o.Customer.Address,
			Address2: o.Customer.City + ", " + o.Customer.Parish,
			Email:    o.Customer.Email,
		},
		Date: o.Date,
	}
	for _, item := range o.Cart {
		line := pricing.Line(pricing.Item{Price: item.Price, Quantity: item.Qty})
		inv.Rows = append(inv.Rows, InvoiceRow{
			Name:     item.Name,
			Qty:      item.Qty,
			Price:    pricing.Money(item.Price),
			Subtotal: pricing.Money(line.Subtotal),
		})
	}
	return inv
}
