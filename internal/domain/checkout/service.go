// Package checkout validates checkout submissions and records the last order.
package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/storage"
)

// Sentinel errors for checkout validation.
var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrMissingFields = errors.New("required customer fields missing")
	ErrInvalidAmount = errors.New("payment amount must be a positive number")
)

// Confirmation prompts shown when the payment differs from the total.
const (
	PromptUnderpay = "You are paying less than the total amount. Continue?"
	PromptOverpay  = "You are paying more than the total amount. Continue?"
)

// DefaultDateLayout renders order dates as month/day/year.
const DefaultDateLayout = "1/2/2006"

// ConfirmationError is returned when the shopper declines a prompt. Nothing
// has been persisted when it is returned.
type ConfirmationError struct {
	Prompt string
}

func (e *ConfirmationError) Error() string {
	return "confirmation declined: " + e.Prompt
}

// Confirmer asks the shopper a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Form is a checkout submission.
type Form struct {
	Customer Customer
	// Amount is the payment amount as entered.
	Amount string
}

// Service handles checkout for one client.
type Service struct {
	kv         storage.Store
	carts      *cart.Store
	dateLayout string
	now        func() time.Time
}

// NewService creates a checkout Service. An empty dateLayout uses
// DefaultDateLayout.
func NewService(kv storage.Store, carts *cart.Store, dateLayout string) *Service {
	if dateLayout == "" {
		dateLayout = DefaultDateLayout
	}
	return &Service{
		kv:         kv,
		carts:      carts,
		dateLayout: dateLayout,
		now:        time.Now,
	}
}

// Submit validates the form against the current cart, asks for confirmation
// when the payment does not match the total, and stores the order as the
// last order. Either the order is stored and returned, or nothing is written.
func (s *Service) Submit(ctx context.Context, form Form, confirm Confirmer) (*Order, error) {
	c, err := s.carts.Get(ctx)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	totals := c.Totals()

	customer := form.Customer.trimmed()
	if !customer.complete() {
		return nil, ErrMissingFields
	}

	amount, err := pricing.ParseAmount(form.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	// Compare at display precision; the prefilled amount is the rounded total.
	due := totals.Total.Round(2)
	var prompt string
	switch {
	case amount.LessThan(due):
		prompt = PromptUnderpay
	case amount.GreaterThan(due):
		prompt = PromptOverpay
	}
	if prompt != "" {
		if confirm == nil {
			return nil, &ConfirmationError{Prompt: prompt}
		}
		ok, err := confirm.Confirm(ctx, prompt)
		if err != nil {
			return nil, errors.Wrap(err, "confirm payment amount")
		}
		if !ok {
			return nil, &ConfirmationError{Prompt: prompt}
		}
	}

	o := &Order{
		Cart:     c,
		Totals:   totals,
		Customer: customer,
		Date:     s.now().Format(s.dateLayout),
	}
	if err := storage.SetJSON(ctx, s.kv, storage.KeyLastOrder, o); err != nil {
		return nil, errors.Wrap(err, "save last order")
	}
	return o, nil
}

// LastOrder returns the stored last order. A missing or malformed order
// reports ok=false.
func (s *Service) LastOrder(ctx context.Context) (o *Order, ok bool, err error) {
	var stored Order
	ok, err = storage.GetJSON(ctx, s.kv, storage.KeyLastOrder, &stored)
	if err != nil {
		return nil, false, errors.Wrap(err, "load last order")
	}
	if !ok {
		return nil, false, nil
	}
	return &stored, true, nil
}
