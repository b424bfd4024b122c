package httpapi

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/view"
)

// Checkout notices.
const (
	NoticeEmptyCart      = "Your cart is empty. Please add items before checking out."
	NoticeMissingFields  = "Please fill in all required fields."
	NoticeInvalidAmount  = "Please enter a valid payment amount."
	NoticeOrderCompleted = "Order completed successfully."
)

func (s *Server) getCheckout(w http.ResponseWriter, r *http.Request) {
	summary, err := s.services(r).views.CheckoutSummary(r.Context(), r.URL.Query().Get("amount"))
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func decodeCheckout(r *http.Request) (form checkout.Form, confirm bool, err error) {
	err = readObject(r, func(d *jx.Decoder, key string) error {
		var (
			field *string
			err   error
		)
		switch key {
		case "name":
			field = &form.Customer.Name
		case "email":
			field = &form.Customer.Email
		case "phone":
			field = &form.Customer.Phone
		case "address":
			field = &form.Customer.Address
		case "city":
			field = &form.Customer.City
		case "parish":
			field = &form.Customer.Parish
		case "amount":
			field = &form.Amount
		case "confirm":
			confirm, err = flag(d)
			return err
		default:
			return d.Skip()
		}
		*field, err = text(d)
		return err
	})
	return form, confirm, err
}

type checkoutResponse struct {
	message
	Invoice *view.Invoice `json:"invoice"`
}

// accepted answers every prompt with yes. It is used when the client
// resubmits with confirm set.
var accepted = checkout.ConfirmFunc(func(context.Context, string) (bool, error) {
	return true, nil
})

func (s *Server) submitCheckout(w http.ResponseWriter, r *http.Request) {
	form, confirm, err := decodeCheckout(r)
	if err != nil {
		badRequest(w, r, err)
		return
	}

	ctx, span := s.tracer.Start(r.Context(), "checkout.Submit")
	defer span.End()

	var confirmer checkout.Confirmer
	if confirm {
		confirmer = accepted
	}
	o, err := s.services(r).checkout.Submit(ctx, form, confirmer)

	var confirmErr *checkout.ConfirmationError
	switch {
	case err == nil:
	case errors.Is(err, checkout.ErrEmptyCart):
		writeNotice(w, http.StatusUnprocessableEntity, NoticeEmptyCart)
		return
	case errors.Is(err, checkout.ErrMissingFields):
		writeNotice(w, http.StatusUnprocessableEntity, NoticeMissingFields)
		return
	case errors.Is(err, checkout.ErrInvalidAmount):
		writeNotice(w, http.StatusUnprocessableEntity, NoticeInvalidAmount)
		return
	case errors.As(err, &confirmErr):
		span.AddEvent("confirmation requested")
		writeConfirm(w, confirmErr.Prompt)
		return
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit checkout")
		internalError(w, r, err)
		return
	}

	total := pricing.Cents(o.Totals.Total)
	span.SetAttributes(
		attribute.Int("storefront.order.lines", len(o.Cart)),
		attribute.String("storefront.order.total", total),
	)
	s.ordersPlaced.Add(ctx, 1)
	zctx.From(ctx).Info("Order placed",
		zap.String("total", total),
		zap.Int("lines", len(o.Cart)),
		zap.Bool("confirmed", confirm),
	)

	writeJSON(w, http.StatusOK, checkoutResponse{
		message: message{Message: NoticeOrderCompleted, Next: NextInvoice},
		Invoice: view.RenderInvoice(o),
	})
}

func (s *Server) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := s.services(r).views.Invoice(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
