// Package httpapi exposes the storefront views and forms over JSON/HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/storefront/internal/domain/account"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/storage"
	"github.com/xenking/storefront/internal/view"
)

const instrumentationName = "github.com/xenking/storefront/internal/httpapi"

// Navigation targets reported in the "next" field of form responses.
const (
	NextHome    = "home"
	NextLogin   = "login"
	NextInvoice = "invoice"
)

// CookieConfig controls the client identity cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Config holds non-dependency settings of the Server.
type Config struct {
	// DateLayout formats order dates. Empty uses checkout.DefaultDateLayout.
	DateLayout string
	// HashPasswords stores new passwords as bcrypt hashes with BcryptCost.
	HashPasswords bool
	BcryptCost    int
	Cookie        CookieConfig
}

// DefaultCookieName identifies the client namespace.
const DefaultCookieName = "storefront_client"

// Server serves the storefront API. Every request is bound to the storage
// namespace of the client identified by its cookie.
type Server struct {
	kv      storage.Store
	catalog *catalog.Catalog
	cfg     Config

	tracer       trace.Tracer
	ordersPlaced metric.Int64Counter
}

// NewServer creates a Server over the shared store.
func NewServer(
	kv storage.Store,
	c *catalog.Catalog,
	cfg Config,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*Server, error) {
	if cfg.Cookie.Name == "" {
		cfg.Cookie.Name = DefaultCookieName
	}
	ordersPlaced, err := mp.Meter(instrumentationName).Int64Counter("storefront.orders.placed",
		metric.WithDescription("Number of committed checkouts"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders counter")
	}
	return &Server{
		kv:           kv,
		catalog:      c,
		cfg:          cfg,
		tracer:       tp.Tracer(instrumentationName),
		ordersPlaced: ordersPlaced,
	}, nil
}

// Routes returns the API router, to be mounted under /api.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.identifyClient)

	r.Get("/products", s.listProducts)
	r.Get("/cart", s.getCart)
	r.Post("/cart/items", s.addToCart)
	r.Get("/checkout", s.getCheckout)
	r.Post("/checkout", s.submitCheckout)
	r.Get("/invoice", s.getInvoice)
	r.Post("/register", s.register)
	r.Post("/login", s.login)
	r.Get("/session", s.getSession)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotice(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeNotice(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// clientServices are the domain services bound to one client namespace.
type clientServices struct {
	carts    *cart.Store
	checkout *checkout.Service
	accounts *account.Service
	views    *view.Renderer
}

func (s *Server) servicesFor(clientID string) *clientServices {
	kv := storage.Scope(s.kv, clientID)
	carts := cart.NewStore(kv, s.catalog)
	orders := checkout.NewService(kv, carts, s.cfg.DateLayout)

	var opts []account.Option
	if s.cfg.HashPasswords {
		opts = append(opts, account.WithHashedPasswords(s.cfg.BcryptCost))
	}
	return &clientServices{
		carts:    carts,
		checkout: orders,
		accounts: account.NewService(kv, opts...),
		views:    view.NewRenderer(kv, carts, orders),
	}
}
