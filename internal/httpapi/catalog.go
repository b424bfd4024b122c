package httpapi

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/view"
)

// NoticeItemAdded confirms a successful add to cart.
const NoticeItemAdded = "Item added to cart."

type product struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type productList struct {
	Products []product `json:"products"`
}

func (s *Server) listProducts(w http.ResponseWriter, _ *http.Request) {
	products := s.catalog.List()
	resp := productList{Products: make([]product, 0, len(products))}
	for _, p := range products {
		resp.Products = append(resp.Products, product{
			Name:  p.Name,
			Price: pricing.Money(p.Price),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type addToCartResponse struct {
	message
	Cart *view.CartPage `json:"cart"`
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	var name string
	if err := readObject(r, func(d *jx.Decoder, key string) error {
		if key != "name" {
			return d.Skip()
		}
		v, err := text(d)
		name = v
		return err
	}); err != nil {
		badRequest(w, r, err)
		return
	}

	ctx := r.Context()
	c, added, err := s.services(r).carts.Add(ctx, name)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if !added {
		writeNotice(w, http.StatusNotFound, "product not found")
		return
	}
	zctx.From(ctx).Debug("Item added", zap.String("product", name), zap.Int("lines", len(c)))

	writeJSON(w, http.StatusOK, addToCartResponse{
		message: message{Message: NoticeItemAdded},
		Cart:    view.RenderCart(c),
	})
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	page, err := s.services(r).views.Cart(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
