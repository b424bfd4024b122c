// Package cart persists the shopper's in-progress selection.
package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/storage"
)

// Item is a cart line. Price is copied from the catalog when the line is
// first added and never refreshed.
type Item struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Qty   int             `json:"qty"`
}

// Cart is an ordered list of lines, unique by name.
type Cart []Item

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c) == 0
}

// PricingItems converts the cart for use with the pricing package.
func (c Cart) PricingItems() []pricing.Item {
	items := make([]pricing.Item, len(c))
	for i, line := range c {
		items[i] = pricing.Item{Price: line.Price, Quantity: line.Qty}
	}
	return items
}

// Totals prices the whole cart.
func (c Cart) Totals() pricing.Totals {
	return pricing.Calculate(c.PricingItems())
}

func (c Cart) valid() bool {
	seen := make(map[string]struct{}, len(c))
	for _, line := range c {
		if line.Name == "" || line.Qty < 1 || line.Price.IsNegative() {
			return false
		}
		if _, dup := seen[line.Name]; dup {
			return false
		}
		seen[line.Name] = struct{}{}
	}
	return true
}

// Store reads and writes the cart of one client.
type Store struct {
	kv      storage.Store
	catalog *catalog.Catalog
}

// NewStore returns a cart Store over a client-scoped storage.Store.
func NewStore(kv storage.Store, c *catalog.Catalog) *Store {
	return &Store{kv: kv, catalog: c}
}

// Get returns the persisted cart. A missing or malformed cart reads as empty.
func (s *Store) Get(ctx context.Context) (Cart, error) {
	var c Cart
	ok, err := storage.GetJSON(ctx, s.kv, storage.KeyCart, &c)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if !ok {
		return Cart{}, nil
	}
	if !c.valid() {
		zctx.From(ctx).Warn("Ignoring invalid stored cart", zap.Int("lines", len(c)))
		return Cart{}, nil
	}
	return c, nil
}

// Save overwrites the persisted cart.
func (s *Store) Save(ctx context.Context, c Cart) error {
	if c == nil {
		c = Cart{}
	}
	if err := storage.SetJSON(ctx, s.kv, storage.KeyCart, c); err != nil {
		return errors.Wrap(err, "save cart")
	}
	return nil
}

// Add puts one unit of the named product into the cart. Unknown names leave
// the cart untouched and report added=false.
func (s *Store) Add(ctx context.Context, name string) (c Cart, added bool, err error) {
	p, err := s.catalog.Lookup(name)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c, err = s.Get(ctx)
			return c, false, err
		}
		return nil, false, err
	}

	c, err = s.Get(ctx)
	if err != nil {
		return nil, false, err
	}

	found := false
	for i := range c {
		if c[i].Name == p.Name {
			c[i].Qty++
			found = true
			break
		}
	}
	if !found {
		c = append(c, Item{Name: p.Name, Price: p.Price, Qty: 1})
	}

	if err := s.Save(ctx, c); err != nil {
		return nil, false, err
	}
	return c, true, nil
}
