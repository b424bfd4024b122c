// Package catalog holds the fixed set of purchasable products.
package catalog

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a product name is not in the catalog.
var ErrNotFound = errors.New("product not found")

// Product is a catalog entry. Products are immutable once the catalog is built.
type Product struct {
	Name  string
	Price decimal.Decimal
}

// Catalog maps product names to unit prices and keeps declaration order for listing.
type Catalog struct {
	products []Product
	byName   map[string]int
}

// New builds a catalog from the given products. Later duplicates of a name
// replace the earlier price but keep the earlier position.
func New(products ...Product) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]int, len(products))}
	for _, p := range products {
		if p.Name == "" {
			return nil, errors.New("product name required")
		}
		if p.Price.IsNegative() {
			return nil, errors.Errorf("negative price for product %q", p.Name)
		}
		if i, ok := c.byName[p.Name]; ok {
			c.products[i] = p
			continue
		}
		c.byName[p.Name] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// Default returns the storefront's built-in catalog.
func Default() *Catalog {
	c, err := New(
		Product{Name: "Bamboo Relaxed Tee", Price: decimal.NewFromInt(32)},
		Product{Name: "Organic Denim Jacket", Price: decimal.NewFromInt(98)},
		Product{Name: "Hemp Lounge Pants", Price: decimal.NewFromInt(56)},
		Product{Name: "Recycled Canvas Tote", Price: decimal.NewFromInt(24)},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// List returns all products in declaration order.
func (c *Catalog) List() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Lookup returns the product with the given name or ErrNotFound.
func (c *Catalog) Lookup(name string) (Product, error) {
	i, ok := c.byName[name]
	if !ok {
		return Product{}, ErrNotFound
	}
	return c.products[i], nil
}
