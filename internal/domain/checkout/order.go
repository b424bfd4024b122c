package checkout

import (
	"strings"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/pricing"
)

// Customer holds billing details collected at checkout.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	Parish  string `json:"parish"`
}

func (c Customer) trimmed() Customer {
	return Customer{
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.TrimSpace(c.Email),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
		City:    strings.TrimSpace(c.City),
		Parish:  strings.TrimSpace(c.Parish),
	}
}

func (c Customer) complete() bool {
	for _, v := range []string{c.Name, c.Email, c.Phone, c.Address, c.City, c.Parish} {
		if v == "" {
			return false
		}
	}
	return true
}

// Order is the snapshot taken when a checkout commits. Totals are stored as
// computed at that moment and are not recalculated on display.
type Order struct {
	Cart     cart.Cart      `json:"cart"`
	Totals   pricing.Totals `json:"totals"`
	Customer Customer       `json:"customer"`
	Date     string         `json:"date"`
}

// IsEmpty reports whether the order has no lines.
func (o *Order) IsEmpty() bool {
	return o == nil || len(o.Cart) == 0
}
