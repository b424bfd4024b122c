package pricing

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned by ParseAmount for input that is not a number.
var ErrInvalidAmount = errors.New("invalid amount")

// Money formats d as dollars rounded to cents, e.g. "$78.24".
func Money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Deduction formats d as a subtracted amount, e.g. "-$6.40".
func Deduction(d decimal.Decimal) string {
	return "-" + Money(d)
}

// Cents formats d rounded to two places without a currency sign.
func Cents(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ParseAmount parses a user-entered payment amount. A leading "$" and
// surrounding whitespace are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
