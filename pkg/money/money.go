package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places persisted for currency amounts.
const Places = 2

var hundred = decimal.NewFromInt(100)

// Round rounds a currency amount half away from zero to two places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// FromPercent converts a 0-100 percentage into a 0-1 fraction.
func FromPercent(pct decimal.Decimal) decimal.Decimal {
	return pct.Div(hundred)
}

// Parse reads a decimal amount from user input and rejects negatives.
func Parse(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %q cannot be negative", raw)
	}
	return d, nil
}

// Min returns the smaller of two amounts.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Format renders an amount with a fixed two decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// IsRate reports whether d is a fraction in [0, 1].
func IsRate(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(1))
}
