// Package money holds the exact decimal helpers used for fees and payments.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for currency amounts.
const Scale = 2

var (
	// ErrEmpty is returned when no amount was supplied.
	ErrEmpty = errors.New("amount is required")
	// ErrNotNumeric is returned when the amount cannot be parsed.
	ErrNotNumeric = errors.New("amount must be numeric")
	// ErrTooPrecise is returned when the amount has more than Scale fractional digits.
	ErrTooPrecise = fmt.Errorf("amount must have at most %d decimal places", Scale)
)

// Parse converts user input into an exact amount.
func Parse(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, ErrEmpty
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, ErrNotNumeric
	}
	return Normalize(amount)
}

// Normalize rounds an already decoded amount to Scale, rejecting values that would lose precision.
func Normalize(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.Equal(amount.Round(Scale)) {
		return decimal.Zero, ErrTooPrecise
	}
	return amount.Round(Scale), nil
}

// Sum adds amounts exactly; an empty input yields zero.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Format renders an amount with the fixed currency scale.
func Format(amount decimal.Decimal) string {
	return amount.StringFixed(Scale)
}
