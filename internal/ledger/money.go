package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// DefaultDepositLimit is the regulated ceiling for a booklet account.
	DefaultDepositLimit = decimal.RequireFromString("22950.00")
)

// ParseAmount parses a strictly positive monetary amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a decimal", ErrInvalidAmount, s)
	}
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// ParseLimit parses a non-negative limit value.
func ParseLimit(s string) (decimal.Decimal, error) {
	limit, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a decimal", ErrInvalidAmount, s)
	}
	if limit.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: limit cannot be negative, got %s", ErrInvalidAmount, limit)
	}
	return limit, nil
}

// ValidateAmount fails with ErrInvalidAmount unless amount > 0.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidAmount, amount.String())
	}
	return nil
}

func maxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}
