package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const AmountScale = 2

// maxAmount is the first value that no longer fits NUMERIC(12,2).
var maxAmount = decimal.New(1, 10)

// Quantize rounds to two decimal places, half away from zero. For the
// positive amounts stored in the ledger that is half-up, and applying it
// twice gives the same value.
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}

// ParseAmount parses a user-supplied decimal string and returns the
// quantized, strictly positive amount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("ParseAmount: %w", ErrInvalidAmount)
	}
	return PositiveAmount(d)
}

// ParseSignedAmount is ParseAmount for adjustments: any non-zero value.
func ParseSignedAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("ParseSignedAmount: %w", ErrInvalidAmount)
	}
	q := Quantize(d)
	if q.IsZero() || q.Abs().GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, fmt.Errorf("ParseSignedAmount: %w", ErrInvalidAmount)
	}
	return q, nil
}

func PositiveAmount(d decimal.Decimal) (decimal.Decimal, error) {
	q := Quantize(d)
	if !q.IsPositive() || q.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, fmt.Errorf("PositiveAmount: %w", ErrInvalidAmount)
	}
	return q, nil
}

// CheckBalance rejects a resulting balance the accounts column cannot hold.
func CheckBalance(b decimal.Decimal) error {
	if b.Abs().GreaterThanOrEqual(maxAmount) {
		return Invalid("amount", ErrInvalidAmount)
	}
	return nil
}

func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(AmountScale)
}
