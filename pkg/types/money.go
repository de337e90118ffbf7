package types

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

const (
	// MaxUnitPriceCents caps catalog prices at 10,000,000.00 so MaxQuantity lines still fit in int64.
	MaxUnitPriceCents int64 = 1_000_000_000
	// MaxQuantity matches the INTEGER columns holding quantities.
	MaxQuantity = math.MaxInt32
)

// ErrAmountOutOfRange is returned when cents arithmetic would leave int64.
var ErrAmountOutOfRange = errors.New("amount out of range")

// FormatCents renders an integer amount of cents as a fixed two-decimal string.
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// ApplyMarkup returns cents increased by the markup fraction, rounded half away from zero.
func ApplyMarkup(cents int64, markup decimal.Decimal) int64 {
	return decimal.NewFromInt(cents).
		Mul(decimal.NewFromInt(1).Add(markup)).
		Round(0).
		IntPart()
}

// LineSubtotal multiplies qty by the unit price without wrapping.
func LineSubtotal(qty int, unitCents int64) (int64, error) {
	if qty < 0 || unitCents < 0 {
		return 0, ErrAmountOutOfRange
	}
	if qty != 0 && unitCents > math.MaxInt64/int64(qty) {
		return 0, ErrAmountOutOfRange
	}
	return int64(qty) * unitCents, nil
}

// AddCents sums two non-negative amounts without wrapping.
func AddCents(a, b int64) (int64, error) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, ErrAmountOutOfRange
	}
	return a + b, nil
}
