package types

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatCents(t *testing.T) {
	cases := map[int64]string{
		0:      "0.00",
		5:      "0.05",
		1999:   "19.99",
		120000: "1200.00",
	}
	for cents, want := range cases {
		if got := FormatCents(cents); got != want {
			t.Fatalf("FormatCents(%d) = %q, want %q", cents, got, want)
		}
	}
}

func TestApplyMarkup(t *testing.T) {
	tenPercent := decimal.RequireFromString("0.10")
	cases := []struct {
		cents int64
		want  int64
	}{
		{cents: 1000, want: 1100},
		{cents: 1234, want: 1357},
		{cents: 5, want: 6},
		{cents: 0, want: 0},
	}
	for _, tc := range cases {
		if got := ApplyMarkup(tc.cents, tenPercent); got != tc.want {
			t.Fatalf("ApplyMarkup(%d) = %d, want %d", tc.cents, got, tc.want)
		}
	}
	if got := ApplyMarkup(1999, decimal.Zero); got != 1999 {
		t.Fatalf("zero markup should keep price, got %d", got)
	}
}

func TestLineSubtotalRejectsOverflow(t *testing.T) {
	got, err := LineSubtotal(3, 1250)
	if err != nil || got != 3750 {
		t.Fatalf("LineSubtotal(3, 1250) = %d, %v", got, err)
	}
	if _, err := LineSubtotal(3, math.MaxInt64/2); !errors.Is(err, ErrAmountOutOfRange) {
		t.Fatalf("expected overflow error, got %v", err)
	}
	if _, err := LineSubtotal(MaxQuantity, MaxUnitPriceCents); err != nil {
		t.Fatalf("largest accepted line should fit: %v", err)
	}
}

func TestAddCentsRejectsOverflow(t *testing.T) {
	if got, err := AddCents(5, 7); err != nil || got != 12 {
		t.Fatalf("AddCents(5, 7) = %d, %v", got, err)
	}
	if _, err := AddCents(math.MaxInt64, 1); !errors.Is(err, ErrAmountOutOfRange) {
		t.Fatalf("expected overflow error, got %v", err)
	}
}
