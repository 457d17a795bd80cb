// Package decimalx collects the exact-decimal helpers the ledger needs on
// top of shopspring/decimal: fractional-digit counting against a currency
// unit's precision, floor-at-precision for fee math, and the trailing-zero
// string format used on the wire (spec.md §3, §6.3).
package decimalx

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DecimalPlaces returns the number of fractional digits in d's normalised
// form, e.g. DecimalPlaces(decimal.NewFromString("1.2300")) == 2.
func DecimalPlaces(d decimal.Decimal) int32 {
	s := d.String()
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return int32(len(s) - i - 1)
	}
	return 0
}

// ExceedsPrecision reports whether d has more fractional digits than the
// given unit precision allows.
func ExceedsPrecision(d decimal.Decimal, precision int32) bool {
	return DecimalPlaces(d) > precision
}

// FloorAt truncates d down to precision fractional digits, matching the
// source's Decimal.quantize(..., rounding=ROUND_DOWN) used by the transfer
// fee calculation.
func FloorAt(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.Truncate(precision)
}

// Format renders d without scientific notation and without trailing zeros,
// mirroring the source's format_decimal helper (original_source/.../utils.py).
func Format(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// MaxSignificantDigits and MaxFractionalDigits are the global decimal
// bounds from spec.md §3: up to 13 significant digits, 4 fractional.
const (
	MaxSignificantDigits = 13
	MaxFractionalDigits  = 4
)

// WithinGlobalBounds reports whether d fits the ledger-wide precision
// envelope, independent of any particular unit's precision.
func WithinGlobalBounds(d decimal.Decimal) bool {
	if DecimalPlaces(d) > MaxFractionalDigits {
		return false
	}
	coeff := d.Coefficient().String()
	coeff = strings.TrimPrefix(coeff, "-")
	return len(coeff) <= MaxSignificantDigits
}
