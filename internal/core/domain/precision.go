package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Bounds of accepted decimals. They match the NUMERIC columns of the
// transactions table, and are checked before any arithmetic so exponent
// notation such as "1e20000000" never gets rescaled.
const (
	maxDecimalInputLen = 64

	MoneyIntegerDigits = 15
	MoneyScale         = 4
	// Prices are one digit narrower than Money so the largest policy
	// modifier still yields a representable final price.
	PriceIntegerDigits    = 13
	ModifierIntegerDigits = 4
	ModifierScale         = 8
)

// WithinPrecision reports whether d has at most integerDigits digits before
// the point and at most scale significant digits after it. Trailing zeros
// beyond scale are allowed.
func WithinPrecision(d decimal.Decimal, integerDigits, scale int32) bool {
	if d.IsZero() {
		return true
	}
	exp := int64(d.Exponent())
	digits := int64(d.NumDigits())
	if digits+exp > int64(integerDigits) {
		return false
	}
	if exp >= -int64(scale) {
		return true
	}
	// Below 10^-scale every non-zero value has digits past the scale.
	if digits+exp < -int64(scale) {
		return false
	}
	return d.Equal(d.Truncate(scale))
}

// parseBoundedDecimal rejects oversized input before handing it to the parser.
func parseBoundedDecimal(s string, integerDigits, scale int32) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxDecimalInputLen {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !WithinPrecision(d, integerDigits, scale) {
		return decimal.Decimal{}, false
	}
	if d.IsZero() {
		// "0e-2000000" would otherwise carry its exponent into rounding.
		return decimal.Zero, true
	}
	return d, true
}

// ParsePrice parses an inbound sale price. Failures wrap ErrInvalidAmount.
func ParsePrice(s string) (Money, error) {
	d, ok := parseBoundedDecimal(s, PriceIntegerDigits, MoneyScale)
	if !ok {
		return Money{}, fmt.Errorf("%w: %.64q is not a price with at most %d integer digits and %d decimal places",
			ErrInvalidAmount, s, PriceIntegerDigits, MoneyScale)
	}
	return NewMoney(d)
}

// ParsePriceModifier parses a modifier within the stored precision. Range
// checks against a method's policy happen in Validate.
func ParsePriceModifier(s string) (decimal.Decimal, error) {
	d, ok := parseBoundedDecimal(s, ModifierIntegerDigits, ModifierScale)
	if !ok {
		return decimal.Decimal{}, &InvalidPriceError{Message: "Invalid price modifier format"}
	}
	return d, nil
}
