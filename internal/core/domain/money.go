package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const moneyScale = 2

// Money is a non-negative exact decimal amount. The zero value is 0.00.
type Money struct {
	amount decimal.Decimal
}

// NewMoney wraps amount, failing with ErrInvalidAmount when it is negative or
// outside MoneyIntegerDigits/MoneyScale.
func NewMoney(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amount.String())
	}
	if !WithinPrecision(amount, MoneyIntegerDigits, MoneyScale) {
		return Money{}, fmt.Errorf("%w: exceeds %d integer digits or %d decimal places",
			ErrInvalidAmount, MoneyIntegerDigits, MoneyScale)
	}
	return Money{amount: amount}, nil
}

// MoneyFromString parses an exact decimal string such as "100.00".
func MoneyFromString(s string) (Money, error) {
	d, ok := parseBoundedDecimal(s, MoneyIntegerDigits, MoneyScale)
	if !ok {
		return Money{}, fmt.Errorf("%w: %.64q is not a bounded decimal", ErrInvalidAmount, s)
	}
	return NewMoney(d)
}

// MustMoney is MoneyFromString for literals known to be valid.
func MustMoney(s string) Money {
	m, err := MoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Amount returns the exact underlying value.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// ApplyModifier multiplies by modifier and rounds half-up to two places.
// The receiver is left untouched.
func (m Money) ApplyModifier(modifier decimal.Decimal) (Money, error) {
	return NewMoney(m.amount.Mul(modifier).Round(moneyScale))
}

// Equal compares amounts numerically, so 95 and 95.00 are equal.
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// String renders the canonical two-place form, e.g. "95.00".
func (m Money) String() string {
	return m.amount.StringFixed(moneyScale)
}
