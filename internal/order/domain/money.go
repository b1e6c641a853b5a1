package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// minorUnitPlaces is the number of decimal places of the currency's minor
// unit. Every supported currency in the storefront uses two (cents for EUR).
const minorUnitPlaces = 2

// Money is an immutable monetary value: an exact decimal amount plus an ISO
// 4217 currency code. Arithmetic never mutates the receiver; every operation
// returns a new value.
//
// Intermediate arithmetic keeps full decimal precision. Rounding to the minor
// unit happens once, at total-computation time, via Round().
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney builds a Money from a decimal amount and a currency code.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if currency == "" {
		return Money{}, fmt.Errorf("money: currency is required")
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyFromString parses a decimal string, e.g. "25.00".
func NewMoneyFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("money: parse amount %q: %w", amount, err)
	}
	return NewMoney(d, currency)
}

// NewMoneyFromMinorUnits builds a Money from an integer count of minor units
// (cents). This is the representation the order stores persist.
func NewMoneyFromMinorUnits(units int64, currency string) (Money, error) {
	return NewMoney(decimal.New(units, -minorUnitPlaces), currency)
}

// Zero returns the zero value in the given currency.
func Zero(currency string) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the exact decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the ISO currency code.
func (m Money) Currency() string { return m.currency }

// Add returns m + other. Both values must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, &CurrencyMismatchError{Left: m.currency, Right: other.currency}
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Multiply scales the amount by an arbitrary real factor, e.g. a quantity.
// The currency is unchanged and no rounding is applied.
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

// MultiplyInt is Multiply with an integer factor, the common quantity case.
func (m Money) MultiplyInt(factor int) Money {
	return m.Multiply(decimal.NewFromInt(int64(factor)))
}

// Equals reports whether two values represent the same amount. Comparing
// across currencies is a programming error.
func (m Money) Equals(other Money) (bool, error) {
	if m.currency != other.currency {
		return false, &CurrencyMismatchError{Left: m.currency, Right: other.currency}
	}
	return m.amount.Equal(other.amount), nil
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// Round returns the value rounded half-up to the currency's minor unit.
func (m Money) Round() Money {
	return Money{amount: m.amount.Round(minorUnitPlaces), currency: m.currency}
}

// MinorUnits returns the rounded amount as an integer count of minor units.
func (m Money) MinorUnits() int64 {
	return m.amount.Round(minorUnitPlaces).Shift(minorUnitPlaces).IntPart()
}

// Format renders the value for display, e.g. "25.00 EUR".
func (m Money) Format() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(minorUnitPlaces), m.currency)
}

func (m Money) String() string { return m.Format() }
