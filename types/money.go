// Package types provides the value types shared by every benefits package.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrCurrencyMismatch is returned when two Money values of different
// currencies meet in a checked operation.
var ErrCurrencyMismatch = errors.New("benefits: currency mismatch")

// Money is an amount in the smallest currency unit.
// Arithmetic is integer-only; there is no floating point representation.
//
//   - USD(12000) = $120.00
//   - EUR(850)   = €8.50
type Money struct {
	Amount   int64  `json:"amount"`   // minor units (cents, pence)
	Currency string `json:"currency"` // ISO 4217 lowercase
}

// USD creates a Money value in US Dollars (cents).
func USD(cents int64) Money { return Money{Amount: cents, Currency: "usd"} }

// EUR creates a Money value in Euros (cents).
func EUR(cents int64) Money { return Money{Amount: cents, Currency: "eur"} }

// GBP creates a Money value in British Pounds (pence).
func GBP(pence int64) Money { return Money{Amount: pence, Currency: "gbp"} }

// New creates a Money value in an arbitrary currency.
func New(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToLower(currency)}
}

// Zero returns a zero Money value in the specified currency.
func Zero(currency string) Money { return Money{Currency: strings.ToLower(currency)} }

// Add adds two Money values. Panics if currencies don't match; callers
// handling external input check with SameCurrency first.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Subtract subtracts another Money value. Panics if currencies don't match.
func (m Money) Subtract(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// Negate returns the negative of the Money value.
func (m Money) Negate() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// Percent returns pct percent of m, rounded half-up to the nearest minor unit.
// The product is computed exactly; pct may carry arbitrary precision (33.33).
func (m Money) Percent(pct decimal.Decimal) Money {
	share := decimal.NewFromInt(m.Amount).Mul(pct).Shift(-2)
	return Money{Amount: roundHalfUp(share), Currency: m.Currency}
}

// roundHalfUp rounds towards +Inf on exact halves, so 0.5 -> 1 and -0.5 -> 0.
func roundHalfUp(d decimal.Decimal) int64 {
	return d.Add(decimal.New(5, -1)).Floor().IntPart()
}

// SameCurrency reports whether both values share a currency.
func (m Money) SameCurrency(other Money) bool { return m.Currency == other.Currency }

// CheckCurrency returns ErrCurrencyMismatch when currencies differ.
func (m Money) CheckCurrency(other Money) error {
	if !m.SameCurrency(other) {
		return fmt.Errorf("%w: %s != %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return nil
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal returns true if both Money values have the same amount and currency.
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// LessThan returns true if this Money is less than other. Panics if currencies don't match.
func (m Money) LessThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount < other.Amount
}

// GreaterOrEqual returns true if this Money is at least other. Panics if currencies don't match.
func (m Money) GreaterOrEqual(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount >= other.Amount
}

// FormatMajor returns the major unit string without currency symbol, "120.00" for USD(12000).
func (m Money) FormatMajor() string {
	abs := m.Amount
	sign := ""
	if abs < 0 {
		abs = -abs
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%02d", sign, abs/100, abs%100)
}

// String returns a human-readable string with currency symbol.
func (m Money) String() string {
	return currencySymbol(m.Currency) + m.FormatMajor()
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

func currencySymbol(currency string) string {
	switch strings.ToLower(currency) {
	case "usd":
		return "$"
	case "eur":
		return "€"
	case "gbp":
		return "£"
	case "cad":
		return "C$"
	default:
		return strings.ToUpper(currency) + " "
	}
}

// Sum adds values in currency. All values must share it.
func Sum(currency string, values ...Money) Money {
	total := Zero(currency)
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
