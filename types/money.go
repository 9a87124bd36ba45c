// Package types provides common types used across the billing engine.
package types

import (
	"encoding/json"
	"fmt"
)

// Money represents a monetary value in cents. The engine is single-currency
// (USD) — all arithmetic is integer-only, no floating point.
//
// Examples:
//   - Cents(4000) = $40.00
//   - Dollars(40) = $40.00
type Money struct {
	Amount int64 `json:"amount"` // cents
}

// Cents creates a Money value from an amount in cents.
func Cents(cents int64) Money { return Money{Amount: cents} }

// Dollars creates a Money value from a whole-dollar amount.
func Dollars(dollars int64) Money { return Money{Amount: dollars * 100} }

// Arithmetic operations

// Add adds two Money values.
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount + other.Amount}
}

// Subtract subtracts another Money value.
func (m Money) Subtract(other Money) Money {
	return Money{Amount: m.Amount - other.Amount}
}

// Multiply multiplies the Money by a quantity.
func (m Money) Multiply(qty int64) Money {
	return Money{Amount: m.Amount * qty}
}

// ForMinutes treats the Money as an hourly rate and returns the charge for
// the given number of minutes. Integer math: $40.00/h for 90 min is exactly
// $60.00 with no float rounding.
func (m Money) ForMinutes(minutes int64) Money {
	return Money{Amount: m.Amount * minutes / 60}
}

// Negate returns the negative of the Money value.
func (m Money) Negate() Money {
	return Money{Amount: -m.Amount}
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal returns true if both Money values are equal.
func (m Money) Equal(other Money) bool { return m.Amount == other.Amount }

// LessThan returns true if this Money is less than other.
func (m Money) LessThan(other Money) bool { return m.Amount < other.Amount }

// GreaterThan returns true if this Money is greater than other.
func (m Money) GreaterThan(other Money) bool { return m.Amount > other.Amount }

// Formatting methods

// FormatMajor returns the dollar string without the currency symbol,
// e.g. "60.00" for Cents(6000).
func (m Money) FormatMajor() string {
	isNegative := m.Amount < 0
	abs := m.Amount
	if isNegative {
		abs = -abs
	}

	result := fmt.Sprintf("%d.%02d", abs/100, abs%100)
	if isNegative {
		return "-" + result
	}
	return result
}

// String returns a human-readable string, e.g. "$60.00". The sign leads the
// currency symbol: "-$2.50".
func (m Money) String() string {
	if m.Amount < 0 {
		return "-$" + m.Negate().FormatMajor()
	}
	return "$" + m.FormatMajor()
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount  int64  `json:"amount"`
		Display string `json:"display"`
	}{
		Amount:  m.Amount,
		Display: m.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. Accepts both the object form
// produced by MarshalJSON and a bare integer amount.
func (m *Money) UnmarshalJSON(data []byte) error {
	var obj struct {
		Amount int64 `json:"amount"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		m.Amount = obj.Amount
		return nil
	}

	var amount int64
	if err := json.Unmarshal(data, &amount); err != nil {
		return fmt.Errorf("money: unmarshal %q: %w", string(data), err)
	}
	m.Amount = amount
	return nil
}

// Sum adds up a slice of Money values.
func Sum(values ...Money) Money {
	var total Money
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
