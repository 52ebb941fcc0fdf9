// Package core provides money parsing and handling utilities.
//
// Amounts are stored as integer cents. Decimal values coming from clients are
// rounded half-up to two places before conversion.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

var maxCents = decimal.NewFromInt(1<<63 - 1)

// Validate rejects zero and negative amounts.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateLimit accepts zero, which is a valid "spend nothing" budget.
func (m Money) ValidateLimit() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// MoneyFromDecimal converts a decimal amount to cents.
//
// Rounding is half-up on the third decimal place. Negative values and values
// that overflow int64 cents are rejected; zero is returned as-is so callers
// decide whether it is acceptable.
//
// Examples:
//
//	MoneyFromDecimal(12.34)  -> 1234
//	MoneyFromDecimal(12.345) -> 1235
//	MoneyFromDecimal(12.344) -> 1234
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(maxCents) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// ParseMoney parses a decimal string such as "12.34" or "12,34".
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
