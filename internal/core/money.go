// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and the Money value used across payments.
package core

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money is a non-negative decimal amount with two fractional digits.
type Money struct {
	decimal.Decimal
}

// NewMoney builds Money from a float, rounded to cents.
func NewMoney(v float64) Money {
	return Money{Decimal: decimal.NewFromFloat(v).Round(2)}
}

// MoneyFromCents builds Money from an integer amount of cents.
func MoneyFromCents(cents int64) Money {
	return Money{Decimal: decimal.New(cents, -2)}
}

// ParseAmount converts a decimal string to Money with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// on the third decimal place. Returns ErrInvalidAmount for invalid formats,
// negative values, or zero amounts.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.35
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	if strings.Count(s, ".") > 1 {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(s, "."))
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m := Money{Decimal: d.Round(2)}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

func (m Money) Validate() error {
	if !m.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Decimal: m.Decimal.Add(o.Decimal)}
}

// Sub returns m - o, floored at zero.
func (m Money) Sub(o Money) Money {
	d := m.Decimal.Sub(o.Decimal)
	if d.IsNegative() {
		return Money{Decimal: decimal.Zero}
	}
	return Money{Decimal: d}
}

// Mul returns m multiplied by n.
func (m Money) Mul(n int) Money {
	return Money{Decimal: m.Decimal.Mul(decimal.NewFromInt(int64(n)))}
}

// Cents returns the amount in cents, for logging.
func (m Money) Cents() int64 {
	return m.Decimal.Shift(2).IntPart()
}

// String formats the amount with exactly two decimals.
func (m Money) String() string {
	return m.StringFixed(2)
}

// MarshalJSON encodes Money as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number or a decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	if strings.TrimSpace(s) == "" || s == "null" {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return ErrInvalidAmount
	}
	*m = Money{Decimal: d.Round(2)}
	return nil
}
