// Package core provides money parsing and handling utilities.
//
// Amounts keep every decimal they were given, both on the command line and
// in the JSON document. Only String rounds, to cents.
package core

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const centsExp = -2

var bigTen = big.NewInt(10)

// ParseAmount converts a decimal string to Money without rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Zero is a
// valid amount; negative values are rejected with ErrNegativeAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.345
//	ParseAmount("4.5")    -> 4.50
func ParseAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	return NewMoney(d), nil
}

// NewMoney wraps d. Equal values always give equal Money, whatever
// exponent d carries.
func NewMoney(d decimal.Decimal) Money {
	return Money{amount: canonical(d)}
}

// Cents returns the Money worth c hundredths.
func Cents(c int64) Money {
	return NewMoney(decimal.New(c, centsExp))
}

// canonical rewrites d with at least two decimals and no trailing zeros
// beyond them.
func canonical(d decimal.Decimal) decimal.Decimal {
	coef, exp := d.Coefficient(), d.Exponent()
	if coef.Sign() == 0 {
		return decimal.New(0, centsExp)
	}
	if exp > centsExp {
		scale := new(big.Int).Exp(bigTen, big.NewInt(int64(exp-centsExp)), nil)
		coef.Mul(coef, scale)
		exp = centsExp
	}
	q, r := new(big.Int), new(big.Int)
	for exp < centsExp {
		q.QuoRem(coef, bigTen, r)
		if r.Sign() != 0 {
			break
		}
		coef.Set(q)
		exp++
	}
	if coef.IsInt64() {
		return decimal.New(coef.Int64(), exp)
	}
	return decimal.NewFromBigInt(coef, exp)
}

// Decimal returns the exact amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// Add returns the exact sum of two amounts.
func (m Money) Add(n Money) Money {
	return NewMoney(m.amount.Add(n.amount))
}

// Equal reports whether both amounts have the same value.
func (m Money) Equal(n Money) bool {
	return m.amount.Equal(n.amount)
}

// IsZero reports whether the amount is 0.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// String formats the amount rounded to two decimals, without currency symbol.
func (m Money) String() string {
	return m.amount.StringFixed(2)
}

// MarshalJSON writes the exact amount as a JSON number (4.5, 19.999).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.amount.String()), nil
}

// UnmarshalJSON reads a JSON number and keeps every decimal of it.
func (m *Money) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "" || raw == "null" || strings.HasPrefix(raw, `"`) {
		return fmt.Errorf("amount must be a number, got %s", raw)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("amount must be a number: %w", err)
	}
	if d.IsNegative() {
		return ErrNegativeAmount
	}
	*m = NewMoney(d)
	return nil
}
