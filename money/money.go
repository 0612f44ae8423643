/*
Package money provides fixed-point monetary arithmetic for the folio ledger.

PURPOSE:
  Every amount flowing through the system (charges, payments, taxes,
  revenue totals) is an Amount backed by decimal.Decimal. Binary floating
  point never touches domain logic: a folio balance must reproduce
  total_charges - total_payments exactly across any number of entries.

CURRENCY:
  Amounts are Tanzanian Shillings (TZS), which has no minor unit in this
  system. Rounding is therefore to whole units, half-up, and happens ONCE
  per charge at tax time - never re-derived from already-rounded sums.

USAGE:
  price := money.FromInt(5000)
  total := price.MulInt(2)          // 10000
  if total.IsNegative() { ... }

SEE ALSO:
  - tax/tax.go: the only place rounding is applied
*/
package money

import (
	"github.com/shopspring/decimal"
)

// Amount is a fixed-point monetary value in TZS.
// The zero value is a valid zero amount.
type Amount struct {
	value decimal.Decimal
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

func Zero() Amount { return Amount{} }

func FromInt(v int64) Amount {
	return Amount{value: decimal.NewFromInt(v)}
}

func FromDecimal(d decimal.Decimal) Amount {
	return Amount{value: d}
}

// Parse converts a decimal string ("118000", "2.5") into an Amount.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{value: d}, nil
}

// MustParse is Parse for literals in tests and migrations.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// =============================================================================
// ARITHMETIC
// =============================================================================

func (a Amount) Add(b Amount) Amount { return Amount{value: a.value.Add(b.value)} }
func (a Amount) Sub(b Amount) Amount { return Amount{value: a.value.Sub(b.value)} }
func (a Amount) Neg() Amount         { return Amount{value: a.value.Neg()} }

func (a Amount) MulInt(n int64) Amount {
	return Amount{value: a.value.Mul(decimal.NewFromInt(n))}
}

func (a Amount) Mul(d decimal.Decimal) Amount { return Amount{value: a.value.Mul(d)} }
func (a Amount) Div(d decimal.Decimal) Amount { return Amount{value: a.value.Div(d)} }

// RoundUnit rounds to the currency's minor unit (whole TZS), half-up.
func (a Amount) RoundUnit() Amount {
	return Amount{value: a.value.Round(0)}
}

// =============================================================================
// COMPARISON
// =============================================================================

func (a Amount) IsZero() bool          { return a.value.IsZero() }
func (a Amount) IsNegative() bool      { return a.value.IsNegative() }
func (a Amount) IsPositive() bool      { return a.value.IsPositive() }
func (a Amount) Equal(b Amount) bool   { return a.value.Equal(b.value) }
func (a Amount) Cmp(b Amount) int      { return a.value.Cmp(b.value) }
func (a Amount) LessThan(b Amount) bool { return a.value.LessThan(b.value) }

// =============================================================================
// CONVERSION
// =============================================================================

// String returns the canonical decimal representation, used for storage.
func (a Amount) String() string { return a.value.String() }

// Float64 is for JSON display only. Domain logic must not use it.
func (a Amount) Float64() float64 {
	f, _ := a.value.Float64()
	return f
}

func (a Amount) Decimal() decimal.Decimal { return a.value }
