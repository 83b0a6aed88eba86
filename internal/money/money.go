// Package money parses and renders the dollar amounts found in fee tables.
package money

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/bher20/costcalc/internal/textnorm"
)

// NotAvailable is how an unavailable amount is displayed.
const NotAvailable = "N/A"

// Money is either a determined amount or the unavailable sentinel. The zero
// value is unavailable.
type Money struct {
	amount decimal.Decimal
	ok     bool
}

// Unavailable returns the sentinel for an amount that could not be determined.
func Unavailable() Money { return Money{} }

// Zero is an available amount of 0.
func Zero() Money { return Money{amount: decimal.Zero, ok: true} }

// FromDecimal wraps d as an available amount.
func FromDecimal(d decimal.Decimal) Money { return Money{amount: d, ok: true} }

// Parse reads a money cell: an optional "$", comma digit grouping, or the
// literal "N/A". Empty, N/A and anything that is not a finite number parse to
// Unavailable. Parse never panics.
func Parse(v any) Money {
	s := textnorm.Clean(v)
	if s == "" || strings.EqualFold(s, NotAvailable) {
		return Unavailable()
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return Unavailable()
	}
	d, err := decimal.NewFromString(s)
	if err != nil || math.IsInf(d.InexactFloat64(), 0) {
		return Unavailable()
	}
	return FromDecimal(d)
}

// Available reports whether m holds an amount.
func (m Money) Available() bool { return m.ok }

// Decimal returns the amount and whether it is available.
func (m Money) Decimal() (decimal.Decimal, bool) { return m.amount, m.ok }

// OrZero is the arithmetic view: unavailable counts as zero.
func (m Money) OrZero() decimal.Decimal {
	if !m.ok {
		return decimal.Zero
	}
	return m.amount
}

// Plus adds o to m. An unavailable operand contributes zero; the sum is
// unavailable only when both operands are.
func (m Money) Plus(o Money) Money {
	if !m.ok && !o.ok {
		return Unavailable()
	}
	return FromDecimal(m.OrZero().Add(o.OrZero()))
}

// Equal compares availability and amount.
func (m Money) Equal(o Money) bool {
	if m.ok != o.ok {
		return false
	}
	return !m.ok || m.amount.Equal(o.amount)
}

// String renders m with Format.
func (m Money) String() string { return Format(m) }

// Format renders m as "$7,000.00" (negatives as "-$12.50"); unavailable
// renders as "N/A".
func Format(m Money) string {
	if !m.ok {
		return NotAvailable
	}
	d := m.amount.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", d.InexactFloat64())
}

// MarshalJSON encodes an available amount as a number with two decimals and
// an unavailable one as null.
func (m Money) MarshalJSON() ([]byte, error) {
	if !m.ok {
		return []byte("null"), nil
	}
	return []byte(m.amount.StringFixed(2)), nil
}

// UnmarshalJSON accepts numbers, money strings and null.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*m = Unavailable()
		return nil
	}
	*m = Parse(strings.Trim(s, `"`))
	return nil
}
