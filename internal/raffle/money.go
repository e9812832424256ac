package raffle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money is an exact amount in minor currency units (cents).
type Money int64

// moneyContext has enough precision for any int64 cent value and rounds
// half-even.
var moneyContext = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(34)
	c.Rounding = apd.RoundHalfEven
	return c
}()

// ParseMoney parses a decimal string such as "2", "2.5" or "2.50".
// Negative values and values with more than two decimal places are rejected.
func ParseMoney(s string) (Money, error) {
	return parseMoney(s, true)
}

// RoundMoney parses a decimal string like ParseMoney but rounds extra
// decimal places half-even to whole cents instead of rejecting them.
// Stored documents written by float arithmetic, e.g. 0.30000000000000004,
// decode to the nearest cent.
func RoundMoney(s string) (Money, error) {
	return parseMoney(s, false)
}

func parseMoney(s string, exact bool) (Money, error) {
	d, _, err := apd.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.Form != apd.Finite {
		return 0, fmt.Errorf("parse amount %q: not a finite number", s)
	}
	if d.Negative && !d.IsZero() {
		return 0, fmt.Errorf("parse amount %q: negative", s)
	}

	var cents apd.Decimal
	cond, err := moneyContext.Quantize(&cents, d, -2)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if exact && cond.Inexact() {
		return 0, fmt.Errorf("parse amount %q: more than two decimal places", s)
	}

	// The quantized coefficient is the value in cents.
	cents.Exponent = 0
	cents.Negative = false
	v, err := cents.Int64()
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Money(v), nil
}

// MustParseMoney is ParseMoney for constants. It panics on error.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Times returns m multiplied by n.
func (m Money) Times(n int) Money {
	return m * Money(n)
}

// String renders the amount with exactly two decimals, e.g. "4.00".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Float64 returns the amount in major units. Only for display and metrics.
func (m Money) Float64() float64 {
	return float64(m) / 100
}

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string, rounded to
// whole cents.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	v, err := RoundMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Format renders the amount for a locale and currency, e.g. "R$ 4.00".
func (m Money) Format(tag language.Tag, unit currency.Unit) string {
	p := message.NewPrinter(tag)
	return p.Sprint(currency.Symbol(unit.Amount(m.Float64())))
}
