// Package money implements fixed-precision currency arithmetic.
//
// Every Amount is held at currency precision (2 decimal places) and every
// operation rounds its result back to that precision before returning, so a
// chain of operations behaves like a conventional currency library rather
// than an arbitrary-precision accumulator.
package money

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const (
	// CurrencyCode is the only currency receipts are kept in.
	CurrencyCode = "USD"

	// Places is the number of fractional digits kept by an Amount.
	Places = 2

	// PercentPlaces is the precision of percentages shown for charges.
	PercentPlaces = 3

	// MaxWholeDigits bounds parsed amounts to below $1,000,000,000,000.
	MaxWholeDigits = 12

	// maxInputLen bounds the literal handed to the decimal parser.
	maxInputLen = 32
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrOutOfRange    = errors.New("amount out of range")
)

var (
	hundred    = decimal.NewFromInt(100)
	one        = decimal.NewFromInt(1)
	limit      = decimal.New(1, MaxWholeDigits)
	maxPercent = decimal.NewFromInt(1000)
)

// Amount is a currency value rounded to Places decimal digits.
// The zero value is $0.00.
type Amount struct {
	d decimal.Decimal
}

// Zero is $0.00.
var Zero = Amount{}

// New rounds d to currency precision.
func New(d decimal.Decimal) Amount {
	return Amount{d: d.Round(Places)}
}

// FromCents returns the amount for a count of minor units.
func FromCents(cents int64) Amount {
	return Amount{d: decimal.New(cents, -Places)}
}

// FromInt returns a whole-dollar amount.
func FromInt(n int64) Amount {
	return Amount{d: decimal.NewFromInt(n)}
}

// FromFloat converts a float, rounding to currency precision.
func FromFloat(f float64) Amount {
	return New(decimal.NewFromFloat(f))
}

// Parse reads user input such as "12", "12.5", "$1,234.50" or "-$3".
func Parse(s string) (Amount, error) {
	clean := strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(clean, "-") {
		neg = true
		clean = strings.TrimSpace(clean[1:])
	}
	clean = strings.TrimPrefix(clean, "$")
	clean = strings.ReplaceAll(clean, ",", "")
	if clean == "" || strings.HasPrefix(clean, "-") || strings.HasPrefix(clean, "+") {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	d, ok := parseDecimal(clean)
	if !ok {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if neg {
		d = d.Neg()
	}
	a := New(d)
	if !a.InRange() {
		return Zero, fmt.Errorf("%w: %w: %q", ErrInvalidAmount, ErrOutOfRange, s)
	}
	return a, nil
}

// parseDecimal reads a plain decimal literal. Exponent forms are refused
// so a short input cannot expand into an enormous number.
func parseDecimal(s string) (decimal.Decimal, bool) {
	if s == "" || len(s) > maxInputLen || strings.ContainsAny(s, "eE") {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// MustParse is like Parse but panics on error. Use for literals.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ParsePercent reads a percentage such as "8.875" or "20%". Values beyond
// ±1000% are refused.
func ParsePercent(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	d, ok := parseDecimal(clean)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: percentage %q", ErrInvalidAmount, s)
	}
	if d.Abs().GreaterThan(maxPercent) {
		return decimal.Zero, fmt.Errorf("%w: %w: percentage %q", ErrInvalidAmount, ErrOutOfRange, s)
	}
	return d, nil
}

// Sum adds amounts left to right.
func Sum(amounts ...Amount) Amount {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

func (a Amount) Add(b Amount) Amount { return New(a.d.Add(b.d)) }
func (a Amount) Sub(b Amount) Amount { return New(a.d.Sub(b.d)) }

// Mul multiplies by an arbitrary factor.
func (a Amount) Mul(f decimal.Decimal) Amount { return New(a.d.Mul(f)) }

// MulInt multiplies by an integer factor.
func (a Amount) MulInt(n int64) Amount { return New(a.d.Mul(decimal.NewFromInt(n))) }

// Div divides by f. A zero divisor is replaced by 1.
func (a Amount) Div(f decimal.Decimal) Amount {
	if f.IsZero() {
		f = one
	}
	return New(a.d.Div(f))
}

// MulRatio returns a × num / den rounded once. A non-positive den is
// replaced by 1.
func (a Amount) MulRatio(num, den decimal.Decimal) Amount {
	return New(a.d.Mul(num).Div(safeDenominator(den)))
}

// Percent returns a as a percentage of base, rounded to PercentPlaces.
// A non-positive base is replaced by 1.
func (a Amount) Percent(base Amount) decimal.Decimal {
	return a.d.Div(safeDenominator(base.d)).Mul(hundred).Round(PercentPlaces)
}

// FromPercent returns pct percent of base.
func FromPercent(base Amount, pct decimal.Decimal) Amount {
	return New(base.d.Mul(pct).Div(hundred))
}

func safeDenominator(d decimal.Decimal) decimal.Decimal {
	if d.Sign() <= 0 {
		return one
	}
	return d
}

// Cents is the amount in minor units. It only fits an int64 for amounts
// within range; Apportion does not rely on it.
func (a Amount) Cents() int64 { return a.d.Shift(Places).IntPart() }

// InRange reports whether a is strictly between -10^MaxWholeDigits and
// 10^MaxWholeDigits.
func (a Amount) InRange() bool { return a.d.Abs().LessThan(limit) }

func (a Amount) Decimal() decimal.Decimal { return a.d }
func (a Amount) IsZero() bool             { return a.d.IsZero() }
func (a Amount) IsPositive() bool         { return a.d.IsPositive() }
func (a Amount) IsNegative() bool         { return a.d.IsNegative() }
func (a Amount) Equal(b Amount) bool      { return a.d.Equal(b.d) }
func (a Amount) Cmp(b Amount) int         { return a.d.Cmp(b.d) }
func (a Amount) LessThan(b Amount) bool   { return a.d.LessThan(b.d) }
func (a Amount) Abs() Amount              { return Amount{d: a.d.Abs()} }
func (a Amount) Neg() Amount              { return Amount{d: a.d.Neg()} }

// String returns the plain decimal form, e.g. "9.00".
func (a Amount) String() string {
	return a.d.StringFixed(Places)
}

// Format returns the display form, e.g. "$9.00".
func (a Amount) Format() string {
	return gomoney.New(a.Cents(), CurrencyCode).Display()
}

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string, or null. Numbers
// follow the same rules as Parse.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = Zero
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, b)
		}
		parsed, err := Parse(s)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}
	d, ok := parseDecimal(string(b))
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, b)
	}
	parsed := New(d)
	if !parsed.InRange() {
		return fmt.Errorf("%w: %w: %s", ErrInvalidAmount, ErrOutOfRange, b)
	}
	*a = parsed
	return nil
}

// Apportion splits total across weights in proportion, using the largest
// remainder method so the parts always sum to exactly total. Ties go to
// the earlier index. When the weights do not sum to a positive value every
// part is zero.
//
// Negative weights cannot be apportioned by remainder; each part is then
// rounded on its own and the parts may miss total by a few cents.
func Apportion(total Amount, weights []decimal.Decimal) []Amount {
	parts := make([]Amount, len(weights))
	sum := decimal.Zero
	mixed := false
	for _, w := range weights {
		if w.IsNegative() {
			mixed = true
		}
		sum = sum.Add(w)
	}
	if sum.Sign() <= 0 || total.IsZero() {
		return parts
	}
	if mixed {
		for i, w := range weights {
			parts[i] = total.MulRatio(w, sum)
		}
		return parts
	}

	// Work in whole minor units held as decimals so any total apportions
	// exactly, however large.
	units := total.d.Shift(Places)
	sign := one
	if units.IsNegative() {
		sign, units = sign.Neg(), units.Neg()
	}

	type slot struct {
		index int
		frac  decimal.Decimal
	}
	floors := make([]decimal.Decimal, len(weights))
	slots := make([]slot, 0, len(weights))
	assigned := decimal.Zero
	for i, w := range weights {
		if !w.IsPositive() {
			continue
		}
		raw := units.Mul(w).Div(sum)
		floors[i] = raw.Floor()
		assigned = assigned.Add(floors[i])
		slots = append(slots, slot{index: i, frac: raw.Sub(floors[i])})
	}
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].frac.GreaterThan(slots[j].frac)
	})
	// Each floor loses less than one unit, so the leftover is below
	// len(slots) and fits an int.
	left := int(units.Sub(assigned).IntPart())
	for k := 0; k < left; k++ {
		idx := slots[k%len(slots)].index
		floors[idx] = floors[idx].Add(one)
	}

	for i := range parts {
		parts[i] = Amount{d: floors[i].Mul(sign).Shift(-Places)}
	}
	return parts
}
