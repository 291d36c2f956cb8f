package categorical

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Field is the arithmetic a probability weight type must provide.
// Implementations are stateless values and safe to share.
type Field[P any] interface {
	// Zero returns the additive identity
	Zero() P

	// One returns the multiplicative identity
	One() P

	Add(a, b P) P
	Mul(a, b P) P

	// Div divides a by a non-zero b
	Div(a, b P) P

	// Sign returns -1, 0 or +1. Values that can never be probability mass
	// (NaN and infinities) report -1.
	Sign(p P) int

	// Parse reads a weight from its decimal string form
	Parse(s string) (P, error)

	// Format renders a weight for display
	Format(p P) string

	// Float64 converts a weight for display and tolerance checks
	Float64(p P) float64
}

// Float64 is the native floating point field.
var Float64 Field[float64] = float64Field{}

type float64Field struct{}

func (float64Field) Zero() float64 { return 0 }
func (float64Field) One() float64 { return 1 }
func (float64Field) Add(a, b float64) float64 { return a + b }
func (float64Field) Mul(a, b float64) float64 { return a * b }
func (float64Field) Div(a, b float64) float64 { return a / b }
func (float64Field) Float64(p float64) float64 { return p }
func (float64Field) Format(p float64) string { return strconv.FormatFloat(p, 'g', -1, 64) }
func (float64Field) Parse(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func (float64Field) Sign(p float64) int {
	switch {
	case math.IsNaN(p), math.IsInf(p, 0), p < 0:
		return -1
	case p == 0:
		return 0
	default:
		return 1
	}
}

// Decimal is the exact decimal field with the library's default division precision.
var Decimal Field[decimal.Decimal] = DecimalField{}

// DecimalField performs arithmetic on shopspring decimals. Addition and
// multiplication are exact; division rounds to Precision places.
type DecimalField struct {
	// Precision is the number of decimal places kept by Div.
	// Zero means decimal.DivisionPrecision.
	Precision int32
}

// NewDecimalField creates a decimal field that divides to the given precision
func NewDecimalField(precision int32) DecimalField {
	return DecimalField{Precision: precision}
}

func (DecimalField) Zero() decimal.Decimal { return decimal.Zero }
func (DecimalField) One() decimal.Decimal  { return decimal.NewFromInt(1) }

func (DecimalField) Add(a, b decimal.Decimal) decimal.Decimal { return a.Add(b) }
func (DecimalField) Mul(a, b decimal.Decimal) decimal.Decimal { return a.Mul(b) }

func (f DecimalField) Div(a, b decimal.Decimal) decimal.Decimal {
	if f.Precision <= 0 {
		return a.Div(b)
	}
	return a.DivRound(b, f.Precision)
}

func (DecimalField) Sign(p decimal.Decimal) int { return p.Sign() }

func (DecimalField) Parse(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

func (DecimalField) Format(p decimal.Decimal) string { return p.String() }

func (DecimalField) Float64(p decimal.Decimal) float64 {
	f, _ := p.Float64()
	return f
}
