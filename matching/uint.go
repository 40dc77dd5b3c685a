package matching

import (
	"fmt"
	"math"
	"strings"

	"lukechampine.com/uint128"
)

const (
	// UintPrecision is the amount of decimal places stored in a Uint.
	UintPrecision = 1_000_000_000_000
	// UintComma is the amount of zeros in UintPrecision.
	UintComma = 12
)

// Uint is an unsigned fixed-point number with UintComma decimal places used
// for all prices and quantities in the package. Backed by a 128-bit unsigned
// integer so sums over whole book sides can not overflow.
type Uint struct {
	v uint128.Uint128
}

func NewZeroUint() Uint {
	return Uint{}
}

func NewMaxUint() Uint {
	return Uint{v: uint128.Max}
}

// NewUint returns a Uint representing the whole number u.
func NewUint(u uint64) Uint {
	return Uint{v: uint128.From64(u).Mul64(UintPrecision)}
}

// NewUintRaw returns a Uint from an already scaled raw value.
func NewUintRaw(u uint64) Uint {
	return Uint{v: uint128.From64(u)}
}

// NewUintFromFloat converts a non-negative float to the fixed-point
// representation, rounding the fractional part to the nearest representable
// value. Negative and non-finite inputs yield zero; values of 2^64 whole
// units or more saturate to the maximum.
func NewUintFromFloat(f float64) Uint {
	if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return Uint{}
	}
	whole, frac := math.Modf(f)
	if whole >= math.MaxUint64 {
		return NewMaxUint()
	}
	return Uint{v: uint128.From64(uint64(whole)).Mul64(UintPrecision).Add64(uint64(math.Round(frac * UintPrecision)))}
}

// Float64 converts the fixed-point value back to a float.
// Exact only while the value fits the float mantissa, which holds for any
// realistic price or quantity; used for display and serialization only.
func (u Uint) Float64() float64 {
	quo, rem := u.v.QuoRem64(UintPrecision)
	return float64(quo.Lo) + float64(rem)/UintPrecision
}

func (u Uint) Add(v Uint) Uint {
	return Uint{v: u.v.Add(v.v)}
}

func (u Uint) Sub(v Uint) Uint {
	return Uint{v: u.v.Sub(v.v)}
}

func (u Uint) Mul64(v uint64) Uint {
	return Uint{v: u.v.Mul64(v)}
}

func (u Uint) Div64(v uint64) Uint {
	return Uint{v: u.v.Div64(v)}
}

func (u Uint) Cmp(v Uint) int {
	return u.v.Cmp(v.v)
}

func (u Uint) Equals(v Uint) bool {
	return u.v.Equals(v.v)
}

func (u Uint) LessThan(v Uint) bool {
	return u.v.Cmp(v.v) < 0
}

func (u Uint) LessThanOrEqualTo(v Uint) bool {
	return u.v.Cmp(v.v) <= 0
}

func (u Uint) GreaterThan(v Uint) bool {
	return u.v.Cmp(v.v) > 0
}

func (u Uint) GreaterThanOrEqualTo(v Uint) bool {
	return u.v.Cmp(v.v) >= 0
}

func (u Uint) IsZero() bool {
	return u.v.IsZero()
}

func (u Uint) IsMax() bool {
	return u.v.Equals(uint128.Max)
}

// String renders the value as a decimal number with trailing zeros trimmed.
func (u Uint) String() string {
	quo, rem := u.v.QuoRem64(UintPrecision)
	if rem == 0 {
		return quo.String()
	}
	frac := strings.TrimRight(fmt.Sprintf("%0*d", UintComma, rem), "0")
	return fmt.Sprintf("%s.%s", quo.String(), frac)
}

// Min returns the smaller of a and b.
func Min(a, b Uint) Uint {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Uint) Uint {
	if a.GreaterThan(b) {
		return a
	}
	return b
}
