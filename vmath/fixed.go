package vmath

import (
	"fmt"
	"math"
	"math/bits"
)

// Q16.16 Fixed Point constants
const (
	Shift = 16
	Scale = 1 << Shift
	Mask  = Scale - 1
)

// Fixed is a Q16.16 signed fixed-point number
// All arithmetic wraps on overflow; comparisons are exact integer comparisons of the raw value
type Fixed int32

const (
	Zero     Fixed = 0
	One      Fixed = Scale
	Half     Fixed = Scale >> 1
	NegOne   Fixed = -Scale
	Epsilon  Fixed = 1
	MaxFixed Fixed = math.MaxInt32
	MinFixed Fixed = math.MinInt32
)

// --- Construction ---

func FromRaw(raw int32) Fixed { return Fixed(raw) }

// FromInt wraps when i is outside the 16-bit integer range
func FromInt(i int) Fixed { return Fixed(int32(i) << Shift) }

// FromFloat is lossy, truncating toward zero
func FromFloat(f float64) Fixed { return Fixed(int32(f * Scale)) }

// FromRatio returns num/den, zero when den is zero
func FromRatio(num, den int) Fixed {
	if den == 0 {
		return Zero
	}
	return Fixed(int32((int64(num) << Shift) / int64(den)))
}

func (a Fixed) Raw() int32          { return int32(a) }
func (a Fixed) Int() int            { return int(int32(a) >> Shift) }
func (a Fixed) Float() float64      { return float64(a) / Scale }
func (a Fixed) Frac() Fixed         { return a & Mask }
func (a Fixed) String() string      { return fmt.Sprintf("%.4f", a.Float()) }
func (a Fixed) IsZero() bool        { return a == 0 }
func (a Fixed) Less(b Fixed) bool   { return a < b }
func (a Fixed) LessEq(b Fixed) bool { return a <= b }

// Cmp returns -1, 0 or 1
func (a Fixed) Cmp(b Fixed) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// --- Arithmetic ---

func (a Fixed) Add(b Fixed) Fixed { return Fixed(int32(a) + int32(b)) }
func (a Fixed) Sub(b Fixed) Fixed { return Fixed(int32(a) - int32(b)) }
func (a Fixed) Neg() Fixed        { return Fixed(-int32(a)) }

// AddSat and SubSat clamp to [MinFixed, MaxFixed] instead of wrapping
func (a Fixed) AddSat(b Fixed) Fixed { return saturate(int64(a) + int64(b)) }
func (a Fixed) SubSat(b Fixed) Fixed { return saturate(int64(a) - int64(b)) }

func saturate(v int64) Fixed {
	switch {
	case v > math.MaxInt32:
		return MaxFixed
	case v < math.MinInt32:
		return MinFixed
	}
	return Fixed(v)
}

// Mul uses a 64-bit intermediate, shifted right by 16, then truncated to 32 bits
func (a Fixed) Mul(b Fixed) Fixed {
	return Fixed(int32((int64(a) * int64(b)) >> Shift))
}

// Div shifts the dividend left by 16 in 64 bits before dividing
// Division by zero returns Zero instead of failing: a degenerate divisor during a frame
// must never abort the step. The cost is a silently wrong quotient; use DivChecked where
// that matters
func (a Fixed) Div(b Fixed) Fixed {
	if b == 0 {
		return Zero
	}
	return Fixed(int32((int64(a) << Shift) / int64(b)))
}

// DivChecked reports false on a zero divisor
func (a Fixed) DivChecked(b Fixed) (Fixed, bool) {
	if b == 0 {
		return Zero, false
	}
	return a.Div(b), true
}

// MulInt multiplies by a plain integer, wrapping
func (a Fixed) MulInt(n int) Fixed { return Fixed(int32(a) * int32(n)) }

// --- Rounding and range ---

func (a Fixed) Floor() Fixed { return a &^ Mask }

func (a Fixed) Ceil() Fixed {
	return Fixed(((int32(a) - 1) | Mask) + 1)
}

// Abs wraps for MinFixed
func (a Fixed) Abs() Fixed {
	if a < 0 {
		return a.Neg()
	}
	return a
}

// Sign returns NegOne, Zero or One
func (a Fixed) Sign() Fixed {
	switch {
	case a < 0:
		return NegOne
	case a > 0:
		return One
	}
	return Zero
}

func (a Fixed) Min(b Fixed) Fixed {
	if b < a {
		return b
	}
	return a
}

func (a Fixed) Max(b Fixed) Fixed {
	if b > a {
		return b
	}
	return a
}

func (a Fixed) Clamp(lo, hi Fixed) Fixed { return a.Max(lo).Min(hi) }

// Lerp returns a + (b-a)*t
func (a Fixed) Lerp(b, t Fixed) Fixed {
	return a.Add(b.Sub(a).Mul(t))
}

// Sqrt returns the integer square root in Q16.16, zero for non-positive input
// Exact for perfect squares
func (a Fixed) Sqrt() Fixed {
	if a <= 0 {
		return 0
	}
	return Fixed(isqrt(uint64(a) << Shift))
}

// isqrt returns floor(sqrt(n)) using the bit-pair method, no floating point
func isqrt(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	var res uint64
	// Highest even power of two not above n
	bit := uint64(1) << ((bits.Len64(n) - 1) &^ 1)
	for bit != 0 {
		if n >= res+bit {
			n -= res + bit
			res = (res >> 1) + bit
		} else {
			res >>= 1
		}
		bit >>= 2
	}
	return res
}
