package vmath

import "math/bits"

// FastRand is a splitmix64 stream: every seed, zero included, gives a full-period
// sequence, and the same seed always gives the same scene
type FastRand struct {
	state uint64
}

const golden = 0x9e3779b97f4a7c15

func NewFastRand(seed uint64) *FastRand {
	return &FastRand{state: seed}
}

func (r *FastRand) Next() uint64 {
	r.state += golden
	z := r.state
	z = (z ^ z>>30) * 0xbf58476d1ce4e5b9
	z = (z ^ z>>27) * 0x94d049bb133111eb
	return z ^ z>>31
}

func (r *FastRand) Uint32() uint32 { return uint32(r.Next() >> 32) }

// below maps a draw onto [0, n) by taking the high word of a 128-bit product
func (r *FastRand) below(n uint64) uint64 {
	hi, _ := bits.Mul64(r.Next(), n)
	return hi
}

// Intn returns a value in [0, n), 0 for n <= 0
func (r *FastRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.below(uint64(n)))
}

// FixedRange returns a value in [lo, hi), lo when the range is empty
func (r *FastRand) FixedRange(lo, hi Fixed) Fixed {
	span := int64(hi) - int64(lo)
	if span <= 0 {
		return lo
	}
	return Fixed(int64(lo) + int64(r.below(uint64(span))))
}

// Vec2In returns a vector with each component in [min, max)
func (r *FastRand) Vec2In(min, max Vec2) Vec2 {
	return Vec2{r.FixedRange(min.X, max.X), r.FixedRange(min.Y, max.Y)}
}
