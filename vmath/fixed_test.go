package vmath

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestFixedBasicOps(t *testing.T) {
	a := FromFloat(2.5)
	b := FromFloat(1.5)

	tests := []struct {
		name string
		got  Fixed
		want Fixed
	}{
		{"add", a.Add(b), FromInt(4)},
		{"sub", a.Sub(b), One},
		{"mul", a.Mul(b), FromFloat(3.75)},
		{"div", FromFloat(7.5).Div(a), FromInt(3)},
		{"neg", a.Neg(), FromFloat(-2.5)},
		{"lerp half", FromInt(2).Lerp(FromInt(4), Half), FromInt(3)},
		{"ratio", FromRatio(1, 4), FromFloat(0.25)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v (raw %d), want %v (raw %d)", tt.got, tt.got.Raw(), tt.want, tt.want.Raw())
			}
		})
	}
}

func TestFixedRounding(t *testing.T) {
	tests := []struct {
		in          float64
		floor, ceil int
	}{
		{2.5, 2, 3},
		{-2.5, -3, -2},
		{2.0, 2, 2},
		{0, 0, 0},
		{-0.25, -1, 0},
	}

	for _, tt := range tests {
		f := FromFloat(tt.in)
		if got := f.Floor(); got != FromInt(tt.floor) {
			t.Errorf("Floor(%v) = %v, want %d", tt.in, got, tt.floor)
		}
		if got := f.Ceil(); got != FromInt(tt.ceil) {
			t.Errorf("Ceil(%v) = %v, want %d", tt.in, got, tt.ceil)
		}
	}
}

func TestFixedDivByZeroSaturates(t *testing.T) {
	if got := FromInt(42).Div(Zero); got != Zero {
		t.Errorf("Div by zero = %v, want 0", got)
	}
	if _, ok := FromInt(42).DivChecked(Zero); ok {
		t.Error("DivChecked should report a zero divisor")
	}
	if got, ok := FromInt(42).DivChecked(FromInt(2)); !ok || got != FromInt(21) {
		t.Errorf("DivChecked(42, 2) = %v, %v", got, ok)
	}
	if got := FromRatio(5, 0); got != Zero {
		t.Errorf("FromRatio(5, 0) = %v, want 0", got)
	}
}

func TestFixedWrapsInsteadOfPanicking(t *testing.T) {
	if got := MaxFixed.Add(Epsilon); got != MinFixed {
		t.Errorf("MaxFixed+1 = %d, want wrap to %d", got.Raw(), MinFixed.Raw())
	}
	if got := MinFixed.Neg(); got != MinFixed {
		t.Errorf("-MinFixed = %d, want %d", got.Raw(), MinFixed.Raw())
	}
	if got := MinFixed.Abs(); got != MinFixed {
		t.Errorf("Abs(MinFixed) = %d, want %d", got.Raw(), MinFixed.Raw())
	}
	// 64-bit intermediate: 200*200 overflows Q16.16 but must not panic
	_ = FromInt(200).Mul(FromInt(200))
	_ = MinFixed.Div(NegOne)
}

func TestFixedMinMaxClamp(t *testing.T) {
	lo, hi := FromInt(-1), FromInt(1)
	if got := FromInt(5).Clamp(lo, hi); got != hi {
		t.Errorf("Clamp(5) = %v", got)
	}
	if got := FromInt(-5).Clamp(lo, hi); got != lo {
		t.Errorf("Clamp(-5) = %v", got)
	}
	if got := Half.Clamp(lo, hi); got != Half {
		t.Errorf("Clamp(0.5) = %v", got)
	}
	if FromInt(3).Min(FromInt(2)) != FromInt(2) || FromInt(3).Max(FromInt(2)) != FromInt(3) {
		t.Error("Min/Max mismatch")
	}
	if FromInt(-3).Sign() != NegOne || Zero.Sign() != Zero || Half.Sign() != One {
		t.Error("Sign mismatch")
	}
}

func TestFixedSqrt(t *testing.T) {
	for n := 0; n <= 181; n++ {
		if got := FromInt(n * n).Sqrt(); got != FromInt(n) {
			t.Fatalf("Sqrt(%d) = %v, want %d", n*n, got, n)
		}
	}
	if got := FromInt(-4).Sqrt(); got != Zero {
		t.Errorf("Sqrt(-4) = %v, want 0", got)
	}
	// Floor of sqrt(2) * 65536
	if got := FromInt(2).Sqrt().Raw(); got != 92681 {
		t.Errorf("Sqrt(2) raw = %d, want 92681", got)
	}
}

func TestIsqrtFloor(t *testing.T) {
	for _, n := range []uint64{0, 1, 2, 3, 4, 1 << 62, math.MaxUint32 << Shift} {
		r := isqrt(n)
		if r*r > n || (r+1)*(r+1) <= n {
			t.Errorf("isqrt(%d) = %d", n, r)
		}
	}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Uint64Range(0, 1<<62).Draw(t, "n")
		r := isqrt(n)
		if r*r > n || (r+1)*(r+1) <= n {
			t.Fatalf("isqrt(%d) = %d is not the floor root", n, r)
		}
	})
}

func TestFixedProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := Fixed(rapid.Int32().Draw(t, "a"))
		b := Fixed(rapid.Int32().Draw(t, "b"))

		if got := a.Add(b).Sub(b); got != a {
			t.Fatalf("a+b-b = %d, want %d", got.Raw(), a.Raw())
		}
		if got := a.Mul(One); got != a {
			t.Fatalf("a*ONE = %d, want %d", got.Raw(), a.Raw())
		}
		if got := a.Div(Zero); got != Zero {
			t.Fatalf("a/0 = %d, want 0", got.Raw())
		}
		if a.Less(b) != (a.Raw() < b.Raw()) || a.LessEq(b) != (a.Raw() <= b.Raw()) {
			t.Fatalf("ordering of %d, %d is not raw integer ordering", a.Raw(), b.Raw())
		}
		if got := a.Lerp(b, Zero); got != a {
			t.Fatalf("lerp(t=0) = %d, want %d", got.Raw(), a.Raw())
		}
		if got := a.Lerp(b, One); got != b {
			t.Fatalf("lerp(t=1) = %d, want %d", got.Raw(), b.Raw())
		}
	})
}

func TestFixedFloorCeilProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := Fixed(rapid.Int32Range(-1<<30, 1<<30).Draw(t, "a"))

		fl, ce := a.Floor(), a.Ceil()
		if fl > a || ce < a {
			t.Fatalf("floor %d / ceil %d do not bracket %d", fl.Raw(), ce.Raw(), a.Raw())
		}
		if fl.Frac() != 0 || ce.Frac() != 0 {
			t.Fatalf("floor/ceil of %d not integral", a.Raw())
		}
		if ce.Sub(fl) > One {
			t.Fatalf("ceil-floor of %d exceeds one", a.Raw())
		}
	})
}
