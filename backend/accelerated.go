//go:build !purego

package backend

import (
	"github.com/lixenwraith/detphys/vmath"
)

// accel works on raw Q16.16 words with the loops unrolled four wide; AddBatch runs
// a SIMD kernel where the CPU has one
// Every expression mirrors the vmath method it replaces, including int32 wraparound,
// so results stay bit-identical to the portable backend
type accel struct{}

var accelBackend Backend = accel{}

func accelerated() Backend {
	if !cpuSupported() {
		return nil
	}
	return accelBackend
}

func (accel) Name() string      { return AcceleratedName }
func (accel) Accelerated() bool { return true }
func (accel) Cycles() uint64    { return hwCycles() }

func mulRaw(a, b int32) int32 { return int32((int64(a) * int64(b)) >> vmath.Shift) }

func (accel) AddBatch(a, b, out []vmath.Vec2) {
	n := minLen(len(a), len(b), len(out))
	addVec2s(a[:n], b[:n], out[:n])
}

// addVec2sGo is the unrolled fallback when no vector kernel applies
func addVec2sGo(a, b, out []vmath.Vec2) {
	n := len(out)
	a, b = a[:n], b[:n]
	i := 0
	for ; i+4 <= n; i += 4 {
		out[i] = vmath.Vec2{X: a[i].X + b[i].X, Y: a[i].Y + b[i].Y}
		out[i+1] = vmath.Vec2{X: a[i+1].X + b[i+1].X, Y: a[i+1].Y + b[i+1].Y}
		out[i+2] = vmath.Vec2{X: a[i+2].X + b[i+2].X, Y: a[i+2].Y + b[i+2].Y}
		out[i+3] = vmath.Vec2{X: a[i+3].X + b[i+3].X, Y: a[i+3].Y + b[i+3].Y}
	}
	for ; i < n; i++ {
		out[i] = vmath.Vec2{X: a[i].X + b[i].X, Y: a[i].Y + b[i].Y}
	}
}

func (accel) ScaleBatch(a []vmath.Vec2, s vmath.Fixed, out []vmath.Vec2) {
	n := minLen(len(a), len(out))
	a, out = a[:n], out[:n]
	sr := int32(s)
	i := 0
	for ; i+4 <= n; i += 4 {
		out[i] = scaleRaw(a[i], sr)
		out[i+1] = scaleRaw(a[i+1], sr)
		out[i+2] = scaleRaw(a[i+2], sr)
		out[i+3] = scaleRaw(a[i+3], sr)
	}
	for ; i < n; i++ {
		out[i] = scaleRaw(a[i], sr)
	}
}

func scaleRaw(v vmath.Vec2, s int32) vmath.Vec2 {
	return vmath.Vec2{X: vmath.Fixed(mulRaw(int32(v.X), s)), Y: vmath.Fixed(mulRaw(int32(v.Y), s))}
}

func dotRaw(a, b vmath.Vec2) vmath.Fixed {
	return vmath.Fixed(mulRaw(int32(a.X), int32(b.X)) + mulRaw(int32(a.Y), int32(b.Y)))
}

func (accel) DotBatch(a, b []vmath.Vec2, out []vmath.Fixed) {
	n := minLen(len(a), len(b), len(out))
	a, b, out = a[:n], b[:n], out[:n]
	i := 0
	for ; i+4 <= n; i += 4 {
		out[i] = dotRaw(a[i], b[i])
		out[i+1] = dotRaw(a[i+1], b[i+1])
		out[i+2] = dotRaw(a[i+2], b[i+2])
		out[i+3] = dotRaw(a[i+3], b[i+3])
	}
	for ; i < n; i++ {
		out[i] = dotRaw(a[i], b[i])
	}
}

// Normalization needs the integer square root; no faster exact form exists, so this
// only hoists bounds checks
func (accel) NormalizeBatch(a, out []vmath.Vec2) {
	n := minLen(len(a), len(out))
	a, out = a[:n], out[:n]
	for i := range a {
		out[i] = a[i].Normalize()
	}
}

func integrateRaw(p, v, a *vmath.Vec2, dt int32) {
	vx := int32(v.X) + mulRaw(int32(a.X), dt)
	vy := int32(v.Y) + mulRaw(int32(a.Y), dt)
	p.X = vmath.Fixed(int32(p.X) + mulRaw(vx, dt))
	p.Y = vmath.Fixed(int32(p.Y) + mulRaw(vy, dt))
	v.X, v.Y = vmath.Fixed(vx), vmath.Fixed(vy)
	*a = vmath.Vec2{}
}

func (accel) IntegrateBatch(pos, vel, acc []vmath.Vec2, invMass []vmath.Fixed, dt vmath.Fixed) {
	n := minLen(len(pos), len(vel), len(acc), len(invMass))
	pos, vel, acc, invMass = pos[:n], vel[:n], acc[:n], invMass[:n]
	d := int32(dt)
	i := 0
	for ; i+4 <= n; i += 4 {
		if invMass[i] != 0 {
			integrateRaw(&pos[i], &vel[i], &acc[i], d)
		}
		if invMass[i+1] != 0 {
			integrateRaw(&pos[i+1], &vel[i+1], &acc[i+1], d)
		}
		if invMass[i+2] != 0 {
			integrateRaw(&pos[i+2], &vel[i+2], &acc[i+2], d)
		}
		if invMass[i+3] != 0 {
			integrateRaw(&pos[i+3], &vel[i+3], &acc[i+3], d)
		}
	}
	for ; i < n; i++ {
		if invMass[i] != 0 {
			integrateRaw(&pos[i], &vel[i], &acc[i], d)
		}
	}
}

func (accel) CircleOverlapBatch(centers []vmath.Vec2, radii []vmath.Fixed, out []Pair) []Pair {
	n := minLen(len(centers), len(radii))
	centers, radii = centers[:n], radii[:n]
	for i := 0; i < n; i++ {
		xi, yi := int32(centers[i].X), int32(centers[i].Y)
		ri := int64(radii[i])
		for j := i + 1; j < n; j++ {
			// int32 subtraction wraps exactly like Vec2.Sub
			dx := int64(int32(centers[j].X) - xi)
			dy := int64(int32(centers[j].Y) - yi)
			sum := ri + int64(radii[j])
			if uint64(dx*dx)+uint64(dy*dy) < uint64(sum*sum) {
				out = append(out, Pair{A: i, B: j})
			}
		}
	}
	return out
}

func (accel) AABBOverlapBatch(mins, maxs []vmath.Vec2, candidates []Pair, out []Pair) []Pair {
	n := minLen(len(mins), len(maxs))
	mins, maxs = mins[:n], maxs[:n]
	for _, p := range candidates {
		if uint(p.A) >= uint(n) || uint(p.B) >= uint(n) {
			continue
		}
		a0, a1, b0, b1 := mins[p.A], maxs[p.A], mins[p.B], maxs[p.B]
		if a0.X <= b1.X && a1.X >= b0.X && a0.Y <= b1.Y && a1.Y >= b0.Y {
			out = append(out, p)
		}
	}
	return out
}
