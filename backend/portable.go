package backend

import (
	"time"

	"github.com/lixenwraith/detphys/vmath"
)

// epoch anchors the monotonic counter; time.Since reads the monotonic clock
var epoch = time.Now()

func monotonicCycles() uint64 {
	return uint64(time.Since(epoch))
}

type portable struct{}

var portableBackend Backend = portable{}

// Portable returns the reference implementation, always available
func Portable() Backend { return portableBackend }

func (portable) Name() string      { return PortableName }
func (portable) Accelerated() bool { return false }
func (portable) Cycles() uint64    { return monotonicCycles() }

func (portable) AddBatch(a, b, out []vmath.Vec2) {
	n := minLen(len(a), len(b), len(out))
	for i := 0; i < n; i++ {
		out[i] = a[i].Add(b[i])
	}
}

func (portable) ScaleBatch(a []vmath.Vec2, s vmath.Fixed, out []vmath.Vec2) {
	n := minLen(len(a), len(out))
	for i := 0; i < n; i++ {
		out[i] = a[i].Scale(s)
	}
}

func (portable) DotBatch(a, b []vmath.Vec2, out []vmath.Fixed) {
	n := minLen(len(a), len(b), len(out))
	for i := 0; i < n; i++ {
		out[i] = a[i].Dot(b[i])
	}
}

func (portable) NormalizeBatch(a, out []vmath.Vec2) {
	n := minLen(len(a), len(out))
	for i := 0; i < n; i++ {
		out[i] = a[i].Normalize()
	}
}

func (portable) IntegrateBatch(pos, vel, acc []vmath.Vec2, invMass []vmath.Fixed, dt vmath.Fixed) {
	n := minLen(len(pos), len(vel), len(acc), len(invMass))
	for i := 0; i < n; i++ {
		if invMass[i] == 0 {
			continue
		}
		vel[i] = vel[i].Add(acc[i].Scale(dt))
		pos[i] = pos[i].Add(vel[i].Scale(dt))
		acc[i] = vmath.Vec2{}
	}
}

func (portable) CircleOverlapBatch(centers []vmath.Vec2, radii []vmath.Fixed, out []Pair) []Pair {
	n := minLen(len(centers), len(radii))
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if circleOverlap(centers[i], centers[j], radii[i], radii[j]) {
				out = append(out, Pair{A: i, B: j})
			}
		}
	}
	return out
}

func (portable) AABBOverlapBatch(mins, maxs []vmath.Vec2, candidates []Pair, out []Pair) []Pair {
	n := minLen(len(mins), len(maxs))
	for _, p := range candidates {
		if p.A < 0 || p.B < 0 || p.A >= n || p.B >= n {
			continue
		}
		if boxOverlap(mins[p.A], maxs[p.A], mins[p.B], maxs[p.B]) {
			out = append(out, p)
		}
	}
	return out
}
