// Package backend provides the hot-path batch routines of the physics core behind
// one interface. Two implementations exist: a portable one built from plain loops,
// and an accelerated one (hand-unrolled loops, hardware cycle counter) that is
// compiled out by the purego build tag. Both produce bit-identical results for
// identical inputs; callers never branch on which one is active.
package backend

import (
	"log"
	"os"
	"sync"

	"github.com/lixenwraith/detphys/vmath"
)

const (
	PortableName    = "portable"
	AcceleratedName = "accelerated"

	// EnvBackend forces a backend at startup: portable, accelerated or auto
	EnvBackend = "DETPHYS_BACKEND"
)

// Pair is a canonical (A < B) pair of body indices
type Pair struct {
	A, B int
}

// MakePair returns the pair ordered as (min, max)
func MakePair(a, b int) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Backend is the contract every hot-path implementation satisfies
// Batch routines process min(len(inputs)) elements and never allocate unless
// appending to a caller-provided output slice
type Backend interface {
	Name() string
	Accelerated() bool

	// Cycles returns a monotonic counter reading, units are backend-specific
	Cycles() uint64

	AddBatch(a, b, out []vmath.Vec2)
	ScaleBatch(a []vmath.Vec2, s vmath.Fixed, out []vmath.Vec2)
	DotBatch(a, b []vmath.Vec2, out []vmath.Fixed)
	NormalizeBatch(a, out []vmath.Vec2)

	// IntegrateBatch applies semi-implicit Euler in place: v += a*dt, p += v*dt, a = 0
	// Entries with zero inverse mass are skipped untouched
	IntegrateBatch(pos, vel, acc []vmath.Vec2, invMass []vmath.Fixed, dt vmath.Fixed)

	// CircleOverlapBatch appends every overlapping (i, j), i < j, in lexicographic order
	CircleOverlapBatch(centers []vmath.Vec2, radii []vmath.Fixed, out []Pair) []Pair

	// AABBOverlapBatch appends the candidates whose boxes intersect (inclusive), in input order
	AABBOverlapBatch(mins, maxs []vmath.Vec2, candidates []Pair, out []Pair) []Pair
}

var (
	selectOnce sync.Once
	selected   Backend
)

// Default returns the backend chosen once per process from EnvBackend
func Default() Backend {
	selectOnce.Do(func() {
		selected = Select(os.Getenv(EnvBackend))
	})
	return selected
}

// Select resolves a backend preference, substituting the portable backend with a
// logged warning when the requested one is unavailable
func Select(preference string) Backend {
	switch preference {
	case "", "auto", AcceleratedName:
		if b := accelerated(); b != nil {
			return b
		}
		log.Printf("backend: accelerated routines unavailable on this build, using %s", PortableName)
		return Portable()
	case PortableName:
		return Portable()
	default:
		log.Printf("backend: unknown backend %q, using %s", preference, PortableName)
		return Portable()
	}
}

// Lookup returns a compiled-in backend by name
func Lookup(name string) (Backend, bool) {
	for _, b := range Available() {
		if b.Name() == name {
			return b, true
		}
	}
	return nil, false
}

// Available lists compiled-in and usable backends, portable first
func Available() []Backend {
	list := []Backend{Portable()}
	if b := accelerated(); b != nil {
		list = append(list, b)
	}
	return list
}

func minLen(ns ...int) int {
	m := ns[0]
	for _, n := range ns[1:] {
		if n < m {
			m = n
		}
	}
	return m
}

// circleOverlap is the shared predicate: squared distance strictly below squared radius sum
func circleOverlap(a, b vmath.Vec2, ra, rb vmath.Fixed) bool {
	sum := int64(ra) + int64(rb)
	return a.DistanceSqRaw(b) < uint64(sum*sum)
}

func boxOverlap(minA, maxA, minB, maxB vmath.Vec2) bool {
	return minA.X <= maxB.X && maxA.X >= minB.X &&
		minA.Y <= maxB.Y && maxA.Y >= minB.Y
}
