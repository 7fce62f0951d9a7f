package physics

import (
	"errors"
	"slices"
	"testing"

	"pgregory.net/rapid"

	"github.com/lixenwraith/detphys/vmath"
)

func box(x0, y0, x1, y1 int) AABB {
	return NewAABB(vmath.V2Int(x0, y0), vmath.V2Int(x1, y1))
}

func TestSpatialHashPairs(t *testing.T) {
	tests := []struct {
		name   string
		bounds []AABB
		want   []Pair
	}{
		{"disjoint cells", []AABB{box(0, 0, 10, 10), box(200, 200, 210, 210)}, nil},
		{"same cell", []AABB{box(0, 0, 10, 10), box(20, 20, 30, 30)}, []Pair{{A: 0, B: 1}}},
		{"negative cells stay apart", []AABB{box(-10, -10, -1, -1), box(1, 1, 5, 5)}, nil},
		{"spanning box", []AABB{box(60, 0, 70, 10), box(100, 0, 110, 10), box(-50, 0, -40, 10)}, []Pair{{A: 0, B: 1}}},
		{"shared cells reported once", []AABB{box(60, 60, 70, 70), box(62, 62, 68, 68)}, []Pair{{A: 0, B: 1}}},
		{"touching on cell edge", []AABB{box(50, 0, 64, 10), box(64, 0, 80, 10)}, []Pair{{A: 0, B: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSpatialHash(vmath.FromInt(64))
			h.Build(tt.bounds)
			got := h.Pairs(nil)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Pairs = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpatialHashQuery(t *testing.T) {
	h := NewSpatialHash(vmath.FromInt(64))
	h.Insert(7, box(0, 0, 10, 10))
	h.Insert(3, box(20, 20, 100, 30))
	h.Insert(9, box(500, 500, 510, 510))

	if got := h.Query(box(0, 0, 70, 5)); !slices.Equal(got, []int{3, 7}) {
		t.Errorf("Query = %v, want [3 7]", got)
	}
	if got := h.Query(box(-300, -300, -200, -200)); len(got) != 0 {
		t.Errorf("empty query = %v", got)
	}

	h.Clear()
	if got := h.Query(box(0, 0, 600, 600)); len(got) != 0 {
		t.Errorf("after Clear = %v", got)
	}

	// Recycled cells must not leak old ids
	h.Insert(1, box(0, 0, 10, 10))
	if got := h.Query(box(0, 0, 10, 10)); !slices.Equal(got, []int{1}) {
		t.Errorf("after reuse = %v", got)
	}
}

func TestSweepAndPrune(t *testing.T) {
	s := NewSweepAndPrune()
	s.Add(4, box(0, 0, 10, 10))
	s.Add(2, box(10, 50, 20, 60)) // touches 4 on X only
	s.Add(9, box(30, 0, 40, 10))
	s.Add(1, box(5, 0, 35, 10))

	want := []Pair{{A: 1, B: 2}, {A: 1, B: 4}, {A: 1, B: 9}, {A: 2, B: 4}}
	if got := s.Pairs(nil); !slices.Equal(got, want) {
		t.Errorf("Pairs = %v, want %v", got, want)
	}

	s.Clear()
	if got := s.Pairs(nil); len(got) != 0 {
		t.Errorf("after Clear = %v", got)
	}
}

func TestBroadPhaseFactory(t *testing.T) {
	for _, kind := range []BroadPhaseKind{BroadPhaseSpatialHash, BroadPhaseSweepAndPrune, BroadPhaseBruteForce, ""} {
		if _, err := NewBroadPhase(kind, vmath.FromInt(64)); err != nil {
			t.Errorf("NewBroadPhase(%q): %v", kind, err)
		}
	}
	if _, err := NewBroadPhase("octree", vmath.FromInt(64)); !errors.Is(err, ErrUnknownBroadPhase) {
		t.Errorf("unknown kind err = %v", err)
	}
	if _, err := NewBroadPhase(BroadPhaseSpatialHash, 0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero cell err = %v", err)
	}
}

func drawBounds(t *rapid.T) []AABB {
	n := rapid.IntRange(0, 40).Draw(t, "n")
	bounds := make([]AABB, n)
	for i := range bounds {
		x := rapid.IntRange(-300, 300).Draw(t, "x")
		y := rapid.IntRange(-300, 300).Draw(t, "y")
		w := rapid.IntRange(0, 90).Draw(t, "w")
		h := rapid.IntRange(0, 90).Draw(t, "h")
		bounds[i] = box(x, y, x+w, y+h)
	}
	return bounds
}

func overlappingPairs(bounds []AABB) []Pair {
	var out []Pair
	for i := range bounds {
		for j := i + 1; j < len(bounds); j++ {
			if bounds[i].Intersects(bounds[j]) {
				out = append(out, Pair{A: i, B: j})
			}
		}
	}
	return out
}

func checkCanonical(t *rapid.T, name string, pairs []Pair) {
	for i, p := range pairs {
		if p.A >= p.B {
			t.Fatalf("%s: pair %v not canonical", name, p)
		}
		if i > 0 {
			q := pairs[i-1]
			if q.A > p.A || (q.A == p.A && q.B >= p.B) {
				t.Fatalf("%s: pairs not strictly sorted at %d: %v then %v", name, i, q, p)
			}
		}
	}
}

func TestBroadPhaseNoFalseNegatives(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bounds := drawBounds(t)
		if rapid.Bool().Draw(t, "rangeEdge") {
			// Boxes hanging over the edge of the Q16.16 range
			edge := rapid.IntRange(32750, 32767).Draw(t, "edge")
			bounds = append(bounds,
				AABBFromCenter(vmath.V2Int(edge, edge), vmath.Splat(vmath.FromInt(10))),
				AABBFromCenter(vmath.V2Int(edge-2, edge), vmath.Splat(vmath.FromInt(10))),
				AABBFromCenter(vmath.V2Int(-edge, -edge), vmath.Splat(vmath.FromInt(10))),
				AABBFromCenter(vmath.V2Int(2-edge, -edge), vmath.Splat(vmath.FromInt(10))),
			)
		}
		truth := overlappingPairs(bounds)
		cell := vmath.FromInt(rapid.SampledFrom([]int{1, 16, 64}).Draw(t, "cell"))

		for _, kind := range []BroadPhaseKind{BroadPhaseSpatialHash, BroadPhaseSweepAndPrune, BroadPhaseBruteForce} {
			bp, err := NewBroadPhase(kind, cell)
			if err != nil {
				t.Fatal(err)
			}
			bp.Build(bounds)
			got := bp.Pairs(nil)
			checkCanonical(t, string(kind), got)
			for _, p := range truth {
				if _, found := slices.BinarySearchFunc(got, p, comparePairs); !found {
					t.Fatalf("%s missed overlapping pair %v", kind, p)
				}
			}
		}
	})
}

func TestBroadPhaseRangeEdge(t *testing.T) {
	half := vmath.Splat(vmath.FromInt(10))
	tests := []struct {
		name string
		a, b vmath.Vec2
	}{
		{"positive x", vmath.V2Int(32760, 0), vmath.V2Int(32762, 0)},
		{"negative x", vmath.V2Int(-32760, 0), vmath.V2Int(-32762, 0)},
		{"positive y", vmath.V2Int(0, 32760), vmath.V2Int(0, 32762)},
		{"corner", vmath.V2Int(-32765, 32765), vmath.V2Int(-32760, 32760)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bounds := []AABB{AABBFromCenter(tt.a, half), AABBFromCenter(tt.b, half)}
			for _, b := range bounds {
				if b.Max.X < b.Min.X || b.Max.Y < b.Min.Y {
					t.Fatalf("bounds wrapped: %+v", b)
				}
			}
			if _, ok := AABBVsAABB(bounds[0], bounds[1]); !ok {
				t.Fatal("narrow phase reports no overlap")
			}

			for _, kind := range []BroadPhaseKind{BroadPhaseSpatialHash, BroadPhaseSweepAndPrune, BroadPhaseBruteForce} {
				bp, err := NewBroadPhase(kind, vmath.FromInt(64))
				if err != nil {
					t.Fatal(err)
				}
				bp.Build(bounds)
				if got := bp.Pairs(nil); !slices.Equal(got, []Pair{{A: 0, B: 1}}) {
					t.Errorf("%s pairs = %v, want [{0 1}]", kind, got)
				}
			}
		})
	}
}

func TestSpatialHashOversizedBoxes(t *testing.T) {
	h := NewSpatialHash(vmath.FromRatio(1, 1000))
	h.Insert(0, box(0, 0, 20, 20)) // about 4e8 cells at this size
	h.Insert(1, box(500, 500, 500, 500))
	h.Insert(2, box(900, 900, 900, 900))

	want := []Pair{{A: 0, B: 1}, {A: 0, B: 2}}
	if got := h.Pairs(nil); !slices.Equal(got, want) {
		t.Errorf("Pairs = %v, want %v", got, want)
	}
	if got := h.Query(box(900, 900, 900, 900)); !slices.Equal(got, []int{0, 2}) {
		t.Errorf("Query = %v, want [0 2]", got)
	}
	if got := h.Query(box(-100, -100, 100, 100)); !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("oversized Query = %v, want [0 1 2]", got)
	}

	h.Clear()
	h.Insert(5, box(0, 0, 1, 1))
	if got := h.Pairs(nil); len(got) != 0 {
		t.Errorf("after Clear Pairs = %v", got)
	}
}

func TestSweepAndPruneCoherentRebuild(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bounds := drawBounds(t)
		s := NewSweepAndPrune()
		s.Build(bounds)
		s.Pairs(nil)

		// Jitter every box and rebuild in place
		moved := make([]AABB, len(bounds))
		for i, b := range bounds {
			dx := rapid.IntRange(-20, 20).Draw(t, "dx")
			moved[i] = NewAABB(b.Min.Add(vmath.V2Int(dx, 0)), b.Max.Add(vmath.V2Int(dx, 0)))
		}
		s.Build(moved)

		fresh := NewSweepAndPrune()
		fresh.Build(moved)
		if got, want := s.Pairs(nil), fresh.Pairs(nil); !slices.Equal(got, want) {
			t.Fatalf("coherent rebuild = %v, fresh = %v", got, want)
		}
	})
}

func comparePairs(a, b Pair) int {
	if a.A != b.A {
		return a.A - b.A
	}
	return a.B - b.B
}

func BenchmarkBroadPhase(b *testing.B) {
	rng := vmath.NewFastRand(42)
	bounds := make([]AABB, 1000)
	for i := range bounds {
		c := rng.Vec2In(vmath.V2Int(0, 0), vmath.V2Int(2000, 2000))
		bounds[i] = AABBFromCenter(c, vmath.Splat(vmath.FromInt(10)))
	}

	for _, kind := range []BroadPhaseKind{BroadPhaseSpatialHash, BroadPhaseSweepAndPrune} {
		b.Run(string(kind), func(b *testing.B) {
			bp, _ := NewBroadPhase(kind, vmath.FromInt(64))
			var pairs []Pair
			for i := 0; i < b.N; i++ {
				bp.Build(bounds)
				pairs = bp.Pairs(pairs[:0])
			}
		})
	}
}
