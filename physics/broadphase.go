package physics

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/lixenwraith/detphys/backend"
	"github.com/lixenwraith/detphys/vmath"
)

// BroadPhase narrows all body pairs to a candidate superset of the overlapping ones
// Implementations never drop a truly overlapping pair; false positives are expected
// Pairs are canonical (A < B), sorted and unique
type BroadPhase interface {
	// Build replaces the contents with one entry per box, id = index
	Build(bounds []AABB)
	// Pairs appends candidate pairs to dst
	Pairs(dst []Pair) []Pair
}

// BroadPhaseKind names a broad-phase algorithm in configuration
type BroadPhaseKind string

const (
	BroadPhaseSpatialHash   BroadPhaseKind = "spatial_hash"
	BroadPhaseSweepAndPrune BroadPhaseKind = "sweep_and_prune"
	BroadPhaseBruteForce    BroadPhaseKind = "brute_force"
)

// NewBroadPhase constructs the named algorithm; cellSize applies to the spatial hash only
func NewBroadPhase(kind BroadPhaseKind, cellSize vmath.Fixed) (BroadPhase, error) {
	switch kind {
	case BroadPhaseSpatialHash, "":
		if cellSize <= 0 {
			return nil, fmt.Errorf("%w: cell size %v", ErrInvalidConfig, cellSize)
		}
		return NewSpatialHash(cellSize), nil
	case BroadPhaseSweepAndPrune:
		return NewSweepAndPrune(), nil
	case BroadPhaseBruteForce:
		return &BruteForce{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBroadPhase, kind)
}

func sortPairs(p []Pair) []Pair {
	slices.SortFunc(p, func(x, y Pair) int {
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}
		return cmp.Compare(x.B, y.B)
	})
	return slices.Compact(p)
}

// --- Spatial hash ---

type cellKey struct {
	X, Y int32
}

// MaxCellsPerBox bounds the cells one box is registered in; larger boxes are kept in a
// separate list and paired with every other id
const MaxCellsPerBox = 1024

// MinCellSize is the smallest cell edge a world accepts
const MinCellSize = vmath.One

// SpatialHash buckets ids into square cells; a box is registered in every cell it overlaps
type SpatialHash struct {
	cellSize  vmath.Fixed
	cells     map[cellKey][]int
	pool      [][]int // recycled cell slices
	ids       []int   // every inserted id
	oversized []int   // ids whose box spans more than MaxCellsPerBox cells
}

func NewSpatialHash(cellSize vmath.Fixed) *SpatialHash {
	return &SpatialHash{
		cellSize: cellSize,
		cells:    make(map[cellKey][]int),
	}
}

func (h *SpatialHash) CellSize() vmath.Fixed { return h.cellSize }

// Clear empties all cells, keeping their storage for reuse
func (h *SpatialHash) Clear() {
	for k, ids := range h.cells {
		h.pool = append(h.pool, ids[:0])
		delete(h.cells, k)
	}
	h.ids = h.ids[:0]
	h.oversized = h.oversized[:0]
}

// floorDiv divides raw values rounding toward negative infinity
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func (h *SpatialHash) cellOf(p vmath.Vec2) cellKey {
	c := int64(h.cellSize)
	return cellKey{
		X: int32(floorDiv(int64(p.X), c)),
		Y: int32(floorDiv(int64(p.Y), c)),
	}
}

// cellSpan returns the number of cells box overlaps, zero for an inverted box
func cellSpan(lo, hi cellKey) int64 {
	if hi.X < lo.X || hi.Y < lo.Y {
		return 0
	}
	return (int64(hi.X) - int64(lo.X) + 1) * (int64(hi.Y) - int64(lo.Y) + 1)
}

// Insert registers id in every cell overlapped by box
func (h *SpatialHash) Insert(id int, box AABB) {
	h.ids = append(h.ids, id)
	lo, hi := h.cellOf(box.Min), h.cellOf(box.Max)
	if cellSpan(lo, hi) > MaxCellsPerBox {
		h.oversized = append(h.oversized, id)
		return
	}
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			k := cellKey{x, y}
			ids, ok := h.cells[k]
			if !ok && len(h.pool) > 0 {
				ids = h.pool[len(h.pool)-1]
				h.pool = h.pool[:len(h.pool)-1]
			}
			h.cells[k] = append(ids, id)
		}
	}
}

// Query returns the sorted, deduplicated ids of all cells overlapped by box
// A box spanning more than MaxCellsPerBox cells returns every inserted id
func (h *SpatialHash) Query(box AABB) []int {
	lo, hi := h.cellOf(box.Min), h.cellOf(box.Max)
	if cellSpan(lo, hi) > MaxCellsPerBox {
		return slices.Compact(slices.Sorted(slices.Values(h.ids)))
	}
	result := slices.Clone(h.oversized)
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			result = append(result, h.cells[cellKey{x, y}]...)
		}
	}
	slices.Sort(result)
	return slices.Compact(result)
}

func (h *SpatialHash) Build(bounds []AABB) {
	h.Clear()
	for i, b := range bounds {
		h.Insert(i, b)
	}
}

// Pairs appends every same-cell pair once, plus every oversized id against all others
func (h *SpatialHash) Pairs(dst []Pair) []Pair {
	start := len(dst)
	for _, ids := range h.cells {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				dst = append(dst, backend.MakePair(ids[i], ids[j]))
			}
		}
	}
	for _, big := range h.oversized {
		for _, id := range h.ids {
			if id != big {
				dst = append(dst, backend.MakePair(big, id))
			}
		}
	}
	return append(dst[:start], sortPairs(dst[start:])...)
}

// --- Sweep and prune ---

type endpoint struct {
	value vmath.Fixed
	id    int
	isMin bool
}

// compareEndpoints orders by value, then min before max so touching intervals pair, then id
func compareEndpoints(a, b endpoint) int {
	if c := cmp.Compare(a.value, b.value); c != 0 {
		return c
	}
	if a.isMin != b.isMin {
		if a.isMin {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.id, b.id)
}

// SweepAndPrune projects boxes onto the X axis and sweeps sorted endpoints with an active set
// Rebuilding with the same body count keeps the previous order, so the insertion sort
// runs in near-linear time when bodies move little between steps
type SweepAndPrune struct {
	endpoints []endpoint
	active    []int
	coherent  bool // endpoints hold exactly ids 0..n-1 from a previous Build
}

func NewSweepAndPrune() *SweepAndPrune {
	return &SweepAndPrune{}
}

func (s *SweepAndPrune) Clear() {
	s.endpoints = s.endpoints[:0]
	s.coherent = false
}

// Add appends one interval; ids need not be dense
func (s *SweepAndPrune) Add(id int, box AABB) {
	s.endpoints = append(s.endpoints,
		endpoint{value: box.Min.X, id: id, isMin: true},
		endpoint{value: box.Max.X, id: id, isMin: false},
	)
	s.coherent = false
}

func (s *SweepAndPrune) Build(bounds []AABB) {
	if s.coherent && len(s.endpoints) == 2*len(bounds) {
		for i := range s.endpoints {
			e := &s.endpoints[i]
			if e.isMin {
				e.value = bounds[e.id].Min.X
			} else {
				e.value = bounds[e.id].Max.X
			}
		}
		insertionSortEndpoints(s.endpoints)
		return
	}

	s.endpoints = s.endpoints[:0]
	for i, b := range bounds {
		s.endpoints = append(s.endpoints,
			endpoint{value: b.Min.X, id: i, isMin: true},
			endpoint{value: b.Max.X, id: i, isMin: false},
		)
	}
	slices.SortFunc(s.endpoints, compareEndpoints)
	s.coherent = true
}

func insertionSortEndpoints(eps []endpoint) {
	for i := 1; i < len(eps); i++ {
		key := eps[i]
		j := i - 1
		for j >= 0 && compareEndpoints(eps[j], key) > 0 {
			eps[j+1] = eps[j]
			j--
		}
		eps[j+1] = key
	}
}

// Pairs sweeps the endpoints; each min endpoint pairs with every interval still active
func (s *SweepAndPrune) Pairs(dst []Pair) []Pair {
	if !s.coherent {
		slices.SortFunc(s.endpoints, compareEndpoints)
	}

	start := len(dst)
	s.active = s.active[:0]
	for _, e := range s.endpoints {
		if e.isMin {
			for _, other := range s.active {
				dst = append(dst, backend.MakePair(e.id, other))
			}
			s.active = append(s.active, e.id)
			continue
		}
		if i := slices.Index(s.active, e.id); i >= 0 {
			last := len(s.active) - 1
			s.active[i] = s.active[last]
			s.active = s.active[:last]
		}
	}
	return append(dst[:start], sortPairs(dst[start:])...)
}

// --- Brute force ---

// BruteForce reports every pair; the reference for broad-phase tests
type BruteForce struct {
	n int
}

func (b *BruteForce) Build(bounds []AABB) {
	b.n = len(bounds)
}

func (b *BruteForce) Pairs(dst []Pair) []Pair {
	for i := 0; i < b.n; i++ {
		for j := i + 1; j < b.n; j++ {
			dst = append(dst, Pair{A: i, B: j})
		}
	}
	return dst
}
