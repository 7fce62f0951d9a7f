package physics

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"log"

	"github.com/lixenwraith/detphys/backend"
	"github.com/lixenwraith/detphys/timing"
	"github.com/lixenwraith/detphys/vmath"
)

var (
	ErrInvalidConfig     = errors.New("invalid physics config")
	ErrBodyIndex         = errors.New("body index out of range")
	ErrUnknownBroadPhase = errors.New("unknown broad phase")
	ErrUnknownIntegrator = errors.New("unknown integrator")
)

// Config holds the world parameters; Timestep is split evenly across Substeps
type Config struct {
	Gravity       vmath.Vec2
	Iterations    int
	Substeps      int
	Timestep      vmath.Fixed
	DefaultRadius vmath.Fixed
	BroadPhase    BroadPhaseKind
	CellSize      vmath.Fixed
	Integrator    IntegratorKind
}

// DefaultConfig returns downward gravity in screen coordinates at 60 Hz
func DefaultConfig() Config {
	return Config{
		Gravity:       vmath.V2Int(0, 980),
		Iterations:    8,
		Substeps:      1,
		Timestep:      vmath.FromRatio(1, 60),
		DefaultRadius: vmath.FromInt(10),
		BroadPhase:    BroadPhaseSpatialHash,
		CellSize:      vmath.FromInt(64),
		Integrator:    IntegratorEuler,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Timestep <= 0:
		return fmt.Errorf("%w: timestep %v must be positive", ErrInvalidConfig, c.Timestep)
	case c.Iterations < 1:
		return fmt.Errorf("%w: iterations %d must be at least 1", ErrInvalidConfig, c.Iterations)
	case c.Substeps < 1:
		return fmt.Errorf("%w: substeps %d must be at least 1", ErrInvalidConfig, c.Substeps)
	case c.CellSize < MinCellSize:
		return fmt.Errorf("%w: cell size %v below minimum %v", ErrInvalidConfig, c.CellSize, MinCellSize)
	case c.DefaultRadius < 0:
		return fmt.Errorf("%w: default radius %v is negative", ErrInvalidConfig, c.DefaultRadius)
	case c.Timestep.Div(vmath.FromInt(c.Substeps)) <= 0:
		return fmt.Errorf("%w: timestep %v too small for %d substeps", ErrInvalidConfig, c.Timestep, c.Substeps)
	}

	switch c.BroadPhase {
	case "", BroadPhaseSpatialHash, BroadPhaseSweepAndPrune, BroadPhaseBruteForce:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBroadPhase, c.BroadPhase)
	}
	switch c.Integrator {
	case "", IntegratorEuler, IntegratorVerlet:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownIntegrator, c.Integrator)
	}
	return nil
}

// Option configures optional World collaborators
type Option func(*World)

// WithBackend overrides the process default backend
func WithBackend(be backend.Backend) Option {
	return func(w *World) { w.be = be }
}

// WithProfiler records per-phase timings of every Step
func WithProfiler(p *timing.Profiler) Option {
	return func(w *World) { w.prof = p }
}

func WithLogger(l *log.Logger) Option {
	return func(w *World) { w.logger = l }
}

// World owns all bodies and the per-step scratch; it is not safe for concurrent use
type World struct {
	cfg    Config
	be     backend.Backend
	prof   *timing.Profiler
	logger *log.Logger

	bodies     []Body
	integrator Integrator
	broad      BroadPhase

	// External accelerations applied since the last Step, reapplied each sub-step
	external []vmath.Vec2

	// Scratch, rebuilt every sub-step
	bounds     []AABB
	mins, maxs []vmath.Vec2
	candidates []Pair
	pairs      []Pair
	contacts   []Contact

	steps uint64
}

func NewWorld(cfg Config, opts ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	w := &World{cfg: cfg}
	for _, opt := range opts {
		opt(w)
	}
	if w.be == nil {
		w.be = backend.Default()
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard, "", 0)
	}

	var err error
	if w.broad, err = NewBroadPhase(cfg.BroadPhase, cfg.CellSize); err != nil {
		return nil, err
	}
	if w.integrator, err = NewIntegrator(cfg.Integrator, w.be); err != nil {
		return nil, err
	}

	w.logger.Printf("physics: world created (backend=%s, broadphase=%s, integrator=%s, substeps=%d, iterations=%d)",
		w.be.Name(), w.broadName(), w.integratorName(), cfg.Substeps, cfg.Iterations)
	return w, nil
}

func (w *World) broadName() BroadPhaseKind {
	if w.cfg.BroadPhase == "" {
		return BroadPhaseSpatialHash
	}
	return w.cfg.BroadPhase
}

func (w *World) integratorName() IntegratorKind {
	if w.cfg.Integrator == "" {
		return IntegratorEuler
	}
	return w.cfg.Integrator
}

func (w *World) Config() Config           { return w.cfg }
func (w *World) Backend() backend.Backend { return w.be }
func (w *World) BodyCount() int           { return len(w.bodies) }
func (w *World) StepCount() uint64        { return w.steps }

// AddBody appends a body and returns its index, stable for the life of the world
func (w *World) AddBody(b Body) int {
	w.bodies = append(w.bodies, b)
	w.external = append(w.external, vmath.Vec2{})
	return len(w.bodies) - 1
}

func (w *World) checkIndex(i int) error {
	if i < 0 || i >= len(w.bodies) {
		return fmt.Errorf("%w: %d (have %d)", ErrBodyIndex, i, len(w.bodies))
	}
	return nil
}

func (w *World) Body(i int) (Body, error) {
	if err := w.checkIndex(i); err != nil {
		return Body{}, err
	}
	return w.bodies[i], nil
}

func (w *World) Position(i int) (vmath.Vec2, error) {
	if err := w.checkIndex(i); err != nil {
		return vmath.Vec2{}, err
	}
	return w.bodies[i].Position, nil
}

func (w *World) Velocity(i int) (vmath.Vec2, error) {
	if err := w.checkIndex(i); err != nil {
		return vmath.Vec2{}, err
	}
	return w.bodies[i].Velocity, nil
}

func (w *World) SetVelocity(i int, v vmath.Vec2) error {
	if err := w.checkIndex(i); err != nil {
		return err
	}
	w.bodies[i].Velocity = v
	if vi, ok := w.integrator.(*Verlet); ok {
		vi.Sync(w.bodies)
	}
	return nil
}

// ApplyForce accumulates f for the next Step only
func (w *World) ApplyForce(i int, f vmath.Vec2) error {
	if err := w.checkIndex(i); err != nil {
		return err
	}
	w.external[i] = w.external[i].Add(f.Scale(w.bodies[i].InvMass))
	return nil
}

// Step advances the world by one Timestep
func (w *World) Step() {
	if w.prof != nil {
		defer w.prof.Scope("step")()
	}

	// Forces applied directly on bodies between steps count as external too
	for i := range w.bodies {
		w.external[i] = w.external[i].Add(w.bodies[i].Acceleration)
		w.bodies[i].Acceleration = vmath.Vec2{}
	}

	dt := w.cfg.Timestep.Div(vmath.FromInt(w.cfg.Substeps))
	for s := 0; s < w.cfg.Substeps; s++ {
		w.substep(dt)
	}

	clear(w.external)
	w.steps++
}

func (w *World) substep(dt vmath.Fixed) {
	for i := range w.bodies {
		b := &w.bodies[i]
		if b.IsStatic() {
			continue
		}
		b.Acceleration = b.Acceleration.Add(w.cfg.Gravity).Add(w.external[i])
	}

	w.timed("integrate", func() { w.integrator.Integrate(w.bodies, dt) })
	w.timed("broadphase", w.broadPhase)
	w.timed("narrowphase", func() {
		w.contacts = DetectCollisions(w.bodies, w.pairs, w.cfg.DefaultRadius, w.contacts[:0])
	})
	w.timed("resolve", func() {
		for it := 0; it < w.cfg.Iterations; it++ {
			ResolveContacts(w.bodies, w.contacts)
		}
		if vi, ok := w.integrator.(*Verlet); ok && len(w.contacts) > 0 {
			vi.Sync(w.bodies)
		}
	})
}

// broadPhase fills w.pairs with candidates whose boxes intersect and that involve
// at least one dynamic body
func (w *World) broadPhase() {
	w.bounds = w.bounds[:0]
	w.mins = w.mins[:0]
	w.maxs = w.maxs[:0]
	for i := range w.bodies {
		box := w.bodies[i].Bounds(w.cfg.DefaultRadius)
		w.bounds = append(w.bounds, box)
		w.mins = append(w.mins, box.Min)
		w.maxs = append(w.maxs, box.Max)
	}

	w.broad.Build(w.bounds)
	w.candidates = w.broad.Pairs(w.candidates[:0])

	n := 0
	for _, p := range w.candidates {
		if w.bodies[p.A].IsStatic() && w.bodies[p.B].IsStatic() {
			continue
		}
		w.candidates[n] = p
		n++
	}
	w.pairs = w.be.AABBOverlapBatch(w.mins, w.maxs, w.candidates[:n], w.pairs[:0])
}

func (w *World) timed(name string, fn func()) {
	if w.prof == nil {
		fn()
		return
	}
	done := w.prof.Scope(name)
	fn()
	done()
}

// Contacts returns a copy of the last sub-step's contacts
func (w *World) Contacts() []Contact {
	out := make([]Contact, len(w.contacts))
	copy(out, w.contacts)
	return out
}

// ContactCount avoids the copy made by Contacts
func (w *World) ContactCount() int { return len(w.contacts) }

// Snapshot returns a copy of all bodies for presentation
func (w *World) Snapshot() []Body {
	out := make([]Body, len(w.bodies))
	copy(out, w.bodies)
	return out
}

// Checksum hashes the raw position and velocity bits of every body in index order
// Equal checksums across runs and backends indicate bit-identical simulations
func (w *World) Checksum() uint64 {
	h := fnv.New64a()
	var buf [16]byte
	for i := range w.bodies {
		b := &w.bodies[i]
		binary.LittleEndian.PutUint32(buf[0:], uint32(b.Position.X.Raw()))
		binary.LittleEndian.PutUint32(buf[4:], uint32(b.Position.Y.Raw()))
		binary.LittleEndian.PutUint32(buf[8:], uint32(b.Velocity.X.Raw()))
		binary.LittleEndian.PutUint32(buf[12:], uint32(b.Velocity.Y.Raw()))
		h.Write(buf[:])
	}
	return h.Sum64()
}
