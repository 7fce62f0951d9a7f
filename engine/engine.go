package engine

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/detphys/backend"
	"github.com/lixenwraith/detphys/physics"
	"github.com/lixenwraith/detphys/status"
	"github.com/lixenwraith/detphys/timing"
)

// Engine drives a physics world from a fixed-step scheduler and publishes metrics
// Single goroutine: RunFrame, World and the hook must not be used concurrently
type Engine struct {
	cfg     Config
	be      backend.Backend
	world   *physics.World
	sched   *Scheduler
	prof    *timing.Profiler
	metrics *status.Registry

	// OnFixedUpdate runs before every world step with the tick number about to execute
	// Forces applied here last exactly one step
	OnFixedUpdate func(w *physics.World, tick uint64)

	// Cached metric pointers
	statFrames   *atomic.Int64
	statTicks    *atomic.Int64
	statDropped  *atomic.Int64
	statBodies   *atomic.Int64
	statContacts *atomic.Int64
	statStepMs   *status.AtomicFloat
}

// New validates cfg and builds the world, scheduler and metrics
// A nil src times frames with the selected backend's cycle counter
func New(cfg Config, src timing.Source) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	be := backend.Select(cfg.Backend)
	if src == nil {
		src = timing.CounterSource(be)
	}

	sched, err := NewScheduler(cfg.SchedulerConfig(), src)
	if err != nil {
		return nil, err
	}

	prof := timing.NewProfiler(src)
	world, err := physics.NewWorld(cfg.PhysicsConfig(),
		physics.WithBackend(be),
		physics.WithProfiler(prof),
		physics.WithLogger(log.Default()),
	)
	if err != nil {
		return nil, err
	}

	reg := status.NewRegistry()
	reg.Strings.Get("engine.backend").Store(be.Name())
	reg.Bools.Get("engine.accelerated").Store(be.Accelerated())
	reg.Floats.Get("engine.fixed_dt_ms").Set(float64(sched.FixedDt()) / float64(time.Millisecond))

	return &Engine{
		cfg:          cfg,
		be:           be,
		world:        world,
		sched:        sched,
		prof:         prof,
		metrics:      reg,
		statFrames:   reg.Ints.Get("engine.frames"),
		statTicks:    reg.Ints.Get("engine.ticks"),
		statDropped:  reg.Ints.Get("engine.dropped_ns"),
		statBodies:   reg.Ints.Get("physics.bodies"),
		statContacts: reg.Ints.Get("physics.contacts"),
		statStepMs:   reg.Floats.Get("physics.step_ms"),
	}, nil
}

func (e *Engine) Config() Config             { return e.cfg }
func (e *Engine) Backend() backend.Backend   { return e.be }
func (e *Engine) World() *physics.World      { return e.world }
func (e *Engine) Scheduler() *Scheduler      { return e.sched }
func (e *Engine) Profiler() *timing.Profiler { return e.prof }
func (e *Engine) Metrics() *status.Registry  { return e.metrics }

// RunFrame reads the frame clock and runs the fixed updates it allows
func (e *Engine) RunFrame() FrameTick {
	return e.run(e.sched.Tick())
}

// Advance is RunFrame with an explicit frame delta, for headless and replay hosts
func (e *Engine) Advance(delta time.Duration) FrameTick {
	return e.run(e.sched.Advance(delta))
}

func (e *Engine) run(ft FrameTick) FrameTick {
	first := ft.Tick - uint64(ft.FixedUpdates)
	for i := uint64(0); i < uint64(ft.FixedUpdates); i++ {
		if e.OnFixedUpdate != nil {
			e.OnFixedUpdate(e.world, first+i)
		}
		e.world.Step()
	}
	e.publish(ft)
	return ft
}

func (e *Engine) publish(ft FrameTick) {
	e.statFrames.Store(int64(ft.Frame))
	e.statTicks.Store(int64(ft.Tick))
	e.statDropped.Store(int64(e.sched.Dropped()))
	e.statBodies.Store(int64(e.world.BodyCount()))
	e.statContacts.Store(int64(e.world.ContactCount()))
	if s, ok := e.prof.Get("step"); ok {
		e.statStepMs.Set(s.AvgMs())
	}
}
