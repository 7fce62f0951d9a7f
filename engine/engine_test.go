package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/lixenwraith/detphys/backend"
	"github.com/lixenwraith/detphys/physics"
	"github.com/lixenwraith/detphys/timing"
	"github.com/lixenwraith/detphys/vmath"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.FixedTimestep = 0.015625
	cfg.Backend = backend.PortableName
	return cfg
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *timing.MockSource) {
	t.Helper()
	src := timing.NewMockSource()
	e, err := New(cfg, src)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, src
}

func TestEngineRunFrame(t *testing.T) {
	e, src := newTestEngine(t, testConfig())
	e.World().AddBody(physics.NewBody(vmath.Vec2{}, vmath.One))

	var hookTicks []uint64
	e.OnFixedUpdate = func(w *physics.World, tick uint64) {
		hookTicks = append(hookTicks, tick)
	}

	src.Advance(3 * testStep)
	if ft := e.RunFrame(); ft.FixedUpdates != 3 {
		t.Fatalf("FixedUpdates = %d, want 3", ft.FixedUpdates)
	}
	src.Advance(testStep)
	e.RunFrame()

	if e.World().StepCount() != 4 {
		t.Errorf("StepCount = %d, want 4", e.World().StepCount())
	}
	if len(hookTicks) != 4 || hookTicks[0] != 0 || hookTicks[3] != 3 {
		t.Errorf("hook ticks = %v, want [0 1 2 3]", hookTicks)
	}

	m := e.Metrics()
	if got := m.Ints.Get("engine.frames").Load(); got != 2 {
		t.Errorf("engine.frames = %d", got)
	}
	if got := m.Ints.Get("engine.ticks").Load(); got != 4 {
		t.Errorf("engine.ticks = %d", got)
	}
	if got := m.Ints.Get("physics.bodies").Load(); got != 1 {
		t.Errorf("physics.bodies = %d", got)
	}
	if got := m.Strings.Get("engine.backend").Load(); got != backend.PortableName {
		t.Errorf("engine.backend = %q", got)
	}
	if _, ok := e.Profiler().Get("step"); !ok {
		t.Error("world steps were not profiled")
	}
}

func TestEngineHookForcesLastOneStep(t *testing.T) {
	cfg := testConfig()
	cfg.Gravity = [2]float64{0, 0}
	e, _ := newTestEngine(t, cfg)
	id := e.World().AddBody(physics.NewBody(vmath.Vec2{}, vmath.One))

	e.OnFixedUpdate = func(w *physics.World, tick uint64) {
		if tick == 0 {
			if err := w.ApplyForce(id, vmath.V2Int(64, 0)); err != nil {
				t.Error(err)
			}
		}
	}
	e.Advance(4 * testStep)

	// One step of a = 64 at dt = 1/64 leaves v = 1
	if v, _ := e.World().Velocity(id); v != vmath.V2Int(1, 0) {
		t.Errorf("velocity = %v, want (1, 0)", v)
	}
}

func TestEngineDroppedMetric(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())
	ft := e.Advance(time.Second)
	if ft.FixedUpdates != 5 {
		t.Errorf("FixedUpdates = %d, want 5", ft.FixedUpdates)
	}
	// 64 steps pending, 5 run, 59 dropped
	if got := e.Metrics().Ints.Get("engine.dropped_ns").Load(); got != int64(59*testStep) {
		t.Errorf("engine.dropped_ns = %d, want %d", got, int64(59*testStep))
	}
}

func TestEngineChunkingDoesNotChangeOutcome(t *testing.T) {
	build := func() *Engine {
		e, _ := newTestEngine(t, testConfig())
		rng := vmath.NewFastRand(3)
		floor := physics.NewStaticBody(vmath.V2Int(200, 300))
		floor.Collider = physics.BoxCollider(vmath.V2Int(220, 10))
		e.World().AddBody(floor)
		for i := 0; i < 40; i++ {
			e.World().AddBody(physics.NewBody(rng.Vec2In(vmath.V2Int(0, 0), vmath.V2Int(400, 200)), vmath.One))
		}
		return e
	}

	even := build()
	for i := 0; i < 120; i++ {
		even.Advance(testStep)
	}

	ragged := build()
	chunks := []time.Duration{testStep / 3, testStep * 2, testStep / 2, testStep*3 + testStep/6}
	var fed time.Duration
	for i := 0; fed < 120*testStep; i++ {
		d := min(chunks[i%len(chunks)], 120*testStep-fed)
		ragged.Advance(d)
		fed += d
	}

	if even.World().StepCount() != 120 || ragged.World().StepCount() != 120 {
		t.Fatalf("steps = %d / %d, want 120", even.World().StepCount(), ragged.World().StepCount())
	}
	if even.World().Checksum() != ragged.World().Checksum() {
		t.Error("frame chunking changed the simulation")
	}
}

func TestEngineRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MaxFrameSkip = 0
	if _, err := New(cfg, timing.NewMockSource()); !errors.Is(err, ErrInvalidFrameSkip) {
		t.Errorf("err = %v, want ErrInvalidFrameSkip", err)
	}

	cfg = testConfig()
	cfg.Substeps = 0
	if _, err := New(cfg, nil); !errors.Is(err, physics.ErrInvalidConfig) {
		t.Errorf("err = %v, want physics.ErrInvalidConfig", err)
	}
}
