package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/lixenwraith/detphys/backend"
	"github.com/lixenwraith/detphys/engine"
	"github.com/lixenwraith/detphys/physics"
	"github.com/lixenwraith/detphys/timing"
	"github.com/lixenwraith/detphys/vmath"
)

var (
	configFlag  = flag.String("config", "", "TOML config file (defaults when empty)")
	bodiesFlag  = flag.Int("bodies", 500, "Dynamic bodies in the scene")
	stepsFlag   = flag.Int("steps", 600, "World steps per backend")
	seedFlag    = flag.Uint64("seed", 1, "Scene seed")
	backendFlag = flag.String("backend", "all", "Backend to run: all, portable, accelerated")
	batchFlag   = flag.Int("batch", 100_000, "Vectors per batch kernel run")
)

type result struct {
	name     string
	elapsed  time.Duration
	checksum uint64
}

func main() {
	flag.Parse()
	log.SetOutput(os.Stderr)

	cfg, err := engine.LoadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	backends, err := selectBackends(*backendFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("detphys benchmark: %d bodies, %d steps, broad phase %s, seed %d, vector kernel %s\n",
		*bodiesFlag, *stepsFlag, cfg.BroadPhase, *seedFlag, backend.KernelName())
	fmt.Println("══════════════════════════════════════════════════════════════")

	var results []result
	for _, be := range backends {
		r, err := runWorld(cfg.PhysicsConfig(), be)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", be.Name(), err)
			os.Exit(1)
		}
		results = append(results, r)
	}

	fmt.Println("──────────────────────────────────────────────────────────────")
	fmt.Printf("%-28s %14s %14s %10s\n", "Kernel", "portable", "accelerated", "Ratio")
	benchKernels(*batchFlag)

	fmt.Println("══════════════════════════════════════════════════════════════")
	deterministic := true
	for _, r := range results {
		fmt.Printf("%-12s %12v  checksum %016x\n", r.name, r.elapsed.Round(time.Microsecond), r.checksum)
		if r.checksum != results[0].checksum {
			deterministic = false
		}
	}
	if !deterministic {
		fmt.Println("FAIL: backends diverged")
		os.Exit(1)
	}
	fmt.Println("OK: bit-identical across backends")
}

func selectBackends(name string) ([]backend.Backend, error) {
	if name == "all" {
		return backend.Available(), nil
	}
	be, ok := backend.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("backend %q not available in this build", name)
	}
	return []backend.Backend{be}, nil
}

// populate drops a seeded mix of balls and crates into a walled box
func populate(w *physics.World, n int, seed uint64) {
	floor := physics.NewStaticBody(vmath.V2Int(1000, 1510))
	floor.Collider = physics.BoxCollider(vmath.V2Int(1020, 10))
	w.AddBody(floor)
	for _, x := range []int{-10, 2010} {
		wall := physics.NewStaticBody(vmath.V2Int(x, 760))
		wall.Collider = physics.BoxCollider(vmath.V2Int(10, 760))
		w.AddBody(wall)
	}

	rng := vmath.NewFastRand(seed)
	for i := 0; i < n; i++ {
		b := physics.NewBody(rng.Vec2In(vmath.V2Int(20, 0), vmath.V2Int(1980, 1200)), vmath.FromInt(1+rng.Intn(5)))
		b.Velocity = rng.Vec2In(vmath.V2Int(-100, -100), vmath.V2Int(100, 100))
		if i%4 == 0 {
			b.Collider = physics.BoxCollider(vmath.V2Int(4+rng.Intn(8), 4+rng.Intn(8)))
		}
		w.AddBody(b)
	}
}

func runWorld(cfg physics.Config, be backend.Backend) (result, error) {
	src := timing.CounterSource(be)
	prof := timing.NewProfiler(src)
	w, err := physics.NewWorld(cfg, physics.WithBackend(be), physics.WithProfiler(prof))
	if err != nil {
		return result{}, err
	}
	populate(w, *bodiesFlag, *seedFlag)

	timer := timing.NewWithSource(src)
	for i := 0; i < *stepsFlag; i++ {
		w.Step()
	}
	elapsed := timer.Elapsed()

	fmt.Printf("[%s] %d bodies, %d contacts in last step, %d cycles/us\n",
		be.Name(), w.BodyCount(), w.ContactCount(), src.CyclesPerMicro())
	if err := prof.Summary(os.Stdout); err != nil {
		return result{}, err
	}
	return result{name: be.Name(), elapsed: elapsed, checksum: w.Checksum()}, nil
}

func benchKernels(n int) {
	rng := vmath.NewFastRand(*seedFlag)
	pos := make([]vmath.Vec2, n)
	vel := make([]vmath.Vec2, n)
	acc := make([]vmath.Vec2, n)
	inv := make([]vmath.Fixed, n)
	out := make([]vmath.Vec2, n)
	dots := make([]vmath.Fixed, n)
	for i := range pos {
		pos[i] = rng.Vec2In(vmath.V2Int(-500, -500), vmath.V2Int(500, 500))
		vel[i] = rng.Vec2In(vmath.V2Int(-50, -50), vmath.V2Int(50, 50))
		inv[i] = vmath.One
	}
	dt := vmath.FromRatio(1, 60)

	kernels := []struct {
		name string
		run  func(be backend.Backend)
	}{
		{"AddBatch", func(be backend.Backend) { be.AddBatch(pos, vel, out) }},
		{"ScaleBatch", func(be backend.Backend) { be.ScaleBatch(pos, dt, out) }},
		{"DotBatch", func(be backend.Backend) { be.DotBatch(pos, vel, dots) }},
		{"NormalizeBatch", func(be backend.Backend) { be.NormalizeBatch(pos, out) }},
		{"IntegrateBatch", func(be backend.Backend) {
			for i := range acc {
				acc[i] = vmath.V2Int(0, 980)
			}
			be.IntegrateBatch(pos, vel, acc, inv, dt)
		}},
	}

	accel, hasAccel := backend.Lookup(backend.AcceleratedName)
	for _, k := range kernels {
		portable := timeKernel(func() { k.run(backend.Portable()) })
		if !hasAccel {
			fmt.Printf("%-28s %14v %14s %10s\n", k.name, portable, "-", "-")
			continue
		}
		fast := timeKernel(func() { k.run(accel) })
		fmt.Printf("%-28s %14v %14v %9.2fx\n", k.name, portable, fast, float64(portable)/float64(fast))
	}
}

func timeKernel(fn func()) time.Duration {
	const rounds = 20
	timer := timing.New()
	for i := 0; i < rounds; i++ {
		fn()
	}
	return timer.Elapsed() / rounds
}
