package physics

import (
	"fmt"

	"github.com/lixenwraith/detphys/backend"
	"github.com/lixenwraith/detphys/vmath"
)

// IntegratorKind names an integration scheme in configuration
type IntegratorKind string

const (
	IntegratorEuler  IntegratorKind = "euler"
	IntegratorVerlet IntegratorKind = "verlet"
)

// Integrator advances body kinematics by dt from accumulated acceleration
// Acceleration is cleared on every dynamic body; static bodies are untouched
type Integrator interface {
	Integrate(bodies []Body, dt vmath.Fixed)
}

// NewIntegrator constructs the named scheme; Euler runs through be
func NewIntegrator(kind IntegratorKind, be backend.Backend) (Integrator, error) {
	switch kind {
	case IntegratorEuler, "":
		return NewEulerIntegrator(be), nil
	case IntegratorVerlet:
		return NewVerlet(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownIntegrator, kind)
}

// --- Semi-implicit Euler ---

// EulerIntegrator gathers bodies into struct-of-arrays scratch and hands them to the
// backend batch routine; scratch is reused between steps
type EulerIntegrator struct {
	be      backend.Backend
	pos     []vmath.Vec2
	vel     []vmath.Vec2
	acc     []vmath.Vec2
	invMass []vmath.Fixed
}

func NewEulerIntegrator(be backend.Backend) *EulerIntegrator {
	if be == nil {
		be = backend.Portable()
	}
	return &EulerIntegrator{be: be}
}

func (e *EulerIntegrator) Integrate(bodies []Body, dt vmath.Fixed) {
	n := len(bodies)
	e.pos = e.pos[:0]
	e.vel = e.vel[:0]
	e.acc = e.acc[:0]
	e.invMass = e.invMass[:0]
	for i := range bodies {
		b := &bodies[i]
		e.pos = append(e.pos, b.Position)
		e.vel = append(e.vel, b.Velocity)
		e.acc = append(e.acc, b.Acceleration)
		e.invMass = append(e.invMass, b.InvMass)
	}

	e.be.IntegrateBatch(e.pos, e.vel, e.acc, e.invMass, dt)

	for i := 0; i < n; i++ {
		b := &bodies[i]
		b.Position = e.pos[i]
		b.Velocity = e.vel[i]
		b.Acceleration = e.acc[i]
	}
}

// IntegrateBodies runs one semi-implicit Euler step through the backend
func IntegrateBodies(be backend.Backend, bodies []Body, dt vmath.Fixed) {
	NewEulerIntegrator(be).Integrate(bodies, dt)
}

// IntegrateEuler is the scalar reference: v += a*dt, then p += v*dt with the new velocity
func IntegrateEuler(bodies []Body, dt vmath.Fixed) {
	for i := range bodies {
		b := &bodies[i]
		if b.IsStatic() {
			continue
		}
		b.Velocity = b.Velocity.Add(b.Acceleration.Scale(dt))
		b.Position = b.Position.Add(b.Velocity.Scale(dt))
		b.Acceleration = vmath.Vec2{}
	}
}

// --- Verlet ---

// Verlet keeps the previous position of every body; velocity is derived, not integrated
// Bodies added after the first step are seeded from their current velocity
type Verlet struct {
	prev []vmath.Vec2
	dt   vmath.Fixed
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

// Integrate applies x' = x + (x - prev) + a*dt² and sets velocity to (x' - x)/dt
func (v *Verlet) Integrate(bodies []Body, dt vmath.Fixed) {
	v.dt = dt
	for i := len(v.prev); i < len(bodies); i++ {
		v.prev = append(v.prev, v.seed(&bodies[i]))
	}

	for i := range bodies {
		b := &bodies[i]
		if b.IsStatic() {
			v.prev[i] = b.Position
			continue
		}
		cur := b.Position
		// Scale twice: dt.Mul(dt) truncates to raw 18 at 1/60 s
		next := cur.Add(cur.Sub(v.prev[i])).Add(b.Acceleration.Scale(dt).Scale(dt))
		v.prev[i] = cur
		b.Position = next
		d := next.Sub(cur)
		b.Velocity = vmath.Vec2{X: d.X.Div(dt), Y: d.Y.Div(dt)}
		b.Acceleration = vmath.Vec2{}
	}
}

// Sync re-derives previous positions from current velocities
// Call after anything outside the integrator moves bodies or changes velocity
func (v *Verlet) Sync(bodies []Body) {
	v.prev = v.prev[:0]
	if v.dt == 0 {
		// Not stepped yet; Integrate seeds lazily once dt is known
		return
	}
	for i := range bodies {
		v.prev = append(v.prev, v.seed(&bodies[i]))
	}
}

func (v *Verlet) seed(b *Body) vmath.Vec2 {
	return b.Position.Sub(b.Velocity.Scale(v.dt))
}
