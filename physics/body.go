package physics

import (
	"github.com/lixenwraith/detphys/vmath"
)

// ColliderKind selects the narrow-phase shape of a body
type ColliderKind uint8

const (
	// ColliderDefault is a circle of the world's default radius
	ColliderDefault ColliderKind = iota
	ColliderCircle
	ColliderBox
)

func (k ColliderKind) String() string {
	switch k {
	case ColliderDefault:
		return "default"
	case ColliderCircle:
		return "circle"
	case ColliderBox:
		return "box"
	}
	return "unknown"
}

// Collider describes the body's shape relative to its position (the shape center)
type Collider struct {
	Kind        ColliderKind
	Radius      vmath.Fixed
	HalfExtents vmath.Vec2
}

func CircleCollider(radius vmath.Fixed) Collider {
	return Collider{Kind: ColliderCircle, Radius: radius}
}

func BoxCollider(halfExtents vmath.Vec2) Collider {
	return Collider{Kind: ColliderBox, HalfExtents: halfExtents}
}

// Default body material
var (
	DefaultRestitution = vmath.FromFloat(0.5)
	DefaultFriction    = vmath.FromFloat(0.3)
)

// Body is a point mass with an attached collider
// InvMass == 0 marks a static (immovable) body
type Body struct {
	Position     vmath.Vec2
	Velocity     vmath.Vec2
	Acceleration vmath.Vec2 // cleared by every integration step

	Mass        vmath.Fixed
	InvMass     vmath.Fixed
	Restitution vmath.Fixed // [0, 1]
	Friction    vmath.Fixed

	Collider Collider
}

// NewBody creates a dynamic body; mass <= 0 yields a static body
func NewBody(pos vmath.Vec2, mass vmath.Fixed) Body {
	b := Body{
		Position:    pos,
		Mass:        mass,
		Restitution: DefaultRestitution,
		Friction:    DefaultFriction,
	}
	if mass > 0 {
		b.InvMass = vmath.One.Div(mass)
	}
	return b
}

// NewStaticBody creates an immovable body
func NewStaticBody(pos vmath.Vec2) Body {
	return NewBody(pos, 0)
}

func (b *Body) IsStatic() bool {
	return b.InvMass == 0
}

// ApplyForce accumulates f/m into acceleration until the next integration
func (b *Body) ApplyForce(f vmath.Vec2) {
	b.Acceleration = b.Acceleration.Add(f.Scale(b.InvMass))
}

// ApplyImpulse changes velocity by j/m immediately
func (b *Body) ApplyImpulse(j vmath.Vec2) {
	b.Velocity = b.Velocity.Add(j.Scale(b.InvMass))
}

// Bounds returns the collider's bounding box at the current position
func (b *Body) Bounds(defaultRadius vmath.Fixed) AABB {
	switch b.Collider.Kind {
	case ColliderBox:
		return AABBFromCenter(b.Position, b.Collider.HalfExtents)
	case ColliderCircle:
		return AABBFromCenter(b.Position, vmath.Splat(b.Collider.Radius))
	}
	return AABBFromCenter(b.Position, vmath.Splat(defaultRadius))
}

// radius resolves the circle radius, falling back to the world default
func (b *Body) radius(defaultRadius vmath.Fixed) vmath.Fixed {
	if b.Collider.Kind == ColliderCircle {
		return b.Collider.Radius
	}
	return defaultRadius
}
