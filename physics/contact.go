package physics

import (
	"github.com/lixenwraith/detphys/backend"
	"github.com/lixenwraith/detphys/vmath"
)

// Pair is a canonical candidate pair of body indices
type Pair = backend.Pair

// Contact is generated fresh every sub-step and never persisted
type Contact struct {
	BodyA, BodyB int
	Normal       vmath.Vec2  // unit vector from A toward B
	Penetration  vmath.Fixed // non-negative overlap depth
	Point        vmath.Vec2
}

// DetectCollisions runs the exact narrow-phase test on each candidate pair and appends
// the resulting contacts in pair order
func DetectCollisions(bodies []Body, pairs []Pair, defaultRadius vmath.Fixed, contacts []Contact) []Contact {
	for _, p := range pairs {
		c, ok := Collide(&bodies[p.A], &bodies[p.B], defaultRadius)
		if !ok {
			continue
		}
		c.BodyA, c.BodyB = p.A, p.B
		contacts = append(contacts, c)
	}
	return contacts
}

// DetectAllPairs treats every body as a circle of the given radius and tests all pairs
// O(n²); suitable for small populations or as a reference for the broad-phase path
func DetectAllPairs(be backend.Backend, bodies []Body, radius vmath.Fixed, contacts []Contact) []Contact {
	centers := make([]vmath.Vec2, len(bodies))
	radii := make([]vmath.Fixed, len(bodies))
	for i := range bodies {
		centers[i] = bodies[i].Position
		radii[i] = radius
	}

	for _, p := range be.CircleOverlapBatch(centers, radii, nil) {
		c, ok := CircleVsCircle(Circle{centers[p.A], radius}, Circle{centers[p.B], radius})
		if !ok {
			continue
		}
		c.BodyA, c.BodyB = p.A, p.B
		contacts = append(contacts, c)
	}
	return contacts
}
