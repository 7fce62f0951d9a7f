package physics

import (
	"github.com/lixenwraith/detphys/vmath"
)

// AABB is an axis-aligned bounding box
type AABB struct {
	Min, Max vmath.Vec2
}

func NewAABB(min, max vmath.Vec2) AABB {
	return AABB{Min: min, Max: max}
}

func AABBFromCenter(center, halfExtents vmath.Vec2) AABB {
	return AABB{Min: center.SubSat(halfExtents), Max: center.AddSat(halfExtents)}
}

// Intersects is inclusive: touching boxes intersect
func (a AABB) Intersects(o AABB) bool {
	return a.Min.X <= o.Max.X && a.Max.X >= o.Min.X &&
		a.Min.Y <= o.Max.Y && a.Max.Y >= o.Min.Y
}

func (a AABB) Contains(p vmath.Vec2) bool {
	return p.X >= a.Min.X && p.X <= a.Max.X && p.Y >= a.Min.Y && p.Y <= a.Max.Y
}

// Center averages in 64 bits so large coordinates do not wrap
func (a AABB) Center() vmath.Vec2 {
	return vmath.Vec2{
		X: vmath.Fixed((int64(a.Min.X) + int64(a.Max.X)) >> 1),
		Y: vmath.Fixed((int64(a.Min.Y) + int64(a.Max.Y)) >> 1),
	}
}

func (a AABB) HalfExtents() vmath.Vec2 {
	return vmath.Vec2{
		X: vmath.Fixed((int64(a.Max.X) - int64(a.Min.X)) >> 1),
		Y: vmath.Fixed((int64(a.Max.Y) - int64(a.Min.Y)) >> 1),
	}
}

func (a AABB) Expand(amount vmath.Fixed) AABB {
	d := vmath.Splat(amount)
	return AABB{Min: a.Min.Sub(d), Max: a.Max.Add(d)}
}

// Circle is a center and radius
type Circle struct {
	Center vmath.Vec2
	Radius vmath.Fixed
}

func NewCircle(center vmath.Vec2, radius vmath.Fixed) Circle {
	return Circle{Center: center, Radius: radius}
}

// Intersects is strict: touching circles do not intersect
func (c Circle) Intersects(o Circle) bool {
	sum := int64(c.Radius) + int64(o.Radius)
	return c.Center.DistanceSqRaw(o.Center) < uint64(sum*sum)
}

func (c Circle) AABB() AABB {
	return AABBFromCenter(c.Center, vmath.Splat(c.Radius))
}

// CircleVsCircle returns the contact from a toward b, false when they do not overlap
// Coincident centers use vmath.Up as the normal
func CircleVsCircle(a, b Circle) (Contact, bool) {
	diff := b.Center.Sub(a.Center)
	sum := a.Radius.Add(b.Radius)
	sum64 := int64(sum)
	if diff.LengthSqRaw() >= uint64(sum64*sum64) {
		return Contact{}, false
	}

	dist := diff.Length()
	normal := vmath.Up
	if dist > 0 {
		normal = vmath.Vec2{X: diff.X.Div(dist), Y: diff.Y.Div(dist)}
	}

	return Contact{
		Normal:      normal,
		Penetration: sum.Sub(dist),
		Point:       a.Center.Add(normal.Scale(a.Radius)),
	}, true
}

// AABBVsAABB separates along the axis of least overlap, ties favor X
// A zero center offset on the chosen axis yields the positive direction
func AABBVsAABB(a, b AABB) (Contact, bool) {
	ac, bc := a.Center(), b.Center()
	ah, bh := a.HalfExtents(), b.HalfExtents()

	diff := bc.Sub(ac)
	overlap := ah.Add(bh).Sub(diff.Abs())
	if overlap.X <= 0 || overlap.Y <= 0 {
		return Contact{}, false
	}

	var normal vmath.Vec2
	var pen vmath.Fixed
	if overlap.X <= overlap.Y {
		normal, pen = vmath.Vec2{X: signOrPositive(diff.X)}, overlap.X
	} else {
		normal, pen = vmath.Vec2{Y: signOrPositive(diff.Y)}, overlap.Y
	}

	return Contact{
		Normal:      normal,
		Penetration: pen,
		Point:       ac.Add(normal.Scale(ah.X.Min(ah.Y))),
	}, true
}

func signOrPositive(v vmath.Fixed) vmath.Fixed {
	if v < 0 {
		return vmath.NegOne
	}
	return vmath.One
}

// CircleVsAABB uses the closest point on the box to the circle center
// A center inside the box exits through the nearest face
func CircleVsAABB(c Circle, box AABB) (Contact, bool) {
	closest := vmath.Vec2{
		X: c.Center.X.Clamp(box.Min.X, box.Max.X),
		Y: c.Center.Y.Clamp(box.Min.Y, box.Max.Y),
	}
	diff := closest.Sub(c.Center)

	if diff.IsZero() {
		// Distances from the center to each face; the circle leaves through the smallest
		left := c.Center.X.Sub(box.Min.X)
		right := box.Max.X.Sub(c.Center.X)
		top := c.Center.Y.Sub(box.Min.Y)
		bottom := box.Max.Y.Sub(c.Center.Y)

		exit, depth := vmath.Left, left
		if right < depth {
			exit, depth = vmath.Right, right
		}
		if top < depth {
			exit, depth = vmath.Up, top
		}
		if bottom < depth {
			exit, depth = vmath.Down, bottom
		}
		// Circle moves along exit, so the normal toward the box is the opposite
		return Contact{
			Normal:      exit.Neg(),
			Penetration: depth.Add(c.Radius),
			Point:       c.Center,
		}, true
	}

	r := int64(c.Radius)
	if diff.LengthSqRaw() >= uint64(r*r) {
		return Contact{}, false
	}
	dist := diff.Length()
	normal := vmath.Vec2{X: diff.X.Div(dist), Y: diff.Y.Div(dist)}
	return Contact{
		Normal:      normal,
		Penetration: c.Radius.Sub(dist),
		Point:       closest,
	}, true
}

// AABBVsCircle mirrors CircleVsAABB so the normal points from the box toward the circle
func AABBVsCircle(box AABB, c Circle) (Contact, bool) {
	contact, ok := CircleVsAABB(c, box)
	if !ok {
		return Contact{}, false
	}
	contact.Normal = contact.Normal.Neg()
	return contact, true
}

// Collide runs the exact test for a body pair by collider kind
// The returned contact carries no body indices
func Collide(a, b *Body, defaultRadius vmath.Fixed) (Contact, bool) {
	aBox := a.Collider.Kind == ColliderBox
	bBox := b.Collider.Kind == ColliderBox

	switch {
	case aBox && bBox:
		return AABBVsAABB(a.Bounds(defaultRadius), b.Bounds(defaultRadius))
	case aBox:
		return AABBVsCircle(a.Bounds(defaultRadius), Circle{b.Position, b.radius(defaultRadius)})
	case bBox:
		return CircleVsAABB(Circle{a.Position, a.radius(defaultRadius)}, b.Bounds(defaultRadius))
	}
	return CircleVsCircle(Circle{a.Position, a.radius(defaultRadius)}, Circle{b.Position, b.radius(defaultRadius)})
}
