package physics

import (
	"github.com/lixenwraith/detphys/vmath"
)

// CorrectionPercent is the share of penetration removed per resolver pass
var CorrectionPercent = vmath.FromFloat(0.8)

// ResolveContacts applies one impulse pass over contacts, in order
// Pairs already separating along the normal are left alone; restitution is the smaller
// of the two bodies' coefficients. Penetration is pushed out along the normal by
// CorrectionPercent, split by inverse mass
func ResolveContacts(bodies []Body, contacts []Contact) {
	for i := range contacts {
		c := &contacts[i]
		a, b := &bodies[c.BodyA], &bodies[c.BodyB]
		if a.IsStatic() && b.IsStatic() {
			continue
		}

		velAlongNormal := b.Velocity.Sub(a.Velocity).Dot(c.Normal)
		if velAlongNormal > 0 {
			continue
		}

		invSum := a.InvMass.Add(b.InvMass)
		e := a.Restitution.Min(b.Restitution)
		j := vmath.One.Add(e).Mul(velAlongNormal).Neg().Div(invSum)
		impulse := c.Normal.Scale(j)

		a.Velocity = a.Velocity.Sub(impulse.Scale(a.InvMass))
		b.Velocity = b.Velocity.Add(impulse.Scale(b.InvMass))

		correction := c.Normal.Scale(c.Penetration.Mul(CorrectionPercent).Div(invSum))
		a.Position = a.Position.Sub(correction.Scale(a.InvMass))
		b.Position = b.Position.Add(correction.Scale(b.InvMass))
	}
}
