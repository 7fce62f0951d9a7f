package vmath

// Vec2 is a 2D vector of Q16.16 components
type Vec2 struct {
	X, Y Fixed
}

// Direction constants, screen space (Y grows downward)
var (
	Up    = Vec2{0, NegOne}
	Down  = Vec2{0, One}
	Left  = Vec2{NegOne, 0}
	Right = Vec2{One, 0}
)

func V2(x, y Fixed) Vec2           { return Vec2{x, y} }
func V2Int(x, y int) Vec2          { return Vec2{FromInt(x), FromInt(y)} }
func V2Float(x, y float64) Vec2    { return Vec2{FromFloat(x), FromFloat(y)} }
func Splat(v Fixed) Vec2           { return Vec2{v, v} }
func (v Vec2) Add(o Vec2) Vec2     { return Vec2{v.X.Add(o.X), v.Y.Add(o.Y)} }
func (v Vec2) Sub(o Vec2) Vec2     { return Vec2{v.X.Sub(o.X), v.Y.Sub(o.Y)} }
func (v Vec2) AddSat(o Vec2) Vec2  { return Vec2{v.X.AddSat(o.X), v.Y.AddSat(o.Y)} }
func (v Vec2) SubSat(o Vec2) Vec2  { return Vec2{v.X.SubSat(o.X), v.Y.SubSat(o.Y)} }
func (v Vec2) Scale(s Fixed) Vec2  { return Vec2{v.X.Mul(s), v.Y.Mul(s)} }
func (v Vec2) Neg() Vec2           { return Vec2{v.X.Neg(), v.Y.Neg()} }
func (v Vec2) Abs() Vec2           { return Vec2{v.X.Abs(), v.Y.Abs()} }
func (v Vec2) Min(o Vec2) Vec2     { return Vec2{v.X.Min(o.X), v.Y.Min(o.Y)} }
func (v Vec2) Max(o Vec2) Vec2     { return Vec2{v.X.Max(o.X), v.Y.Max(o.Y)} }
func (v Vec2) IsZero() bool        { return v.X == 0 && v.Y == 0 }
func (v Vec2) Perpendicular() Vec2 { return Vec2{v.Y.Neg(), v.X} }

// Dot returns x1*x2 + y1*y2
func (v Vec2) Dot(o Vec2) Fixed {
	return v.X.Mul(o.X).Add(v.Y.Mul(o.Y))
}

// Cross returns the z component of the 3D cross product
func (v Vec2) Cross(o Vec2) Fixed {
	return v.X.Mul(o.Y).Sub(v.Y.Mul(o.X))
}

// LengthSq returns squared length in Q16.16, wraps for lengths above ~181
// Use LengthSqRaw for comparisons on world-scale distances
func (v Vec2) LengthSq() Fixed {
	return v.Dot(v)
}

// LengthSqRaw returns x² + y² of the raw components (Q32.32) without overflow
func (v Vec2) LengthSqRaw() uint64 {
	x, y := int64(v.X), int64(v.Y)
	return uint64(x*x) + uint64(y*y)
}

// Length returns the exact integer square root of the raw squared length
func (v Vec2) Length() Fixed {
	return Fixed(isqrt(v.LengthSqRaw()))
}

// Normalize returns unit vector, zero-safe
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X.Div(l), v.Y.Div(l)}
}

// DistanceSqRaw returns squared distance in Q32.32
func (v Vec2) DistanceSqRaw(o Vec2) uint64 {
	return o.Sub(v).LengthSqRaw()
}

// Reflect returns v reflected off a surface with unit normal n
// v' = v - 2 * dot(v, n) * n
func (v Vec2) Reflect(n Vec2) Vec2 {
	d := v.Dot(n).MulInt(2)
	return v.Sub(n.Scale(d))
}

// Lerp returns v + (o-v)*t per component
func (v Vec2) Lerp(o Vec2, t Fixed) Vec2 {
	return Vec2{v.X.Lerp(o.X, t), v.Y.Lerp(o.Y, t)}
}

func (v Vec2) String() string {
	return "(" + v.X.String() + ", " + v.Y.String() + ")"
}
