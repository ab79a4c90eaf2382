// Package vecmath provides the 2D vector arithmetic shared by every store.
// All engine state is float32; the solvers live in impulse space so every
// helper here is a straight value type with no allocation.
package vecmath

import "math"

// Vec2 is a 2D vector or point, stored as two float32 components.
type Vec2 struct {
	X, Y float32
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

// Scale returns v*s.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Dot returns the scalar dot product v·o.
func (v Vec2) Dot(o Vec2) float32 {
	return v.X*o.X + v.Y*o.Y
}

// Cross returns the 2D scalar cross product v×o (the Z component of the
// 3D cross product with both vectors' Z held at zero).
func (v Vec2) Cross(o Vec2) float32 {
	return v.X*o.Y - v.Y*o.X
}

// Perp returns the vector rotated 90 degrees counter-clockwise: (-y, x).
func (v Vec2) Perp() Vec2 {
	return Vec2{-v.Y, v.X}
}

// LenSq returns the squared length of v.
func (v Vec2) LenSq() float32 {
	return v.X*v.X + v.Y*v.Y
}

// Len returns the length of v.
func (v Vec2) Len() float32 {
	return float32(math.Sqrt(float64(v.LenSq())))
}

// Unit returns v normalized to unit length, or the zero vector if v has
// zero length. Callers that need a deterministic tie-break for a
// degenerate zero-length vector (contacts) do not use this helper —
// see contact.Store.ComputeData, which falls back to (1, 0).
func (v Vec2) Unit() Vec2 {
	d := v.Len()
	if d <= 0 {
		return Vec2{}
	}
	return v.Scale(1 / d)
}

// Zero is the additive identity.
var Zero = Vec2{}
