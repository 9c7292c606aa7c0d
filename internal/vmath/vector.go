package vmath

import "math"

// Epsilon is the length below which a vector is treated as zero.
const Epsilon = 1e-12

type Vec2 struct {
	X, Y float64
}

var (
	Zero  = Vec2{}
	UnitX = Vec2{X: 1}
	UnitY = Vec2{Y: 1}
)

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }

func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }

// Len returns the magnitude of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

func (v Vec2) LenSq() float64 { return v.X*v.X + v.Y*v.Y }

// Dist returns the Euclidean distance between v and o.
func (v Vec2) Dist(o Vec2) float64 { return math.Hypot(o.X-v.X, o.Y-v.Y) }

// Normalize returns the unit vector pointing along v. A zero-length v
// yields the zero vector and false.
func (v Vec2) Normalize() (Vec2, bool) {
	l := v.Len()
	if l < Epsilon {
		return Zero, false
	}
	return Vec2{v.X / l, v.Y / l}, true
}

// Reflect mirrors v about the line orthogonal to normal, flipping the
// component of v along normal. normal must be unit length.
func (v Vec2) Reflect(normal Vec2) Vec2 {
	return v.Sub(normal.Scale(2 * v.Dot(normal)))
}

// IsValid reports whether both components are finite.
func (v Vec2) IsValid() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
