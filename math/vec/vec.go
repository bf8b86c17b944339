// SPDX-License-Identifier: GPL-2.0-or-later

package vec

import (
	"github.com/chewxy/math32"
)

type Vec3 struct {
	X, Y, Z float32
}

type Vec2 struct {
	X, Y float32
}

func VFromA(a [3]float32) Vec3 {
	return Vec3{a[0], a[1], a[2]}
}

// SwapYZ converts between the on-disk (X, Z, Y) order and (X, Y, Z).
func SwapYZ(a [3]float32) Vec3 {
	return Vec3{a[0], a[2], a[1]}
}

// Length returns the length of the vector
func (v Vec3) Length() float32 {
	return math32.Sqrt(Dot(v, v))
}

// LengthSquare returns the squared length of the vector
func (v Vec3) LengthSquare() float32 {
	return Dot(v, v)
}

// IsZero reports whether every component is within eps of 0.
func (v Vec3) IsZero(eps float32) bool {
	return math32.Abs(v.X) <= eps && math32.Abs(v.Y) <= eps && math32.Abs(v.Z) <= eps
}

// Add returns a + b
func Add(a, b Vec3) Vec3 {
	return Vec3{
		X: a.X + b.X,
		Y: a.Y + b.Y,
		Z: a.Z + b.Z,
	}
}

// Sub returns a - b
func Sub(a, b Vec3) Vec3 {
	return Vec3{
		X: a.X - b.X,
		Y: a.Y - b.Y,
		Z: a.Z - b.Z,
	}
}

// Scale returns the vector multiplied by the skalar s
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{
		X: v.X * s,
		Y: v.Y * s,
		Z: v.Z * s,
	}
}

func (v Vec3) Neg() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

// Normalize returns the normalized vector
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Dot returns a dot b
func Dot(a Vec3, b Vec3) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Cross returns a cross b
func Cross(a, b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

// Distance returns the length of a - b
func Distance(a, b Vec3) float32 {
	return Sub(a, b).Length()
}

// MulAdd returns a + b*s
func MulAdd(a, b Vec3, s float32) Vec3 {
	return Vec3{
		a.X + b.X*s,
		a.Y + b.Y*s,
		a.Z + b.Z*s,
	}
}

// Equal returns a == b
func Equal(a Vec3, b Vec3) bool {
	return a.X == b.X && a.Y == b.Y && a.Z == b.Z
}
