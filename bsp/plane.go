// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"github.com/chewxy/math32"

	"hlbsp/math/vec"
)

const planeTolerance = 0.0000001

// Plane is the set of points p with Normal·p == Dist.
type Plane struct {
	Normal vec.Vec3
	Dist   float32
}

// Distance returns the signed distance of p to the plane, positive in front.
func (p Plane) Distance(v vec.Vec3) float32 {
	return vec.Dot(p.Normal, v) - p.Dist
}

// Normalize scales the plane to a unit normal. Degenerate planes are returned
// unchanged.
func (p Plane) Normalize() Plane {
	l := p.Normal.Length()
	if l <= planeTolerance {
		return p
	}
	return Plane{
		Normal: p.Normal.Scale(1 / l),
		Dist:   p.Dist / l,
	}
}

// Flip returns the same plane facing the other way.
func (p Plane) Flip() Plane {
	return Plane{Normal: p.Normal.Neg(), Dist: -p.Dist}
}

// Frustum holds the six clip planes of a camera, normals pointing inward.
type Frustum [6]Plane

// SphereInside reports whether a sphere is not entirely behind one of the
// planes.
func (f *Frustum) SphereInside(center vec.Vec3, radius float32) bool {
	for i := range f {
		if f[i].Distance(center) <= -radius {
			return false
		}
	}
	return true
}

func abs(f float32) float32 {
	return math32.Abs(f)
}
