// SPDX-License-Identifier: GPL-2.0-or-later
package bsp

import (
	"github.com/chewxy/math32"

	qmath "hlbsp/math"
	"hlbsp/math/vec"
)

// full circle minus float slack
const insideAngle = 6.2828

// closestPointOnLine returns the point of segment ab nearest to p.
func closestPointOnLine(a, b, p vec.Vec3) vec.Vec3 {
	v := vec.Sub(b, a)
	d := v.Length()
	if d == 0 {
		return a
	}
	v = v.Scale(1 / d)
	t := vec.Dot(v, vec.Sub(p, a))
	if t < 0 {
		return a
	}
	if t > d {
		return b
	}
	return vec.MulAdd(a, v, t)
}

// closestPointOnPolygon returns the point on the outline of the polygon
// nearest to p.
func closestPointOnPolygon(verts []Vertex, p vec.Vec3) vec.Vec3 {
	r := p
	best := float32(math32.MaxFloat32)
	prev := len(verts) - 1
	for i := range verts {
		q := closestPointOnLine(verts[prev].Pos, verts[i].Pos, p)
		if d := vec.Sub(q, p).LengthSquare(); d < best {
			r, best = q, d
		}
		prev = i
	}
	return r
}

// pointInPolygon reports whether p, lying in the plane of the polygon, is
// inside of it. The angles between p and consecutive vertices sum up to a
// full circle only for inside points.
func pointInPolygon(verts []Vertex, p vec.Vec3) bool {
	if len(verts) < 3 {
		return false
	}
	w := vec.Sub(verts[len(verts)-1].Pos, p).Normalize()
	var angle float32
	for i := range verts {
		v := w
		w = vec.Sub(verts[i].Pos, p).Normalize()
		angle += math32.Acos(qmath.Clamp(-1, vec.Dot(v, w), 1))
	}
	return angle > insideAngle
}
