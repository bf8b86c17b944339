// SPDX-License-Identifier: GPL-2.0-or-later
package bsp

import (
	qmath "hlbsp/math"
	"hlbsp/math/vec"
)

// Collision is a hit at Fraction of a movement against a surface with
// the given Normal.
type Collision struct {
	Fraction float32
	Normal   vec.Vec3
}

type CollisionParams struct {
	// Margin is kept between sphere and surface. Collisions closer than
	// Margin are merged.
	Margin float32
	// MaxBounces limits the slides of one Resolve call.
	MaxBounces int
	// Fractions below SnapZero become 0, above SnapOne 1.
	SnapZero float32
	SnapOne  float32
}

func DefaultCollisionParams() CollisionParams {
	return CollisionParams{
		Margin:     1.0 / 32,
		MaxBounces: 100,
		SnapZero:   0.001,
		SnapOne:    0.9,
	}
}

// Collider moves spheres through a level. It does not modify the level and
// can be used concurrently.
type Collider struct {
	level  *Level
	params CollisionParams
}

func NewCollider(l *Level, p CollisionParams) *Collider {
	return &Collider{level: l, params: p}
}

func (c *Collider) Params() CollisionParams { return c.params }

// CheckFace tests a sphere of the given radius moving from
// start+movement*startFrac to start+movement*endFrac against face.
// Only the front side of a face collides.
func (c *Collider) CheckFace(face int, start, movement vec.Vec3, startFrac, endFrac, radius float32) *Collision {
	p := c.level.FacePlane(face)
	ds := p.Distance(vec.MulAdd(start, movement, startFrac))
	de := p.Distance(vec.MulAdd(start, movement, endFrac))
	if ds < radius {
		// starts behind or inside the face
		return nil
	}
	if de >= ds {
		// moving away or parallel
		return nil
	}
	if de >= radius {
		return nil
	}
	f := qmath.Clamp(0, (ds-radius)/(ds-de), 1)
	f = startFrac + f*(endFrac-startFrac)

	touch := vec.Sub(vec.MulAdd(start, movement, f), p.Normal.Scale(radius))
	verts := c.level.FaceVertices(face)
	if len(verts) < 3 {
		return nil
	}
	if !pointInPolygon(verts, touch) {
		q := closestPointOnPolygon(verts, touch)
		if vec.Sub(touch, q).LengthSquare() > radius*radius {
			return nil
		}
	}
	return &Collision{Fraction: f, Normal: p.Normal}
}

// ClosestCollision returns the earlier of a and b. Collisions within the
// margin are merged into one with the averaged normal.
func (c *Collider) ClosestCollision(a, b *Collision) *Collision {
	var r Collision
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		r = *b
	case b == nil:
		r = *a
	case abs(a.Fraction-b.Fraction) < c.params.Margin:
		r = Collision{
			Fraction: min(a.Fraction, b.Fraction),
			Normal:   vec.Add(a.Normal, b.Normal).Normalize(),
		}
	case a.Fraction < b.Fraction:
		r = *a
	default:
		r = *b
	}
	if r.Fraction < c.params.SnapZero {
		r.Fraction = 0
	}
	if r.Fraction > c.params.SnapOne {
		r.Fraction = 1
	}
	return &r
}

func (c *Collider) CheckLeaf(leaf int, start, movement vec.Vec3, startFrac, endFrac, radius float32) *Collision {
	var r *Collision
	for _, f := range c.level.LeafFaces(leaf) {
		r = c.ClosestCollision(r, c.CheckFace(f, start, movement, startFrac, endFrac, radius))
	}
	return r
}

// CheckNode tests the movement range [startFrac, endFrac] against the subtree
// n. Where the sphere crosses the splitting plane both children are tested,
// each with the part of the range reaching into it.
func (c *Collider) CheckNode(n NodeRef, start, movement vec.Vec3, startFrac, endFrac, radius float32) *Collision {
	if n.IsLeaf() {
		return c.CheckLeaf(n.Index(), start, movement, startFrac, endFrac, radius)
	}
	node := &c.level.Nodes[n.Index()]
	p := c.level.Planes[node.Plane]
	ds := p.Distance(vec.MulAdd(start, movement, startFrac))
	de := p.Distance(vec.MulAdd(start, movement, endFrac))

	switch {
	case ds >= radius && de >= radius:
		return c.CheckNode(node.Children[Front], start, movement, startFrac, endFrac, radius)
	case ds <= -radius && de <= -radius:
		return c.CheckNode(node.Children[Back], start, movement, startFrac, endFrac, radius)
	}

	near, far := node.Children[Front], node.Children[Back]
	if ds < 0 {
		near, far = far, near
	}
	ad := abs(ds) + abs(de)
	if ad < planeTolerance {
		return c.ClosestCollision(
			c.CheckNode(near, start, movement, startFrac, endFrac, radius),
			c.CheckNode(far, start, movement, startFrac, endFrac, radius))
	}
	d := endFrac - startFrac
	nearEnd := qmath.Clamp(startFrac, startFrac+d*(abs(ds)+radius)/ad+c.params.Margin, endFrac)
	farStart := qmath.Clamp(startFrac, endFrac-d*(abs(de)+radius)/ad-c.params.Margin, endFrac)
	return c.ClosestCollision(
		c.CheckNode(near, start, movement, startFrac, nearEnd, radius),
		c.CheckNode(far, start, movement, farStart, endFrac, radius))
}

// trace returns the first collision of the full movement with the world
// and the attached models.
func (c *Collider) trace(start, movement vec.Vec3, radius float32) *Collision {
	r := c.CheckNode(c.level.Root(), start, movement, 0, 1, radius)
	for _, f := range c.level.ModelFaces {
		r = c.ClosestCollision(r, c.CheckFace(f, start, movement, 0, 1, radius))
	}
	return r
}

// Resolve moves a sphere of the given radius from start by movement and
// returns the movement actually possible. On a hit the sphere stops Margin
// before the surface and slides along it with the remaining movement.
func (c *Collider) Resolve(start, movement vec.Vec3, radius float32) vec.Vec3 {
	const stopped = 1e-6
	if movement.IsZero(0) {
		return movement
	}
	var res vec.Vec3
	bounces := 0
	for !movement.IsZero(stopped) {
		pos := vec.Add(start, res)
		col := c.trace(pos, movement, radius)
		if col == nil || col.Fraction == 1 {
			break
		}
		mag := movement.Length()
		dir := movement.Scale(1 / mag)
		adv := max(0, col.Fraction*mag-c.params.Margin)
		res = vec.MulAdd(res, dir, adv)

		bounces++
		if bounces >= c.params.MaxBounces {
			movement = vec.Vec3{}
			break
		}
		n := col.Normal
		movement = vec.Cross(vec.Cross(n, dir), n).Scale((1 - col.Fraction) * mag)
	}
	return vec.Add(res, movement)
}
