// SPDX-License-Identifier: GPL-2.0-or-later

// Package camera builds the view and projection of a first person camera in
// level coordinates (Y up) and the matching culling frustum.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"hlbsp/bsp"
	qmath "hlbsp/math"
	"hlbsp/math/vec"
)

type Camera struct {
	Position vec.Vec3
	// angles in degrees. Yaw 0 looks along +Z, positive pitch looks up.
	Pitch, Yaw, Roll float32
	FOV              float32 // vertical, degrees
	Aspect           float32
	Near, Far        float32
}

func New(width, height int, fov, near, far float32) *Camera {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return &Camera{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
	}
}

// MaxPitch keeps the view direction away from straight up and down.
const MaxPitch = 89

// Turn rotates the camera. Yaw wraps into [0, 360), pitch is clamped to
// ±MaxPitch.
func (c *Camera) Turn(yaw, pitch float32) {
	c.Yaw = qmath.AngleMod32(c.Yaw + yaw)
	c.Pitch = qmath.Clamp(-MaxPitch, c.Pitch+pitch, MaxPitch)
}

// Direction returns the unit view direction.
func (c *Camera) Direction() vec.Vec3 {
	sy, cy := math32.Sincos(qmath.Deg2Rad(c.Yaw))
	sp, cp := math32.Sincos(qmath.Deg2Rad(c.Pitch))
	return vec.Vec3{X: sy * cp, Y: sp, Z: cy * cp}
}

// Up returns the unit up vector including roll.
func (c *Camera) Up() vec.Vec3 {
	sy, cy := math32.Sincos(qmath.Deg2Rad(c.Yaw))
	dir := c.Direction()
	right := vec.Vec3{X: -cy, Y: 0, Z: sy}
	up := vec.Cross(right, dir).Normalize()
	if c.Roll == 0 {
		return up
	}
	r := mgl32.HomogRotate3D(qmath.Deg2Rad(c.Roll), toMgl(dir))
	u := r.Mul4x1(toMgl(up).Vec4(0))
	return vec.Vec3{X: u.X(), Y: u.Y(), Z: u.Z()}
}

func toMgl(v vec.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v.X, v.Y, v.Z}
}

func (c *Camera) View() mgl32.Mat4 {
	eye := toMgl(c.Position)
	return mgl32.LookAtV(eye, eye.Add(toMgl(c.Direction())), toMgl(c.Up()))
}

func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(qmath.Deg2Rad(c.FOV), c.Aspect, c.Near, c.Far)
}

// Frustum returns the left, right, bottom, top, near and far planes of the
// view volume with normals pointing inside.
func (c *Camera) Frustum() bsp.Frustum {
	m := c.Projection().Mul4(c.View())
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)
	return bsp.Frustum{
		plane(r3.Add(r0)),
		plane(r3.Sub(r0)),
		plane(r3.Add(r1)),
		plane(r3.Sub(r1)),
		plane(r3.Add(r2)),
		plane(r3.Sub(r2)),
	}
}

// plane converts ax+by+cz+d >= 0 into the level plane convention.
func plane(v mgl32.Vec4) bsp.Plane {
	return bsp.Plane{
		Normal: vec.Vec3{X: v.X(), Y: v.Y(), Z: v.Z()},
		Dist:   -v.W(),
	}.Normalize()
}
