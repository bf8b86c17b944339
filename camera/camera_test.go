// SPDX-License-Identifier: GPL-2.0-or-later

package camera

import (
	"testing"

	"github.com/chewxy/math32"

	"hlbsp/math/vec"
)

func near(a, b vec.Vec3) bool {
	const eps = 1e-5
	return math32.Abs(a.X-b.X) < eps && math32.Abs(a.Y-b.Y) < eps && math32.Abs(a.Z-b.Z) < eps
}

func TestDirection(t *testing.T) {
	tests := []struct {
		yaw, pitch float32
		want       vec.Vec3
	}{
		{0, 0, vec.Vec3{X: 0, Y: 0, Z: 1}},
		{90, 0, vec.Vec3{X: 1, Y: 0, Z: 0}},
		{0, 90, vec.Vec3{X: 0, Y: 1, Z: 0}},
		{180, 0, vec.Vec3{X: 0, Y: 0, Z: -1}},
	}
	for _, tc := range tests {
		c := Camera{Yaw: tc.yaw, Pitch: tc.pitch}
		if got := c.Direction(); !near(got, tc.want) {
			t.Errorf("Direction(yaw %v, pitch %v) = %v, want %v", tc.yaw, tc.pitch, got, tc.want)
		}
	}
}

func TestUp(t *testing.T) {
	c := Camera{}
	if got := c.Up(); !near(got, vec.Vec3{X: 0, Y: 1, Z: 0}) {
		t.Errorf("Up() = %v", got)
	}
	c.Pitch = 90
	if got := c.Up(); !near(got, vec.Vec3{X: 0, Y: 0, Z: -1}) {
		t.Errorf("Up() looking up = %v", got)
	}
	c = Camera{Roll: 90}
	if got := c.Up(); math32.Abs(got.Y) > 1e-5 || math32.Abs(got.Length()-1) > 1e-5 {
		t.Errorf("Up() rolled = %v", got)
	}
}

func TestFrustum(t *testing.T) {
	c := New(100, 100, 90, 1, 100)
	c.Position = vec.Vec3{X: 0, Y: 10, Z: 0}
	f := c.Frustum()
	for i, p := range f {
		if l := p.Normal.Length(); math32.Abs(l-1) > 1e-4 {
			t.Errorf("plane %d normal length %v", i, l)
		}
	}
	tests := []struct {
		p      vec.Vec3
		inside bool
	}{
		{vec.Vec3{X: 0, Y: 10, Z: 10}, true},
		{vec.Vec3{X: 5, Y: 15, Z: 10}, true},
		{vec.Vec3{X: 0, Y: 10, Z: -10}, false}, // behind
		{vec.Vec3{X: 0, Y: 10, Z: 200}, false}, // beyond far
		{vec.Vec3{X: 20, Y: 10, Z: 10}, false}, // right of the 45 degree side
		{vec.Vec3{X: 0, Y: -10, Z: 10}, false}, // below
	}
	for _, tc := range tests {
		if got := f.SphereInside(tc.p, 0.01); got != tc.inside {
			t.Errorf("SphereInside(%v) = %v, want %v", tc.p, got, tc.inside)
		}
	}
	// a big sphere reaches into the view volume
	if !f.SphereInside(vec.Vec3{X: 0, Y: 10, Z: -10}, 15) {
		t.Errorf("sphere overlapping the near plane culled")
	}
}

func TestTurn(t *testing.T) {
	c := New(640, 480, 90, 1, 1000)
	c.Turn(-90, 120)
	if c.Yaw != 270 || c.Pitch != MaxPitch {
		t.Errorf("Turn(-90, 120) = yaw %v pitch %v, want 270 %v", c.Yaw, c.Pitch, MaxPitch)
	}
	c.Turn(450, -200)
	if c.Yaw != 0 || c.Pitch != -MaxPitch {
		t.Errorf("Turn(450, -200) = yaw %v pitch %v, want 0 %v", c.Yaw, c.Pitch, -MaxPitch)
	}
}
