// SPDX-License-Identifier: GPL-2.0-or-later

package math

import (
	gmath "math"
)

const (
	Pi = gmath.Pi
)

// NextPow2 returns the smallest power of two >= v. Values below 1 yield 1.
func NextPow2(v int) int {
	p := 1
	for p < v {
		p <<= 1
	}
	return p
}

func Deg2Rad(d float32) float32 {
	return d * Pi / 180
}
