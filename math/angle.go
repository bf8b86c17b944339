// SPDX-License-Identifier: GPL-2.0-or-later

package math

import "math"

// AngleMod32 wraps a in degrees into [0, 360).
func AngleMod32(a float32) float32 {
	return float32(AngleMod(float64(a)))
}

// AngleMod wraps a in degrees into [0, 360).
func AngleMod(a float64) float64 {
	return a - math.Floor(a/360)*360
}
