// SPDX-License-Identifier: GPL-2.0-or-later

package math

import (
	"testing"
)

func TestNextPow2(t *testing.T) {
	for _, tc := range []struct{ in, want int }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {17, 32}, {1024, 1024}, {1025, 2048},
	} {
		if got := NextPow2(tc.in); got != tc.want {
			t.Errorf("NextPow2(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
