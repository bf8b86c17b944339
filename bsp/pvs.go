// SPDX-License-Identifier: GPL-2.0-or-later
package bsp

import (
	"hlbsp/math/vec"
)

// PointInLeaf returns the leaf containing p.
func (l *Level) PointInLeaf(p vec.Vec3) int {
	n := l.Root()
	for !n.IsLeaf() {
		node := &l.Nodes[n.Index()]
		if l.Planes[node.Plane].Distance(p) >= 0 {
			n = node.Children[Front]
		} else {
			n = node.Children[Back]
		}
	}
	return n.Index()
}

// DecompressVis expands the run length encoded visibility row starting at
// offset. Entry i of the result belongs to leaf i+1. A negative offset or a
// row running past the end of the data marks the remaining leaves visible.
func (l *Level) DecompressVis(offset int) []bool {
	row := len(l.Leaves) - 1
	if row <= 0 {
		return []bool{}
	}
	vis := make([]bool, row)
	markRest := func(from int) {
		for i := from; i < row; i++ {
			vis[i] = true
		}
	}
	if offset < 0 {
		markRest(0)
		return vis
	}
	in := offset
	out := 0
	for out < row {
		if in >= len(l.Visibility) {
			markRest(out)
			return vis
		}
		b := l.Visibility[in]
		in++
		if b != 0 {
			for bit := 0; bit < 8 && out < row; bit++ {
				vis[out] = b&(1<<bit) != 0
				out++
			}
			continue
		}
		if in >= len(l.Visibility) {
			markRest(out)
			return vis
		}
		// zero run, already false
		out += 8 * int(l.Visibility[in])
		in++
	}
	return vis
}

// VisibleLeaves returns the leaves visible from leaf. Leaf 0 is always part
// of the result. A level without leaves has nothing visible.
func (l *Level) VisibleLeaves(leaf int) []int {
	if leaf < 0 || leaf >= len(l.Leaves) {
		return nil
	}
	r := []int{0}
	for i, v := range l.DecompressVis(l.Leaves[leaf].VisOffset) {
		if v {
			r = append(r, i+1)
		}
	}
	return r
}
