// SPDX-License-Identifier: GPL-2.0-or-later
package bsp

import (
	"cmp"
	"slices"

	"hlbsp/math/vec"
)

type Blend struct {
	Enabled      bool
	Alpha        uint8
	TextureAlpha bool
}

// DrawEntry is one face in draw order. Faces are triangle fans over the
// vertex run FirstVertex:FirstVertex+NumVertices of Level.Vertices.
type DrawEntry struct {
	Face        int
	FirstVertex int
	NumVertices int
	Texture     int
	Lightmap    int // -1: no lighting
	Blend       Blend
	Distance    float32
}

// DrawList holds the opaque faces front to back followed by the transparent
// faces back to front. The sky belongs in between, at SkyIndex.
type DrawList struct {
	Entries  []DrawEntry
	SkyIndex int
	sky      bool
}

// Renderer receives the draw list. It is implemented by the graphics backend.
type Renderer interface {
	DrawSky()
	DrawFace(e DrawEntry)
}

// Submit hands the list to r in order. DrawSky is only called for levels
// with a sky.
func (d *DrawList) Submit(r Renderer) {
	for i := range d.Entries {
		if i == d.SkyIndex && d.sky {
			r.DrawSky()
		}
		r.DrawFace(d.Entries[i])
	}
	if d.SkyIndex >= len(d.Entries) && d.sky {
		r.DrawSky()
	}
}

// VisibleFaces collects the faces to draw from pos. With bspFilter only the
// faces of leaves in the potentially visible set of pos and the attached
// model faces are considered, otherwise every textured face. With
// frustumCull faces whose bounding sphere is outside of the frustum are
// dropped.
func (l *Level) VisibleFaces(pos vec.Vec3, frustum *Frustum, bspFilter, frustumCull bool) *DrawList {
	var faces []int
	if bspFilter {
		seen := make([]bool, len(l.Faces))
		for _, lf := range l.VisibleLeaves(l.PointInLeaf(pos)) {
			for _, fi := range l.LeafFaces(lf) {
				f := &l.Faces[fi]
				if seen[fi] || f.Texture < 0 || f.IsModel {
					continue
				}
				seen[fi] = true
				faces = append(faces, fi)
			}
		}
		faces = append(faces, l.ModelFaces...)
	} else {
		for i := range l.Faces {
			if l.Faces[i].Texture >= 0 {
				faces = append(faces, i)
			}
		}
	}

	d := &DrawList{
		Entries: make([]DrawEntry, 0, len(faces)),
		sky:     l.Sky != nil,
	}
	for _, fi := range faces {
		f := &l.Faces[fi]
		if frustumCull && frustum != nil && !frustum.SphereInside(f.Center, f.Radius) {
			continue
		}
		d.Entries = append(d.Entries, DrawEntry{
			Face:        fi,
			FirstVertex: f.FirstVertex,
			NumVertices: f.NumVertices,
			Texture:     f.Texture,
			Lightmap:    f.Lightmap,
			Blend: Blend{
				Enabled:      f.Transparent(),
				Alpha:        f.Alpha,
				TextureAlpha: f.TextureAlpha,
			},
			Distance: vec.Distance(f.Center, pos),
		})
	}
	sortEntries(d)
	return d
}

// sortEntries orders the entries for drawing and sets SkyIndex.
func sortEntries(d *DrawList) {
	slices.SortStableFunc(d.Entries, compareEntries)
	d.SkyIndex = len(d.Entries)
	for i := range d.Entries {
		if d.Entries[i].Blend.Enabled {
			d.SkyIndex = i
			break
		}
	}
}

func compareEntries(a, b DrawEntry) int {
	switch {
	case a.Blend.Enabled != b.Blend.Enabled:
		if a.Blend.Enabled {
			return 1
		}
		return -1
	case a.Distance != b.Distance:
		if a.Blend.Enabled {
			return cmp.Compare(b.Distance, a.Distance)
		}
		return cmp.Compare(a.Distance, b.Distance)
	}
	return cmp.Compare(a.Face, b.Face)
}
