// SPDX-License-Identifier: GPL-2.0-or-later
package bsp

import (
	"strconv"
	"strings"

	qmath "hlbsp/math"
	"hlbsp/math/vec"
)

// modelIndex parses the "*N" model reference of brush entities.
func modelIndex(e *Entity) (int, bool) {
	m, ok := e.Property("model")
	if !ok || !strings.HasPrefix(m, "*") {
		return 0, false
	}
	i, err := strconv.Atoi(m[1:])
	if err != nil {
		return 0, false
	}
	return i, true
}

// attachModels moves the faces of brush entities to their origin and applies
// the render settings of the entity.
func (ld *loader) attachModels() {
	l := ld.level
	done := make(map[int]bool)
	for _, e := range l.FindEntities(ld.opts.AttachedClasses...) {
		mi, ok := modelIndex(e)
		if !ok || done[mi] {
			continue
		}
		if mi < 0 || mi >= len(l.Models) {
			cn, _ := e.Name()
			ld.warnf("%s references missing model *%d", cn, mi)
			continue
		}
		done[mi] = true
		mode, _ := e.Int("rendermode")
		amt, ok := e.Int("renderamt")
		if !ok {
			amt = 255
		}
		alpha := uint8(255)
		if mode != 0 {
			alpha = uint8(qmath.Clamp(0, amt, 255))
		}
		m := &l.Models[mi]
		for fi := m.FirstFace; fi < m.FirstFace+m.NumFaces; fi++ {
			f := &l.Faces[fi]
			f.IsModel = true
			f.Alpha = alpha
			f.TextureAlpha = mode == 4
			f.Center = vec.Add(f.Center, m.Origin)
			verts := l.FaceVertices(fi)
			for j := range verts {
				verts[j].Pos = vec.Add(verts[j].Pos, m.Origin)
			}
		}
	}
	for i := range l.Faces {
		if l.Faces[i].IsModel && l.Faces[i].Texture >= 0 {
			l.ModelFaces = append(l.ModelFaces, i)
		}
	}
}
