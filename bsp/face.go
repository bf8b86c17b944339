// SPDX-License-Identifier: GPL-2.0-or-later
package bsp

import (
	"github.com/chewxy/math32"

	"hlbsp/math/vec"
)

const lightmapScale = 16

// lightBlock is the lightmap rectangle of one face before packing.
type lightBlock struct {
	face   int
	offset int // into the lighting lump
	w, h   int
}

// buildFaces fills Level.Faces and the vertex pool. Each lit face gets a
// lightBlock and block local light coordinates in Vertex.LightUV.
func (ld *loader) buildFaces(texIndex []int) []lightBlock {
	l := ld.level
	l.Faces = make([]Face, len(ld.faces))
	var blocks []lightBlock
	for i, df := range ld.faces {
		ti := ld.texInfos[df.TexInfoID]
		mip := ld.mips[ti.TextureID]
		axisU := vec.SwapYZ(ti.VectorS)
		axisV := vec.SwapYZ(ti.VectorT)

		f := &l.Faces[i]
		*f = Face{
			Plane:       int(df.PlaneID),
			FirstVertex: len(l.Vertices),
			NumVertices: int(df.ListEdgeNumber),
			Texture:     texIndex[ti.TextureID],
			Lightmap:    -1,
			Alpha:       255,
		}

		minU, minV := float32(math32.MaxFloat32), float32(math32.MaxFloat32)
		maxU, maxV := -minU, -minV
		texW, texH := float32(max(mip.Width, 1)), float32(max(mip.Height, 1))
		tcs := make([]vec.Vec2, 0, f.NumVertices)
		for j := 0; j < f.NumVertices; j++ {
			se := int(ld.surfEdges[int(df.ListEdgeID)+j])
			var p vec.Vec3
			if se > 0 {
				p = l.Positions[l.Edges[se].V[0]]
			} else {
				p = l.Positions[l.Edges[-se].V[1]]
			}
			u := vec.Dot(p, axisU) + ti.DistS
			v := vec.Dot(p, axisV) + ti.DistT
			minU, maxU = math32.Min(minU, u), math32.Max(maxU, u)
			minV, maxV = math32.Min(minV, v), math32.Max(maxV, v)
			tcs = append(tcs, vec.Vec2{X: u, Y: v})
			l.Vertices = append(l.Vertices, Vertex{
				Pos: p,
				UV:  vec.Vec2{X: u / texW, Y: v / texH},
			})
			f.Center = vec.Add(f.Center, p)
		}
		verts := l.FaceVertices(i)
		if f.NumVertices > 0 {
			f.Center = f.Center.Scale(1 / float32(f.NumVertices))
		}
		for _, v := range verts {
			f.Radius = math32.Max(f.Radius, vec.Distance(v.Pos, f.Center))
		}
		if f.NumVertices >= 2 {
			n := vec.Cross(vec.Sub(verts[0].Pos, f.Center), vec.Sub(verts[1].Pos, f.Center)).Normalize()
			f.InversePlane = vec.Dot(n, l.Planes[f.Plane].Normal) < 0
		}

		if df.LightMap < 0 || len(ld.lighting) == 0 || f.NumVertices == 0 {
			continue
		}
		b := lightBlock{
			face:   i,
			offset: int(df.LightMap),
			w:      int(math32.Ceil(maxU/lightmapScale)-math32.Floor(minU/lightmapScale)) + 1,
			h:      int(math32.Ceil(maxV/lightmapScale)-math32.Floor(minV/lightmapScale)) + 1,
		}
		for j, tc := range tcs {
			verts[j].LightUV = vec.Vec2{
				X: (float32(b.w*lightmapScale) + 2*tc.X - minU - maxU) / (2 * lightmapScale),
				Y: (float32(b.h*lightmapScale) + 2*tc.Y - minV - maxV) / (2 * lightmapScale),
			}
		}
		blocks = append(blocks, b)
	}
	return blocks
}
