// SPDX-License-Identifier: GPL-2.0-or-later
package bsp

import (
	"fmt"
	"image/color"
	"slices"

	qmath "hlbsp/math"
	"hlbsp/math/vec"
)

// packLightmaps arranges the blocks in rows, one atlas per row. Blocks are
// taken in ascending height, the row height grows by doubling until the next
// block fits. The faces of packed blocks get their atlas index and the light
// coordinates of their vertices are moved into atlas space.
func packLightmaps(l *Level, blocks []lightBlock, lighting []byte, maxWidth int) []Texture {
	slices.SortStableFunc(blocks, func(a, b lightBlock) int {
		return a.h - b.h
	})
	var atlases []Texture
	bucket := 2
	for len(blocks) > 0 {
		n, width := 0, 0
		for n < len(blocks) && blocks[n].h <= bucket {
			if width+blocks[n].w > maxWidth {
				if n == 0 {
					// too wide for any row, it gets an atlas of its own
					n, width = 1, blocks[0].w
				}
				break
			}
			width += blocks[n].w
			n++
		}
		if n == 0 {
			bucket *= 2
			continue
		}
		atlas := newAtlas(fmt.Sprintf("%s:lightmap%d", l.Name, len(atlases)),
			qmath.NextPow2(width), bucket)
		x := 0
		for _, b := range blocks[:n] {
			atlas.blit(b, x, lighting)
			f := &l.Faces[b.face]
			f.Lightmap = len(atlases)
			verts := l.FaceVertices(b.face)
			for j := range verts {
				lc := verts[j].LightUV
				verts[j].LightUV = vec.Vec2{
					X: (lc.X + float32(x)) / float32(atlas.Width()),
					Y: lc.Y / float32(atlas.Height()),
				}
			}
			x += b.w
		}
		atlases = append(atlases, atlas.ImageTexture)
		blocks = blocks[n:]
	}
	return atlases
}

type atlas struct {
	*ImageTexture
}

func newAtlas(name string, w, h int) atlas {
	return atlas{NewSolidTexture(name, w, h, white)}
}

// blit copies the samples of b to column x0. Samples outside of the lighting
// lump stay white.
func (a atlas) blit(b lightBlock, x0 int, lighting []byte) {
	img := a.Image()
	for y := 0; y < b.h; y++ {
		for x := 0; x < b.w; x++ {
			o := b.offset + 3*(y*b.w+x)
			if o < 0 || o+3 > len(lighting) {
				continue
			}
			img.SetNRGBA(x0+x, y, color.NRGBA{lighting[o], lighting[o+1], lighting[o+2], 255})
		}
	}
}
