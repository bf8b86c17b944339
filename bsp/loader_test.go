// SPDX-License-Identifier: GPL-2.0-or-later
package bsp

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"hlbsp/bsp/bsptest"
	"hlbsp/conlog"
	"hlbsp/math/vec"
)

const testEntities = `{
"classname" "worldspawn"
"wad" "\half-life\valve\halflife.wad;decals.wad"
"skyname" "desert"
"MaxRange" "8192"
}
{
"classname" "func_wall"
"model" "*1"
"rendermode" "2"
"renderamt" "128"
}
{
"classname" "info_player_start"
"origin" "0 0 32"
}
`

// testMap is a floor with a wall, a sky ceiling and a glass pane attached
// as func_wall. The tree splits the room by the floor and the wall plane.
func testMap() *bsptest.Builder {
	b := &bsptest.Builder{
		Entities: testEntities,
		Planes: []bsptest.Plane{
			{Normal: [3]float32{0, 1, 0}, Dist: 0},     // floor
			{Normal: [3]float32{0, 0, -1}, Dist: -128}, // wall
			{Normal: [3]float32{0, -1, 0}, Dist: -256}, // sky
			{Normal: [3]float32{1, 0, 0}, Dist: -100},  // glass
		},
		Textures: []bsptest.Texture{
			{Name: "floor", Width: 64, Height: 64},
			{Name: "sky", Width: 64, Height: 64},
			{Name: "glass", Width: 64, Height: 64},
		},
		TexInfos: []bsptest.TexInfo{
			{U: [3]float32{1, 0, 0}, V: [3]float32{0, 0, 1}, Texture: 0},
			{U: [3]float32{1, 0, 0}, V: [3]float32{0, 1, 0}, Texture: 0},
			{U: [3]float32{1, 0, 0}, V: [3]float32{0, 0, 1}, Texture: 1},
			{U: [3]float32{0, 0, 1}, V: [3]float32{0, 1, 0}, Texture: 2},
		},
		Visibility: []byte{0x01, 0x03},
		Nodes: []bsptest.Node{
			{Plane: 0, Children: [2]int16{1, ^0}},
			{Plane: 1, Children: [2]int16{^1, ^2}},
		},
		Leafs: []bsptest.Leaf{
			{Contents: LeafTypeSolid, VisOfs: -1},
			{Contents: LeafTypeEmpty, VisOfs: 0, FirstMark: 0, NumMarks: 3},
			{Contents: LeafTypeEmpty, VisOfs: 1},
		},
		MarkSurfaces: []uint16{0, 1, 2},
		Lighting:     bytes.Repeat([]byte{100}, 17*17*3),
	}
	b.AddFace(0, 0, 0,
		[3]float32{-128, 0, -128}, [3]float32{-128, 0, 128},
		[3]float32{128, 0, 128}, [3]float32{128, 0, -128})
	b.AddFace(1, 1, -1,
		[3]float32{-128, 0, 128}, [3]float32{-128, 128, 128},
		[3]float32{128, 128, 128}, [3]float32{128, 0, 128})
	b.AddFace(2, 2, -1,
		[3]float32{-128, 256, -128}, [3]float32{128, 256, -128},
		[3]float32{128, 256, 128}, [3]float32{-128, 256, 128})
	b.AddFace(3, 3, -1,
		[3]float32{-100, 0, -32}, [3]float32{-100, 64, -32},
		[3]float32{-100, 64, 32}, [3]float32{-100, 0, 32})
	b.Models = []bsptest.Model{
		{FirstFace: 0, NumFaces: 3},
		{Origin: [3]float32{0, 16, 0}, FirstFace: 3, NumFaces: 1},
	}
	return b
}

var floorColor = color.NRGBA{80, 80, 80, 255}

func testTextures() TextureSource {
	return TextureSourceFunc(func(name string) (Texture, error) {
		if name == "floor" {
			return NewSolidTexture(name, 64, 64, floorColor), nil
		}
		return nil, errors.Wrap(ErrNotFound, name)
	})
}

func loadBytes(t *testing.T, data []byte) (*Level, error) {
	t.Helper()
	return Load(bytes.NewReader(data), int64(len(data)), LoadOptions{
		Name:     "test",
		Textures: testTextures(),
	})
}

func mustLoad(t *testing.T) *Level {
	t.Helper()
	l, err := loadBytes(t, testMap().Bytes())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return l
}

func near(a, b, eps float32) bool {
	return math32.Abs(a-b) <= eps
}

func nearVec(a, b vec.Vec3, eps float32) bool {
	return near(a.X, b.X, eps) && near(a.Y, b.Y, eps) && near(a.Z, b.Z, eps)
}

func TestLoad(t *testing.T) {
	l := mustLoad(t)
	if l.Name != "test" {
		t.Errorf("Name = %q", l.Name)
	}
	if l.ID.Version() != 7 {
		t.Errorf("ID version = %d, want 7", l.ID.Version())
	}
	if len(l.Faces) != 4 || len(l.Leaves) != 3 || len(l.Nodes) != 2 || len(l.Models) != 2 {
		t.Fatalf("got %d faces, %d leaves, %d nodes, %d models",
			len(l.Faces), len(l.Leaves), len(l.Nodes), len(l.Models))
	}
	if got := l.Planes[1]; !nearVec(got.Normal, vec.Vec3{X: 0, Y: 0, Z: -1}, 1e-6) || got.Dist != -128 {
		t.Errorf("wall plane = %v", got)
	}
	if got := l.Models[1].Origin; got != (vec.Vec3{X: 0, Y: 16, Z: 0}) {
		t.Errorf("model origin = %v", got)
	}
	if len(l.Textures) != 2 {
		t.Fatalf("got %d textures, want 2", len(l.Textures))
	}
	if l.Textures[0].Pixel(3, 3) != floorColor {
		t.Errorf("floor texture not from source")
	}
	if l.Textures[1].Width() != 1 || l.Textures[1].Pixel(0, 0) != white {
		t.Errorf("glass placeholder is not white 1x1")
	}
	wantTex := []int{0, 0, -1, 1}
	for i, w := range wantTex {
		if l.Faces[i].Texture != w {
			t.Errorf("face %d texture = %d, want %d", i, l.Faces[i].Texture, w)
		}
	}
	if l.Sky == nil || l.Sky.Name != "desert" || l.Sky.Range != 8192 {
		t.Fatalf("sky = %+v", l.Sky)
	}
	if l.Sky.Texture.Pixel(0, 0) != flatSky {
		t.Errorf("sky fallback color = %v", l.Sky.Texture.Pixel(0, 0))
	}
}

func TestFaceWinding(t *testing.T) {
	l := mustLoad(t)
	want := [][3]float32{{-128, 0, -128}, {-128, 0, 128}, {128, 0, 128}, {128, 0, -128}}
	verts := l.FaceVertices(0)
	if len(verts) != len(want) {
		t.Fatalf("floor has %d vertices", len(verts))
	}
	for i, w := range want {
		if verts[i].Pos != vec.VFromA(w) {
			t.Errorf("vertex %d = %v, want %v", i, verts[i].Pos, w)
		}
	}
	for i := range l.Faces {
		if l.Faces[i].InversePlane {
			t.Errorf("face %d has inverse plane", i)
		}
	}
	f := l.Faces[0]
	if f.Center != (vec.Vec3{}) || !near(f.Radius, 181.0193, 1e-3) {
		t.Errorf("floor center %v radius %v", f.Center, f.Radius)
	}
	if uv := verts[0].UV; uv != (vec.Vec2{X: -2, Y: -2}) {
		t.Errorf("floor uv = %v", uv)
	}
}

func TestLightmaps(t *testing.T) {
	l := mustLoad(t)
	if len(l.Lightmaps) != 1 {
		t.Fatalf("got %d lightmaps, want 1", len(l.Lightmaps))
	}
	lm := l.Lightmaps[0]
	if lm.Width() != 32 || lm.Height() != 32 {
		t.Errorf("atlas is %dx%d, want 32x32", lm.Width(), lm.Height())
	}
	if got := lm.Pixel(16, 16); got != (color.NRGBA{100, 100, 100, 255}) {
		t.Errorf("sample = %v", got)
	}
	if got := lm.Pixel(20, 0); got != white {
		t.Errorf("padding column = %v", got)
	}
	if got := lm.Pixel(0, 20); got != white {
		t.Errorf("padding row = %v", got)
	}
	if l.Faces[0].Lightmap != 0 || l.Faces[1].Lightmap != -1 {
		t.Errorf("lightmap indices %d %d", l.Faces[0].Lightmap, l.Faces[1].Lightmap)
	}
	verts := l.FaceVertices(0)
	if uv := verts[0].LightUV; !near(uv.X, 0.015625, 1e-6) || !near(uv.Y, 0.015625, 1e-6) {
		t.Errorf("light uv 0 = %v", uv)
	}
	if uv := verts[2].LightUV; !near(uv.X, 0.515625, 1e-6) || !near(uv.Y, 0.515625, 1e-6) {
		t.Errorf("light uv 2 = %v", uv)
	}
}

func TestPackLightmapsTooWide(t *testing.T) {
	l := &Level{
		Faces:    []Face{{NumVertices: 0}, {FirstVertex: 0, NumVertices: 0}},
		Vertices: nil,
	}
	blocks := []lightBlock{{face: 0, w: 8, h: 4}, {face: 1, w: 40, h: 2}}
	atlases := packLightmaps(l, blocks, nil, 16)
	if len(atlases) != 2 {
		t.Fatalf("got %d atlases, want 2", len(atlases))
	}
	if atlases[0].Width() != 64 || atlases[0].Height() != 2 {
		t.Errorf("wide atlas is %dx%d", atlases[0].Width(), atlases[0].Height())
	}
	if atlases[1].Width() != 8 || atlases[1].Height() != 4 {
		t.Errorf("second atlas is %dx%d", atlases[1].Width(), atlases[1].Height())
	}
	if l.Faces[1].Lightmap != 0 || l.Faces[0].Lightmap != 1 {
		t.Errorf("lightmap indices %d %d", l.Faces[0].Lightmap, l.Faces[1].Lightmap)
	}
}

func TestModelFaces(t *testing.T) {
	l := mustLoad(t)
	f := l.Faces[3]
	if !f.IsModel || f.Alpha != 128 || f.TextureAlpha || !f.Transparent() {
		t.Errorf("glass face = %+v", f)
	}
	if l.Faces[0].IsModel || l.Faces[0].Alpha != 255 {
		t.Errorf("floor face = %+v", l.Faces[0])
	}
	if got := l.FaceVertices(3)[0].Pos; got != (vec.Vec3{X: -100, Y: 16, Z: -32}) {
		t.Errorf("glass vertex = %v", got)
	}
	if f.Center != (vec.Vec3{X: -100, Y: 48, Z: 0}) {
		t.Errorf("glass center = %v", f.Center)
	}
	if len(l.ModelFaces) != 1 || l.ModelFaces[0] != 3 {
		t.Errorf("ModelFaces = %v", l.ModelFaces)
	}
}

func TestTextureWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	conlog.SetLogger(zap.New(core))
	t.Cleanup(func() { conlog.SetLogger(nil) })

	mustLoad(t)
	if n := logs.FilterMessageSnippet(`"glass"`).Len(); n != 1 {
		t.Errorf("got %d glass warnings, want 1", n)
	}
	if n := logs.FilterMessageSnippet(`defaultsky.bmp`).Len(); n != 1 {
		t.Errorf("got %d default sky warnings, want 1", n)
	}
}

func TestLoadErrors(t *testing.T) {
	good := testMap().Bytes()
	tests := []struct {
		name   string
		modify func([]byte) []byte
		want   error
	}{
		{"version", func(d []byte) []byte {
			d[0] = 29
			return d
		}, ErrVersionUnsupported},
		{"short", func(d []byte) []byte {
			return d[:2]
		}, ErrCorruptedData},
		{"header", func(d []byte) []byte {
			return d[:50]
		}, ErrCorruptedData},
		{"remainder", func(d []byte) []byte {
			o, s := bsptest.Lump(d, bsptest.LumpPlanes)
			bsptest.SetLump(d, bsptest.LumpPlanes, o, s-1)
			return d
		}, ErrCorruptedData},
		{"outside", func(d []byte) []byte {
			_, s := bsptest.Lump(d, bsptest.LumpModels)
			bsptest.SetLump(d, bsptest.LumpModels, int32(len(d)), s)
			return d
		}, ErrCorruptedData},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := tc.modify(append([]byte(nil), good...))
			_, err := loadBytes(t, d)
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestLoadRejectsBadTree(t *testing.T) {
	tests := []struct {
		name   string
		modify func(b *bsptest.Builder)
	}{
		{"self loop", func(b *bsptest.Builder) { b.Nodes[1].Children[0] = 1 }},
		{"back edge", func(b *bsptest.Builder) { b.Nodes[1].Children[0] = 0 }},
		{"node range", func(b *bsptest.Builder) { b.Nodes[0].Children[0] = 5 }},
		{"leaf range", func(b *bsptest.Builder) { b.Nodes[1].Children[1] = ^7 }},
		{"plane range", func(b *bsptest.Builder) { b.Faces[0].Plane = 9 }},
		{"mark range", func(b *bsptest.Builder) { b.MarkSurfaces[0] = 40 }},
		{"surfedge range", func(b *bsptest.Builder) { b.SurfEdges[0] = 1000 }},
		{"model range", func(b *bsptest.Builder) { b.Models[1].NumFaces = 2 }},
		{"no edges", func(b *bsptest.Builder) { b.Faces[3].NumEdges = 0 }},
		{"two edges", func(b *bsptest.Builder) { b.Faces[0].NumEdges = 2 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := testMap()
			tc.modify(b)
			if _, err := loadBytes(t, b.Bytes()); !errors.Is(err, ErrCorruptedData) {
				t.Errorf("got %v, want ErrCorruptedData", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadFile(filepath.Join(dir, "missing.bsp"), LoadOptions{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file: got %v, want ErrNotFound", err)
	}
	name := filepath.Join(dir, "room.bsp")
	if err := os.WriteFile(name, testMap().Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := LoadFile(name, LoadOptions{})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if l.Name != "room" {
		t.Errorf("Name = %q, want room", l.Name)
	}
	// without a texture source everything is a placeholder
	if len(l.Textures) != 2 || l.Textures[0].Width() != 1 {
		t.Errorf("textures = %v", l.Textures)
	}
}

func TestArchivesPreferred(t *testing.T) {
	glass := color.NRGBA{0, 0, 200, 128}
	var wads []string
	data := testMap().Bytes()
	l, err := Load(bytes.NewReader(data), int64(len(data)), LoadOptions{
		Textures: testTextures(),
		Archives: func(names []string) TextureSource {
			wads = names
			return TextureSourceFunc(func(name string) (Texture, error) {
				if name == "glass" {
					return NewSolidTexture(name, 16, 16, glass), nil
				}
				return nil, ErrNotFound
			})
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(wads) != 2 || wads[0] != "halflife.wad" || wads[1] != "decals.wad" {
		t.Errorf("archives %v", wads)
	}
	if len(l.Textures) != 2 {
		t.Fatalf("%d textures", len(l.Textures))
	}
	if got := l.Textures[0].Pixel(0, 0); got != floorColor {
		t.Errorf("floor %v", got)
	}
	if got := l.Textures[1]; got.Width() != 16 || got.Pixel(0, 0) != glass {
		t.Errorf("glass %dx%d %v", got.Width(), got.Height(), got.Pixel(0, 0))
	}
}

func TestEmptyLevel(t *testing.T) {
	l, err := loadBytes(t, (&bsptest.Builder{}).Bytes())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(l.Leaves) != 0 || len(l.Nodes) != 0 {
		t.Fatalf("got %d leaves, %d nodes", len(l.Leaves), len(l.Nodes))
	}
	if got := l.VisibleLeaves(l.PointInLeaf(vec.Vec3{})); len(got) != 0 {
		t.Errorf("VisibleLeaves = %v", got)
	}
	for _, bspFilter := range []bool{true, false} {
		d := l.VisibleFaces(vec.Vec3{}, nil, bspFilter, false)
		if len(d.Entries) != 0 || d.SkyIndex != 0 {
			t.Errorf("VisibleFaces(bspFilter %v) = %+v", bspFilter, d)
		}
	}
	m := vec.Vec3{X: 1, Y: 2, Z: 3}
	if got := NewCollider(l, DefaultCollisionParams()).Resolve(vec.Vec3{}, m, 5); got != m {
		t.Errorf("Resolve = %v, want %v", got, m)
	}
}
