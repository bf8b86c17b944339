// SPDX-License-Identifier: GPL-2.0-or-later

// Package bsptest writes small version 30 bsp files for tests.
// All coordinates given to the Builder are in memory order (X, Y up, Z) and
// swapped to file order when written.
package bsptest

import (
	"bytes"
	"encoding/binary"
)

const (
	LumpEntities = iota
	LumpPlanes
	LumpTextures
	LumpVertexes
	LumpVisibility
	LumpNodes
	LumpTexinfo
	LumpFaces
	LumpLighting
	LumpClipNodes
	LumpLeafs
	LumpMarkSurfaces
	LumpEdges
	LumpSurfaceEdges
	LumpModels
	lumpCount
)

const headerSize = 4 + lumpCount*8

// Disk converts between memory and file axis order.
func Disk(v [3]float32) [3]float32 {
	return [3]float32{v[0], v[2], v[1]}
}

type Plane struct {
	Normal [3]float32
	Dist   float32
}

type Texture struct {
	Name          string
	Width, Height uint32
}

type TexInfo struct {
	U, V       [3]float32
	OffU, OffV float32
	Texture    int32
}

type Face struct {
	Plane     int16
	FirstEdge int32
	NumEdges  int16
	TexInfo   int16
	LightOfs  int32
}

type Node struct {
	Plane    int32
	Children [2]int16 // negative: ^leaf
}

type Leaf struct {
	Contents  int32
	VisOfs    int32
	FirstMark uint16
	NumMarks  uint16
}

type Model struct {
	Origin    [3]float32
	FirstFace int32
	NumFaces  int32
}

type Builder struct {
	Version      int32 // 0 writes version 30
	Entities     string
	Planes       []Plane
	Textures     []Texture
	Vertexes     [][3]float32
	Visibility   []byte
	Nodes        []Node
	TexInfos     []TexInfo
	Faces        []Face
	Lighting     []byte
	Leafs        []Leaf
	MarkSurfaces []uint16
	Edges        [][2]uint16
	SurfEdges    []int32
	Models       []Model
}

// AddFace appends a polygon with the given winding and returns the face
// index. Every second edge is stored reversed to use both surface edge
// directions.
func (b *Builder) AddFace(plane, texInfo int16, lightOfs int32, verts ...[3]float32) int {
	if len(b.Edges) == 0 {
		// edge 0 is never referenced
		b.Edges = append(b.Edges, [2]uint16{0, 0})
	}
	first := uint16(len(b.Vertexes))
	b.Vertexes = append(b.Vertexes, verts...)
	f := Face{
		Plane:     plane,
		FirstEdge: int32(len(b.SurfEdges)),
		NumEdges:  int16(len(verts)),
		TexInfo:   texInfo,
		LightOfs:  lightOfs,
	}
	for i := range verts {
		v0 := first + uint16(i)
		v1 := first + uint16((i+1)%len(verts))
		e := int32(len(b.Edges))
		if i%2 == 0 {
			b.Edges = append(b.Edges, [2]uint16{v0, v1})
			b.SurfEdges = append(b.SurfEdges, e)
		} else {
			b.Edges = append(b.Edges, [2]uint16{v1, v0})
			b.SurfEdges = append(b.SurfEdges, -e)
		}
	}
	b.Faces = append(b.Faces, f)
	return len(b.Faces) - 1
}

type diskTexInfo struct {
	VectorS   [3]float32
	DistS     float32
	VectorT   [3]float32
	DistT     float32
	TextureID int32
	Flags     uint32
}

type diskFace struct {
	PlaneID        int16
	Side           int16
	ListEdgeID     int32
	ListEdgeNumber int16
	TexInfoID      int16
	LightStyle     [4]uint8
	LightMap       int32
}

type diskNode struct {
	PlaneID      int32
	Children     [2]int16
	Box          [6]int16
	FirstSurface uint16
	SurfaceCount uint16
}

type diskLeaf struct {
	Type             int32
	VisOfs           int32
	Box              [6]int16
	FirstMarkSurface uint16
	MarkSurfaceCount uint16
	Ambients         [4]byte
}

type diskModel struct {
	Mins, Maxs, Origin [3]float32
	HeadNode           [4]int32
	VisLeafCount       int32
	FirstFace          int32
	FaceCount          int32
}

func encode(v interface{}) []byte {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func (b *Builder) textureLump() []byte {
	if len(b.Textures) == 0 {
		return nil
	}
	type mip struct {
		Name          [16]byte
		Width, Height uint32
		Offsets       [4]uint32
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int32(len(b.Textures)))
	base := 4 + 4*len(b.Textures)
	for i := range b.Textures {
		binary.Write(&buf, binary.LittleEndian, int32(base+i*40))
	}
	for _, t := range b.Textures {
		m := mip{Width: t.Width, Height: t.Height}
		copy(m.Name[:], t.Name)
		binary.Write(&buf, binary.LittleEndian, m)
	}
	return buf.Bytes()
}

func (b *Builder) lumps() [lumpCount][]byte {
	var l [lumpCount][]byte
	l[LumpEntities] = append([]byte(b.Entities), 0)

	planes := make([]float32, 0, len(b.Planes)*5)
	for _, p := range b.Planes {
		n := Disk(p.Normal)
		planes = append(planes, n[0], n[1], n[2], p.Dist, 0)
	}
	// the plane type is an int32 zero, same bits as a float32 zero
	l[LumpPlanes] = encode(planes)
	l[LumpTextures] = b.textureLump()

	verts := make([][3]float32, len(b.Vertexes))
	for i, v := range b.Vertexes {
		verts[i] = Disk(v)
	}
	l[LumpVertexes] = encode(verts)
	l[LumpVisibility] = b.Visibility

	nodes := make([]diskNode, len(b.Nodes))
	for i, n := range b.Nodes {
		nodes[i] = diskNode{PlaneID: n.Plane, Children: n.Children}
	}
	l[LumpNodes] = encode(nodes)

	tis := make([]diskTexInfo, len(b.TexInfos))
	for i, t := range b.TexInfos {
		tis[i] = diskTexInfo{
			VectorS:   Disk(t.U),
			DistS:     t.OffU,
			VectorT:   Disk(t.V),
			DistT:     t.OffV,
			TextureID: t.Texture,
		}
	}
	l[LumpTexinfo] = encode(tis)

	faces := make([]diskFace, len(b.Faces))
	for i, f := range b.Faces {
		faces[i] = diskFace{
			PlaneID:        f.Plane,
			ListEdgeID:     f.FirstEdge,
			ListEdgeNumber: f.NumEdges,
			TexInfoID:      f.TexInfo,
			LightMap:       f.LightOfs,
		}
	}
	l[LumpFaces] = encode(faces)
	l[LumpLighting] = b.Lighting

	leafs := make([]diskLeaf, len(b.Leafs))
	for i, lf := range b.Leafs {
		leafs[i] = diskLeaf{
			Type:             lf.Contents,
			VisOfs:           lf.VisOfs,
			FirstMarkSurface: lf.FirstMark,
			MarkSurfaceCount: lf.NumMarks,
		}
	}
	l[LumpLeafs] = encode(leafs)
	l[LumpMarkSurfaces] = encode(b.MarkSurfaces)
	l[LumpEdges] = encode(b.Edges)
	l[LumpSurfaceEdges] = encode(b.SurfEdges)

	models := make([]diskModel, len(b.Models))
	for i, m := range b.Models {
		models[i] = diskModel{
			Origin:    Disk(m.Origin),
			FirstFace: m.FirstFace,
			FaceCount: m.NumFaces,
		}
	}
	l[LumpModels] = encode(models)
	return l
}

// Bytes returns the complete file.
func (b *Builder) Bytes() []byte {
	version := b.Version
	if version == 0 {
		version = 30
	}
	lumps := b.lumps()
	var dir [lumpCount][2]int32
	var body bytes.Buffer
	for i, l := range lumps {
		dir[i] = [2]int32{int32(headerSize + body.Len()), int32(len(l))}
		body.Write(l)
		for body.Len()%4 != 0 {
			body.WriteByte(0)
		}
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, version)
	binary.Write(&buf, binary.LittleEndian, dir)
	buf.Write(body.Bytes())
	return buf.Bytes()
}

// SetLump overwrites the directory entry of lump k in a written file.
func SetLump(data []byte, k int, offset, size int32) {
	binary.LittleEndian.PutUint32(data[4+8*k:], uint32(offset))
	binary.LittleEndian.PutUint32(data[8+8*k:], uint32(size))
}

// Lump returns the directory entry of lump k.
func Lump(data []byte, k int) (offset, size int32) {
	return int32(binary.LittleEndian.Uint32(data[4+8*k:])),
		int32(binary.LittleEndian.Uint32(data[8+8*k:]))
}
