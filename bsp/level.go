// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"github.com/google/uuid"

	"hlbsp/math/vec"
)

// NodeRef points either at another node or at a leaf.
type NodeRef struct {
	index int
	leaf  bool
}

func NodeChild(i int) NodeRef { return NodeRef{index: i} }
func LeafChild(i int) NodeRef { return NodeRef{index: i, leaf: true} }

// decodeChild converts the on-disk encoding where negative values are ^leaf.
func decodeChild(c int16) NodeRef {
	if c >= 0 {
		return NodeChild(int(c))
	}
	return LeafChild(int(^c))
}

func (r NodeRef) IsLeaf() bool { return r.leaf }
func (r NodeRef) Index() int   { return r.index }

const (
	Front = 0
	Back  = 1
)

type Node struct {
	Plane    int
	Children [2]NodeRef // Front, Back
}

type Leaf struct {
	Contents      int
	VisOffset     int // -1: everything is visible
	FirstMarkFace int
	NumMarkFaces  int
}

type Vertex struct {
	Pos     vec.Vec3
	UV      vec.Vec2
	LightUV vec.Vec2
}

type Edge struct {
	V [2]int
}

type Face struct {
	Plane        int
	InversePlane bool
	FirstVertex  int
	NumVertices  int
	Texture      int // index into Level.Textures, -1 for sky and triggers
	Lightmap     int // index into Level.Lightmaps, -1 if unlit
	Alpha        uint8
	TextureAlpha bool
	IsModel      bool
	Center       vec.Vec3
	Radius       float32
}

func (f *Face) Transparent() bool {
	return f.Alpha < 255 || f.TextureAlpha
}

type Model struct {
	Mins      vec.Vec3
	Maxs      vec.Vec3
	Origin    vec.Vec3
	FirstFace int
	NumFaces  int
}

type Sky struct {
	Name    string
	Range   float32
	Texture Texture
}

// Level is the immutable geometry of one loaded bsp file. Leaf 0 is the
// outside leaf and node 0 the root of the tree.
type Level struct {
	ID   uuid.UUID
	Name string

	Planes     []Plane
	Positions  []vec.Vec3
	Edges      []Edge
	Vertices   []Vertex // face vertex pool
	Faces      []Face
	Leaves     []Leaf
	Nodes      []Node
	MarkFaces  []int
	Models     []Model
	Visibility []byte
	Entities   []*Entity
	Textures   []Texture
	Lightmaps  []Texture
	ModelFaces []int // faces drawn regardless of the pvs
	Sky        *Sky
}

// Root returns the head of the tree. Levels without nodes consist of leaf 0.
func (l *Level) Root() NodeRef {
	if len(l.Nodes) == 0 {
		return LeafChild(0)
	}
	return NodeChild(0)
}

// FacePlane returns the plane of face i oriented along the face winding.
func (l *Level) FacePlane(i int) Plane {
	f := &l.Faces[i]
	p := l.Planes[f.Plane]
	if f.InversePlane {
		return p.Flip()
	}
	return p
}

// FaceVertices returns the vertex run of face i.
func (l *Level) FaceVertices(i int) []Vertex {
	f := &l.Faces[i]
	return l.Vertices[f.FirstVertex : f.FirstVertex+f.NumVertices]
}

// LeafFaces returns the face indices marked in leaf i. Leaves outside of the
// level have no faces.
func (l *Level) LeafFaces(i int) []int {
	if i < 0 || i >= len(l.Leaves) {
		return nil
	}
	lf := &l.Leaves[i]
	return l.MarkFaces[lf.FirstMarkFace : lf.FirstMarkFace+lf.NumMarkFaces]
}
