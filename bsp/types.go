// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

// Version is the only supported file version.
const Version = 30

type lumpKind int

const (
	lumpEntities lumpKind = iota
	lumpPlanes
	lumpTextures
	lumpVertexes
	lumpVisibility
	lumpNodes
	lumpTexinfo
	lumpFaces
	lumpLighting
	lumpClipNodes
	lumpLeafs
	lumpMarkSurfaces
	lumpEdges
	lumpSurfaceEdges
	lumpModels
	lumpCount
)

var lumpNames = [lumpCount]string{
	"entities", "planes", "textures", "vertexes", "visibility", "nodes",
	"texinfo", "faces", "lighting", "clipnodes", "leafs", "marksurfaces",
	"edges", "surfedges", "models",
}

func (k lumpKind) String() string {
	if k < 0 || k >= lumpCount {
		return "unknown"
	}
	return lumpNames[k]
}

// called lump_t in c
type directory struct {
	Offset int32
	Size   int32
}

type header struct {
	Version int32
	Lumps   [lumpCount]directory
}

// All vectors in here are stored as X, Z, Y.

type plane struct {
	Normal   [3]float32
	Distance float32
	Type     int32 // 0: axial plane in X, 1: axial plane in Y, 2 axial in Z, 3,4,5 similar but non axial
}

type vertex struct {
	Pos [3]float32
}

// the first edge of the list is never used
type edge struct {
	Vertex0 uint16 // id of start vertex, must be in [0,numvertices[
	Vertex1 uint16 // id of end vertex, must be in [0,numvertices[
}

type texInfo struct {
	VectorS   [3]float32 // S vector, horizontal in texture space
	DistS     float32    // horizontal offset in texture space
	VectorT   [3]float32 // T vector, vertical in texture space
	DistT     float32    // vertical offset in texture space
	TextureID int32      // Index of mip texture, must be in [0,numtex[
	Flags     uint32
}

type face struct {
	PlaneID        int16 // The plane in which the face lies, must be in [0,numplanes[
	Side           int16
	ListEdgeID     int32
	ListEdgeNumber int16
	TexInfoID      int16
	LightStyle     [4]uint8
	LightMap       int32 // Offset inside the lighting lump, or -1
}

type mipTexture struct {
	Name   [16]byte
	Width  uint32
	Height uint32
	Offset [4]uint32
}

type node struct {
	PlaneID      int32
	Children     [2]int16 // >= 0 node index, < 0 ^leaf index
	Box          [6]int16
	FirstSurface uint16
	SurfaceCount uint16
}

type leaf struct {
	Type             int32 // Contents
	VisOfs           int32
	Box              [6]int16 // mins & maxs
	FirstMarkSurface uint16   // firstmarksurface
	MarkSurfaceCount uint16   // nummarksurfaces
	Ambients         [4]byte  // ambient_level
}

type model struct {
	Mins         [3]float32
	Maxs         [3]float32
	Origin       [3]float32
	HeadNode     [4]int32
	VisLeafCount int32 // not including the solid leaf 0
	FirstFace    int32
	FaceCount    int32
}

const (
	_                   = iota
	LeafTypeEmpty       = -iota // was CONTENTS_EMPTY...
	LeafTypeSolid       = -iota
	LeafTypeWater       = -iota
	LeafTypeSlime       = -iota
	LeafTypeLava        = -iota
	LeafTypeSky         = -iota
	LeafTypeOrigin      = -iota
	LeafTypeClip        = -iota
	LeafTypeCurrent0    = -iota
	LeafTypeCurrent90   = -iota
	LeafTypeCurrent180  = -iota
	LeafTypeCurrent270  = -iota
	LeafTypeCurrentUp   = -iota
	LeafTypeCurrentDown = -iota
)
