// SPDX-License-Identifier: GPL-2.0-or-later
package bsp

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"hlbsp/conlog"
	"hlbsp/math/vec"
)

const (
	DefaultMaxLightmapWidth = 1024
	DefaultSkyRange         = 16384
	defaultSkyTexture       = "defaultsky.bmp"
)

// DefaultAttachedClasses are the brush entities whose faces are drawn with
// the world.
var DefaultAttachedClasses = []string{
	"func_wall",
	"func_illusionary",
	"func_water",
	"func_breakable",
}

type LoadOptions struct {
	// Name identifies the level in log messages. LoadFile defaults it to the
	// file name.
	Name string
	// Textures resolves the texture names. Without a source every texture
	// becomes a white placeholder.
	Textures TextureSource
	// Archives, if set, opens the texture archives listed by the worldspawn
	// entity. Textures found there are preferred over Textures.
	Archives func(wads []string) TextureSource
	// AttachedClasses defaults to DefaultAttachedClasses.
	AttachedClasses []string
	// MaxLightmapWidth defaults to DefaultMaxLightmapWidth.
	MaxLightmapWidth int
}

func (o *LoadOptions) setDefaults() {
	if o.Textures == nil {
		o.Textures = noSource
	}
	if o.AttachedClasses == nil {
		o.AttachedClasses = DefaultAttachedClasses
	}
	if o.MaxLightmapWidth <= 0 {
		o.MaxLightmapWidth = DefaultMaxLightmapWidth
	}
}

// LoadFile reads the level stored in the file name.
func LoadFile(name string, opts LoadOptions) (*Level, error) {
	f, err := os.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrNotFound, "%s", name)
		}
		return nil, errors.Wrapf(err, "open level %s", name)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "stat level %s", name)
	}
	if opts.Name == "" {
		opts.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	return Load(f, fi.Size(), opts)
}

type loader struct {
	opts  LoadOptions
	data  []byte
	hdr   header
	level *Level

	planes    []plane
	vertexes  []vertex
	edges     []edge
	surfEdges []int32
	texInfos  []texInfo
	mips      []mipHeader
	faces     []face
	nodes     []node
	leafs     []leaf
	marks     []uint16
	models    []model
	lighting  []byte
}

// Load parses a complete version 30 bsp file of the given size.
func Load(r io.ReaderAt, size int64, opts LoadOptions) (*Level, error) {
	opts.setDefaults()
	if size < 4 {
		return nil, corrupted("%s: file too small (%d bytes)", opts.Name, size)
	}
	data := make([]byte, size)
	if n, err := r.ReadAt(data, 0); int64(n) != size {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, errors.Wrapf(err, "read level %s", opts.Name)
	}
	if v := int32(binary.LittleEndian.Uint32(data)); v != Version {
		return nil, errors.Wrapf(ErrVersionUnsupported, "%s: version %d", opts.Name, v)
	}
	ld := &loader{
		opts: opts,
		data: data,
		level: &Level{
			Name: opts.Name,
		},
	}
	if err := ld.load(); err != nil {
		return nil, errors.WithMessagef(err, "level %s", opts.Name)
	}
	return ld.level, nil
}

func (ld *loader) load() error {
	if len(ld.data) < binary.Size(ld.hdr) {
		return corrupted("header truncated")
	}
	if err := binary.Read(bytes.NewReader(ld.data), binary.LittleEndian, &ld.hdr); err != nil {
		return errors.Wrapf(ErrCorruptedData, "header: %v", err)
	}
	if err := ld.readLumps(); err != nil {
		return err
	}
	if err := ld.validate(); err != nil {
		return err
	}
	l := ld.level
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	l.ID = id

	l.Planes = make([]Plane, len(ld.planes))
	for i, p := range ld.planes {
		l.Planes[i] = Plane{
			Normal: vec.SwapYZ(p.Normal),
			Dist:   p.Distance,
		}.Normalize()
	}
	l.Positions = make([]vec.Vec3, len(ld.vertexes))
	for i, v := range ld.vertexes {
		l.Positions[i] = vec.SwapYZ(v.Pos)
	}
	l.Edges = make([]Edge, len(ld.edges))
	for i, e := range ld.edges {
		l.Edges[i] = Edge{V: [2]int{int(e.Vertex0), int(e.Vertex1)}}
	}
	l.Nodes = make([]Node, len(ld.nodes))
	for i, n := range ld.nodes {
		l.Nodes[i] = Node{
			Plane:    int(n.PlaneID),
			Children: [2]NodeRef{decodeChild(n.Children[0]), decodeChild(n.Children[1])},
		}
	}
	l.Leaves = make([]Leaf, len(ld.leafs))
	for i, lf := range ld.leafs {
		l.Leaves[i] = Leaf{
			Contents:      int(lf.Type),
			VisOffset:     int(lf.VisOfs),
			FirstMarkFace: int(lf.FirstMarkSurface),
			NumMarkFaces:  int(lf.MarkSurfaceCount),
		}
	}
	l.MarkFaces = make([]int, len(ld.marks))
	for i, m := range ld.marks {
		l.MarkFaces[i] = int(m)
	}
	l.Models = make([]Model, len(ld.models))
	for i, m := range ld.models {
		l.Models[i] = Model{
			Mins:      vec.SwapYZ(m.Mins),
			Maxs:      vec.SwapYZ(m.Maxs),
			Origin:    vec.SwapYZ(m.Origin),
			FirstFace: int(m.FirstFace),
			NumFaces:  int(m.FaceCount),
		}
	}

	ents, err := lumpData(ld.data, &ld.hdr, lumpEntities)
	if err != nil {
		return err
	}
	l.Entities = ParseEntities(ents)
	vis, err := lumpData(ld.data, &ld.hdr, lumpVisibility)
	if err != nil {
		return err
	}
	l.Visibility = vis

	blocks := ld.buildFaces(ld.loadTextures())
	l.Lightmaps = packLightmaps(l, blocks, ld.lighting, ld.opts.MaxLightmapWidth)
	ld.attachModels()
	ld.loadSky()

	conlog.DPrintf("loaded level %s: %d faces, %d leaves, %d textures, %d lightmaps",
		l.Name, len(l.Faces), len(l.Leaves), len(l.Textures), len(l.Lightmaps))
	return nil
}

func (ld *loader) readLumps() error {
	var err error
	h := &ld.hdr
	if ld.planes, err = readLump[plane](ld.data, h, lumpPlanes); err != nil {
		return err
	}
	if ld.mips, err = readTextureLump(ld.data, h); err != nil {
		return err
	}
	if ld.vertexes, err = readLump[vertex](ld.data, h, lumpVertexes); err != nil {
		return err
	}
	if ld.nodes, err = readLump[node](ld.data, h, lumpNodes); err != nil {
		return err
	}
	if ld.texInfos, err = readLump[texInfo](ld.data, h, lumpTexinfo); err != nil {
		return err
	}
	if ld.faces, err = readLump[face](ld.data, h, lumpFaces); err != nil {
		return err
	}
	if ld.lighting, err = lumpData(ld.data, h, lumpLighting); err != nil {
		return err
	}
	// clip nodes are not decoded, they only have to lie inside the file
	if _, err = lumpData(ld.data, h, lumpClipNodes); err != nil {
		return err
	}
	if ld.leafs, err = readLump[leaf](ld.data, h, lumpLeafs); err != nil {
		return err
	}
	if ld.marks, err = readLump[uint16](ld.data, h, lumpMarkSurfaces); err != nil {
		return err
	}
	if ld.edges, err = readLump[edge](ld.data, h, lumpEdges); err != nil {
		return err
	}
	if ld.surfEdges, err = readLump[int32](ld.data, h, lumpSurfaceEdges); err != nil {
		return err
	}
	if ld.models, err = readLump[model](ld.data, h, lumpModels); err != nil {
		return err
	}
	return nil
}

// validate checks every index so later stages can not run out of bounds and
// tree walks always terminate.
func (ld *loader) validate() error {
	for i, n := range ld.nodes {
		if n.PlaneID < 0 || int(n.PlaneID) >= len(ld.planes) {
			return corrupted("node %d: plane %d out of range", i, n.PlaneID)
		}
		for _, c := range n.Children {
			ref := decodeChild(c)
			if ref.IsLeaf() {
				if ref.Index() >= len(ld.leafs) {
					return corrupted("node %d: leaf %d out of range", i, ref.Index())
				}
				continue
			}
			if ref.Index() <= i || ref.Index() >= len(ld.nodes) {
				return corrupted("node %d: child node %d invalid", i, ref.Index())
			}
		}
	}
	for i, lf := range ld.leafs {
		if int(lf.FirstMarkSurface)+int(lf.MarkSurfaceCount) > len(ld.marks) {
			return corrupted("leaf %d: mark surfaces out of range", i)
		}
	}
	for i, m := range ld.marks {
		if int(m) >= len(ld.faces) {
			return corrupted("mark surface %d: face %d out of range", i, m)
		}
	}
	for i, e := range ld.edges {
		if int(e.Vertex0) >= len(ld.vertexes) || int(e.Vertex1) >= len(ld.vertexes) {
			return corrupted("edge %d: vertex out of range", i)
		}
	}
	for i, ti := range ld.texInfos {
		if ti.TextureID < 0 || int(ti.TextureID) >= len(ld.mips) {
			return corrupted("texinfo %d: texture %d out of range", i, ti.TextureID)
		}
	}
	for i, f := range ld.faces {
		if f.PlaneID < 0 || int(f.PlaneID) >= len(ld.planes) {
			return corrupted("face %d: plane %d out of range", i, f.PlaneID)
		}
		if f.TexInfoID < 0 || int(f.TexInfoID) >= len(ld.texInfos) {
			return corrupted("face %d: texinfo %d out of range", i, f.TexInfoID)
		}
		if f.ListEdgeID < 0 || f.ListEdgeNumber < 0 ||
			int64(f.ListEdgeID)+int64(f.ListEdgeNumber) > int64(len(ld.surfEdges)) {
			return corrupted("face %d: surface edges out of range", i)
		}
		if f.ListEdgeNumber < 3 {
			return corrupted("face %d: %d edges", i, f.ListEdgeNumber)
		}
		for _, se := range ld.surfEdges[f.ListEdgeID : f.ListEdgeID+int32(f.ListEdgeNumber)] {
			if absInt(int(se)) >= len(ld.edges) {
				return corrupted("face %d: edge %d out of range", i, se)
			}
		}
	}
	for i, m := range ld.models {
		if m.FirstFace < 0 || m.FaceCount < 0 ||
			int64(m.FirstFace)+int64(m.FaceCount) > int64(len(ld.faces)) {
			return corrupted("model %d: faces out of range", i)
		}
	}
	return nil
}

func (ld *loader) warnf(format string, args ...interface{}) {
	conlog.Warnf("level %s: "+format, append([]interface{}{ld.level.Name}, args...)...)
}

func absInt(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// loadTextures resolves every miptex name once. The result maps miptex index
// to level texture index, -1 for textures that are never drawn.
func (ld *loader) loadTextures() []int {
	l := ld.level
	src := ld.opts.Textures
	if ld.opts.Archives != nil {
		if a := ld.opts.Archives(l.WADs()); a != nil {
			src = Sources(a, src)
		}
	}
	cache := make(map[string]int)
	r := make([]int, len(ld.mips))
	for i, m := range ld.mips {
		if strings.EqualFold(m.Name, "sky") || strings.EqualFold(m.Name, "aaatrigger") {
			r[i] = -1
			continue
		}
		if idx, ok := cache[m.Name]; ok {
			r[i] = idx
			continue
		}
		t, err := src.LoadTexture(m.Name)
		if err != nil || t == nil {
			ld.warnf("could not load texture %q, using placeholder", m.Name)
			t = NewSolidTexture(m.Name, 1, 1, white)
		}
		cache[m.Name] = len(l.Textures)
		r[i] = len(l.Textures)
		l.Textures = append(l.Textures, t)
	}
	return r
}

func (ld *loader) loadSky() {
	l := ld.level
	w := l.worldspawn()
	if w == nil {
		return
	}
	name, ok := w.Property("skyname")
	if !ok {
		return
	}
	rng, ok := w.Float("MaxRange")
	if !ok {
		rng = DefaultSkyRange
	}
	sky := &Sky{Name: name, Range: rng}
	t, err := ld.opts.Textures.LoadTexture(name + ".bmp")
	if err != nil || t == nil {
		ld.warnf("could not load sky texture %q", name+".bmp")
		t, err = ld.opts.Textures.LoadTexture(defaultSkyTexture)
		if err != nil || t == nil {
			ld.warnf("could not load sky texture %q", defaultSkyTexture)
			t = NewSolidTexture(name, 1, 1, flatSky)
		}
	}
	sky.Texture = t
	l.Sky = sky
}
