// SPDX-License-Identifier: GPL-2.0-or-later
package bsp

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"
)

// lumpData returns the raw bytes of lump k.
func lumpData(data []byte, h *header, k lumpKind) ([]byte, error) {
	d := h.Lumps[k]
	if d.Offset < 0 || d.Size < 0 || int64(d.Offset)+int64(d.Size) > int64(len(data)) {
		return nil, corrupted("lump %s (offset %d, size %d) outside of file of size %d",
			k, d.Offset, d.Size, len(data))
	}
	return data[d.Offset : d.Offset+d.Size], nil
}

// readLump decodes a lump of fixed size records.
func readLump[T any](data []byte, h *header, k lumpKind) ([]T, error) {
	b, err := lumpData(data, h, k)
	if err != nil {
		return nil, err
	}
	var t T
	size := binary.Size(t)
	if len(b)%size != 0 {
		return nil, corrupted("lump %s size %d is not a multiple of %d", k, len(b), size)
	}
	r := make([]T, len(b)/size)
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, r); err != nil {
		return nil, errors.Wrapf(ErrCorruptedData, "lump %s: %v", k, err)
	}
	return r, nil
}

type mipHeader struct {
	Name   string
	Width  int
	Height int
}

// readTextureLump decodes the names and sizes of the textures. Pixel data
// embedded in the lump is ignored, textures come from the TextureSource.
func readTextureLump(data []byte, h *header) ([]mipHeader, error) {
	b, err := lumpData(data, h, lumpTextures)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, nil
	}
	if len(b) < 4 {
		return nil, corrupted("texture lump too small: %d", len(b))
	}
	count := int(int32(binary.LittleEndian.Uint32(b)))
	if count < 0 || 4+count*4 > len(b) {
		return nil, corrupted("texture count %d does not fit into lump of size %d", count, len(b))
	}
	r := make([]mipHeader, count)
	mipSize := binary.Size(mipTexture{})
	for i := range r {
		o := int(int32(binary.LittleEndian.Uint32(b[4+i*4:])))
		if o < 0 || o+mipSize > len(b) {
			return nil, corrupted("texture %d at offset %d outside of lump", i, o)
		}
		var m mipTexture
		if err := binary.Read(bytes.NewReader(b[o:o+mipSize]), binary.LittleEndian, &m); err != nil {
			return nil, errors.Wrapf(ErrCorruptedData, "texture %d: %v", i, err)
		}
		name := string(m.Name[:])
		if n := strings.IndexByte(name, 0); n >= 0 {
			name = name[:n]
		}
		r[i] = mipHeader{
			Name:   name,
			Width:  int(m.Width),
			Height: int(m.Height),
		}
	}
	return r, nil
}
