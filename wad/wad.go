// SPDX-License-Identifier: GPL-2.0-or-later

// Package wad reads the textures of Half-Life WAD3 archives.
package wad

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"hlbsp/bsp"
	"hlbsp/conlog"
	"hlbsp/filesystem"
)

var ErrNotWAD = errors.New("not a wad3 file")

const (
	typMipTex = 0x43

	mipHeaderSize = 40
)

type header struct {
	Magic      [4]byte
	EntryCount int32
	DirOffset  int32
}

type entry struct {
	Offset      int32
	DiskSize    int32
	Size        int32
	Typ         byte
	Compression byte
	Dummy       int16
	Name        [16]byte
}

type mipHeader struct {
	Name          [16]byte
	Width, Height uint32
	Offsets       [4]uint32
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// Archive is one opened wad file. Lookups ignore case.
type Archive struct {
	name    string
	data    []byte
	entries map[string]entry
}

// New parses the directory of the wad in data.
func New(name string, data []byte) (*Archive, error) {
	buf := bytes.NewReader(data)
	h := header{}
	if err := binary.Read(buf, binary.LittleEndian, &h); err != nil {
		return nil, errors.Wrapf(ErrNotWAD, "%s: %v", name, err)
	}
	if h.Magic != [4]byte{'W', 'A', 'D', '3'} {
		return nil, errors.Wrapf(ErrNotWAD, "%s", name)
	}
	if h.EntryCount < 0 || h.DirOffset < 0 {
		return nil, errors.Errorf("%s: bad directory", name)
	}
	if _, err := buf.Seek(int64(h.DirOffset), io.SeekStart); err != nil {
		return nil, err
	}
	es := make([]entry, h.EntryCount)
	if err := binary.Read(buf, binary.LittleEndian, &es); err != nil {
		return nil, errors.Wrapf(err, "%s: directory", name)
	}
	a := &Archive{name: name, data: data, entries: make(map[string]entry, len(es))}
	for _, e := range es {
		if e.Typ != typMipTex {
			continue
		}
		if e.Compression != 0 {
			conlog.DPrintf("%s: skipping compressed %s", name, cstring(e.Name[:]))
			continue
		}
		if e.Offset < 0 || e.Size < 0 || int64(e.Offset)+int64(e.Size) > int64(len(data)) {
			return nil, errors.Errorf("%s: entry %s out of bounds", name, cstring(e.Name[:]))
		}
		a.entries[strings.ToLower(cstring(e.Name[:]))] = e
	}
	return a, nil
}

func (a *Archive) String() string { return a.name }

// Names returns the texture names in the archive, sorted.
func (a *Archive) Names() []string {
	r := make([]string, 0, len(a.entries))
	for n := range a.entries {
		r = append(r, n)
	}
	sort.Strings(r)
	return r
}

// Texture decodes the full size mip level of the named texture. Names
// starting with '{' use palette index 255 as transparent.
func (a *Archive) Texture(name string) (*bsp.ImageTexture, error) {
	e, ok := a.entries[strings.ToLower(name)]
	if !ok {
		return nil, errors.Wrapf(bsp.ErrNotFound, "%s in %s", name, a.name)
	}
	img, err := decodeMipTex(a.data[e.Offset : e.Offset+e.Size])
	if err != nil {
		return nil, errors.WithMessagef(err, "%s in %s", name, a.name)
	}
	if strings.HasPrefix(name, "{") {
		fence(img)
	}
	return bsp.NewImageTexture(name, img), nil
}

func decodeMipTex(data []byte) (*image.NRGBA, error) {
	var h mipHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	w, ht := int(h.Width), int(h.Height)
	if w <= 0 || ht <= 0 || w > 4096 || ht > 4096 {
		return nil, errors.Errorf("bad size %dx%d", w, ht)
	}
	pix := int(h.Offsets[0])
	// the palette follows the smallest mip level
	pal := int(h.Offsets[3]) + (w/8)*(ht/8)
	if pix < mipHeaderSize || pix+w*ht > len(data) || pal+2 > len(data) {
		return nil, errors.New("truncated miptex")
	}
	n := int(binary.LittleEndian.Uint16(data[pal:]))
	pal += 2
	if n > 256 || pal+3*n > len(data) {
		return nil, errors.Errorf("bad palette with %d colors", n)
	}
	var palette [256]color.NRGBA
	for i := 0; i < n; i++ {
		palette[i] = color.NRGBA{data[pal+3*i], data[pal+3*i+1], data[pal+3*i+2], 255}
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, ht))
	for i, p := range data[pix : pix+w*ht] {
		c := palette[p]
		copy(img.Pix[4*i:], []uint8{c.R, c.G, c.B, c.A})
	}
	return img, nil
}

// fence makes index 255 (pure blue) transparent and gives the transparent
// pixels the average color of their opaque neighbours, so filtering does not
// bleed blue into the edges.
func fence(img *image.NRGBA) {
	d := img.Pix
	for i := 0; i < len(d); i += 4 {
		if d[i] == 0 && d[i+1] == 0 && d[i+2] == 255 {
			d[i+3] = 0
		}
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		prev := (y - 1 + h) % h
		next := (y + 1) % h
		for x := 0; x < w; x++ {
			pixel := (x + y*w) * 4
			if d[pixel+3] != 0 {
				continue
			}
			pp := (x - 1 + w) % w
			np := (x + 1) % w
			ns := [...]int{
				pp + prev*w, x + prev*w, np + prev*w,
				pp + y*w, np + y*w,
				pp + next*w, x + next*w, np + next*w,
			}
			r, g, b, count := 0, 0, 0, 0
			for _, n := range ns {
				n *= 4
				if d[n+3] != 0 {
					r += int(d[n])
					g += int(d[n+1])
					b += int(d[n+2])
					count++
				}
			}
			if count != 0 {
				d[pixel] = byte(r / count)
				d[pixel+1] = byte(g / count)
				d[pixel+2] = byte(b / count)
			} else {
				d[pixel], d[pixel+1], d[pixel+2] = 0, 0, 0
			}
		}
	}
}

// Source is a bsp.TextureSource over several archives. Earlier archives
// win.
type Source []*Archive

func (s Source) LoadTexture(name string) (bsp.Texture, error) {
	for _, a := range s {
		if _, ok := a.entries[strings.ToLower(name)]; !ok {
			continue
		}
		t, err := a.Texture(name)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, errors.Wrapf(bsp.ErrNotFound, "texture %s", name)
}

// Opener returns a function opening the named archives from fs. Archives
// are looked up by base name in the root of the search path. Missing or
// broken archives are logged and skipped.
func Opener(fs *filesystem.SearchPath) func(names []string) bsp.TextureSource {
	return func(names []string) bsp.TextureSource {
		var s Source
		for _, n := range names {
			if i := strings.LastIndexAny(n, `\/`); i >= 0 {
				n = n[i+1:]
			}
			data, err := fs.ReadFile(n)
			if err != nil {
				conlog.Warnf("wad %s: %v", n, err)
				continue
			}
			a, err := New(n, data)
			if err != nil {
				conlog.Warnf("%v", err)
				continue
			}
			conlog.DPrintf("wad %s with %d textures", n, len(a.entries))
			s = append(s, a)
		}
		if len(s) == 0 {
			return nil
		}
		return s
	}
}
