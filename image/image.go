// SPDX-License-Identifier: GPL-2.0-or-later

package image

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"hlbsp/bsp"
	"hlbsp/conlog"
	"hlbsp/filesystem"
)

// Write stores img as png.
func Write(name string, img image.Image) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Extensions are tried in this order for names without extension.
var Extensions = []string{".tga", ".bmp", ".png"}

// Decode reads an image, the format is taken from the extension of name.
func Decode(name string, data []byte) (*image.NRGBA, error) {
	var img image.Image
	var err error
	switch strings.ToLower(filesystem.Ext(name)) {
	case ".tga":
		return decodeTGA(data)
	case ".bmp":
		img, err = bmp.Decode(bytes.NewReader(data))
	case ".png":
		img, err = png.Decode(bytes.NewReader(data))
	default:
		return nil, errors.Errorf("unknown image type %s", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", name)
	}
	return toNRGBA(img), nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Source loads level textures from a search path. Names are looked up in
// each of Dirs.
type Source struct {
	fs   *filesystem.SearchPath
	Dirs []string
}

func NewSource(fs *filesystem.SearchPath, dirs ...string) *Source {
	if len(dirs) == 0 {
		dirs = []string{"textures", "gfx/env", ""}
	}
	return &Source{fs: fs, Dirs: dirs}
}

func (s *Source) candidates(name string) []string {
	var r []string
	for _, d := range s.Dirs {
		p := path.Join(d, name)
		if filesystem.Ext(name) != "" {
			r = append(r, p)
			continue
		}
		for _, e := range Extensions {
			r = append(r, p+e)
		}
	}
	return r
}

func (s *Source) LoadTexture(name string) (bsp.Texture, error) {
	for _, c := range s.candidates(name) {
		data, err := s.fs.ReadFile(c)
		if err != nil {
			continue
		}
		img, err := Decode(c, data)
		if err != nil {
			conlog.Warnf("%v", err)
			continue
		}
		conlog.DPrintf("texture %s from %s", name, c)
		return bsp.NewImageTexture(name, img), nil
	}
	return nil, errors.Wrapf(bsp.ErrNotFound, "texture %s", name)
}

type tgaHeader struct {
	IDLength       uint8
	ColormapType   uint8
	ImageType      uint8
	ColormapIndex  uint16
	ColormapLength uint16
	ColormapSize   uint8
	XOrigin        uint16
	YOrigin        uint16
	Width          uint16
	Height         uint16
	PixelSize      uint8
	Attributes     uint8
}

const tgaTopLeft = 0x20

func decodeTGA(data []byte) (*image.NRGBA, error) {
	r := bytes.NewReader(data)
	var header tgaHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("Invalid tga header: %v", err)
	}
	if header.ImageType != 2 && header.ImageType != 10 {
		return nil, fmt.Errorf("TGA is not a type 2 or type 10")
	}
	if header.ColormapType != 0 || (header.PixelSize != 32 && header.PixelSize != 24) {
		return nil, fmt.Errorf("TGA is not 24bit or 32bit")
	}
	width, height := int(header.Width), int(header.Height)
	bpp := int(header.PixelSize) / 8
	nrgba := image.NewNRGBA(image.Rect(0, 0, width, height))

	// skip Image ID, there is no color map
	pix := data[min(len(data), binary.Size(header)+int(header.IDLength)):]

	// pixels in file order, BGR(A)
	total := width * height * bpp
	raw := make([]byte, 0, total)
	if header.ImageType == 2 {
		if len(pix) < total {
			return nil, fmt.Errorf("Not enough pixels")
		}
		raw = append(raw, pix[:total]...)
	} else {
		for len(raw) < total {
			if len(pix) < 1+bpp {
				return nil, fmt.Errorf("Not enough pixels")
			}
			c := int(pix[0]&0x7f) + 1
			if pix[0]&0x80 != 0 {
				for i := 0; i < c; i++ {
					raw = append(raw, pix[1:1+bpp]...)
				}
				pix = pix[1+bpp:]
				continue
			}
			if len(pix) < 1+c*bpp {
				return nil, fmt.Errorf("Not enough pixels")
			}
			raw = append(raw, pix[1:1+c*bpp]...)
			pix = pix[1+c*bpp:]
		}
		raw = raw[:total]
	}

	for y := 0; y < height; y++ {
		row := y
		if header.Attributes&tgaTopLeft == 0 {
			row = height - 1 - y
		}
		for x := 0; x < width; x++ {
			s := (y*width + x) * bpp
			d := nrgba.PixOffset(x, row)
			nrgba.Pix[d+0] = raw[s+2]
			nrgba.Pix[d+1] = raw[s+1]
			nrgba.Pix[d+2] = raw[s+0]
			if bpp == 4 {
				nrgba.Pix[d+3] = raw[s+3]
			} else {
				nrgba.Pix[d+3] = 255
			}
		}
	}
	return nrgba, nil
}
