// SPDX-License-Identifier: GPL-2.0-or-later
package bsp

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// Texture is a decoded image. Decoding from wad archives happens outside of
// this package.
type Texture interface {
	Name() string
	Width() int
	Height() int
	Pixel(x, y int) color.NRGBA
}

// TextureSource resolves texture names referenced by a level.
type TextureSource interface {
	LoadTexture(name string) (Texture, error)
}

// TextureSourceFunc adapts a function to a TextureSource.
type TextureSourceFunc func(name string) (Texture, error)

func (f TextureSourceFunc) LoadTexture(name string) (Texture, error) {
	return f(name)
}

type sources []TextureSource

// Sources returns a TextureSource asking each of s in order.
func Sources(s ...TextureSource) TextureSource {
	return sources(s)
}

func (s sources) LoadTexture(name string) (Texture, error) {
	err := errors.Wrapf(ErrNotFound, "texture %s", name)
	for _, src := range s {
		t, e := src.LoadTexture(name)
		if e == nil && t != nil {
			return t, nil
		}
		if e != nil && !errors.Is(e, ErrNotFound) {
			err = e
		}
	}
	return nil, err
}

// ImageTexture is a Texture backed by an in memory image.
type ImageTexture struct {
	name string
	img  *image.NRGBA
}

func NewImageTexture(name string, img *image.NRGBA) *ImageTexture {
	return &ImageTexture{name: name, img: img}
}

// NewSolidTexture returns a w*h texture filled with c.
func NewSolidTexture(name string, w, h int, c color.NRGBA) *ImageTexture {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return &ImageTexture{name: name, img: img}
}

func (t *ImageTexture) Name() string { return t.name }
func (t *ImageTexture) Width() int   { return t.img.Bounds().Dx() }
func (t *ImageTexture) Height() int  { return t.img.Bounds().Dy() }

func (t *ImageTexture) Pixel(x, y int) color.NRGBA {
	b := t.img.Bounds()
	return t.img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
}

func (t *ImageTexture) Image() *image.NRGBA { return t.img }

var (
	white    = color.NRGBA{255, 255, 255, 255}
	flatSky  = color.NRGBA{132, 184, 255, 255}
	noSource = TextureSourceFunc(func(name string) (Texture, error) {
		return nil, ErrNotFound
	})
)
