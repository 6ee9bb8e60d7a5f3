// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package canvas implements the packed-RGBA pixel format and the
// run-length-encoded sprite rectangle that the asset archives and the
// protocol's picture bank decode into, as a standard image.Image.
package canvas

import (
	"errors"
	"image"
	"image/color"
)

// ErrSpriteTruncated is returned when a run-length-encoded sprite ends
// mid-run.
var ErrSpriteTruncated = errors.New("canvas: sprite data truncated mid run")

// Pixel is a packed RGBA color; Alpha == 0 means fully transparent, matching
// the original's trc_pixel.
type Pixel uint32

// RGBA implements color.Color.
func (p Pixel) RGBA() (r, g, b, a uint32) {
	if p&0xFF == 0 {
		return 0, 0, 0, 0
	}
	r = uint32(byte(p>>24)) * 0x101
	g = uint32(byte(p>>16)) * 0x101
	b = uint32(byte(p>>8)) * 0x101
	a = uint32(byte(p)) * 0x101
	return
}

// NewPixel packs an RGBA quad into a Pixel.
func NewPixel(r, g, b, a byte) Pixel {
	return Pixel(uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a))
}

// PixelModel is the color.Model for Pixel.
var PixelModel color.Model = color.ModelFunc(pixelModel)

func pixelModel(c color.Color) color.Color {
	if p, ok := c.(Pixel); ok {
		return p
	}
	r, g, b, a := c.RGBA()
	return NewPixel(byte(r>>8), byte(g>>8), byte(b>>8), byte(a>>8))
}

// Bitmap is an in-memory image whose pixels are packed Pixel values, 4
// bytes each, stored in the same R,G,B,A byte order the wire format uses.
type Bitmap struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

// NewBitmap returns a zeroed (fully transparent) Bitmap with the given bounds.
func NewBitmap(r image.Rectangle) *Bitmap {
	w, h := r.Dx(), r.Dy()
	stride := w * 4
	return &Bitmap{Pix: make([]byte, stride*h), Stride: stride, Rect: r}
}

// ColorModel implements image.Image.
func (b *Bitmap) ColorModel() color.Model { return PixelModel }

// Bounds implements image.Image.
func (b *Bitmap) Bounds() image.Rectangle { return b.Rect }

// PixOffset returns the index into Pix of the first byte of pixel (x, y).
func (b *Bitmap) PixOffset(x, y int) int {
	return (y-b.Rect.Min.Y)*b.Stride + (x-b.Rect.Min.X)*4
}

// At implements image.Image.
func (b *Bitmap) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(b.Rect)) {
		return Pixel(0)
	}
	o := b.PixOffset(x, y)
	return Pixel(uint32(b.Pix[o])<<24 | uint32(b.Pix[o+1])<<16 | uint32(b.Pix[o+2])<<8 | uint32(b.Pix[o+3]))
}

// Set implements draw.Image.
func (b *Bitmap) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(b.Rect)) {
		return
	}
	p := PixelModel.Convert(c).(Pixel)
	o := b.PixOffset(x, y)
	b.Pix[o] = byte(p >> 24)
	b.Pix[o+1] = byte(p >> 16)
	b.Pix[o+2] = byte(p >> 8)
	b.Pix[o+3] = byte(p)
}

// DecodeSprite decodes a variable-width/height run-length-encoded pixel
// region: alternating (transparent-run u16, opaque-run u16, opaque-run *
// RGBA) triples until the stream is consumed.
func DecodeSprite(width, height int, data []byte) (*Bitmap, error) {
	img := NewBitmap(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return img, nil
	}

	x, y := 0, 0
	pos := 0
	for pos+4 <= len(data) {
		transparent := int(data[pos]) | int(data[pos+1])<<8
		opaque := int(data[pos+2]) | int(data[pos+3])<<8
		pos += 4

		x += transparent
		for x >= width {
			x -= width
			y++
		}

		for i := 0; i < opaque; i++ {
			if pos+4 > len(data) {
				return nil, ErrSpriteTruncated
			}
			img.Set(x, y, Pixel(uint32(data[pos])<<24|uint32(data[pos+1])<<16|uint32(data[pos+2])<<8|uint32(data[pos+3])))
			pos += 4
			x++
			if x >= width {
				x = 0
				y++
			}
		}

		if y >= height {
			break
		}
	}

	return img, nil
}

// EncodeSprite is the inverse of DecodeSprite: it walks an image row-major
// and emits alternating transparent/opaque runs. Used by the font/sprite
// extraction pipeline, which calls it once per glyph; the output grows as
// it is appended to, with no separate sizing pass.
func EncodeSprite(img *Bitmap) []byte {
	width, height := img.Rect.Dx(), img.Rect.Dy()

	var out []byte
	transparentRun := 0
	var opaqueRun []byte

	flush := func() {
		hdr := make([]byte, 4)
		hdr[0] = byte(transparentRun)
		hdr[1] = byte(transparentRun >> 8)
		n := len(opaqueRun) / 4
		hdr[2] = byte(n)
		hdr[3] = byte(n >> 8)
		out = append(out, hdr...)
		out = append(out, opaqueRun...)
		transparentRun = 0
		opaqueRun = opaqueRun[:0]
	}

	// Normalize: if the very first pixel is opaque, emit an empty
	// transparent run first so every sprite starts with a (possibly zero)
	// transparent run, the invariant the renderer depends on.
	first := true

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := img.At(img.Rect.Min.X+x, img.Rect.Min.Y+y).(Pixel)
			transparent := p&0xFF == 0
			if first {
				first = false
			}
			switch {
			case transparent && len(opaqueRun) == 0:
				transparentRun++
			case transparent && len(opaqueRun) > 0:
				flush()
				transparentRun++
			default:
				opaqueRun = append(opaqueRun,
					byte(p>>24), byte(p>>16), byte(p>>8), byte(p))
			}
		}
	}
	if transparentRun > 0 || len(opaqueRun) > 0 {
		flush()
	}

	return out
}
