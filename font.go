// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package tibiarc

import (
	"fmt"
	"image"

	"github.com/tibiacast/tibiarc-sub002/internal/canvas"
	"github.com/tibiacast/tibiarc-sub002/internal/reader"
)

const picBankMagic uint32 = 0x00FEED01

// Glyph is one character's pre-extracted RLE sprite plus the metrics a
// renderer needs to lay it out: its bitmap dimensions and the offset from
// the pen position to its non-transparent bounding box.
type Glyph struct {
	Sprite  []byte
	Width   int
	Height  int
	XOffset int
	YOffset int
}

// Font is a table of glyphs extracted from the picture bank, keyed by
// Unicode code point.
type Font struct {
	Glyphs map[rune]*Glyph
}

// Glyph returns the glyph for r, if the font carries one.
func (f *Font) Glyph(r rune) (*Glyph, bool) {
	g, ok := f.Glyphs[r]
	return g, ok
}

// decodeFonts parses every font in a .pic picture bank buffer. Each
// character is stored in the bank as a raw RGBA bitmap; this extracts it
// as an RLE sprite of its non-transparent bounding box, prefixing an empty
// transparent run when the bounding box's first pixel is opaque so every
// sprite satisfies the "starts with a transparent run" invariant.
func decodeFonts(data []byte) ([]*Font, error) {
	if len(data) == 0 {
		return nil, nil
	}

	c := reader.New(data)

	magic, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
	}
	if magic != picBankMagic {
		return nil, fmt.Errorf("%w: bad picture bank signature", ErrMalformedAsset)
	}

	fontCount, err := c.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
	}

	fonts := make([]*Font, fontCount)
	for i := range fonts {
		glyphCount, err := c.ReadU16()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
		}

		font := &Font{Glyphs: make(map[rune]*Glyph, glyphCount)}
		for g := 0; g < int(glyphCount); g++ {
			codepoint, err := c.ReadU16()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
			}
			width, err := c.ReadU8()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
			}
			height, err := c.ReadU8()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
			}
			xOffset, err := c.ReadU8()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
			}
			yOffset, err := c.ReadU8()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
			}

			pixels, err := c.ReadBytes(int(width) * int(height) * 4)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
			}

			region := canvas.NewBitmap(image.Rect(0, 0, int(width), int(height)))
			copy(region.Pix, pixels)

			cropped := cropToBoundingBox(region)
			font.Glyphs[rune(codepoint)] = &Glyph{
				Sprite:  canvas.EncodeSprite(cropped),
				Width:   cropped.Rect.Dx(),
				Height:  cropped.Rect.Dy(),
				XOffset: int(xOffset),
				YOffset: int(yOffset),
			}
		}
		fonts[i] = font
	}

	return fonts, nil
}

// cropToBoundingBox returns a new bitmap covering only region's
// non-transparent pixels, or a 0x0 bitmap if region is entirely
// transparent.
func cropToBoundingBox(region *canvas.Bitmap) *canvas.Bitmap {
	bounds := region.Rect
	minX, minY := bounds.Max.X, bounds.Max.Y
	maxX, maxY := bounds.Min.X, bounds.Min.Y
	found := false

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			p := region.At(x, y).(canvas.Pixel)
			if p&0xFF == 0 {
				continue
			}
			found = true
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if !found {
		return canvas.NewBitmap(image.Rect(0, 0, 0, 0))
	}

	cropped := canvas.NewBitmap(image.Rect(0, 0, maxX-minX+1, maxY-minY+1))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			cropped.Set(x-minX, y-minY, region.At(x, y))
		}
	}
	return cropped
}
