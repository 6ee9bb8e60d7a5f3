// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package canvas

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitmapSetAt(t *testing.T) {
	b := NewBitmap(image.Rect(0, 0, 2, 2))
	b.Set(1, 1, NewPixel(10, 20, 30, 255))

	p := b.At(1, 1).(Pixel)
	require.Equal(t, byte(10), byte(p>>24))
	require.Equal(t, byte(20), byte(p>>16))
	require.Equal(t, byte(30), byte(p>>8))
	require.Equal(t, byte(255), byte(p))

	// Untouched pixel stays transparent.
	require.Equal(t, Pixel(0), b.At(0, 0))
}

func TestBitmapOutOfBoundsIsNoop(t *testing.T) {
	b := NewBitmap(image.Rect(0, 0, 1, 1))
	b.Set(5, 5, NewPixel(1, 2, 3, 255))
	require.Equal(t, Pixel(0), b.At(5, 5))
}

func TestDecodeSpriteRoundTrip(t *testing.T) {
	src := NewBitmap(image.Rect(0, 0, 3, 2))
	src.Set(1, 0, NewPixel(255, 0, 0, 255))
	src.Set(2, 0, NewPixel(0, 255, 0, 255))
	src.Set(0, 1, NewPixel(0, 0, 255, 255))

	data := EncodeSprite(src)
	out, err := DecodeSprite(3, 2, data)
	require.NoError(t, err)

	require.Equal(t, src.At(1, 0), out.At(1, 0))
	require.Equal(t, src.At(2, 0), out.At(2, 0))
	require.Equal(t, src.At(0, 1), out.At(0, 1))
	require.Equal(t, Pixel(0), out.At(0, 0))
}

func TestDecodeSpriteTruncated(t *testing.T) {
	// Claims 1 opaque pixel but supplies no pixel bytes.
	data := []byte{0x00, 0x00, 0x01, 0x00}
	_, err := DecodeSprite(2, 2, data)
	require.ErrorIs(t, err, ErrSpriteTruncated)
}

func TestDecodeSpriteEmpty(t *testing.T) {
	img, err := DecodeSprite(0, 0, nil)
	require.NoError(t, err)
	require.Equal(t, 0, img.Rect.Dx())
}
