// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package tibiarc

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tibiacast/tibiarc-sub002/internal/canvas"
)

func TestCropToBoundingBoxShrinksToOpaquePixels(t *testing.T) {
	region := canvas.NewBitmap(image.Rect(0, 0, 4, 4))
	region.Set(2, 1, canvas.NewPixel(10, 20, 30, 255))

	cropped := cropToBoundingBox(region)
	require.Equal(t, 1, cropped.Rect.Dx())
	require.Equal(t, 1, cropped.Rect.Dy())
}

func TestCropToBoundingBoxEmptyForFullyTransparent(t *testing.T) {
	region := canvas.NewBitmap(image.Rect(0, 0, 3, 3))
	cropped := cropToBoundingBox(region)
	require.Equal(t, 0, cropped.Rect.Dx())
}

func TestDecodeFontsRejectsBadMagic(t *testing.T) {
	_, err := decodeFonts([]byte{0, 0, 0, 0})
	require.ErrorIs(t, err, ErrMalformedAsset)
}

func TestDecodeFontsEmptyInput(t *testing.T) {
	fonts, err := decodeFonts(nil)
	require.NoError(t, err)
	require.Nil(t, fonts)
}
