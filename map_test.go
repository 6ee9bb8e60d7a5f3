// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package tibiarc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTileIndexWrapsOnAllAxes(t *testing.T) {
	var m Map

	m.Tile(0, 0, 0).AddGraphicalEffect(1, 10)
	require.Equal(t, uint8(1), m.Tile(TileBufferWidth, TileBufferHeight, TileBufferDepth).GraphicalEffects[0].Id)

	m.Tile(-1, 0, 0).AddGraphicalEffect(2, 20)
	require.Equal(t, uint8(2), m.Tile(TileBufferWidth-1, 0, 0).GraphicalEffects[0].Id)
}

func TestRenderHeightMapTracksMaximum(t *testing.T) {
	var m Map

	m.UpdateRenderHeight(64, 32, 5)
	m.UpdateRenderHeight(64, 32, 2)

	h, ok := m.GetRenderHeight(64, 32)
	require.True(t, ok)
	require.Equal(t, uint8(5), h)
}

func TestRenderHeightMapOutOfBounds(t *testing.T) {
	var m Map
	_, ok := m.GetRenderHeight(-32, 0)
	require.False(t, ok)
}

func TestMapClearResetsEverything(t *testing.T) {
	var m Map
	m.Tile(0, 0, 0).AddGraphicalEffect(1, 10)
	m.UpdateRenderHeight(0, 0, 9)
	m.LightIntensity = 5

	m.Clear()
	require.Equal(t, 0, m.Tile(0, 0, 0).GraphicalIndex)
	h, ok := m.GetRenderHeight(0, 0)
	require.True(t, ok)
	require.Equal(t, uint8(0), h)
	require.Equal(t, uint8(0), m.LightIntensity)
}
