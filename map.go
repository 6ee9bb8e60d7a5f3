// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package tibiarc

const (
	// TileBufferWidth, TileBufferHeight and TileBufferDepth are the
	// dimensions of the toroidal viewport window kept around the player.
	TileBufferWidth  = 18
	TileBufferHeight = 14
	TileBufferDepth  = 8

	// renderHeightStride is the stride used both to bound-check and to
	// index the render height map. The original asserts against
	// TileBufferWidth while sizing the buffer with a +2 apron on both
	// axes; this implementation uses the apron-inclusive stride
	// consistently for the bound check and the index, so every cell the
	// buffer allocates is addressable and the two never disagree.
	renderHeightStride = TileBufferWidth + 2
	renderHeightRows    = TileBufferHeight + 2
	renderHeightMapSize = renderHeightStride * renderHeightRows
)

// Map is the player-centred viewport window: a torus-addressed grid of
// tiles covering TileBufferWidth x TileBufferHeight x TileBufferDepth,
// plus the render height map used to occlude tiles behind tall objects
// and the ambient light state of the window.
type Map struct {
	// Position is the world coordinate of the window's top-left, top
	// (lowest Z) corner.
	Position Position

	Tiles [TileBufferWidth * TileBufferHeight * TileBufferDepth]Tile

	RenderHeightMap [renderHeightMapSize]uint8

	LightIntensity uint8
	LightColor     uint8
}

// tileIndex computes the flat, modulo-wrapped index of (x, y, z) within
// the toroidal buffer.
func tileIndex(x, y, z int) int {
	wx := ((x % TileBufferWidth) + TileBufferWidth) % TileBufferWidth
	wy := ((y % TileBufferHeight) + TileBufferHeight) % TileBufferHeight
	wz := ((z % TileBufferDepth) + TileBufferDepth) % TileBufferDepth
	return wx + (wy+wz*TileBufferHeight)*TileBufferWidth
}

// Tile returns a pointer to the tile at the given world-relative
// coordinates, wrapping around the torus on all three axes.
func (m *Map) Tile(x, y, z int) *Tile {
	return &m.Tiles[tileIndex(x, y, z)]
}

// renderHeightIndex maps a pixel-space coordinate (in 32-pixel cells) to
// an offset in the render height map, using the apron-inclusive stride on
// both axes.
func renderHeightIndex(cellX, cellY int) (int, bool) {
	if cellX < 0 || cellY < 0 || cellX >= renderHeightStride || cellY >= renderHeightRows {
		return 0, false
	}
	return cellX + cellY*renderHeightStride, true
}

// GetRenderHeight returns the tallest occlusion height recorded for the
// 32-pixel cell containing the given screen-space pixel coordinates.
func (m *Map) GetRenderHeight(pixelX, pixelY int) (uint8, bool) {
	index, ok := renderHeightIndex(pixelX/32, pixelY/32)
	if !ok {
		return 0, false
	}
	return m.RenderHeightMap[index], true
}

// UpdateRenderHeight raises the recorded occlusion height for the cell
// containing the given screen-space pixel coordinates, if height exceeds
// what's already there.
func (m *Map) UpdateRenderHeight(pixelX, pixelY int, height uint8) {
	index, ok := renderHeightIndex(pixelX/32, pixelY/32)
	if !ok {
		return
	}
	if height > m.RenderHeightMap[index] {
		m.RenderHeightMap[index] = height
	}
}

// Clear resets every tile, the render height map and the window's light
// state, as happens on a full map redraw.
func (m *Map) Clear() {
	for i := range m.Tiles {
		m.Tiles[i].Clear()
	}
	m.RenderHeightMap = [renderHeightMapSize]uint8{}
	m.LightIntensity = 0
	m.LightColor = 0
}

// Scroll shifts the window by (dx, dy) world tiles and clears the tiles
// that fall out of view on each axis. Because Tile addresses by world
// coordinate modulo the buffer dimensions, a slot vacated on one edge is
// the very slot a tile entering the opposite edge will occupy; clearing it
// is therefore all scrolling requires — no tile data needs to move. Z is
// never scrolled here: a floor change is always accompanied by a fresh
// full redraw.
func (m *Map) Scroll(dx, dy int) {
	oldPosition := m.Position
	m.Position.X = uint16(int(m.Position.X) + dx)
	m.Position.Y = uint16(int(m.Position.Y) + dy)

	switch {
	case dx > 0:
		m.clearColumns(int(oldPosition.X), dx)
	case dx < 0:
		m.clearColumns(int(oldPosition.X)+TileBufferWidth+dx, -dx)
	}
	switch {
	case dy > 0:
		m.clearRows(int(oldPosition.Y), dy)
	case dy < 0:
		m.clearRows(int(oldPosition.Y)+TileBufferHeight+dy, -dy)
	}
}

// clearColumns clears count world-x columns starting at worldX, across the
// whole height and depth of the window.
func (m *Map) clearColumns(worldX, count int) {
	for i := 0; i < count; i++ {
		x := worldX + i
		for y := 0; y < TileBufferHeight; y++ {
			for z := 0; z < TileBufferDepth; z++ {
				m.Tile(x, y, z).Clear()
			}
		}
	}
}

// clearRows clears count world-y rows starting at worldY, across the whole
// width and depth of the window.
func (m *Map) clearRows(worldY, count int) {
	for i := 0; i < count; i++ {
		y := worldY + i
		for x := 0; x < TileBufferWidth; x++ {
			for z := 0; z < TileBufferDepth; z++ {
				m.Tile(x, y, z).Clear()
			}
		}
	}
}
