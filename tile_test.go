// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package tibiarc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// groundSet classifies a fixed set of ids as ground/always-on-top for tests.
type groundSet struct {
	ground      map[uint16]bool
	alwaysOnTop map[uint16]bool
}

func (g groundSet) IsGround(id uint16) bool      { return g.ground[id] }
func (g groundSet) IsAlwaysOnTop(id uint16) bool { return g.alwaysOnTop[id] }

func TestTileInsertGroundAlwaysAtZero(t *testing.T) {
	c := groundSet{ground: map[uint16]bool{100: true}}
	var tile Tile

	require.NoError(t, tile.InsertObject(c, NewObject(200), StackPositionTop))
	require.NoError(t, tile.InsertObject(c, NewObject(100), StackPositionTop))

	require.Equal(t, uint16(100), tile.Objects[0].Id)
	require.Equal(t, 2, tile.ObjectCount)
}

func TestTileInsertAndRemove(t *testing.T) {
	c := groundSet{}
	var tile Tile

	require.NoError(t, tile.InsertObject(c, NewObject(1), StackPositionTop))
	require.NoError(t, tile.InsertObject(c, NewObject(2), StackPositionTop))
	require.NoError(t, tile.InsertObject(c, NewObject(3), StackPositionTop))
	require.Equal(t, 3, tile.ObjectCount)

	obj, err := tile.GetObject(1)
	require.NoError(t, err)
	require.Equal(t, uint16(2), obj.Id)

	require.NoError(t, tile.RemoveObject(1))
	require.Equal(t, 2, tile.ObjectCount)
	obj, err = tile.GetObject(1)
	require.NoError(t, err)
	require.Equal(t, uint16(3), obj.Id)
}

func TestTileSetObject(t *testing.T) {
	c := groundSet{}
	var tile Tile
	require.NoError(t, tile.InsertObject(c, NewObject(1), StackPositionTop))
	require.NoError(t, tile.SetObject(0, NewObject(42)))

	obj, err := tile.GetObject(0)
	require.NoError(t, err)
	require.Equal(t, uint16(42), obj.Id)
}

func TestTileOverflowEvictsBottom(t *testing.T) {
	c := groundSet{ground: map[uint16]bool{1: true}}
	var tile Tile

	require.NoError(t, tile.InsertObject(c, NewObject(1), StackPositionTop))
	for i := uint16(2); i <= uint16(MaxObjectsPerTile); i++ {
		require.NoError(t, tile.InsertObject(c, NewObject(i), StackPositionTop))
	}
	require.Equal(t, MaxObjectsPerTile, tile.ObjectCount)

	// One more insert must evict the bottom-most non-ground item (id 2),
	// never the ground tile at index 0.
	require.NoError(t, tile.InsertObject(c, NewObject(999), StackPositionTop))
	require.Equal(t, MaxObjectsPerTile, tile.ObjectCount)
	require.Equal(t, uint16(1), tile.Objects[0].Id)
	for _, obj := range tile.Objects[:tile.ObjectCount] {
		require.NotEqual(t, uint16(2), obj.Id)
	}
}

func TestTileInsertAlwaysOnTopStaysAboveGround(t *testing.T) {
	c := groundSet{
		ground:      map[uint16]bool{1: true},
		alwaysOnTop: map[uint16]bool{2: true},
	}
	var tile Tile

	require.NoError(t, tile.InsertObject(c, NewObject(1), StackPositionTop)) // ground
	require.NoError(t, tile.InsertObject(c, NewObject(10), StackPositionTop)) // ordinary
	require.NoError(t, tile.InsertObject(c, NewObject(2), StackPositionTop)) // always-on-top
	require.NoError(t, tile.InsertObject(c, NewObject(11), StackPositionTop)) // ordinary

	require.Equal(t, []uint16{1, 2, 10, 11}, []uint16{
		tile.Objects[0].Id, tile.Objects[1].Id, tile.Objects[2].Id, tile.Objects[3].Id,
	})
}

func TestTileInsertCreatureStaysOnTop(t *testing.T) {
	c := groundSet{ground: map[uint16]bool{1: true}}
	var tile Tile

	require.NoError(t, tile.InsertObject(c, NewObject(1), StackPositionTop))                 // ground
	require.NoError(t, tile.InsertObject(c, NewObject(CreatureMarker), StackPositionTop))     // creature
	require.NoError(t, tile.InsertObject(c, NewObject(10), StackPositionTop))                 // ordinary, inserted after the creature

	require.Equal(t, uint16(10), tile.Objects[1].Id)
	require.Equal(t, CreatureMarker, tile.Objects[2].Id)
	require.Equal(t, 3, tile.ObjectCount)
}

func TestTileStackPositionOutOfRange(t *testing.T) {
	var tile Tile
	_, err := tile.GetObject(5)
	require.ErrorIs(t, err, ErrStackPosition)
}

func TestTileClear(t *testing.T) {
	c := groundSet{}
	var tile Tile
	require.NoError(t, tile.InsertObject(c, NewObject(1), StackPositionTop))
	tile.AddGraphicalEffect(7, 100)

	tile.Clear()
	require.Equal(t, 0, tile.ObjectCount)
	require.Equal(t, 0, tile.GraphicalIndex)
}

func TestTileEffectRingWraps(t *testing.T) {
	var tile Tile
	for i := 0; i < MaxEffectsPerTile+1; i++ {
		tile.AddGraphicalEffect(uint8(i), uint32(i))
	}
	require.Equal(t, 1, tile.GraphicalIndex)
	require.Equal(t, uint8(MaxEffectsPerTile), tile.GraphicalEffects[0].Id)
}
