// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package tibiarc

// GraphicalEffect is a transient sprite-backed animation (e.g. an
// explosion) pinned to a tile starting at StartTick.
type GraphicalEffect struct {
	Id        uint8
	StartTick uint32
}

// NumericalEffect is a floating damage/heal number pinned to a tile.
// Numerical and text effects are mutually exclusive per game-state
// instance: the choice between them is fixed by the version's feature
// matrix (NumericalEffects), never mixed within one session.
type NumericalEffect struct {
	StartTick uint32
	Color     uint8
	Value     uint32
}

// TextEffect is the older, textual form of a floating combat message,
// carried instead of NumericalEffect on versions whose feature matrix says
// so.
type TextEffect struct {
	StartTick uint32
	Color     uint8
	Text      string
}
