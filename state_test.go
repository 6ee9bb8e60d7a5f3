// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package tibiarc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateResetClearsComponentsButKeepsVersion(t *testing.T) {
	v := &Version{}
	s := NewState(v)

	s.Creatures.Add(&Creature{Id: 1})
	s.AddTextMessage(Position{}, messageModeSay, "A", "hi")
	s.AddMissileEffect(1, Position{}, Position{})
	s.CurrentTick = 500

	s.Reset()

	require.Equal(t, 0, s.Creatures.Len())
	require.Equal(t, 0, s.Messages.Len())
	require.Equal(t, 0, s.Missiles.Count)
	require.Same(t, v, s.Version)
	require.Equal(t, uint32(500), s.CurrentTick)
}
