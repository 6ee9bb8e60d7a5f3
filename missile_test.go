// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package tibiarc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMissileRingOverwritesOldest(t *testing.T) {
	var r MissileRing

	for i := 0; i < MaxMissiles; i++ {
		r.Add(uint8(i), uint32(i), Position{}, Position{})
	}
	require.Equal(t, MaxMissiles, r.Count)
	require.Equal(t, uint8(0), r.Missiles[0].Id)

	r.Add(255, 1000, Position{}, Position{})
	require.Equal(t, MaxMissiles, r.Count)
	require.Equal(t, uint8(255), r.Missiles[0].Id)
	require.Equal(t, uint8(1), r.Missiles[1].Id)
}
