// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package tibiarc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageListOrdinaryInsertionOrder(t *testing.T) {
	l := NewMessageList()
	pos := Position{X: 100, Y: 100, Z: 7}

	l.AddMessage(pos, 0, messageModeSay, "Alice", "hi")
	l.AddMessage(pos, 0, messageModeSay, "Alice", "again")

	require.Equal(t, 2, l.Len())
	// Same sort key: insertion order is preserved (stable, front to back).
	require.Equal(t, "hi", l.At(0).Text)
	require.Equal(t, "again", l.At(1).Text)
}

func TestMessageListPrivateBumpsOverlap(t *testing.T) {
	l := NewMessageList()
	pos := NoPosition

	first := l.AddMessage(pos, 0, MessagePrivateIn, "Bob", "hello")
	require.Equal(t, uint32(0), first.StartTick)
	require.Equal(t, MessagesDisplayTime, first.EndTick)

	second := l.AddMessage(pos, 100, MessagePrivateIn, "Bob", "again")
	require.Equal(t, first.EndTick, second.StartTick)
	require.Equal(t, first.EndTick+MessagesDisplayTime, second.EndTick)
}

func TestMessageListSweepPrunesExpired(t *testing.T) {
	l := NewMessageList()
	l.AddMessage(Position{}, 0, messageModeSay, "A", "x")
	l.AddMessage(Position{}, 0, messageModeSay, "B", "y")

	l.Sweep(MessagesDisplayTime + 1)
	require.Equal(t, 0, l.Len())
}

func TestMessageListSweepKeepsBoundary(t *testing.T) {
	l := NewMessageList()
	l.AddMessage(Position{}, 0, messageModeSay, "A", "x")

	l.Sweep(MessagesDisplayTime)
	require.Equal(t, 1, l.Len())
}

func TestMessageListQueryNextMergeExcludesPrivate(t *testing.T) {
	l := NewMessageList()
	pos := Position{X: 1, Y: 1, Z: 1}

	l.AddMessage(pos, 0, MessagePrivateIn, "Carl", "hey")
	l.AddMessage(pos, 0, MessagePrivateIn, "Carl", "hey again")

	_, canMerge := l.QueryNext(0, 0)
	require.False(t, canMerge)
}

func TestMessageListQueryNextMergesMatchingOrdinary(t *testing.T) {
	l := NewMessageList()
	pos := Position{X: 5, Y: 5, Z: 7}

	l.AddMessage(pos, 0, messageModeSay, "Dina", "part one")
	l.AddMessage(pos, 0, messageModeSay, "Dina", "part two")

	preserve, merge := l.QueryNext(0, 0)
	require.True(t, preserve)
	require.True(t, merge)
}
