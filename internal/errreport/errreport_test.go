// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package errreport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReportNoneIsNoop(t *testing.T) {
	Change(ModeNone)
	Report("TestFunc", 1, "boom")
	_, ok := Last()
	require.False(t, ok)
}

func TestReportTextAccumulates(t *testing.T) {
	prev := Change(ModeText)
	defer Change(prev)

	Report("TestFunc", 42, "bad value %d", 7)
	message, ok := Last()
	require.True(t, ok)
	require.Contains(t, message, "TestFunc (line 42)")
	require.Contains(t, message, "bad value 7")

	// Last resets the buffer.
	message, ok = Last()
	require.True(t, ok)
	require.Empty(t, message)
}

func TestChangeReturnsPrevious(t *testing.T) {
	Change(ModeNone)
	prev := Change(ModeText)
	require.Equal(t, ModeNone, prev)
	Change(ModeNone)
}

func TestReportAbortPanics(t *testing.T) {
	prev := Change(ModeAbort)
	defer Change(prev)

	require.Panics(t, func() {
		Report("TestFunc", 1, "fatal")
	})
}
