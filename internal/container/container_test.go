// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package container

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildTRP(frames []Frame, major, minor, preview uint16) []byte {
	buf := append([]byte{}, trpMagic[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(frames)))
	buf = binary.LittleEndian.AppendUint16(buf, major)
	buf = binary.LittleEndian.AppendUint16(buf, minor)
	buf = binary.LittleEndian.AppendUint16(buf, preview)
	for _, f := range frames {
		buf = binary.LittleEndian.AppendUint32(buf, f.Timestamp)
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(f.Payload)))
		buf = append(buf, f.Payload...)
	}
	return buf
}

func TestTRPEmptyRecording(t *testing.T) {
	data := buildTRP(nil, 7, 72, 0)
	dec, format, err := NewDecoder("session.trp", data)
	require.NoError(t, err)
	require.Equal(t, FormatTRP, format)

	_, ok := dec.NextTimestamp()
	require.False(t, ok)
}

func TestTRPSingleFrameRoundTrip(t *testing.T) {
	data := buildTRP([]Frame{{Timestamp: 0, Payload: []byte{1, 2, 3}}}, 7, 72, 0)
	dec, _, err := NewDecoder("session.trp", data)
	require.NoError(t, err)

	ts, ok := dec.NextTimestamp()
	require.True(t, ok)
	require.Equal(t, uint32(0), ts)

	frame, err := dec.Next()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, frame.Payload)

	_, ok = dec.NextTimestamp()
	require.False(t, ok)
}

func TestTRPRejectsNonMonotoneTimestamps(t *testing.T) {
	data := buildTRP([]Frame{
		{Timestamp: 0, Payload: []byte{1}},
		{Timestamp: 500, Payload: []byte{2}},
		{Timestamp: 100, Payload: []byte{3}},
	}, 7, 72, 0)
	_, _, err := NewDecoder("session.trp", data)
	require.ErrorIs(t, err, ErrFormat)
}

func TestTRPRejectsBadMagic(t *testing.T) {
	_, _, err := NewDecoder("session.trp", []byte{0, 0, 0, 0, 0, 0})
	require.ErrorIs(t, err, ErrFormat)
}

func TestHexTextRoundTrip(t *testing.T) {
	data := []byte("0 0102\n500 ff\n")
	dec, format, err := NewDecoder("session.txt", data)
	require.NoError(t, err)
	require.Equal(t, FormatHexText, format)

	frame, err := dec.Next()
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, frame.Payload)

	ts, ok := dec.NextTimestamp()
	require.True(t, ok)
	require.Equal(t, uint32(500), ts)
}

func TestDetectFormatSniffsMagicWithoutExtension(t *testing.T) {
	data := buildTRP(nil, 7, 72, 0)
	require.Equal(t, FormatTRP, DetectFormat("noext", data))
}
