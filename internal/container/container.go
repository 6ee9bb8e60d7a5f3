// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package container decodes the four on-disk recording formats into a
// common, lazily-consumed sequence of (timestamp, payload) frames: the
// native .trp container, a bare packet dump, the tibia.com movie format,
// and a newline-delimited hex-text format. Format selection mirrors a
// filename-extension/magic-byte cascade the way a UOP/MUL asset loader
// auto-detects its own container format.
package container

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tibiacast/tibiarc-sub002/internal/reader"
)

// ErrFormat is returned for any structural violation of a recording
// container: non-monotone timestamps, over-long frames, or truncated
// headers/payloads.
var ErrFormat = errors.New("container: malformed recording")

// MaxFrameLength bounds a single frame's payload size.
const MaxFrameLength = 64 * 1024

// Frame is one (timestamp, payload) entry in a recording.
type Frame struct {
	Timestamp uint32
	Payload   []byte
}

// Decoder exposes a recording as a monotone sequence of frames.
type Decoder interface {
	// NextTimestamp returns the timestamp of the next undelivered frame
	// and true, or false once the stream is exhausted.
	NextTimestamp() (uint32, bool)
	// Next returns and consumes the next frame.
	Next() (Frame, error)
}

// Format identifies which of the four container layouts a recording uses.
type Format int

const (
	FormatTRP Format = iota
	FormatPacketDump
	FormatMovie
	FormatHexText
)

var trpMagic = [4]byte{'T', 'R', 'P', 0}

// DetectFormat chooses a container format from the recording's filename
// extension, falling back to sniffing the native magic and a hex-text
// heuristic when the extension is unrecognized or absent.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".trp":
		return FormatTRP
	case ".rec":
		return FormatPacketDump
	case ".cam":
		return FormatMovie
	case ".txt", ".hex":
		return FormatHexText
	}

	if len(data) >= 4 && bytes.Equal(data[:4], trpMagic[:]) {
		return FormatTRP
	}
	if looksLikeHexText(data) {
		return FormatHexText
	}
	return FormatPacketDump
}

func looksLikeHexText(data []byte) bool {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	line = bytes.TrimRight(line, "\r")
	if len(line) == 0 || len(line)%2 != 0 {
		return false
	}
	_, err := hex.DecodeString(string(line))
	return err == nil
}

// NewDecoder builds the appropriate Decoder for name's detected format.
func NewDecoder(name string, data []byte) (Decoder, Format, error) {
	format := DetectFormat(name, data)

	var (
		dec Decoder
		err error
	)
	switch format {
	case FormatTRP:
		dec, err = newTRPDecoder(data)
	case FormatPacketDump:
		dec, err = newPacketDumpDecoder(data)
	case FormatMovie:
		dec, err = newMovieDecoder(data)
	case FormatHexText:
		dec, err = newHexTextDecoder(data)
	default:
		return nil, format, fmt.Errorf("%w: unrecognized container format", ErrFormat)
	}
	return dec, format, err
}

// frameSequence is the shared bookkeeping every decoder's Next/NextTimestamp
// delegates to once its frames are parsed up front.
type frameSequence struct {
	frames []Frame
	cursor int
}

func (s *frameSequence) NextTimestamp() (uint32, bool) {
	if s.cursor >= len(s.frames) {
		return 0, false
	}
	return s.frames[s.cursor].Timestamp, true
}

func (s *frameSequence) Next() (Frame, error) {
	if s.cursor >= len(s.frames) {
		return Frame{}, fmt.Errorf("%w: read past end of stream", ErrFormat)
	}
	f := s.frames[s.cursor]
	s.cursor++
	return f, nil
}

func validateMonotone(frames []Frame) error {
	var last uint32
	for i, f := range frames {
		if i > 0 && f.Timestamp < last {
			return fmt.Errorf("%w: non-monotone timestamp at frame %d", ErrFormat, i)
		}
		if i == 0 && f.Timestamp != 0 {
			return fmt.Errorf("%w: first frame timestamp must be 0", ErrFormat)
		}
		if len(f.Payload) > MaxFrameLength {
			return fmt.Errorf("%w: frame %d exceeds maximum length", ErrFormat, i)
		}
		last = f.Timestamp
	}
	return nil
}

// trpDecoder reads the native container: a 4-byte magic, a u32 frame
// count, a version triple, then repeated (u32 timestamp, u16 length,
// payload) entries.
type trpDecoder struct {
	frameSequence
	Major, Minor, Preview uint16
}

func newTRPDecoder(data []byte) (*trpDecoder, error) {
	c := reader.New(data)

	magic, err := c.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if !bytes.Equal(magic, trpMagic[:]) {
		return nil, fmt.Errorf("%w: bad .trp magic", ErrFormat)
	}

	frameCount, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	major, err := c.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	minor, err := c.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	preview, err := c.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	frames := make([]Frame, 0, frameCount)
	for i := uint32(0); i < frameCount; i++ {
		timestamp, err := c.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		length, err := c.ReadU16()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		if length == 0 {
			return nil, fmt.Errorf("%w: zero-length frame", ErrFormat)
		}
		payload, err := c.ReadBytes(int(length))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		frames = append(frames, Frame{Timestamp: timestamp, Payload: payload})
	}

	if err := validateMonotone(frames); err != nil {
		return nil, err
	}

	return &trpDecoder{
		frameSequence: frameSequence{frames: frames},
		Major:         major,
		Minor:         minor,
		Preview:       preview,
	}, nil
}

// packetDumpDecoder reads a bare capture: repeated (u16 length, u32
// delta-timestamp, payload) with no header.
type packetDumpDecoder struct{ frameSequence }

func newPacketDumpDecoder(data []byte) (*packetDumpDecoder, error) {
	c := reader.New(data)

	var frames []Frame
	var tick uint32
	for c.Remaining() > 0 {
		length, err := c.ReadU16()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		delta, err := c.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		payload, err := c.ReadBytes(int(length))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		tick += delta
		frames = append(frames, Frame{Timestamp: tick, Payload: payload})
	}

	if err := validateMonotone(frames); err != nil {
		return nil, err
	}
	return &packetDumpDecoder{frameSequence{frames: frames}}, nil
}

// movieDecoder reads the tibia.com movie format: a version triple header
// followed by repeated (u16 length, u16 delta-timestamp, payload) frames.
type movieDecoder struct {
	frameSequence
	Major, Minor, Preview uint16
}

func newMovieDecoder(data []byte) (*movieDecoder, error) {
	c := reader.New(data)

	major, err := c.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	minor, err := c.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	preview, err := c.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	var frames []Frame
	var tick uint32
	for c.Remaining() > 0 {
		length, err := c.ReadU16()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		delta, err := c.ReadU16()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		payload, err := c.ReadBytes(int(length))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		tick += uint32(delta)
		frames = append(frames, Frame{Timestamp: tick, Payload: payload})
	}

	if err := validateMonotone(frames); err != nil {
		return nil, err
	}
	return &movieDecoder{
		frameSequence: frameSequence{frames: frames},
		Major:         major,
		Minor:         minor,
		Preview:       preview,
	}, nil
}

// hexTextDecoder reads a newline-delimited debug format: each line is a
// decimal timestamp, a space, and the frame payload as hex text.
type hexTextDecoder struct{ frameSequence }

func newHexTextDecoder(data []byte) (*hexTextDecoder, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), MaxFrameLength*2+32)

	var frames []Frame
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: malformed hex-text line", ErrFormat)
		}
		timestamp, err := strconv.ParseUint(parts[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: bad timestamp: %v", ErrFormat, err)
		}
		payload, err := hex.DecodeString(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: bad hex payload: %v", ErrFormat, err)
		}
		frames = append(frames, Frame{Timestamp: uint32(timestamp), Payload: payload})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	if err := validateMonotone(frames); err != nil {
		return nil, err
	}
	return &hexTextDecoder{frameSequence{frames: frames}}, nil
}
