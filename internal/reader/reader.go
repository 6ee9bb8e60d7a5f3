// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package reader provides a bounded cursor over an immutable byte buffer,
// used to decode the little-endian, length-prefixed wire formats that make
// up both the asset archives and the protocol frames of a recording.
package reader

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrTruncated indicates a read would run past the end of the buffer. It is
// the sole error the cursor ever produces; every read either succeeds and
// advances the cursor, or fails and leaves it exactly where it was.
var ErrTruncated = errors.New("reader: truncated input")

// Cursor is a bounded, forward-only reader over a byte slice. It never
// copies the underlying buffer and never outlives it: callers must ensure
// the buffer (often a memory-mapped file) stays valid for the cursor's
// lifetime.
type Cursor struct {
	data []byte
	pos  int
}

// New wraps data in a Cursor positioned at offset 0.
func New(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Position returns the current byte offset.
func (c *Cursor) Position() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

// Checkpoint returns an opaque mark that Restore can rewind to.
func (c *Cursor) Checkpoint() int {
	return c.pos
}

// Restore rewinds the cursor to a previously taken Checkpoint.
func (c *Cursor) Restore(mark int) {
	c.pos = mark
}

// Skip advances the cursor by n bytes, failing if that would run past the
// end of the buffer. On failure the cursor is unchanged.
func (c *Cursor) Skip(n int) error {
	if n < 0 || c.pos+n > len(c.data) {
		return ErrTruncated
	}
	c.pos += n
	return nil
}

// PeekU8 returns the next byte without advancing the cursor.
func (c *Cursor) PeekU8() (byte, error) {
	if c.pos+1 > len(c.data) {
		return 0, ErrTruncated
	}
	return c.data[c.pos], nil
}

// ReadU8 reads a single byte.
func (c *Cursor) ReadU8() (byte, error) {
	if c.pos+1 > len(c.data) {
		return 0, ErrTruncated
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

// ReadU16 reads a little-endian uint16.
func (c *Cursor) ReadU16() (uint16, error) {
	if c.pos+2 > len(c.data) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint16(c.data[c.pos : c.pos+2])
	c.pos += 2
	return v, nil
}

// ReadU32 reads a little-endian uint32.
func (c *Cursor) ReadU32() (uint32, error) {
	if c.pos+4 > len(c.data) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint32(c.data[c.pos : c.pos+4])
	c.pos += 4
	return v, nil
}

// ReadU64 reads a little-endian uint64. The player-stats opcode uses it for
// the player's 64-bit experience counter.
func (c *Cursor) ReadU64() (uint64, error) {
	if c.pos+8 > len(c.data) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint64(c.data[c.pos : c.pos+8])
	c.pos += 8
	return v, nil
}

// ReadBytes reads and returns n raw bytes. The returned slice aliases the
// underlying buffer; callers that need to retain it past the buffer's
// lifetime must copy it.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.data) {
		return nil, ErrTruncated
	}
	v := c.data[c.pos : c.pos+n]
	c.pos += n
	return v, nil
}

// ReadString reads a u16 length prefix followed by that many raw bytes, with
// no terminator. The returned string is a copy, independent of the buffer.
func (c *Cursor) ReadString() (string, error) {
	start := c.pos
	n, err := c.ReadU16()
	if err != nil {
		return "", err
	}
	b, err := c.ReadBytes(int(n))
	if err != nil {
		c.pos = start
		return "", err
	}
	return string(b), nil
}

// SkipString skips a u16-length-prefixed string without allocating it.
func (c *Cursor) SkipString() error {
	start := c.pos
	n, err := c.ReadU16()
	if err != nil {
		return err
	}
	if err := c.Skip(int(n)); err != nil {
		c.pos = start
		return err
	}
	return nil
}

// ReadFloat decodes the proprietary stat float: one byte Exponent, then a
// u32 Significand, value = (Significand - math.MaxInt32) / 10^Exponent.
func (c *Cursor) ReadFloat() (float64, error) {
	start := c.pos
	exponent, err := c.ReadU8()
	if err != nil {
		return 0, err
	}
	significand, err := c.ReadU32()
	if err != nil {
		c.pos = start
		return 0, err
	}
	return (float64(significand) - math.MaxInt32) / math.Pow(10, float64(exponent)), nil
}
