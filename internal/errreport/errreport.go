// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package errreport implements the session-scoped error reporting buffer:
// a reporting mode plus a bounded buffer of the error text reported since
// it was last read, so a host
// application can retrieve diagnostic detail after a playback call fails
// without the core forcing its own logging policy. The original keeps
// this as a thread-local; a playback session in this reimplementation is
// single-goroutine by design (see the package-level session model), so a
// mutex-guarded package value gives the same externally observable
// behaviour without requiring a non-existent goroutine-local facility.
package errreport

import (
	"fmt"
	"sync"
)

// Mode selects how errors reported through Report are surfaced.
type Mode int

const (
	// ModeNone discards reported errors; Report is a no-op.
	ModeNone Mode = iota
	// ModeAbort panics immediately with the reported message, for use in
	// tests and tooling that want to fail fast.
	ModeAbort
	// ModeText appends the error to the buffer for later retrieval via
	// Last.
	ModeText
)

// BufferSize bounds the error message buffer. Text reported once the
// buffer is full is dropped; the buffer does not wrap around.
const BufferSize = 1024

type state struct {
	mode     Mode
	position int
	buffer   [BufferSize]byte
}

var (
	mu      sync.Mutex
	current state
)

// Change sets the reporting mode and returns the previous one.
func Change(mode Mode) Mode {
	mu.Lock()
	defer mu.Unlock()
	previous := current.mode
	current.mode = mode
	current.position = 0
	return previous
}

// Report records an error message according to the current mode. format
// and args follow fmt.Sprintf conventions; function and line identify the
// call site the way the original's reporting macro does.
func Report(function string, line int, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	switch current.mode {
	case ModeNone:
		return
	case ModeAbort:
		panic(fmt.Sprintf("%s (line %d): %s", function, line, fmt.Sprintf(format, args...)))
	case ModeText:
		message := fmt.Sprintf("%s (line %d): %s", function, line, fmt.Sprintf(format, args...))
		n := copy(current.buffer[current.position:], message)
		current.position += n
	}
}

// Last returns the accumulated error text and resets the buffer position,
// or ok=false if the current mode isn't ModeText.
func Last() (message string, ok bool) {
	mu.Lock()
	defer mu.Unlock()

	if current.mode != ModeText {
		return "", false
	}
	message = string(current.buffer[:current.position])
	current.position = 0
	return message, true
}
