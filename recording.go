// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package tibiarc

import (
	"fmt"

	"github.com/tibiacast/tibiarc-sub002/internal/container"
)

// Recording is a parsed session capture: a monotone sequence of frames
// the protocol interpreter replays against a State one at a time.
type Recording struct {
	decoder container.Decoder
	format  container.Format
}

// OpenRecording detects name's container format and parses it into a
// Recording ready for playback.
func OpenRecording(name string, data []byte) (*Recording, error) {
	decoder, format, err := container.NewDecoder(name, data)
	if err != nil {
		return nil, err
	}
	return &Recording{decoder: decoder, format: format}, nil
}

// terminalTimestamp is returned by NextTimestamp once the stream is
// exhausted.
const terminalTimestamp uint32 = 0xFFFFFFFF

// NextTimestamp returns the timestamp of the next undelivered frame, or
// terminalTimestamp once playback has reached the end of the stream.
func (r *Recording) NextTimestamp() uint32 {
	ts, ok := r.decoder.NextTimestamp()
	if !ok {
		return terminalTimestamp
	}
	return ts
}

// ProcessNext applies the next frame to state, which must already have
// CurrentTick set to the tick this frame is to be interpreted at. The frame
// is consumed before it is interpreted: when interpretation fails, the
// stream is already positioned after the failed frame, and calling
// ProcessNext again does not retry it.
func (r *Recording) ProcessNext(state *State) error {
	frame, err := r.decoder.Next()
	if err != nil {
		return fmt.Errorf("tibiarc: recording exhausted: %w", err)
	}
	return Interpret(state, frame.Payload)
}
