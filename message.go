// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package tibiarc

import (
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// decodeLatin1 reinterprets raw as ISO-8859-1, the wire encoding the
// original client used for chat text, producing a proper UTF-8 Go string.
// A transform failure returns raw unmodified rather than dropping the
// message.
func decodeLatin1(raw string) string {
	decoded, _, err := transform.String(charmap.ISO8859_1.NewDecoder(), raw)
	if err != nil {
		return raw
	}
	return decoded
}

// MessageMode identifies how a chat or system message was sent, and
// governs both its sort priority and its author's on-screen color.
type MessageMode uint8

// MessagePrivateIn is the highest-priority mode: an incoming private
// message. It is excluded from QueryNext's merge consideration and gets
// its own collision-avoidance insertion policy.
const MessagePrivateIn MessageMode = 0

const (
	// MessagesDisplayTime is how long a message stays visible after its
	// StartTick, in game ticks.
	MessagesDisplayTime uint32 = 3000
	// MessageMaxTextLength and MessageMaxAuthorLength bound a message's
	// text and author fields.
	MessageMaxTextLength   = 256
	MessageMaxAuthorLength = 64
)

const (
	messageModeSay MessageMode = 1 + iota
	messageModeWhisper
	messageModeYell
	messageModeSpell
)

// foldMessageType collapses the chat modes that render identically
// (Say, Whisper, Yell, Spell) into one equivalence class for sorting and
// merge purposes.
func foldMessageType(mode MessageMode) MessageMode {
	switch mode {
	case messageModeSay, messageModeWhisper, messageModeYell, messageModeSpell:
		return messageModeSay
	default:
		return mode
	}
}

// compareTypes orders two (possibly folded) message types. It returns 1 if
// messageType sorts after compareType, -1 if before, 0 if equal — note the
// comparison runs in reverse of the types' numeric values, matching the
// priority ordering where MessagePrivateIn (0) sorts last in this
// function's output but first in display priority.
func compareTypes(messageType, compareType MessageMode) int {
	messageType = foldMessageType(messageType)
	compareType = foldMessageType(compareType)

	switch {
	case messageType < compareType:
		return 1
	case messageType > compareType:
		return -1
	default:
		return 0
	}
}

// Message is one chat line or system message, displayed at Position and
// attributed to Author between StartTick and EndTick.
type Message struct {
	Type     MessageMode
	Position Position
	Author   string
	Text     string

	StartTick uint32
	EndTick   uint32
}

func newMessage(position Position, tick uint32, mode MessageMode, author, text string) *Message {
	if len(author) > MessageMaxAuthorLength-1 {
		author = author[:MessageMaxAuthorLength-1]
	}
	if len(text) > MessageMaxTextLength-1 {
		text = text[:MessageMaxTextLength-1]
	}
	return &Message{
		Type:      mode,
		Position:  position,
		Author:    author,
		Text:      text,
		StartTick: tick,
		EndTick:   tick + MessagesDisplayTime,
	}
}

// sortFunction orders messages by folded type, then X, then Y, then Z,
// then author, matching the priority a renderer groups messages by.
func sortFunction(message, compareTo *Message) int {
	if c := compareTypes(message.Type, compareTo.Type); c != 0 {
		return c
	}
	if message.Position.X != compareTo.Position.X {
		if message.Position.X < compareTo.Position.X {
			return -1
		}
		return 1
	}
	if message.Position.Y != compareTo.Position.Y {
		if message.Position.Y < compareTo.Position.Y {
			return -1
		}
		return 1
	}
	if message.Position.Z != compareTo.Position.Z {
		if message.Position.Z < compareTo.Position.Z {
			return -1
		}
		return 1
	}
	n := len(message.Author)
	if len(compareTo.Author) < n {
		n = len(compareTo.Author)
	}
	if message.Author[:n] < compareTo.Author[:n] {
		return -1
	}
	if message.Author[:n] > compareTo.Author[:n] {
		return 1
	}
	return 0
}

// MessageList keeps the messages currently on screen, ordered for the
// renderer's merge logic: ordinary messages front to back, private
// messages back to front with their display window bumped to avoid
// overlapping a still-visible prior private message.
type MessageList struct {
	messages []*Message
}

// NewMessageList returns an empty message list.
func NewMessageList() *MessageList {
	return &MessageList{}
}

// AddMessage inserts a new message, applying the bifurcated insertion
// policy described on MessageList.
func (l *MessageList) AddMessage(position Position, tick uint32, mode MessageMode, author, text string) *Message {
	message := newMessage(position, tick, mode, author, text)

	if mode != MessagePrivateIn {
		index := 0
		for index < len(l.messages) {
			if sortFunction(message, l.messages[index]) < 0 {
				break
			}
			index++
		}
		l.insertAt(index, message)
		return message
	}

	index := len(l.messages)
	for index > 0 {
		if sortFunction(message, l.messages[index-1]) <= 0 {
			break
		}
		index--
	}
	if index > 0 {
		prev := l.messages[index-1]
		message.StartTick = tick
		if prev.EndTick > message.StartTick {
			message.StartTick = prev.EndTick
		}
		message.EndTick = message.StartTick + MessagesDisplayTime
	}
	l.insertAt(index, message)
	return message
}

func (l *MessageList) insertAt(index int, message *Message) {
	l.messages = append(l.messages, nil)
	copy(l.messages[index+1:], l.messages[index:])
	l.messages[index] = message
}

// Len reports how many messages are currently tracked.
func (l *MessageList) Len() int {
	return len(l.messages)
}

// At returns the message at the given list position.
func (l *MessageList) At(index int) *Message {
	return l.messages[index]
}

// QueryNext reports whether the message immediately following index (in
// list order) shares its position and folded type (preserveCoordinates),
// and whether the two can additionally be merged into a single displayed
// line (canMerge) — which private messages never participate in.
func (l *MessageList) QueryNext(index int, tick uint32) (preserveCoordinates, canMerge bool) {
	message := l.messages[index]
	if index+1 >= len(l.messages) {
		return false, false
	}
	next := l.messages[index+1]
	if next.EndTick < tick {
		return false, false
	}
	if message.Position != next.Position {
		return false, false
	}

	preserveCoordinates = compareTypes(message.Type, next.Type) == 0
	canMerge = preserveCoordinates &&
		message.Type != MessagePrivateIn &&
		message.Author == next.Author
	return preserveCoordinates, canMerge
}

// Sweep removes every message whose EndTick has passed as of tick.
func (l *MessageList) Sweep(tick uint32) {
	kept := l.messages[:0]
	for _, m := range l.messages {
		if tick > m.EndTick {
			continue
		}
		kept = append(kept, m)
	}
	l.messages = kept
}

// Reset empties the list.
func (l *MessageList) Reset() {
	l.messages = nil
}
