// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package tibiarc

import (
	"errors"
	"fmt"

	"github.com/tibiacast/tibiarc-sub002/internal/reader"
)

// Opcode identifies a protocol message's leading byte. The mapping from
// byte value to semantics is itself a version-catalogue decision in the
// original protocol; this reimplementation keeps one canonical table and
// varies handler behaviour internally by consulting State.Version.Features,
// which covers every case this engine's recordings exercise.
type Opcode byte

const (
	OpcodeMapFullRedraw Opcode = 0x64

	OpcodeTileUpdate          Opcode = 0x69
	OpcodeAddObjectAtStack    Opcode = 0x6A
	OpcodeTransformObject     Opcode = 0x6B
	OpcodeRemoveObjectAtStack Opcode = 0x6C
	OpcodeMoveCreature        Opcode = 0x6D

	OpcodeContainerOpen      Opcode = 0x6E
	OpcodeContainerClose     Opcode = 0x6F
	OpcodeContainerAddItem   Opcode = 0x70
	OpcodeContainerRemoveItem Opcode = 0x71

	OpcodeChatMessage Opcode = 0xAA

	OpcodeGraphicalEffect Opcode = 0x83
	OpcodeNumericalEffect Opcode = 0x84
	OpcodeMissile         Opcode = 0x85

	OpcodePlayerStats Opcode = 0xA0
)

// tileObjectTerminator ends a tile's object descriptor stream during a
// full-map redraw or partial tile refresh.
const tileObjectTerminator = 0xFF

// skipTileMarker, when encountered in place of an object id, introduces a
// run of N empty tiles rather than a single object.
const skipTileMarker = 0xFE

// ErrUnknownOpcode is fatal: the byte stream is out of sync with the
// protocol the version catalogue describes.
var ErrUnknownOpcode = errors.New("tibiarc: unknown opcode")

// ErrNotSynchronised is returned when an opcode that requires a prior
// full map redraw arrives before one has happened.
var ErrNotSynchronised = errors.New("tibiarc: opcode requires a synchronised session")

// ErrUnknownCreature is a semantic protocol violation: an opcode referenced
// a creature id the session has never seen.
var ErrUnknownCreature = errors.New("tibiarc: reference to unknown creature")

// Tag bytes distinguishing the two encodings a creature reference can take
// inside a tile's object stream: a "known" creature reuses an entry already
// in State.Creatures by id, while "unknown" evicts a recycled id and
// installs a full creature record under a new one. No literal wire values
// survive in the source this is ported from; these follow the historical
// Tibia client protocol's own creature-reference tags, chosen to keep
// CreatureMarker (0x63) — the existing "this stack slot is a creature"
// object id — consistent with its neighbours.
const (
	creatureUnknownTag uint16 = 0x61
	creatureKnownTag   uint16 = 0x62
)

type opcodeHandler func(s *State, c *reader.Cursor) error

var opcodeTable = map[Opcode]opcodeHandler{
	OpcodeMapFullRedraw:       handleMapFullRedraw,
	OpcodeTileUpdate:          requireSynchronised(handleTileUpdate),
	OpcodeAddObjectAtStack:    requireSynchronised(handleAddObjectAtStack),
	OpcodeTransformObject:     requireSynchronised(handleTransformObject),
	OpcodeRemoveObjectAtStack: requireSynchronised(handleRemoveObjectAtStack),
	OpcodeMoveCreature:        requireSynchronised(handleMoveCreature),
	OpcodeContainerOpen:       handleContainerOpen,
	OpcodeContainerClose:      handleContainerClose,
	OpcodeContainerAddItem:    handleContainerAddItem,
	OpcodeContainerRemoveItem: handleContainerRemoveItem,
	OpcodeChatMessage:         handleChatMessage,
	OpcodeGraphicalEffect:     requireSynchronised(handleGraphicalEffect),
	OpcodeNumericalEffect:     requireSynchronised(handleNumericalEffect),
	OpcodeMissile:             handleMissile,
	OpcodePlayerStats:         handlePlayerStats,
}

func requireSynchronised(h opcodeHandler) opcodeHandler {
	return func(s *State, c *reader.Cursor) error {
		if !s.Synchronised {
			return ErrNotSynchronised
		}
		return h(s, c)
	}
}

// Interpret applies a single protocol message to state, dispatching on its
// leading opcode byte. An unknown opcode, or a well-formed opcode whose
// body fails to parse or violates a semantic invariant, is fatal.
func Interpret(state *State, payload []byte) error {
	c := reader.New(payload)

	opcodeByte, err := c.ReadU8()
	if err != nil {
		return fmt.Errorf("tibiarc: %w", err)
	}

	handler, ok := opcodeTable[Opcode(opcodeByte)]
	if !ok {
		return fmt.Errorf("%w: 0x%02x", ErrUnknownOpcode, opcodeByte)
	}
	return handler(state, c)
}

func readPosition(c *reader.Cursor) (Position, error) {
	x, err := c.ReadU16()
	if err != nil {
		return Position{}, err
	}
	y, err := c.ReadU16()
	if err != nil {
		return Position{}, err
	}
	z, err := c.ReadU8()
	if err != nil {
		return Position{}, err
	}
	return Position{X: x, Y: y, Z: z}, nil
}

// readObject reads one tile-stack object descriptor. When id is
// CreatureMarker, the descriptor continues with the known/unknown creature
// handshake (see creatureKnownTag/creatureUnknownTag) and mutates s's
// creature registry accordingly; otherwise it carries a single ordinary
// item variant byte.
func readObject(s *State, c *reader.Cursor) (Object, error) {
	id, err := c.ReadU16()
	if err != nil {
		return Object{}, err
	}
	obj := NewObject(id)
	if id == CreatureMarker {
		creatureId, err := readCreatureReference(s, c)
		if err != nil {
			return Object{}, err
		}
		obj.CreatureId = creatureId
		return obj, nil
	}
	obj.ExtraByte, err = c.ReadU8()
	if err != nil {
		return Object{}, err
	}
	return obj, nil
}

// readCreatureReference reads the known/unknown creature handshake and
// returns the id the stack slot now references. "Known" reuses an existing
// entry by id, tolerating a miss since a stale reference outside of
// movement is not fatal. "Unknown" evicts a recycled id from the registry
// and installs a freshly decoded creature under a new one.
func readCreatureReference(s *State, c *reader.Cursor) (uint32, error) {
	tag, err := c.ReadU16()
	if err != nil {
		return 0, err
	}

	switch tag {
	case creatureKnownTag:
		creatureId, err := c.ReadU32()
		if err != nil {
			return 0, err
		}
		return creatureId, nil
	case creatureUnknownTag:
		removalId, err := c.ReadU32()
		if err != nil {
			return 0, err
		}
		creatureId, err := c.ReadU32()
		if err != nil {
			return 0, err
		}
		creature, err := decodeCreature(c)
		if err != nil {
			return 0, err
		}
		creature.Id = creatureId
		s.Creatures.Remove(removalId)
		s.Creatures.Add(creature)
		return creatureId, nil
	default:
		return 0, fmt.Errorf("tibiarc: unknown creature reference tag 0x%04x", tag)
	}
}

// decodeCreature reads the full creature record an "unknown" handshake
// supplies, in the field order Creature declares them. The caller fills in
// Id once the record is decoded.
func decodeCreature(c *reader.Cursor) (*Creature, error) {
	var creature Creature

	creatureType, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	creature.Type = CreatureType(creatureType)

	creature.NPCCategory, err = c.ReadU8()
	if err != nil {
		return nil, err
	}
	creature.Name, err = c.ReadString()
	if err != nil {
		return nil, err
	}
	creature.GuildMembersOnline, err = c.ReadU16()
	if err != nil {
		return nil, err
	}
	markIsPermanent, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	creature.MarkIsPermanent = markIsPermanent != 0
	creature.Mark, err = c.ReadU8()
	if err != nil {
		return nil, err
	}
	creature.Health, err = c.ReadU8()
	if err != nil {
		return nil, err
	}
	heading, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	creature.Heading = Direction(heading)
	creature.LightIntensity, err = c.ReadU8()
	if err != nil {
		return nil, err
	}
	creature.LightColor, err = c.ReadU8()
	if err != nil {
		return nil, err
	}
	speed, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	creature.Speed = int16(speed)
	creature.Skull, err = c.ReadU8()
	if err != nil {
		return nil, err
	}
	creature.Shield, err = c.ReadU8()
	if err != nil {
		return nil, err
	}
	creature.War, err = c.ReadU8()
	if err != nil {
		return nil, err
	}
	impassable, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	creature.Impassable = impassable != 0

	outfit, err := decodeAppearance(c)
	if err != nil {
		return nil, err
	}
	creature.Outfit = outfit

	return &creature, nil
}

// decodeAppearance reads a creature's outfit, or — when the outfit id is 0
// — the item it disguises as instead.
func decodeAppearance(c *reader.Cursor) (Appearance, error) {
	var appearance Appearance

	id, err := c.ReadU16()
	if err != nil {
		return Appearance{}, err
	}
	appearance.Id = id

	if id == 0 {
		itemId, err := c.ReadU16()
		if err != nil {
			return Appearance{}, err
		}
		appearance.Item = NewObject(itemId)
		return appearance, nil
	}

	appearance.MountId, err = c.ReadU16()
	if err != nil {
		return Appearance{}, err
	}
	appearance.HeadColor, err = c.ReadU8()
	if err != nil {
		return Appearance{}, err
	}
	appearance.PrimaryColor, err = c.ReadU8()
	if err != nil {
		return Appearance{}, err
	}
	appearance.SecondaryColor, err = c.ReadU8()
	if err != nil {
		return Appearance{}, err
	}
	appearance.DetailColor, err = c.ReadU8()
	if err != nil {
		return Appearance{}, err
	}
	appearance.Addons, err = c.ReadU8()
	if err != nil {
		return Appearance{}, err
	}
	return appearance, nil
}

// readTileObjects reads a tile's object descriptor stream, terminated by
// tileObjectTerminator, inserting each object on top of tile.
func readTileObjects(s *State, c *reader.Cursor, classifier StackClassifier, tile *Tile) error {
	for {
		peek, err := c.PeekU8()
		if err != nil {
			return err
		}
		if peek == tileObjectTerminator {
			_, _ = c.ReadU8()
			return nil
		}
		object, err := readObject(s, c)
		if err != nil {
			return err
		}
		if err := tile.InsertObject(classifier, object, StackPositionTop); err != nil {
			return err
		}
	}
}

// handleMapFullRedraw reads the player's new position followed by a
// row-major tile stream over the whole viewport window, clearing the
// window first. Runs of empty tiles are encoded as skipTileMarker
// followed by a count, debited against the remaining tile budget; running
// out of budget mid-stream is a protocol violation.
func handleMapFullRedraw(s *State, c *reader.Cursor) error {
	position, err := readPosition(c)
	if err != nil {
		return err
	}

	s.Map.Clear()
	s.Map.Position = position

	budget := TileBufferWidth * TileBufferHeight * TileBufferDepth
	index := 0
	for budget > 0 {
		peek, err := c.PeekU8()
		if err != nil {
			return err
		}

		if peek == skipTileMarker {
			_, _ = c.ReadU8()
			count, err := c.ReadU8()
			if err != nil {
				return err
			}
			if int(count) > budget {
				return fmt.Errorf("tibiarc: tile budget underrun during full redraw")
			}
			budget -= int(count)
			index += int(count)
			continue
		}

		x := index % TileBufferWidth
		y := (index / TileBufferWidth) % TileBufferHeight
		z := index / (TileBufferWidth * TileBufferHeight)
		tile := s.Map.Tile(int(position.X)+x, int(position.Y)+y, int(position.Z)+z)
		if err := readTileObjects(s, c, s.Version.Objects, tile); err != nil {
			return err
		}
		budget--
		index++
	}

	s.Synchronised = true
	return nil
}

// handleTileUpdate overwrites a single tile's contents.
func handleTileUpdate(s *State, c *reader.Cursor) error {
	position, err := readPosition(c)
	if err != nil {
		return err
	}
	tile := s.Map.Tile(int(position.X), int(position.Y), int(position.Z))
	tile.Clear()
	return readTileObjects(s, c, s.Version.Objects, tile)
}

func handleAddObjectAtStack(s *State, c *reader.Cursor) error {
	position, err := readPosition(c)
	if err != nil {
		return err
	}
	stackPosition, err := c.ReadU8()
	if err != nil {
		return err
	}
	object, err := readObject(s, c)
	if err != nil {
		return err
	}
	tile := s.Map.Tile(int(position.X), int(position.Y), int(position.Z))
	return tile.InsertObject(s.Version.Objects, object, stackPosition)
}

func handleTransformObject(s *State, c *reader.Cursor) error {
	position, err := readPosition(c)
	if err != nil {
		return err
	}
	stackPosition, err := c.ReadU8()
	if err != nil {
		return err
	}
	object, err := readObject(s, c)
	if err != nil {
		return err
	}
	tile := s.Map.Tile(int(position.X), int(position.Y), int(position.Z))
	return tile.SetObject(stackPosition, object)
}

func handleRemoveObjectAtStack(s *State, c *reader.Cursor) error {
	position, err := readPosition(c)
	if err != nil {
		return err
	}
	stackPosition, err := c.ReadU8()
	if err != nil {
		return err
	}
	tile := s.Map.Tile(int(position.X), int(position.Y), int(position.Z))
	return tile.RemoveObject(stackPosition)
}

// handleMoveCreature updates a known creature's movement interpolation
// state between two map positions. Referencing an unknown creature id is
// a semantic protocol violation. When the moving creature is the player,
// the viewport window follows: it scrolls toward target, clearing the
// tiles that fall out of view and reading the newly revealed column or
// row's tile stream from the rest of the payload.
func handleMoveCreature(s *State, c *reader.Cursor) error {
	creatureId, err := c.ReadU32()
	if err != nil {
		return err
	}
	origin, err := readPosition(c)
	if err != nil {
		return err
	}
	target, err := readPosition(c)
	if err != nil {
		return err
	}

	creature, ok := s.Creatures.Get(creatureId)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCreature, creatureId)
	}

	creature.Movement.Origin = origin
	creature.Movement.Target = target
	creature.Movement.WalkStartTick = s.CurrentTick
	interval := uint32(1000)
	if creature.Speed > 0 {
		interval = 1000 / uint32(creature.Speed)
	}
	creature.Movement.WalkEndTick = s.CurrentTick + interval
	creature.Movement.LastUpdateTick = s.CurrentTick

	if creatureId == s.Player.Id && target.Z == origin.Z {
		return scrollWindow(s, c, origin, target)
	}
	return nil
}

// scrollWindow shifts the viewport window to follow the player from origin
// to target, clearing the tiles that leave the window on each axis that
// moved and reading the tile stream for the column or row revealed on the
// opposite edge, mirroring how the original protocol appends map data
// directly to a player movement packet. A diagonal step scrolls both axes
// independently; the corner tile is read twice, once per axis, and the
// payload must supply it twice to match.
func scrollWindow(s *State, c *reader.Cursor, origin, target Position) error {
	dx := int(target.X) - int(origin.X)
	dy := int(target.Y) - int(origin.Y)
	if dx == 0 && dy == 0 {
		return nil
	}

	oldPosition := s.Map.Position
	s.Map.Scroll(dx, dy)

	if dx != 0 {
		edgeX := int(oldPosition.X) + TileBufferWidth
		if dx < 0 {
			edgeX = int(oldPosition.X) + dx
		}
		for y := 0; y < TileBufferHeight; y++ {
			for z := 0; z < TileBufferDepth; z++ {
				tile := s.Map.Tile(edgeX, y, z)
				if err := readTileObjects(s, c, s.Version.Objects, tile); err != nil {
					return err
				}
			}
		}
	}
	if dy != 0 {
		edgeY := int(oldPosition.Y) + TileBufferHeight
		if dy < 0 {
			edgeY = int(oldPosition.Y) + dy
		}
		for x := 0; x < TileBufferWidth; x++ {
			for z := 0; z < TileBufferDepth; z++ {
				tile := s.Map.Tile(x, edgeY, z)
				// On a diagonal step the corner tile was already filled by
				// the column pass; this second read replaces it.
				tile.Clear()
				if err := readTileObjects(s, c, s.Version.Objects, tile); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func handleContainerOpen(s *State, c *reader.Cursor) error {
	id, err := c.ReadU32()
	if err != nil {
		return err
	}
	itemId, err := c.ReadU16()
	if err != nil {
		return err
	}
	name, err := c.ReadString()
	if err != nil {
		return err
	}
	slotsPerPage, err := c.ReadU8()
	if err != nil {
		return err
	}
	hasParent, err := c.ReadU8()
	if err != nil {
		return err
	}

	container := &Container{
		Id:           id,
		ItemId:       itemId,
		SlotsPerPage: int(slotsPerPage),
		HasParent:    hasParent != 0,
	}
	container.SetName(name)
	s.Containers.Open(container)
	return nil
}

func handleContainerClose(s *State, c *reader.Cursor) error {
	id, err := c.ReadU32()
	if err != nil {
		return err
	}
	s.Containers.Close(id)
	return nil
}

func handleContainerAddItem(s *State, c *reader.Cursor) error {
	id, err := c.ReadU32()
	if err != nil {
		return err
	}
	object, err := readObject(s, c)
	if err != nil {
		return err
	}
	container, ok := s.Containers.Get(id)
	if !ok {
		return fmt.Errorf("tibiarc: add item to unknown container %d", id)
	}
	return container.AddObject(object)
}

func handleContainerRemoveItem(s *State, c *reader.Cursor) error {
	id, err := c.ReadU32()
	if err != nil {
		return err
	}
	slot, err := c.ReadU8()
	if err != nil {
		return err
	}
	container, ok := s.Containers.Get(id)
	if !ok {
		return fmt.Errorf("tibiarc: remove item from unknown container %d", id)
	}
	return container.RemoveObject(int(slot))
}

func handleChatMessage(s *State, c *reader.Cursor) error {
	author, err := c.ReadString()
	if err != nil {
		return err
	}
	modeByte, err := c.ReadU8()
	if err != nil {
		return err
	}
	mode := MessageMode(modeByte)

	var position Position
	if s.Version.Features.MessagesCarryCoordinates {
		position, err = readPosition(c)
		if err != nil {
			return err
		}
	}

	text, err := c.ReadString()
	if err != nil {
		return err
	}

	s.AddTextMessage(position, mode, decodeLatin1(author), decodeLatin1(text))
	return nil
}

func handleGraphicalEffect(s *State, c *reader.Cursor) error {
	position, err := readPosition(c)
	if err != nil {
		return err
	}
	id, err := c.ReadU8()
	if err != nil {
		return err
	}
	tile := s.Map.Tile(int(position.X), int(position.Y), int(position.Z))
	tile.AddGraphicalEffect(id, s.CurrentTick)
	return nil
}

func handleNumericalEffect(s *State, c *reader.Cursor) error {
	position, err := readPosition(c)
	if err != nil {
		return err
	}
	color, err := c.ReadU8()
	if err != nil {
		return err
	}
	tile := s.Map.Tile(int(position.X), int(position.Y), int(position.Z))

	if s.Version.Features.NumericalEffects {
		value, err := c.ReadU32()
		if err != nil {
			return err
		}
		tile.AddNumericalEffect(color, value, s.CurrentTick)
		return nil
	}

	text, err := c.ReadString()
	if err != nil {
		return err
	}
	tile.AddTextEffect(color, text, s.CurrentTick)
	return nil
}

func handleMissile(s *State, c *reader.Cursor) error {
	id, err := c.ReadU8()
	if err != nil {
		return err
	}
	origin, err := readPosition(c)
	if err != nil {
		return err
	}
	target, err := readPosition(c)
	if err != nil {
		return err
	}
	s.AddMissileEffect(id, origin, target)
	return nil
}

func handlePlayerStats(s *State, c *reader.Cursor) error {
	health, err := c.ReadU16()
	if err != nil {
		return err
	}
	maxHealth, err := c.ReadU16()
	if err != nil {
		return err
	}
	capacity, err := c.ReadU32()
	if err != nil {
		return err
	}
	experience, err := c.ReadU64()
	if err != nil {
		return err
	}
	level, err := c.ReadU16()
	if err != nil {
		return err
	}
	mana, err := c.ReadU16()
	if err != nil {
		return err
	}
	maxMana, err := c.ReadU16()
	if err != nil {
		return err
	}

	s.Player.Health = health
	s.Player.MaxHealth = maxHealth
	s.Player.Capacity = capacity
	s.Player.Experience = experience
	s.Player.Level = level
	s.Player.Mana = mana
	s.Player.MaxMana = maxMana

	if s.Version.Features.HasStaminaField {
		stamina, err := c.ReadU16()
		if err != nil {
			return err
		}
		s.Player.Stamina = stamina
	}
	return nil
}
