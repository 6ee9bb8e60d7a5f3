// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package tibiarc

import (
	"fmt"

	"github.com/kelindar/intmap"

	"github.com/tibiacast/tibiarc-sub002/internal/reader"
)

// ObjectFlag is a bit in an object type's flag set, decoded from the
// object-type dictionary's tag-byte stream.
type ObjectFlag uint32

const (
	ObjectFlagGround ObjectFlag = 1 << iota
	ObjectFlagGroundBorder
	ObjectFlagOnBottom
	ObjectFlagOnTop
	ObjectFlagContainer
	ObjectFlagStackable
	ObjectFlagForceUse
	ObjectFlagMultiUse
	ObjectFlagWritable
	ObjectFlagWritableOnce
	ObjectFlagFluidContainer
	ObjectFlagSplash
	ObjectFlagNotWalkable
	ObjectFlagNotMoveable
	ObjectFlagBlockProjectile
	ObjectFlagNotPathable
	ObjectFlagPickupable
	ObjectFlagHangable
	ObjectFlagHookSouth
	ObjectFlagHookEast
	ObjectFlagRotateable
	ObjectFlagLightSource
	ObjectFlagDontHide
	ObjectFlagTranslucent
	ObjectFlagLyingCorpse
	ObjectFlagAnimateAlways
	ObjectFlagFullGround
	ObjectFlagLook
	ObjectFlagCloth
	ObjectFlagMarket
)

// object-type dictionary tag bytes. The mapping from tag to ObjectFlag (and
// which tags carry trailing data) is itself version-parameterized; this
// table names the modern layout and is what FlagTagTable returns for every
// version until an older layout is needed.
const (
	tagGround byte = iota
	tagGroundBorder
	tagOnBottom
	tagOnTop
	tagContainer
	tagStackable
	tagForceUse
	tagMultiUse
	tagWritable
	tagWritableOnce
	tagFluidContainer
	tagSplash
	tagNotWalkable
	tagNotMoveable
	tagBlockProjectile
	tagNotPathable
	tagPickupable
	tagHangable
	tagHookSouth
	tagHookEast
	tagRotateable
	tagLight
	tagDontHide
	tagTranslucent
	tagDisplacement
	tagElevation
	tagLyingCorpse
	tagAnimateAlways
	tagMinimapColor
	tagLensHelp
	tagFullGround
	tagLook
	tagCloth
	tagMarket
	tagDefaultAction
	tagTerminator byte = 0xFF
)

// FlagTagTable maps a dictionary tag byte to the flag it sets, for objects
// parsed under the given protocol major/minor. Tags not present in the
// table (Light, Displacement, Elevation, MinimapColor, DefaultAction) carry
// trailing fields instead of a single flag bit and are handled directly by
// decodeItemType, which also reads the trailing fields of Writable,
// WritableOnce and Market before setting their flags from this table.
func FlagTagTable(major, minor uint16) map[byte]ObjectFlag {
	return map[byte]ObjectFlag{
		tagGround:           ObjectFlagGround,
		tagGroundBorder:     ObjectFlagGroundBorder,
		tagOnBottom:         ObjectFlagOnBottom,
		tagOnTop:            ObjectFlagOnTop,
		tagContainer:        ObjectFlagContainer,
		tagStackable:        ObjectFlagStackable,
		tagForceUse:         ObjectFlagForceUse,
		tagMultiUse:         ObjectFlagMultiUse,
		tagWritable:         ObjectFlagWritable,
		tagWritableOnce:     ObjectFlagWritableOnce,
		tagFluidContainer:   ObjectFlagFluidContainer,
		tagSplash:           ObjectFlagSplash,
		tagNotWalkable:      ObjectFlagNotWalkable,
		tagNotMoveable:      ObjectFlagNotMoveable,
		tagBlockProjectile:  ObjectFlagBlockProjectile,
		tagNotPathable:      ObjectFlagNotPathable,
		tagPickupable:       ObjectFlagPickupable,
		tagHangable:         ObjectFlagHangable,
		tagHookSouth:        ObjectFlagHookSouth,
		tagHookEast:         ObjectFlagHookEast,
		tagRotateable:       ObjectFlagRotateable,
		tagDontHide:         ObjectFlagDontHide,
		tagTranslucent:      ObjectFlagTranslucent,
		tagLyingCorpse:      ObjectFlagLyingCorpse,
		tagAnimateAlways:    ObjectFlagAnimateAlways,
		tagFullGround:       ObjectFlagFullGround,
		tagLook:             ObjectFlagLook,
		tagCloth:            ObjectFlagCloth,
		tagMarket:           ObjectFlagMarket,
	}
}

// FrameGroup describes an object type's sprite layout: its size in tiles,
// layer count, the pattern (repeat) dimensions used for e.g. fluid colors
// or wall corners, its animation phase count, and the flat list of sprite
// atlas indices that make up every (pattern, layer, phase) combination.
type FrameGroup struct {
	Width    uint8
	Height   uint8
	Layers   uint8
	PatternX uint8
	PatternY uint8
	PatternZ uint8
	Phases   uint8

	SpriteIds []uint32
}

// SpriteCount returns how many sprite indices FrameGroup expects.
func (g FrameGroup) SpriteCount() int {
	return int(g.Width) * int(g.Height) * int(g.Layers) *
		int(g.PatternX) * int(g.PatternY) * int(g.PatternZ) * int(g.Phases)
}

// ItemType is one entry of the item category of the object-type
// dictionary.
type ItemType struct {
	Id    uint16
	Flags ObjectFlag
	Frame FrameGroup

	LightIntensity uint8
	LightColor     uint8
	Elevation      uint8
	Displacement   [2]uint8
	MinimapColor   uint16
	MaxTextLength  uint16
	TradeAsId      uint16
}

func (t ItemType) has(flag ObjectFlag) bool { return t.Flags&flag != 0 }

// IsGround reports whether this type is a ground tile.
func (t ItemType) IsGround() bool { return t.has(ObjectFlagGround) || t.has(ObjectFlagFullGround) }

// IsAlwaysOnTop reports whether this type is rendered above ordinary
// items in its tile's stack.
func (t ItemType) IsAlwaysOnTop() bool { return t.has(ObjectFlagOnTop) }

// IsStackable reports whether multiple units of this type collapse into
// one stack entry with a count.
func (t ItemType) IsStackable() bool { return t.has(ObjectFlagStackable) }

// IsContainer reports whether this type can hold other objects.
func (t ItemType) IsContainer() bool { return t.has(ObjectFlagContainer) }

// IsLightSource reports whether this type emits ambient light.
func (t ItemType) IsLightSource() bool { return t.has(ObjectFlagLightSource) }

// OutfitType is one entry of the outfit category: a creature's humanoid
// appearance, with up to four palette-recolourable layers.
type OutfitType struct {
	Id    uint16
	Flags ObjectFlag
	Frame FrameGroup
}

// EffectType is one entry of the graphical-effect category.
type EffectType struct {
	Id         uint16
	Frame      FrameGroup
	DrawHeight uint8
}

// MissileType is one entry of the missile category.
type MissileType struct {
	Id    uint16
	Frame FrameGroup
}

// ObjectTypeDictionary is the parsed contents of the object-type
// dictionary: items, outfits, effects and missiles, each keyed by id. Ids
// are dense but sparse-starting (items begin at 100) and are looked up via
// intmap.Map, an open-addressed uint32-to-uint32 map, the same way
// internal/mul's Reader maps MUL entry ids to slice offsets: each category
// keeps its decoded records in a flat slice and an intmap.Map from id to
// that slice's index, avoiding the pointer-per-bucket overhead a
// map[uint16]*T would carry for a dictionary this dense.
type ObjectTypeDictionary struct {
	items    []*ItemType
	outfits  []*OutfitType
	effects  []*EffectType
	missiles []*MissileType

	itemIndex    *intmap.Map
	outfitIndex  *intmap.Map
	effectIndex  *intmap.Map
	missileIndex *intmap.Map
}

// newObjectTypeDictionary returns an empty dictionary sized for the given
// per-category counts.
func newObjectTypeDictionary(itemCount, outfitCount, effectCount, missileCount int) *ObjectTypeDictionary {
	return &ObjectTypeDictionary{
		items:        make([]*ItemType, 0, itemCount),
		outfits:      make([]*OutfitType, 0, outfitCount),
		effects:      make([]*EffectType, 0, effectCount),
		missiles:     make([]*MissileType, 0, missileCount),
		itemIndex:    intmap.New(itemCount+1, 0.95),
		outfitIndex:  intmap.New(outfitCount+1, 0.95),
		effectIndex:  intmap.New(effectCount+1, 0.95),
		missileIndex: intmap.New(missileCount+1, 0.95),
	}
}

// addItem appends t to the item slice and indexes it by id.
func (d *ObjectTypeDictionary) addItem(t *ItemType) {
	d.itemIndex.Store(uint32(t.Id), uint32(len(d.items)))
	d.items = append(d.items, t)
}

// addOutfit appends t to the outfit slice and indexes it by id.
func (d *ObjectTypeDictionary) addOutfit(t *OutfitType) {
	d.outfitIndex.Store(uint32(t.Id), uint32(len(d.outfits)))
	d.outfits = append(d.outfits, t)
}

// addEffect appends t to the effect slice and indexes it by id.
func (d *ObjectTypeDictionary) addEffect(t *EffectType) {
	d.effectIndex.Store(uint32(t.Id), uint32(len(d.effects)))
	d.effects = append(d.effects, t)
}

// addMissile appends t to the missile slice and indexes it by id.
func (d *ObjectTypeDictionary) addMissile(t *MissileType) {
	d.missileIndex.Store(uint32(t.Id), uint32(len(d.missiles)))
	d.missiles = append(d.missiles, t)
}

// Item looks up an item type by id.
func (d *ObjectTypeDictionary) Item(id uint16) (*ItemType, bool) {
	index, ok := d.itemIndex.Load(uint32(id))
	if !ok {
		return nil, false
	}
	return d.items[index], true
}

// Outfit looks up an outfit type by id.
func (d *ObjectTypeDictionary) Outfit(id uint16) (*OutfitType, bool) {
	index, ok := d.outfitIndex.Load(uint32(id))
	if !ok {
		return nil, false
	}
	return d.outfits[index], true
}

// Effect looks up a graphical effect type by id.
func (d *ObjectTypeDictionary) Effect(id uint16) (*EffectType, bool) {
	index, ok := d.effectIndex.Load(uint32(id))
	if !ok {
		return nil, false
	}
	return d.effects[index], true
}

// Missile looks up a missile type by id.
func (d *ObjectTypeDictionary) Missile(id uint16) (*MissileType, bool) {
	index, ok := d.missileIndex.Load(uint32(id))
	if !ok {
		return nil, false
	}
	return d.missiles[index], true
}

// IsGround implements StackClassifier against the item dictionary,
// treating unknown ids as non-ground.
func (d *ObjectTypeDictionary) IsGround(id uint16) bool {
	t, ok := d.Item(id)
	return ok && t.IsGround()
}

// IsAlwaysOnTop implements StackClassifier against the item dictionary.
func (d *ObjectTypeDictionary) IsAlwaysOnTop(id uint16) bool {
	t, ok := d.Item(id)
	return ok && t.IsAlwaysOnTop()
}

// decodeFrameGroup reads an object type's sprite layout and sprite index
// table, using u32 indices when wideSpriteIds is set (the feature matrix's
// WideSpriteIndices), u16 otherwise.
func decodeFrameGroup(c *reader.Cursor, wideSpriteIds bool) (FrameGroup, error) {
	var g FrameGroup
	var err error

	if g.Width, err = c.ReadU8(); err != nil {
		return g, err
	}
	if g.Height, err = c.ReadU8(); err != nil {
		return g, err
	}
	if g.Width > 1 || g.Height > 1 {
		if _, err = c.ReadU8(); err != nil { // exact-size byte, unused here
			return g, err
		}
	}
	if g.Layers, err = c.ReadU8(); err != nil {
		return g, err
	}
	if g.PatternX, err = c.ReadU8(); err != nil {
		return g, err
	}
	if g.PatternY, err = c.ReadU8(); err != nil {
		return g, err
	}
	if g.PatternZ, err = c.ReadU8(); err != nil {
		return g, err
	}
	if g.Phases, err = c.ReadU8(); err != nil {
		return g, err
	}

	count := g.SpriteCount()
	g.SpriteIds = make([]uint32, count)
	for i := 0; i < count; i++ {
		if wideSpriteIds {
			id, err := c.ReadU32()
			if err != nil {
				return g, err
			}
			g.SpriteIds[i] = id
		} else {
			id, err := c.ReadU16()
			if err != nil {
				return g, err
			}
			g.SpriteIds[i] = uint32(id)
		}
	}
	return g, nil
}

// decodeItemType reads one item's tag stream followed by its frame group.
func decodeItemType(c *reader.Cursor, id uint16, tags map[byte]ObjectFlag, wideSpriteIds bool) (*ItemType, error) {
	t := &ItemType{Id: id}

	for {
		tag, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		if tag == tagTerminator {
			break
		}

		switch tag {
		case tagLight:
			intensity, err := c.ReadU16()
			if err != nil {
				return nil, err
			}
			color, err := c.ReadU16()
			if err != nil {
				return nil, err
			}
			t.LightIntensity = uint8(intensity)
			t.LightColor = uint8(color)
			t.Flags |= ObjectFlagLightSource
		case tagDisplacement:
			x, err := c.ReadU16()
			if err != nil {
				return nil, err
			}
			y, err := c.ReadU16()
			if err != nil {
				return nil, err
			}
			t.Displacement = [2]uint8{uint8(x), uint8(y)}
		case tagElevation:
			elevation, err := c.ReadU16()
			if err != nil {
				return nil, err
			}
			t.Elevation = uint8(elevation)
		case tagMinimapColor:
			color, err := c.ReadU16()
			if err != nil {
				return nil, err
			}
			t.MinimapColor = color
		case tagWritable, tagWritableOnce:
			length, err := c.ReadU16()
			if err != nil {
				return nil, err
			}
			t.MaxTextLength = length
			if flag, ok := tags[tag]; ok {
				t.Flags |= flag
			}
		case tagMarket:
			if err := c.Skip(6); err != nil {
				return nil, err
			}
			if tradeAs, err := c.ReadU16(); err == nil {
				t.TradeAsId = tradeAs
			} else {
				return nil, err
			}
			if flag, ok := tags[tag]; ok {
				t.Flags |= flag
			}
		case tagDefaultAction:
			if err := c.Skip(2); err != nil {
				return nil, err
			}
		default:
			flag, ok := tags[tag]
			if !ok {
				return nil, fmt.Errorf("%w: unknown object flag tag 0x%02x for item %d", ErrUnsupportedVersion, tag, id)
			}
			t.Flags |= flag
		}
	}

	frame, err := decodeFrameGroup(c, wideSpriteIds)
	if err != nil {
		return nil, err
	}
	t.Frame = frame
	return t, nil
}
