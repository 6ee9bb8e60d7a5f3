// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package tibiarc

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/tibiacast/tibiarc-sub002/internal/canvas"
	"github.com/tibiacast/tibiarc-sub002/internal/reader"
)

// Errors raised while building a Version catalogue from its three asset
// buffers.
var (
	ErrMalformedAsset        = errors.New("tibiarc: malformed asset file")
	ErrSpriteIndexOutOfRange = errors.New("tibiarc: sprite index out of range")
	ErrUnsupportedVersion    = errors.New("tibiarc: unsupported protocol version")
)

const spriteAtlasMagic uint32 = 0x000A1B2C

// FeatureMatrix is the set of version-derived decisions every other
// component reads instead of branching on the raw version triple
// directly: whether sprite ids are 16- or 32-bit, whether
// floating combat text is numerical or textual, and whether the protocol
// carries certain optional fields at all.
type FeatureMatrix struct {
	WideSpriteIndices        bool
	NumericalEffects         bool
	MessagesCarryCoordinates bool
	IconBarShown             bool
	HasStaminaField          bool
}

// DeriveFeatureMatrix computes the feature matrix for a protocol version.
// Every threshold here is a version-catalogue decision, grounded on the
// sequence in which the real protocol introduced these fields; callers
// must go through this matrix rather than comparing major/minor directly.
func DeriveFeatureMatrix(major, minor, preview uint16) FeatureMatrix {
	return FeatureMatrix{
		WideSpriteIndices:        major >= 9,
		NumericalEffects:         major >= 8 || (major == 7 && minor >= 8),
		MessagesCarryCoordinates: major >= 7,
		IconBarShown:             major >= 7,
		HasStaminaField:          major >= 8,
	}
}

// spriteAtlas is the decoded .spr catalogue: a table of byte offsets into
// the raw asset buffer, with sprites decoded lazily and cached once
// touched (mirroring the cache-on-first-access pattern the asset loader
// uses for every other asset category).
type spriteAtlas struct {
	data    []byte
	offsets []uint32
	cache   sync.Map
}

func decodeSpriteAtlas(data []byte, wideIndices bool) (*spriteAtlas, error) {
	c := reader.New(data)

	magic, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
	}
	if magic != spriteAtlasMagic {
		return nil, fmt.Errorf("%w: bad sprite atlas signature", ErrMalformedAsset)
	}

	var count uint32
	if wideIndices {
		count, err = c.ReadU32()
	} else {
		var count16 uint16
		count16, err = c.ReadU16()
		count = uint32(count16)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
	}

	offsets := make([]uint32, count+1)
	for i := range offsets {
		if offsets[i], err = c.ReadU32(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
		}
	}

	return &spriteAtlas{data: data, offsets: offsets}, nil
}

// Sprite decodes (or returns the cached decode of) the 32x32 sprite at
// index. Index 0 and out-of-range indices are rejected; an offset of 0
// denotes a wholly transparent sprite.
func (a *spriteAtlas) Sprite(index uint32) (*canvas.Bitmap, error) {
	if index == 0 || int(index) >= len(a.offsets) {
		return nil, ErrSpriteIndexOutOfRange
	}
	if cached, ok := a.cache.Load(index); ok {
		return cached.(*canvas.Bitmap), nil
	}

	offset := a.offsets[index]
	if offset == 0 || int(offset) >= len(a.data) {
		return canvas.NewBitmap(image.Rect(0, 0, 32, 32)), nil
	}

	c := reader.New(a.data[offset:])
	if err := c.Skip(3); err != nil { // transparent colour key, unused by the RLE decoder
		return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
	}
	size, err := c.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
	}
	raw, err := c.ReadBytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
	}

	bmp, err := canvas.DecodeSprite(32, 32, raw)
	if err != nil {
		return nil, err
	}
	a.cache.Store(index, bmp)
	return bmp, nil
}

// Version is the frozen, read-only catalogue produced once at session
// start from the sprite atlas, the object-type dictionary and the picture
// bank, parameterized by the protocol version triple. Every
// version-dependent decision elsewhere in the package is made by
// consulting Features or Objects, never the triple directly.
type Version struct {
	Major, Minor, Preview uint16

	Features FeatureMatrix
	Objects  *ObjectTypeDictionary

	sprites *spriteAtlas
	fonts   []*Font
}

// NewVersion parses the three asset buffers into a Version catalogue.
func NewVersion(spriteData, objectData, pictureData []byte, major, minor, preview uint16) (*Version, error) {
	features := DeriveFeatureMatrix(major, minor, preview)

	sprites, err := decodeSpriteAtlas(spriteData, features.WideSpriteIndices)
	if err != nil {
		return nil, err
	}

	objects, err := decodeObjectTypeDictionary(objectData, major, minor, features.WideSpriteIndices)
	if err != nil {
		return nil, err
	}

	fonts, err := decodeFonts(pictureData)
	if err != nil {
		return nil, err
	}

	return &Version{
		Major:    major,
		Minor:    minor,
		Preview:  preview,
		Features: features,
		Objects:  objects,
		sprites:  sprites,
		fonts:    fonts,
	}, nil
}

// Sprite returns the decoded bitmap for a sprite atlas index.
func (v *Version) Sprite(index uint32) (*canvas.Bitmap, error) {
	return v.sprites.Sprite(index)
}

// Font returns the nth font extracted from the picture bank.
func (v *Version) Font(index int) (*Font, bool) {
	if index < 0 || index >= len(v.fonts) {
		return nil, false
	}
	return v.fonts[index], true
}

func decodeObjectTypeDictionary(data []byte, major, minor uint16, wideSpriteIds bool) (*ObjectTypeDictionary, error) {
	c := reader.New(data)
	tags := FlagTagTable(major, minor)

	if err := c.Skip(4); err != nil { // signature, validated only for length here
		return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
	}

	itemCount, err := c.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
	}
	outfitCount, err := c.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
	}
	effectCount, err := c.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
	}
	missileCount, err := c.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAsset, err)
	}

	dict := newObjectTypeDictionary(int(itemCount), int(outfitCount), int(effectCount), int(missileCount))

	// Item ids conventionally start at 100; ids below that are reserved.
	const firstItemId = 100
	for id := uint16(firstItemId); id < firstItemId+itemCount; id++ {
		item, err := decodeItemType(c, id, tags, wideSpriteIds)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", id, err)
		}
		dict.addItem(item)
	}

	for id := uint16(1); id <= outfitCount; id++ {
		generic, err := decodeItemType(c, id, tags, wideSpriteIds)
		if err != nil {
			return nil, fmt.Errorf("outfit %d: %w", id, err)
		}
		dict.addOutfit(&OutfitType{Id: id, Flags: generic.Flags, Frame: generic.Frame})
	}

	for id := uint16(1); id <= effectCount; id++ {
		generic, err := decodeItemType(c, id, tags, wideSpriteIds)
		if err != nil {
			return nil, fmt.Errorf("effect %d: %w", id, err)
		}
		dict.addEffect(&EffectType{Id: id, Frame: generic.Frame, DrawHeight: generic.Elevation})
	}

	for id := uint16(1); id <= missileCount; id++ {
		generic, err := decodeItemType(c, id, tags, wideSpriteIds)
		if err != nil {
			return nil, fmt.Errorf("missile %d: %w", id, err)
		}
		dict.addMissile(&MissileType{Id: id, Frame: generic.Frame})
	}

	return dict, nil
}
