// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package tibiarc

// CreatureMarker is the sentinel object Id meaning "this cell holds a
// creature"; the object's CreatureId field identifies which one.
const CreatureMarker uint16 = 0x63

// Object is a single entry in a tile's stack, or an inventory slot. When Id
// equals CreatureMarker, CreatureId names the occupying creature; otherwise
// ExtraByte/Animation/Mark carry type-dependent item data (stackable count,
// fluid subtype, rune charges, and so on, depending on the object type's
// flags in the version catalogue).
type Object struct {
	Id         uint16
	PhaseTick  uint32
	CreatureId uint32
	ExtraByte  uint8
	Animation  uint8
	Mark       uint8
}

// NewObject returns an Object with the given type id and zeroed variant
// fields, mirroring the original's single-argument constructor.
func NewObject(id uint16) Object {
	return Object{Id: id}
}

// IsCreature reports whether this object occupies its stack slot as a
// creature reference rather than an item.
func (o Object) IsCreature() bool {
	return o.Id == CreatureMarker
}
