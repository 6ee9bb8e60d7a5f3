// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package tibiarc

// MaxMissiles bounds the ring buffer of in-flight projectiles kept per
// world state.
const MaxMissiles = 64

// Missile is a projectile animation travelling from Origin to Target.
type Missile struct {
	Id        uint8
	StartTick uint32
	Origin    Position
	Target    Position
}

// MissileRing is a fixed-size ring buffer of the most recent missiles;
// once full, each new insert overwrites the oldest entry.
type MissileRing struct {
	Missiles [MaxMissiles]Missile
	Index    int
	Count    int
}

// Add records a new missile, overwriting the oldest entry once the ring is
// full.
func (r *MissileRing) Add(id uint8, startTick uint32, origin, target Position) {
	r.Missiles[r.Index] = Missile{Id: id, StartTick: startTick, Origin: origin, Target: target}
	r.Index = (r.Index + 1) % MaxMissiles
	if r.Count < MaxMissiles {
		r.Count++
	}
}

// Reset empties the ring buffer.
func (r *MissileRing) Reset() {
	*r = MissileRing{}
}
