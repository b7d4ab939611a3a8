package main

import (
	"math/rand"
	"time"
)

// PowerUpType enumerates the three temporary modifiers.
type PowerUpType string

const (
	PowerSpeed        PowerUpType = "speed"
	PowerInvisibility PowerUpType = "invisibility"
	PowerTrap         PowerUpType = "trap"
)

var powerUpTypes = []PowerUpType{PowerSpeed, PowerInvisibility, PowerTrap}

// PowerUp is a collectible item lying in the world.
type PowerUp struct {
	ID        string
	Type      PowerUpType
	X, Y      float64
	Duration  time.Duration
	SpawnedAt time.Time
	Active    bool
}

// Expired reports whether the item has outlived its duration uncollected.
func (p *PowerUp) Expired(now time.Time) bool {
	return now.Sub(p.SpawnedAt) > p.Duration
}

// Effect is the per-actor record created by a pickup. An actor holds at
// most one: a new pickup overwrites the previous effect, no stacking.
type Effect struct {
	Type      PowerUpType
	ExpiresAt time.Time
}

// PowerUpManager owns the active item set and per-actor effects for one
// room. It has no timers of its own; all expiry is swept lazily from the
// room's tick, so everything here runs under the room's lock.
type PowerUpManager struct {
	tuning  Tuning
	rng     *rand.Rand
	items   []*PowerUp // kept in spawn order
	effects map[string]Effect
}

// NewPowerUpManager creates a manager using the given random source so
// simulation runs are reproducible under a fixed seed.
func NewPowerUpManager(t Tuning, rng *rand.Rand) *PowerUpManager {
	return &PowerUpManager{
		tuning:  t,
		rng:     rng,
		effects: make(map[string]Effect),
	}
}

// MaybeSpawn rolls the per-tick spawn chance and returns the new item,
// or nil when the roll misses.
func (m *PowerUpManager) MaybeSpawn(now time.Time) *PowerUp {
	if m.rng.Float64() >= m.tuning.SpawnChance {
		return nil
	}
	return m.Spawn(now)
}

// Spawn creates an item of a uniformly chosen type at a random in-bounds
// position and appends it to the active set.
func (m *PowerUpManager) Spawn(now time.Time) *PowerUp {
	p := &PowerUp{
		ID:        GenerateID(4),
		Type:      powerUpTypes[m.rng.Intn(len(powerUpTypes))],
		X:         m.rng.Float64() * m.tuning.WorldWidth,
		Y:         m.rng.Float64() * m.tuning.WorldHeight,
		Duration:  time.Duration(m.tuning.EffectSecs * float64(time.Second)),
		SpawnedAt: now,
		Active:    true,
	}
	m.items = append(m.items, p)
	return p
}

// Collect consumes an item for an actor, replacing any effect the actor
// already holds. Returns false when the item is gone already, which is a
// normal race with expiry and must be a no-op for the caller.
func (m *PowerUpManager) Collect(actorID, itemID string, now time.Time) (Effect, bool) {
	for _, item := range m.items {
		if item.ID != itemID || !item.Active {
			continue
		}
		item.Active = false
		eff := Effect{Type: item.Type, ExpiresAt: now.Add(item.Duration)}
		m.effects[actorID] = eff
		m.compact()
		return eff, true
	}
	return Effect{}, false
}

// Tick sweeps expired items and effects once, returning what went away so
// the room can emit expiry events.
func (m *PowerUpManager) Tick(now time.Time) (expiredItems []string, expiredEffects []string) {
	kept := m.items[:0]
	for _, item := range m.items {
		if item.Active && item.Expired(now) {
			expiredItems = append(expiredItems, item.ID)
			continue
		}
		if item.Active {
			kept = append(kept, item)
		}
	}
	m.items = kept

	for actorID, eff := range m.effects {
		if !now.Before(eff.ExpiresAt) {
			delete(m.effects, actorID)
			expiredEffects = append(expiredEffects, actorID)
		}
	}
	return expiredItems, expiredEffects
}

// Apply overlays the actor's current effect onto its mutable stats. With
// no live effect the stats reset to baseline; exactly one of the three
// modifiers is in force otherwise. Trap enforcement (ignoring movement
// input) is the room's job, this only raises the flag.
func (m *PowerUpManager) Apply(a *Actor, now time.Time) {
	a.Speed = m.tuning.MoveSpeed
	a.Visible = true
	a.Trapped = false

	eff, ok := m.effects[a.ID]
	if !ok || !now.Before(eff.ExpiresAt) {
		return
	}
	switch eff.Type {
	case PowerSpeed:
		a.Speed = m.tuning.MoveSpeed * m.tuning.SpeedBoost
	case PowerInvisibility:
		a.Visible = false
	case PowerTrap:
		a.Trapped = true
	}
}

// EffectFor returns the actor's live effect, if any.
func (m *PowerUpManager) EffectFor(actorID string, now time.Time) (Effect, bool) {
	eff, ok := m.effects[actorID]
	if !ok || !now.Before(eff.ExpiresAt) {
		return Effect{}, false
	}
	return eff, true
}

// ActiveItems returns the live items in spawn order.
func (m *PowerUpManager) ActiveItems() []*PowerUp {
	return m.items
}

// RemoveActor drops the effect record of an actor leaving the room.
func (m *PowerUpManager) RemoveActor(actorID string) {
	delete(m.effects, actorID)
}

// compact drops inactive items while preserving spawn order.
func (m *PowerUpManager) compact() {
	kept := m.items[:0]
	for _, item := range m.items {
		if item.Active {
			kept = append(kept, item)
		}
	}
	m.items = kept
}
