package main

import "sort"

// CheckCollision reports whether two points are within the given radius
// of each other. Symmetric in its two points by construction.
func CheckCollision(x1, y1, x2, y2, radius float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	return dx*dx+dy*dy < radius*radius
}

// CaughtEvent is the terminal event: a chaser reached an evader.
type CaughtEvent struct {
	ChaserID string
	EvaderID string
}

// CollectedEvent records an actor picking up an item.
type CollectedEvent struct {
	ActorID string
	ItemID  string
	Type    PowerUpType
}

// CollisionEvents is everything one resolver pass produced.
type CollisionEvents struct {
	Caught    *CaughtEvent
	Collected []CollectedEvent
}

// ResolveCollisions runs the actor-actor and actor-item detectors over a
// room's world state and returns the resulting events without mutating it.
// The resolver does not decide who plays which role; it only reacts to the
// roles the room assigned at join time. Boundary collisions are not a
// detector pass here: they are the clamp post-condition of every physics
// step.
//
// A caught event is terminal: when one is found the item pass is skipped
// entirely, so no pickup lands in the tick the match ends. Item overlaps
// are processed in ascending spawn order and each item is awarded to at
// most one actor, lowest actor ID first, keeping pickup resolution
// reproducible.
func ResolveCollisions(actors map[string]*Actor, items []*PowerUp, t Tuning) CollisionEvents {
	var ev CollisionEvents

	ids := make([]string, 0, len(actors))
	for id := range actors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, cid := range ids {
		chaser := actors[cid]
		if chaser.Role != RoleChaser {
			continue
		}
		for _, eid := range ids {
			evader := actors[eid]
			if evader.Role != RoleEvader {
				continue
			}
			if CheckCollision(chaser.X, chaser.Y, evader.X, evader.Y, t.ActorRadius) {
				ev.Caught = &CaughtEvent{ChaserID: cid, EvaderID: eid}
				return ev
			}
		}
	}

	for _, item := range items {
		if !item.Active {
			continue
		}
		for _, id := range ids {
			a := actors[id]
			if CheckCollision(a.X, a.Y, item.X, item.Y, t.ItemRadius) {
				ev.Collected = append(ev.Collected, CollectedEvent{
					ActorID: id,
					ItemID:  item.ID,
					Type:    item.Type,
				})
				break
			}
		}
	}
	return ev
}

// CheckItemCollision returns the ID of the first active item the actor
// overlaps, in spawn order, or "" if none.
func CheckItemCollision(a *Actor, items []*PowerUp, radius float64) string {
	for _, item := range items {
		if !item.Active {
			continue
		}
		if CheckCollision(a.X, a.Y, item.X, item.Y, radius) {
			return item.ID
		}
	}
	return ""
}
