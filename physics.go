package main

// Direction inputs accepted by the physics step.
const (
	DirNone  = ""
	DirLeft  = "left"
	DirRight = "right"
	DirJump  = "jump"
)

// Advance integrates one actor by one tick: gravity, directional input,
// then boundary clamping. It is a pure function of (actor, input, tuning)
// so a recorded input sequence replays to the exact same positions.
func Advance(a Actor, dir string, t Tuning) Actor {
	// Gravity accelerates the fall up to terminal velocity.
	if a.VY < t.MaxFallSpeed {
		a.VY += t.Gravity
		if a.VY > t.MaxFallSpeed {
			a.VY = t.MaxFallSpeed
		}
	}
	a.Y += a.VY

	switch dir {
	case DirLeft:
		a.X -= a.Speed
	case DirRight:
		a.X += a.Speed
	case DirJump:
		// Only a grounded actor can jump.
		if a.Grounded {
			a.VY = -t.JumpImpulse
			a.Grounded = false
		}
	}

	return clampToWorld(a, t)
}

// clampToWorld keeps the actor inside the world rectangle. Landing on the
// floor grounds the actor and kills its vertical velocity; the other three
// walls only clamp position.
func clampToWorld(a Actor, t Tuning) Actor {
	if a.X < 0 {
		a.X = 0
	} else if a.X > t.WorldWidth {
		a.X = t.WorldWidth
	}

	if a.Y < 0 {
		a.Y = 0
	} else if a.Y >= t.WorldHeight {
		a.Y = t.WorldHeight
		a.VY = 0
		a.Grounded = true
	}
	return a
}
