package main

import "math/rand"

// AIController computes pursuit or evasion moves for AI-held actors.
// It never mutates world state itself; the room applies the proposed
// position, which keeps the controller testable in isolation.
type AIController struct {
	tuning Tuning
	rng    *rand.Rand
}

// NewAIController creates a controller sharing the room's random source.
func NewAIController(t Tuning, rng *rand.Rand) *AIController {
	return &AIController{tuning: t, rng: rng}
}

// Decide proposes the AI actor's next position: the unit vector toward
// the target (chaser) or away from it (evader), scaled by the AI speed,
// with small bounded jitter on each axis. Returns ok=false when either
// participant is no longer in the room, a normal race with a concurrent
// leave, which the caller must treat as a no-op.
func (c *AIController) Decide(aiID, targetID string, actors map[string]*Actor) (x, y float64, ok bool) {
	ai, okAI := actors[aiID]
	target, okTarget := actors[targetID]
	if !okAI || !okTarget {
		return 0, 0, false
	}

	dx := target.X - ai.X
	dy := target.Y - ai.Y
	dist := Distance(ai.X, ai.Y, target.X, target.Y)
	if dist < 1 {
		dist = 1 // avoid dividing by ~zero when overlapping
	}

	step := c.tuning.AISpeed
	if ai.Role == RoleEvader {
		step = -step
	}
	x = ai.X + dx/dist*step
	y = ai.Y + dy/dist*step

	j := c.tuning.AIJitter
	x += (c.rng.Float64()*2 - 1) * j
	y += (c.rng.Float64()*2 - 1) * j

	x = Clamp(x, 0, c.tuning.WorldWidth)
	y = Clamp(y, 0, c.tuning.WorldHeight)
	return x, y, true
}
