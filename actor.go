package main

import "time"

// Role determines which side of the pursuit an actor plays.
type Role int

const (
	RoleChaser Role = 0
	RoleEvader Role = 1
)

func (r Role) String() string {
	if r == RoleChaser {
		return "chaser"
	}
	return "evader"
}

// Actor is one controllable entity inside a room, human or AI.
// It is owned exclusively by its Room and must only be touched
// while holding the room's lock.
type Actor struct {
	ID       string
	Nickname string
	Role     Role

	X, Y     float64
	VY       float64 // vertical velocity, positive is downward
	Grounded bool

	Speed   float64 // horizontal units per tick, power-ups scale it
	Visible bool
	Trapped bool

	Score    int
	Ready    bool
	AIHeld   bool
	JoinedAt time.Time
}

// NewActor creates an actor at the given spawn position with defaults:
// not ready, visible, untrapped, grounded on the floor.
func NewActor(id, nickname string, role Role, x, y, speed float64) *Actor {
	return &Actor{
		ID:       id,
		Nickname: nickname,
		Role:     role,
		X:        x,
		Y:        y,
		Speed:    speed,
		Visible:  true,
		Grounded: true,
		JoinedAt: time.Now(),
	}
}

// ToState converts to the protocol representation.
func (a *Actor) ToState() ActorState {
	return ActorState{
		ID:       a.ID,
		Nickname: a.Nickname,
		Role:     int(a.Role),
		X:        a.X,
		Y:        a.Y,
		VY:       a.VY,
		Grounded: a.Grounded,
		Visible:  a.Visible,
		Trapped:  a.Trapped,
		Score:    a.Score,
		Ready:    a.Ready,
		AI:       a.AIHeld,
	}
}
