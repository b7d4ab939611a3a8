package main

import (
	"math/rand"
	"testing"
)

func testActor(x, y float64, grounded bool) Actor {
	return Actor{
		ID:       "test",
		X:        x,
		Y:        y,
		Speed:    Defaults().MoveSpeed,
		Grounded: grounded,
		Visible:  true,
	}
}

func TestAdvanceGravity(t *testing.T) {
	tn := Defaults()
	a := testActor(100, 100, false)

	a = Advance(a, DirNone, tn)
	if a.VY != tn.Gravity {
		t.Errorf("expected VY %g after one tick, got %g", tn.Gravity, a.VY)
	}
	if a.Y != 100+tn.Gravity {
		t.Errorf("expected Y %g, got %g", 100+tn.Gravity, a.Y)
	}
}

func TestAdvanceTerminalVelocity(t *testing.T) {
	tn := Defaults()
	a := testActor(100, 0, false)

	for i := 0; i < 200; i++ {
		a = Advance(a, DirNone, tn)
	}
	if a.VY > tn.MaxFallSpeed {
		t.Errorf("fall speed %g exceeds max %g", a.VY, tn.MaxFallSpeed)
	}
}

func TestAdvanceHorizontal(t *testing.T) {
	tn := Defaults()
	a := testActor(100, tn.WorldHeight, true)

	a = Advance(a, DirRight, tn)
	if a.X != 100+tn.MoveSpeed {
		t.Errorf("expected X %g, got %g", 100+tn.MoveSpeed, a.X)
	}
	a = Advance(a, DirLeft, tn)
	if a.X != 100 {
		t.Errorf("expected X 100 after left, got %g", a.X)
	}
}

func TestAdvanceSpeedScaling(t *testing.T) {
	tn := Defaults()
	a := testActor(100, tn.WorldHeight, true)
	a.Speed = tn.MoveSpeed * tn.SpeedBoost

	a = Advance(a, DirRight, tn)
	if a.X != 100+tn.MoveSpeed*tn.SpeedBoost {
		t.Errorf("boosted actor should move %g, moved %g", tn.MoveSpeed*tn.SpeedBoost, a.X-100)
	}
}

func TestAdvanceJumpOnlyWhenGrounded(t *testing.T) {
	tn := Defaults()

	a := testActor(100, tn.WorldHeight, true)
	a = Advance(a, DirJump, tn)
	if a.Grounded {
		t.Error("jumping actor should leave the ground")
	}
	if a.VY >= 0 {
		t.Errorf("jump should set upward velocity, got %g", a.VY)
	}

	vyBefore := a.VY
	a = Advance(a, DirJump, tn)
	if a.VY < vyBefore {
		t.Error("airborne jump must not add another impulse")
	}
}

func TestAdvanceFloorGrounds(t *testing.T) {
	tn := Defaults()
	a := testActor(100, tn.WorldHeight-1, false)
	a.VY = tn.MaxFallSpeed

	a = Advance(a, DirNone, tn)
	if !a.Grounded {
		t.Error("actor hitting the floor should be grounded")
	}
	if a.VY != 0 {
		t.Errorf("floor hit should zero VY, got %g", a.VY)
	}
	if a.Y != tn.WorldHeight {
		t.Errorf("expected Y clamped to %g, got %g", tn.WorldHeight, a.Y)
	}
}

// For any sequence of moves the final position stays inside the world.
func TestAdvanceBoundsInvariant(t *testing.T) {
	tn := Defaults()
	rng := rand.New(rand.NewSource(42))
	dirs := []string{DirNone, DirLeft, DirRight, DirJump}

	a := testActor(tn.WorldWidth/2, tn.WorldHeight/2, false)
	for i := 0; i < 5000; i++ {
		a = Advance(a, dirs[rng.Intn(len(dirs))], tn)
		if a.X < 0 || a.X > tn.WorldWidth || a.Y < 0 || a.Y > tn.WorldHeight {
			t.Fatalf("tick %d: position (%g,%g) escaped bounds", i, a.X, a.Y)
		}
	}
}

// Same inputs, same constants, same trajectory.
func TestAdvanceDeterministic(t *testing.T) {
	tn := Defaults()
	dirs := []string{DirRight, DirJump, DirNone, DirLeft, DirNone, DirRight}

	a := testActor(200, tn.WorldHeight, true)
	b := testActor(200, tn.WorldHeight, true)
	for _, d := range dirs {
		a = Advance(a, d, tn)
		b = Advance(b, d, tn)
	}
	if a != b {
		t.Errorf("identical runs diverged: %+v vs %+v", a, b)
	}
}
