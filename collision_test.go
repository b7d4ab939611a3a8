package main

import (
	"testing"
	"time"
)

func TestCheckCollision(t *testing.T) {
	if !CheckCollision(0, 0, 10, 0, 25) {
		t.Error("points 10 apart should collide at radius 25")
	}
	if CheckCollision(0, 0, 25, 0, 25) {
		t.Error("points exactly radius apart should not collide")
	}
	if CheckCollision(0, 0, 100, 100, 25) {
		t.Error("distant points should not collide")
	}
	if !CheckCollision(5, 5, 5, 5, 1) {
		t.Error("same position should collide")
	}
}

func TestCheckCollisionSymmetry(t *testing.T) {
	pairs := [][4]float64{
		{0, 0, 10, 0},
		{100, 100, 105, 102},
		{50, 50, 60, 50},
		{3.7, -2.1, 8.9, 4.4},
	}
	for _, p := range pairs {
		ab := CheckCollision(p[0], p[1], p[2], p[3], 25)
		ba := CheckCollision(p[2], p[3], p[0], p[1], 25)
		if ab != ba {
			t.Errorf("collide(%v) not symmetric", p)
		}
	}
}

func TestCheckItemCollision(t *testing.T) {
	tn := Defaults()
	now := time.Now()
	items := []*PowerUp{
		{ID: "near", Type: PowerSpeed, X: 105, Y: 102, SpawnedAt: now, Active: true},
		{ID: "far", Type: PowerTrap, X: 500, Y: 500, SpawnedAt: now, Active: true},
	}

	a := &Actor{ID: "a", X: 100, Y: 100}
	if got := CheckItemCollision(a, items, tn.ItemRadius); got != "near" {
		t.Errorf("expected item 'near', got %q", got)
	}

	b := &Actor{ID: "b", X: 300, Y: 300}
	if got := CheckItemCollision(b, items, tn.ItemRadius); got != "" {
		t.Errorf("expected no item, got %q", got)
	}
}

func TestResolveCollisionsCaught(t *testing.T) {
	tn := Defaults()
	actors := map[string]*Actor{
		"c": {ID: "c", Role: RoleChaser, X: 50, Y: 50},
		"e": {ID: "e", Role: RoleEvader, X: 60, Y: 50},
	}

	ev := ResolveCollisions(actors, nil, tn)
	if ev.Caught == nil {
		t.Fatal("chaser 10 units from evader should catch")
	}
	if ev.Caught.ChaserID != "c" || ev.Caught.EvaderID != "e" {
		t.Errorf("wrong caught pair: %+v", ev.Caught)
	}
}

func TestResolveCollisionsNoCatchAtDistance(t *testing.T) {
	tn := Defaults()
	actors := map[string]*Actor{
		"c": {ID: "c", Role: RoleChaser, X: 50, Y: 50},
		"e": {ID: "e", Role: RoleEvader, X: 200, Y: 50},
	}
	if ev := ResolveCollisions(actors, nil, tn); ev.Caught != nil {
		t.Error("actors 150 apart should not catch")
	}
}

func TestResolveCollisionsCollectsInSpawnOrder(t *testing.T) {
	tn := Defaults()
	now := time.Now()
	actors := map[string]*Actor{
		"a": {ID: "a", Role: RoleChaser, X: 100, Y: 100},
	}
	items := []*PowerUp{
		{ID: "first", Type: PowerSpeed, X: 101, Y: 100, SpawnedAt: now, Active: true},
		{ID: "second", Type: PowerTrap, X: 99, Y: 100, SpawnedAt: now.Add(time.Millisecond), Active: true},
	}

	ev := ResolveCollisions(actors, items, tn)
	if len(ev.Collected) != 2 {
		t.Fatalf("expected 2 pickups, got %d", len(ev.Collected))
	}
	if ev.Collected[0].ItemID != "first" || ev.Collected[1].ItemID != "second" {
		t.Errorf("pickups out of spawn order: %+v", ev.Collected)
	}
}

func TestResolveCollisionsCaughtSuppressesPickups(t *testing.T) {
	tn := Defaults()
	now := time.Now()
	actors := map[string]*Actor{
		"c": {ID: "c", Role: RoleChaser, X: 50, Y: 50},
		"e": {ID: "e", Role: RoleEvader, X: 55, Y: 50},
	}
	items := []*PowerUp{
		{ID: "i", Type: PowerSpeed, X: 51, Y: 50, SpawnedAt: now, Active: true},
	}

	ev := ResolveCollisions(actors, items, tn)
	if ev.Caught == nil {
		t.Fatal("expected a caught event")
	}
	if len(ev.Collected) != 0 {
		t.Error("no pickup may land in the tick the match ends")
	}
}
