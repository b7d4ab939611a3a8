package main

import (
	"testing"
	"time"
)

func newTestRegistry(t *testing.T, tn Tuning) *Registry {
	reg := NewRegistry(tn, func() int64 { return 1 })
	t.Cleanup(func() {
		for _, info := range reg.List() {
			if room := reg.Get(info.ID); room != nil {
				room.StopLoop()
			}
		}
	})
	return reg
}

func TestRegistryCreateAndGet(t *testing.T) {
	reg := newTestRegistry(t, Defaults())

	room := reg.Create("Arena", 0, false)
	if room == nil {
		t.Fatal("create failed")
	}
	if room.Name != "Arena" {
		t.Errorf("unexpected name %q", room.Name)
	}
	if got := reg.Get(room.ID); got != room {
		t.Error("Get should return the created room")
	}
	if reg.Get("nope") != nil {
		t.Error("Get for an unknown id should return nil")
	}
	if reg.Count() != 1 {
		t.Errorf("expected 1 room, got %d", reg.Count())
	}
}

func TestRegistryDefaultNameAndCapacity(t *testing.T) {
	reg := newTestRegistry(t, Defaults())

	room := reg.Create("", 0, false)
	if room.Name != "Room-1" {
		t.Errorf("expected generated name, got %q", room.Name)
	}
	room.AddActor("a", "A", 0)
	room.AddActor("b", "B", 0)
	if _, ok := room.AddActor("c", "C", 0); ok {
		t.Error("default capacity should be 2")
	}
}

func TestRegistryMaxRooms(t *testing.T) {
	tn := Defaults()
	tn.MaxRooms = 2
	reg := newTestRegistry(t, tn)

	if reg.Create("", 0, false) == nil || reg.Create("", 0, false) == nil {
		t.Fatal("creates under the limit should succeed")
	}
	if reg.Create("", 0, false) != nil {
		t.Error("create past the room limit should fail")
	}
	if reg.Count() != 2 {
		t.Errorf("expected 2 rooms, got %d", reg.Count())
	}
}

func TestRegistryJoinAndLeave(t *testing.T) {
	reg := newTestRegistry(t, Defaults())
	room := reg.Create("Arena", 0, false)

	if reg.Join(room.ID, "a", "A", 0) == nil {
		t.Fatal("join failed")
	}
	if reg.Join("missing", "b", "B", 0) != nil {
		t.Error("join into a missing room should fail")
	}

	// The last human leaving reclaims the room immediately.
	if !reg.Leave(room.ID, "a") {
		t.Fatal("leave failed")
	}
	if reg.Get(room.ID) != nil {
		t.Error("emptied room should be reclaimed on leave")
	}
}

func TestRegistryJoinFullRoom(t *testing.T) {
	reg := newTestRegistry(t, Defaults())
	room := reg.Create("Arena", 2, false)

	reg.Join(room.ID, "a", "A", 0)
	reg.Join(room.ID, "b", "B", 0)
	if reg.Join(room.ID, "c", "C", 0) != nil {
		t.Error("join into a full room should fail")
	}
}

func TestRegistrySweep(t *testing.T) {
	reg := newTestRegistry(t, Defaults())

	fresh := reg.Create("fresh", 0, false)
	busy := reg.Create("busy", 0, false)
	stale := reg.Create("stale", 0, false)

	reg.Join(busy.ID, "a", "A", 0)

	stale.mu.Lock()
	stale.finishLocked("", ReasonTimeout, time.Now())
	stale.mu.Unlock()
	stale.CreatedAt = time.Now().Add(-Defaults().Retention() - time.Minute)

	swept := reg.Sweep(time.Now())
	if swept != 1 {
		t.Fatalf("expected 1 room swept, got %d", swept)
	}
	if reg.Get(stale.ID) != nil {
		t.Error("stale finished room should be gone")
	}
	if reg.Get(fresh.ID) == nil {
		t.Error("never-joined room should survive the sweep")
	}
	if reg.Get(busy.ID) == nil {
		t.Error("occupied room should survive the sweep")
	}
}

func TestRegistrySweepReapsNeverJoined(t *testing.T) {
	reg := newTestRegistry(t, Defaults())

	abandoned := reg.Create("abandoned", 0, false)
	abandoned.CreatedAt = time.Now().Add(-Defaults().Retention() - time.Minute)
	fresh := reg.Create("fresh", 0, false)

	if swept := reg.Sweep(time.Now()); swept != 1 {
		t.Fatalf("expected 1 room swept, got %d", swept)
	}
	if reg.Get(abandoned.ID) != nil {
		t.Error("a room nobody ever joined should be reclaimed after retention")
	}
	if reg.Get(fresh.ID) == nil {
		t.Error("a recent never-joined room should survive")
	}
}

func TestRegistrySweepKeepsRecentFinished(t *testing.T) {
	reg := newTestRegistry(t, Defaults())
	room := reg.Create("done", 0, false)
	reg.Join(room.ID, "a", "A", 0)

	room.mu.Lock()
	room.finishLocked("a", ReasonCaught, time.Now())
	room.mu.Unlock()

	if reg.Sweep(time.Now()) != 0 {
		t.Error("a freshly finished room with members must survive until retention lapses")
	}
}

func TestRegistryForwardsResults(t *testing.T) {
	reg := newTestRegistry(t, Defaults())
	got := make(chan Result, 1)
	reg.OnResult = func(res Result) { got <- res }

	room := reg.Create("Arena", 0, false)
	reg.Join(room.ID, "a", "A", 0)
	room.mu.Lock()
	room.finishLocked("a", ReasonCaught, time.Now())
	room.mu.Unlock()

	select {
	case res := <-got:
		if res.RoomID != room.ID || res.Winner != "A" {
			t.Errorf("unexpected result %+v", res)
		}
	case <-time.After(time.Second):
		t.Fatal("result was never forwarded")
	}
}
