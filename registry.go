package main

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Registry is the single point of truth for which rooms exist and the
// sole owner of room lifetime: it creates rooms, hands out lookups, and
// reclaims rooms that emptied out or finished long enough ago. No other
// component may destroy a Room.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	tuning Tuning
	seed   func() int64

	// OnResult forwards finished-room results, typically to persistence.
	OnResult func(Result)
}

// NewRegistry creates an empty registry. seed supplies per-room random
// seeds; pass nil for time-based seeding.
func NewRegistry(t Tuning, seed func() int64) *Registry {
	if seed == nil {
		seed = func() int64 { return time.Now().UnixNano() }
	}
	return &Registry{
		rooms:  make(map[string]*Room),
		tuning: t,
		seed:   seed,
	}
}

// Create makes a new room and starts its simulation loop. Returns nil
// when the room limit is reached. Capacity 0 means the default.
func (reg *Registry) Create(name string, capacity int, vsAI bool) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if len(reg.rooms) >= reg.tuning.MaxRooms {
		return nil
	}
	if capacity <= 0 {
		capacity = reg.tuning.RoomCapacity
	}
	if name == "" {
		name = fmt.Sprintf("Room-%d", len(reg.rooms)+1)
	}

	room := NewRoom(GenerateID(8), name, capacity, vsAI, reg.tuning, reg.seed())
	room.OnFinished = func(res Result) {
		if reg.OnResult != nil {
			reg.OnResult(res)
		}
	}
	reg.rooms[room.ID] = room
	go room.Run()
	return room
}

// Get returns a room by ID, nil if it does not exist.
func (reg *Registry) Get(id string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.rooms[id]
}

// Join adds an actor to a room, returning the room on success and nil
// when the room is missing, full, or finished.
func (reg *Registry) Join(roomID, actorID, nickname string, authID int64) *Room {
	room := reg.Get(roomID)
	if room == nil {
		return nil
	}
	if _, ok := room.AddActor(actorID, nickname, authID); !ok {
		return nil
	}
	return room
}

// Leave removes an actor from a room. An emptied room is reclaimed on
// the spot rather than waiting for the janitor.
func (reg *Registry) Leave(roomID, actorID string) bool {
	room := reg.Get(roomID)
	if room == nil {
		return false
	}
	removed := room.RemoveActor(actorID)
	if removed && room.HumanCount() == 0 {
		reg.remove(roomID)
	}
	return removed
}

// Sweep reclaims rooms that are finished and older than the retention
// window, rooms with no human members left, and rooms nobody ever
// joined once they outlive the retention window. Lobby and active
// rooms with members are untouched regardless of age.
func (reg *Registry) Sweep(now time.Time) int {
	reg.mu.Lock()
	var victims []*Room
	for _, room := range reg.rooms {
		finished := room.Status() == StatusFinished
		stale := now.Sub(room.CreatedAt) > reg.tuning.Retention()
		deserted := room.EverJoined() && room.HumanCount() == 0
		unused := !room.EverJoined() && stale
		if (finished && stale) || deserted || unused {
			victims = append(victims, room)
			delete(reg.rooms, room.ID)
		}
	}
	reg.mu.Unlock()

	for _, room := range victims {
		room.StopLoop()
	}
	if len(victims) > 0 {
		log.Printf("registry: swept %d room(s)", len(victims))
	}
	return len(victims)
}

// List returns summary info for all rooms.
func (reg *Registry) List() []RoomInfo {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.mu.RUnlock()

	infos := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, room.Info())
	}
	return infos
}

// Count returns how many rooms exist.
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// RunJanitor periodically sweeps until stop closes.
func (reg *Registry) RunJanitor(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			reg.Sweep(now)
		case <-stop:
			return
		}
	}
}

func (reg *Registry) remove(id string) {
	reg.mu.Lock()
	room, ok := reg.rooms[id]
	if ok {
		delete(reg.rooms, id)
	}
	reg.mu.Unlock()
	if ok {
		room.StopLoop()
	}
}
