package main

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// RoomStatus is the lifecycle of a room. Transitions are monotonic:
// lobby -> active -> finished, never backward.
type RoomStatus int

const (
	StatusLobby    RoomStatus = 0
	StatusActive   RoomStatus = 1
	StatusFinished RoomStatus = 2
)

func (s RoomStatus) String() string {
	switch s {
	case StatusLobby:
		return "lobby"
	case StatusActive:
		return "active"
	default:
		return "finished"
	}
}

// End reasons reported in game_ended.
const (
	ReasonCaught    = "caught"
	ReasonTimeout   = "timeout"
	ReasonDesertion = "desertion"
	ReasonFault     = "fault"
)

const maxChatHistory = 100

// Broadcaster abstracts a connected client so the room can be driven by
// mocks in tests.
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// ScoreLine is one actor's row in a final result.
type ScoreLine struct {
	ActorID  string
	Nickname string
	PlayerID int64 // persistent account id, 0 for guests and AI
	Points   int
}

// Result is the data a finished room emits for durable recording.
// The room itself never touches persistence.
type Result struct {
	RoomID   string
	RoomName string
	Winner   string // winner nickname, "" on fault
	WinnerID int64  // winner's account id, 0 for guests, AI and faults
	Reason   string
	Duration float64 // seconds of active play
	Scores   []ScoreLine
}

// Room is one isolated match session. All state behind mu; the lock is
// held for one handler or one tick at a time and never across a network
// wait; outbound sends go through non-blocking buffered channels.
type Room struct {
	ID        string
	Name      string
	CreatedAt time.Time

	// OnFinished, if set, is called exactly once with the final result,
	// from its own goroutine, after the lock is released.
	OnFinished func(Result)

	mu         sync.Mutex
	tuning     Tuning
	status     RoomStatus
	capacity   int
	vsAI       bool
	actors     map[string]*Actor
	inputs     map[string]string // latest direction per actor, idempotent overwrite
	clients    map[string]Broadcaster
	authIDs    map[string]int64 // actorID -> account id, 0 = guest
	chat       []ChatEntry
	scoreboard map[string]int // nickname -> points, captured at finish
	winner     string
	reason     string
	startedAt  time.Time
	powerups   *PowerUpManager
	ai         *AIController
	aiID       string
	rng        *rand.Rand
	tick       uint64
	stop       chan struct{}
	running    bool
	everJoined bool
	graceUn    map[string]time.Time // disconnected actors awaiting reconnect
}

// NewRoom creates a room in lobby state. The seed feeds every random
// decision the room makes (spawns, AI jitter) so runs are reproducible.
func NewRoom(id, name string, capacity int, vsAI bool, t Tuning, seed int64) *Room {
	rng := rand.New(rand.NewSource(seed))
	return &Room{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now(),
		tuning:    t,
		capacity:  capacity,
		vsAI:      vsAI,
		actors:    make(map[string]*Actor),
		inputs:    make(map[string]string),
		clients:   make(map[string]Broadcaster),
		authIDs:   make(map[string]int64),
		powerups:  NewPowerUpManager(t, rng),
		ai:        NewAIController(t, rng),
		rng:       rng,
		stop:      make(chan struct{}),
		graceUn:   make(map[string]time.Time),
	}
}

// Run drives the fixed-tick simulation loop until StopLoop.
func (r *Room) Run() {
	r.mu.Lock()
	r.running = true
	r.mu.Unlock()

	ticker := time.NewTicker(r.tuning.TickDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.safeStep(time.Now())
		case <-r.stop:
			return
		}
	}
}

// StopLoop terminates the tick loop. Only the registry calls this.
func (r *Room) StopLoop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		r.running = false
		close(r.stop)
	}
}

// safeStep isolates a panicking tick to this room: the fault is logged
// and the room finished so siblings and the registry keep running.
func (r *Room) safeStep(now time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("room %s: tick panic: %v", r.ID, rec)
			r.mu.Lock()
			r.finishLocked("", ReasonFault, now)
			r.mu.Unlock()
		}
	}()
	r.step(now)
}

// step runs one simulation tick: reconnect grace, AI, effects, physics,
// collisions, power-up sweep and spawn, then the frame broadcast.
func (r *Room) step(now time.Time) {
	r.broadcastFrame(r.stepLocked(now))
}

// stepLocked unlocks via defer so a panicking tick leaves the mutex
// free for safeStep's recovery path.
func (r *Room) stepLocked(now time.Time) Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tick++

	for id, deadline := range r.graceUn {
		if now.After(deadline) {
			delete(r.graceUn, id)
			r.removeActorLocked(id, now)
		}
	}

	if r.status == StatusActive {
		r.stepActiveLocked(now)
	}

	return r.frameLocked()
}

func (r *Room) stepActiveLocked(now time.Time) {
	// Expiry sweeps before anything touches items or effects: an item
	// whose duration lapsed between ticks must not be collectible, and a
	// lapsed effect must not shape this tick's movement.
	_, expiredEffects := r.powerups.Tick(now)
	for _, actorID := range expiredEffects {
		if a, ok := r.actors[actorID]; ok {
			r.powerups.Apply(a, now)
		}
		r.broadcastLocked(Envelope{T: MsgEffectExpired, Data: EffectExpiredMsg{PlayerID: actorID}})
	}

	// AI move first so physics and collisions see its new position.
	if r.aiID != "" {
		if target := r.aiTargetLocked(); target != "" {
			if x, y, ok := r.ai.Decide(r.aiID, target, r.actors); ok {
				a := r.actors[r.aiID]
				if !a.Trapped {
					a.X, a.Y = x, y
				}
			}
		}
	}

	// Overlay effects, then integrate every actor. A trapped actor's
	// movement input is ignored here, not inside the physics step.
	for id, a := range r.actors {
		r.powerups.Apply(a, now)
		dir := r.inputs[id]
		if a.Trapped {
			dir = DirNone
		}
		*a = Advance(*a, dir, r.tuning)
		if dir == DirJump {
			// A jump is an impulse, not a held input.
			r.inputs[id] = DirNone
		}
	}

	ev := ResolveCollisions(r.actors, r.powerups.ActiveItems(), r.tuning)
	if ev.Caught != nil {
		r.finishLocked(ev.Caught.ChaserID, ReasonCaught, now)
		return
	}
	for _, col := range ev.Collected {
		if _, ok := r.powerups.Collect(col.ActorID, col.ItemID, now); !ok {
			continue
		}
		if a, live := r.actors[col.ActorID]; live {
			a.Score += r.tuning.ItemPoints
			r.powerups.Apply(a, now)
		}
		r.broadcastLocked(Envelope{T: MsgItemCollected, Data: ItemCollectedMsg{
			PlayerID: col.ActorID,
			Type:     string(col.Type),
		}})
	}

	if item := r.powerups.MaybeSpawn(now); item != nil {
		r.broadcastLocked(Envelope{T: MsgItemSpawned, Data: ItemSpawnedMsg{
			ID:       item.ID,
			Type:     string(item.Type),
			X:        item.X,
			Y:        item.Y,
			Duration: item.Duration.Seconds(),
		}})
	}

	if r.tuning.TimeLimitSecs > 0 && now.Sub(r.startedAt).Seconds() > r.tuning.TimeLimitSecs {
		// The evader survived the whole round.
		r.finishLocked(r.actorIDOfRoleLocked(RoleEvader), ReasonTimeout, now)
	}
}

// AddActor joins a new member. Fails without mutation when the room is at
// capacity or already finished. The first seat is the chaser, the second
// the evader; in a vs-AI room the opposing seat is filled by an AI-held
// actor as soon as the first human sits down.
func (r *Room) AddActor(id, nickname string, authID int64) (*Actor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == StatusFinished {
		return nil, false
	}
	if _, exists := r.actors[id]; exists {
		// Reconnect within the grace window reclaims the seat.
		delete(r.graceUn, id)
		return r.actors[id], true
	}
	if len(r.actors) >= r.capacity {
		return nil, false
	}

	role := r.nextRoleLocked()
	a := NewActor(id, nickname, role, r.spawnX(role), r.tuning.WorldHeight, r.tuning.MoveSpeed)
	r.actors[id] = a
	r.authIDs[id] = authID
	r.inputs[id] = DirNone
	r.everJoined = true

	if r.vsAI && r.aiID == "" && len(r.actors) < r.capacity {
		r.addAILocked()
	}

	r.broadcastLocked(Envelope{T: MsgPlayerJoined, Data: PlayerJoinedMsg{
		PlayerID: id,
		Players:  r.actorStatesLocked(),
	}})
	return a, true
}

// addAILocked seats the AI opponent, already ready.
func (r *Room) addAILocked() {
	role := r.nextRoleLocked()
	id := "ai-" + GenerateID(3)
	a := NewActor(id, "Bot", role, r.spawnX(role), r.tuning.WorldHeight, r.tuning.MoveSpeed)
	a.AIHeld = true
	a.Ready = true
	r.actors[id] = a
	r.authIDs[id] = 0
	r.aiID = id
}

func (r *Room) nextRoleLocked() Role {
	chasers, evaders := 0, 0
	for _, a := range r.actors {
		if a.Role == RoleChaser {
			chasers++
		} else {
			evaders++
		}
	}
	if chasers <= evaders {
		return RoleChaser
	}
	return RoleEvader
}

func (r *Room) spawnX(role Role) float64 {
	if role == RoleChaser {
		return 50
	}
	return r.tuning.WorldWidth - 50
}

func (r *Room) aiTargetLocked() string {
	for id, a := range r.actors {
		if id != r.aiID && !a.AIHeld {
			return id
		}
	}
	return ""
}

func (r *Room) actorIDOfRoleLocked(role Role) string {
	for id, a := range r.actors {
		if a.Role == role {
			return id
		}
	}
	return ""
}

// RemoveActor removes membership. During an active match the configured
// desertion policy decides whether the remaining participant wins on the
// spot or plays on until timeout.
func (r *Room) RemoveActor(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.actors[id]; !ok {
		return false
	}
	r.removeActorLocked(id, time.Now())
	return true
}

func (r *Room) removeActorLocked(id string, now time.Time) {
	if _, ok := r.actors[id]; !ok {
		return
	}
	delete(r.actors, id)
	delete(r.inputs, id)
	delete(r.clients, id)
	delete(r.authIDs, id)
	r.powerups.RemoveActor(id)

	r.broadcastLocked(Envelope{T: MsgPlayerLeft, Data: PlayerLeftMsg{PlayerID: id}})

	if r.status == StatusActive && r.tuning.EndOnDesertion {
		r.finishLocked(r.remainingActorIDLocked(), ReasonDesertion, now)
	}
}

// remainingActorIDLocked picks the winner of a deserted match, humans
// before AI seats.
func (r *Room) remainingActorIDLocked() string {
	for id, a := range r.actors {
		if !a.AIHeld {
			return id
		}
	}
	for id := range r.actors {
		return id
	}
	return ""
}

// MarkDisconnected starts the reconnect grace window for an actor whose
// connection dropped. The actor keeps its seat until the window lapses.
// from identifies the dropped connection: if another broadcaster has
// already re-bound the seat the stale disconnect is ignored.
func (r *Room) MarkDisconnected(id string, from Broadcaster, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.actors[id]; !ok {
		return
	}
	if cur, bound := r.clients[id]; bound && cur != from {
		return
	}
	delete(r.clients, id)
	r.graceUn[id] = now.Add(r.tuning.GracePeriod())
}

// SetClient associates a broadcaster with an actor and cancels any
// pending disconnect grace.
func (r *Room) SetClient(actorID string, c Broadcaster) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[actorID] = c
	delete(r.graceUn, actorID)
}

// HandleMove applies a move event. Position moves overwrite the actor's
// coordinates (clamped in bounds); direction moves overwrite the pending
// input consumed by the next physics tick. Rejected without mutation when
// the room is finished, the actor is unknown, or the payload is invalid.
func (r *Room) HandleMove(actorID string, msg MoveMsg) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == StatusFinished {
		return false
	}
	a, ok := r.actors[actorID]
	if !ok {
		return false
	}

	switch {
	case msg.X != nil && msg.Y != nil:
		if a.Trapped {
			return false
		}
		a.X = Clamp(*msg.X, 0, r.tuning.WorldWidth)
		a.Y = Clamp(*msg.Y, 0, r.tuning.WorldHeight)
		r.broadcastLocked(Envelope{T: MsgPlayerMoved, Data: PlayerMovedMsg{
			PlayerID: actorID,
			X:        a.X,
			Y:        a.Y,
			Players:  r.actorStatesLocked(),
		}})
		return true
	case msg.Dir == DirLeft || msg.Dir == DirRight || msg.Dir == DirJump || msg.Dir == DirNone:
		r.inputs[actorID] = msg.Dir
		return true
	default:
		return false
	}
}

// HandleReady flags an actor ready and starts the match once every member
// is ready. Re-entering active after leaving it is illegal, so a ready in
// any state but lobby is a no-op.
func (r *Room) HandleReady(actorID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.actors[actorID]
	if !ok || r.status != StatusLobby {
		return false
	}
	a.Ready = true

	for _, m := range r.actors {
		if !m.Ready {
			return true
		}
	}
	r.status = StatusActive
	r.startedAt = time.Now()
	r.broadcastLocked(Envelope{T: MsgRoomStarted})
	return true
}

// AddChat appends to the room's chat log and relays it. Legal in every
// state and never changes status.
func (r *Room) AddChat(actorID, text string) (ChatEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	nickname := "Unknown"
	if a, ok := r.actors[actorID]; ok {
		nickname = a.Nickname
	}
	entry := ChatEntry{Nickname: nickname, Text: text, At: time.Now()}
	r.chat = append(r.chat, entry)
	if len(r.chat) > maxChatHistory {
		r.chat = r.chat[len(r.chat)-maxChatHistory:]
	}
	r.broadcastLocked(Envelope{T: MsgChatRelay, Data: entry})
	return entry, true
}

// End finishes the match from outside the tick loop (explicit end
// request). winnerID is the winning actor's id. No-op unless active.
func (r *Room) End(winnerID, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusActive {
		return
	}
	r.finishLocked(winnerID, reason, time.Now())
}

// finishLocked performs the terminal transition: freezes status, captures
// the scoreboard atomically, announces the result, and hands it to
// OnFinished on a fresh goroutine so persistence happens off the lock.
// The winner is identified by actor id so the result can carry the
// winning account id; nicknames alone are ambiguous across accounts.
func (r *Room) finishLocked(winnerID, reason string, now time.Time) {
	if r.status == StatusFinished {
		return
	}
	wasActive := r.status == StatusActive
	r.status = StatusFinished

	winner := ""
	var winnerPID int64
	if a, ok := r.actors[winnerID]; ok {
		winner = a.Nickname
		winnerPID = r.authIDs[winnerID]
	}
	r.winner = winner
	r.reason = reason

	r.scoreboard = make(map[string]int, len(r.actors))
	scores := make([]ScoreLine, 0, len(r.actors))
	for id, a := range r.actors {
		r.scoreboard[a.Nickname] = a.Score
		scores = append(scores, ScoreLine{
			ActorID:  id,
			Nickname: a.Nickname,
			PlayerID: r.authIDs[id],
			Points:   a.Score,
		})
	}

	duration := 0.0
	if wasActive {
		duration = now.Sub(r.startedAt).Seconds()
	}

	r.broadcastLocked(Envelope{T: MsgGameEnded, Data: GameEndedMsg{
		Winner:     winner,
		Reason:     reason,
		Scoreboard: r.scoreboard,
	}})

	if r.OnFinished != nil {
		res := Result{
			RoomID:   r.ID,
			RoomName: r.Name,
			Winner:   winner,
			WinnerID: winnerPID,
			Reason:   reason,
			Duration: duration,
			Scores:   scores,
		}
		go r.OnFinished(res)
	}
}

// frameLocked builds the authoritative snapshot for this tick.
func (r *Room) frameLocked() Frame {
	items := r.powerups.ActiveItems()
	f := Frame{
		Tick:   r.tick,
		Status: r.status.String(),
		Actors: r.actorStatesLocked(),
		Items:  make([]ItemState, 0, len(items)),
	}
	for _, item := range items {
		f.Items = append(f.Items, ItemState{
			ID:   item.ID,
			Type: string(item.Type),
			X:    item.X,
			Y:    item.Y,
		})
	}
	return f
}

func (r *Room) actorStatesLocked() []ActorState {
	states := make([]ActorState, 0, len(r.actors))
	for _, a := range r.actors {
		states = append(states, a.ToState())
	}
	return states
}

// broadcastFrame msgpack-encodes a finalized frame and fans it out to the
// room's members only. Called without the lock; sends never block.
func (r *Room) broadcastFrame(f Frame) {
	data, err := msgpack.Marshal(f)
	if err != nil {
		log.Printf("room %s: frame encode: %v", r.ID, err)
		return
	}
	r.mu.Lock()
	clients := make([]Broadcaster, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.Unlock()
	for _, c := range clients {
		c.SendBinary(data)
	}
}

// broadcastLocked sends a JSON control message to every member. Client
// send paths are non-blocking channel writes, so holding the lock here
// never waits on the network.
func (r *Room) broadcastLocked(msg Envelope) {
	for _, c := range r.clients {
		c.SendJSON(msg)
	}
}

// Snapshot returns the room's full current state for the read-only query
// surface, outside the tick loop.
func (r *Room) Snapshot() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameLocked()
}

// Info summarizes the room for listings.
func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomInfo{
		ID:       r.ID,
		Name:     r.Name,
		Players:  len(r.actors),
		Capacity: r.capacity,
		Status:   r.status.String(),
	}
}

// MemberCount returns current membership size.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actors)
}

// HumanCount returns members not held by the AI.
func (r *Room) HumanCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.actors {
		if !a.AIHeld {
			n++
		}
	}
	return n
}

// EverJoined reports whether any human ever took a seat. The registry
// uses it to tell a deserted room from one still awaiting its creator.
func (r *Room) EverJoined() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.everJoined
}

// Status returns the room's current lifecycle state.
func (r *Room) Status() RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Winner returns the recorded winner nickname, "" before finish.
func (r *Room) Winner() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.winner
}

// Scoreboard returns the frozen scoreboard, nil before finish.
func (r *Room) Scoreboard() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scoreboard == nil {
		return nil
	}
	out := make(map[string]int, len(r.scoreboard))
	for k, v := range r.scoreboard {
		out[k] = v
	}
	return out
}
