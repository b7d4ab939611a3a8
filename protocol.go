package main

import (
	"encoding/json"
	"time"
)

// Client -> Server message types
const (
	MsgCreate   = "create" // create room
	MsgList     = "list"   // list rooms
	MsgCheck    = "check"  // check if room exists
	MsgJoin     = "join"
	MsgMove     = "move"
	MsgReady    = "ready"
	MsgChat     = "chat"
	MsgLeave    = "leave"
	MsgRegister = "register"
	MsgLogin    = "login"
	MsgAuth     = "auth" // resume with token
	MsgProfile  = "profile"
)

// Server -> Client message types
const (
	MsgCreated       = "created"
	MsgRooms         = "rooms"
	MsgChecked       = "checked"
	MsgJoined        = "joined"
	MsgPlayerJoined  = "player_joined"
	MsgPlayerMoved   = "player_moved"
	MsgPlayerLeft    = "player_left"
	MsgRoomStarted   = "room_started"
	MsgItemSpawned   = "item_spawned"
	MsgItemCollected = "item_collected"
	MsgEffectExpired = "effect_expired"
	MsgChatRelay     = "chat_msg"
	MsgGameEnded     = "game_ended"
	MsgError         = "error"
	MsgAuthOK        = "auth_ok"
	MsgProfileData   = "profile_data"
)

// Envelope wraps all outgoing JSON messages with a type field.
// Per-tick world frames bypass it: they go out as binary msgpack Frames.
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// CreateMsg asks for a new room. VsAI fills the second slot with an
// AI-held opponent.
type CreateMsg struct {
	Name     string `json:"name"`
	RoomName string `json:"rname"`
	Capacity int    `json:"cap,omitempty"`
	VsAI     bool   `json:"vs_ai,omitempty"`
}

// JoinMsg attaches this connection to a room as a new actor. Rejoin
// carries a prior actor id so a client that dropped can reclaim its
// seat inside the reconnect grace window.
type JoinMsg struct {
	RoomID string `json:"rid"`
	Name   string `json:"name"`
	Rejoin string `json:"pid,omitempty"`
}

// MoveMsg carries either an absolute position (X and Y set) or a
// direction for physics-driven motion. Position moves overwrite the
// actor's coordinates, so a duplicated or replayed move is harmless.
type MoveMsg struct {
	X   *float64 `json:"x,omitempty"`
	Y   *float64 `json:"y,omitempty"`
	Dir string   `json:"dir,omitempty"`
}

// ChatMsg is an inbound chat line.
type ChatMsg struct {
	Text string `json:"text"`
}

// CheckMsg asks whether a room exists.
type CheckMsg struct {
	RoomID string `json:"rid"`
}

// CheckedMsg is the response to a room check.
type CheckedMsg struct {
	RoomID   string `json:"rid"`
	Exists   bool   `json:"exists"`
	Name     string `json:"name,omitempty"`
	Players  int    `json:"players,omitempty"`
	Capacity int    `json:"cap,omitempty"`
	Status   string `json:"status,omitempty"`
}

// RegisterMsg / LoginMsg / AuthMsg drive the auth collaborator.
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms register/login/token resume.
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"player_id"`
}

// ProfileDataMsg is the response to a profile request.
type ProfileDataMsg struct {
	Username    string `json:"username"`
	GamesPlayed int    `json:"games"`
	Wins        int    `json:"wins"`
	TotalPoints int    `json:"points"`
}

// ActorState is the per-actor slice of a frame.
type ActorState struct {
	ID       string  `json:"id" msgpack:"id"`
	Nickname string  `json:"n" msgpack:"n"`
	Role     int     `json:"r" msgpack:"r"`
	X        float64 `json:"x" msgpack:"x"`
	Y        float64 `json:"y" msgpack:"y"`
	VY       float64 `json:"vy" msgpack:"vy"`
	Grounded bool    `json:"g" msgpack:"g"`
	Visible  bool    `json:"v" msgpack:"v"`
	Trapped  bool    `json:"t" msgpack:"t"`
	Score    int     `json:"sc" msgpack:"sc"`
	Ready    bool    `json:"rd" msgpack:"rd"`
	AI       bool    `json:"ai" msgpack:"ai"`
}

// ItemState is the per-item slice of a frame.
type ItemState struct {
	ID   string  `json:"id" msgpack:"id"`
	Type string  `json:"ty" msgpack:"ty"`
	X    float64 `json:"x" msgpack:"x"`
	Y    float64 `json:"y" msgpack:"y"`
}

// Frame is the authoritative per-tick snapshot broadcast to room members,
// msgpack-encoded as a binary WebSocket message.
type Frame struct {
	Tick   uint64       `msgpack:"tick"`
	Status string       `msgpack:"st"`
	Actors []ActorState `msgpack:"a"`
	Items  []ItemState  `msgpack:"i"`
}

// PlayerJoinedMsg mirrors the join broadcast of the original event
// contract: the newcomer plus the full member map.
type PlayerJoinedMsg struct {
	PlayerID string       `json:"player_id"`
	Players  []ActorState `json:"players"`
}

// PlayerMovedMsg confirms an accepted position move.
type PlayerMovedMsg struct {
	PlayerID string       `json:"player_id"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Players  []ActorState `json:"players"`
}

// PlayerLeftMsg announces a departure.
type PlayerLeftMsg struct {
	PlayerID string `json:"player_id"`
}

// ItemSpawnedMsg announces a new power-up.
type ItemSpawnedMsg struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Duration float64 `json:"duration"` // seconds
}

// ItemCollectedMsg announces a pickup.
type ItemCollectedMsg struct {
	PlayerID string `json:"player_id"`
	Type     string `json:"type"`
}

// EffectExpiredMsg announces an actor's effect wearing off.
type EffectExpiredMsg struct {
	PlayerID string `json:"player_id"`
}

// ChatEntry is one line of a room's append-only chat log.
type ChatEntry struct {
	Nickname string    `json:"player"`
	Text     string    `json:"text"`
	At       time.Time `json:"ts"`
}

// GameEndedMsg carries the terminal result and the frozen scoreboard.
type GameEndedMsg struct {
	Winner     string         `json:"winner"`
	Reason     string         `json:"reason"`
	Scoreboard map[string]int `json:"scoreboard"`
}

// RoomInfo is one row of the room list.
type RoomInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Players  int    `json:"players"`
	Capacity int    `json:"cap"`
	Status   string `json:"status"`
}

// ServerStats is the payload of the stats endpoint.
type ServerStats struct {
	Clients int `json:"clients"`
	Conns   int `json:"conns"`
	Rooms   int `json:"rooms"`
}

// ErrorMsg sends a structured rejection to the triggering client.
type ErrorMsg struct {
	Msg string `json:"msg"`
}
