package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
	maxNameLen        = 16
	maxChatLen        = 200
	maxRoomNameLen    = 30
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	actorID    string
	roomID     string
	nickname   string
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
	// Auth state
	authPlayerID int64  // 0 = unauthenticated/guest
	authUsername string // "" = unauthenticated
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgCheck:
		c.handleCheck(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgMove:
		c.handleMove(env.D)
	case MsgReady:
		c.handleReady()
	case MsgChat:
		c.handleChat(env.D)
	case MsgLeave:
		c.handleLeave()
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgProfile:
		c.handleProfile()
	default:
		log.Printf("unknown message type %q from %s", env.T, c.remoteAddr)
	}
}

func (c *Client) handleList() {
	c.SendJSON(Envelope{T: MsgRooms, Data: c.hub.registry.List()})
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	rname := msg.RoomName
	if rname == "" {
		rname = "Chase Arena"
	}
	if len(rname) > maxRoomNameLen {
		rname = rname[:maxRoomNameLen]
	}

	room := c.hub.registry.Create(rname, msg.Capacity, msg.VsAI)
	if room == nil {
		c.sendError("too many active rooms")
		return
	}
	c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"rid": room.ID}})
}

func (c *Client) handleCheck(data json.RawMessage) {
	var msg CheckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	room := c.hub.registry.Get(msg.RoomID)
	if room == nil {
		c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{RoomID: msg.RoomID, Exists: false}})
		return
	}
	info := room.Info()
	c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{
		RoomID:   msg.RoomID,
		Exists:   true,
		Name:     info.Name,
		Players:  info.Players,
		Capacity: info.Capacity,
		Status:   info.Status,
	}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	name := msg.Name
	if name == "" {
		if c.authUsername != "" {
			name = c.authUsername
		} else {
			name = GenerateGuestName()
		}
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	if c.roomID != "" {
		c.sendError("already in a room")
		return
	}

	// A rejoin reuses the prior actor id so the room's reclaim path can
	// hand the same seat and score back.
	actorID := msg.Rejoin
	if actorID == "" {
		actorID = GenerateID(4)
	}
	room := c.hub.registry.Join(msg.RoomID, actorID, name, c.authPlayerID)
	if room == nil {
		c.sendError("room not found or full")
		return
	}
	c.actorID = actorID
	c.roomID = room.ID
	c.nickname = name
	room.SetClient(actorID, c)

	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{
		"rid": room.ID,
		"pid": actorID,
	}})
}

func (c *Client) handleMove(data json.RawMessage) {
	if c.roomID == "" || c.actorID == "" {
		return
	}
	var msg MoveMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("invalid move payload from %s: %v", c.remoteAddr, err)
		return
	}
	if msg.X == nil && msg.Y == nil && msg.Dir == "" {
		// Malformed move: no coordinates and no direction. Drop it.
		log.Printf("move without coordinates from %s", c.remoteAddr)
		return
	}
	if (msg.X == nil) != (msg.Y == nil) {
		log.Printf("move with partial coordinates from %s", c.remoteAddr)
		return
	}
	room := c.hub.registry.Get(c.roomID)
	if room == nil {
		return
	}
	if !room.HandleMove(c.actorID, msg) {
		c.sendError("move rejected")
	}
}

func (c *Client) handleReady() {
	if c.roomID == "" || c.actorID == "" {
		return
	}
	room := c.hub.registry.Get(c.roomID)
	if room == nil {
		return
	}
	if !room.HandleReady(c.actorID) {
		c.sendError("ready rejected")
	}
}

func (c *Client) handleChat(data json.RawMessage) {
	if c.roomID == "" || c.actorID == "" {
		return
	}
	var msg ChatMsg
	if err := json.Unmarshal(data, &msg); err != nil || msg.Text == "" {
		return
	}
	if len(msg.Text) > maxChatLen {
		msg.Text = msg.Text[:maxChatLen]
	}
	room := c.hub.registry.Get(c.roomID)
	if room == nil {
		return
	}
	room.AddChat(c.actorID, msg.Text)
}

func (c *Client) handleLeave() {
	if c.roomID != "" {
		c.hub.registry.Leave(c.roomID, c.actorID)
		c.roomID = ""
		c.actorID = ""
	}
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.authPlayerID = id
	c.authUsername = msg.Username
	c.hub.SetOnline(id, c)
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: msg.Username,
		PlayerID: id,
	}})
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	// One live session per account. Token resume may still take over a
	// session that lost its connection.
	if c.hub.IsOnline(id) {
		c.sendError("account already connected")
		return
	}
	c.authPlayerID = id
	c.authUsername = msg.Username
	c.hub.SetOnline(id, c)
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: msg.Username,
		PlayerID: id,
	}})
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, username, err := c.hub.auth.VerifyToken(msg.Token)
	if err != nil {
		c.sendError("invalid token")
		return
	}
	c.authPlayerID = id
	c.authUsername = username
	c.hub.SetOnline(id, c)
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    msg.Token,
		Username: username,
		PlayerID: id,
	}})
}

func (c *Client) handleProfile() {
	if c.hub.db == nil || c.authPlayerID == 0 {
		c.sendError("not authenticated")
		return
	}
	stats, err := c.hub.db.GetProfileStats(c.authPlayerID)
	if err != nil || stats == nil {
		c.sendError("profile not found")
		return
	}
	c.SendJSON(Envelope{T: MsgProfileData, Data: ProfileDataMsg{
		Username:    c.authUsername,
		GamesPlayed: stats.GamesPlayed,
		Wins:        stats.Wins,
		TotalPoints: stats.TotalPoints,
	}})
}
