package main

import (
	"context"
	"encoding/json"
	"fmt"
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
	maxMessagesPerSec = 60
	maxRoomNameLen    = 30
	maxChatLen        = 200
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string

	userID string // "" until logined
	user   User

	msgCount   int
	msgResetAt time.Time
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
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}
		if msgType != websocket.TextMessage {
			continue
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

// SendBinary sends pre-marshaled bytes as a binary WebSocket message
// Prefixes with 0xFF marker byte so WritePump can distinguish from text
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

// handleMessage routes an inbound frame by its type discriminator.
// Malformed frames are dropped.
func (c *Client) handleMessage(raw []byte) {
	metricMessagesIn.Inc()

	var head rawMessage
	if err := json.Unmarshal(raw, &head); err != nil {
		return
	}

	switch head.Type {
	case MsgLogined:
		c.handleLogined(raw)
	case MsgGetRooms:
		c.handleGetRooms()
	case MsgCreateRoom:
		c.handleCreateRoom(raw)
	case MsgJoinRoom:
		c.handleJoinRoom(raw)
	case MsgLeaveRoom:
		c.handleLeaveRoom(raw)
	case MsgChat:
		c.handleChat(raw)
	case MsgChangeMap:
		c.handleChangeMap(raw)
	case MsgChangeMode:
		c.handleChangeMode(raw)
	case MsgEquipItem:
		c.handleEquipItem(raw)
	case MsgUnequipItem:
		c.handleUnequipItem(raw)
	case MsgStartGame:
		c.handleStartGame(raw)
	case MsgGameInput:
		c.handleGameInput(raw)
	}
}

func (c *Client) handleLogined(raw []byte) {
	var msg LoginedMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.UserID == "" {
		return
	}
	if c.hub.Login(c, msg.UserID) == nil {
		return
	}
	c.SendJSON(RoomsMsg{Type: MsgRooms, Data: c.hub.DirectoryRooms()})
}

func (c *Client) handleGetRooms() {
	c.SendJSON(RoomsMsg{Type: MsgRooms, Data: c.hub.DirectoryRooms()})
}

func (c *Client) handleCreateRoom(raw []byte) {
	var msg CreateRoomMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if c.userID == "" {
		c.SendJSON(respFail(msg.RequestID, "Not logged in"))
		return
	}
	if c.hub.RoomOf(c.userID) != nil {
		c.SendJSON(respFail(msg.RequestID, "Already in a room"))
		return
	}
	if msg.MaxPlayers < MinRoomPlayers || msg.MaxPlayers > MaxRoomPlayers {
		c.SendJSON(respFail(msg.RequestID, "Invalid max players"))
		return
	}
	name := msg.Name
	if name == "" {
		name = c.user.Username + "'s room"
	}
	if len(name) > maxRoomNameLen {
		name = name[:maxRoomNameLen]
	}

	room := NewRoom(c.user, name, msg.MaxPlayers, msg.IsPrivate)
	// Serialize before publishing; afterwards the room belongs to the hub.
	info := room.Serialize()
	c.hub.AddRoom(room)

	c.SendJSON(respOK(msg.RequestID, info))
	c.SendJSON(RoomUpdatedMsg{Type: MsgRoomUpdated, Data: info})
	c.hub.BroadcastRoomsExcept(c.userID)
}

func (c *Client) handleJoinRoom(raw []byte) {
	var msg JoinRoomMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if c.userID == "" {
		c.SendJSON(respFail(msg.RequestID, "Not logged in"))
		return
	}
	info, reason := c.hub.JoinRoom(msg.RoomID, c.user)
	if reason != "" {
		c.SendJSON(respFail(msg.RequestID, reason))
		return
	}

	c.SendJSON(respOK(msg.RequestID, info))
	c.hub.BroadcastRoomUpdate(msg.RoomID)
	c.hub.BroadcastRoomsExcept(c.userID)
}

func (c *Client) handleLeaveRoom(raw []byte) {
	var msg LeaveRoomMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if !c.hub.LeaveRoom(msg.RoomID, c.userID) {
		c.SendJSON(respFail(msg.RequestID, "Room not found"))
		return
	}
	c.SendJSON(respOK(msg.RequestID, nil))
}

func (c *Client) handleChat(raw []byte) {
	var msg ChatMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Message == "" {
		return
	}
	if !c.hub.RoomHas(msg.RoomID, c.userID) {
		return
	}
	text := msg.Message
	if len(text) > maxChatLen {
		text = text[:maxChatLen]
	}
	c.hub.BroadcastToRoom(msg.RoomID, ChatOutMsg{
		Type:    MsgChat,
		Message: fmt.Sprintf("[%s] %s", c.user.Username, text),
	})
}

func (c *Client) handleChangeMap(raw []byte) {
	var msg ChangeMapMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if msg.Map < 0 || msg.Map >= len(mapTags) {
		return
	}
	if !c.hub.ChangeRoomMap(msg.RoomID, c.userID, msg.Map) {
		return
	}
	c.hub.BroadcastRoomUpdate(msg.RoomID)
	c.hub.BroadcastRoomsExcept(c.userID)
}

func (c *Client) handleChangeMode(raw []byte) {
	var msg ChangeModeMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if !c.hub.ChangeRoomMode(msg.RoomID, c.userID, msg.Mode) {
		return
	}
	c.hub.BroadcastRoomUpdate(msg.RoomID)
	c.hub.BroadcastRoomsExcept(c.userID)
}

func (c *Client) handleEquipItem(raw []byte) {
	var msg EquipItemMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if c.userID == "" {
		c.SendJSON(respFail(msg.RequestID, "Not logged in"))
		return
	}
	item := c.user.Item(msg.ItemID)
	if item == nil {
		c.SendJSON(respFail(msg.RequestID, "Item not found"))
		return
	}
	switch msg.Slot {
	case SlotMainWeapon, SlotSubWeapon, SlotHead, SlotBody, SlotLegs:
	default:
		c.SendJSON(respFail(msg.RequestID, "Invalid slot"))
		return
	}

	// One item per slot: replace whatever occupies it.
	equipments := make([]Equipment, 0, len(c.user.Equipments)+1)
	for _, eq := range c.user.Equipments {
		if eq.Slot != msg.Slot && eq.ID != msg.ItemID {
			equipments = append(equipments, eq)
		}
	}
	equipments = append(equipments, Equipment{ID: item.ID, Tag: item.Tag, Slot: msg.Slot})
	c.applyEquipments(msg.RequestID, equipments)
}

func (c *Client) handleUnequipItem(raw []byte) {
	var msg UnequipItemMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if c.userID == "" {
		c.SendJSON(respFail(msg.RequestID, "Not logged in"))
		return
	}
	equipments := make([]Equipment, 0, len(c.user.Equipments))
	found := false
	for _, eq := range c.user.Equipments {
		if eq.ID == msg.ItemID {
			found = true
			continue
		}
		equipments = append(equipments, eq)
	}
	if !found {
		c.SendJSON(respFail(msg.RequestID, "Item not equipped"))
		return
	}
	c.applyEquipments(msg.RequestID, equipments)
}

// applyEquipments persists a new equipment set, refreshes the room copy of
// the user and notifies everyone who renders it.
func (c *Client) applyEquipments(requestID string, equipments []Equipment) {
	if err := c.hub.store.UpdateEquipments(context.Background(), c.userID, equipments); err != nil {
		log.Printf("equip %s: %v", c.userID, err)
		c.SendJSON(respFail(requestID, "Storage error"))
		return
	}
	c.user.Equipments = equipments

	c.SendJSON(respOK(requestID, equipments))
	c.SendJSON(EquipmentsUpdatedMsg{Type: MsgEquipmentsUpdated, Data: equipments})

	if roomID := c.hub.RefreshRoomEquipments(c.userID, equipments); roomID != "" {
		c.hub.BroadcastRoomUpdate(roomID)
	}
}

func (c *Client) handleStartGame(raw []byte) {
	var msg StartGameMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	room := c.hub.GetRoom(msg.RoomID)
	if room == nil {
		c.SendJSON(respFail(msg.RequestID, "Room not found"))
		return
	}
	if room.OwnerID != c.userID {
		c.SendJSON(respFail(msg.RequestID, "Only the room owner can start the game"))
		return
	}
	if _, err := c.hub.StartMatch(room); err != nil {
		if err == errMatchRunning {
			c.SendJSON(respFail(msg.RequestID, "Game already started"))
		} else {
			c.SendJSON(respFail(msg.RequestID, "Unable to start game"))
		}
		return
	}
	c.SendJSON(respOK(msg.RequestID, nil))
	c.hub.BroadcastToRoom(room.ID, GameStartedMsg{Type: MsgGameStarted, RoomID: room.ID})
}

func (c *Client) handleGameInput(raw []byte) {
	var msg GameInputMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if !c.hub.RoomHas(msg.RoomID, c.userID) {
		return
	}
	if m := c.hub.Match(msg.RoomID); m != nil {
		m.HandleInput(c.userID, msg.Input)
	}
}
