/*
Package campus implements the real-time session protocol of the shared campus.

This file defines the Client, one WebSocket connection and the participant it
controls. ReadPump decodes inbound frames and forwards them to the Room;
WritePump drains the send queue and keeps the connection alive with pings.
*/
package campus

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/SharmaG-28/Virtual-Campus/internal/app/world"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/errs"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 4096

	// sendBuffer is the number of queued outbound frames before a client is
	// considered too slow.
	sendBuffer = 256
)

// Identity is what a joining client supplies before it is admitted.
type Identity struct {
	SessionID string
	Name      string
	Avatar    string

	// Spawn is the requested start position. Nil lets the room choose.
	Spawn *world.Point
}

// Client is one connected participant.
type Client struct {
	room *Room
	conn *websocket.Conn

	id     string
	name   string
	avatar string
	spawn  *world.Point

	// send queues encoded frames for WritePump. Only the room closes it.
	send      chan []byte
	closeOnce sync.Once

	logger zerolog.Logger
}

// NewClient binds a connection and identity to a room.
func NewClient(room *Room, conn *websocket.Conn, id Identity) *Client {
	return &Client{
		room:   room,
		conn:   conn,
		id:     id.SessionID,
		name:   id.Name,
		avatar: id.Avatar,
		spawn:  id.Spawn,
		send:   make(chan []byte, sendBuffer),
		logger: logx.Component("client").With().
			Str("client_id", id.SessionID).
			Str("room", room.Name).
			Logger(),
	}
}

// ID returns the session id.
func (c *Client) ID() string {
	return c.id
}

// enqueue tries to queue data without blocking.
func (c *Client) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes the send queue once; WritePump then sends a close frame.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// SendError queues an ERROR frame.
func (c *Client) SendError(customErr *errs.CustomError) {
	data, err := Encode(TypeError, ErrorPayload{Code: customErr.Code, Message: customErr.Message})
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to build ERROR message.")
		return
	}
	if !c.enqueue(data) {
		c.logger.Warn().Int("code", customErr.Code).Msg("Send queue full, dropping ERROR message.")
	}
}

// ReadPump reads frames until the connection fails, then unregisters the client.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Connection closed unexpectedly")
			}
			return
		}

		c.processInboundMessage(data)
	}
}

func (c *Client) cleanupOnDisconnect() {
	c.logger.Debug().Msg("Client connection cleanup starting.")

	c.room.UnregisterClient(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// processInboundMessage decodes one frame. Anything malformed is dropped.
func (c *Client) processInboundMessage(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		return
	}

	switch env.Type {
	case TypeMove:
		c.handleMove(env.Payload)
	case TypeChat:
		c.handleChat(env.Payload)
	default:
		c.logger.Warn().Str("msg_type", string(env.Type)).Msg("Client sent unsupported message type")
	}
}

func (c *Client) handleMove(raw json.RawMessage) {
	var payload MovePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.logger.Debug().Err(err).Msg("Client sent invalid MOVE payload")
		return
	}

	move, ok := payload.Move()
	if !ok {
		c.logger.Debug().Msg("Client sent MOVE without finite coordinates")
		return
	}

	c.room.submit(event{kind: eventMove, client: c, move: move})
}

func (c *Client) handleChat(raw json.RawMessage) {
	var payload ChatRequest
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.logger.Debug().Err(err).Msg("Client sent invalid CHAT payload")
		return
	}

	if payload.Text == "" || len(payload.Text) > MaxChatBytes {
		c.logger.Debug().Int("length", len(payload.Text)).Msg("Dropping CHAT with empty or oversized text")
		return
	}

	c.room.submit(event{kind: eventChat, client: c, text: payload.Text})
}

// WritePump writes queued frames and periodic pings until the queue is closed
// or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage returns false when WritePump should stop.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
