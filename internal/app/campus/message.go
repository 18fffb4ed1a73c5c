/*
Package campus implements the real-time session protocol of the shared
campus: one Room per world owns the authoritative state, accepts MOVE and
CHAT messages from connected Clients and pushes full STATE patches at a
fixed cadence.

This file defines the wire envelope, the message types and their payloads.
*/
package campus

import (
	"encoding/json"
	"fmt"

	"github.com/SharmaG-28/Virtual-Campus/internal/app/world"
)

// MessageType identifies the payload carried by an Envelope.
type MessageType string

const (
	// Client -> server
	TypeMove MessageType = "MOVE"
	TypeChat MessageType = "CHAT"

	// Server -> client
	TypeJoined       MessageType = "JOINED"
	TypeState        MessageType = "STATE"
	TypePlayerJoined MessageType = "PLAYER_JOINED"
	TypePlayerLeft   MessageType = "PLAYER_LEFT"
	TypeError        MessageType = "ERROR"
)

// Envelope is the frame exchanged on the socket in both directions.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode marshals payload into an Envelope of type t.
func Encode(t MessageType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return json.Marshal(Envelope{Type: t, Payload: raw})
}

// MovePayload is the inbound MOVE body. Coordinates are pointers so that a
// message missing either one can be told apart from a move to zero.
type MovePayload struct {
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
	Animation string   `json:"animation"`
	Direction string   `json:"direction"`
}

// Move converts the payload to a world.Move. ok is false when a coordinate
// is missing or not finite.
func (p MovePayload) Move() (world.Move, bool) {
	if p.X == nil || p.Y == nil {
		return world.Move{}, false
	}
	m := world.Move{X: *p.X, Y: *p.Y, Animation: p.Animation, Direction: p.Direction}
	return m, m.Finite()
}

// ChatRequest is the inbound CHAT body.
type ChatRequest struct {
	Text string `json:"text"`
}

// ChatPayload is the outbound CHAT body delivered to every other participant.
type ChatPayload struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	// Timestamp is in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// JoinedPayload is sent once to a newly registered client.
type JoinedPayload struct {
	SessionID       string `json:"sessionId"`
	Room            string `json:"room"`
	PatchIntervalMs int64  `json:"patchIntervalMs"`
}

// StatePayload is one full world patch.
type StatePayload = world.Snapshot

// PresencePayload backs the advisory PLAYER_JOINED and PLAYER_LEFT messages.
type PresencePayload struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name,omitempty"`
}

// ErrorPayload reports a connection-level failure such as a full room.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
