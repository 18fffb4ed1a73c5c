/*
Package world holds the authoritative in-memory model of the shared campus:
every connected Participant keyed by session id and the static Zone catalog.

This file defines the Participant record and the small enumerations that
travel with it (animation labels, facing directions and avatar kinds).
*/
package world

import "math"

// Coarse animation labels carried on the wire.
const (
	AnimIdle = "idle"
	AnimRun  = "run"
	AnimSit  = "sit"
)

// Facing directions.
const (
	DirUp    = "up"
	DirDown  = "down"
	DirLeft  = "left"
	DirRight = "right"
)

// Selectable character skins.
const (
	AvatarAdam  = "adam"
	AvatarNancy = "nancy"
	AvatarLucy  = "lucy"
	AvatarAsh   = "ash"
)

var avatarKinds = map[string]struct{}{
	AvatarAdam:  {},
	AvatarNancy: {},
	AvatarLucy:  {},
	AvatarAsh:   {},
}

var directions = map[string]struct{}{
	DirUp:    {},
	DirDown:  {},
	DirLeft:  {},
	DirRight: {},
}

// IsValidAvatar reports whether kind is one of the selectable character skins.
func IsValidAvatar(kind string) bool {
	_, ok := avatarKinds[kind]
	return ok
}

// IsValidDirection reports whether dir is one of the four facing directions.
func IsValidDirection(dir string) bool {
	_, ok := directions[dir]
	return ok
}

// Participant is one connected user's avatar.
// Fields use JSON tags for serialization in STATE patches.
type Participant struct {
	// ID is the session-scoped identifier assigned at join. It never changes
	// for the lifetime of the connection.
	ID string `json:"id"`

	// Name is the display name supplied at join.
	Name string `json:"name"`

	// Avatar is the character skin supplied at join.
	Avatar string `json:"avatar"`

	X float64 `json:"x"`
	Y float64 `json:"y"`

	// Animation is the coarse label last reported by the owning client.
	Animation string `json:"animation"`

	// Direction is the facing direction last reported by the owning client.
	Direction string `json:"direction"`

	// CurrentZoneID is derived from the position when a snapshot is taken.
	// Empty means the participant is outside every zone.
	CurrentZoneID string `json:"currentZoneId,omitempty"`
}

// NewParticipant builds a participant standing idle and facing down at (x, y).
func NewParticipant(id, name, avatar string, x, y float64) Participant {
	return Participant{
		ID:        id,
		Name:      name,
		Avatar:    avatar,
		X:         x,
		Y:         y,
		Animation: AnimIdle,
		Direction: DirDown,
	}
}

// Move is the body of an inbound movement update.
type Move struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Animation string  `json:"animation"`
	Direction string  `json:"direction"`
}

// Finite reports whether both coordinates are finite numbers.
func (m Move) Finite() bool {
	return isFinite(m.X) && isFinite(m.Y)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
