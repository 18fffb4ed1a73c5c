/*
Package world holds the authoritative in-memory model of the shared campus.

This file defines the World container and the Snapshot copy handed to the
broadcast path. A World has exactly one owner goroutine and carries no lock;
callers that share it across goroutines must serialize access themselves.
*/
package world

import (
	"errors"
	"sort"
)

var (
	// ErrParticipantNotFound is returned when a mutation references a session
	// id that is not (or no longer) present.
	ErrParticipantNotFound = errors.New("world: participant not found")

	// ErrInvalidMove is returned for a move whose coordinates are not finite.
	ErrInvalidMove = errors.New("world: move coordinates must be finite")
)

// Snapshot is a full, detached copy of the world at one patch.
type Snapshot struct {
	// Seq increases by one for every patch produced by a room.
	Seq          uint64        `json:"seq"`
	Participants []Participant `json:"participants"`
	Zones        []Zone        `json:"zones"`
}

// Participant looks up a participant in the snapshot by session id.
func (s Snapshot) Participant(id string) (Participant, bool) {
	for _, p := range s.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// World maps session ids to participants and holds the fixed zone catalog.
type World struct {
	participants map[string]*Participant
	zones        []Zone
}

// NewWorld creates an empty world with the given zone catalog.
// The catalog is copied and never changes afterwards.
func NewWorld(zones []Zone) *World {
	catalog := make([]Zone, len(zones))
	copy(catalog, zones)

	return &World{
		participants: make(map[string]*Participant),
		zones:        catalog,
	}
}

// UpsertParticipant inserts p, replacing any participant with the same id.
func (w *World) UpsertParticipant(p Participant) {
	stored := p
	w.participants[p.ID] = &stored
}

// RemoveParticipant deletes the participant with the given id and reports
// whether it was present.
func (w *World) RemoveParticipant(id string) bool {
	if _, ok := w.participants[id]; !ok {
		return false
	}
	delete(w.participants, id)
	return true
}

// ApplyMove overwrites position, animation and direction of a participant.
// Either every field is updated or none is.
func (w *World) ApplyMove(id string, m Move) error {
	p, ok := w.participants[id]
	if !ok {
		return ErrParticipantNotFound
	}
	if !m.Finite() {
		return ErrInvalidMove
	}

	p.X = m.X
	p.Y = m.Y
	p.Animation = m.Animation
	p.Direction = m.Direction
	return nil
}

// Participant returns a copy of the participant with the given id.
func (w *World) Participant(id string) (Participant, bool) {
	p, ok := w.participants[id]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// Len returns the number of live participants.
func (w *World) Len() int {
	return len(w.participants)
}

// Zones returns a copy of the zone catalog.
func (w *World) Zones() []Zone {
	out := make([]Zone, len(w.zones))
	copy(out, w.zones)
	return out
}

// ZoneAt returns the first zone in catalog order containing (x, y).
func (w *World) ZoneAt(x, y float64) (Zone, bool) {
	return ZoneAt(w.zones, x, y)
}

// Snapshot copies the current state. Participants are ordered by id and
// their CurrentZoneID is computed from the stored position.
func (w *World) Snapshot(seq uint64) Snapshot {
	participants := make([]Participant, 0, len(w.participants))
	for _, p := range w.participants {
		cp := *p
		cp.CurrentZoneID = ""
		if z, ok := w.ZoneAt(cp.X, cp.Y); ok {
			cp.CurrentZoneID = z.ID
		}
		participants = append(participants, cp)
	}

	sort.Slice(participants, func(i, j int) bool {
		return participants[i].ID < participants[j].ID
	})

	return Snapshot{
		Seq:          seq,
		Participants: participants,
		Zones:        w.Zones(),
	}
}
