/*
Package interact decides which static object near the controlled participant
responds to an action key.

Objects live in a Registry: one arena of Interactable values indexed by
Kind, addressed through Handles. Every kind shares the same value type and
activation goes through a single dispatcher, so the mapping from object to
emitted event is readable in one place.
*/
package interact

import (
	"errors"
	"fmt"
	"math"

	"github.com/SharmaG-28/Virtual-Campus/internal/app/world"
)

// Kind tags an Interactable.
type Kind uint8

const (
	// Seat can be occupied by one participant at a time.
	Seat Kind = iota + 1
	// Terminal opens a zone portal (career, coding, ...).
	Terminal
	// Noticeboard opens the shared whiteboard.
	Noticeboard
	// Cupboard opens a resource shelf.
	Cupboard
	// ActivityTable opens game selection.
	ActivityTable
)

var kindNames = map[Kind]string{
	Seat:          "seat",
	Terminal:      "terminal",
	Noticeboard:   "noticeboard",
	Cupboard:      "cupboard",
	ActivityTable: "activity-table",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Interactable is a static point-like object of the map.
type Interactable struct {
	Kind     Kind
	ID       string
	Position world.Point

	// Facing is the direction a seated participant looks. Seats only.
	Facing string

	// OccupiedBy is the participant seated here, or "". Seats only.
	OccupiedBy string

	// ZoneType overrides the zone the object serves. Terminals and cupboards
	// fall back to the type of the zone they stand in.
	ZoneType string

	// GameType is the game offered by an activity table.
	GameType string
}

// Handle addresses an Interactable inside its Registry.
type Handle int

var (
	// ErrInvalidKind is returned when adding an object with an undeclared Kind.
	ErrInvalidKind = errors.New("interact: invalid kind")

	// ErrInvalidPosition is returned when adding an object at a non-finite position.
	ErrInvalidPosition = errors.New("interact: position must be finite")
)

// Registry holds every interactable of a map. Objects are added once at
// load and never removed; only seat occupancy changes afterwards.
type Registry struct {
	items  []Interactable
	byKind map[Kind][]Handle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKind: make(map[Kind][]Handle)}
}

// Add stores it and returns its handle.
func (r *Registry) Add(it Interactable) (Handle, error) {
	if !it.Kind.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidKind, it.Kind)
	}
	if !finite(it.Position.X) || !finite(it.Position.Y) {
		return 0, ErrInvalidPosition
	}
	if it.Kind == Seat && !world.IsValidDirection(it.Facing) {
		it.Facing = world.DirDown
	}
	it.OccupiedBy = ""

	h := Handle(len(r.items))
	r.items = append(r.items, it)
	r.byKind[it.Kind] = append(r.byKind[it.Kind], h)
	return h, nil
}

// Get returns a copy of the object behind h.
func (r *Registry) Get(h Handle) (Interactable, bool) {
	if h < 0 || int(h) >= len(r.items) {
		return Interactable{}, false
	}
	return r.items[h], true
}

// Len returns the number of objects.
func (r *Registry) Len() int {
	return len(r.items)
}

// OfKind returns the handles of every object of kind k, in insertion order.
func (r *Registry) OfKind(k Kind) []Handle {
	hs := r.byKind[k]
	out := make([]Handle, len(hs))
	copy(out, hs)
	return out
}

// NearestOfType returns the closest object of kind k whose Euclidean
// distance to pos is strictly below maxDistance.
func (r *Registry) NearestOfType(k Kind, pos world.Point, maxDistance float64) (Handle, bool) {
	return r.nearest(r.byKind[k], pos, maxDistance)
}

// NearestFreeSeat is NearestOfType for seats, skipping occupied ones.
func (r *Registry) NearestFreeSeat(pos world.Point, maxDistance float64) (Handle, bool) {
	free := make([]Handle, 0, len(r.byKind[Seat]))
	for _, h := range r.byKind[Seat] {
		if r.items[h].OccupiedBy == "" {
			free = append(free, h)
		}
	}
	return r.nearest(free, pos, maxDistance)
}

// NearestAny is NearestOfType over every kind except seats.
func (r *Registry) NearestAny(pos world.Point, maxDistance float64) (Handle, bool) {
	best, bestDist, found := Handle(0), math.Inf(1), false
	for k, hs := range r.byKind {
		if k == Seat {
			continue
		}
		h, ok := r.nearest(hs, pos, maxDistance)
		if !ok {
			continue
		}
		d := r.items[h].Position.Distance(pos)
		// Ties go to the lower handle so the result does not depend on map order.
		if d < bestDist || (d == bestDist && h < best) {
			best, bestDist, found = h, d, true
		}
	}
	return best, found
}

func (r *Registry) nearest(hs []Handle, pos world.Point, maxDistance float64) (Handle, bool) {
	best, bestDist, found := Handle(0), maxDistance, false
	for _, h := range hs {
		if d := r.items[h].Position.Distance(pos); d < bestDist {
			best, bestDist, found = h, d, true
		}
	}
	return best, found
}

func (r *Registry) setOccupant(h Handle, participantID string) {
	r.items[h].OccupiedBy = participantID
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
