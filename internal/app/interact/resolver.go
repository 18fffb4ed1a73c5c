package interact

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/SharmaG-28/Virtual-Campus/internal/app/engine"
	"github.com/SharmaG-28/Virtual-Campus/internal/app/world"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/logx"
)

// Reach of the action keys, in world units.
const (
	SeatRange     = 32
	InteractRange = 64

	// seatOffsetY places a seated participant slightly below the seat anchor.
	seatOffsetY = 8
)

// DefaultZoneAllowList is the set of zone types the zone key can activate.
var DefaultZoneAllowList = []string{"academic", "finance", "compdept", "itdept", "library"}

// Key is an action key.
type Key string

const (
	KeyInteract Key = "O"
	KeyZone     Key = "E"
	KeyGame     Key = "P"
	KeySit      Key = "S"
	KeyStand    Key = "Space"
)

// HintKind says what the current hint points at.
type HintKind uint8

const (
	HintNone HintKind = iota
	HintObject
	HintSeat
	HintZone
)

// Hint is the single on-screen prompt of a frame.
type Hint struct {
	Kind   HintKind
	Object Handle // HintObject and HintSeat
	ZoneID string // HintZone
}

// Seating is where a participant ends up after sitting down.
type Seating struct {
	Seat     Handle
	Position world.Point
	Facing   string
}

// Outcome reports what a key press did.
type Outcome struct {
	Activated  bool
	Activation Activation

	Sat     bool
	Seating Seating

	Stood bool
}

var (
	// ErrNoSeat is returned by Sit when no seat is in range.
	ErrNoSeat = errors.New("interact: no seat in range")

	// ErrSeatTaken is returned by Sit when every seat in range is occupied.
	ErrSeatTaken = errors.New("interact: seat is occupied")

	// ErrAlreadySeated is returned by Sit for a participant who is sitting.
	ErrAlreadySeated = errors.New("interact: participant already seated")
)

// Resolver tracks the local participant's surroundings and the seat state
// of every participant. It is driven from the frame goroutine and is not
// safe for concurrent use.
type Resolver struct {
	reg   *Registry
	zones []world.Zone
	allow map[string]struct{}
	sink  ActivationSink

	zone   world.Zone
	inZone bool
	hint   Hint

	// seated maps participant id to the seat it occupies.
	seated map[string]Handle

	logger zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithZoneAllowList replaces the zone types the zone key responds to.
func WithZoneAllowList(types ...string) Option {
	return func(r *Resolver) {
		r.allow = make(map[string]struct{}, len(types))
		for _, t := range types {
			r.allow[t] = struct{}{}
		}
	}
}

// NewResolver builds a resolver over reg. sink may be nil.
func NewResolver(reg *Registry, zones []world.Zone, sink ActivationSink, opts ...Option) *Resolver {
	r := &Resolver{
		reg:    reg,
		zones:  zones,
		sink:   sink,
		seated: make(map[string]Handle),
		logger: logx.Component("interact"),
	}
	WithZoneAllowList(DefaultZoneAllowList...)(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetZones replaces the zone catalog, typically from the latest snapshot.
func (r *Resolver) SetZones(zones []world.Zone) {
	r.zones = zones
}

// Resolve picks the object that KeyInteract would activate at pos inside a
// zone of type zoneType. The kind a zone is built around comes first, then
// noticeboards, then the nearest object of any kind. Seats are never returned.
func (r *Resolver) Resolve(pos world.Point, zoneType string) (Handle, bool) {
	if k, ok := preferredKind(zoneType); ok {
		if h, ok := r.reg.NearestOfType(k, pos, InteractRange); ok {
			return h, true
		}
	}

	if h, ok := r.reg.NearestOfType(Noticeboard, pos, InteractRange); ok {
		return h, true
	}

	return r.reg.NearestAny(pos, InteractRange)
}

func preferredKind(zoneType string) (Kind, bool) {
	switch {
	case zoneType == world.ZoneGaming:
		return ActivityTable, true
	case zoneType == ZoneCareer || zoneType == ZoneCoding:
		return Terminal, true
	case zoneType == ZoneMarket || cupboardShelf(zoneType) == zoneClub:
		return Cupboard, true
	}
	return 0, false
}

// Update recomputes the zone at pos and chooses this frame's hint: the
// resolved object, else a free seat in range, else the zone itself when its
// type is allow-listed.
func (r *Resolver) Update(pos world.Point) Hint {
	r.locate(pos)
	r.hint = Hint{}

	if h, ok := r.Resolve(pos, r.zoneType()); ok {
		r.hint = Hint{Kind: HintObject, Object: h}
		return r.hint
	}

	if h, ok := r.reg.NearestFreeSeat(pos, SeatRange); ok {
		r.hint = Hint{Kind: HintSeat, Object: h}
		return r.hint
	}

	if r.inZone && r.allowed(r.zone.Type) {
		r.hint = Hint{Kind: HintZone, ZoneID: r.zone.ID}
	}
	return r.hint
}

// Hint returns the hint chosen by the last Update.
func (r *Resolver) Hint() Hint {
	return r.hint
}

// HintCount is the number of visible hints, 0 or 1.
func (r *Resolver) HintCount() int {
	if r.hint.Kind == HintNone {
		return 0
	}
	return 1
}

// CurrentZone returns the zone found by the last Update or HandleKey.
func (r *Resolver) CurrentZone() (world.Zone, bool) {
	return r.zone, r.inZone
}

// Sit seats participantID on the nearest free seat within SeatRange of pos.
// ErrSeatTaken means every seat in range is occupied.
func (r *Resolver) Sit(participantID string, pos world.Point) (Seating, error) {
	if _, ok := r.seated[participantID]; ok {
		return Seating{}, ErrAlreadySeated
	}

	h, ok := r.reg.NearestFreeSeat(pos, SeatRange)
	if !ok {
		if _, taken := r.reg.NearestOfType(Seat, pos, SeatRange); taken {
			return Seating{}, ErrSeatTaken
		}
		return Seating{}, ErrNoSeat
	}
	seat := r.reg.items[h]

	r.claim(h, participantID)
	return Seating{
		Seat:     h,
		Position: world.Point{X: seat.Position.X, Y: seat.Position.Y + seatOffsetY},
		Facing:   seat.Facing,
	}, nil
}

// Stand frees the seat of participantID. It reports whether the
// participant was seated.
func (r *Resolver) Stand(participantID string) bool {
	h, ok := r.seated[participantID]
	if !ok {
		return false
	}
	delete(r.seated, participantID)
	r.reg.setOccupant(h, "")
	r.logger.Debug().Str("participant_id", participantID).Str("seat", r.reg.items[h].ID).Msg("Seat released.")
	return true
}

// Release frees whatever participantID held. Used when a participant leaves.
func (r *Resolver) Release(participantID string) bool {
	return r.Stand(participantID)
}

// Seated returns the seat occupied by participantID.
func (r *Resolver) Seated(participantID string) (Interactable, bool) {
	h, ok := r.seated[participantID]
	if !ok {
		return Interactable{}, false
	}
	return r.reg.items[h], true
}

// Observe mirrors the seat state of remote participants from a snapshot.
// Seats held by participants absent from s are freed; a remote reporting a
// sit animation claims the free seat it sits on, and stands up when it
// stops reporting one. localID is left to Sit and Stand.
func (r *Resolver) Observe(s world.Snapshot, localID string) {
	present := make(map[string]world.Participant, len(s.Participants))
	for _, p := range s.Participants {
		present[p.ID] = p
	}

	for id := range r.seated {
		if id == localID {
			continue
		}
		p, ok := present[id]
		if !ok || engine.CoarseLabel(p.Animation, p.Avatar) != world.AnimSit {
			r.Release(id)
		}
	}

	for _, p := range s.Participants {
		if p.ID == localID || engine.CoarseLabel(p.Animation, p.Avatar) != world.AnimSit {
			continue
		}
		if _, ok := r.seated[p.ID]; ok {
			continue
		}
		anchor := world.Point{X: p.X, Y: p.Y - seatOffsetY}
		if h, ok := r.reg.NearestOfType(Seat, anchor, SeatRange); ok && r.reg.items[h].OccupiedBy == "" {
			r.claim(h, p.ID)
		}
	}
}

// HandleKey applies one key press by participantID standing at pos.
// Keys that find nothing to act on return a zero Outcome.
func (r *Resolver) HandleKey(key Key, participantID string, pos world.Point) Outcome {
	r.locate(pos)

	switch key {
	case KeyInteract:
		h, ok := r.Resolve(pos, r.zoneType())
		if !ok {
			return Outcome{}
		}
		return r.activate(r.reg.items[h], participantID)

	case KeyGame:
		h, ok := r.reg.NearestOfType(ActivityTable, pos, InteractRange)
		if !ok {
			return Outcome{}
		}
		return r.activate(r.reg.items[h], participantID)

	case KeyZone:
		if !r.inZone || !r.allowed(r.zone.Type) {
			return Outcome{}
		}
		a := zoneActivation(r.zone, participantID)
		r.emit(a)
		return Outcome{Activated: true, Activation: a}

	case KeySit:
		seating, err := r.Sit(participantID, pos)
		if err != nil {
			r.logger.Debug().Err(err).Str("participant_id", participantID).Msg("Sit ignored.")
			return Outcome{}
		}
		return Outcome{Sat: true, Seating: seating}

	case KeyStand:
		return Outcome{Stood: r.Stand(participantID)}
	}

	return Outcome{}
}

func (r *Resolver) activate(it Interactable, participantID string) Outcome {
	a, ok := activationFor(it, r.zoneType(), participantID)
	if !ok {
		return Outcome{}
	}
	if r.inZone {
		a.ZoneID = r.zone.ID
	}
	r.emit(a)
	return Outcome{Activated: true, Activation: a}
}

func (r *Resolver) emit(a Activation) {
	r.logger.Debug().
		Str("event", a.Event).
		Str("object_id", a.ObjectID).
		Str("zone_id", a.ZoneID).
		Msg("Activation emitted.")
	if r.sink != nil {
		r.sink.Activate(a)
	}
}

func (r *Resolver) claim(h Handle, participantID string) {
	r.reg.setOccupant(h, participantID)
	r.seated[participantID] = h
	r.logger.Debug().Str("participant_id", participantID).Str("seat", r.reg.items[h].ID).Msg("Seat claimed.")
}

func (r *Resolver) locate(pos world.Point) {
	r.zone, r.inZone = world.ZoneAt(r.zones, pos.X, pos.Y)
}

func (r *Resolver) zoneType() string {
	if !r.inZone {
		return ""
	}
	return r.zone.Type
}

func (r *Resolver) allowed(zoneType string) bool {
	_, ok := r.allow[zoneType]
	return ok
}
