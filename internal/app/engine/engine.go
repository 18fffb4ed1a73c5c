/*
Package engine reconciles the snapshot stream with what is drawn each frame.

Remote participants are interpolated toward the latest snapshot position and
their animation is derived from the raw labels they report. The controlled
participant is predicted locally from input, its moves are sent at a
throttled rate, and it is snapped back to the server position when the two
disagree. The Engine is driven from one goroutine: snapshots only change
targets and labels, frames only change rendered positions.
*/
package engine

import (
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/SharmaG-28/Virtual-Campus/internal/app/world"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/logx"
)

// Config holds the tuning constants of the engine.
type Config struct {
	// LerpFactor is the share of the remaining distance covered per frame, clamped to [0,1].
	LerpFactor float64

	// MoveThreshold is the Manhattan distance above which a running remote keeps its run cycle.
	MoveThreshold float64

	// CorrectionThreshold is the per-axis divergence that snaps the local prediction.
	CorrectionThreshold float64

	// SendInterval is the minimum spacing of unchanged-state moves.
	SendInterval time.Duration

	// Speed is the local movement speed in units per second.
	Speed float64
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		LerpFactor:          0.15,
		MoveThreshold:       1,
		CorrectionThreshold: 5,
		SendInterval:        50 * time.Millisecond,
		Speed:               150,
	}
}

// Presenter draws participants.
type Presenter interface {
	// PlayAnimation starts animation on the entity id.
	PlayAnimation(id, animation string)
	// Remove drops the entity id.
	Remove(id string)
}

// MoveSender delivers the controlled participant's moves.
type MoveSender interface {
	SendMove(m world.Move) error
}

// RemoteView is a read-only copy of a remote participant's render state.
type RemoteView struct {
	ID        string
	Name      string
	Avatar    string
	Rendered  world.Point
	Target    world.Point
	Animation string
	Direction string
}

// Engine is the per-client reconciliation loop. It is not safe for concurrent use.
type Engine struct {
	cfg       Config
	localID   string
	avatar    string
	presenter Presenter
	sender    MoveSender

	zones         []world.Zone
	currentZoneID string

	seenSeq bool
	lastSeq uint64

	self    local
	remotes map[string]*remote

	// playing is the last animation handed to the presenter per entity.
	playing map[string]string

	onDepart   func(id string)
	onSnapshot func(s world.Snapshot)

	logger zerolog.Logger
}

// New creates an engine for the participant localID with the given avatar.
// The local position is taken from the first snapshot that contains it.
func New(cfg Config, localID, avatar string, presenter Presenter, sender MoveSender) *Engine {
	if avatar == "" {
		avatar = world.AvatarAdam
	}
	return &Engine{
		cfg:       cfg,
		localID:   localID,
		avatar:    avatar,
		presenter: presenter,
		sender:    sender,
		self:      local{direction: world.DirDown, state: world.AnimIdle},
		remotes:   make(map[string]*remote),
		playing:   make(map[string]string),
		logger:    logx.Component("engine").With().Str("local_id", localID).Logger(),
	}
}

// OnDepart registers fn to be called with the id of every remote that
// disappears from the snapshot stream.
func (e *Engine) OnDepart(fn func(id string)) {
	e.onDepart = fn
}

// OnSnapshot registers fn to be called after every applied snapshot.
func (e *Engine) OnSnapshot(fn func(s world.Snapshot)) {
	e.onSnapshot = fn
}

// ApplySnapshot folds one snapshot into the engine. Snapshots whose Seq is
// not newer than the last applied one are dropped and false is returned.
func (e *Engine) ApplySnapshot(s world.Snapshot) bool {
	if e.seenSeq && s.Seq <= e.lastSeq {
		e.logger.Debug().Uint64("seq", s.Seq).Uint64("last", e.lastSeq).Msg("Dropping stale snapshot.")
		return false
	}
	e.seenSeq = true
	e.lastSeq = s.Seq

	if s.Zones != nil {
		e.zones = s.Zones
	}

	present := make(map[string]struct{}, len(s.Participants))
	for _, p := range s.Participants {
		present[p.ID] = struct{}{}

		if p.ID == e.localID {
			e.reconcileLocal(p)
			continue
		}

		if r, ok := e.remotes[p.ID]; ok {
			r.observe(p)
		} else {
			e.remotes[p.ID] = newRemote(p)
			e.logger.Debug().Str("remote_id", p.ID).Str("name", p.Name).Msg("Remote participant appeared.")
		}
	}

	for id := range e.remotes {
		if _, ok := present[id]; !ok {
			e.removeRemote(id)
		}
	}

	if e.onSnapshot != nil {
		e.onSnapshot(s)
	}
	return true
}

func (e *Engine) reconcileLocal(p world.Participant) {
	server := world.Point{X: p.X, Y: p.Y}

	if !e.self.ready {
		e.self.start(server, p.Direction)
		e.refreshZone()
		return
	}

	if e.self.reconcile(server, e.cfg.CorrectionThreshold) {
		e.logger.Debug().
			Float64("x", server.X).
			Float64("y", server.Y).
			Msg("Local prediction diverged, snapped to server position.")
		e.refreshZone()
	}
}

func (e *Engine) removeRemote(id string) {
	delete(e.remotes, id)
	delete(e.playing, id)
	if e.presenter != nil {
		e.presenter.Remove(id)
	}
	if e.onDepart != nil {
		e.onDepart(id)
	}
	e.logger.Debug().Str("remote_id", id).Msg("Remote participant departed.")
}

// Drain applies every snapshot already queued on ch, in order, without
// blocking. open is false once ch has been closed.
func (e *Engine) Drain(ch <-chan world.Snapshot) (applied int, open bool) {
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return applied, false
			}
			if e.ApplySnapshot(s) {
				applied++
			}
		default:
			return applied, true
		}
	}
}

// Frame advances the engine by one rendered frame.
func (e *Engine) Frame(now time.Time, dt time.Duration, in Input) {
	if e.self.ready {
		e.frameLocal(now, dt, in)
	}

	ids := make([]string, 0, len(e.remotes))
	for id := range e.remotes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		r := e.remotes[id]
		r.step(e.cfg.LerpFactor)
		e.play(id, r.animation(e.cfg.MoveThreshold))
	}
}

func (e *Engine) frameLocal(now time.Time, dt time.Duration, in Input) {
	e.self.predict(in, dt, e.cfg.Speed)
	e.refreshZone()
	e.play(e.localID, NormalizeAnimation(e.self.state, e.self.direction, e.avatar))

	m := e.self.outbound()
	if !e.self.shouldSend(m, now, e.cfg.SendInterval) {
		return
	}
	e.self.recordSent(m, now)

	if e.sender == nil {
		return
	}
	if err := e.sender.SendMove(m); err != nil {
		e.logger.Debug().Err(err).Msg("Failed to send move.")
	}
}

// play hands animation to the presenter unless it is already playing.
func (e *Engine) play(id, animation string) {
	if e.playing[id] == animation {
		return
	}
	e.playing[id] = animation
	if e.presenter != nil {
		e.presenter.PlayAnimation(id, animation)
	}
}

func (e *Engine) refreshZone() {
	if z, ok := world.ZoneAt(e.zones, e.self.pos.X, e.self.pos.Y); ok {
		e.currentZoneID = z.ID
		return
	}
	e.currentZoneID = ""
}

// ErrNotReady is returned by SitAt before the local participant has been seen.
var ErrNotReady = errors.New("engine: local participant not yet in a snapshot")

// SitAt seats the controlled participant at pos facing direction. Input is
// ignored until Stand.
func (e *Engine) SitAt(pos world.Point, direction string) error {
	if !e.self.ready {
		return ErrNotReady
	}
	if !world.IsValidDirection(direction) {
		direction = world.DirDown
	}
	e.self.sitting = true
	e.self.pos = pos
	e.self.direction = direction
	e.self.state = world.AnimSit
	e.refreshZone()
	return nil
}

// Stand ends sitting; the participant idles in its last facing.
func (e *Engine) Stand() {
	if !e.self.sitting {
		return
	}
	e.self.sitting = false
	e.self.state = world.AnimIdle
}

// Sitting reports whether the controlled participant is seated.
func (e *Engine) Sitting() bool {
	return e.self.sitting
}

// LocalPosition returns the predicted position. ok is false until the local
// participant has appeared in a snapshot.
func (e *Engine) LocalPosition() (pos world.Point, ok bool) {
	return e.self.pos, e.self.ready
}

// LocalDirection returns the facing of the controlled participant.
func (e *Engine) LocalDirection() string {
	return e.self.direction
}

// LocalAnimation returns the animation id of the controlled participant.
func (e *Engine) LocalAnimation() string {
	return NormalizeAnimation(e.self.state, e.self.direction, e.avatar)
}

// CurrentZoneID returns the zone containing the predicted position, or "".
func (e *Engine) CurrentZoneID() string {
	return e.currentZoneID
}

// CurrentZone returns the zone containing the predicted position.
func (e *Engine) CurrentZone() (world.Zone, bool) {
	return world.ZoneAt(e.zones, e.self.pos.X, e.self.pos.Y)
}

// Zones returns the zone catalog from the latest snapshot.
func (e *Engine) Zones() []world.Zone {
	return e.zones
}

// LastSeq returns the sequence number of the last applied snapshot.
func (e *Engine) LastSeq() uint64 {
	return e.lastSeq
}

// Remote returns the render state of a remote participant.
func (e *Engine) Remote(id string) (RemoteView, bool) {
	r, ok := e.remotes[id]
	if !ok {
		return RemoteView{}, false
	}
	return RemoteView{
		ID:        r.id,
		Name:      r.name,
		Avatar:    r.avatar,
		Rendered:  r.rendered,
		Target:    r.target,
		Animation: r.rawAnimation,
		Direction: r.rawDirection,
	}, true
}

// RemoteIDs returns the ids of all remote participants in order.
func (e *Engine) RemoteIDs() []string {
	ids := make([]string, 0, len(e.remotes))
	for id := range e.remotes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
