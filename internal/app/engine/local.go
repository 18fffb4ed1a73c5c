package engine

import (
	"math"
	"time"

	"github.com/SharmaG-28/Virtual-Campus/internal/app/world"
)

// maxPending bounds the sent-but-unconfirmed moves kept for reconciliation.
const maxPending = 32

// Input is the directional key state for one frame.
type Input struct {
	Left  bool
	Right bool
	Up    bool
	Down  bool
}

// local is the predicted state of the controlled participant.
type local struct {
	ready bool

	pos       world.Point
	direction string
	state     string // idle, run or sit
	sitting   bool

	lastSent   world.Move
	lastSentAt time.Time
	hasSent    bool

	// pending holds positions sent but not yet seen in a snapshot, oldest first.
	pending []world.Point

	// confirmed is the last server position the prediction agreed with.
	confirmed world.Point
}

// velocity derives the frame velocity and facing from input. Horizontal keys
// set the direction first and vertical keys override it; diagonal motion is
// scaled back to speed.
func velocity(in Input, speed float64, facing string) (vx, vy float64, direction string, moving bool) {
	direction = facing

	switch {
	case in.Left:
		vx, direction, moving = -speed, world.DirLeft, true
	case in.Right:
		vx, direction, moving = speed, world.DirRight, true
	}

	switch {
	case in.Up:
		vy, direction, moving = -speed, world.DirUp, true
	case in.Down:
		vy, direction, moving = speed, world.DirDown, true
	}

	if vx != 0 && vy != 0 {
		scale := speed / math.Hypot(vx, vy)
		vx *= scale
		vy *= scale
	}
	return vx, vy, direction, moving
}

// predict applies one frame of input.
func (l *local) predict(in Input, dt time.Duration, speed float64) {
	if l.sitting {
		l.state = world.AnimSit
		return
	}

	vx, vy, direction, moving := velocity(in, speed, l.direction)
	secs := dt.Seconds()
	l.pos.X += vx * secs
	l.pos.Y += vy * secs
	l.direction = direction

	if moving {
		l.state = world.AnimRun
	} else {
		l.state = world.AnimIdle
	}
}

// outbound is the move that represents the current state on the wire.
func (l *local) outbound() world.Move {
	return world.Move{
		X:         math.Round(l.pos.X),
		Y:         math.Round(l.pos.Y),
		Animation: l.state,
		Direction: l.direction,
	}
}

// shouldSend reports whether m must go out now: the state or facing changed,
// or the interval elapsed and something differs from the last send.
func (l *local) shouldSend(m world.Move, now time.Time, interval time.Duration) bool {
	if !l.hasSent {
		return true
	}
	if m.Animation != l.lastSent.Animation || m.Direction != l.lastSent.Direction {
		return true
	}
	if m == l.lastSent {
		return false
	}
	return now.Sub(l.lastSentAt) >= interval
}

func (l *local) recordSent(m world.Move, now time.Time) {
	l.lastSent = m
	l.lastSentAt = now
	l.hasSent = true

	l.pending = append(l.pending, world.Point{X: m.X, Y: m.Y})
	if len(l.pending) > maxPending {
		l.pending = l.pending[len(l.pending)-maxPending:]
	}
}

// start places the participant at its first authoritative position.
func (l *local) start(server world.Point, direction string) {
	l.ready = true
	l.pos = server
	l.confirmed = server
	if world.IsValidDirection(direction) {
		l.direction = direction
	}
}

// reconcile compares the authoritative position with the prediction. A
// server position equal to the last confirmed one, or matching a pending
// send, is lag and leaves the prediction alone; a matched send becomes the
// new confirmed position and everything sent before it is dropped.
// Otherwise a divergence beyond threshold on either axis snaps the
// predicted position to the server's. Sends still in flight survive a snap.
// It reports whether a snap happened.
func (l *local) reconcile(server world.Point, threshold float64) bool {
	if within(l.confirmed, server, threshold) {
		return false
	}

	for i, p := range l.pending {
		if within(p, server, threshold) {
			l.confirmed = server
			l.pending = l.pending[i+1:]
			return false
		}
	}

	l.confirmed = server
	if within(l.pos, server, threshold) {
		return false
	}

	l.pos = server
	return true
}

func within(a, b world.Point, threshold float64) bool {
	return math.Abs(a.X-b.X) <= threshold && math.Abs(a.Y-b.Y) <= threshold
}
