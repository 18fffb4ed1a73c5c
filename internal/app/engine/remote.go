package engine

import (
	"math"
	"strings"

	"github.com/SharmaG-28/Virtual-Campus/internal/app/world"
)

// remote is the render-side view of another participant. Snapshots only
// write target and the raw labels; frames only write rendered.
type remote struct {
	id     string
	name   string
	avatar string

	rendered world.Point
	target   world.Point

	rawAnimation string
	rawDirection string
}

func newRemote(p world.Participant) *remote {
	r := &remote{
		id:       p.ID,
		name:     p.Name,
		avatar:   p.Avatar,
		rendered: world.Point{X: p.X, Y: p.Y},
	}
	r.observe(p)
	return r
}

// observe records the latest authoritative values.
func (r *remote) observe(p world.Participant) {
	r.target = world.Point{X: p.X, Y: p.Y}

	r.rawAnimation = p.Animation
	if r.rawAnimation == "" {
		r.rawAnimation = world.AnimIdle
	}
	r.rawDirection = p.Direction
	if r.rawDirection == "" {
		r.rawDirection = world.DirDown
	}
	if p.Avatar != "" {
		r.avatar = p.Avatar
	}
}

// step moves rendered toward target by factor of the remaining distance.
func (r *remote) step(factor float64) {
	f := clamp01(factor)
	r.rendered.X += (r.target.X - r.rendered.X) * f
	r.rendered.Y += (r.target.Y - r.rendered.Y) * f
}

// remaining is the Manhattan distance still to cover.
func (r *remote) remaining() float64 {
	return math.Abs(r.rendered.X-r.target.X) + math.Abs(r.rendered.Y-r.target.Y)
}

// animation picks what to play this frame. While the peer reports running and
// the rendered position still lags the target by more than moveThreshold, the
// run cycle is forced in the last received direction.
func (r *remote) animation(moveThreshold float64) string {
	if r.remaining() > moveThreshold && strings.Contains(r.rawAnimation, world.AnimRun) {
		return NormalizeAnimation(world.AnimRun, r.rawDirection, r.avatar)
	}
	return NormalizeAnimation(r.rawAnimation, r.rawDirection, r.avatar)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
