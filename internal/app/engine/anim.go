package engine

import (
	"strings"

	"github.com/SharmaG-28/Virtual-Campus/internal/app/world"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/logx"
)

// canonical maps the direction-qualified labels a peer may send to their
// animation suffix.
var canonical = map[string]string{
	"run_left":   "run_left",
	"run_right":  "run_right",
	"run_up":     "run_up",
	"run_down":   "run_down",
	"idle_left":  "idle_left",
	"idle_right": "idle_right",
	"idle_up":    "idle_up",
	"idle_down":  "idle_down",
	"sit_left":   "sit_left",
	"sit_right":  "sit_right",
	"sit_up":     "sit_up",
	"sit_down":   "sit_down",
}

// NormalizeAnimation maps a received label, direction and avatar to a
// concrete animation id of the form {avatar}_{state}_{direction}. It never
// returns an empty string. An empty avatar becomes "adam" and an unknown
// direction becomes "down".
func NormalizeAnimation(label, direction, avatar string) string {
	if avatar == "" {
		logx.Warn("Animation requested without avatar, using default.", "label", label)
		avatar = world.AvatarAdam
	}
	if !world.IsValidDirection(direction) {
		direction = world.DirDown
	}

	// Already qualified for this avatar. Anything else after the prefix is
	// normalized like an unqualified label.
	if rest, ok := strings.CutPrefix(label, avatar+"_"); ok {
		if _, known := canonical[rest]; known {
			return label
		}
		label = rest
	}

	if label == "" || label == world.AnimIdle {
		return animID(avatar, world.AnimIdle, direction)
	}

	if strings.Contains(label, "run") || strings.Contains(label, "walk") || strings.Contains(label, "move") {
		return animID(avatar, world.AnimRun, direction)
	}

	if strings.Contains(label, world.AnimSit) {
		if embedded, ok := trailingDirection(label); ok {
			return animID(avatar, world.AnimSit, embedded)
		}
		return animID(avatar, world.AnimSit, direction)
	}

	if suffix, ok := canonical[label]; ok {
		return avatar + "_" + suffix
	}

	logx.Warn("Unrecognized animation label, falling back to idle.", "label", label, "avatar", avatar)
	return animID(avatar, world.AnimIdle, direction)
}

// CoarseLabel reduces an animation id to the label sent on the wire:
// sit, run or idle.
func CoarseLabel(animation, avatar string) string {
	state := strings.TrimPrefix(animation, avatar+"_")
	switch {
	case strings.HasPrefix(state, world.AnimSit):
		return world.AnimSit
	case strings.HasPrefix(state, world.AnimRun):
		return world.AnimRun
	default:
		return world.AnimIdle
	}
}

func animID(avatar, state, direction string) string {
	return avatar + "_" + state + "_" + direction
}

func trailingDirection(label string) (string, bool) {
	for _, dir := range []string{world.DirDown, world.DirLeft, world.DirRight, world.DirUp} {
		if strings.HasSuffix(label, "_"+dir) {
			return dir, true
		}
	}
	return "", false
}
