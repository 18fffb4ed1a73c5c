package main

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/SharmaG-28/Virtual-Campus/internal/app/engine"
	"github.com/SharmaG-28/Virtual-Campus/internal/app/interact"
	"github.com/SharmaG-28/Virtual-Campus/internal/app/netclient"
	"github.com/SharmaG-28/Virtual-Campus/internal/app/world"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/logx"
)

const (
	wanderMin = 800 * time.Millisecond
	wanderMax = 2500 * time.Millisecond
	sitFor    = 3 * time.Second

	// The bot keeps to the default spawn area.
	areaWidth  = 800
	areaHeight = 600
)

var wanderInputs = []engine.Input{
	{},
	{Left: true},
	{Right: true},
	{Up: true},
	{Down: true},
	{Left: true, Up: true},
	{Right: true, Up: true},
	{Left: true, Down: true},
	{Right: true, Down: true},
}

// logPresenter stands in for a renderer.
type logPresenter struct {
	logger zerolog.Logger
}

func (p logPresenter) PlayAnimation(id, animation string) {
	p.logger.Debug().Str("entity", id).Str("animation", animation).Msg("Play animation.")
}

func (p logPresenter) Remove(id string) {
	p.logger.Debug().Str("entity", id).Msg("Remove entity.")
}

type bot struct {
	cfg      botConfig
	sess     *netclient.Session
	engine   *engine.Engine
	resolver *interact.Resolver
	rng      *rand.Rand
	logger   zerolog.Logger

	input      engine.Input
	nextWander time.Time
	standAt    time.Time
	lastHint   interact.Hint
}

func newBot(cfg botConfig, sess *netclient.Session) *bot {
	logger := logx.Component("bot").With().Str("session_id", sess.ID()).Logger()

	eng := engine.New(engine.DefaultConfig(), sess.ID(), cfg.avatar, logPresenter{logger: logger}, sess)

	sink := interact.ActivationFunc(func(a interact.Activation) {
		logger.Info().
			Str("event", a.Event).
			Str("object_id", a.ObjectID).
			Str("zone_id", a.ZoneID).
			Str("game_type", a.GameType).
			Msg("Activated.")
	})
	resolver := interact.NewResolver(campusLayout(), nil, sink)

	eng.OnDepart(func(id string) { resolver.Release(id) })
	eng.OnSnapshot(func(s world.Snapshot) {
		resolver.SetZones(s.Zones)
		resolver.Observe(s, sess.ID())
	})

	return &bot{
		cfg:      cfg,
		sess:     sess,
		engine:   eng,
		resolver: resolver,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:   logger,
	}
}

// drive runs the frame loop. It returns nil when ctx ends, after leaving,
// and the session error when the server side ends the session.
func (b *bot) drive(ctx context.Context) error {
	frame := time.Second / time.Duration(b.cfg.fps)
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	var chatC <-chan time.Time
	if b.cfg.chat > 0 {
		chatTicker := time.NewTicker(b.cfg.chat)
		defer chatTicker.Stop()
		chatC = chatTicker.C
	}

	chats := b.sess.Chats()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			if err := b.sess.Leave(); err != nil {
				b.logger.Debug().Err(err).Msg("Leave after session end.")
			}
			return nil

		case <-b.sess.Done():
			return b.sess.Err()

		case chat, ok := <-chats:
			if !ok {
				chats = nil
				continue
			}
			b.logger.Info().Str("from", chat.SenderName).Str("message", chat.Message).Msg("Chat received.")

		case <-chatC:
			text := "hello from " + b.cfg.name
			if zone, ok := b.engine.CurrentZone(); ok {
				text += " in " + zone.Name
			}
			if err := b.sess.SendChat(text); err != nil {
				b.logger.Debug().Err(err).Msg("Chat not sent.")
			}

		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now

			if _, open := b.engine.Drain(b.sess.Snapshots()); !open {
				<-b.sess.Done()
				return b.sess.Err()
			}
			b.step(now, dt)
		}
	}
}

// step decides this frame's input and key presses, then advances the engine.
func (b *bot) step(now time.Time, dt time.Duration) {
	pos, ready := b.engine.LocalPosition()
	if !ready {
		return
	}

	if b.engine.Sitting() {
		if now.After(b.standAt) {
			b.press(interact.KeyStand, pos)
		}
	} else {
		b.wander(now, pos)
	}

	b.engine.Frame(now, dt, b.input)

	pos, _ = b.engine.LocalPosition()
	hint := b.resolver.Update(pos)
	if hint == b.lastHint {
		return
	}
	b.lastHint = hint

	switch hint.Kind {
	case interact.HintObject:
		b.press(interact.KeyInteract, pos)
	case interact.HintSeat:
		if b.rng.IntN(2) == 0 {
			b.press(interact.KeySit, pos)
		}
	case interact.HintZone:
		b.press(interact.KeyZone, pos)
	}
}

func (b *bot) press(key interact.Key, pos world.Point) {
	out := b.resolver.HandleKey(key, b.sess.ID(), pos)

	switch {
	case out.Sat:
		if err := b.engine.SitAt(out.Seating.Position, out.Seating.Facing); err != nil {
			b.resolver.Stand(b.sess.ID())
			return
		}
		b.input = engine.Input{}
		b.standAt = time.Now().Add(sitFor)
		b.logger.Info().Str("animation", b.engine.LocalAnimation()).Msg("Sat down.")
	case out.Stood:
		b.engine.Stand()
		b.logger.Info().Msg("Stood up.")
	}
}

// wander changes direction at random intervals and turns back at the edges.
func (b *bot) wander(now time.Time, pos world.Point) {
	switch {
	case pos.X < 0:
		b.input = engine.Input{Right: true}
	case pos.X > areaWidth:
		b.input = engine.Input{Left: true}
	case pos.Y < 0:
		b.input = engine.Input{Down: true}
	case pos.Y > areaHeight:
		b.input = engine.Input{Up: true}
	default:
		if now.Before(b.nextWander) {
			return
		}
		b.input = wanderInputs[b.rng.IntN(len(wanderInputs))]
	}
	b.nextWander = now.Add(wanderMin + time.Duration(b.rng.Int64N(int64(wanderMax-wanderMin))))
}

// campusLayout places objects inside the built-in zones.
func campusLayout() *interact.Registry {
	reg := interact.NewRegistry()
	for _, it := range []interact.Interactable{
		{Kind: interact.Seat, ID: "meet1-chair-1", Position: world.Point{X: 115, Y: 120}, Facing: world.DirRight},
		{Kind: interact.Seat, ID: "meet1-chair-2", Position: world.Point{X: 135, Y: 120}, Facing: world.DirLeft},
		{Kind: interact.Noticeboard, ID: "lecture1-board", Position: world.Point{X: 350, Y: 205}},
		{Kind: interact.Terminal, ID: "lecture1-pc", Position: world.Point{X: 385, Y: 265}, ZoneType: interact.ZoneCoding},
		{Kind: interact.ActivityTable, ID: "gaming-chess", Position: world.Point{X: 430, Y: 280}, GameType: "chess"},
		{Kind: interact.ActivityTable, ID: "gaming-pool", Position: world.Point{X: 490, Y: 320}, GameType: "pool"},
		{Kind: interact.Cupboard, ID: "library-shelf", Position: world.Point{X: 560, Y: 310}, ZoneType: interact.ZoneLibrary},
		{Kind: interact.Seat, ID: "library-chair", Position: world.Point{X: 540, Y: 340}, Facing: world.DirUp},
	} {
		if _, err := reg.Add(it); err != nil {
			logx.Error(err, "Skipping interactable", "id", it.ID)
		}
	}
	return reg
}
