/*
Package campus implements the real-time session protocol of the shared campus.

This file defines the Room, the single owner of one world.World. Every
mutation (join, leave, move, chat) arrives on one ordered inbox and is applied
by the Run loop; a ticker in the same loop pushes a full STATE patch to every
client. Sends to clients never block: a client whose queue is full is dropped.
*/
package campus

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/SharmaG-28/Virtual-Campus/internal/app/world"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/errs"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/logx"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/randx"
)

const (
	inboxBuffer = 1024

	// registerTimeout bounds how long a join waits for a congested inbox.
	registerTimeout = 2 * time.Second

	// DefaultPatchInterval is the STATE broadcast cadence (20 Hz).
	DefaultPatchInterval = 50 * time.Millisecond

	// DefaultMaxClients is the participant capacity of a room.
	DefaultMaxClients = 100

	// MaxChatBytes is the longest chat text accepted.
	MaxChatBytes = 500

	// MaxNameRunes is the longest display name accepted at join.
	MaxNameRunes = 32
)

// ErrRoomStopped is returned when an operation reaches a room whose Run loop has exited.
var ErrRoomStopped = errors.New("campus: room stopped")

// RoomOptions configures NewRoom. Zero values select the defaults.
type RoomOptions struct {
	Name          string
	Zones         []world.Zone
	MaxClients    int
	PatchInterval time.Duration

	// SpawnWidth and SpawnHeight bound the random spawn area anchored at the origin.
	SpawnWidth  float64
	SpawnHeight float64

	// Rand drives spawn placement. Nil seeds a fresh generator.
	Rand *rand.Rand

	// Now stamps chat messages. Nil means time.Now.
	Now func() time.Time
}

type eventKind int

const (
	eventRegister eventKind = iota
	eventUnregister
	eventMove
	eventChat
)

// event is one entry of the room inbox.
type event struct {
	kind   eventKind
	client *Client
	move   world.Move
	text   string
}

// Stats is a point-in-time view of a room for monitoring endpoints.
type Stats struct {
	Name            string `json:"name"`
	Participants    int    `json:"participants"`
	MaxClients      int    `json:"maxClients"`
	Seq             uint64 `json:"seq"`
	PatchIntervalMs int64  `json:"patchIntervalMs"`
}

// Room is one running campus world.
type Room struct {
	// Name identifies the room in URLs and logs.
	Name string

	// MaxClients is the participant capacity.
	MaxClients int

	patchInterval time.Duration
	spawnW        float64
	spawnH        float64
	rng           *rand.Rand
	now           func() time.Time

	// zones is the immutable catalog, readable from any goroutine.
	zones []world.Zone

	// state and clients are owned by the Run loop.
	state   *world.World
	clients map[string]*Client

	inbox    chan event
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// occupancy and seq mirror Run-owned values for readers on other goroutines.
	occupancy atomic.Int64
	seq       atomic.Uint64

	logger zerolog.Logger
}

// NewRoom creates a room. Call Run to start it.
func NewRoom(opts RoomOptions) *Room {
	if opts.Name == "" {
		opts.Name = "campus"
	}
	if opts.MaxClients <= 0 {
		opts.MaxClients = DefaultMaxClients
	}
	if opts.PatchInterval <= 0 {
		opts.PatchInterval = DefaultPatchInterval
	}
	if opts.SpawnWidth <= 0 {
		opts.SpawnWidth = 800
	}
	if opts.SpawnHeight <= 0 {
		opts.SpawnHeight = 600
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	state := world.NewWorld(opts.Zones)

	return &Room{
		Name:          opts.Name,
		MaxClients:    opts.MaxClients,
		patchInterval: opts.PatchInterval,
		spawnW:        opts.SpawnWidth,
		spawnH:        opts.SpawnHeight,
		rng:           opts.Rand,
		now:           opts.Now,
		zones:         state.Zones(),
		state:         state,
		clients:       make(map[string]*Client),
		inbox:         make(chan event, inboxBuffer),
		stopChan:      make(chan struct{}),
		done:          make(chan struct{}),
		logger:        logx.Component("room").With().Str("room", opts.Name).Logger(),
	}
}

// Zones returns a copy of the room's zone catalog.
func (r *Room) Zones() []world.Zone {
	out := make([]world.Zone, len(r.zones))
	copy(out, r.zones)
	return out
}

// Len returns the number of registered participants.
func (r *Room) Len() int {
	return int(r.occupancy.Load())
}

// IsFull reports whether the room has reached MaxClients.
func (r *Room) IsFull() bool {
	return r.Len() >= r.MaxClients
}

// Stats returns counters for monitoring.
func (r *Room) Stats() Stats {
	return Stats{
		Name:            r.Name,
		Participants:    r.Len(),
		MaxClients:      r.MaxClients,
		Seq:             r.seq.Load(),
		PatchIntervalMs: r.patchInterval.Milliseconds(),
	}
}

// Done is closed after the Run loop has exited.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Stop asks the Run loop to exit. It is safe to call more than once.
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		r.logger.Info().Msg("Received stop signal. Stopping room.")
		close(r.stopChan)
	})
}

// ValidateJoin checks the identity supplied by a joining client.
func ValidateJoin(name, avatar string) *errs.CustomError {
	if name == "" || avatar == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if utf8.RuneCountInString(name) > MaxNameRunes {
		return errs.NewError(errs.ErrNameTooLong, MaxNameRunes)
	}
	if !world.IsValidAvatar(avatar) {
		return errs.NewError(errs.ErrAvatarInvalid)
	}
	return nil
}

// RegisterClient queues c for admission. If the room cannot take the request
// in time the client receives an ERROR and its queue is closed.
func (r *Room) RegisterClient(c *Client) {
	select {
	case <-r.done:
		c.logger.Warn().Msg("Register attempted on stopped room.")
		c.SendError(errs.NewError(errs.ErrRoomBusy))
		c.closeSend()
		return
	default:
	}

	timer := time.NewTimer(registerTimeout)
	defer timer.Stop()

	select {
	case r.inbox <- event{kind: eventRegister, client: c}:
		return
	case <-r.done:
		c.logger.Warn().Msg("Register attempted on stopped room.")
	case <-timer.C:
		c.logger.Warn().Msg("Room inbox congested. Register rejected.")
	}

	c.SendError(errs.NewError(errs.ErrRoomBusy))
	c.closeSend()
}

// UnregisterClient queues c for removal. It blocks until the room accepts the
// request or has stopped, so a disconnect is never lost.
func (r *Room) UnregisterClient(c *Client) {
	select {
	case r.inbox <- event{kind: eventUnregister, client: c}:
	case <-r.done:
	}
}

// submit queues a MOVE or CHAT. A full inbox drops the message.
func (r *Room) submit(ev event) {
	select {
	case r.inbox <- ev:
	case <-r.done:
	default:
		ev.client.logger.Warn().Int("kind", int(ev.kind)).Msg("Room inbox full, dropping inbound message.")
	}
}

// Run is the room event loop. It returns when Stop is called.
func (r *Room) Run() {
	ticker := time.NewTicker(r.patchInterval)

	defer func() {
		ticker.Stop()
		for id, c := range r.clients {
			c.closeSend()
			r.state.RemoveParticipant(id)
			delete(r.clients, id)
		}
		r.occupancy.Store(0)
		close(r.done)
		r.drainInbox()
		r.logger.Info().Msg("Room Run loop finished.")
	}()

	r.logger.Info().
		Int("zones", len(r.zones)).
		Dur("patch_interval", r.patchInterval).
		Int("max_clients", r.MaxClients).
		Msg("Room Run loop started.")

	for {
		select {
		case ev := <-r.inbox:
			r.handle(ev)

		case <-ticker.C:
			r.broadcastPatch()

		case <-r.stopChan:
			r.logger.Info().Msg("Room forced stop initiated.")
			return
		}
	}
}

// drainInbox closes clients whose registration was queued but never admitted.
func (r *Room) drainInbox() {
	for {
		select {
		case ev := <-r.inbox:
			if ev.kind == eventRegister {
				ev.client.closeSend()
			}
		default:
			return
		}
	}
}

func (r *Room) handle(ev event) {
	switch ev.kind {
	case eventRegister:
		r.admit(ev.client)
	case eventUnregister:
		r.removeClient(ev.client, "disconnect")
	case eventMove:
		r.applyMove(ev.client, ev.move)
	case eventChat:
		r.relayChat(ev.client, ev.text)
	}
}

// isCurrent reports whether c is the live connection for its session id.
func (r *Room) isCurrent(c *Client) bool {
	current, ok := r.clients[c.ID()]
	return ok && current == c
}

func (r *Room) admit(c *Client) {
	if _, exists := r.clients[c.ID()]; exists {
		r.logger.Warn().Str("client_id", c.ID()).Msg("Duplicate session id rejected.")
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		c.closeSend()
		return
	}

	if len(r.clients) >= r.MaxClients {
		r.logger.Warn().
			Int("max_clients", r.MaxClients).
			Str("client_id", c.ID()).
			Msg("Room is full. New client rejected.")
		c.SendError(errs.NewError(errs.ErrRoomIsFull))
		c.closeSend()
		return
	}

	x, y := r.spawnPoint(c.spawn)
	p := world.NewParticipant(c.ID(), c.name, c.avatar, x, y)

	r.clients[p.ID] = c
	r.state.UpsertParticipant(p)
	r.occupancy.Store(int64(len(r.clients)))

	r.logger.Info().
		Str("client_id", p.ID).
		Str("name", p.Name).
		Float64("x", x).
		Float64("y", y).
		Int("total_users", len(r.clients)).
		Msg("Client joined room.")

	joined, err := Encode(TypeJoined, JoinedPayload{
		SessionID:       p.ID,
		Room:            r.Name,
		PatchIntervalMs: r.patchInterval.Milliseconds(),
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to build JOINED message.")
	} else if !c.enqueue(joined) {
		r.removeClient(c, "send queue full")
		return
	}

	// The joiner gets its first patch right away instead of waiting a tick.
	seq := r.seq.Add(1)
	if state, err := Encode(TypeState, r.state.Snapshot(seq)); err == nil {
		if !c.enqueue(state) {
			r.removeClient(c, "send queue full")
			return
		}
	}

	r.broadcastExcept(p.ID, TypePlayerJoined, PresencePayload{SessionID: p.ID, Name: p.Name})
}

func (r *Room) removeClient(c *Client, reason string) {
	if !r.isCurrent(c) {
		r.logger.Debug().Str("client_id", c.ID()).Msg("Ignoring unregister for unknown or stale client.")
		return
	}

	delete(r.clients, c.ID())
	r.state.RemoveParticipant(c.ID())
	r.occupancy.Store(int64(len(r.clients)))
	c.closeSend()

	r.logger.Info().
		Str("client_id", c.ID()).
		Str("reason", reason).
		Int("total_users", len(r.clients)).
		Msg("Client left room.")

	r.broadcastExcept(c.ID(), TypePlayerLeft, PresencePayload{SessionID: c.ID()})
}

func (r *Room) applyMove(c *Client, m world.Move) {
	if !r.isCurrent(c) {
		r.logger.Debug().Str("client_id", c.ID()).Msg("Dropping MOVE from stale client.")
		return
	}
	if err := r.state.ApplyMove(c.ID(), m); err != nil {
		r.logger.Debug().Err(err).Str("client_id", c.ID()).Msg("Dropping MOVE.")
	}
}

func (r *Room) relayChat(c *Client, text string) {
	if !r.isCurrent(c) {
		r.logger.Debug().Str("client_id", c.ID()).Msg("Dropping CHAT from stale client.")
		return
	}
	sender, ok := r.state.Participant(c.ID())
	if !ok {
		return
	}

	r.logger.Debug().Str("client_id", sender.ID).Int("length", len(text)).Msg("Relaying chat message.")

	r.broadcastExcept(sender.ID, TypeChat, ChatPayload{
		ID:         randx.MessageID(),
		SenderID:   sender.ID,
		SenderName: sender.Name,
		Message:    text,
		Timestamp:  r.now().UnixMilli(),
	})
}

// broadcastPatch sends one STATE patch to every client. Clients that cannot
// keep up are removed after the fan-out.
func (r *Room) broadcastPatch() {
	if len(r.clients) == 0 {
		return
	}

	seq := r.seq.Add(1)
	data, err := Encode(TypeState, r.state.Snapshot(seq))
	if err != nil {
		r.logger.Error().Err(err).Uint64("seq", seq).Msg("Error marshaling STATE patch.")
		return
	}

	r.fanOut("", data)
}

func (r *Room) broadcastExcept(senderID string, t MessageType, payload any) {
	data, err := Encode(t, payload)
	if err != nil {
		r.logger.Error().Err(err).Str("type", string(t)).Msg("Error marshaling broadcast.")
		return
	}
	r.fanOut(senderID, data)
}

func (r *Room) fanOut(exceptID string, data []byte) {
	var slow []*Client
	for id, c := range r.clients {
		if id == exceptID {
			continue
		}
		if !c.enqueue(data) {
			slow = append(slow, c)
		}
	}

	for _, c := range slow {
		r.logger.Warn().Str("client_id", c.ID()).Msg("Client send queue full, unregistering.")
		r.removeClient(c, "send queue full")
	}
}

// spawnPoint uses the requested point when it is finite, otherwise a random
// whole-number point inside the spawn area.
func (r *Room) spawnPoint(requested *world.Point) (float64, float64) {
	if requested != nil && !math.IsNaN(requested.X) && !math.IsNaN(requested.Y) &&
		!math.IsInf(requested.X, 0) && !math.IsInf(requested.Y, 0) {
		return requested.X, requested.Y
	}
	return math.Floor(r.rng.Float64() * r.spawnW), math.Floor(r.rng.Float64() * r.spawnH)
}
