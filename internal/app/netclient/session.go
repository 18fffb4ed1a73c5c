/*
Package netclient is the client side of the campus socket.

Join dials the server, waits for the JOINED reply and returns a Session. One
read goroutine decodes server frames: STATE patches go to the Snapshots
channel (stale sequence numbers dropped, oldest patch dropped when the
consumer falls behind) and chat lines to the Chats channel. The end of the
session is signalled once, through Done, and the Session never reconnects on
its own.
*/
package netclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/SharmaG-28/Virtual-Campus/internal/app/campus"
	"github.com/SharmaG-28/Virtual-Campus/internal/app/world"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/logx"
)

const (
	writeWait = 10 * time.Second

	// pongWait must exceed the server ping period.
	pongWait = 70 * time.Second

	defaultJoinTimeout    = 10 * time.Second
	defaultSnapshotBuffer = 16
	defaultChatBuffer     = 64
)

// ErrSessionEnded is returned by operations on a Session that has ended.
var ErrSessionEnded = errors.New("netclient: session ended")

// JoinError is returned by Join when the server refuses the join.
type JoinError struct {
	// Code is the errs code from the server, or the HTTP status when the
	// refusal happened before the upgrade.
	Code    int
	Message string
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("netclient: join refused (code %d): %s", e.Code, e.Message)
}

// refusedByHTTP builds a JoinError from a failed handshake response, which
// carries the JSON error envelope of the HTTP layer.
func refusedByHTTP(status int, body io.Reader) error {
	var envelope struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if body != nil {
		if data, err := io.ReadAll(io.LimitReader(body, 4096)); err == nil {
			_ = json.Unmarshal(data, &envelope)
		}
	}
	if envelope.Code == 0 {
		return &JoinError{Code: status, Message: "handshake rejected"}
	}
	return &JoinError{Code: envelope.Code, Message: envelope.Message}
}

// Options configures Join.
type Options struct {
	// URL is the socket endpoint, e.g. ws://localhost:2567/ws.
	URL    string
	Name   string
	Avatar string

	// Room selects a room other than the server default.
	Room string

	// Spawn requests a start position. Nil lets the server choose.
	Spawn *world.Point

	Dialer         *websocket.Dialer
	JoinTimeout    time.Duration
	SnapshotBuffer int
	ChatBuffer     int
}

// Session is one joined connection.
type Session struct {
	id   string
	room string
	conn *websocket.Conn

	writeMu sync.Mutex

	// snapshots and chats are closed by the read goroutine when it exits.
	snapshots chan world.Snapshot
	chats     chan campus.ChatPayload

	lastSeq uint64

	done    chan struct{}
	endOnce sync.Once
	errMu   sync.Mutex
	err     error

	logger zerolog.Logger
}

// Join connects to the server and blocks until the join is acknowledged,
// refused or ctx expires.
func Join(ctx context.Context, opts Options) (*Session, error) {
	endpoint, err := joinURL(opts)
	if err != nil {
		return nil, err
	}

	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.JoinTimeout <= 0 {
		opts.JoinTimeout = defaultJoinTimeout
	}
	if opts.SnapshotBuffer <= 0 {
		opts.SnapshotBuffer = defaultSnapshotBuffer
	}
	if opts.ChatBuffer <= 0 {
		opts.ChatBuffer = defaultChatBuffer
	}

	ctx, cancel := context.WithTimeout(ctx, opts.JoinTimeout)
	defer cancel()

	conn, httpResp, err := opts.Dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if httpResp != nil {
			return nil, refusedByHTTP(httpResp.StatusCode, httpResp.Body)
		}
		return nil, fmt.Errorf("netclient: dial %s: %w", opts.URL, err)
	}

	joined, err := awaitJoined(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	s := &Session{
		id:        joined.SessionID,
		room:      joined.Room,
		conn:      conn,
		snapshots: make(chan world.Snapshot, opts.SnapshotBuffer),
		chats:     make(chan campus.ChatPayload, opts.ChatBuffer),
		done:      make(chan struct{}),
		logger: logx.Component("netclient").With().
			Str("session_id", joined.SessionID).
			Str("room", joined.Room).
			Logger(),
	}

	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	go s.readLoop()

	s.logger.Info().Msg("Joined campus.")
	return s, nil
}

func joinURL(opts Options) (string, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return "", fmt.Errorf("netclient: parse url: %w", err)
	}

	q := u.Query()
	q.Set("name", opts.Name)
	q.Set("avatar", opts.Avatar)
	if opts.Room != "" {
		q.Set("room", opts.Room)
	}
	if opts.Spawn != nil {
		q.Set("x", strconv.FormatFloat(opts.Spawn.X, 'f', -1, 64))
		q.Set("y", strconv.FormatFloat(opts.Spawn.Y, 'f', -1, 64))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// awaitJoined reads frames until JOINED or ERROR arrives.
func awaitJoined(ctx context.Context, conn *websocket.Conn) (campus.JoinedPayload, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return campus.JoinedPayload{}, fmt.Errorf("netclient: waiting for JOINED: %w", err)
		}

		var env campus.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}

		switch env.Type {
		case campus.TypeJoined:
			var joined campus.JoinedPayload
			if err := json.Unmarshal(env.Payload, &joined); err != nil {
				return campus.JoinedPayload{}, fmt.Errorf("netclient: decode JOINED: %w", err)
			}
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			return joined, nil

		case campus.TypeError:
			var payload campus.ErrorPayload
			_ = json.Unmarshal(env.Payload, &payload)
			return campus.JoinedPayload{}, &JoinError{Code: payload.Code, Message: payload.Message}
		}
	}
}

// ID returns the session id assigned by the server.
func (s *Session) ID() string {
	return s.id
}

// Room returns the name of the joined room.
func (s *Session) Room() string {
	return s.room
}

// Snapshots delivers STATE patches in increasing seq order. It has a single
// consumer and is closed when the session ends.
func (s *Session) Snapshots() <-chan world.Snapshot {
	return s.snapshots
}

// Chats delivers chat lines from other participants. It is closed when the
// session ends.
func (s *Session) Chats() <-chan campus.ChatPayload {
	return s.chats
}

// Done is closed exactly once when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns why the session ended. It is nil while running and after Leave.
// A server-initiated close wraps ErrSessionEnded.
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// SendMove reports the local participant's position. Non-finite coordinates
// are dropped.
func (s *Session) SendMove(m world.Move) error {
	if !m.Finite() {
		s.logger.Debug().Msg("Dropping MOVE with non-finite coordinates.")
		return s.liveness()
	}

	return s.send(campus.TypeMove, campus.MovePayload{
		X:         &m.X,
		Y:         &m.Y,
		Animation: m.Animation,
		Direction: m.Direction,
	})
}

// SendChat sends a chat line. Empty or oversized text is dropped.
func (s *Session) SendChat(text string) error {
	if text == "" || len(text) > campus.MaxChatBytes {
		s.logger.Debug().Int("length", len(text)).Msg("Dropping CHAT with empty or oversized text.")
		return s.liveness()
	}

	return s.send(campus.TypeChat, campus.ChatRequest{Text: text})
}

// Leave closes the session. Calling it again returns ErrSessionEnded.
func (s *Session) Leave() error {
	if err := s.liveness(); err != nil {
		return err
	}

	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	s.writeMu.Unlock()

	s.end(nil)
	return nil
}

func (s *Session) liveness() error {
	select {
	case <-s.done:
		return ErrSessionEnded
	default:
		return nil
	}
}

func (s *Session) send(t campus.MessageType, payload any) error {
	if err := s.liveness(); err != nil {
		return err
	}

	data, err := campus.Encode(t, payload)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.end(err)
		return fmt.Errorf("%w: %v", ErrSessionEnded, err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.end(err)
		return fmt.Errorf("%w: %v", ErrSessionEnded, err)
	}
	return nil
}

// end records cause and closes the connection. Only the first call has effect.
func (s *Session) end(cause error) {
	s.endOnce.Do(func() {
		s.errMu.Lock()
		s.err = cause
		s.errMu.Unlock()

		close(s.done)
		_ = s.conn.Close()

		if cause != nil {
			s.logger.Warn().Err(cause).Msg("Session ended.")
		} else {
			s.logger.Info().Msg("Session left.")
		}
	})
}

func (s *Session) readLoop() {
	defer func() {
		close(s.snapshots)
		close(s.chats)
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.end(fmt.Errorf("%w: closed by server", ErrSessionEnded))
			} else {
				s.end(err)
			}
			return
		}

		s.handleFrame(data)
	}
}

func (s *Session) handleFrame(data []byte) {
	var env campus.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Debug().Err(err).Msg("Server sent invalid JSON.")
		return
	}

	switch env.Type {
	case campus.TypeState:
		var snap world.Snapshot
		if err := json.Unmarshal(env.Payload, &snap); err != nil {
			s.logger.Debug().Err(err).Msg("Dropping undecodable STATE.")
			return
		}
		s.deliverSnapshot(snap)

	case campus.TypeChat:
		var chat campus.ChatPayload
		if err := json.Unmarshal(env.Payload, &chat); err != nil {
			s.logger.Debug().Err(err).Msg("Dropping undecodable CHAT.")
			return
		}
		select {
		case s.chats <- chat:
		default:
			s.logger.Warn().Str("chat_id", chat.ID).Msg("Chat buffer full, dropping message.")
		}

	case campus.TypePlayerJoined, campus.TypePlayerLeft:
		var p campus.PresencePayload
		_ = json.Unmarshal(env.Payload, &p)
		s.logger.Debug().Str("type", string(env.Type)).Str("peer", p.SessionID).Msg("Presence update.")

	case campus.TypeError:
		var p campus.ErrorPayload
		_ = json.Unmarshal(env.Payload, &p)
		s.logger.Warn().Int("code", p.Code).Str("message", p.Message).Msg("Server reported an error.")

	default:
		s.logger.Debug().Str("type", string(env.Type)).Msg("Ignoring unknown message type.")
	}
}

// deliverSnapshot queues snap unless it is stale. When the consumer is behind,
// the oldest queued patch gives way; only this goroutine sends on the channel.
func (s *Session) deliverSnapshot(snap world.Snapshot) {
	if snap.Seq <= s.lastSeq {
		s.logger.Debug().Uint64("seq", snap.Seq).Uint64("last", s.lastSeq).Msg("Dropping stale STATE.")
		return
	}
	s.lastSeq = snap.Seq

	for {
		select {
		case s.snapshots <- snap:
			return
		default:
		}

		select {
		case <-s.snapshots:
		default:
		}
	}
}
