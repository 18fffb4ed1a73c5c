/*
Package campus implements the real-time session protocol of the shared campus.

This file defines the Manager, which starts rooms, looks them up by name for
the HTTP layer and stops them all on shutdown.
*/
package campus

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/logx"
)

// ErrRoomExists is returned by Open when the name is already in use.
var ErrRoomExists = errors.New("campus: room already exists")

// Manager owns the running rooms of this process.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	// wg tracks Run loops so Shutdown can wait for them.
	wg sync.WaitGroup

	logger zerolog.Logger
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{
		rooms:  make(map[string]*Room),
		logger: logx.Component("manager"),
	}
}

// Open creates a room from opts and starts its Run loop.
func (m *Manager) Open(opts RoomOptions) (*Room, error) {
	room := NewRoom(opts)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rooms == nil {
		return nil, ErrRoomStopped
	}
	if _, ok := m.rooms[room.Name]; ok {
		m.logger.Warn().Str("room", room.Name).Msg("Attempted to open existing room.")
		return nil, ErrRoomExists
	}

	m.rooms[room.Name] = room

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		room.Run()
		m.forget(room)
	}()

	m.logger.Info().Str("room", room.Name).Int("max_clients", room.MaxClients).Msg("Room opened.")
	return room, nil
}

// forget drops a room whose Run loop has exited.
func (m *Manager) forget(room *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.rooms[room.Name]; ok && current == room {
		delete(m.rooms, room.Name)
	}
}

// GetRoom returns the room with the given name, or nil.
func (m *Manager) GetRoom(name string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.rooms[name]
}

// Rooms returns the running rooms.
func (m *Manager) Rooms() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	return out
}

// Shutdown stops every room and waits for their Run loops to exit.
// Open fails afterwards.
func (m *Manager) Shutdown() {
	m.logger.Info().Msg("Shutting down rooms...")

	m.mu.Lock()
	rooms := m.rooms
	m.rooms = nil
	m.mu.Unlock()

	for _, room := range rooms {
		room.Stop()
	}
	m.wg.Wait()

	m.logger.Info().Msg("Manager shutdown complete.")
}
