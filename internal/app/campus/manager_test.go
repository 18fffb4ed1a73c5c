package campus

import (
	"errors"
	"testing"
	"time"
)

func TestManagerOpenAndLookup(t *testing.T) {
	m := NewManager()
	defer m.Shutdown()

	room, err := m.Open(RoomOptions{Name: "campus", PatchInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got := m.GetRoom("campus"); got != room {
		t.Fatalf("GetRoom returned %v, want opened room", got)
	}
	if m.GetRoom("missing") != nil {
		t.Fatalf("expected nil for unknown room")
	}
	if _, err := m.Open(RoomOptions{Name: "campus"}); !errors.Is(err, ErrRoomExists) {
		t.Fatalf("expected ErrRoomExists, got %v", err)
	}
	if len(m.Rooms()) != 1 {
		t.Fatalf("expected one room, got %d", len(m.Rooms()))
	}
}

func TestManagerForgetsStoppedRoom(t *testing.T) {
	m := NewManager()
	defer m.Shutdown()

	room, err := m.Open(RoomOptions{Name: "annex"})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	room.Stop()
	<-room.Done()

	deadline := time.Now().Add(testWait)
	for m.GetRoom("annex") != nil {
		if time.Now().After(deadline) {
			t.Fatalf("stopped room still registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestManagerShutdown(t *testing.T) {
	m := NewManager()

	room, err := m.Open(RoomOptions{Name: "campus"})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	m.Shutdown()

	select {
	case <-room.Done():
	default:
		t.Fatalf("room still running after Shutdown")
	}
	if _, err := m.Open(RoomOptions{Name: "late"}); !errors.Is(err, ErrRoomStopped) {
		t.Fatalf("expected ErrRoomStopped after shutdown, got %v", err)
	}
}
