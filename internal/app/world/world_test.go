package world

import (
	"errors"
	"math"
	"testing"
)

func TestApplyMoveLastWriteWins(t *testing.T) {
	w := NewWorld(DefaultZones())
	w.UpsertParticipant(NewParticipant("s1", "Alex", AvatarAdam, 400, 300))

	moves := []Move{
		{X: 410, Y: 300, Animation: AnimRun, Direction: DirRight},
		{X: 420, Y: 305, Animation: AnimRun, Direction: DirDown},
		{X: 450, Y: 300, Animation: AnimIdle, Direction: DirRight},
	}
	for _, m := range moves {
		if err := w.ApplyMove("s1", m); err != nil {
			t.Fatalf("apply move: %v", err)
		}
	}

	p, ok := w.Participant("s1")
	if !ok {
		t.Fatalf("participant missing after moves")
	}
	last := moves[len(moves)-1]
	if p.X != last.X || p.Y != last.Y || p.Animation != last.Animation || p.Direction != last.Direction {
		t.Fatalf("expected last move %+v to win, got %+v", last, p)
	}

	if err := w.ApplyMove("s1", last); err != nil {
		t.Fatalf("reapply move: %v", err)
	}
	again, _ := w.Participant("s1")
	if again != p {
		t.Fatalf("reapplying the same move changed state: %+v vs %+v", again, p)
	}
}

func TestApplyMoveUnknownParticipant(t *testing.T) {
	w := NewWorld(nil)
	err := w.ApplyMove("ghost", Move{X: 1, Y: 2})
	if !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("expected ErrParticipantNotFound, got %v", err)
	}
	if w.Len() != 0 {
		t.Fatalf("move on unknown id must not create a participant")
	}
}

func TestApplyMoveRejectsNonFiniteWithoutPartialUpdate(t *testing.T) {
	w := NewWorld(nil)
	w.UpsertParticipant(NewParticipant("s1", "Alex", AvatarAdam, 10, 20))

	err := w.ApplyMove("s1", Move{X: math.Inf(1), Y: 5, Animation: AnimRun, Direction: DirLeft})
	if !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("expected ErrInvalidMove, got %v", err)
	}

	p, _ := w.Participant("s1")
	if p.X != 10 || p.Y != 20 || p.Animation != AnimIdle || p.Direction != DirDown {
		t.Fatalf("rejected move partially applied: %+v", p)
	}
}

func TestRemoveParticipant(t *testing.T) {
	w := NewWorld(nil)
	w.UpsertParticipant(NewParticipant("s1", "Alex", AvatarAdam, 0, 0))

	if !w.RemoveParticipant("s1") {
		t.Fatalf("expected first remove to report presence")
	}
	if w.RemoveParticipant("s1") {
		t.Fatalf("expected second remove to report absence")
	}
	if _, ok := w.Snapshot(1).Participant("s1"); ok {
		t.Fatalf("removed participant still in snapshot")
	}
}

func TestSnapshotIsDetachedAndDerivesZone(t *testing.T) {
	w := NewWorld(DefaultZones())
	w.UpsertParticipant(NewParticipant("b", "Bo", AvatarAsh, 410, 260))
	w.UpsertParticipant(NewParticipant("a", "Al", AvatarLucy, 5, 5))

	snap := w.Snapshot(7)
	if snap.Seq != 7 {
		t.Fatalf("expected seq 7, got %d", snap.Seq)
	}
	if len(snap.Participants) != 2 || snap.Participants[0].ID != "a" || snap.Participants[1].ID != "b" {
		t.Fatalf("expected participants ordered by id, got %+v", snap.Participants)
	}
	if snap.Participants[0].CurrentZoneID != "" {
		t.Fatalf("participant outside every zone got zone %q", snap.Participants[0].CurrentZoneID)
	}
	if snap.Participants[1].CurrentZoneID != "gaming" {
		t.Fatalf("expected gaming zone, got %q", snap.Participants[1].CurrentZoneID)
	}

	snap.Participants[1].X = 0
	snap.Zones[0].Name = "changed"
	p, _ := w.Participant("b")
	if p.X != 410 {
		t.Fatalf("mutating snapshot leaked into world")
	}
	if w.Zones()[0].Name == "changed" {
		t.Fatalf("mutating snapshot zones leaked into world")
	}

	if err := w.ApplyMove("b", Move{X: 5, Y: 5, Animation: AnimIdle, Direction: DirDown}); err != nil {
		t.Fatalf("apply move: %v", err)
	}
	if z := w.Snapshot(8).Participants[1].CurrentZoneID; z != "" {
		t.Fatalf("zone not recomputed after move, still %q", z)
	}
}

func TestZoneContainsEdgesAndDegenerate(t *testing.T) {
	z := Zone{X: 10, Y: 10, Width: 5, Height: 5}
	cases := []struct {
		x, y float64
		want bool
	}{
		{10, 10, true},
		{15, 15, true},
		{12, 12, true},
		{9.9, 12, false},
		{12, 15.1, false},
	}
	for _, c := range cases {
		if got := z.Contains(c.x, c.y); got != c.want {
			t.Errorf("Contains(%v,%v) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
	if (Zone{X: 0, Y: 0}).Contains(0, 0) {
		t.Errorf("zero-size zone must contain nothing")
	}
}
