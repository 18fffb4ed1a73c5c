package interact

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/SharmaG-28/Virtual-Campus/internal/app/engine"
	"github.com/SharmaG-28/Virtual-Campus/internal/app/world"
)

var testZones = []world.Zone{
	{ID: "career1", Name: "Career Center", X: 0, Y: 0, Width: 200, Height: 200, Type: ZoneCareer},
	{ID: "arcade", Name: "Arcade", X: 300, Y: 0, Width: 200, Height: 200, Type: world.ZoneGaming},
	{ID: "hall", Name: "Academic Hall", X: 0, Y: 300, Width: 200, Height: 200, Type: "academic"},
	{ID: "club1", Name: "Chess Club", X: 300, Y: 300, Width: 200, Height: 200, Type: "club-chess"},
	{ID: "lounge", Name: "Lounge", X: 600, Y: 0, Width: 200, Height: 200, Type: world.ZoneSocial},
}

func mustAdd(t *testing.T, reg *Registry, it Interactable) Handle {
	t.Helper()
	h, err := reg.Add(it)
	if err != nil {
		t.Fatalf("Add(%+v): %v", it, err)
	}
	return h
}

type recordingSink struct {
	got []Activation
}

func (s *recordingSink) Activate(a Activation) {
	s.got = append(s.got, a)
}

func TestRegistryAdd(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.Add(Interactable{Kind: 0, ID: "x"}); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
	if _, err := reg.Add(Interactable{Kind: Seat, ID: "x", Position: world.Point{X: 1, Y: math.Inf(1)}}); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}

	h := mustAdd(t, reg, Interactable{Kind: Seat, ID: "chair", Facing: "sideways", OccupiedBy: "ghost"})
	seat, ok := reg.Get(h)
	if !ok || seat.Facing != world.DirDown || seat.OccupiedBy != "" {
		t.Fatalf("seat not normalized on add: %+v", seat)
	}

	mustAdd(t, reg, Interactable{Kind: Terminal, ID: "pc"})
	if reg.Len() != 2 || len(reg.OfKind(Seat)) != 1 || len(reg.OfKind(Cupboard)) != 0 {
		t.Fatalf("unexpected index: len=%d", reg.Len())
	}
	if _, ok := reg.Get(Handle(7)); ok {
		t.Fatalf("Get out of range succeeded")
	}
}

func TestNearestOfTypeIsStrict(t *testing.T) {
	reg := NewRegistry()
	mustAdd(t, reg, Interactable{Kind: Terminal, ID: "far", Position: world.Point{X: 64, Y: 0}})

	if _, ok := reg.NearestOfType(Terminal, world.Point{}, InteractRange); ok {
		t.Fatalf("object exactly at the range must not match")
	}

	near := mustAdd(t, reg, Interactable{Kind: Terminal, ID: "near", Position: world.Point{X: 30, Y: 40}})
	h, ok := reg.NearestOfType(Terminal, world.Point{}, InteractRange)
	if !ok || h != near {
		t.Fatalf("expected near terminal, got %v %v", h, ok)
	}
}

func TestNearestAnySkipsSeats(t *testing.T) {
	reg := NewRegistry()
	mustAdd(t, reg, Interactable{Kind: Seat, ID: "chair", Position: world.Point{X: 1, Y: 0}})
	board := mustAdd(t, reg, Interactable{Kind: Noticeboard, ID: "board", Position: world.Point{X: 20, Y: 0}})
	mustAdd(t, reg, Interactable{Kind: Cupboard, ID: "shelf", Position: world.Point{X: 25, Y: 0}})

	h, ok := reg.NearestAny(world.Point{}, InteractRange)
	if !ok || h != board {
		t.Fatalf("expected board, got %v %v", h, ok)
	}
}

func TestZonePriorityPrefersTerminalInCareerZone(t *testing.T) {
	reg := NewRegistry()
	pos := world.Point{X: 100, Y: 100}
	mustAdd(t, reg, Interactable{Kind: Noticeboard, ID: "board", Position: world.Point{X: 100, Y: 70}})
	term := mustAdd(t, reg, Interactable{Kind: Terminal, ID: "pc", Position: world.Point{X: 100, Y: 140}})

	sink := &recordingSink{}
	r := NewResolver(reg, testZones, sink)

	// The noticeboard is closer, but the career zone hands the key to the terminal.
	h, ok := r.Resolve(pos, ZoneCareer)
	if !ok || h != term {
		t.Fatalf("expected terminal, got %v %v", h, ok)
	}

	out := r.HandleKey(KeyInteract, "me", pos)
	if !out.Activated || out.Activation.Event != "open-career-portal" || out.Activation.ZoneID != "career1" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if len(sink.got) != 1 || sink.got[0].ObjectID != "pc" {
		t.Fatalf("sink got %+v", sink.got)
	}
}

func TestResolveOrder(t *testing.T) {
	reg := NewRegistry()
	board := mustAdd(t, reg, Interactable{Kind: Noticeboard, ID: "board", Position: world.Point{X: 400, Y: 90}})
	table := mustAdd(t, reg, Interactable{Kind: ActivityTable, ID: "table", Position: world.Point{X: 400, Y: 140}, GameType: "chess"})
	shelf := mustAdd(t, reg, Interactable{Kind: Cupboard, ID: "shelf", Position: world.Point{X: 400, Y: 420}})
	board2 := mustAdd(t, reg, Interactable{Kind: Noticeboard, ID: "board2", Position: world.Point{X: 400, Y: 395}})

	r := NewResolver(reg, testZones, nil)

	if h, _ := r.Resolve(world.Point{X: 400, Y: 100}, world.ZoneGaming); h != table {
		t.Fatalf("gaming zone must prefer the activity table")
	}
	if h, _ := r.Resolve(world.Point{X: 400, Y: 100}, world.ZoneSocial); h != board {
		t.Fatalf("outside themed zones noticeboards come first")
	}
	if h, _ := r.Resolve(world.Point{X: 400, Y: 400}, "club-chess"); h != shelf {
		t.Fatalf("club zone must prefer the cupboard over a closer noticeboard")
	}
	if h, _ := r.Resolve(world.Point{X: 400, Y: 400}, ""); h != board2 {
		t.Fatalf("outside any zone the noticeboard wins")
	}

	// Nothing preferred or noticeboard in range: nearest of any kind.
	if h, _ := r.Resolve(world.Point{X: 400, Y: 470}, world.ZoneSocial); h != shelf {
		t.Fatalf("expected generic fallback to the cupboard")
	}

	out := r.HandleKey(KeyInteract, "me", world.Point{X: 400, Y: 400})
	if out.Activation.Event != "open-club-resources" || out.Activation.ZoneID != "club1" {
		t.Fatalf("unexpected cupboard activation %+v", out.Activation)
	}

	if out := r.HandleKey(KeyInteract, "me", world.Point{X: 900, Y: 900}); out.Activated {
		t.Fatalf("nothing in range must be a no-op, got %+v", out)
	}
}

func TestActivationEvents(t *testing.T) {
	cases := []struct {
		it       Interactable
		zoneType string
		want     string
	}{
		{Interactable{Kind: Noticeboard}, "", "open-whiteboard"},
		{Interactable{Kind: Terminal}, ZoneCoding, "open-coding-portal"},
		{Interactable{Kind: Terminal}, "", "open-computer-portal"},
		{Interactable{Kind: Terminal, ZoneType: "finance"}, ZoneCareer, "open-finance-portal"},
		{Interactable{Kind: Cupboard}, ZoneMarket, "open-marketplace"},
		{Interactable{Kind: Cupboard}, "", "open-cupboard-resources"},
		{Interactable{Kind: Cupboard, ZoneType: ZoneLibrary}, "", "open-elibrary"},
		{Interactable{Kind: Cupboard, ZoneType: "lab"}, "", "open-lab-resources"},
		{Interactable{Kind: ActivityTable}, "", "open-game-selection"},
	}
	for _, c := range cases {
		a, ok := activationFor(c.it, c.zoneType, "me")
		if !ok || a.Event != c.want {
			t.Errorf("activationFor(%v, %q) = %q, want %q", c.it.Kind, c.zoneType, a.Event, c.want)
		}
	}

	if a, _ := activationFor(Interactable{Kind: ActivityTable}, "", "me"); a.GameType != "general" {
		t.Errorf("activity table game type defaults to general, got %q", a.GameType)
	}
	if _, ok := activationFor(Interactable{Kind: Seat}, "", "me"); ok {
		t.Errorf("seats have no activation")
	}

	zones := map[string]string{
		"academic":       "open-academic-portal",
		ZoneLibrary:      "open-elibrary-portal",
		ZoneMarket:       "open-marketplace-portal",
		world.ZoneGaming: "open-game-selection-portal",
		"club-drama":     "open-club-resources-portal",
		ZoneCareer:       "open-career-portal",
	}
	for zt, want := range zones {
		if got := zoneActivation(world.Zone{ID: "z", Type: zt}, "me").Event; got != want {
			t.Errorf("zoneActivation(%q) = %q, want %q", zt, got, want)
		}
	}
}

func TestZoneKeyRespectsAllowList(t *testing.T) {
	sink := &recordingSink{}
	r := NewResolver(NewRegistry(), testZones, sink)

	if out := r.HandleKey(KeyZone, "me", world.Point{X: 100, Y: 400}); !out.Activated || out.Activation.Event != "open-academic-portal" {
		t.Fatalf("academic zone should activate, got %+v", out)
	}
	if out := r.HandleKey(KeyZone, "me", world.Point{X: 700, Y: 100}); out.Activated {
		t.Fatalf("social zone is not allow-listed, got %+v", out)
	}
	if out := r.HandleKey(KeyZone, "me", world.Point{X: 900, Y: 900}); out.Activated {
		t.Fatalf("outside every zone the key is a no-op")
	}
	if len(sink.got) != 1 {
		t.Fatalf("sink got %+v", sink.got)
	}

	r = NewResolver(NewRegistry(), testZones, nil, WithZoneAllowList(world.ZoneSocial))
	if out := r.HandleKey(KeyZone, "me", world.Point{X: 700, Y: 100}); out.Activation.Event != "open-social-portal" {
		t.Fatalf("custom allow-list not honored, got %+v", out)
	}
}

func TestGameKeyFindsTableAnywhere(t *testing.T) {
	reg := NewRegistry()
	mustAdd(t, reg, Interactable{Kind: ActivityTable, ID: "pool", Position: world.Point{X: 700, Y: 150}, GameType: "pool"})
	r := NewResolver(reg, testZones, nil)

	out := r.HandleKey(KeyGame, "me", world.Point{X: 700, Y: 120})
	if !out.Activated || out.Activation.GameType != "pool" {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestAtMostOneHint(t *testing.T) {
	reg := NewRegistry()
	board := mustAdd(t, reg, Interactable{Kind: Noticeboard, ID: "board", Position: world.Point{X: 100, Y: 350}})
	chair := mustAdd(t, reg, Interactable{Kind: Seat, ID: "chair", Position: world.Point{X: 100, Y: 480}})
	r := NewResolver(reg, testZones, nil)

	path := []world.Point{}
	for y := 250.0; y <= 560; y += 5 {
		path = append(path, world.Point{X: 100, Y: y})
	}

	var sawObject, sawSeat, sawZone bool
	for _, pos := range path {
		hint := r.Update(pos)
		if n := r.HintCount(); n > 1 {
			t.Fatalf("%d hints at %+v", n, pos)
		}
		switch hint.Kind {
		case HintObject:
			sawObject = sawObject || hint.Object == board
		case HintSeat:
			sawSeat = sawSeat || hint.Object == chair
		case HintZone:
			sawZone = sawZone || hint.ZoneID == "hall"
		}
	}
	if !sawObject || !sawSeat || !sawZone {
		t.Fatalf("walk should meet every hint kind: object=%v seat=%v zone=%v", sawObject, sawSeat, sawZone)
	}

	r.Update(world.Point{X: 900, Y: 900})
	if r.HintCount() != 0 || r.Hint().Kind != HintNone {
		t.Fatalf("expected no hint far away")
	}
}

func TestOccupiedSeatHasNoHint(t *testing.T) {
	reg := NewRegistry()
	mustAdd(t, reg, Interactable{Kind: Seat, ID: "chair", Position: world.Point{X: 700, Y: 100}})
	r := NewResolver(reg, testZones, nil)

	if _, err := r.Sit("bo", world.Point{X: 700, Y: 110}); err != nil {
		t.Fatalf("Sit: %v", err)
	}
	if hint := r.Update(world.Point{X: 700, Y: 110}); hint.Kind != HintNone {
		t.Fatalf("occupied seat hinted: %+v", hint)
	}
}

func TestFreeSeatBehindOccupiedOneIsUsed(t *testing.T) {
	reg := NewRegistry()
	near := mustAdd(t, reg, Interactable{Kind: Seat, ID: "near", Position: world.Point{X: 700, Y: 100}})
	far := mustAdd(t, reg, Interactable{Kind: Seat, ID: "far", Position: world.Point{X: 720, Y: 100}})
	r := NewResolver(reg, testZones, nil)

	if _, err := r.Sit("bo", world.Point{X: 700, Y: 105}); err != nil {
		t.Fatalf("Sit bo: %v", err)
	}
	if seat, _ := reg.Get(near); seat.OccupiedBy != "bo" {
		t.Fatalf("bo should hold the nearer seat: %+v", seat)
	}

	pos := world.Point{X: 705, Y: 110}
	if hint := r.Update(pos); hint.Kind != HintSeat || hint.Object != far {
		t.Fatalf("expected hint for the free seat, got %+v", hint)
	}

	got, err := r.Sit("me", pos)
	if err != nil {
		t.Fatalf("Sit me: %v", err)
	}
	if got.Seat != far || got.Position != (world.Point{X: 720, Y: 108}) {
		t.Fatalf("unexpected seating %+v", got)
	}

	if _, err := r.Sit("cy", pos); !errors.Is(err, ErrSeatTaken) {
		t.Fatalf("expected ErrSeatTaken with both seats occupied, got %v", err)
	}
	if hint := r.Update(pos); hint.Kind == HintSeat {
		t.Fatalf("occupied seats hinted: %+v", hint)
	}
}

func TestSitAndStand(t *testing.T) {
	reg := NewRegistry()
	chair := mustAdd(t, reg, Interactable{Kind: Seat, ID: "chair", Position: world.Point{X: 100, Y: 100}, Facing: world.DirLeft})

	eng := engine.New(engine.DefaultConfig(), "me", world.AvatarAdam, nil, nil)
	eng.ApplySnapshot(world.Snapshot{Seq: 1, Participants: []world.Participant{
		world.NewParticipant("me", "Alex", world.AvatarAdam, 100, 130),
	}})
	r := NewResolver(reg, testZones, nil)

	pos, _ := eng.LocalPosition()
	out := r.HandleKey(KeySit, "me", pos)
	if !out.Sat || out.Seating.Seat != chair {
		t.Fatalf("expected to sit on chair, got %+v", out)
	}
	if seat, _ := reg.Get(chair); seat.OccupiedBy != "me" {
		t.Fatalf("seat not occupied: %+v", seat)
	}
	if err := eng.SitAt(out.Seating.Position, out.Seating.Facing); err != nil {
		t.Fatalf("SitAt: %v", err)
	}

	base := time.Unix(0, 0)
	for i := range 10 {
		eng.Frame(base.Add(time.Duration(i)*16*time.Millisecond), 16*time.Millisecond, engine.Input{Left: true, Down: true})
	}
	if got, _ := eng.LocalPosition(); got != (world.Point{X: 100, Y: 108}) {
		t.Fatalf("input moved a seated participant to %+v", got)
	}
	if anim := eng.LocalAnimation(); anim != "adam_sit_left" {
		t.Fatalf("expected adam_sit_left, got %q", anim)
	}

	if _, err := r.Sit("me", pos); !errors.Is(err, ErrAlreadySeated) {
		t.Fatalf("second sit: %v", err)
	}
	if _, err := r.Sit("bo", pos); !errors.Is(err, ErrSeatTaken) {
		t.Fatalf("taken seat: %v", err)
	}

	if out := r.HandleKey(KeyStand, "me", pos); !out.Stood {
		t.Fatalf("expected to stand")
	}
	eng.Stand()
	if seat, _ := reg.Get(chair); seat.OccupiedBy != "" {
		t.Fatalf("seat still occupied after standing")
	}
	if anim := eng.LocalAnimation(); anim != "adam_idle_left" {
		t.Fatalf("expected idle in last facing, got %q", anim)
	}

	eng.Frame(base.Add(time.Second), 16*time.Millisecond, engine.Input{Right: true})
	if got, _ := eng.LocalPosition(); got.X <= 100 {
		t.Fatalf("input ignored after standing: %+v", got)
	}

	if out := r.HandleKey(KeyStand, "me", pos); out.Stood {
		t.Fatalf("standing twice must be a no-op")
	}
	if _, err := r.Sit("me", world.Point{X: 100, Y: 140}); !errors.Is(err, ErrNoSeat) {
		t.Fatalf("seat at distance 40 must be out of range, got %v", err)
	}
}

func TestDepartureFreesSeat(t *testing.T) {
	reg := NewRegistry()
	chair := mustAdd(t, reg, Interactable{Kind: Seat, ID: "chair", Position: world.Point{X: 100, Y: 100}})
	r := NewResolver(reg, testZones, nil)

	eng := engine.New(engine.DefaultConfig(), "me", world.AvatarAdam, nil, nil)
	eng.OnDepart(func(id string) { r.Release(id) })

	sitting := world.NewParticipant("bo", "Bo", world.AvatarLucy, 100, 108)
	sitting.Animation = "lucy_sit_down"
	s1 := world.Snapshot{Seq: 1, Participants: []world.Participant{
		world.NewParticipant("me", "Alex", world.AvatarAdam, 10, 10),
		sitting,
	}}
	eng.ApplySnapshot(s1)
	r.Observe(s1, "me")

	if seat, _ := reg.Get(chair); seat.OccupiedBy != "bo" {
		t.Fatalf("remote sit not mirrored: %+v", seat)
	}

	s2 := world.Snapshot{Seq: 2, Participants: s1.Participants[:1]}
	eng.ApplySnapshot(s2)
	if seat, _ := reg.Get(chair); seat.OccupiedBy != "" {
		t.Fatalf("seat still held after departure: %+v", seat)
	}
	if _, ok := r.Seated("bo"); ok {
		t.Fatalf("departed participant still seated")
	}
}

func TestObserveStandsRemoteUp(t *testing.T) {
	reg := NewRegistry()
	chair := mustAdd(t, reg, Interactable{Kind: Seat, ID: "chair", Position: world.Point{X: 100, Y: 100}})
	r := NewResolver(reg, testZones, nil)

	bo := world.NewParticipant("bo", "Bo", world.AvatarAdam, 100, 108)
	bo.Animation = world.AnimSit
	r.Observe(world.Snapshot{Seq: 1, Participants: []world.Participant{bo}}, "me")
	if _, ok := r.Seated("bo"); !ok {
		t.Fatalf("expected bo seated")
	}

	bo.Animation = world.AnimRun
	r.Observe(world.Snapshot{Seq: 2, Participants: []world.Participant{bo}}, "me")
	if seat, _ := reg.Get(chair); seat.OccupiedBy != "" {
		t.Fatalf("seat kept after remote stood: %+v", seat)
	}

	// The local participant's seat is never touched by snapshots.
	if _, err := r.Sit("me", world.Point{X: 100, Y: 108}); err != nil {
		t.Fatalf("Sit: %v", err)
	}
	r.Observe(world.Snapshot{Seq: 3}, "me")
	if _, ok := r.Seated("me"); !ok {
		t.Fatalf("local seat released by Observe")
	}
}
