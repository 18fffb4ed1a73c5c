package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SharmaG-28/Virtual-Campus/internal/app/campus"
	"github.com/SharmaG-28/Virtual-Campus/internal/app/world"
	"github.com/SharmaG-28/Virtual-Campus/internal/configs"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/errs"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/resp"
)

func newTestServer(t *testing.T, cfg *configs.AppConfig) *httptest.Server {
	t.Helper()

	if cfg.RoomName == "" {
		cfg.RoomName = "campus"
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.JoinRate == 0 {
		cfg.JoinRate = 1000
		cfg.JoinBurst = 1000
	}

	manager := campus.NewManager()
	if _, err := manager.Open(campus.RoomOptions{
		Name:          cfg.RoomName,
		Zones:         world.DefaultZones(),
		PatchInterval: 10 * time.Millisecond,
	}); err != nil {
		t.Fatalf("open room: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	server := httptest.NewServer(Router(ctx, &AppDeps{Manager: manager, Config: cfg}))
	t.Cleanup(func() {
		manager.Shutdown()
		server.Close()
		cancel()
	})
	return server
}

func getJSON(t *testing.T, url string) (int, resp.JSONResponse, []byte) {
	t.Helper()

	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	var envelope resp.JSONResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return res.StatusCode, envelope, raw
}

func TestHealth(t *testing.T) {
	server := newTestServer(t, &configs.AppConfig{})

	status, body, _ := getJSON(t, server.URL+"/health")
	if status != http.StatusOK || body.Code != 0 {
		t.Fatalf("unexpected health response %d %+v", status, body)
	}
}

func TestListZones(t *testing.T) {
	server := newTestServer(t, &configs.AppConfig{})

	status, _, raw := getJSON(t, server.URL+"/api/zones")
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}

	var decoded struct {
		Data struct {
			Room  string       `json:"room"`
			Zones []world.Zone `json:"zones"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode zones: %v", err)
	}
	if decoded.Data.Room != "campus" || len(decoded.Data.Zones) != len(world.DefaultZones()) {
		t.Fatalf("unexpected zones payload %+v", decoded.Data)
	}

	status, body, _ := getJSON(t, server.URL+"/api/zones?room=nowhere")
	if status != http.StatusNotFound || body.Code != errs.ErrRoomNotFound {
		t.Fatalf("expected room not found, got %d %+v", status, body)
	}
}

func TestRoomStats(t *testing.T) {
	server := newTestServer(t, &configs.AppConfig{})

	status, body, raw := getJSON(t, server.URL+"/api/rooms/campus/stats")
	if status != http.StatusOK || body.Code != 0 {
		t.Fatalf("unexpected stats response %d %+v", status, body)
	}
	var decoded struct {
		Data campus.Stats `json:"data"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if decoded.Data.Name != "campus" || decoded.Data.PatchIntervalMs != 10 {
		t.Fatalf("unexpected stats %+v", decoded.Data)
	}

	status, body, _ = getJSON(t, server.URL+"/api/rooms/annex/stats")
	if status != http.StatusNotFound || body.Code != errs.ErrRoomNotFound {
		t.Fatalf("expected room not found, got %d %+v", status, body)
	}
}

func TestWebSocketJoinValidation(t *testing.T) {
	server := newTestServer(t, &configs.AppConfig{})
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	cases := map[string]int{
		"?avatar=adam":                  errs.ErrInvalidParams,
		"?name=Alex":                    errs.ErrInvalidParams,
		"?name=Alex&avatar=dragon":      errs.ErrAvatarInvalid,
		"?name=Alex&avatar=adam&room=x": errs.ErrRoomNotFound,
	}
	for query, code := range cases {
		_, res, err := websocket.DefaultDialer.Dial(wsURL+query, nil)
		if err == nil {
			t.Fatalf("%s: expected handshake failure", query)
		}
		if res == nil {
			t.Fatalf("%s: expected HTTP response, got %v", query, err)
		}
		var body resp.JSONResponse
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			t.Fatalf("%s: decode body: %v", query, err)
		}
		if body.Code != code {
			t.Errorf("%s: code %d, want %d", query, body.Code, code)
		}
	}
}

func TestWebSocketJoinAndState(t *testing.T) {
	server := newTestServer(t, &configs.AppConfig{})
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?name=Alex&avatar=adam&x=10&y=10"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var env campus.Envelope
	if err := conn.ReadJSON(&env); err != nil || env.Type != campus.TypeJoined {
		t.Fatalf("expected JOINED first, got %+v (%v)", env, err)
	}
	var joined campus.JoinedPayload
	if err := json.Unmarshal(env.Payload, &joined); err != nil {
		t.Fatalf("decode JOINED: %v", err)
	}

	if err := conn.ReadJSON(&env); err != nil || env.Type != campus.TypeState {
		t.Fatalf("expected STATE second, got %+v (%v)", env, err)
	}
	var snap world.Snapshot
	if err := json.Unmarshal(env.Payload, &snap); err != nil {
		t.Fatalf("decode STATE: %v", err)
	}
	p, ok := snap.Participant(joined.SessionID)
	if !ok || p.X != 10 || p.Y != 10 || p.CurrentZoneID != "" {
		t.Fatalf("unexpected participant %+v (found %v)", p, ok)
	}

	// Move into the gaming zone and expect the derived zone id.
	move := `{"type":"MOVE","payload":{"x":450,"y":300,"animation":"run","direction":"right"}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(move)); err != nil {
		t.Fatalf("write MOVE: %v", err)
	}
	for {
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("read: %v", err)
		}
		if env.Type != campus.TypeState {
			continue
		}
		if err := json.Unmarshal(env.Payload, &snap); err != nil {
			t.Fatalf("decode STATE: %v", err)
		}
		if p, _ := snap.Participant(joined.SessionID); p.X == 450 {
			if p.CurrentZoneID != "gaming" {
				t.Fatalf("expected gaming zone, got %q", p.CurrentZoneID)
			}
			return
		}
	}
}

func TestWebSocketJoinRateLimited(t *testing.T) {
	server := newTestServer(t, &configs.AppConfig{JoinRate: 0.001, JoinBurst: 1})
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?name=Alex&avatar=adam"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("first dial failed: %v", err)
	}
	defer conn.Close()

	_, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil || res == nil || res.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second join, got %v", err)
	}
}

func TestParseSpawn(t *testing.T) {
	if p := parseSpawn("400", "300"); p == nil || p.X != 400 || p.Y != 300 {
		t.Fatalf("unexpected spawn %+v", p)
	}
	for _, c := range [][2]string{{"", "1"}, {"1", ""}, {"a", "1"}, {"NaN", "1"}, {"1", "+Inf"}} {
		if p := parseSpawn(c[0], c[1]); p != nil {
			t.Errorf("parseSpawn(%q,%q) = %+v, want nil", c[0], c[1], p)
		}
	}
}
