package limiter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestMiddlewareRejectsAfterBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewIPRateLimiter(ctx, rate.Limit(0.001), 2)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.RemoteAddr = "198.51.100.4:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent {
		t.Fatalf("expected first two requests to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected third request to be limited, got %d", codes[2])
	}

	other := httptest.NewRequest(http.MethodGet, "/ws", nil)
	other.RemoteAddr = "198.51.100.5:1234"
	if !l.AllowRequest(other) {
		t.Fatalf("a different IP must have its own bucket")
	}
}

func TestReapDropsFullBuckets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewIPRateLimiter(ctx, rate.Limit(1000), 1)
	l.GetLimiter("a").Allow()
	l.GetLimiter("b")

	if removed := l.reap(time.Now().Add(time.Second)); removed != 2 {
		t.Fatalf("expected both refilled buckets to be reaped, got %d", removed)
	}
	if l.Len() != 0 {
		t.Fatalf("expected no buckets left, got %d", l.Len())
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "nohost"
	if got := ClientIP(req); got != "nohost" {
		t.Fatalf("unexpected ip %q", got)
	}
	req.RemoteAddr = ""
	if got := ClientIP(req); got != "unknown_ip" {
		t.Fatalf("unexpected ip %q", got)
	}
}
