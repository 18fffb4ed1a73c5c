/*
Package handler provides the HTTP handlers and routing setup for the campus server.

This file defines the main Router, applying middleware for logging, CORS and
panic recovery before delegating to the read-only JSON endpoints and the
WebSocket join endpoint, which is rate limited per IP.
*/
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/limiter"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/logx"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/resp"
)

// Router sets up the HTTP routing table. The join limiter's cleanup goroutine
// runs until ctx is done.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	joinLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(deps.Config.JoinRate), deps.Config.JoinBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		logx.Debug("Health check endpoint hit")

		resp.RespondSuccess(w, r, map[string]string{
			"status":  "ok",
			"service": "Virtual Campus Server",
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/zones", HandleListZones(deps))
		api.Get("/rooms/{name}/stats", HandleRoomStats(deps))
	})

	r.Get("/ws", HandleWebSocket(deps, wsUpgrader, joinLimiter))

	return r
}
