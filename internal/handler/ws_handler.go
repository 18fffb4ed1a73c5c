/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains HandleWebSocket, which rate limits joins, validates the
name, avatar and optional spawn point, upgrades the connection and starts the
client lifecycle.
*/
package handler

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/SharmaG-28/Virtual-Campus/internal/app/campus"
	"github.com/SharmaG-28/Virtual-Campus/internal/app/world"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/errs"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/limiter"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/logx"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/randx"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket join requests.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rateLimiter.AllowRequest(r) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", limiter.ClientIP(r))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		query := r.URL.Query()
		name := query.Get("name")
		avatar := query.Get("avatar")

		if customErr := campus.ValidateJoin(name, avatar); customErr != nil {
			logx.Warn("WebSocket request rejected: Invalid join parameters", "avatar", avatar, "code", customErr.Code)
			resp.RespondError(w, r, customErr)
			return
		}

		room, customErr := roomFromRequest(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if room.IsFull() {
			logx.Info("WebSocket connection rejected: Room is full.", "room", room.Name)
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomIsFull))
			return
		}

		sessionID, err := randx.SessionID()
		if err != nil {
			logx.Error(err, "Failed to allocate session id")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		identity := campus.Identity{
			SessionID: sessionID,
			Name:      name,
			Avatar:    avatar,
			Spawn:     parseSpawn(query.Get("x"), query.Get("y")),
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := campus.NewClient(room, conn, identity)

		go client.WritePump()

		logx.Info("WebSocket connection established, registering client", "client_id", sessionID, "room", room.Name)

		room.RegisterClient(client)

		client.ReadPump()
	}
}

// parseSpawn returns the requested spawn point when both coordinates parse as
// finite numbers, otherwise nil.
func parseSpawn(xs, ys string) *world.Point {
	if xs == "" || ys == "" {
		return nil
	}
	x, errX := strconv.ParseFloat(xs, 64)
	y, errY := strconv.ParseFloat(ys, 64)
	if errX != nil || errY != nil {
		return nil
	}
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return nil
	}
	return &world.Point{X: x, Y: y}
}
