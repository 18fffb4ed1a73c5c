/*
Package handler provides the read-only JSON endpoints describing rooms and zones.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SharmaG-28/Virtual-Campus/internal/app/campus"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/errs"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/logx"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/resp"
)

// roomFromRequest resolves the room named by the "room" query parameter,
// falling back to the configured default room.
func roomFromRequest(deps *AppDeps, r *http.Request) (*campus.Room, *errs.CustomError) {
	name := r.URL.Query().Get("room")
	if name == "" {
		name = deps.Config.RoomName
	}

	room := deps.Manager.GetRoom(name)
	if room == nil {
		logx.Info("Request rejected: Room not found.", "room", name)
		return nil, errs.NewError(errs.ErrRoomNotFound)
	}
	return room, nil
}

// HandleListZones returns the zone catalog of a room.
func HandleListZones(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, customErr := roomFromRequest(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"room":  room.Name,
			"zones": room.Zones(),
		})
	}
}

// HandleRoomStats returns occupancy and patch counters for the room in the URL.
func HandleRoomStats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		room := deps.Manager.GetRoom(name)
		if room == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomNotFound))
			return
		}

		resp.RespondSuccess(w, r, room.Stats())
	}
}
