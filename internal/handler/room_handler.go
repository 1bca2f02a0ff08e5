/*
Package handler provides HTTP handler functions for the room directory:
creation, listing, lookup, and membership changes.
*/
package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"relaychat/internal/app/chat"
	"relaychat/internal/app/store"
	"relaychat/internal/pkg/auth/jwt"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/req"
	"relaychat/internal/pkg/resp"
)

// MaxRoomNameLength bounds room names.
const MaxRoomNameLength = 100

type CreateRoomInput struct {
	Name string `json:"name"`
	// Type is the room visibility, "public" or "private".
	Type string `json:"type"`
	// CreatedBy is accepted for wire compatibility. The token decides the
	// creator; a mismatching value is rejected.
	CreatedBy string `json:"createdBy,omitempty"`
}

// HandleCreateRoom processes room creation requests. The creator becomes the
// room's first member.
func HandleCreateRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := jwt.GetClaimsFromContext(r)
		if claims == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input CreateRoomInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Name == "" || len(input.Name) > MaxRoomNameLength {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if input.CreatedBy != "" && input.CreatedBy != claims.UserID {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		visibility, ok := store.ParseVisibility(input.Type)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomTypeInvalid))
			return
		}

		room, err := deps.Store.CreateRoom(r.Context(), input.Name, visibility, claims.UserID)
		if err != nil {
			logx.Error(err, "create_room: store failure", "user_id", claims.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondRaw(w, r, http.StatusCreated, room)
	}
}

// HandleListRooms returns the room directory. Private rooms only appear to
// their members; knowing a private room's id is the invitation.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := jwt.GetClaimsFromContext(r)
		if claims == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		rooms, err := deps.Store.ListRooms(r.Context())
		if err != nil {
			logx.Error(err, "list_rooms: store failure")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		visible := make([]store.Room, 0, len(rooms))
		for _, room := range rooms {
			if room.Visibility == store.VisibilityPublic || room.HasMember(claims.UserID) {
				visible = append(visible, room)
			}
		}

		resp.RespondRaw(w, r, http.StatusOK, visible)
	}
}

// HandleGetRoom returns a single room by id.
func HandleGetRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, customErr := fetchRoom(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondRaw(w, r, http.StatusOK, room)
	}
}

// HandleJoinRoom adds the caller to the room's member set. Joining a room the
// caller is already in changes nothing.
func HandleJoinRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := jwt.GetClaimsFromContext(r)
		if claims == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		roomID := chi.URLParam(r, "roomID")

		room, err := deps.Store.AddRoomMember(r.Context(), roomID, claims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrRoomNotFound))
				return
			}

			logx.Error(err, "join_room: store failure", "room_id", roomID, "user_id", claims.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		deps.Hub.BroadcastToRoom(roomID, chat.UserJoinedEvent(claims.UserID), nil)

		resp.RespondRaw(w, r, http.StatusOK, room)
	}
}

// HandleLeaveRoom removes the caller from the room's member set. Leaving a
// room the caller is not in changes nothing.
func HandleLeaveRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := jwt.GetClaimsFromContext(r)
		if claims == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		roomID := chi.URLParam(r, "roomID")

		room, err := deps.Store.RemoveRoomMember(r.Context(), roomID, claims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrRoomNotFound))
				return
			}

			logx.Error(err, "leave_room: store failure", "room_id", roomID, "user_id", claims.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		deps.Hub.BroadcastToRoom(roomID, chat.UserLeftEvent(claims.UserID), nil)

		resp.RespondRaw(w, r, http.StatusOK, room)
	}
}

// fetchRoom resolves the roomID path parameter into a room.
func fetchRoom(deps *AppDeps, r *http.Request) (*store.Room, *errs.CustomError) {
	roomID := chi.URLParam(r, "roomID")

	room, err := deps.Store.GetRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.NewError(errs.ErrRoomNotFound)
		}

		logx.Error(err, "room fetch failed", "room_id", roomID)
		return nil, errs.NewError(errs.ErrUnknown)
	}

	return room, nil
}
