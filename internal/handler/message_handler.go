/*
Package handler provides HTTP handler functions for the message log: history
retrieval, posting, and read receipts.
*/
package handler

import (
	"encoding/json"
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

// HandleListMessages returns a room's message history in creation order.
// Only room members may read the log.
func HandleListMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := jwt.GetClaimsFromContext(r)
		if claims == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		room, customErr := fetchRoom(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !room.HasMember(claims.UserID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotRoomMember))
			return
		}

		messages, err := deps.Store.ListMessages(r.Context(), room.ID)
		if err != nil {
			logx.Error(err, "list_messages: store failure", "room_id", room.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondRaw(w, r, http.StatusOK, messages)
	}
}

type SendMessageInput struct {
	Content string `json:"content"`
	Type    string `json:"type"`
	// UserID is accepted for wire compatibility. The token decides the
	// sender; a mismatching value is rejected.
	UserID   string          `json:"userId,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// HandleSendMessage appends a message to the room's log and pushes it to every
// live session subscribed to the room. Only room members may post.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := jwt.GetClaimsFromContext(r)
		if claims == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		room, customErr := fetchRoom(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !room.HasMember(claims.UserID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotRoomMember))
			return
		}

		var input SendMessageInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.UserID != "" && input.UserID != claims.UserID {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		payload := chat.SendMessagePayload{
			RoomID:   room.ID,
			Content:  input.Content,
			Kind:     input.Type,
			Metadata: input.Metadata,
		}

		msgInput, customErr := chat.BuildMessageInput(payload, claims.UserID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		msg, err := deps.Store.AppendMessage(r.Context(), msgInput)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrRoomNotFound))
				return
			}

			logx.Error(err, "send_message: store failure", "room_id", room.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if event, err := chat.NewEvent(chat.EventNewMessage, msg); err == nil {
			deps.Hub.BroadcastToRoom(room.ID, event, nil)
		}

		resp.RespondRaw(w, r, http.StatusCreated, msg)
	}
}

// HandleMarkMessageRead moves the message's status to read and pushes the
// receipt to the room. The transition is forward-only, so repeating the call
// returns the same state.
func HandleMarkMessageRead(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := jwt.GetClaimsFromContext(r)
		if claims == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		roomID := chi.URLParam(r, "roomID")
		messageID := chi.URLParam(r, "messageID")

		// Resolve the message first so an id addressed through the wrong room
		// is refused before anything changes.
		msg, err := deps.Store.GetMessage(r.Context(), messageID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrMessageNotFound))
				return
			}

			logx.Error(err, "message_read: store failure", "message_id", messageID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if msg.RoomID != roomID {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageNotFound))
			return
		}

		msg, err = deps.Store.MarkMessageRead(r.Context(), messageID, claims.UserID)
		if err != nil {
			logx.Error(err, "message_read: store failure", "message_id", messageID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		deps.Hub.BroadcastToRoom(msg.RoomID, chat.ReadReceiptEvent(msg.ID, claims.UserID), nil)

		resp.RespondRaw(w, r, http.StatusOK, msg)
	}
}
