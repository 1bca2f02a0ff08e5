package handler

import (
	"errors"
	"net/http"
	"strings"

	"relaychat/internal/app/chat"
	"relaychat/internal/app/storage"
	"relaychat/internal/app/store"
	"relaychat/internal/pkg/auth/jwt"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/randx"
	"relaychat/internal/pkg/req"
	"relaychat/internal/pkg/resp"
)

// PresignUploadInput defines the JSON input structure for generating an upload URL.
type PresignUploadInput struct {
	RoomID   string `json:"roomId"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

// HandlePresignUploadURL creates an HTTP HandlerFunc to generate a
// time-limited, pre-signed URL for file upload, scoped to a room the caller
// is a member of.
func HandlePresignUploadURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageUnavailable))
			return
		}

		claims := jwt.GetClaimsFromContext(r)
		if claims == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input PresignUploadInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := chat.ValidateFileSize(input.FileSize); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := chat.ValidateFileType(input.MimeType); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		room, customErr := requireRoomMembership(deps, r, input.RoomID, claims.UserID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		fileKey, err := randx.ObjectKey(room.ID, input.FileName)
		if err != nil {
			logx.Error(err, "presign_upload: key generation failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		url, err := deps.Storage.PresignUpload(
			r.Context(),
			fileKey,
			input.MimeType,
			input.FileSize,
			chat.PresignedURLDuration,
		)

		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		data := map[string]any{
			"presignedUrl": url,
			"fileKey":      fileKey,
			"fileName":     input.FileName,
		}
		resp.RespondSuccess(w, r, "Upload URL generated", data)
	}
}

// HandlePresignDownloadURL creates an HTTP HandlerFunc to generate a
// time-limited, pre-signed URL for file download. The object key's room prefix
// decides who may fetch it.
func HandlePresignDownloadURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageUnavailable))
			return
		}

		claims := jwt.GetClaimsFromContext(r)
		if claims == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		fileKey := r.URL.Query().Get("k")
		if fileKey == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		roomID, _, ok := strings.Cut(fileKey, "/")
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if _, customErr := requireRoomMembership(deps, r, roomID, claims.UserID); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		// Probe the object before presigning so a stale or mistyped key
		// surfaces as a 404 instead of a signed URL that will fail later.
		if _, err := deps.Storage.GetObjectMetadata(r.Context(), fileKey); err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrFileNotFound))
				return
			}

			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		url, err := deps.Storage.PresignDownload(
			r.Context(),
			fileKey,
			chat.PresignedURLDuration,
		)

		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}

// HandleDeleteFile removes a stored attachment object. Any member of the room
// the key belongs to may delete it.
func HandleDeleteFile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageUnavailable))
			return
		}

		claims := jwt.GetClaimsFromContext(r)
		if claims == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		fileKey := r.URL.Query().Get("k")
		if fileKey == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		roomID, _, ok := strings.Cut(fileKey, "/")
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if _, customErr := requireRoomMembership(deps, r, roomID, claims.UserID); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := deps.Storage.Delete(r.Context(), fileKey); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, "File deleted", map[string]any{
			"fileKey": fileKey,
		})
	}
}

// requireRoomMembership resolves the room and checks the caller belongs to it.
func requireRoomMembership(deps *AppDeps, r *http.Request, roomID, userID string) (*store.Room, *errs.CustomError) {
	room, err := deps.Store.GetRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.NewError(errs.ErrRoomNotFound)
		}

		logx.Error(err, "room fetch failed", "room_id", roomID)
		return nil, errs.NewError(errs.ErrUnknown)
	}

	if !room.HasMember(userID) {
		return nil, errs.NewError(errs.ErrNotRoomMember)
	}

	return room, nil
}
