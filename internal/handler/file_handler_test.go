package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relaychat/internal/app/account"
	"relaychat/internal/app/chat"
	"relaychat/internal/app/storage"
	"relaychat/internal/app/store"
	"relaychat/internal/configs"
	"relaychat/internal/pkg/limiter"
)

// fakeStorageService is an in-memory storage.Service tracking stored keys.
type fakeStorageService struct {
	mu      sync.Mutex
	objects map[string]struct{}
}

func newFakeStorageService() *fakeStorageService {
	return &fakeStorageService{objects: make(map[string]struct{})}
}

func (f *fakeStorageService) put(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = struct{}{}
}

func (f *fakeStorageService) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

func (f *fakeStorageService) PresignUpload(_ context.Context, key, _ string, _ int64, _ time.Duration) (string, error) {
	return "https://files.test/upload/" + key, nil
}

func (f *fakeStorageService) PresignDownload(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://files.test/download/" + key, nil
}

func (f *fakeStorageService) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStorageService) GetObjectMetadata(_ context.Context, key string) (map[string]string, error) {
	if !f.has(key) {
		return nil, storage.ErrObjectNotFound
	}
	return map[string]string{"Content-Type": "image/png"}, nil
}

// newFileTestServer builds a Router with attachment storage enabled.
func newFileTestServer(t *testing.T) (http.Handler, *fakeStorageService) {
	t.Helper()

	st := newFakeStore()
	svc := newFakeStorageService()
	cfg := &configs.AppConfig{
		Environment:     "development",
		Port:            8080,
		JWTSecret:       testSecret,
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}

	deps := &AppDeps{
		Store:     st,
		Account:   account.NewService(st, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Hub:       chat.NewHub(st),
		Config:    cfg,
		RateStore: limiter.NewMemoryStore(),
		Storage:   svc,
	}

	return Router(deps), svc
}

// createRoomForFiles registers alice and bob, has alice create a room, and
// returns the room plus both tokens.
func createRoomForFiles(t *testing.T, h http.Handler) (store.Room, string, string) {
	t.Helper()

	_, aliceToken := registerAndLogin(t, h, "alice")
	_, bobToken := registerAndLogin(t, h, "bob")

	w := doJSON(t, h, http.MethodPost, "/api/chat/rooms", aliceToken, map[string]string{
		"name": "general",
		"type": "public",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var room store.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))

	return room, aliceToken, bobToken
}

func TestPresignUploadScopedToRoomMembers(t *testing.T) {
	h, _ := newFileTestServer(t)
	room, aliceToken, bobToken := createRoomForFiles(t, h)

	body := map[string]any{
		"roomId":   room.ID,
		"fileName": "cat.png",
		"mimeType": "image/png",
		"fileSize": 1024,
	}

	// Non-members are refused.
	w := doJSON(t, h, http.MethodPost, "/api/files/presign-upload", bobToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/files/presign-upload", aliceToken, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decodeEnvelope(t, w).Data.(map[string]any)
	assert.Equal(t, "cat.png", data["fileName"])
	assert.True(t, strings.HasPrefix(data["fileKey"].(string), room.ID+"/"))
	assert.NotEmpty(t, data["presignedUrl"])

	// Unsupported MIME type and oversized files are rejected up front.
	bad := map[string]any{
		"roomId":   room.ID,
		"fileName": "x.exe",
		"mimeType": "application/octet-stream",
		"fileSize": 1024,
	}
	w = doJSON(t, h, http.MethodPost, "/api/files/presign-upload", aliceToken, bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	huge := map[string]any{
		"roomId":   room.ID,
		"fileName": "big.png",
		"mimeType": "image/png",
		"fileSize": chat.MaxAttachmentSize + 1,
	}
	w = doJSON(t, h, http.MethodPost, "/api/files/presign-upload", aliceToken, huge)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPresignDownloadChecksObjectAndMembership(t *testing.T) {
	h, svc := newFileTestServer(t)
	room, aliceToken, bobToken := createRoomForFiles(t, h)

	key := room.ID + "/abc123.png"
	svc.put(key)

	w := doJSON(t, h, http.MethodGet, "/api/files/presign-download?k="+key, aliceToken, nil)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "https://files.test/download/"+key, w.Header().Get("Location"))

	// Non-members cannot fetch room attachments.
	w = doJSON(t, h, http.MethodGet, "/api/files/presign-download?k="+key, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A key with no stored object is a 404, not a signed URL.
	w = doJSON(t, h, http.MethodGet, "/api/files/presign-download?k="+room.ID+"/missing.png", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// A key without a room prefix is malformed.
	w = doJSON(t, h, http.MethodGet, "/api/files/presign-download?k=naked-key", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteFileRemovesObject(t *testing.T) {
	h, svc := newFileTestServer(t)
	room, aliceToken, bobToken := createRoomForFiles(t, h)

	key := room.ID + "/abc123.png"
	svc.put(key)

	// Non-members cannot delete.
	w := doJSON(t, h, http.MethodDelete, "/api/files/?k="+key, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, svc.has(key))

	w = doJSON(t, h, http.MethodDelete, "/api/files/?k="+key, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, svc.has(key))
}
