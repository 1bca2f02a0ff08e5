package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVisibility(t *testing.T) {
	v, ok := ParseVisibility("public")
	assert.True(t, ok)
	assert.Equal(t, VisibilityPublic, v)

	_, ok = ParseVisibility("secret")
	assert.False(t, ok)

	_, ok = ParseVisibility("")
	assert.False(t, ok)
}

func TestParseMessageKind(t *testing.T) {
	for _, kind := range []string{"text", "image", "file"} {
		_, ok := ParseMessageKind(kind)
		assert.True(t, ok, kind)
	}

	_, ok := ParseMessageKind("video")
	assert.False(t, ok)
}

func TestMessageStatusBefore(t *testing.T) {
	assert.True(t, StatusSent.Before(StatusDelivered))
	assert.True(t, StatusSent.Before(StatusRead))
	assert.True(t, StatusDelivered.Before(StatusRead))

	assert.False(t, StatusRead.Before(StatusSent))
	assert.False(t, StatusRead.Before(StatusRead))
}

func TestUserLockedAt(t *testing.T) {
	now := time.Now()

	u := &User{}
	assert.False(t, u.LockedAt(now))

	u.AccountLocked = true
	assert.True(t, u.LockedAt(now), "a lock without expiry stays active")

	future := now.Add(10 * time.Minute)
	u.AccountLockedUntil = &future
	assert.True(t, u.LockedAt(now))

	past := now.Add(-time.Minute)
	u.AccountLockedUntil = &past
	assert.False(t, u.LockedAt(now), "an elapsed lock is inactive")
}

func TestUserJSONHidesSensitiveFields(t *testing.T) {
	u := User{
		ID:                  "id-1",
		Name:                "alice",
		PasswordHash:        "$2a$10$secret",
		FailedLoginAttempts: 3,
		AccountLocked:       true,
	}

	raw, err := json.Marshal(u)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Contains(t, decoded, "user_id")
	assert.Contains(t, decoded, "user_name")
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, decoded, "password_hash")
	assert.NotContains(t, decoded, "failed_login_attempts")
}

func TestRoomHasMember(t *testing.T) {
	room := &Room{Members: []string{"u1", "u2"}}

	assert.True(t, room.HasMember("u1"))
	assert.False(t, room.HasMember("u3"))
	assert.False(t, (&Room{}).HasMember("u1"))
}
