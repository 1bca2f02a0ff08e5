package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"relaychat/internal/app/store"
	"relaychat/internal/pkg/auth/jwt"
	"relaychat/internal/pkg/errs"
)

const (
	testSecret   = "account-test-secret"
	testPassword = "Sup3r$ecret"
)

// mockStore implements store.Store through overridable function fields.
type mockStore struct {
	createUserFunc           func(ctx context.Context, name, passwordHash string) (*store.User, error)
	getUserByNameFunc        func(ctx context.Context, name string) (*store.User, error)
	getUserByIDFunc          func(ctx context.Context, id string) (*store.User, error)
	updateUserLoginStateFunc func(ctx context.Context, u *store.User) error
}

func (m *mockStore) CreateUser(ctx context.Context, name, passwordHash string) (*store.User, error) {
	if m.createUserFunc != nil {
		return m.createUserFunc(ctx, name, passwordHash)
	}
	return nil, errors.New("not implemented")
}

func (m *mockStore) GetUserByName(ctx context.Context, name string) (*store.User, error) {
	if m.getUserByNameFunc != nil {
		return m.getUserByNameFunc(ctx, name)
	}
	return nil, errors.New("not implemented")
}

func (m *mockStore) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	if m.getUserByIDFunc != nil {
		return m.getUserByIDFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockStore) UpdateUserLoginState(ctx context.Context, u *store.User) error {
	if m.updateUserLoginStateFunc != nil {
		return m.updateUserLoginStateFunc(ctx, u)
	}
	return nil
}

func (m *mockStore) CreateRoom(context.Context, string, store.Visibility, string) (*store.Room, error) {
	return nil, errors.New("not implemented")
}

func (m *mockStore) ListRooms(context.Context) ([]store.Room, error) {
	return nil, errors.New("not implemented")
}

func (m *mockStore) GetRoom(context.Context, string) (*store.Room, error) {
	return nil, errors.New("not implemented")
}

func (m *mockStore) AddRoomMember(context.Context, string, string) (*store.Room, error) {
	return nil, errors.New("not implemented")
}

func (m *mockStore) RemoveRoomMember(context.Context, string, string) (*store.Room, error) {
	return nil, errors.New("not implemented")
}

func (m *mockStore) AppendMessage(context.Context, store.MessageInput) (*store.Message, error) {
	return nil, errors.New("not implemented")
}

func (m *mockStore) ListMessages(context.Context, string) ([]store.Message, error) {
	return nil, errors.New("not implemented")
}

func (m *mockStore) GetMessage(context.Context, string) (*store.Message, error) {
	return nil, errors.New("not implemented")
}

func (m *mockStore) MarkMessageRead(context.Context, string, string) (*store.Message, error) {
	return nil, errors.New("not implemented")
}

func newTestService(st store.Store) *Service {
	return NewService(st, testSecret, time.Hour, 24*time.Hour)
}

func hashedTestPassword(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func storedUser(t *testing.T) *store.User {
	return &store.User{
		ID:           "4f1c0c7e-2c9c-4c51-9d4e-8a1f6f3e0001",
		Name:         "alice",
		PasswordHash: hashedTestPassword(t),
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc := newTestService(&mockStore{})

	cases := []string{
		"short1!",        // too short
		"alllowercase1!", // no upper
		"ALLUPPERCASE1!", // no lower
		"NoDigitsHere!",  // no digit
		"NoSpecials123A", // no special
	}

	for _, password := range cases {
		_, customErr := svc.Register(context.Background(), "alice", password)
		require.NotNil(t, customErr, "password %q must be rejected", password)
		assert.Equal(t, errs.ErrWeakPassword, customErr.Code)
	}
}

func TestRegisterRejectsInvalidUsername(t *testing.T) {
	svc := newTestService(&mockStore{})

	for _, name := range []string{"", "ab", "has space", "way-too!odd"} {
		_, customErr := svc.Register(context.Background(), name, testPassword)
		require.NotNil(t, customErr)
		assert.Equal(t, errs.ErrInvalidUsername, customErr.Code)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newTestService(&mockStore{
		createUserFunc: func(ctx context.Context, name, hash string) (*store.User, error) {
			return nil, store.ErrDuplicate
		},
	})

	_, customErr := svc.Register(context.Background(), "alice", testPassword)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrUserAlreadyExists, customErr.Code)
}

func TestRegisterStoresHashedPassword(t *testing.T) {
	var gotHash string
	svc := newTestService(&mockStore{
		createUserFunc: func(ctx context.Context, name, hash string) (*store.User, error) {
			gotHash = hash
			return &store.User{ID: "id-1", Name: name}, nil
		},
	})

	user, customErr := svc.Register(context.Background(), "alice", testPassword)
	require.Nil(t, customErr)
	assert.Equal(t, "alice", user.Name)

	assert.NotEqual(t, testPassword, gotHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(gotHash), []byte(testPassword)))
}

func TestAuthenticateSuccessIssuesTokens(t *testing.T) {
	user := storedUser(t)
	user.FailedLoginAttempts = 3

	var persisted *store.User
	svc := newTestService(&mockStore{
		getUserByNameFunc: func(ctx context.Context, name string) (*store.User, error) {
			return user, nil
		},
		updateUserLoginStateFunc: func(ctx context.Context, u *store.User) error {
			persisted = u
			return nil
		},
	})

	got, pair, customErr := svc.Authenticate(context.Background(), "alice", testPassword)
	require.Nil(t, customErr)
	require.NotNil(t, pair)

	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	// Success resets the lockout state and records the login.
	require.NotNil(t, persisted)
	assert.Zero(t, persisted.FailedLoginAttempts)
	assert.False(t, persisted.AccountLocked)
	assert.Nil(t, persisted.AccountLockedUntil)
	assert.NotNil(t, persisted.LastLogin)

	claims, err := jwt.ParseToken(pair.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestAuthenticateUnknownUserIsGeneric(t *testing.T) {
	svc := newTestService(&mockStore{
		getUserByNameFunc: func(ctx context.Context, name string) (*store.User, error) {
			return nil, store.ErrNotFound
		},
	})

	_, _, customErr := svc.Authenticate(context.Background(), "nobody", testPassword)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrInvalidCredentials, customErr.Code,
		"unknown users and bad passwords must be indistinguishable")
}

func TestAuthenticateLocksAfterThreshold(t *testing.T) {
	user := storedUser(t)
	svc := newTestService(&mockStore{
		getUserByNameFunc: func(ctx context.Context, name string) (*store.User, error) {
			return user, nil
		},
	})

	for i := 0; i < LockoutThreshold; i++ {
		_, _, customErr := svc.Authenticate(context.Background(), "alice", "Wrong$Pass1")
		require.NotNil(t, customErr)
		assert.Equal(t, errs.ErrInvalidCredentials, customErr.Code)
	}

	assert.True(t, user.AccountLocked)
	require.NotNil(t, user.AccountLockedUntil)

	// Even the correct password fails while the lock is active.
	_, _, customErr := svc.Authenticate(context.Background(), "alice", testPassword)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrAccountLocked, customErr.Code)
}

func TestAuthenticateLockExpires(t *testing.T) {
	user := storedUser(t)
	user.FailedLoginAttempts = LockoutThreshold
	user.AccountLocked = true
	until := time.Now().Add(-time.Minute)
	user.AccountLockedUntil = &until

	svc := newTestService(&mockStore{
		getUserByNameFunc: func(ctx context.Context, name string) (*store.User, error) {
			return user, nil
		},
	})

	_, pair, customErr := svc.Authenticate(context.Background(), "alice", testPassword)
	require.Nil(t, customErr, "an expired lock must not block login")
	assert.NotNil(t, pair)
	assert.False(t, user.AccountLocked)
}

func TestRefreshRotatesTokens(t *testing.T) {
	user := storedUser(t)
	svc := newTestService(&mockStore{
		getUserByIDFunc: func(ctx context.Context, id string) (*store.User, error) {
			require.Equal(t, user.ID, id)
			return user, nil
		},
	})

	refreshToken, err := jwt.GenerateToken(user.ID, testSecret, time.Hour)
	require.NoError(t, err)

	pair, customErr := svc.Refresh(context.Background(), refreshToken)
	require.Nil(t, customErr)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestRefreshExpiredToken(t *testing.T) {
	svc := newTestService(&mockStore{})

	expired, err := jwt.GenerateToken("user-1", testSecret, -time.Minute)
	require.NoError(t, err)

	_, customErr := svc.Refresh(context.Background(), expired)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrTokenExpired, customErr.Code)
}

func TestRefreshInvalidToken(t *testing.T) {
	svc := newTestService(&mockStore{})

	_, customErr := svc.Refresh(context.Background(), "garbage")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrTokenInvalid, customErr.Code)
}

func TestRefreshDeletedSubject(t *testing.T) {
	svc := newTestService(&mockStore{
		getUserByIDFunc: func(ctx context.Context, id string) (*store.User, error) {
			return nil, store.ErrNotFound
		},
	})

	token, err := jwt.GenerateToken("gone-user", testSecret, time.Hour)
	require.NoError(t, err)

	_, customErr := svc.Refresh(context.Background(), token)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrUserNotFound, customErr.Code)
}

func TestVerifyAccess(t *testing.T) {
	user := storedUser(t)
	svc := newTestService(&mockStore{
		getUserByIDFunc: func(ctx context.Context, id string) (*store.User, error) {
			return user, nil
		},
	})

	token, err := jwt.GenerateToken(user.ID, testSecret, time.Hour)
	require.NoError(t, err)

	got, customErr := svc.VerifyAccess(context.Background(), token)
	require.Nil(t, customErr)
	assert.Equal(t, user.ID, got.ID)

	_, customErr = svc.VerifyAccess(context.Background(), "garbage")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrTokenInvalid, customErr.Code)
}

func TestIsStrongPassword(t *testing.T) {
	assert.True(t, IsStrongPassword("Sup3r$ecret"))
	assert.False(t, IsStrongPassword("Aa1!"))
	assert.False(t, IsStrongPassword("abcdefg1!"))
	assert.False(t, IsStrongPassword("ABCDEFG1!"))
	assert.False(t, IsStrongPassword("Abcdefgh!"))
	assert.False(t, IsStrongPassword("Abcdefgh1"))
}
