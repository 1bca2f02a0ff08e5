/*
Package account implements registration, authentication, and token refresh on
top of the credential store.

Lockout policy lives here, not in storage: five consecutive failures lock an
account for thirty minutes, and any successful authentication clears the
counters. Login failures always surface the same generic message so callers
cannot probe which usernames exist.
*/
package account

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"relaychat/internal/app/store"
	"relaychat/internal/pkg/auth/jwt"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
)

const (
	// LockoutThreshold is the number of consecutive failures that locks an account.
	LockoutThreshold = 5

	// LockoutDuration is how long a locked account stays locked.
	LockoutDuration = 30 * time.Minute

	// maxPasswordLength caps input at bcrypt's operating limit.
	maxPasswordLength = 72
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

// TokenPair is an access/refresh token pair issued on login or refresh.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Service wires the credential store to password hashing and token issuance.
type Service struct {
	store      store.Store
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration

	// now is swappable for lockout-expiry tests.
	now func() time.Time
}

// NewService constructs an account Service.
func NewService(st store.Store, jwtSecret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		store:      st,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Register creates a new account. The password must satisfy the strength
// policy and the username must be free.
func (s *Service) Register(ctx context.Context, name, password string) (*store.User, *errs.CustomError) {
	if !usernameRegex.MatchString(name) {
		return nil, errs.NewError(errs.ErrInvalidUsername)
	}

	if !IsStrongPassword(password) {
		return nil, errs.NewError(errs.ErrWeakPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logx.Error(err, "register: password hashing failed")
		return nil, errs.NewError(errs.ErrUnknown)
	}

	user, err := s.store.CreateUser(ctx, name, string(hash))
	if err != nil {
		if err == store.ErrDuplicate {
			logx.Warn("register: username already taken", "user_name", maskName(name))
			return nil, errs.NewError(errs.ErrUserAlreadyExists)
		}

		logx.Error(err, "register: failed to store user")
		return nil, errs.NewError(errs.ErrUnknown)
	}

	logx.Info("User registered", "user_id", user.ID, "user_name", maskName(name))
	return user, nil
}

// Authenticate verifies the credentials and issues a token pair. Failed
// attempts advance the lockout counter; hitting the threshold locks the
// account for LockoutDuration, and a success resets everything.
func (s *Service) Authenticate(ctx context.Context, name, password string) (*store.User, *TokenPair, *errs.CustomError) {
	now := s.now()

	user, err := s.store.GetUserByName(ctx, name)
	if err != nil {
		if err == store.ErrNotFound {
			logx.Info("login: attempt for unknown user", "user_name", maskName(name))
			return nil, nil, errs.NewError(errs.ErrInvalidCredentials)
		}

		logx.Error(err, "login: user fetch failed")
		return nil, nil, errs.NewError(errs.ErrUnknown)
	}

	if user.LockedAt(now) {
		remaining := LockoutDuration
		if user.AccountLockedUntil != nil {
			remaining = user.AccountLockedUntil.Sub(now)
		}
		minutes := int(remaining.Minutes()) + 1

		logx.Warn("login: attempt on locked account", "user_id", user.ID)
		return nil, nil, errs.NewError(errs.ErrAccountLocked, minutes)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.recordFailure(ctx, user, now)
		logx.Warn("login: password mismatch",
			"user_id", user.ID,
			"failed_attempts", user.FailedLoginAttempts,
		)
		return nil, nil, errs.NewError(errs.ErrInvalidCredentials)
	}

	user.FailedLoginAttempts = 0
	user.AccountLocked = false
	user.AccountLockedUntil = nil
	lastLogin := now
	user.LastLogin = &lastLogin

	if err := s.store.UpdateUserLoginState(ctx, user); err != nil {
		logx.Error(err, "login: failed to reset lockout state", "user_id", user.ID)
		return nil, nil, errs.NewError(errs.ErrUnknown)
	}

	pair, customErr := s.issueTokens(user.ID)
	if customErr != nil {
		return nil, nil, customErr
	}

	logx.Info("User logged in", "user_id", user.ID)
	return user, pair, nil
}

// Refresh validates the refresh token and rotates the pair. Expired and
// malformed tokens fail distinctly; the subject must still exist.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, *errs.CustomError) {
	claims, err := jwt.ParseToken(refreshToken, s.jwtSecret)
	if err != nil {
		if err == jwt.ErrExpired {
			logx.Warn("refresh: expired refresh token presented")
			return nil, errs.NewError(errs.ErrTokenExpired)
		}

		logx.Warn("refresh: invalid refresh token presented")
		return nil, errs.NewError(errs.ErrTokenInvalid)
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if err == store.ErrNotFound {
			logx.Warn("refresh: token subject no longer exists", "user_id", claims.UserID)
			return nil, errs.NewError(errs.ErrUserNotFound)
		}

		logx.Error(err, "refresh: user fetch failed", "user_id", claims.UserID)
		return nil, errs.NewError(errs.ErrUnknown)
	}

	pair, customErr := s.issueTokens(user.ID)
	if customErr != nil {
		return nil, customErr
	}

	logx.Info("Token refreshed", "user_id", user.ID)
	return pair, nil
}

// VerifyAccess parses an access token and confirms the subject still exists.
// Used by the WebSocket handshake, where the HTTP middleware does not apply.
func (s *Service) VerifyAccess(ctx context.Context, accessToken string) (*store.User, *errs.CustomError) {
	claims, err := jwt.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		if err == jwt.ErrExpired {
			return nil, errs.NewError(errs.ErrTokenExpired)
		}
		return nil, errs.NewError(errs.ErrTokenInvalid)
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, errs.NewError(errs.ErrUserNotFound)
		}
		return nil, errs.NewError(errs.ErrUnknown)
	}

	return user, nil
}

// recordFailure advances the lockout counter and locks the account with a
// fresh expiry once the threshold is reached.
func (s *Service) recordFailure(ctx context.Context, user *store.User, now time.Time) {
	user.FailedLoginAttempts++

	if user.FailedLoginAttempts >= LockoutThreshold {
		until := now.Add(LockoutDuration)
		user.AccountLocked = true
		user.AccountLockedUntil = &until
	}

	if err := s.store.UpdateUserLoginState(ctx, user); err != nil {
		logx.Error(err, "login: failed to persist lockout state", "user_id", user.ID)
	}
}

func (s *Service) issueTokens(userID string) (*TokenPair, *errs.CustomError) {
	access, err := jwt.GenerateToken(userID, s.jwtSecret, s.accessTTL)
	if err != nil {
		logx.Error(err, "token generation failed", "user_id", userID)
		return nil, errs.NewError(errs.ErrUnknown)
	}

	refresh, err := jwt.GenerateToken(userID, s.jwtSecret, s.refreshTTL)
	if err != nil {
		logx.Error(err, "token generation failed", "user_id", userID)
		return nil, errs.NewError(errs.ErrUnknown)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// IsStrongPassword reports whether the password satisfies the strength
// policy: at least 8 characters with upper, lower, digit, and special.
func IsStrongPassword(password string) bool {
	if len(password) < 8 || len(password) > maxPasswordLength {
		return false
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	return hasUpper && hasLower && hasDigit && hasSpecial
}

// maskName shortens an identifier for logging so audit lines never carry a
// full username.
func maskName(name string) string {
	if len(name) <= 2 {
		return "***"
	}
	return name[:2] + strings.Repeat("*", 3)
}
