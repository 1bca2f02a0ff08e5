package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound reports that the referenced record does not exist. Each
	// method documents which entity the error refers to.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate reports a uniqueness conflict (taken username).
	ErrDuplicate = errors.New("record already exists")
)

// Store is the persistence contract for users, rooms, and messages.
type Store interface {
	// CreateUser stores a new account, failing with ErrDuplicate when the
	// name is taken.
	CreateUser(ctx context.Context, name, passwordHash string) (*User, error)

	// GetUserByName fetches an account by display name (ErrNotFound).
	GetUserByName(ctx context.Context, name string) (*User, error)

	// GetUserByID fetches an account by id (ErrNotFound).
	GetUserByID(ctx context.Context, id string) (*User, error)

	// UpdateUserLoginState persists the lockout counters, lock flag/expiry,
	// and last-login timestamp of the given user.
	UpdateUserLoginState(ctx context.Context, u *User) error

	// CreateRoom stores a new room; the creator is implicitly its first member.
	CreateRoom(ctx context.Context, name string, visibility Visibility, creatorID string) (*Room, error)

	// ListRooms returns every room.
	ListRooms(ctx context.Context) ([]Room, error)

	// GetRoom fetches a room by id (ErrNotFound).
	GetRoom(ctx context.Context, id string) (*Room, error)

	// AddRoomMember adds userID to the room's member set and refreshes
	// last-activity. Idempotent: an existing member is never duplicated.
	// Fails with ErrNotFound when the room is absent.
	AddRoomMember(ctx context.Context, roomID, userID string) (*Room, error)

	// RemoveRoomMember removes userID from the member set; removing an
	// absent member is a no-op. Fails with ErrNotFound when the room is absent.
	RemoveRoomMember(ctx context.Context, roomID, userID string) (*Room, error)

	// AppendMessage validates that the room exists (ErrNotFound) and stores
	// the message with status sent, assigning id and timestamps.
	AppendMessage(ctx context.Context, in MessageInput) (*Message, error)

	// ListMessages returns a room's messages ordered by creation time ascending.
	ListMessages(ctx context.Context, roomID string) ([]Message, error)

	// GetMessage fetches a message by id (ErrNotFound).
	GetMessage(ctx context.Context, id string) (*Message, error)

	// MarkMessageRead moves the message's status to read (ErrNotFound for
	// unknown ids). The transition is forward-only: an already-read message
	// is left untouched, as is a sender marking their own message.
	MarkMessageRead(ctx context.Context, messageID, readerID string) (*Message, error)
}
