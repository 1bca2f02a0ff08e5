/*
Package store defines the persistent data model and the storage contract for
users, rooms, and messages.

Handlers and the chat hub depend only on the Store interface; the PostgreSQL
implementation lives alongside it. Encoded column formats (the room member
set) never leak above this package.
*/
package store

import "time"

// Visibility classifies who may discover a room.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ParseVisibility validates a wire-level room type value.
func ParseVisibility(s string) (Visibility, bool) {
	switch Visibility(s) {
	case VisibilityPublic, VisibilityPrivate:
		return Visibility(s), true
	}
	return "", false
}

// MessageKind classifies message content.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindFile  MessageKind = "file"
)

// ParseMessageKind validates a wire-level message kind value.
func ParseMessageKind(s string) (MessageKind, bool) {
	switch MessageKind(s) {
	case KindText, KindImage, KindFile:
		return MessageKind(s), true
	}
	return "", false
}

// MessageStatus is the delivery state of a message. Transitions only move
// forward: sent -> delivered -> read.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// rank orders statuses for the forward-only transition check.
func (s MessageStatus) rank() int {
	switch s {
	case StatusSent:
		return 0
	case StatusDelivered:
		return 1
	case StatusRead:
		return 2
	}
	return -1
}

// Before reports whether s precedes other in the delivery progression.
func (s MessageStatus) Before(other MessageStatus) bool {
	return s.rank() < other.rank()
}

// User is a registered account, including the lockout state mutated by login
// attempts. The password hash and lockout counters never serialize to clients.
type User struct {
	ID                  string     `json:"user_id"`
	Name                string     `json:"user_name"`
	PasswordHash        string     `json:"-"`
	FailedLoginAttempts int        `json:"-"`
	AccountLocked       bool       `json:"-"`
	AccountLockedUntil  *time.Time `json:"-"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// LockedAt reports whether the account counts as locked at the given time.
// A lock whose expiry has passed is inactive even if the flag is still set.
func (u *User) LockedAt(now time.Time) bool {
	if !u.AccountLocked {
		return false
	}

	if u.AccountLockedUntil != nil && u.AccountLockedUntil.Before(now) {
		return false
	}

	return true
}

// Room is a named channel grouping members for message delivery.
type Room struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Visibility   Visibility `json:"type"`
	CreatedBy    string     `json:"createdBy"`
	Members      []string   `json:"members"`
	LastActivity *time.Time `json:"lastActivity,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// HasMember reports whether userID is in the room's member set.
func (r *Room) HasMember(userID string) bool {
	for _, id := range r.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// MessageMetadata describes an optional attachment.
type MessageMetadata struct {
	FileURL  string `json:"fileUrl,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
	FileType string `json:"fileType,omitempty"`
}

// Message is an immutable unit of communication. Room, sender, content, and
// kind never change after creation; only the status moves forward.
type Message struct {
	ID        string           `json:"id"`
	RoomID    string           `json:"roomId"`
	SenderID  string           `json:"senderId"`
	Content   string           `json:"content"`
	Kind      MessageKind      `json:"type"`
	Status    MessageStatus    `json:"status"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// MessageInput carries the caller-supplied fields of a new message.
type MessageInput struct {
	RoomID   string
	SenderID string
	Content  string
	Kind     MessageKind
	Metadata *MessageMetadata
}
