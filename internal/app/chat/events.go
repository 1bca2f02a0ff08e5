/*
Package chat contains the presence and delivery hub: live WebSocket sessions,
room-scoped broadcast groups, and the event fan-out between them.

This file defines the wire-level event envelope and the payload structures
exchanged with clients.
*/
package chat

import "encoding/json"

// EventType names a client/server event on the persistent connection.
type EventType string

// Client -> server events.
const (
	EventJoinRoom     EventType = "join_room"
	EventLeaveRoom    EventType = "leave_room"
	EventSendMessage  EventType = "send_message"
	EventMessageRead  EventType = "message_read"
	EventUpdateStatus EventType = "update_status"
)

// Server -> client events. Room-scoped unless noted.
const (
	EventRoomJoined EventType = "room_joined"
	EventRoomLeft   EventType = "room_left"
	EventUserJoined EventType = "user_joined"
	EventUserLeft   EventType = "user_left"
	EventNewMessage EventType = "new_message"
	// EventMessageReadAck confirms a read receipt to the message's room.
	EventMessageReadAck EventType = "message_read"
	// EventUserStatusChanged is broadcast to every connected session.
	EventUserStatusChanged EventType = "user_status_changed"
	EventError             EventType = "error"
)

// Event is the envelope for every frame on the persistent connection.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an Event, marshaling the payload.
func NewEvent(eventType EventType, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw}, nil
}

// UserJoinedEvent builds a room-scoped user_joined announcement.
func UserJoinedEvent(userID string) Event {
	return mustEvent(EventUserJoined, UserEventPayload{UserID: userID})
}

// UserLeftEvent builds a room-scoped user_left announcement.
func UserLeftEvent(userID string) Event {
	return mustEvent(EventUserLeft, UserEventPayload{UserID: userID})
}

// ReadReceiptEvent builds a room-scoped message_read receipt.
func ReadReceiptEvent(messageID, userID string) Event {
	return mustEvent(EventMessageReadAck, ReadReceiptPayload{MessageID: messageID, UserID: userID})
}

// RoomEventPayload identifies a user acting on a room.
type RoomEventPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// UserEventPayload identifies a user entering or leaving the caller's room.
type UserEventPayload struct {
	UserID string `json:"userId"`
}

// ReadReceiptPayload reports a message read by a user.
type ReadReceiptPayload struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

// StatusPayload reports a presence change.
type StatusPayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// ErrorPayload carries a short failure description to one connection.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Inbound payload shapes.

// JoinRoomPayload asks to join or leave a room.
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

// SendMessagePayload carries a new message from a client. The sender is the
// session's user, never the payload.
type SendMessagePayload struct {
	RoomID   string          `json:"roomId"`
	Content  string          `json:"content"`
	Kind     string          `json:"type"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// MessageReadPayload asks to mark a message read by the session's user.
type MessageReadPayload struct {
	MessageID string `json:"messageId"`
}

// UpdateStatusPayload carries a presence status chosen by the client.
type UpdateStatusPayload struct {
	Status string `json:"status"`
}

// Presence status values. Clients may also send short custom statuses.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"

	// MaxStatusLength bounds custom presence statuses.
	MaxStatusLength = 32
)
