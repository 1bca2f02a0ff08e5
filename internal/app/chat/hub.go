/*
This file defines the Hub struct, the central coordinator of the realtime
layer. It tracks one live session per user, the set of sessions subscribed to
each room, and the presence status of every connected user, and it fans events
out to room groups or to every session.
*/
package chat

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"relaychat/internal/app/store"
	"relaychat/internal/pkg/logx"
)

// Hub coordinates all live sessions and room subscription groups.
type Hub struct {
	// store persists messages and room membership mutated by socket events.
	store store.Store

	// mu protects sessions, rooms, and presence.
	mu sync.RWMutex

	// sessions maps a user id to its single live connection.
	sessions map[string]*Client

	// rooms maps a room id to the set of subscribed sessions.
	rooms map[string]map[*Client]struct{}

	// presence maps a connected user id to its current status.
	presence map[string]string

	// structured logger with Hub context.
	logger zerolog.Logger
}

// NewHub constructs a Hub backed by the given store.
func NewHub(st store.Store) *Hub {
	return &Hub{
		store:    st,
		sessions: make(map[string]*Client),
		rooms:    make(map[string]map[*Client]struct{}),
		presence: make(map[string]string),
		logger:   logx.Logger().With().Str("component", "Hub").Logger(),
	}
}

// Register attaches a session for the client's user. A user holds at most one
// live session: registering a new connection kicks the previous one.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()

	previous := h.sessions[client.userID]
	h.sessions[client.userID] = client
	h.presence[client.userID] = StatusOnline

	h.mu.Unlock()

	if previous != nil {
		previous.Kick("session replaced by a newer connection")
	}

	h.logger.Info().Str("user_id", client.userID).Msg("Session registered.")
	h.broadcastStatus(client.userID, StatusOnline)
}

// Unregister detaches the session, removes it from every room group, and
// broadcasts the departure. A stale session (already replaced by a newer
// connection for the same user) only leaves its room groups.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()

	current := h.sessions[client.userID] == client
	if current {
		delete(h.sessions, client.userID)
		delete(h.presence, client.userID)
	}

	left := make([]string, 0, len(client.subscribed))
	for roomID := range client.subscribed {
		h.removeFromRoomLocked(roomID, client)
		left = append(left, roomID)
	}
	client.subscribed = map[string]struct{}{}

	h.mu.Unlock()

	for _, roomID := range left {
		h.BroadcastToRoom(roomID, mustEvent(EventUserLeft, UserEventPayload{UserID: client.userID}), client)
	}

	if current {
		h.logger.Info().Str("user_id", client.userID).Msg("Session unregistered.")
		h.broadcastStatus(client.userID, StatusOffline)
	}
}

// Subscribe adds the session to a room's delivery group.
func (h *Hub) Subscribe(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.rooms[roomID]
	if !ok {
		group = make(map[*Client]struct{})
		h.rooms[roomID] = group
	}

	group[client] = struct{}{}
	client.subscribed[roomID] = struct{}{}
}

// Unsubscribe removes the session from a room's delivery group.
func (h *Hub) Unsubscribe(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomLocked(roomID, client)
	delete(client.subscribed, roomID)
}

// IsSubscribed reports whether the session is in the room's delivery group.
func (h *Hub) IsSubscribed(client *Client, roomID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := client.subscribed[roomID]
	return ok
}

// removeFromRoomLocked drops the session from a room group, deleting the
// group when it empties. Callers must hold mu.
func (h *Hub) removeFromRoomLocked(roomID string, client *Client) {
	group, ok := h.rooms[roomID]
	if !ok {
		return
	}

	delete(group, client)
	if len(group) == 0 {
		delete(h.rooms, roomID)
	}
}

// BroadcastToRoom queues the event for every session in the room group,
// except the optional sender. A session with a full queue drops the event
// rather than blocking the hub.
func (h *Hub) BroadcastToRoom(roomID string, event Event, except *Client) {
	raw, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to marshal room event")
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[roomID]))
	for client := range h.rooms[roomID] {
		if client != except {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.enqueue(raw)
	}
}

// BroadcastAll queues the event for every live session.
func (h *Hub) BroadcastAll(event Event) {
	raw, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to marshal global event")
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.sessions))
	for _, client := range h.sessions {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.enqueue(raw)
	}
}

// SetStatus records a presence status for the user and broadcasts the change.
// Unknown users (no live session) are ignored.
func (h *Hub) SetStatus(userID, status string) {
	h.mu.Lock()
	if _, ok := h.sessions[userID]; !ok {
		h.mu.Unlock()
		return
	}
	h.presence[userID] = status
	h.mu.Unlock()

	h.broadcastStatus(userID, status)
}

// Status returns the presence status of the user, or offline when no session
// is live.
func (h *Hub) Status(userID string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if status, ok := h.presence[userID]; ok {
		return status
	}
	return StatusOffline
}

// OnlineUsers returns the ids of every user with a live session.
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		users = append(users, id)
	}
	return users
}

// broadcastStatus pushes a user_status_changed event to every live session.
func (h *Hub) broadcastStatus(userID, status string) {
	h.BroadcastAll(mustEvent(EventUserStatusChanged, StatusPayload{UserID: userID, Status: status}))
}

// Shutdown kicks every live session. Used during graceful server shutdown.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.sessions))
	for _, client := range h.sessions {
		clients = append(clients, client)
	}
	h.sessions = make(map[string]*Client)
	h.rooms = make(map[string]map[*Client]struct{})
	h.presence = make(map[string]string)
	h.mu.Unlock()

	for _, client := range clients {
		client.Kick("server shutting down")
	}

	h.logger.Info().Msg("Hub shutdown complete.")
}

// mustEvent builds an Event for payload types owned by this package, where
// marshaling cannot fail.
func mustEvent(eventType EventType, payload any) Event {
	event, err := NewEvent(eventType, payload)
	if err != nil {
		logx.Error(err, "Failed to build event", "event_type", string(eventType))
		return Event{Type: eventType}
	}
	return event
}
