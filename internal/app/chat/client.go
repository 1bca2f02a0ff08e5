/*
This file defines the Client struct, representing an active WebSocket session.
It manages the session's lifecycle, the message communication loops (ReadPump
and WritePump), and the per-event handlers that mutate the store and fan
results out through the Hub.
*/
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"relaychat/internal/app/store"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 8192

	// MaxContentBytes is the maximum allowed size (in bytes) for message content.
	MaxContentBytes = 5000

	// storeTimeout bounds every store call made on behalf of a socket event,
	// so a stalled database never wedges a read loop.
	storeTimeout = 5 * time.Second

	// WsCloseCodeSessionKicked is a custom WebSocket Close Code (4000-4999 range)
	// used to signal the client that the session was replaced or shut down.
	WsCloseCodeSessionKicked = 4001
)

// Client represents an active WebSocket session for one authenticated user.
type Client struct {
	// hub coordinating this session.
	hub *Hub

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// id of the authenticated user owning the session.
	userID string

	// subscribed is the set of room ids this session receives events for.
	// Guarded by the hub's mutex; only hub methods touch it after construction.
	subscribed map[string]struct{}

	// a buffered channel used to queue events waiting to be sent to the client.
	send chan []byte

	// kick is closed to ask WritePump to emit the 4001 close frame and exit.
	// All connection writes stay on the WritePump goroutine.
	kick       chan struct{}
	kickOnce   sync.Once
	kickReason string

	// structured logger with session context.
	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded connection.
func NewClient(hub *Hub, wsConn *websocket.Conn, userID string) *Client {
	clientLogger := logx.Logger().With().
		Str("user_id", userID).
		Logger()

	return &Client{
		hub:        hub,
		conn:       wsConn,
		userID:     userID,
		subscribed: make(map[string]struct{}),
		send:       make(chan []byte, 256),
		kick:       make(chan struct{}),
		logger:     clientLogger,
	}
}

// UserID returns the id of the user owning the session.
func (c *Client) UserID() string {
	return c.userID
}

// ReadPump handles reading events from the WebSocket connection.
// It handles heartbeats (Pong), event dispatch, and cleanup on closure.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.processInboundEvent(messageBytes)
	}
}

// cleanupOnDisconnect detaches the session from the hub and closes the socket.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Session cleanup starting.")

	c.hub.Unregister(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Session connection close error")
	}
}

// processInboundEvent decodes a raw frame and dispatches it to the matching
// event handler.
func (c *Client) processInboundEvent(messageBytes []byte) {
	var event Event
	if err := json.Unmarshal(messageBytes, &event); err != nil {
		c.logger.Warn().Err(err).
			Bytes("message_bytes", messageBytes).
			Msg("Client sent invalid JSON")
		c.SendError(errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	switch event.Type {
	case EventJoinRoom:
		c.handleJoinRoom(event.Payload)

	case EventLeaveRoom:
		c.handleLeaveRoom(event.Payload)

	case EventSendMessage:
		c.handleSendMessage(event.Payload)

	case EventMessageRead:
		c.handleMessageRead(event.Payload)

	case EventUpdateStatus:
		c.handleUpdateStatus(event.Payload)

	default:
		c.logger.Warn().Str("event_type", string(event.Type)).Msg("Client sent unsupported event type")
		c.SendError(errs.NewError(errs.ErrInvalidParams))
	}
}

// handleJoinRoom adds the user to the room's member set, subscribes the
// session, and announces the arrival to the room.
func (c *Client) handleJoinRoom(payloadBytes json.RawMessage) {
	var payload JoinRoomPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil || payload.RoomID == "" {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	ctx, cancel := c.storeContext()
	defer cancel()

	if _, err := c.hub.store.AddRoomMember(ctx, payload.RoomID, c.userID); err != nil {
		c.sendStoreError(err, errs.ErrRoomNotFound, "join_room")
		return
	}

	c.hub.Subscribe(c, payload.RoomID)

	c.sendEvent(EventRoomJoined, RoomEventPayload{RoomID: payload.RoomID, UserID: c.userID})
	c.hub.BroadcastToRoom(payload.RoomID, mustEvent(EventUserJoined, UserEventPayload{UserID: c.userID}), c)
}

// handleLeaveRoom removes the user from the room's member set, unsubscribes
// the session, and announces the departure to the room.
func (c *Client) handleLeaveRoom(payloadBytes json.RawMessage) {
	var payload JoinRoomPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil || payload.RoomID == "" {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	ctx, cancel := c.storeContext()
	defer cancel()

	if _, err := c.hub.store.RemoveRoomMember(ctx, payload.RoomID, c.userID); err != nil {
		c.sendStoreError(err, errs.ErrRoomNotFound, "leave_room")
		return
	}

	c.hub.Unsubscribe(c, payload.RoomID)

	c.sendEvent(EventRoomLeft, RoomEventPayload{RoomID: payload.RoomID, UserID: c.userID})
	c.hub.BroadcastToRoom(payload.RoomID, mustEvent(EventUserLeft, UserEventPayload{UserID: c.userID}), c)
}

// handleSendMessage persists a new message and delivers it to every session
// subscribed to the room, the sender included.
func (c *Client) handleSendMessage(payloadBytes json.RawMessage) {
	var payload SendMessagePayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil || payload.RoomID == "" {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	if !c.hub.IsSubscribed(c, payload.RoomID) {
		c.SendError(errs.NewError(errs.ErrNotRoomMember))
		return
	}

	input, customErr := BuildMessageInput(payload, c.userID)
	if customErr != nil {
		c.SendError(customErr)
		return
	}

	ctx, cancel := c.storeContext()
	defer cancel()

	msg, err := c.hub.store.AppendMessage(ctx, input)
	if err != nil {
		c.sendStoreError(err, errs.ErrRoomNotFound, "send_message")
		return
	}

	event, err := NewEvent(EventNewMessage, msg)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to build new_message event")
		return
	}

	c.hub.BroadcastToRoom(payload.RoomID, event, nil)
}

// handleMessageRead moves the message to read and pushes the receipt to the
// message's room. Re-reads and self-reads change nothing but still ack.
func (c *Client) handleMessageRead(payloadBytes json.RawMessage) {
	var payload MessageReadPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil || payload.MessageID == "" {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	ctx, cancel := c.storeContext()
	defer cancel()

	msg, err := c.hub.store.MarkMessageRead(ctx, payload.MessageID, c.userID)
	if err != nil {
		c.sendStoreError(err, errs.ErrMessageNotFound, "message_read")
		return
	}

	receipt := ReadReceiptPayload{MessageID: msg.ID, UserID: c.userID}
	c.hub.BroadcastToRoom(msg.RoomID, mustEvent(EventMessageReadAck, receipt), nil)
}

// handleUpdateStatus records a presence status chosen by the client and
// broadcasts the change to every session.
func (c *Client) handleUpdateStatus(payloadBytes json.RawMessage) {
	var payload UpdateStatusPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	if payload.Status == "" || len(payload.Status) > MaxStatusLength {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	c.hub.SetStatus(c.userID, payload.Status)
}

// BuildMessageInput validates a send_message payload into a store input. The
// REST message endpoint shares it so both ingress paths enforce the same rules.
func BuildMessageInput(payload SendMessagePayload, senderID string) (store.MessageInput, *errs.CustomError) {
	kind := store.KindText
	if payload.Kind != "" {
		parsed, ok := store.ParseMessageKind(payload.Kind)
		if !ok {
			return store.MessageInput{}, errs.NewError(errs.ErrMessageKindInvalid)
		}
		kind = parsed
	}

	if len(payload.Content) > MaxContentBytes {
		return store.MessageInput{}, errs.NewError(errs.ErrMessageContentTooLong)
	}
	if kind == store.KindText && payload.Content == "" {
		return store.MessageInput{}, errs.NewError(errs.ErrInvalidParams)
	}

	var meta *store.MessageMetadata
	if kind != store.KindText {
		decoded, customErr := DecodeAttachmentMetadata(payload.Metadata)
		if customErr != nil {
			return store.MessageInput{}, customErr
		}
		meta = decoded
	}

	return store.MessageInput{
		RoomID:   payload.RoomID,
		SenderID: senderID,
		Content:  payload.Content,
		Kind:     kind,
		Metadata: meta,
	}, nil
}

// storeContext bounds a store call made from the read loop.
func (c *Client) storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

// sendStoreError maps a store failure onto the right client-facing error.
func (c *Client) sendStoreError(err error, notFoundCode int, operation string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.SendError(errs.NewError(notFoundCode))
	case errors.Is(err, context.DeadlineExceeded):
		c.logger.Error().Err(err).Str("operation", operation).Msg("Store call timed out")
		c.SendError(errs.NewError(errs.ErrStorageTimeout))
	default:
		c.logger.Error().Err(err).Str("operation", operation).Msg("Store call failed")
		c.SendError(errs.NewError(errs.ErrUnknown))
	}
}

// WritePump handles writing events from the Client.send channel to the
// WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Session connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}

		case <-c.kick:
			c.writeKickMessage()
			return
		}
	}
}

// writeKickMessage sends the 4001 close frame after Kick was requested. The
// deferred close in WritePump tears the connection down afterwards.
func (c *Client) writeKickMessage() {
	closeMessage := websocket.FormatCloseMessage(WsCloseCodeSessionKicked, c.kickReason)

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on kick")
		return
	}

	if err := c.conn.WriteMessage(websocket.CloseMessage, closeMessage); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to send WS 4001 Close Message.")
	}
}

// writeQueuedMessage handles events pulled from the send channel, writing them
// to the WebSocket. Returns true if the WritePump loop should continue, false
// if it should terminate.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Error().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the
// connection heartbeat. Returns false if the WritePump loop should terminate.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// enqueue queues raw bytes for delivery, dropping the event when the session's
// queue is full so one slow consumer never blocks delivery to the rest.
func (c *Client) enqueue(raw []byte) {
	select {
	case c.send <- raw:
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Session send queue full, dropping event")
	}
}

// sendEvent marshals and queues an event for this session only.
func (c *Client) sendEvent(eventType EventType, payload any) {
	event, err := NewEvent(eventType, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to build event")
		return
	}

	raw, err := json.Marshal(event)
	if err != nil {
		c.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Error marshaling event")
		return
	}

	c.enqueue(raw)
}

// SendError queues an error event for this session only.
func (c *Client) SendError(err error) {
	var message string

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		message = customErr.Message
	} else {
		message = fmt.Sprintf("Internal server error: %v", err)
	}

	c.sendEvent(EventError, ErrorPayload{Message: message})
}

// Kick gracefully closes the session with a custom WebSocket Close Frame
// (Code 4001) indicating that the session was replaced or shut down. The frame
// itself is written by WritePump, which may be mid-write when the kick lands;
// the connection is never written from the caller's goroutine. Safe to call
// more than once.
func (c *Client) Kick(reason string) {
	c.kickOnce.Do(func() {
		c.logger.Warn().
			Int("close_code", WsCloseCodeSessionKicked).
			Str("reason", reason).
			Msg("Kicking session.")

		c.kickReason = reason
		close(c.kick)
	})
}

// Kicked reports whether the session has been asked to close.
func (c *Client) Kicked() bool {
	select {
	case <-c.kick:
		return true
	default:
		return false
	}
}
