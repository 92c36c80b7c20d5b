package ws

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"collabcanvas/internal/geometry"
	"collabcanvas/internal/models"
	"collabcanvas/internal/store"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// Time allowed to write a message
	writeWait = 10 * time.Second

	// Time allowed to read next pong message
	pongWait = 60 * time.Second

	// Send pings with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Max message size
	maxMessageSize = 512 * 1024

	sendBuffer = 256
)

// errInvalid marks a message the sender is told about.
var errInvalid = errors.New("invalid message")

// Client is the session record of one authenticated connection.
type Client struct {
	id     string
	userID string
	hub    *Hub
	conn   *websocket.Conn

	// rooms is guarded by hub.mu.
	rooms map[string]bool

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, id, userID string) *Client {
	return &Client{
		id:     id,
		userID: userID,
		hub:    hub,
		conn:   conn,
		rooms:  make(map[string]bool),
		send:   make(chan []byte, sendBuffer),
	}
}

// enqueue queues payload without blocking and reports whether it fit.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump pumps messages from the connection to the handlers.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("[CLIENT] Unexpected close", "session", c.id, "user", c.userID, "error", err)
			}
			break
		}
		c.handleClientMessage(context.Background(), message)
	}
}

// WritePump pumps queued messages and pings to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Warn("[CLIENT] Failed to write message", "session", c.id, "user", c.userID, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Warn("[CLIENT] Failed to send ping", "session", c.id, "user", c.userID, "error", err)
				return
			}
		}
	}
}

func (c *Client) handleClientMessage(ctx context.Context, raw []byte) {
	var msg models.Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		slog.Warn("[CLIENT] Error unmarshaling message", "session", c.id, "user", c.userID, "error", err)
		c.sendError()
		return
	}
	if msg.Type == "" {
		slog.Warn("[CLIENT] No 'type' field in message", "session", c.id, "user", c.userID)
		c.sendError()
		return
	}

	ctx, span := c.hub.tracer.Start(ctx, "ws."+msg.Type)
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", c.userID),
		attribute.String("room.id", string(msg.RoomID)),
	)

	var err error
	switch msg.Type {
	case models.TypeJoinRoom:
		err = c.handleJoin(msg)
	case models.TypeLeaveRoom:
		err = c.handleLeave(msg)
	case models.TypeChat:
		err = c.handleChat(ctx, msg)
	case models.TypeCameraUpdate:
		err = c.handleCamera(ctx, msg)
	case models.TypeDeleteShape:
		err = c.handleDelete(ctx, msg)
	default:
		slog.Warn("[CLIENT] Unknown event type", "type", msg.Type, "session", c.id, "user", c.userID)
	}

	if errors.Is(err, errInvalid) {
		span.SetStatus(codes.Error, err.Error())
		c.sendError()
	}
}

func (c *Client) handleJoin(msg models.Inbound) error {
	if msg.RoomID == "" {
		return errInvalid
	}
	c.hub.join(c, string(msg.RoomID))
	return nil
}

func (c *Client) handleLeave(msg models.Inbound) error {
	if msg.RoomID == "" {
		return errInvalid
	}
	c.hub.leave(c, string(msg.RoomID))
	return nil
}

func (c *Client) handleChat(ctx context.Context, msg models.Inbound) error {
	roomID := string(msg.RoomID)
	if !c.hub.isMember(c, roomID) {
		slog.Debug("[CLIENT] Chat from non-member dropped", "session", c.id, "user", c.userID, "room", roomID)
		return nil
	}
	numeric, ok := msg.RoomID.Numeric()
	if !ok {
		return nil
	}
	exists, err := c.hub.store.RoomExists(ctx, numeric)
	if err != nil {
		slog.Error("[CLIENT] Failed to look up room", "room", roomID, "error", err)
		return nil
	}
	if !exists {
		return nil
	}

	shape, err := geometry.DecodeEnvelope(msg.Message)
	if err != nil {
		slog.Warn("[CLIENT] Chat payload is not a shape", "session", c.id, "user", c.userID, "room", roomID, "error", err)
		return errInvalid
	}

	event := &store.Event{RoomID: numeric, Message: msg.Message, UserID: c.userID, ShapeID: shape.ShapeID()}
	if err := c.hub.store.CreateEvent(ctx, event); err != nil {
		slog.Error("[CLIENT] Failed to persist chat", "room", roomID, "user", c.userID, "error", err)
		return nil
	}

	c.broadcast(ctx, models.Event{
		Type:    models.TypeChat,
		RoomID:  msg.RoomID,
		Message: msg.Message,
	})
	return nil
}

func (c *Client) handleCamera(ctx context.Context, msg models.Inbound) error {
	if !c.hub.isMember(c, string(msg.RoomID)) {
		return nil
	}
	if msg.CameraOffset == nil || msg.CameraZoom == nil {
		return errInvalid
	}
	c.broadcast(ctx, models.Event{
		Type:         models.TypeCameraUpdate,
		RoomID:       msg.RoomID,
		CameraOffset: msg.CameraOffset,
		CameraZoom:   msg.CameraZoom,
	})
	return nil
}

func (c *Client) handleDelete(ctx context.Context, msg models.Inbound) error {
	roomID := string(msg.RoomID)
	if !c.hub.isMember(c, roomID) || msg.ShapeID == "" {
		return nil
	}
	if numeric, ok := msg.RoomID.Numeric(); ok {
		found, err := c.hub.store.DeleteShape(ctx, numeric, msg.ShapeID)
		switch {
		case err != nil:
			slog.Error("[CLIENT] Failed to delete shape", "room", roomID, "shape", msg.ShapeID, "error", err)
		case !found:
			slog.Debug("[CLIENT] No persisted event for shape", "room", roomID, "shape", msg.ShapeID)
		}
	}

	// Replicas drop the shape whether or not a record was found.
	c.broadcast(ctx, models.Event{
		Type:    models.TypeDeleteShape,
		RoomID:  msg.RoomID,
		ShapeID: msg.ShapeID,
	})
	return nil
}

func (c *Client) broadcast(ctx context.Context, event models.Event) {
	event.SenderID = c.userID
	event.Timestamp = time.Now().UnixMilli()

	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("[CLIENT] Failed to marshal event", "type", event.Type, "room", event.RoomID, "error", err)
		return
	}
	msg := &models.BroadcastMessage{RoomID: string(event.RoomID), Payload: payload}
	if err := c.hub.publisher.Publish(ctx, msg); err != nil {
		slog.Error("[CLIENT] Failed to publish event", "type", event.Type, "room", event.RoomID, "error", err)
	}
}

func (c *Client) sendError() {
	payload, err := json.Marshal(models.NewError())
	if err != nil {
		return
	}
	if !c.enqueue(payload) {
		slog.Warn("[CLIENT] Could not queue error note", "session", c.id, "user", c.userID)
	}
}
