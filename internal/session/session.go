// Package session is the client side of the room protocol: it connects a
// draw.Board to a room on the broadcast server.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"collabcanvas/internal/camera"
	"collabcanvas/internal/draw"
	"collabcanvas/internal/geometry"
	"collabcanvas/internal/models"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	defaultOutboxSize = 64
)

// Session is one open room connection. It implements draw.Emitter.
type Session struct {
	roomID models.RoomID
	conn   *websocket.Conn
	board  *draw.Board
	hook   func(models.Event)

	outbox chan []byte

	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

type options struct {
	dialer     *websocket.Dialer
	outboxSize int
	hook       func(models.Event)
}

type Option func(*options)

func WithDialer(d *websocket.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithOutboxSize bounds how many unsent events are held before new ones are
// dropped.
func WithOutboxSize(n int) Option {
	return func(o *options) { o.outboxSize = n }
}

// WithEventHook observes every event received, after it is applied.
func WithEventHook(f func(models.Event)) Option {
	return func(o *options) { o.hook = f }
}

// Dial opens a connection to serverURL (ws:// or wss://), authenticates with
// the token from tokens, joins roomID and starts applying room events to
// board. Local edits on board are sent to the room until the session closes.
func Dial(ctx context.Context, serverURL, roomID string, tokens TokenSource, board *draw.Board, opts ...Option) (*Session, error) {
	o := options{dialer: websocket.DefaultDialer, outboxSize: defaultOutboxSize}
	for _, opt := range opts {
		opt(&o)
	}

	token, err := tokens.Token()
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := o.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", serverURL, err)
	}

	s := &Session{
		roomID: models.RoomID(roomID),
		conn:   conn,
		board:  board,
		hook:   o.hook,
		outbox: make(chan []byte, o.outboxSize),
		done:   make(chan struct{}),
	}

	join, err := json.Marshal(models.Inbound{Type: models.TypeJoinRoom, RoomID: s.roomID})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("marshal join: %w", err)
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join room %s: %w", roomID, err)
	}

	board.SetEmitter(s)
	go s.readPump()
	go s.writePump()

	slog.Info("[SESSION] Joined room", "room", roomID)
	return s, nil
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err reports why the session ended, or nil after Close.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close leaves the room and tears the board's input state down. The core
// does not reconnect.
func (s *Session) Close() error {
	s.shutdown(nil)
	return nil
}

func (s *Session) shutdown(cause error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.err = cause
		s.mu.Unlock()

		s.board.Destroy()
		close(s.done)
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		s.conn.Close()
		slog.Info("[SESSION] Session closed", "room", s.roomID, "error", cause)
	})
}

func (s *Session) EmitShape(shape geometry.Shape) {
	payload, err := geometry.EncodeEnvelope(shape)
	if err != nil {
		slog.Error("[SESSION] Failed to encode shape", "room", s.roomID, "error", err)
		return
	}
	s.send(models.Inbound{Type: models.TypeChat, RoomID: s.roomID, Message: payload})
}

func (s *Session) EmitDelete(shapeID string) {
	s.send(models.Inbound{Type: models.TypeDeleteShape, RoomID: s.roomID, ShapeID: shapeID})
}

func (s *Session) EmitCamera(c camera.State) {
	zoom := c.Zoom
	s.send(models.Inbound{
		Type:         models.TypeCameraUpdate,
		RoomID:       s.roomID,
		CameraOffset: &models.Offset{X: c.Offset.X, Y: c.Offset.Y},
		CameraZoom:   &zoom,
	})
}

// send queues msg without blocking. Events that do not fit are dropped.
func (s *Session) send(msg models.Inbound) {
	raw, err := json.Marshal(msg)
	if err != nil {
		slog.Error("[SESSION] Failed to marshal message", "type", msg.Type, "error", err)
		return
	}
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.outbox <- raw:
	default:
		slog.Warn("[SESSION] Outbox full, dropping event", "type", msg.Type, "room", s.roomID)
	}
}

func (s *Session) writePump() {
	for {
		select {
		case <-s.done:
			return
		case raw := <-s.outbox:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				slog.Warn("[SESSION] Failed to send", "room", s.roomID, "error", err)
				s.shutdown(err)
				return
			}
		}
	}
}

func (s *Session) readPump() {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				s.shutdown(err)
			}
			return
		}
		s.dispatch(raw)
	}
}

func (s *Session) dispatch(raw []byte) {
	var ev models.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		slog.Warn("[SESSION] Unreadable event", "room", s.roomID, "error", err)
		return
	}
	if ev.Type != models.TypeError && ev.RoomID != s.roomID {
		return
	}

	switch ev.Type {
	case models.TypeChat:
		shape, err := geometry.DecodeEnvelope(ev.Message)
		if err != nil {
			slog.Warn("[SESSION] Chat payload is not a shape", "room", s.roomID, "sender", ev.SenderID, "error", err)
			return
		}
		s.board.ApplyShape(shape)
	case models.TypeCameraUpdate:
		if ev.CameraOffset == nil || ev.CameraZoom == nil {
			return
		}
		s.board.ApplyCamera(camera.State{
			Offset: geometry.Point{X: ev.CameraOffset.X, Y: ev.CameraOffset.Y},
			Zoom:   *ev.CameraZoom,
		})
	case models.TypeDeleteShape:
		s.board.ApplyDelete(ev.ShapeID)
	case models.TypeError:
		slog.Warn("[SESSION] Server rejected a message", "room", s.roomID, "message", ev.Message)
	default:
		return
	}

	if s.hook != nil {
		s.hook(ev)
	}
}
