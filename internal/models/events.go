// Package models holds the JSON wire messages exchanged between canvas
// clients and the room broadcast server.
package models

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Message types.
const (
	TypeJoinRoom     = "join_room"
	TypeLeaveRoom    = "leave_room"
	TypeChat         = "chat"
	TypeCameraUpdate = "camera_update"
	TypeDeleteShape  = "delete_shape"
	TypeError        = "error"
)

// InvalidMessage is the only error text sent back to clients.
const InvalidMessage = "invalid message"

// RoomID is a room identifier. Clients send it either as a JSON string or
// as a number; it is always re-encoded as a string.
type RoomID string

func (r *RoomID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*r = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*r = RoomID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = RoomID(n.String())
	return nil
}

// Numeric parses the identifier as a numeric room id.
func (r RoomID) Numeric() (uint, bool) {
	n, err := strconv.ParseUint(string(r), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}

// Offset is a camera translation.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Inbound is any client-to-server message. Fields not used by Type are
// left zero.
type Inbound struct {
	Type         string   `json:"type"`
	RoomID       RoomID   `json:"roomId"`
	Message      string   `json:"message,omitempty"`
	CameraOffset *Offset  `json:"cameraOffset,omitempty"`
	CameraZoom   *float64 `json:"cameraZoom,omitempty"`
	ShapeID      string   `json:"shapeId,omitempty"`
}

// Event is a server-to-client broadcast.
type Event struct {
	Type         string   `json:"type"`
	RoomID       RoomID   `json:"roomId"`
	Message      string   `json:"message,omitempty"`
	CameraOffset *Offset  `json:"cameraOffset,omitempty"`
	CameraZoom   *float64 `json:"cameraZoom,omitempty"`
	ShapeID      string   `json:"shapeId,omitempty"`
	SenderID     string   `json:"senderId"`
	Timestamp    int64    `json:"timestamp"`
}

// ErrorEvent is sent to a single connection when its message is dropped.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// BroadcastMessage is an encoded Event addressed to a room's members.
type BroadcastMessage struct {
	RoomID  string
	Payload []byte
}

// StoredMessage is one persisted chat event as returned by the hydration
// endpoint.
type StoredMessage struct {
	ID      uint   `json:"id"`
	RoomID  uint   `json:"roomId"`
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// ChatsResponse is the body of GET /chats/{roomId}.
type ChatsResponse struct {
	Messages []StoredMessage `json:"messages"`
}

// MembersResponse is the body of GET /rooms/{roomId}/members: one user id
// per joined session.
type MembersResponse struct {
	RoomID  RoomID   `json:"roomId"`
	Members []string `json:"members"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// NewError returns the generic rejection sent to a sender.
func NewError() ErrorEvent {
	return ErrorEvent{Type: TypeError, Message: InvalidMessage}
}
