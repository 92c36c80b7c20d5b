// Package store persists rooms and the chat events from which a room's
// shape set is rebuilt.
package store

import (
	"context"
	"errors"
	"time"

	"collabcanvas/internal/geometry"
)

var ErrRoomNotFound = errors.New("store: room not found")

// Room is a collaboration namespace. Only its id is read by the broadcast
// server.
type Room struct {
	ID        uint   `gorm:"primaryKey"`
	Slug      string `gorm:"uniqueIndex;not null"`
	AdminID   string
	CreatedAt time.Time
}

// Event is one persisted shape creation. Message is the opaque payload
// exactly as the client sent it.
type Event struct {
	ID      uint   `gorm:"primaryKey"`
	RoomID  uint   `gorm:"index;not null"`
	Message string `gorm:"type:text;not null"`
	UserID  string `gorm:"not null"`
	// ShapeID is extracted from Message at insert time. Rows written before
	// the column existed leave it empty.
	ShapeID   string `gorm:"index"`
	CreatedAt time.Time
}

// TableName keeps the historical table name.
func (Event) TableName() string { return "chats" }

// Store is the persistence collaborator of the broadcast server.
type Store interface {
	CreateRoom(ctx context.Context, slug, adminID string) (*Room, error)
	RoomExists(ctx context.Context, roomID uint) (bool, error)
	// CreateEvent persists e, assigning its ID and filling ShapeID from the
	// payload when empty.
	CreateEvent(ctx context.Context, e *Event) error
	// ListEvents returns the room's events in insertion order, or
	// ErrRoomNotFound.
	ListEvents(ctx context.Context, roomID uint) ([]Event, error)
	// DeleteShape removes the first event in the room whose payload carries
	// shapeID and reports whether one was found.
	DeleteShape(ctx context.Context, roomID uint, shapeID string) (bool, error)
	Close() error
}

// ShapeIDOf returns the shape identifier embedded in a chat payload, or ""
// when the payload has none or is not a shape envelope.
func ShapeIDOf(message string) string {
	s, err := geometry.DecodeEnvelope(message)
	if err != nil {
		return ""
	}
	return s.ShapeID()
}
