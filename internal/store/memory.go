package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps rooms and events in process memory. It backs the server
// when no database is configured, and the tests.
type MemoryStore struct {
	mu     sync.Mutex
	rooms  map[uint]Room
	slugs  map[string]uint
	events []Event
	nextID uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[uint]Room),
		slugs: make(map[string]uint),
	}
}

func (m *MemoryStore) CreateRoom(_ context.Context, slug, adminID string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.slugs[slug]; taken {
		return nil, fmt.Errorf("room %q already exists", slug)
	}
	room := Room{ID: uint(len(m.rooms) + 1), Slug: slug, AdminID: adminID, CreatedAt: time.Now()}
	m.rooms[room.ID] = room
	m.slugs[slug] = room.ID
	return &room, nil
}

func (m *MemoryStore) RoomExists(_ context.Context, roomID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rooms[roomID]
	return ok, nil
}

func (m *MemoryStore) CreateEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[e.RoomID]; !ok {
		return ErrRoomNotFound
	}
	m.nextID++
	e.ID = m.nextID
	e.CreatedAt = time.Now()
	if e.ShapeID == "" {
		e.ShapeID = ShapeIDOf(e.Message)
	}
	m.events = append(m.events, *e)
	return nil
}

func (m *MemoryStore) ListEvents(_ context.Context, roomID uint) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[roomID]; !ok {
		return nil, ErrRoomNotFound
	}
	out := []Event{}
	for _, e := range m.events {
		if e.RoomID == roomID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryStore) DeleteShape(_ context.Context, roomID uint, shapeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, e := range m.events {
		if e.RoomID == roomID && e.ShapeID == shapeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i, e := range m.events {
			if e.RoomID == roomID && e.ShapeID == "" && ShapeIDOf(e.Message) == shapeID {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return false, nil
	}
	m.events = append(m.events[:idx], m.events[idx+1:]...)
	return true, nil
}

func (m *MemoryStore) Close() error { return nil }
