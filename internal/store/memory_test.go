package store

import (
	"context"
	"errors"
	"testing"

	"collabcanvas/internal/geometry"
)

func payload(t *testing.T, s geometry.Shape) string {
	t.Helper()
	msg, err := geometry.EncodeEnvelope(s)
	if err != nil {
		t.Fatalf("EncodeEnvelope: %v", err)
	}
	return msg
}

func TestMemoryStore_EventsInInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	room, err := m.CreateRoom(ctx, "design", "u1")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	other, _ := m.CreateRoom(ctx, "other", "u1")

	for _, id := range []string{"a", "b", "c"} {
		e := &Event{RoomID: room.ID, UserID: "u1", Message: payload(t, geometry.Rect{Base: geometry.Base{ID: id}, Width: 1, Height: 1})}
		if err := m.CreateEvent(ctx, e); err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
		if e.ShapeID != id || e.ID == 0 {
			t.Errorf("event = %+v, want shape id %q and an id", e, id)
		}
	}
	m.CreateEvent(ctx, &Event{RoomID: other.ID, Message: payload(t, geometry.Line{Base: geometry.Base{ID: "z"}})})

	events, err := m.ListEvents(ctx, room.ID)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i, want := range []string{"a", "b", "c"} {
		if events[i].ShapeID != want {
			t.Errorf("event %d shape %q, want %q", i, events[i].ShapeID, want)
		}
	}
}

func TestMemoryStore_UnknownRoom(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	if ok, _ := m.RoomExists(ctx, 99); ok {
		t.Error("room 99 should not exist")
	}
	if _, err := m.ListEvents(ctx, 99); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("ListEvents err = %v, want ErrRoomNotFound", err)
	}
	if err := m.CreateEvent(ctx, &Event{RoomID: 99}); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("CreateEvent err = %v, want ErrRoomNotFound", err)
	}
}

func TestMemoryStore_DuplicateSlug(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.CreateRoom(ctx, "x", "u")
	if _, err := m.CreateRoom(ctx, "x", "u"); err == nil {
		t.Error("expected duplicate slug error")
	}
}

func TestMemoryStore_DeleteShapeFirstMatchOnly(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	room, _ := m.CreateRoom(ctx, "r", "u")
	dup := payload(t, geometry.Circle{Base: geometry.Base{ID: "dup"}, Radius: 3})
	m.CreateEvent(ctx, &Event{RoomID: room.ID, Message: dup})
	m.CreateEvent(ctx, &Event{RoomID: room.ID, Message: dup})

	found, err := m.DeleteShape(ctx, room.ID, "dup")
	if err != nil || !found {
		t.Fatalf("DeleteShape = %v, %v", found, err)
	}
	events, _ := m.ListEvents(ctx, room.ID)
	if len(events) != 1 || events[0].ID != 2 {
		t.Errorf("remaining = %+v, want only the second copy", events)
	}
}

func TestMemoryStore_DeleteShapeLegacyRow(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	room, _ := m.CreateRoom(ctx, "r", "u")
	m.events = append(m.events, Event{ID: 50, RoomID: room.ID, Message: payload(t, geometry.Rect{Base: geometry.Base{ID: "old"}})})

	found, err := m.DeleteShape(ctx, room.ID, "old")
	if err != nil || !found {
		t.Fatalf("DeleteShape = %v, %v", found, err)
	}
	if events, _ := m.ListEvents(ctx, room.ID); len(events) != 0 {
		t.Errorf("remaining = %+v", events)
	}
}

func TestMemoryStore_DeleteShapeNotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	room, _ := m.CreateRoom(ctx, "r", "u")
	m.CreateEvent(ctx, &Event{RoomID: room.ID, Message: "not json"})

	found, err := m.DeleteShape(ctx, room.ID, "missing")
	if err != nil || found {
		t.Errorf("DeleteShape = %v, %v, want not found", found, err)
	}
}

func TestShapeIDOf(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    string
	}{
		{"with id", `{"shape":{"type":"line","id":"L1","x1":0,"y1":0,"x2":1,"y2":1}}`, "L1"},
		{"legacy", `{"shape":{"type":"line","x1":0,"y1":0,"x2":1,"y2":1}}`, ""},
		{"garbage", `hello`, ""},
	}
	for _, tc := range cases {
		if got := ShapeIDOf(tc.message); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}
