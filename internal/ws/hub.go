package ws

import (
	"context"
	"log/slog"
	"sync"

	"collabcanvas/internal/models"
	"collabcanvas/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Publisher fans an encoded event out to every member of its room, possibly
// through other server instances.
type Publisher interface {
	Publish(ctx context.Context, msg *models.BroadcastMessage) error
}

// Hub is the registry of live sessions and their room memberships.
type Hub struct {
	// Sessions by connection handle.
	sessions map[string]*Client

	// Members by room: roomId -> set of clients.
	rooms map[string]map[*Client]bool

	mu sync.RWMutex

	register   chan *Client
	unregister chan *Client

	// Broadcast delivers encoded events to local room members.
	Broadcast chan *models.BroadcastMessage

	publisher Publisher
	store     store.Store
	tracer    trace.Tracer

	done     chan struct{}
	stopOnce sync.Once
}

type HubOption func(*Hub)

// WithPublisher routes broadcasts through p instead of straight to the
// local members.
func WithPublisher(p Publisher) HubOption {
	return func(h *Hub) { h.publisher = p }
}

func WithTracer(t trace.Tracer) HubOption {
	return func(h *Hub) { h.tracer = t }
}

func NewHub(s store.Store, opts ...HubOption) *Hub {
	h := &Hub{
		sessions:   make(map[string]*Client),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		Broadcast:  make(chan *models.BroadcastMessage, 64),
		store:      s,
		tracer:     otel.Tracer("collabcanvas/ws"),
		done:       make(chan struct{}),
	}
	h.publisher = h
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run is the hub event loop. It returns when ctx is done or Shutdown is
// called, closing every session.
func (h *Hub) Run(ctx context.Context) {
	slog.Info("[HUB] Starting hub event loop")
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			h.stop()
			return
		case <-h.done:
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.Broadcast:
			h.broadcastToRoom(message)
		}
	}
}

// Shutdown stops Run and closes every session.
func (h *Hub) Shutdown() {
	h.stop()
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Done is closed once the hub stops.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Publish delivers msg to this hub's members. It is the Publisher used when
// no bus is configured.
func (h *Hub) Publish(ctx context.Context, msg *models.BroadcastMessage) error {
	h.Deliver(msg)
	return nil
}

// Deliver queues msg for the event loop. It drops msg once the hub stopped.
func (h *Hub) Deliver(msg *models.BroadcastMessage) {
	select {
	case h.Broadcast <- msg:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[client.id] = client
	slog.Info("[HUB] Session registered", "session", client.id, "user", client.userID, "sessions", len(h.sessions))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[client.id]; !ok {
		return
	}
	delete(h.sessions, client.id)
	for roomID := range client.rooms {
		h.removeMember(roomID, client)
	}
	client.rooms = nil
	client.closeSend()

	slog.Info("[HUB] Session unregistered", "session", client.id, "user", client.userID, "sessions", len(h.sessions))
}

// removeMember must be called with mu held.
func (h *Hub) removeMember(roomID string, client *Client) {
	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		slog.Debug("[HUB] Room is now empty, removing from hub", "room", roomID)
		delete(h.rooms, roomID)
	}
}

func (h *Hub) join(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client.rooms == nil {
		client.rooms = make(map[string]bool)
	}
	client.rooms[roomID] = true
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	slog.Debug("[HUB] Joined room", "session", client.id, "user", client.userID, "room", roomID, "members", len(h.rooms[roomID]))
}

func (h *Hub) leave(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(client.rooms, roomID)
	h.removeMember(roomID, client)
	slog.Debug("[HUB] Left room", "session", client.id, "user", client.userID, "room", roomID)
}

func (h *Hub) isMember(client *Client, roomID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return client.rooms[roomID]
}

func (h *Hub) broadcastToRoom(message *models.BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members, ok := h.rooms[message.RoomID]
	if !ok {
		slog.Debug("[HUB] No members in room", "room", message.RoomID)
		return
	}

	sent, skipped := 0, 0
	for client := range members {
		if client.enqueue(message.Payload) {
			sent++
			continue
		}
		// A slow member misses this event but stays connected.
		slog.Warn("[HUB] Member buffer full, skipping", "session", client.id, "user", client.userID, "room", message.RoomID)
		skipped++
	}
	slog.Debug("[HUB] Broadcast complete", "room", message.RoomID, "sent", sent, "skipped", skipped)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.sessions {
		client.closeSend()
		delete(h.sessions, id)
	}
	h.rooms = make(map[string]map[*Client]bool)
	slog.Info("[HUB] Hub stopped")
}

// Members returns the user ids currently joined to roomID, one per session.
func (h *Hub) Members(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := []string{}
	for client := range h.rooms[roomID] {
		users = append(users, client.userID)
	}
	return users
}

// SessionCount reports the number of live sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
