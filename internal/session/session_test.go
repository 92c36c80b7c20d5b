package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"collabcanvas/internal/api"
	"collabcanvas/internal/auth"
	"collabcanvas/internal/camera"
	"collabcanvas/internal/draw"
	"collabcanvas/internal/geometry"
	"collabcanvas/internal/models"
	"collabcanvas/internal/store"
	"collabcanvas/internal/ws"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const secret = "session-test-secret"

type room struct {
	srv *httptest.Server
	hub *ws.Hub
	st  *store.MemoryStore
}

func newRoom(t *testing.T) *room {
	t.Helper()
	st := store.NewMemoryStore()
	if _, err := st.CreateRoom(context.Background(), "board", "u1"); err != nil {
		t.Fatal(err)
	}
	hub := ws.NewHub(st)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(api.NewRouter(hub, auth.NewVerifier(secret, nil), st, nil))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &room{srv: srv, hub: hub, st: st}
}

func (r *room) wsURL() string {
	return "ws" + strings.TrimPrefix(r.srv.URL, "http") + "/ws"
}

func (r *room) connect(t *testing.T, user string) *draw.Board {
	t.Helper()
	token, err := auth.Sign(secret, user, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	board := draw.NewBoard("1")
	s, err := Dial(context.Background(), r.wsURL(), "1", StaticToken(token), board)
	if err != nil {
		t.Fatalf("dial as %s: %v", user, err)
	}
	t.Cleanup(func() { s.Close() })
	return board
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (r *room) joined(t *testing.T, n int) {
	t.Helper()
	waitFor(t, "members to join", func() bool { return len(r.hub.Members("1")) == n })
}

func TestSession_TextReachesOtherReplica(t *testing.T) {
	r := newRoom(t)
	a := r.connect(t, "u1")
	b := r.connect(t, "u2")
	r.joined(t, 2)

	a.SetTool(draw.ToolText)
	a.PointerDown(draw.PointerEvent{Screen: geometry.Point{X: 100, Y: 100}})
	a.SetText("hi")
	a.KeyDown(draw.KeyEnter, false)

	waitFor(t, "text on second replica", func() bool { return len(b.Shapes()) == 1 })
	got, ok := b.Shapes()[0].(geometry.Text)
	if !ok || got.X != 100 || got.Y != 100 || got.Text != "hi" {
		t.Fatalf("shape = %#v", b.Shapes()[0])
	}
	if n := len(a.Shapes()); n != 1 {
		t.Errorf("author has %d shapes after echo, want 1", n)
	}

	waitFor(t, "event persisted", func() bool {
		events, _ := r.st.ListEvents(context.Background(), 1)
		return len(events) == 1
	})
	token, _ := auth.Sign(secret, "u3", time.Hour)
	shapes, err := FetchShapes(context.Background(), nil, r.srv.URL, "1", token)
	if err != nil {
		t.Fatal(err)
	}
	if len(shapes) != 1 || shapes[0].ShapeID() != got.ShapeID() {
		t.Errorf("hydrated = %#v", shapes)
	}
}

func TestSession_EraseRemovesEverywhere(t *testing.T) {
	r := newRoom(t)
	a := r.connect(t, "u1")
	b := r.connect(t, "u2")
	r.joined(t, 2)

	a.SetTool(draw.ToolRect)
	a.PointerDown(draw.PointerEvent{Screen: geometry.Point{X: 10, Y: 10}})
	a.PointerMove(draw.PointerEvent{Screen: geometry.Point{X: 60, Y: 60}})
	a.PointerUp(draw.PointerEvent{Screen: geometry.Point{X: 60, Y: 60}})
	waitFor(t, "rect on second replica", func() bool { return len(b.Shapes()) == 1 })

	b.SetTool(draw.ToolEraser)
	b.PointerDown(draw.PointerEvent{Screen: geometry.Point{X: 30, Y: 30}})
	b.PointerUp(draw.PointerEvent{Screen: geometry.Point{X: 30, Y: 30}})

	waitFor(t, "rect removed from both", func() bool {
		return len(a.Shapes()) == 0 && len(b.Shapes()) == 0
	})
	waitFor(t, "rect deleted from store", func() bool {
		events, _ := r.st.ListEvents(context.Background(), 1)
		return len(events) == 0
	})
}

func TestSession_CameraFollowsLastWriter(t *testing.T) {
	r := newRoom(t)
	a := r.connect(t, "u1")
	b := r.connect(t, "u2")
	r.joined(t, 2)

	a.ZoomIn()
	waitFor(t, "zoom on second replica", func() bool { return b.Camera() == a.Camera() })

	b.PointerDown(draw.PointerEvent{Screen: geometry.Point{X: 0, Y: 0}})
	b.PointerMove(draw.PointerEvent{Screen: geometry.Point{X: 25, Y: 40}})
	b.PointerUp(draw.PointerEvent{Screen: geometry.Point{X: 25, Y: 40}})
	waitFor(t, "pan on first replica", func() bool { return a.Camera() == b.Camera() })
	if a.Camera().Offset != (geometry.Point{X: 25, Y: 40}) {
		t.Errorf("camera = %+v", a.Camera())
	}
}

func TestSession_EventHookAndOtherRooms(t *testing.T) {
	r := newRoom(t)
	token, _ := auth.Sign(secret, "u1", time.Hour)
	seen := make(chan models.Event, 4)
	board := draw.NewBoard("1")
	s, err := Dial(context.Background(), r.wsURL(), "1", StaticToken(token), board,
		WithEventHook(func(ev models.Event) { seen <- ev }))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	r.joined(t, 1)

	s.dispatch([]byte(`{"type":"delete_shape","roomId":"2","shapeId":"x"}`))
	s.EmitDelete("x")

	select {
	case ev := <-seen:
		if ev.Type != models.TypeDeleteShape || ev.RoomID != "1" || ev.SenderID != "u1" {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no event observed")
	}
}

func TestSession_CloseDestroysBoard(t *testing.T) {
	r := newRoom(t)
	token, _ := auth.Sign(secret, "u1", time.Hour)
	board := draw.NewBoard("1")
	s, err := Dial(context.Background(), r.wsURL(), "1", StaticToken(token), board)
	if err != nil {
		t.Fatal(err)
	}
	r.joined(t, 1)

	board.SetTool(draw.ToolText)
	board.PointerDown(draw.PointerEvent{Screen: geometry.Point{X: 5, Y: 5}})
	s.Close()

	<-s.Done()
	if _, open := board.TextEntry(); open {
		t.Error("text entry survived close")
	}
	if s.Err() != nil {
		t.Errorf("err = %v", s.Err())
	}
	waitFor(t, "server to drop session", func() bool { return r.hub.SessionCount() == 0 })
}

func TestSession_ServerDisconnectEndsSession(t *testing.T) {
	r := newRoom(t)
	token, _ := auth.Sign(secret, "u1", time.Hour)
	s, err := Dial(context.Background(), r.wsURL(), "1", StaticToken(token), draw.NewBoard("1"))
	if err != nil {
		t.Fatal(err)
	}
	r.joined(t, 1)
	r.hub.Shutdown()

	select {
	case <-s.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("session still open after server shutdown")
	}
	if s.Err() == nil {
		t.Error("want a disconnect cause")
	}
}

func TestSession_OutboxFullDrops(t *testing.T) {
	s := &Session{roomID: "1", outbox: make(chan []byte, 1), done: make(chan struct{})}
	s.EmitCamera(camera.Default())
	s.EmitDelete("a")
	if len(s.outbox) != 1 {
		t.Fatalf("outbox holds %d", len(s.outbox))
	}
	var msg models.Inbound
	if err := json.Unmarshal(<-s.outbox, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != models.TypeCameraUpdate || msg.CameraZoom == nil || *msg.CameraZoom != 1 {
		t.Errorf("queued = %+v", msg)
	}
}

func TestDial_SendsJoinFirst(t *testing.T) {
	frames := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok" {
			t.Errorf("token query = %q", r.URL.RawQuery)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, raw, err := conn.ReadMessage()
		if err == nil {
			frames <- string(raw)
		}
	}))
	defer srv.Close()

	s, err := Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), "7", StaticToken("tok"), draw.NewBoard("7"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	select {
	case got := <-frames:
		if got != `{"type":"join_room","roomId":"7"}` {
			t.Errorf("first frame = %s", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no join frame")
	}
}

func TestDial_NoToken(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/ws", "1", StaticToken(""), draw.NewBoard("1"))
	if !errors.Is(err, ErrNoToken) {
		t.Errorf("err = %v, want ErrNoToken", err)
	}
}

func TestFileToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	if err := os.WriteFile(path, []byte("  abc.def.ghi\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got, err := FileToken(path).Token(); err != nil || got != "abc.def.ghi" {
		t.Errorf("token = %q, %v", got, err)
	}

	empty := filepath.Join(dir, "empty")
	os.WriteFile(empty, []byte("\n"), 0o600)
	for _, p := range []string{empty, filepath.Join(dir, "missing")} {
		if _, err := FileToken(p).Token(); !errors.Is(err, ErrNoToken) {
			t.Errorf("%s: err = %v", p, err)
		}
	}
}

func TestFetchShapes_Errors(t *testing.T) {
	r := newRoom(t)
	if _, err := FetchShapes(context.Background(), nil, r.srv.URL, "1", "bad"); err == nil {
		t.Error("want error for rejected token")
	}
	token, _ := auth.Sign(secret, "u1", time.Hour)
	if _, err := FetchShapes(context.Background(), nil, r.srv.URL, "42", token); err == nil {
		t.Error("want error for unknown room")
	}

	r.st.CreateEvent(context.Background(), &store.Event{RoomID: 1, UserID: "u1", Message: "plain chat"})
	valid, _ := geometry.EncodeEnvelope(geometry.Circle{Base: geometry.Base{ID: "c"}, Radius: 3})
	r.st.CreateEvent(context.Background(), &store.Event{RoomID: 1, UserID: "u1", Message: valid})
	shapes, err := FetchShapes(context.Background(), nil, r.srv.URL+"/", "1", token)
	if err != nil {
		t.Fatal(err)
	}
	if len(shapes) != 1 || shapes[0].ShapeID() != "c" {
		t.Errorf("shapes = %#v", shapes)
	}
}
