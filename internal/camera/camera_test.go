package camera

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"collabcanvas/internal/geometry"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestWorldFromScreen(t *testing.T) {
	s := State{Offset: geometry.Point{X: 100, Y: 50}, Zoom: 2}
	got := s.WorldFromScreen(geometry.Point{X: 300, Y: 250})
	if got != (geometry.Point{X: 100, Y: 100}) {
		t.Errorf("WorldFromScreen = %v, want {100 100}", got)
	}
	back := s.ScreenFromWorld(got)
	if back != (geometry.Point{X: 300, Y: 250}) {
		t.Errorf("ScreenFromWorld = %v, want {300 250}", back)
	}
}

func TestZoom_AlwaysClamped(t *testing.T) {
	s := Default()
	for i := 0; i < 50; i++ {
		s = s.ZoomIn()
		if s.Zoom > MaxZoom {
			t.Fatalf("zoom %v exceeds max after %d zoom-ins", s.Zoom, i+1)
		}
	}
	if s.Zoom != MaxZoom {
		t.Errorf("zoom %v, want %v", s.Zoom, MaxZoom)
	}
	for i := 0; i < 80; i++ {
		s = s.ZoomOut()
		if s.Zoom < MinZoom {
			t.Fatalf("zoom %v below min after %d zoom-outs", s.Zoom, i+1)
		}
	}
	if s.Zoom != MinZoom {
		t.Errorf("zoom %v, want %v", s.Zoom, MinZoom)
	}
	s = s.ZoomAtPoint(geometry.Point{X: 10, Y: 10}, -3)
	if s.Zoom != MinZoom {
		t.Errorf("wheel zoom %v, want %v", s.Zoom, MinZoom)
	}
	s = s.ZoomAtPoint(geometry.Point{X: 10, Y: 10}, 30)
	if s.Zoom != MaxZoom {
		t.Errorf("wheel zoom %v, want %v", s.Zoom, MaxZoom)
	}
}

func TestZoomIn_KeepsOffset(t *testing.T) {
	s := State{Offset: geometry.Point{X: 7, Y: -3}, Zoom: 1}
	s = s.ZoomIn()
	if s.Offset != (geometry.Point{X: 7, Y: -3}) {
		t.Errorf("offset changed to %v", s.Offset)
	}
	if !near(s.Zoom, 1.2) {
		t.Errorf("zoom %v, want 1.2", s.Zoom)
	}
}

func TestZoomAtPoint_KeepsWorldPointUnderCursor(t *testing.T) {
	s := State{Offset: geometry.Point{X: 40, Y: -20}, Zoom: 1.3}
	cursor := geometry.Point{X: 250, Y: 180}
	before := s.WorldFromScreen(cursor)
	s = s.ZoomAtPoint(cursor, 0.4)
	after := s.WorldFromScreen(cursor)
	if !near(before.X, after.X) || !near(before.Y, after.Y) {
		t.Errorf("world under cursor moved from %v to %v", before, after)
	}
	if !near(s.Zoom, 1.7) {
		t.Errorf("zoom %v, want 1.7", s.Zoom)
	}
}

func TestReset(t *testing.T) {
	s := State{Offset: geometry.Point{X: 1, Y: 2}, Zoom: 3}.Reset()
	if s != Default() {
		t.Errorf("Reset = %v, want %v", s, Default())
	}
}

func TestPanTo(t *testing.T) {
	s := Default().PanTo(geometry.Point{X: 30, Y: 40}, geometry.Point{X: 10, Y: 10})
	if s.Offset != (geometry.Point{X: 20, Y: 30}) {
		t.Errorf("offset %v, want {20 30}", s.Offset)
	}
}

func TestLoadSave_FileStore(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "camera"))
	if got := Load(store, "7"); got != Default() {
		t.Errorf("Load on empty store = %v, want default", got)
	}
	want := State{Offset: geometry.Point{X: -12, Y: 8.5}, Zoom: 2.5}
	Save(store, "7", want)
	if got := Load(store, "7"); got != want {
		t.Errorf("Load = %v, want %v", got, want)
	}
	if got := Load(store, "8"); got != Default() {
		t.Errorf("other room = %v, want default", got)
	}
}

func TestLoad_CorruptFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	if err := os.WriteFile(filepath.Join(dir, Key("1")+".json"), []byte("{oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Load(store, "1"); got != Default() {
		t.Errorf("Load = %v, want default", got)
	}
}

func TestLoad_ZeroZoomBecomesOne(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Set(Key("r"), []byte(`{"offset":{"x":5,"y":6},"roomId":"r"}`)); err != nil {
		t.Fatal(err)
	}
	got := Load(store, "r")
	if got.Zoom != 1 || got.Offset != (geometry.Point{X: 5, Y: 6}) {
		t.Errorf("Load = %v", got)
	}
}

type failingStore struct{}

func (failingStore) Get(string) ([]byte, error) { return nil, errors.New("disk gone") }
func (failingStore) Set(string, []byte) error   { return errors.New("disk gone") }

func TestLoadSave_StorageFailureIsNotFatal(t *testing.T) {
	Save(failingStore{}, "1", State{Zoom: 2})
	if got := Load(failingStore{}, "1"); got != Default() {
		t.Errorf("Load = %v, want default", got)
	}
}
