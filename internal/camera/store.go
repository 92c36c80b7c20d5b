package camera

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"collabcanvas/internal/geometry"

	"github.com/goccy/go-json"
)

// ErrNotFound is returned by a Store for a key that was never set.
var ErrNotFound = errors.New("camera: key not found")

// Store is a best-effort key/value capability. Callers treat every error as
// "use the default".
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

type record struct {
	Offset geometry.Point `json:"offset"`
	Zoom   float64        `json:"zoom"`
	RoomID string         `json:"roomId"`
}

// Key is the storage key for a room's camera.
func Key(roomID string) string {
	return "canvas-camera-" + roomID
}

// Load restores the camera saved for roomID. Missing or unreadable state
// yields Default.
func Load(store Store, roomID string) State {
	if store == nil {
		return Default()
	}
	raw, err := store.Get(Key(roomID))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("[CAMERA] Failed to load camera state", "room", roomID, "error", err)
		}
		return Default()
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		slog.Warn("[CAMERA] Corrupt camera state, using default", "room", roomID, "error", err)
		return Default()
	}
	s := State{Offset: rec.Offset, Zoom: rec.Zoom}
	if s.Zoom == 0 {
		s.Zoom = 1
	}
	s.Zoom = Clamp(s.Zoom)
	return s
}

// Save writes s for roomID. Failures are logged and swallowed.
func Save(store Store, roomID string, s State) {
	if store == nil {
		return
	}
	raw, err := json.Marshal(record{Offset: s.Offset, Zoom: s.Zoom, RoomID: roomID})
	if err != nil {
		slog.Error("[CAMERA] Failed to encode camera state", "room", roomID, "error", err)
		return
	}
	if err := store.Set(Key(roomID), raw); err != nil {
		slog.Warn("[CAMERA] Failed to save camera state", "room", roomID, "error", err)
	}
}

// MemoryStore keeps values for the life of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// FileStore keeps one JSON file per key under a directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

func (s *FileStore) Get(key string) ([]byte, error) {
	raw, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read camera state: %w", err)
	}
	return raw, nil
}

func (s *FileStore) Set(key string, value []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create camera dir: %w", err)
	}
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return fmt.Errorf("write camera state: %w", err)
	}
	return os.Rename(tmp, s.path(key))
}
