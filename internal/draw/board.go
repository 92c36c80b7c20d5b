// Package draw is the per-client interaction state machine: tool selection,
// in-progress shape construction, panning and zooming, text entry, eraser
// deletion, and application of remote room events to the local replica.
package draw

import (
	"log/slog"
	"sync"

	"collabcanvas/internal/camera"
	"collabcanvas/internal/geometry"
	"collabcanvas/internal/render"
)

// Emitter sends local edits to the room. Calls must not block.
type Emitter interface {
	EmitShape(s geometry.Shape)
	EmitDelete(shapeID string)
	EmitCamera(c camera.State)
}

// Resizer is implemented by surfaces whose extent can change.
type Resizer interface {
	Resize(width, height float64)
}

// Board is one client's view of a room. Every exported method is safe to
// call from the input loop and the network reader concurrently; each runs
// to completion, including its redraw, before the next starts.
type Board struct {
	mu sync.Mutex

	roomID  string
	surface render.Surface
	emitter Emitter
	store   camera.Store
	newID   func() string
	logger  *slog.Logger

	tool   Tool
	mode   Mode
	cam    camera.State
	shapes []geometry.Shape

	// anchor is the world-space drag start while drawing, and the screen
	// position minus the offset while panning.
	anchor  geometry.Point
	preview geometry.Shape
	pencil  []geometry.Point
	erased  map[string]bool
	text    *TextEntry
}

// Option configures a Board.
type Option func(*Board)

// WithSurface sets the render target. Without one the board keeps state but
// paints nothing.
func WithSurface(s render.Surface) Option {
	return func(b *Board) { b.surface = s }
}

// WithEmitter sets where local edits are sent.
func WithEmitter(e Emitter) Option {
	return func(b *Board) { b.emitter = e }
}

// WithCameraStore sets where the camera is persisted per room.
func WithCameraStore(s camera.Store) Option {
	return func(b *Board) { b.store = s }
}

// WithIDFunc overrides shape identifier generation.
func WithIDFunc(f func() string) Option {
	return func(b *Board) { b.newID = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Board) { b.logger = l }
}

// NewBoard creates a board for roomID, restoring the camera saved for it.
func NewBoard(roomID string, opts ...Option) *Board {
	b := &Board{
		roomID: roomID,
		newID:  geometry.NewID,
		logger: slog.Default(),
		tool:   ToolSelect,
		mode:   ModeIdle,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.cam = camera.Load(b.store, roomID)
	return b
}

// SetEmitter attaches or replaces the emitter, typically once the room
// session is open.
func (b *Board) SetEmitter(e Emitter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emitter = e
}

func (b *Board) RoomID() string { return b.roomID }

func (b *Board) SetTool(t Tool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tool = t
}

func (b *Board) Tool() Tool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tool
}

func (b *Board) Mode() Mode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

func (b *Board) Camera() camera.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cam
}

// Shapes returns a copy of the local shape set in render order.
func (b *Board) Shapes() []geometry.Shape {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]geometry.Shape(nil), b.shapes...)
}

// Preview returns the in-progress shape, or nil.
func (b *Board) Preview() geometry.Shape {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.preview
}

// Load replaces the shape set with a hydrated snapshot.
func (b *Board) Load(shapes []geometry.Shape) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shapes = append([]geometry.Shape(nil), shapes...)
	b.redraw()
}

// Redraw repaints the current state.
func (b *Board) Redraw() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.redraw()
}

// Resize changes the surface extent, if it supports it, and repaints.
func (b *Board) Resize(width, height float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.surface.(Resizer); ok {
		r.Resize(width, height)
	}
	b.redraw()
}

// Destroy discards any open text entry and detaches the emitter. The board
// stops sending after Destroy.
func (b *Board) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = nil
	b.preview = nil
	b.pencil = nil
	b.erased = nil
	b.mode = ModeIdle
	b.emitter = nil
}

// PointerDown starts a pan, a drag, an erase, or a text entry.
func (b *Board) PointerDown(e PointerEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.text != nil && b.tool != ToolText {
		b.commitText()
	}

	if e.Button == ButtonMiddle || (e.Button == ButtonLeft && e.Shift) || b.tool == ToolSelect {
		b.mode = ModePanning
		b.anchor = e.Screen.Sub(b.cam.Offset)
		return
	}
	if e.Button != ButtonLeft {
		return
	}

	world := b.cam.WorldFromScreen(e.Screen)
	switch b.tool {
	case ToolText:
		b.openText(e.Screen, world)
	case ToolEraser:
		b.mode = ModeErasing
		b.anchor = world
		b.erased = make(map[string]bool)
		b.erase(world)
	default:
		b.mode = ModeDrawing
		b.anchor = world
		b.pencil = nil
		if b.tool == ToolPencil {
			b.pencil = []geometry.Point{world}
		}
	}
}

// PointerMove updates a pan, a drag preview, or an erase.
func (b *Board) PointerMove(e PointerEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.mode {
	case ModePanning:
		// The camera is sent once the pan ends.
		b.cam = b.cam.PanTo(e.Screen, b.anchor)
		b.redraw()
	case ModeDrawing:
		world := b.cam.WorldFromScreen(e.Screen)
		if b.tool == ToolPencil {
			b.pencil = append(b.pencil, world)
		}
		b.preview = shapeFor(b.tool, b.anchor, world, b.pencil)
		b.redraw()
	case ModeErasing:
		b.erase(b.cam.WorldFromScreen(e.Screen))
	}
}

// PointerUp ends a pan, finalizes a drawn shape, or ends an erase.
func (b *Board) PointerUp(e PointerEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.mode {
	case ModePanning:
		b.mode = ModeIdle
		b.publishCamera()
	case ModeErasing:
		b.mode = ModeIdle
		b.erased = nil
	case ModeDrawing:
		world := b.cam.WorldFromScreen(e.Screen)
		shape := shapeFor(b.tool, b.anchor, world, b.pencil)
		b.mode = ModeIdle
		b.preview = nil
		b.pencil = nil
		if shape == nil {
			b.redraw()
			return
		}
		b.create(shape)
	}
}

// Wheel zooms toward the cursor. It works in any mode.
func (b *Board) Wheel(screen geometry.Point, deltaY float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cam = b.cam.ZoomAtPoint(screen, -deltaY*WheelSensitivity)
	b.redraw()
	b.publishCamera()
}

func (b *Board) ZoomIn() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cam = b.cam.ZoomIn()
	b.redraw()
	b.publishCamera()
}

func (b *Board) ZoomOut() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cam = b.cam.ZoomOut()
	b.redraw()
	b.publishCamera()
}

func (b *Board) ResetZoom() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cam = b.cam.Reset()
	b.redraw()
	b.publishCamera()
}

// ApplyShape appends a shape broadcast by the room. A shape whose
// identifier is already present is the echo of a local edit and is skipped.
func (b *Board) ApplyShape(s geometry.Shape) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id := s.ShapeID(); id != "" && b.indexOf(id) >= 0 {
		return
	}
	b.shapes = append(b.shapes, s)
	b.redraw()
}

// ApplyCamera overwrites the camera with a broadcast one.
func (b *Board) ApplyCamera(c camera.State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.Zoom = camera.Clamp(c.Zoom)
	b.cam = c
	b.redraw()
}

// ApplyDelete removes the shape with the given identifier.
func (b *Board) ApplyDelete(shapeID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if shapeID == "" {
		return
	}
	kept := b.shapes[:0]
	for _, s := range b.shapes {
		if s.ShapeID() != shapeID {
			kept = append(kept, s)
		}
	}
	for i := len(kept); i < len(b.shapes); i++ {
		b.shapes[i] = nil
	}
	b.shapes = kept
	b.redraw()
}

func (b *Board) create(shape geometry.Shape) {
	shape = geometry.WithID(shape, b.newID())
	b.shapes = append(b.shapes, shape)
	b.redraw()
	if b.emitter != nil {
		b.emitter.EmitShape(shape)
	}
	b.logger.Debug("[BOARD] Shape created", "room", b.roomID, "type", shape.Kind(), "id", shape.ShapeID())
}

// erase sends one deletion per touched shape for the current drag.
func (b *Board) erase(world geometry.Point) {
	for _, s := range b.shapes {
		id := s.ShapeID()
		if id == "" || b.erased[id] {
			continue
		}
		if !geometry.HitTest(world, s, EraserTolerance) {
			continue
		}
		b.erased[id] = true
		if b.emitter != nil {
			b.emitter.EmitDelete(id)
		}
	}
}

func (b *Board) publishCamera() {
	if b.emitter != nil {
		b.emitter.EmitCamera(b.cam)
	}
	camera.Save(b.store, b.roomID, b.cam)
}

func (b *Board) indexOf(id string) int {
	for i, s := range b.shapes {
		if s.ShapeID() == id {
			return i
		}
	}
	return -1
}

func (b *Board) redraw() {
	if b.surface == nil {
		return
	}
	render.Draw(b.surface, render.Scene{Camera: b.cam, Shapes: b.shapes, Preview: b.preview})
}
