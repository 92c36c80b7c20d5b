// Package camera implements the pan/zoom transform between world and screen
// coordinates and its per-room persistence.
package camera

import "collabcanvas/internal/geometry"

const (
	MinZoom = 0.1
	MaxZoom = 5.0

	// ButtonStep is the factor applied by ZoomIn and ZoomOut.
	ButtonStep = 1.2
)

// State is the camera: offset is applied before scale, so
// screen = world*zoom + offset.
type State struct {
	Offset geometry.Point
	Zoom   float64
}

// Default is the identity camera.
func Default() State {
	return State{Zoom: 1}
}

// Clamp bounds zoom to [MinZoom, MaxZoom].
func Clamp(zoom float64) float64 {
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}

// WorldFromScreen maps a surface position into world space.
func (s State) WorldFromScreen(screen geometry.Point) geometry.Point {
	return screen.Sub(s.Offset).Scale(1 / s.Zoom)
}

// ScreenFromWorld is the inverse of WorldFromScreen.
func (s State) ScreenFromWorld(world geometry.Point) geometry.Point {
	return world.Scale(s.Zoom).Add(s.Offset)
}

// ZoomIn multiplies zoom by ButtonStep. The offset is left alone, so the
// point under the cursor is not preserved.
func (s State) ZoomIn() State {
	s.Zoom = Clamp(s.Zoom * ButtonStep)
	return s
}

// ZoomOut divides zoom by ButtonStep.
func (s State) ZoomOut() State {
	s.Zoom = Clamp(s.Zoom / ButtonStep)
	return s
}

// ZoomAtPoint changes zoom by delta while keeping the world point under
// screen fixed on screen.
func (s State) ZoomAtPoint(screen geometry.Point, delta float64) State {
	world := s.WorldFromScreen(screen)
	s.Zoom = Clamp(s.Zoom + delta)
	s.Offset = screen.Sub(world.Scale(s.Zoom))
	return s
}

// Reset returns the identity camera.
func (s State) Reset() State {
	return Default()
}

// PanTo places the offset at screen minus the drag anchor.
func (s State) PanTo(screen, anchor geometry.Point) State {
	s.Offset = screen.Sub(anchor)
	return s
}
