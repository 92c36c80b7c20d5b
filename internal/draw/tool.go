package draw

import (
	"math"

	"collabcanvas/internal/geometry"
)

// Tool is the selected drawing tool.
type Tool string

const (
	ToolSelect Tool = "select"
	ToolPencil Tool = "pencil"
	ToolRect   Tool = "rect"
	ToolCircle Tool = "circle"
	ToolArrow  Tool = "arrow"
	ToolLine   Tool = "line"
	ToolText   Tool = "text"
	ToolEraser Tool = "eraser"
)

// Valid reports whether t is a known tool.
func (t Tool) Valid() bool {
	switch t {
	case ToolSelect, ToolPencil, ToolRect, ToolCircle, ToolArrow, ToolLine, ToolText, ToolEraser:
		return true
	}
	return false
}

// Mode is the interaction state.
type Mode int

const (
	ModeIdle Mode = iota
	ModePanning
	ModeDrawing
	ModeErasing
	ModeTextEditing
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModePanning:
		return "panning"
	case ModeDrawing:
		return "drawing"
	case ModeErasing:
		return "erasing"
	case ModeTextEditing:
		return "text-editing"
	}
	return "unknown"
}

// Button identifies a pointer button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// PointerEvent is a pointer sample in screen coordinates.
type PointerEvent struct {
	Screen geometry.Point
	Button Button
	// Shift is the pan modifier.
	Shift bool
}

// Key is a key relevant to text entry.
type Key string

const (
	KeyEnter  Key = "Enter"
	KeyEscape Key = "Escape"
)

// EraserTolerance widens hit tests during an eraser drag.
const EraserTolerance = 10.0

// WheelSensitivity converts a wheel delta into a zoom delta.
const WheelSensitivity = 0.001

// shapeFor builds the shape a drag from anchor to current produces with
// tool. It returns nil for tools that do not draw by dragging.
func shapeFor(tool Tool, anchor, current geometry.Point, pencil []geometry.Point) geometry.Shape {
	dx, dy := current.X-anchor.X, current.Y-anchor.Y
	switch tool {
	case ToolRect:
		return geometry.Rect{X: anchor.X, Y: anchor.Y, Width: dx, Height: dy}
	case ToolCircle:
		// The center is offset from the anchor by the radius on both axes,
		// whichever way the drag went.
		radius := math.Max(math.Abs(dx), math.Abs(dy)) / 2
		return geometry.Circle{CenterX: anchor.X + radius, CenterY: anchor.Y + radius, Radius: radius}
	case ToolPencil:
		return geometry.Pencil{Points: append([]geometry.Point(nil), pencil...)}
	case ToolArrow:
		return geometry.Arrow{X1: anchor.X, Y1: anchor.Y, X2: current.X, Y2: current.Y}
	case ToolLine:
		return geometry.Line{X1: anchor.X, Y1: anchor.Y, X2: current.X, Y2: current.Y}
	}
	return nil
}
