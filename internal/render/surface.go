// Package render paints a room's shape set onto a drawing surface. The
// Renderer owns the layering rules; a Surface only knows primitives.
package render

import (
	"image/color"

	"collabcanvas/internal/geometry"
)

// Surface is a 2D drawing target. Coordinates passed to the primitive calls
// are in world units once Transform has been applied.
type Surface interface {
	// Size reports the surface extent in screen units.
	Size() (width, height float64)
	// Reset clears the surface and drops any transform.
	Reset()
	// FillBackground paints the full surface in screen space.
	FillBackground()
	// Transform applies a translate then uniform scale for the rest of the frame.
	Transform(offset geometry.Point, zoom float64)

	FillCircle(center geometry.Point, radius float64, c color.Color)
	StrokeCircle(center geometry.Point, radius float64, c color.Color, width float64)
	StrokeRect(x, y, w, h float64, c color.Color, width float64)
	Polyline(points []geometry.Point, c color.Color, width float64)
	FillPolygon(points []geometry.Point, c color.Color)
	Text(at geometry.Point, text string, size float64, c color.Color)
}

// Palette matches each shape kind to its stroke colour.
var Palette = map[geometry.Kind]color.NRGBA{
	geometry.KindRect:   {R: 96, G: 165, B: 250, A: 230},
	geometry.KindCircle: {R: 251, G: 146, B: 60, A: 230},
	geometry.KindPencil: {R: 167, G: 139, B: 250, A: 230},
	geometry.KindArrow:  {R: 34, G: 197, B: 94, A: 230},
	geometry.KindLine:   {R: 244, G: 63, B: 94, A: 230},
	geometry.KindText:   {R: 255, G: 255, B: 255, A: 242},
}

var (
	// GridColor is the dot colour.
	GridColor = color.NRGBA{R: 100, G: 100, B: 130, A: 77}
	// BackgroundTop and BackgroundBottom are the gradient stops.
	BackgroundTop    = color.NRGBA{R: 15, G: 15, B: 30, A: 255}
	BackgroundBottom = color.NRGBA{R: 26, G: 26, B: 46, A: 255}
)
