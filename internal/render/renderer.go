package render

import (
	"math"

	"collabcanvas/internal/camera"
	"collabcanvas/internal/geometry"
)

const (
	// GridSpacing is the distance between grid dots in world units.
	GridSpacing = 20.0
	// DotRadius is the on-screen grid dot radius; it is divided by zoom so the
	// dots keep a constant screen size.
	DotRadius = 1.5

	strokeWidth     = 2.0
	arrowHeadLength = 15.0
)

// Scene is everything one frame needs.
type Scene struct {
	Camera camera.State
	Shapes []geometry.Shape
	// Preview is the in-progress shape, drawn above everything else. Nil when
	// nothing is being drawn.
	Preview geometry.Shape
}

// Draw paints a full frame: clear, background, camera transform, dot grid,
// shapes in insertion order, then the preview.
func Draw(s Surface, scene Scene) {
	s.Reset()
	s.FillBackground()

	cam := scene.Camera
	if cam.Zoom == 0 {
		cam = camera.Default()
	}
	s.Transform(cam.Offset, cam.Zoom)
	drawGrid(s, cam)

	for _, shape := range scene.Shapes {
		DrawShape(s, shape)
	}
	if scene.Preview != nil {
		DrawShape(s, scene.Preview)
	}
}

func drawGrid(s Surface, cam camera.State) {
	width, height := s.Size()
	startX := math.Floor((-cam.Offset.X/cam.Zoom)/GridSpacing) * GridSpacing
	startY := math.Floor((-cam.Offset.Y/cam.Zoom)/GridSpacing) * GridSpacing
	endX := startX + width/cam.Zoom + GridSpacing
	endY := startY + height/cam.Zoom + GridSpacing
	r := DotRadius / cam.Zoom

	for x := startX; x < endX; x += GridSpacing {
		for y := startY; y < endY; y += GridSpacing {
			s.FillCircle(geometry.Point{X: x, Y: y}, r, GridColor)
		}
	}
}

// DrawShape paints one shape in world coordinates.
func DrawShape(s Surface, shape geometry.Shape) {
	c := Palette[shape.Kind()]
	switch v := shape.(type) {
	case geometry.Rect:
		x, w := normalize(v.X, v.Width)
		y, h := normalize(v.Y, v.Height)
		s.StrokeRect(x, y, w, h, c, strokeWidth)
	case geometry.Circle:
		s.StrokeCircle(geometry.Point{X: v.CenterX, Y: v.CenterY}, math.Abs(v.Radius), c, strokeWidth)
	case geometry.Pencil:
		if len(v.Points) > 1 {
			s.Polyline(v.Points, c, strokeWidth)
		}
	case geometry.Arrow:
		from, to := geometry.Point{X: v.X1, Y: v.Y1}, geometry.Point{X: v.X2, Y: v.Y2}
		s.Polyline([]geometry.Point{from, to}, c, strokeWidth)
		s.FillPolygon(ArrowHead(from, to), c)
	case geometry.Line:
		s.Polyline([]geometry.Point{{X: v.X1, Y: v.Y1}, {X: v.X2, Y: v.Y2}}, c, strokeWidth)
	case geometry.Text:
		s.Text(geometry.Point{X: v.X, Y: v.Y}, v.Text, v.EffectiveFontSize(), c)
	}
}

// ArrowHead returns the triangle at the tip of an arrow from -> to, with
// sides at 30 degrees to the shaft.
func ArrowHead(from, to geometry.Point) []geometry.Point {
	angle := math.Atan2(to.Y-from.Y, to.X-from.X)
	return []geometry.Point{
		to,
		{X: to.X - arrowHeadLength*math.Cos(angle-math.Pi/6), Y: to.Y - arrowHeadLength*math.Sin(angle-math.Pi/6)},
		{X: to.X - arrowHeadLength*math.Cos(angle+math.Pi/6), Y: to.Y - arrowHeadLength*math.Sin(angle+math.Pi/6)},
	}
}

// normalize turns an origin plus possibly negative extent into a
// non-negative extent from the smaller edge.
func normalize(origin, extent float64) (float64, float64) {
	if extent < 0 {
		return origin + extent, -extent
	}
	return origin, extent
}
