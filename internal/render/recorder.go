package render

import (
	"image/color"

	"collabcanvas/internal/geometry"
)

// Op is one recorded Surface call.
type Op struct {
	Name   string
	Points []geometry.Point
	Rect   [4]float64
	Radius float64
	Zoom   float64
	Text   string
	Size   float64
	Color  color.Color
}

// Recorder is a Surface that remembers every call in the current frame.
// Headless clients use it as a stand-in display.
type Recorder struct {
	Width, Height float64
	// Frames counts calls to Reset, that is, completed redraws.
	Frames int
	Ops    []Op
}

func NewRecorder(width, height float64) *Recorder {
	return &Recorder{Width: width, Height: height}
}

func (r *Recorder) Size() (float64, float64) { return r.Width, r.Height }

func (r *Recorder) Resize(width, height float64) {
	r.Width, r.Height = width, height
}

func (r *Recorder) Reset() {
	r.Frames++
	r.Ops = r.Ops[:0]
	r.Ops = append(r.Ops, Op{Name: "reset"})
}

func (r *Recorder) FillBackground() {
	r.Ops = append(r.Ops, Op{Name: "background"})
}

func (r *Recorder) Transform(offset geometry.Point, zoom float64) {
	r.Ops = append(r.Ops, Op{Name: "transform", Points: []geometry.Point{offset}, Zoom: zoom})
}

func (r *Recorder) FillCircle(center geometry.Point, radius float64, c color.Color) {
	r.Ops = append(r.Ops, Op{Name: "fillCircle", Points: []geometry.Point{center}, Radius: radius, Color: c})
}

func (r *Recorder) StrokeCircle(center geometry.Point, radius float64, c color.Color, _ float64) {
	r.Ops = append(r.Ops, Op{Name: "strokeCircle", Points: []geometry.Point{center}, Radius: radius, Color: c})
}

func (r *Recorder) StrokeRect(x, y, w, h float64, c color.Color, _ float64) {
	r.Ops = append(r.Ops, Op{Name: "strokeRect", Rect: [4]float64{x, y, w, h}, Color: c})
}

func (r *Recorder) Polyline(points []geometry.Point, c color.Color, _ float64) {
	r.Ops = append(r.Ops, Op{Name: "polyline", Points: append([]geometry.Point(nil), points...), Color: c})
}

func (r *Recorder) FillPolygon(points []geometry.Point, c color.Color) {
	r.Ops = append(r.Ops, Op{Name: "fillPolygon", Points: append([]geometry.Point(nil), points...), Color: c})
}

func (r *Recorder) Text(at geometry.Point, text string, size float64, c color.Color) {
	r.Ops = append(r.Ops, Op{Name: "text", Points: []geometry.Point{at}, Text: text, Size: size, Color: c})
}

// Shapes returns the recorded ops that paint shapes, skipping the frame
// setup and grid dots.
func (r *Recorder) Shapes() []Op {
	var out []Op
	for _, op := range r.Ops {
		switch op.Name {
		case "reset", "background", "transform":
			continue
		case "fillCircle":
			if op.Color == color.Color(GridColor) {
				continue
			}
		}
		out = append(out, op)
	}
	return out
}
