package geometry

import (
	"math"
	"unicode/utf8"
)

// StrokeSlack is the fixed distance within which a point counts as touching
// a stroked shape (pencil, arrow, line), before tolerance is added.
const StrokeSlack = 10.0

// textWidthFactor approximates the advance of one glyph relative to the font size.
const textWidthFactor = 0.6

// HitTest reports whether p lies on or near s. Tolerance widens every test,
// so a hit at some tolerance is also a hit at any larger one.
func HitTest(p Point, s Shape, tolerance float64) bool {
	switch v := s.(type) {
	case Rect:
		return inBox(p, v.X, v.Y, v.X+v.Width, v.Y+v.Height, tolerance)
	case Circle:
		return math.Hypot(p.X-v.CenterX, p.Y-v.CenterY) <= math.Abs(v.Radius)+tolerance
	case Pencil:
		for i := 0; i+1 < len(v.Points); i++ {
			if DistanceToSegment(p, v.Points[i], v.Points[i+1]) < StrokeSlack+tolerance {
				return true
			}
		}
		return false
	case Arrow:
		return DistanceToSegment(p, Point{v.X1, v.Y1}, Point{v.X2, v.Y2}) < StrokeSlack+tolerance
	case Line:
		return DistanceToSegment(p, Point{v.X1, v.Y1}, Point{v.X2, v.Y2}) < StrokeSlack+tolerance
	case Text:
		size := v.EffectiveFontSize()
		width := float64(utf8.RuneCountInString(v.Text)) * size * textWidthFactor
		// y is the text baseline; glyphs extend upward by one font size.
		return inBox(p, v.X, v.Y-size, v.X+width, v.Y, tolerance)
	}
	return false
}

// inBox tests p against the rectangle spanned by the two corners, expanded by
// tolerance. Corners may come in any order so negative extents work.
func inBox(p Point, x0, y0, x1, y1, tolerance float64) bool {
	minX, maxX := math.Min(x0, x1), math.Max(x0, x1)
	minY, maxY := math.Min(y0, y1), math.Max(y0, y1)
	return p.X >= minX-tolerance && p.X <= maxX+tolerance &&
		p.Y >= minY-tolerance && p.Y <= maxY+tolerance
}

// DistanceToSegment returns the distance from p to the closest point of
// segment ab. A degenerate segment is treated as the single point a.
func DistanceToSegment(p, a, b Point) float64 {
	d := b.Sub(a)
	lenSq := d.X*d.X + d.Y*d.Y
	closest := a
	if lenSq != 0 {
		t := ((p.X-a.X)*d.X + (p.Y-a.Y)*d.Y) / lenSq
		switch {
		case t > 1:
			closest = b
		case t > 0:
			closest = a.Add(d.Scale(t))
		}
	}
	return math.Hypot(p.X-closest.X, p.Y-closest.Y)
}
