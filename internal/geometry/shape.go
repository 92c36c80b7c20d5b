// Package geometry holds the shape and vector types shared by the drawing
// client and the broadcast server, plus the hit-testing math used for both
// live preview and eraser selection.
package geometry

import "github.com/segmentio/ksuid"

// Kind is the wire tag of a shape variant.
type Kind string

const (
	KindRect   Kind = "rect"
	KindCircle Kind = "circle"
	KindPencil Kind = "pencil"
	KindArrow  Kind = "arrow"
	KindLine   Kind = "line"
	KindText   Kind = "text"
)

// DefaultFontSize applies to text shapes stored without a font size.
const DefaultFontSize = 20.0

// Point is a 2D position, in world or screen space depending on context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

func (p Point) Scale(f float64) Point { return Point{X: p.X * f, Y: p.Y * f} }

// Shape is the closed set of drawable variants. Only types in this package
// implement it.
type Shape interface {
	Kind() Kind
	// ShapeID is empty for shapes persisted before identifiers existed.
	ShapeID() string
	isShape()
}

// Base carries the identifier every variant shares.
type Base struct {
	ID string
}

func (b Base) ShapeID() string { return b.ID }

func (Base) isShape() {}

type Rect struct {
	Base
	X, Y, Width, Height float64
}

type Circle struct {
	Base
	CenterX, CenterY, Radius float64
}

type Pencil struct {
	Base
	Points []Point
}

type Arrow struct {
	Base
	X1, Y1, X2, Y2 float64
}

type Line struct {
	Base
	X1, Y1, X2, Y2 float64
}

type Text struct {
	Base
	X, Y     float64
	Text     string
	FontSize float64
}

func (Rect) Kind() Kind   { return KindRect }
func (Circle) Kind() Kind { return KindCircle }
func (Pencil) Kind() Kind { return KindPencil }
func (Arrow) Kind() Kind  { return KindArrow }
func (Line) Kind() Kind   { return KindLine }
func (Text) Kind() Kind   { return KindText }

// EffectiveFontSize returns FontSize, or DefaultFontSize when unset.
func (t Text) EffectiveFontSize() float64 {
	if t.FontSize == 0 {
		return DefaultFontSize
	}
	return t.FontSize
}

// WithID returns a copy of s carrying id.
func WithID(s Shape, id string) Shape {
	switch v := s.(type) {
	case Rect:
		v.ID = id
		return v
	case Circle:
		v.ID = id
		return v
	case Pencil:
		v.ID = id
		return v
	case Arrow:
		v.ID = id
		return v
	case Line:
		v.ID = id
		return v
	case Text:
		v.ID = id
		return v
	}
	return s
}

// NewID returns a fresh shape identifier. KSUIDs are a 32-bit timestamp
// followed by 128 random bits, so they sort by creation time and do not
// collide across clients.
func NewID() string {
	return ksuid.New().String()
}
