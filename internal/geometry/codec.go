package geometry

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var (
	// ErrUnknownShape is returned for a payload whose type tag is not a known variant.
	ErrUnknownShape = errors.New("unknown shape type")
	// ErrMalformedShape is returned for a payload missing a field its variant requires.
	ErrMalformedShape = errors.New("malformed shape")
)

// wireShape is the flat JSON form of every variant. Pointers distinguish a
// missing field from a zero one.
type wireShape struct {
	ID       string   `json:"id,omitempty"`
	Type     Kind     `json:"type"`
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	CenterX  *float64 `json:"centerX,omitempty"`
	CenterY  *float64 `json:"centerY,omitempty"`
	Radius   *float64 `json:"radius,omitempty"`
	Points   []Point  `json:"points,omitempty"`
	X1       *float64 `json:"x1,omitempty"`
	Y1       *float64 `json:"y1,omitempty"`
	X2       *float64 `json:"x2,omitempty"`
	Y2       *float64 `json:"y2,omitempty"`
	Text     *string  `json:"text,omitempty"`
	FontSize *float64 `json:"fontSize,omitempty"`
}

// envelope is the chat payload: the JSON-stringified {shape}.
type envelope struct {
	Shape json.RawMessage `json:"shape"`
}

func f(v float64) *float64 { return &v }

// MarshalShape encodes s in its tagged wire form.
func MarshalShape(s Shape) ([]byte, error) {
	w := wireShape{ID: s.ShapeID(), Type: s.Kind()}
	switch v := s.(type) {
	case Rect:
		w.X, w.Y, w.Width, w.Height = f(v.X), f(v.Y), f(v.Width), f(v.Height)
	case Circle:
		w.CenterX, w.CenterY, w.Radius = f(v.CenterX), f(v.CenterY), f(v.Radius)
	case Pencil:
		w.Points = v.Points
		if w.Points == nil {
			w.Points = []Point{}
		}
	case Arrow:
		w.X1, w.Y1, w.X2, w.Y2 = f(v.X1), f(v.Y1), f(v.X2), f(v.Y2)
	case Line:
		w.X1, w.Y1, w.X2, w.Y2 = f(v.X1), f(v.Y1), f(v.X2), f(v.Y2)
	case Text:
		text := v.Text
		w.X, w.Y, w.Text, w.FontSize = f(v.X), f(v.Y), &text, f(v.EffectiveFontSize())
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownShape, s)
	}
	return json.Marshal(w)
}

// UnmarshalShape decodes one tagged shape.
func UnmarshalShape(data []byte) (Shape, error) {
	var w wireShape
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedShape, err)
	}
	return w.shape()
}

func (w wireShape) shape() (Shape, error) {
	base := Base{ID: w.ID}
	switch w.Type {
	case KindRect:
		if !present(w.X, w.Y, w.Width, w.Height) {
			return nil, fmt.Errorf("%w: rect needs x, y, width, height", ErrMalformedShape)
		}
		return Rect{Base: base, X: *w.X, Y: *w.Y, Width: *w.Width, Height: *w.Height}, nil
	case KindCircle:
		if !present(w.CenterX, w.CenterY, w.Radius) {
			return nil, fmt.Errorf("%w: circle needs centerX, centerY, radius", ErrMalformedShape)
		}
		return Circle{Base: base, CenterX: *w.CenterX, CenterY: *w.CenterY, Radius: *w.Radius}, nil
	case KindPencil:
		if w.Points == nil {
			return nil, fmt.Errorf("%w: pencil needs points", ErrMalformedShape)
		}
		return Pencil{Base: base, Points: w.Points}, nil
	case KindArrow, KindLine:
		if !present(w.X1, w.Y1, w.X2, w.Y2) {
			return nil, fmt.Errorf("%w: %s needs x1, y1, x2, y2", ErrMalformedShape, w.Type)
		}
		if w.Type == KindArrow {
			return Arrow{Base: base, X1: *w.X1, Y1: *w.Y1, X2: *w.X2, Y2: *w.Y2}, nil
		}
		return Line{Base: base, X1: *w.X1, Y1: *w.Y1, X2: *w.X2, Y2: *w.Y2}, nil
	case KindText:
		if !present(w.X, w.Y) || w.Text == nil {
			return nil, fmt.Errorf("%w: text needs x, y, text", ErrMalformedShape)
		}
		t := Text{Base: base, X: *w.X, Y: *w.Y, Text: *w.Text, FontSize: DefaultFontSize}
		if w.FontSize != nil {
			t.FontSize = *w.FontSize
		}
		return t, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedShape)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownShape, w.Type)
}

func present(vals ...*float64) bool {
	for _, v := range vals {
		if v == nil {
			return false
		}
	}
	return true
}

// EncodeEnvelope produces the chat payload string for s: {"shape":{...}}.
func EncodeEnvelope(s Shape) (string, error) {
	raw, err := MarshalShape(s)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(envelope{Shape: raw})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// DecodeEnvelope parses a chat payload back into its shape.
func DecodeEnvelope(payload string) (Shape, error) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedShape, err)
	}
	if len(env.Shape) == 0 || string(env.Shape) == "null" {
		return nil, fmt.Errorf("%w: missing shape", ErrMalformedShape)
	}
	return UnmarshalShape(env.Shape)
}
