package draw

import (
	"strings"

	"collabcanvas/internal/geometry"
)

// TextEntry is an open, uncommitted text input.
type TextEntry struct {
	// Screen is where the input is shown; World is where the text lands.
	Screen geometry.Point
	World  geometry.Point
	Value  string
}

// TextEntry returns a snapshot of the open entry, or false if none is open.
func (b *Board) TextEntry() (TextEntry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.text == nil {
		return TextEntry{}, false
	}
	return *b.text, true
}

// SetText replaces the value of the open entry.
func (b *Board) SetText(value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.text != nil {
		b.text.Value = value
	}
}

// KeyDown handles Enter and Escape for the open entry. Shift+Enter inserts
// a newline instead of committing.
func (b *Board) KeyDown(key Key, shift bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.text == nil {
		return
	}
	switch key {
	case KeyEnter:
		if shift {
			b.text.Value += "\n"
			return
		}
		b.commitText()
	case KeyEscape:
		b.text = nil
		b.mode = ModeIdle
	}
}

// Blur commits the open entry, as losing focus does.
func (b *Board) Blur() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.text != nil {
		b.commitText()
	}
}

// openText discards any open entry and starts a new one.
func (b *Board) openText(screen, world geometry.Point) {
	b.text = &TextEntry{Screen: screen, World: world}
	b.mode = ModeTextEditing
}

// commitText closes the entry, creating a text shape from the trimmed value
// when it is non-empty.
func (b *Board) commitText() {
	entry := b.text
	b.text = nil
	b.mode = ModeIdle
	if entry == nil {
		return
	}
	text := strings.TrimSpace(entry.Value)
	if text == "" {
		return
	}
	b.create(geometry.Text{
		X:        entry.World.X,
		Y:        entry.World.Y,
		Text:     text,
		FontSize: geometry.DefaultFontSize,
	})
}
