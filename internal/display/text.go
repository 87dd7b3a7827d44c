package display

import (
	"io"
	"strings"

	"github.com/samber/lo"

	"github.com/roach88/splitkeeper/internal/engine"
)

// clearScreen moves the cursor home and erases the terminal.
const clearScreen = "\x1b[H\x1b[J"

// Text writes the splits table as plain text. A frame is written only when
// it differs from the previous one.
type Text struct {
	w      io.Writer
	height int
	clear  bool
	last   string
}

// TextOption configures a Text renderer.
type TextOption func(*Text)

// WithHeight limits frames to height lines. Default: no limit.
func WithHeight(height int) TextOption {
	return func(t *Text) {
		t.height = height
	}
}

// WithClear prefixes each frame with a clear-screen sequence.
func WithClear() TextOption {
	return func(t *Text) {
		t.clear = true
	}
}

// NewText creates a text renderer writing to w.
func NewText(w io.Writer, opts ...TextOption) *Text {
	t := &Text{w: w}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var _ engine.Renderer = (*Text)(nil)

// Render writes the frame for v if it changed.
func (t *Text) Render(v engine.View) error {
	frame := Format(v, t.height)
	if frame == t.last {
		return nil
	}
	t.last = frame

	if t.clear {
		frame = clearScreen + frame
	}
	_, err := io.WriteString(t.w, frame+"\n")
	return err
}

// Format renders v as plain text lines, without a trailing newline.
func Format(v engine.View, height int) string {
	lines := lo.Map(Lines(v, height), func(l Line, _ int) string {
		return l.String()
	})
	return strings.TrimRight(strings.Join(lines, "\n"), "\n ")
}
