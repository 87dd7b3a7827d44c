package display

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"github.com/roach88/splitkeeper/internal/engine"
)

// ErrQuit is returned by Terminal.Input when the operator asks to quit.
var ErrQuit = errors.New("quit requested")

var toneStyles = map[Tone]tcell.Style{
	Normal: tcell.StyleDefault,
	Ahead:  tcell.StyleDefault.Foreground(tcell.ColorGreen),
	Behind: tcell.StyleDefault.Foreground(tcell.ColorRed),
	Gold:   tcell.StyleDefault.Foreground(tcell.ColorYellow),
}

// Terminal draws the splits table on a tcell screen and reads control
// keys from it.
//
// Thread-safety model:
//   - Render: the runner goroutine
//   - Input: one other goroutine
//
// The screen serialises access between them.
type Terminal struct {
	screen tcell.Screen
	logger *slog.Logger
}

// NewTerminal wraps an initialised screen.
func NewTerminal(screen tcell.Screen, logger *slog.Logger) *Terminal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Terminal{screen: screen, logger: logger}
}

// OpenTerminal initialises the process terminal.
func OpenTerminal(logger *slog.Logger) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.HideCursor()
	return NewTerminal(screen, logger), nil
}

// Close restores the terminal.
func (t *Terminal) Close() {
	t.screen.Fini()
}

var _ engine.Renderer = (*Terminal)(nil)

// Render draws v, fitting the screen height.
func (t *Terminal) Render(v engine.View) error {
	_, height := t.screen.Size()
	t.screen.Clear()
	for y, l := range Lines(v, height) {
		if l.Label == "" {
			continue
		}
		x := 2 * l.Indent
		x = t.draw(x, y, pad(l.Label, labelWidth), tcell.StyleDefault)
		x = t.draw(x, y, pad(l.Segment.Text, segmentWidth), toneStyles[l.Segment.Tone])
		t.draw(x, y, l.Total.Text, toneStyles[l.Total.Tone])
	}
	t.screen.Show()
	return nil
}

func (t *Terminal) draw(x, y int, s string, style tcell.Style) int {
	for _, r := range s {
		t.screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}

// Input reads key events and submits the matching commands until ctx is
// cancelled or the operator quits.
func (t *Terminal) Input(ctx context.Context, enqueue func(engine.Command) error) error {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				t.screen.Sync()
			case *tcell.EventKey:
				cmd, quit, known := KeyAction(ev.Key(), ev.Rune(), ev.Modifiers())
				if quit {
					return ErrQuit
				}
				if !known {
					continue
				}
				if err := enqueue(cmd); err != nil {
					return err
				}
				t.logger.Debug("key command", "action", cmd.Action)
			}
		}
	}
}

// KeyAction maps a key to a command:
//
//	s, \               skip
//	r, Shift+Backspace rewind
//	x, Ctrl+Backspace  reset
//	q, Esc, Ctrl+C     quit
func KeyAction(key tcell.Key, r rune, mod tcell.ModMask) (cmd engine.Command, quit, ok bool) {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return engine.Command{}, true, false
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		switch {
		case mod&tcell.ModCtrl != 0:
			return engine.Command{Action: engine.ActionReset}, false, true
		case mod&tcell.ModShift != 0:
			return engine.Command{Action: engine.ActionRewind}, false, true
		}
		return engine.Command{}, false, false
	case tcell.KeyRune:
		switch r {
		case 's', '\\':
			return engine.Command{Action: engine.ActionSkip}, false, true
		case 'r':
			return engine.Command{Action: engine.ActionRewind}, false, true
		case 'x':
			return engine.Command{Action: engine.ActionReset}, false, true
		case 'q':
			return engine.Command{}, true, false
		}
	}
	return engine.Command{}, false, false
}
