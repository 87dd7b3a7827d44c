package display

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/splitkeeper/internal/engine"
)

func TestKeyAction(t *testing.T) {
	tests := []struct {
		name   string
		key    tcell.Key
		r      rune
		mod    tcell.ModMask
		action engine.Action
		quit   bool
		ok     bool
	}{
		{"skip", tcell.KeyRune, 's', 0, engine.ActionSkip, false, true},
		{"skip backslash", tcell.KeyRune, '\\', 0, engine.ActionSkip, false, true},
		{"rewind", tcell.KeyRune, 'r', 0, engine.ActionRewind, false, true},
		{"reset", tcell.KeyRune, 'x', 0, engine.ActionReset, false, true},
		{"quit", tcell.KeyRune, 'q', 0, 0, true, false},
		{"escape", tcell.KeyEscape, 0, 0, 0, true, false},
		{"ctrl c", tcell.KeyCtrlC, 0, tcell.ModCtrl, 0, true, false},
		{"shift backspace", tcell.KeyBackspace2, 0, tcell.ModShift, engine.ActionRewind, false, true},
		{"ctrl backspace", tcell.KeyBackspace, 0, tcell.ModCtrl, engine.ActionReset, false, true},
		{"plain backspace", tcell.KeyBackspace2, 0, 0, 0, false, false},
		{"other", tcell.KeyRune, 'z', 0, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, quit, ok := KeyAction(tt.key, tt.r, tt.mod)
			assert.Equal(t, tt.quit, quit)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.action, cmd.Action)
		})
	}
}

func simScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 10)
	t.Cleanup(screen.Fini)
	return screen
}

func rowText(screen tcell.Screen, y, width int) string {
	out := make([]rune, 0, width)
	for x := 0; x < width; x++ {
		r, _, _, _ := screen.GetContent(x, y)
		out = append(out, r)
	}
	return string(out)
}

func TestTerminalRender(t *testing.T) {
	screen := simScreen(t)
	c := newCityRun(t)
	c.midRun()

	term := NewTerminal(screen, nil)
	require.NoError(t, term.Render(c.m))

	assert.Equal(t, "City:", rowText(screen, 0, 5))
	assert.Equal(t, "  Start:", rowText(screen, 1, 8))

	_, _, style, _ := screen.GetContent(35, 0)
	assert.Equal(t, toneStyles[Ahead], style, "City segment is ahead of the personal best")
}

func TestTerminalInput(t *testing.T) {
	screen := simScreen(t)
	term := NewTerminal(screen, nil)

	got := make(chan engine.Command, 4)
	done := make(chan error, 1)
	go func() {
		done <- term.Input(context.Background(), func(c engine.Command) error {
			got <- c
			return nil
		})
	}()

	screen.InjectKey(tcell.KeyRune, 's', tcell.ModNone)
	select {
	case c := <-got:
		assert.Equal(t, engine.ActionSkip, c.Action)
	case <-time.After(2 * time.Second):
		t.Fatal("no command from key")
	}

	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrQuit)
	case <-time.After(2 * time.Second):
		t.Fatal("quit key did not stop input")
	}
}
