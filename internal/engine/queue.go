package engine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/splitkeeper/internal/route"
)

// Action is a live control input.
type Action int

const (
	// ActionSkip force-advances past triggers.
	ActionSkip Action = iota + 1
	// ActionRewind steps back through the route.
	ActionRewind
	// ActionReset commits the run and starts over.
	ActionReset
	// ActionReload switches to a new route.
	ActionReload
)

func (a Action) String() string {
	switch a {
	case ActionSkip:
		return "skip"
	case ActionRewind:
		return "rewind"
	case ActionReset:
		return "reset"
	case ActionReload:
		return "reload"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ParseAction maps an action token to its Action.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skip":
		return ActionSkip, nil
	case "rewind":
		return ActionRewind, nil
	case "reset":
		return ActionReset, nil
	case "reload":
		return ActionReload, nil
	default:
		return 0, &RuntimeError{Code: ErrCodeUnknownAction, Message: fmt.Sprintf("unknown action %q", s)}
	}
}

// Command is one queued action.
type Command struct {
	Action Action

	// N is the skip or rewind count. Zero means 1.
	N int

	// Route is the route to switch to for ActionReload.
	Route *route.Route
}

func (c Command) count() int {
	if c.N == 0 {
		return 1
	}
	return c.N
}

// commandQueue is a thread-safe FIFO of commands.
//
// Producers are key input and the route watcher; the runner drains it at
// the start of each tick. The signal channel lets a waiting consumer
// select on it alongside ctx.Done().
type commandQueue struct {
	mu       sync.Mutex
	commands []Command
	closed   bool
	signal   chan struct{} // buffered, size 1
}

func newCommandQueue() *commandQueue {
	return &commandQueue{
		commands: make([]Command, 0, 8),
		signal:   make(chan struct{}, 1),
	}
}

// Enqueue adds c to the back of the queue. Safe from any goroutine.
// Returns false if the queue is closed.
func (q *commandQueue) Enqueue(c Command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.commands = append(q.commands, c)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Drain removes and returns every queued command in order.
func (q *commandQueue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.commands) == 0 {
		return nil
	}
	out := make([]Command, len(q.commands))
	copy(out, q.commands)
	clear(q.commands)
	q.commands = q.commands[:0]
	return out
}

// Wait returns a channel that signals when commands may be available.
// It is closed when the queue closes.
func (q *commandQueue) Wait() <-chan struct{} {
	return q.signal
}

// Close rejects further commands and wakes waiters.
func (q *commandQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
