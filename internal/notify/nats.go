package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/roach88/splitkeeper/internal/engine"
	"github.com/roach88/splitkeeper/internal/record"
)

// DefaultSubject prefixes every published subject.
const DefaultSubject = "splitkeeper"

// Publisher is the subset of *nats.Conn the observer needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// SplitMessage is published on <subject>.split.
type SplitMessage struct {
	Route   string `json:"route"`
	Split   string `json:"split"`
	ID      string `json:"id"`
	Level   int    `json:"level"`
	TimeMS  *int64 `json:"time_ms,omitempty"`
	Time    string `json:"time,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// CommitMessage is published on <subject>.commit.
type CommitMessage struct {
	Route        string `json:"route"`
	RouteHash    string `json:"route_hash"`
	Splits       int    `json:"splits"`
	Completed    bool   `json:"completed"`
	FinalMS      *int64 `json:"final_ms,omitempty"`
	PersonalBest bool   `json:"personal_best"`
	Golds        int    `json:"golds"`
}

// NATS publishes split and commit events as JSON.
type NATS struct {
	pub     Publisher
	subject string
	level   int
	logger  *slog.Logger
}

// NATSOption configures a NATS observer.
type NATSOption func(*NATS)

// WithSubject sets the subject prefix. Default: DefaultSubject.
func WithSubject(s string) NATSOption {
	return func(n *NATS) {
		if s != "" {
			n.subject = s
		}
	}
}

// WithLevel publishes splits at or above level only. Default: 0.
func WithLevel(level int) NATSOption {
	return func(n *NATS) {
		n.level = level
	}
}

// WithLogger sets the logger for publish failures.
func WithLogger(l *slog.Logger) NATSOption {
	return func(n *NATS) {
		n.logger = l
	}
}

// NewNATS creates an observer publishing through pub.
func NewNATS(pub Publisher, opts ...NATSOption) *NATS {
	n := &NATS{pub: pub, subject: DefaultSubject, logger: slog.Default()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Dial connects to the NATS server at url.
func Dial(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url, nats.Name("splitkeeper"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return nc, nil
}

var _ engine.Observer = (*NATS)(nil)

func (n *NATS) OnSplit(ev engine.SplitEvent) {
	if ev.Split.Level > n.level {
		return
	}
	msg := SplitMessage{
		Route: ev.View.Route().Name,
		Split: ev.Path,
		ID:    ev.Split.ID.String(),
		Level: ev.Split.Level,
	}
	if t, ok := ev.Time.Get(); ok {
		msg.TimeMS = &t
		msg.Time = record.FormatTime(t)
		msg.Summary = Summary(ev.View, ev.Split)
	}
	n.publish("split", msg)
}

func (n *NATS) OnCommit(res engine.CommitResult) {
	if res.Empty() {
		return
	}
	msg := CommitMessage{
		Route:        res.Route.Name,
		RouteHash:    res.Route.Hash(),
		Splits:       res.Run.Len(),
		Completed:    res.Run.Complete(res.Route),
		PersonalBest: res.PersonalBest,
		Golds:        len(res.Golds),
	}
	if t, ok := res.Run.Final(res.Route).Get(); ok {
		msg.FinalMS = &t
	}
	n.publish("commit", msg)
}

func (n *NATS) OnReset() {}

func (n *NATS) publish(kind string, msg any) {
	subject := n.subject + "." + kind
	data, err := json.Marshal(msg)
	if err != nil {
		n.logger.Error("encode event", "subject", subject, "error", err)
		return
	}
	if err := n.pub.Publish(subject, data); err != nil {
		n.logger.Warn("publish event", "subject", subject, "error", err)
	}
}
