package notify

import (
	"log/slog"

	"github.com/roach88/splitkeeper/internal/engine"
)

// Logger logs a summary for every split at or above a level.
type Logger struct {
	logger *slog.Logger
	level  int
}

// NewLogger creates a logging observer. Splits deeper than level are not
// summarised.
func NewLogger(logger *slog.Logger, level int) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger, level: level}
}

var _ engine.Observer = (*Logger)(nil)

func (l *Logger) OnSplit(ev engine.SplitEvent) {
	if ev.Split.Level > l.level {
		return
	}
	if ev.Time.IsNull() {
		l.logger.Info("split skipped", "route", ev.View.Route().Name, "split", ev.Path)
		return
	}
	l.logger.Info(Summary(ev.View, ev.Split), "route", ev.View.Route().Name, "split", ev.Path, "level", ev.Split.Level)
}

func (l *Logger) OnCommit(res engine.CommitResult) {
	if res.Empty() {
		return
	}
	l.logger.Info("run committed",
		"route", res.Route.Name,
		"personal_best", res.PersonalBest,
		"golds", len(res.Golds),
	)
}

func (l *Logger) OnReset() {
	l.logger.Debug("run reset")
}
