package badgerstore

import (
	"fmt"
	"log/slog"
	"strings"
)

// badgerLogger wraps a slog.Logger to implement the badger.Logger interface.
type badgerLogger struct {
	log *slog.Logger
}

func newBadgerLogger(log *slog.Logger) *badgerLogger {
	return &badgerLogger{log: log.With("component", "badger")}
}

// Errorf logs an ERROR level message
func (l *badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(render(format, args))
}

// Warningf logs a WARN level message
func (l *badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn(render(format, args))
}

// Infof logs at DEBUG; badger is chatty at INFO during open and compaction.
func (l *badgerLogger) Infof(format string, args ...any) {
	l.log.Debug(render(format, args))
}

// Debugf logs a DEBUG level message
func (l *badgerLogger) Debugf(format string, args ...any) {
	l.log.Debug(render(format, args))
}

func render(format string, args []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
