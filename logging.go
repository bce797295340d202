package reactormq

import (
	"github.com/sirupsen/logrus"
)

// Logger is the structured, leveled logging capability every state, the
// reactor, the transport, and the auth helpers log through. Never log to a
// concrete sink directly from engine code; go through this interface so a
// caller can substitute any implementation.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	With(kv ...any) Logger
}

// logrusLogger adapts *logrus.Entry to the Logger interface.
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogger wraps a *logrus.Logger as the default Logger implementation.
// Pass nil to get a logger configured with logrus's defaults.
func NewLogger(base *logrus.Logger) Logger {
	if base == nil {
		base = logrus.StandardLogger()
	}
	return &logrusLogger{entry: logrus.NewEntry(base)}
}

func fieldsFromKV(kv []any) logrus.Fields {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return fields
}

func (l *logrusLogger) Debug(msg string, kv ...any) {
	l.entry.WithFields(fieldsFromKV(kv)).Debug(msg)
}

func (l *logrusLogger) Info(msg string, kv ...any) {
	l.entry.WithFields(fieldsFromKV(kv)).Info(msg)
}

func (l *logrusLogger) Warn(msg string, kv ...any) {
	l.entry.WithFields(fieldsFromKV(kv)).Warn(msg)
}

func (l *logrusLogger) Error(msg string, kv ...any) {
	l.entry.WithFields(fieldsFromKV(kv)).Error(msg)
}

func (l *logrusLogger) With(kv ...any) Logger {
	return &logrusLogger{entry: l.entry.WithFields(fieldsFromKV(kv))}
}

// noopLogger discards everything; used when no logger is configured.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) With(...any) Logger   { return noopLogger{} }
