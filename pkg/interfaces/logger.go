package interfaces

import "context"

// Logger defines the leveled logging contract used across the blog front-end.
// It matches the surface of github.com/goliatone/go-logger so the glog
// adapter stays a thin wrapper.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// LoggerProvider hands out named loggers, typically one per module.
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// FieldsLogger is an optional extension for loggers that can carry persistent
// structured fields on every entry.
type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}
