package logger

import "context"

type ctxKey struct{}

// LoggerCtxKey is the context key under which the request logger travels.
var LoggerCtxKey = ctxKey{}

// ContextWithLogger returns a copy of ctx carrying the given logger.
func ContextWithLogger(ctx context.Context, log Logger) context.Context {
	return context.WithValue(ctx, LoggerCtxKey, log)
}

// FromContext returns the logger stored in ctx, or the process default when
// none (or a non-logger value) is present. It never returns nil.
func FromContext(ctx context.Context) Logger {
	if ctx != nil {
		if log, ok := ctx.Value(LoggerCtxKey).(Logger); ok && log != nil {
			return log
		}
	}
	return GetDefault()
}
