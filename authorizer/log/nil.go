package log

import "context"

// NopLogger discards every event.
type NopLogger struct{}

// NewNop returns a Logger that drops everything.
//
//nolint:ireturn
func NewNop() Logger {
	return &NopLogger{}
}

// Log discards the entry.
func (l *NopLogger) Log(_ context.Context, _ Level, _ string, _ ...Field) {}

//nolint:ireturn
func (l *NopLogger) With(_ ...Field) Logger {
	return l
}

//nolint:ireturn
func (l *NopLogger) WithGroup(_ string) Logger {
	return l
}

// Enabled always reports false.
func (l *NopLogger) Enabled(_ Level) bool {
	return false
}

// Sync is a no-op.
func (l *NopLogger) Sync(_ context.Context) error { return nil }

// OrNop returns logger, or a NopLogger when logger is nil.
//
//nolint:ireturn
func OrNop(logger Logger) Logger {
	if logger == nil {
		return NewNop()
	}

	return logger
}
