package bridge

import "log/slog"

// Logger receives the bridge's diagnostic output. Messages are advisory and
// never part of the programmatic contract. *slog.Logger satisfies it, and
// the fpgabridge binary plugs in a zap logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// defaultLogger is used when LoggerOption is not given.
func defaultLogger() Logger {
	return slog.Default()
}
