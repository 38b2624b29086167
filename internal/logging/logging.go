// Package logging builds the zap logger used by the fpgabridge binary and
// adapts it to the bridge.Logger interface.
package logging

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New returns a production logger at the given level ("debug", "info",
// "warn", "error") writing ISO8601 timestamps to stderr.
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "parse log level %q", level)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Sampling = nil
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	switch format {
	case FormatJSON:
	case FormatConsole:
		cfg.Encoding = FormatConsole
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return nil, errors.Errorf("unknown log format %q", format)
	}

	return cfg.Build()
}

// Adapter exposes a zap logger through the key-value Logger interface of
// the bridge package.
type Adapter struct {
	s *zap.SugaredLogger
}

// NewAdapter wraps l.
func NewAdapter(l *zap.Logger) *Adapter {
	return &Adapter{s: l.Sugar()}
}

// Debug logs msg with key-value args at debug level.
func (a *Adapter) Debug(msg string, args ...any) { a.s.Debugw(msg, args...) }

// Info logs msg with key-value args at info level.
func (a *Adapter) Info(msg string, args ...any) { a.s.Infow(msg, args...) }

// Warn logs msg with key-value args at warn level.
func (a *Adapter) Warn(msg string, args ...any) { a.s.Warnw(msg, args...) }

// Error logs msg with key-value args at error level.
func (a *Adapter) Error(msg string, args ...any) { a.s.Errorw(msg, args...) }
