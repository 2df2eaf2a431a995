// Package logger builds the process-wide zap logger and re-exports the
// field constructors used across the service.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	String   = zap.String
	Int      = zap.Int
	Uint64   = zap.Uint64
	Duration = zap.Duration
	Bool     = zap.Bool
	ErrorF   = zap.Error
	Any      = zap.Any
	Stack    = zap.Stack
)

type (
	Field  = zap.Field
	Logger = zap.Logger
)

// New returns a logger at the given level.  JSON output is meant for
// production; console output for local runs.
func New(level string, asJSON bool) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if !asJSON {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// Nop returns a logger that discards everything.  Handy in tests.
func Nop() *zap.Logger { return zap.NewNop() }
