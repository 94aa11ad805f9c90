// Package log provides the key/value logger used throughout the registry.
//
// Call sites follow the shape
//
//	log.Info("Validator added", "mining", addr, "seq", seq)
//
// where the variadic context alternates keys and values.
package log

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Logger writes key/value context records at a fixed set of levels.
type Logger interface {
	// New returns a new Logger that has this logger's context plus the given context.
	New(ctx ...interface{}) Logger

	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})
}

type logger struct {
	s *zap.SugaredLogger
}

func (l *logger) New(ctx ...interface{}) Logger {
	return &logger{s: l.s.With(ctx...)}
}

// Trace has no dedicated zap level and is written at debug.
func (l *logger) Trace(msg string, ctx ...interface{}) { l.s.Debugw(msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.s.Debugw(msg, ctx...) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.s.Infow(msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.s.Warnw(msg, ctx...) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.s.Errorw(msg, ctx...) }

// Crit logs and terminates the process.
func (l *logger) Crit(msg string, ctx ...interface{}) { l.s.Fatalw(msg, ctx...) }

var root atomic.Value

func init() {
	root.Store(Logger(&logger{s: zap.NewNop().Sugar()}))
}

// Root returns the root logger. Until SetRoot is called it discards everything.
func Root() Logger {
	return root.Load().(Logger)
}

// SetRoot replaces the root logger.
func SetRoot(l Logger) {
	root.Store(l)
}

// NewZap adapts an existing zap logger.
func NewZap(z *zap.Logger) Logger {
	return &logger{s: z.Sugar()}
}

// New returns a new logger with the given context.
// New is a convenient alias for Root().New
func New(ctx ...interface{}) Logger {
	return Root().New(ctx...)
}

// Trace is a convenient alias for Root().Trace
func Trace(msg string, ctx ...interface{}) { Root().Trace(msg, ctx...) }

// Debug is a convenient alias for Root().Debug
func Debug(msg string, ctx ...interface{}) { Root().Debug(msg, ctx...) }

// Info is a convenient alias for Root().Info
func Info(msg string, ctx ...interface{}) { Root().Info(msg, ctx...) }

// Warn is a convenient alias for Root().Warn
func Warn(msg string, ctx ...interface{}) { Root().Warn(msg, ctx...) }

// Error is a convenient alias for Root().Error
func Error(msg string, ctx ...interface{}) { Root().Error(msg, ctx...) }

// Crit is a convenient alias for Root().Crit
func Crit(msg string, ctx ...interface{}) { Root().Crit(msg, ctx...) }
