// Package log is the structured logging facade used throughout the engine.
// It keeps the Field/Option/Encoder surface of the teacher's field-based
// logger but is backed by rs/zerolog rather than a hand-rolled writer loop:
// the teacher's package carried two conflicting Logger/Level declarations
// (a channel-based one and a field-based one) in the same package, which
// does not compile. This keeps the field-based design and drops the other.
//
// Spec §9 asks for a facade with structured fields (subsystem, venue, pair,
// event_kind) in place of macro-based tracing; callers build a base logger
// once and derive scoped children with With.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level mirrors zerolog's level model with the names this codebase uses
// elsewhere (DEBUG/INFO/WARN/ERROR/FATAL).
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelFatal:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Field is a single structured key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field     { return Field{Key: key, Value: value} }
func Int(key string, value int) Field    { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }
func Uint32(key string, value uint32) Field { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field  { return Field{Key: key, Value: value} }
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}
func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Logger is the structured logging surface every component depends on.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type zlogger struct {
	z zerolog.Logger
}

// Option configures a Logger built with New.
type Option func(*zerolog.Logger)

// WithOutput sets the destination writer. Defaults to os.Stderr.
func WithOutput(w io.Writer) Option {
	return func(z *zerolog.Logger) {
		*z = z.Output(w)
	}
}

// WithLevel sets the minimum level that will be emitted.
func WithLevel(level Level) Option {
	return func(z *zerolog.Logger) {
		*z = z.Level(level.zerolog())
	}
}

// WithText switches the sink to zerolog's human-readable console writer
// instead of line-delimited JSON. JSON is the default, matching the
// teacher's JSONEncoder being the primary encoder.
func WithText() Option {
	return func(z *zerolog.Logger) {
		*z = z.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// New builds a Logger. With no options it writes leveled JSON to stderr.
func New(opts ...Option) Logger {
	z := zerolog.New(os.Stderr).With().Timestamp().Logger()
	for _, opt := range opts {
		opt(&z)
	}
	return &zlogger{z: z}
}

func apply(ev *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	return ev
}

func (l *zlogger) Debug(msg string, fields ...Field) { apply(l.z.Debug(), fields).Msg(msg) }
func (l *zlogger) Info(msg string, fields ...Field)  { apply(l.z.Info(), fields).Msg(msg) }
func (l *zlogger) Warn(msg string, fields ...Field)  { apply(l.z.Warn(), fields).Msg(msg) }
func (l *zlogger) Error(msg string, fields ...Field) { apply(l.z.Error(), fields).Msg(msg) }
func (l *zlogger) Fatal(msg string, fields ...Field) { apply(l.z.Fatal(), fields).Msg(msg) }

func (l *zlogger) With(fields ...Field) Logger {
	ctx := l.z.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &zlogger{z: ctx.Logger()}
}

// Nop returns a Logger that discards everything, for tests.
func Nop() Logger {
	return &zlogger{z: zerolog.Nop()}
}
