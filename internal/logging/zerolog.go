package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger on top of zerolog. It writes JSON lines by
// default, or a human-friendly console format when pretty is requested.
type ZerologLogger struct {
	zl zerolog.Logger
}

// Options control how NewZerologLogger builds its output.
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values fall back to info.
	Level string

	// Pretty switches to zerolog's console writer.
	Pretty bool

	// Component is attached as a persistent "component" field when set.
	Component string
}

// NewZerologLogger creates a logger writing to w.
func NewZerologLogger(w io.Writer, opts Options) *ZerologLogger {
	if w == nil {
		w = os.Stdout
	}
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if opts.Component != "" {
		ctx = ctx.Str("component", opts.Component)
	}
	return &ZerologLogger{zl: ctx.Logger()}
}

// NewStdoutLogger creates an info-level JSON logger on stdout for the given component.
func NewStdoutLogger(component string) *ZerologLogger {
	return NewZerologLogger(os.Stdout, Options{Level: "info", Component: component})
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *ZerologLogger {
	return &ZerologLogger{zl: zerolog.Nop()}
}

func (z *ZerologLogger) Debug(msg string, fields ...Field) {
	write(z.zl.Debug(), msg, fields)
}

func (z *ZerologLogger) Info(msg string, fields ...Field) {
	write(z.zl.Info(), msg, fields)
}

func (z *ZerologLogger) Warn(msg string, fields ...Field) {
	write(z.zl.Warn(), msg, fields)
}

func (z *ZerologLogger) Error(msg string, fields ...Field) {
	write(z.zl.Error(), msg, fields)
}

// With returns a child logger carrying fields on every entry.
func (z *ZerologLogger) With(fields ...Field) Logger {
	ctx := z.zl.With()
	for _, f := range fields {
		ctx = appendContext(ctx, f)
	}
	return &ZerologLogger{zl: ctx.Logger()}
}

func write(ev *zerolog.Event, msg string, fields []Field) {
	if ev == nil {
		// level disabled
		return
	}
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			ev = ev.Str(f.Key, v)
		case int:
			ev = ev.Int(f.Key, v)
		case int64:
			ev = ev.Int64(f.Key, v)
		case float64:
			ev = ev.Float64(f.Key, v)
		case bool:
			ev = ev.Bool(f.Key, v)
		case time.Duration:
			ev = ev.Dur(f.Key, v)
		case error:
			ev = ev.AnErr(f.Key, v)
		default:
			ev = ev.Interface(f.Key, v)
		}
	}
	ev.Msg(msg)
}

func appendContext(ctx zerolog.Context, f Field) zerolog.Context {
	switch v := f.Value.(type) {
	case string:
		return ctx.Str(f.Key, v)
	case int:
		return ctx.Int(f.Key, v)
	case bool:
		return ctx.Bool(f.Key, v)
	case error:
		return ctx.AnErr(f.Key, v)
	default:
		return ctx.Interface(f.Key, v)
	}
}
