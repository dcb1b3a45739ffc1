// Package logging implements Hoard's nil-safe logger: a thin wrapper over
// zerolog that still functions (silently) if nil, so call sites never
// need to guard against a missing logger. Adapted from mutagen's
// pkg/logging/logger.go, which has the same nil-safe property but wraps
// the standard log package; this version wraps zerolog.Logger to pick up
// the pack's structured-logging stack instead of stdlib log.
package logging

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// DebugEnabled gates Debug/Debugf/Debugln output. It is process-wide,
// mirroring mutagen's package-level mutagen.DebugEnabled flag.
var DebugEnabled bool

// Logger is the main logger type. A nil *Logger is safe to call every
// method on; it simply discards output. Safe for concurrent use, since
// zerolog.Logger is immutable per call.
type Logger struct {
	zl     zerolog.Logger
	prefix string
}

// NewRoot constructs a root Logger writing to w in zerolog's console
// (human-readable) format.
func NewRoot(w io.Writer, level zerolog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	return &Logger{zl: zerolog.New(console).Level(level).With().Timestamp().Logger()}
}

// Sublogger creates a new sublogger with the given name appended to this
// logger's component prefix, mirroring mutagen's dotted sublogger names.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{zl: l.zl.With().Str("component", prefix).Logger(), prefix: prefix}
}

// Printf logs an informational message with fmt.Sprintf-style formatting.
func (l *Logger) Printf(format string, v ...interface{}) {
	if l != nil {
		l.zl.Info().Msgf(format, v...)
	}
}

// Println logs an informational message.
func (l *Logger) Println(v ...interface{}) {
	if l != nil {
		l.zl.Info().Msg(sprintln(v...))
	}
}

// Debugf logs a debug message, a no-op unless DebugEnabled is set.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l != nil && DebugEnabled {
		l.zl.Debug().Msgf(format, v...)
	}
}

// Debugln logs a debug message, a no-op unless DebugEnabled is set.
func (l *Logger) Debugln(v ...interface{}) {
	if l != nil && DebugEnabled {
		l.zl.Debug().Msg(sprintln(v...))
	}
}

// Warn logs a warning, colored yellow when writing to a terminal (via
// fatih/color).
func (l *Logger) Warn(err error) {
	if l != nil {
		l.zl.Warn().Msg(color.YellowString("%v", err))
	}
}

// Error logs an error, colored red when writing to a terminal.
func (l *Logger) Error(err error) {
	if l != nil {
		l.zl.Error().Msg(color.RedString("%v", err))
	}
}

func sprintln(v ...interface{}) string {
	if len(v) == 1 {
		if s, ok := v[0].(string); ok {
			return s
		}
	}
	out := ""
	for i, item := range v {
		if i > 0 {
			out += " "
		}
		out += toString(item)
	}
	return out
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return "<value>"
}
