// Package logging provides the leveled log sink shared by the parser, the
// indexer and the command line tools.
//
// The sink is a plain *slog.Logger. Nothing in this module logs through a
// global: the logger is created by the caller and handed to every component
// that emits messages. Components only choose the level of a message, the
// verbosity policy belongs to whoever built the handler.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LevelTrace sits below slog.LevelDebug and carries per-token parser output.
const LevelTrace = slog.Level(-8)

// ParseLevel maps a verbosity name to a slog level. Accepted names are
// error, warning (or warn), info, debug and trace.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "error":
		return slog.LevelError, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "trace":
		return LevelTrace, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown verbosity %q", name)
}

// LevelName returns the lower-case name used in configuration files.
func LevelName(level slog.Level) string {
	switch {
	case level <= LevelTrace:
		return "trace"
	case level <= slog.LevelDebug:
		return "debug"
	case level <= slog.LevelInfo:
		return "info"
	case level <= slog.LevelWarn:
		return "warning"
	default:
		return "error"
	}
}

// New returns a text logger writing to w that drops records below level.
// Pass a *slog.LevelVar to change the verbosity after construction.
func New(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevel,
	}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OrDiscard returns log, or a discarding logger when log is nil.
func OrDiscard(log *slog.Logger) *slog.Logger {
	if log == nil {
		return Discard()
	}
	return log
}

// Trace emits msg at LevelTrace.
func Trace(log *slog.Logger, msg string, args ...any) {
	log.Log(context.Background(), LevelTrace, msg, args...)
}

// TraceEnabled reports whether log would keep a trace record. The parser uses
// it to avoid formatting one record per token when nobody listens.
func TraceEnabled(log *slog.Logger) bool {
	return log.Enabled(context.Background(), LevelTrace)
}

func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) != 0 {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	a.Value = slog.StringValue(strings.ToUpper(LevelName(level)))
	return a
}

// key is unexported so no other package can collide with it.
type key struct{}

// WithLogger returns a copy of ctx carrying log.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, key{}, log)
}

// FromContext returns the logger stored by WithLogger, or a discarding
// logger when there is none.
func FromContext(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(key{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return Discard()
}
