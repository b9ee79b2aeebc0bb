// Package diag carries the debug diagnostics produced while styling and laying
// out a document. The core never prints; recoverable anomalies are appended to
// a caller-supplied Sink and mirrored to the package logger at debug level.
package diag

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Level classifies a diagnostic message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "debug"
	}
}

// Message is one diagnostic entry.
type Message struct {
	Level  Level
	Source string // component that produced it, e.g. "css", "text", "layout"
	Text   string
}

func (m Message) String() string {
	return fmt.Sprintf("[%s] %s: %s", m.Level, m.Source, m.Text)
}

// Sink collects diagnostics for one layout call. A nil *Sink discards
// everything, so callers that do not care can pass nil.
type Sink struct {
	Messages []Message
}

// Addf appends a formatted message.
func (s *Sink) Addf(level Level, source, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	Logger().Debug(text, slog.String("source", source), slog.String("level", level.String()))
	if s == nil {
		return
	}
	s.Messages = append(s.Messages, Message{Level: level, Source: source, Text: text})
}

// Debugf appends a debug-level message.
func (s *Sink) Debugf(source, format string, args ...any) {
	s.Addf(LevelDebug, source, format, args...)
}

// Warnf appends a warning-level message.
func (s *Sink) Warnf(source, format string, args ...any) {
	s.Addf(LevelWarning, source, format, args...)
}

// Len returns the number of collected messages.
func (s *Sink) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Messages)
}

// Filter returns the messages produced by source.
func (s *Sink) Filter(source string) []Message {
	if s == nil {
		return nil
	}
	var out []Message
	for _, m := range s.Messages {
		if m.Source == source {
			out = append(out, m)
		}
	}
	return out
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger installs the logger that mirrors every diagnostic. Passing nil
// restores the silent default.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current package logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
