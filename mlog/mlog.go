// Package mlog is a small structured logging library. Log calls take a
// message, a severity Level, and a context.Context whose mctx annotations
// (and those of any Contexts merged in via WithKV) are emitted alongside the
// message.
package mlog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mediocregopher/florun/mctx"
)

// Level describes the severity of a log Message.
type Level int

// The severities a Message may be logged at, in increasing order of
// severity.
const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// Message is a single entry to be logged.
type Message struct {
	Level       Level
	Description string
	Contexts    []context.Context
}

// Handler processes a single Message, e.g. by writing it somewhere.
type Handler func(Message) error

// Logger logs Messages to a Handler. The zero Logger is not usable; use
// NewLogger.
type Logger struct {
	mu      sync.Mutex
	handler Handler
}

// NewLogger returns a Logger which writes newline-delimited JSON to w (or
// os.Stderr if w is nil).
func NewLogger(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{handler: jsonHandler(w)}
}

// Null discards every Message logged to it.
var Null = NewLogger(io.Discard)

func jsonHandler(w io.Writer) Handler {
	var mu sync.Mutex
	return func(msg Message) error {
		annotations := mctx.Annotations{}
		for _, ctx := range msg.Contexts {
			mctx.EvaluateAnnotations(ctx, annotations)
		}

		entry := map[string]interface{}{
			"time":        time.Now().UTC().Format(time.RFC3339Nano),
			"level":       msg.Level.String(),
			"description": msg.Description,
		}
		for _, kv := range annotations.StringSlice(true) {
			entry[kv[0]] = kv[1]
		}

		mu.Lock()
		defer mu.Unlock()
		return json.NewEncoder(w).Encode(entry)
	}
}

// Clone returns a copy of l which logs to the same Handler, so that
// SetHandler on the copy does not affect l.
func (l *Logger) Clone() *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{handler: l.handler}
}

// SetHandler replaces the Handler Messages are sent to.
func (l *Logger) SetHandler(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = h
}

// Handler returns the currently set Handler.
func (l *Logger) Handler() Handler {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handler
}

// Log dispatches msg to the Logger's Handler. If the Handler returns an
// error it is written directly to stderr, since there's nowhere better for
// it to go. A FatalLevel Message additionally calls os.Exit(1) after
// logging.
func (l *Logger) Log(msg Message) {
	if err := l.Handler()(msg); err != nil {
		fmt.Fprintf(os.Stderr, "mlog: error logging message: %v\n", err)
	}
	if msg.Level == FatalLevel {
		os.Exit(1)
	}
}

func (l *Logger) log(level Level, descr string, ctxs ...context.Context) {
	l.Log(Message{Level: level, Description: descr, Contexts: ctxs})
}

// Debug logs descr at DebugLevel.
func (l *Logger) Debug(descr string, ctxs ...context.Context) { l.log(DebugLevel, descr, ctxs...) }

// Info logs descr at InfoLevel.
func (l *Logger) Info(descr string, ctxs ...context.Context) { l.log(InfoLevel, descr, ctxs...) }

// Warn logs descr at WarnLevel.
func (l *Logger) Warn(descr string, ctxs ...context.Context) { l.log(WarnLevel, descr, ctxs...) }

// Error logs descr at ErrorLevel.
func (l *Logger) Error(descr string, ctxs ...context.Context) { l.log(ErrorLevel, descr, ctxs...) }

// Fatal logs descr at FatalLevel and exits the process.
func (l *Logger) Fatal(descr string, ctxs ...context.Context) { l.log(FatalLevel, descr, ctxs...) }
