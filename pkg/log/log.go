// Copyright 2026 caltus
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	opIndent     = 4  // spaces to indent operation entries
	nameWidth    = 25 // Base width for operation name
	queueWidth   = 20 // Width for queue name
	outcomeWidth = 12 // Width for outcome text

	// flushInterval is how often buffered console lines are written out.
	flushInterval = 250 * time.Millisecond
)

// 🎯 OperationEvent represents an operation lifecycle event for logging
type OperationEvent struct {
	Queue    string        // Dispatcher name
	Name     string        // Operation name
	Outcome  string        // queued / running / completed / canceled / failed
	Duration time.Duration // How long the operation ran, zero if not finished
	Err      error         // Terminal error, if any
}

// 🎯 Logger handles structured logging with console output.
//
// Console lines are buffered and written by a periodic flusher, so a burst of
// operation events never makes a caller wait on terminal I/O. The flusher
// shares nothing with the operation queue beyond the mutex guarding the
// buffer.
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer

	mu  sync.Mutex
	buf []string

	stopOnce sync.Once
	stop     chan struct{}
	flushed  chan struct{}
}

// 🏭 New creates a new logger and starts its periodic flusher
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	l := &Logger{
		zlog:    zlog,
		console: console,
		stop:    make(chan struct{}),
		flushed: make(chan struct{}),
	}
	go l.flushLoop()
	return l
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatOperationEvent formats an operation event for display
func (l *Logger) formatOperationEvent(ev OperationEvent) string {
	// Determine symbol and color
	var symbol rune
	var symbolColor color.Attribute
	switch ev.Outcome {
	case "completed":
		symbol = '✓'
		symbolColor = color.FgGreen
	case "canceled":
		symbol = '⊘'
		symbolColor = color.FgYellow
	case "failed":
		symbol = '✗'
		symbolColor = color.FgRed
	case "running":
		symbol = '⟳'
		symbolColor = color.FgBlue
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	// Truncate on rune boundaries so a multibyte name can't be cut into
	// invalid UTF-8.
	name := ev.Name
	if utf8.RuneCountInString(name) > nameWidth {
		runes := []rune(name)
		name = string(runes[:nameWidth-1]) + "…"
	}

	line := fmt.Sprintf("%s%s %-*s %-*s %-*s",
		strings.Repeat(" ", opIndent),
		color.New(symbolColor).Sprintf("%c", symbol),
		nameWidth, name,
		queueWidth, ev.Queue,
		outcomeWidth, ev.Outcome,
	)
	if ev.Duration > 0 {
		line += fmt.Sprintf(" %s", ev.Duration.Round(time.Microsecond))
	}
	if ev.Err != nil {
		line += " " + color.New(color.FgRed).Sprint(ev.Err)
	}
	return line
}

// 📋 LogOperation logs an operation lifecycle event
func (l *Logger) LogOperation(ctx context.Context, ev OperationEvent) {
	l.zlog.Info().
		Str("queue", ev.Queue).
		Str("operation", ev.Name).
		Str("outcome", ev.Outcome).
		Dur("duration", ev.Duration).
		Err(ev.Err).
		Msg("operation event")

	l.mu.Lock()
	l.buf = append(l.buf, l.formatOperationEvent(ev))
	l.mu.Unlock()
}

// Info logs an informational message
func (l *Logger) Info(msg string) {
	l.zlog.Info().Msg(msg)
	l.append("ℹ️  " + msg)
}

// Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.zlog.Warn().Msg(msg)
	l.append("⚠️  " + msg)
}

// Error logs an error message
func (l *Logger) Error(msg string) {
	l.zlog.Error().Msg(msg)
	l.append("❌ " + msg)
}

// Success logs a success message
func (l *Logger) Success(msg string) {
	l.zlog.Info().Msg(msg)
	l.append("✅ " + msg)
}

func (l *Logger) append(line string) {
	l.mu.Lock()
	l.buf = append(l.buf, line)
	l.mu.Unlock()
}

// Flush writes all buffered console lines immediately.
func (l *Logger) Flush() {
	l.mu.Lock()
	lines := l.buf
	l.buf = nil
	l.mu.Unlock()

	for _, line := range lines {
		fmt.Fprintln(l.console, line)
	}
}

// flushLoop is the timer-driven maintenance task that drains the console
// buffer. It owns no state besides the ticker; the buffer is guarded by mu.
func (l *Logger) flushLoop() {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Flush()
		case <-l.stop:
			l.Flush()
			close(l.flushed)
			return
		}
	}
}

// Close stops the flusher after a final flush.
func (l *Logger) Close() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
	<-l.flushed
}

// Zerolog returns the underlying structured logger.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zlog
}

// ParseLevel maps a config log level string to a zerolog level, defaulting
// to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
