// Package notify delivers fire-and-forget user notifications.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Severity ranks a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Sink receives notifications. Implementations must not block the caller for
// long and never report failures back.
type Sink interface {
	Notify(message string, severity Severity)
}

// Func adapts a plain function to Sink.
type Func func(message string, severity Severity)

// Notify implements Sink.
func (f Func) Notify(message string, severity Severity) {
	if f != nil {
		f(message, severity)
	}
}

// Noop drops every notification.
type Noop struct{}

// Notify implements Sink.
func (Noop) Notify(string, Severity) {}

// Console writes coloured one-line notifications.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole writes to w, or stderr when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stderr
	}
	return &Console{out: w}
}

var palette = map[Severity]*color.Color{
	SeverityInfo:    color.New(color.FgCyan),
	SeveritySuccess: color.New(color.FgGreen, color.Bold),
	SeverityWarning: color.New(color.FgYellow, color.Bold),
	SeverityError:   color.New(color.FgRed, color.Bold),
}

// Notify implements Sink.
func (c *Console) Notify(message string, severity Severity) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	tint, ok := palette[severity]
	if !ok {
		tint = palette[SeverityInfo]
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, tint.Sprint(message))
}

// Log forwards notifications to a structured logger.
type Log struct {
	Logger *slog.Logger
}

// Notify implements Sink.
func (l Log) Notify(message string, severity Severity) {
	if l.Logger == nil {
		return
	}
	level := slog.LevelInfo
	switch severity {
	case SeverityWarning:
		level = slog.LevelWarn
	case SeverityError:
		level = slog.LevelError
	}
	l.Logger.Log(context.Background(), level, message, "severity", string(severity))
}

// Multi fans a notification out to every sink.
type Multi []Sink

// Notify implements Sink.
func (m Multi) Notify(message string, severity Severity) {
	for _, sink := range m {
		if sink != nil {
			sink.Notify(message, severity)
		}
	}
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Entry is one recorded notification.
type Entry struct {
	Message  string
	Severity Severity
}

// Notify implements Sink.
func (r *Recorder) Notify(message string, severity Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Message: message, Severity: severity})
}

// Entries returns a copy of what was recorded.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}
