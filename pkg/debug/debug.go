// Package debug prints the human-readable detection trace.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// TimeLayout matches the local "date time.micros" stamp operators grep for.
const TimeLayout = "2006-01-02 15:04:05.000000"

// Logger writes "<Color> Spotted at <timestamp>" lines when enabled.
// A nil *Logger is valid and silent.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	now     func() time.Time
	enabled bool
}

// New returns a logger writing to stdout.
func New(enabled bool) *Logger {
	return NewWithWriter(enabled, os.Stdout, time.Now)
}

// NewWithWriter returns a logger writing to w, stamping lines with now.
func NewWithWriter(enabled bool, w io.Writer, now func() time.Time) *Logger {
	if now == nil {
		now = time.Now
	}
	return &Logger{out: w, now: now, enabled: enabled}
}

// Enabled reports whether lines are written.
func (l *Logger) Enabled() bool {
	return l != nil && l.enabled
}

// Spotted records that color matched at least one pixel in the current frame.
func (l *Logger) Spotted(color string) {
	if !l.Enabled() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s Spotted at %s\n", color, l.now().Local().Format(TimeLayout))
}
