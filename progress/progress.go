// Package progress reports export progress.
package progress

import (
	"fmt"
	"io"
	"log"
	"math"
	"strings"
	"sync"
)

// Reporter receives the fraction of work done. Clear signals that the work
// finished or was abandoned.
type Reporter interface {
	Set(fraction float64)
	Clear()
}

// Nop discards progress.
type Nop struct{}

func (Nop) Set(float64) {}
func (Nop) Clear()      {}

// Log prints a text bar whenever progress crosses another Step percent.
type Log struct {
	Logger *log.Logger // nil uses the standard logger
	Label  string
	Step   int // percent, 10 if zero
	Width  int // bar characters, 40 if zero

	mu   sync.Mutex
	last int
	seen bool
}

func NewLog(label string) *Log {
	return &Log{Label: label}
}

func (l *Log) Set(fraction float64) {
	if math.IsNaN(fraction) {
		return
	}
	fraction = math.Max(0, math.Min(1, fraction))
	step := l.Step
	if step <= 0 {
		step = 10
	}
	percent := int(fraction * 100)
	bucket := percent / step * step

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen && bucket == l.last {
		return
	}
	l.seen = true
	l.last = bucket
	l.printf("%s %s %3d%%", l.Label, Bar(fraction, l.width()), bucket)
}

func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.seen {
		return
	}
	l.seen = false
	l.printf("%s done", l.Label)
}

func (l *Log) width() int {
	if l.Width <= 0 {
		return 40
	}
	return l.Width
}

func (l *Log) printf(format string, args ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	if l.Logger != nil {
		l.Logger.Println(msg)
		return
	}
	log.Println(msg)
}

// Bar renders fraction as a fixed-width bar such as "[#####-----]".
func Bar(fraction float64, width int) string {
	if width <= 0 {
		return "[]"
	}
	filled := int(math.Round(math.Max(0, math.Min(1, fraction)) * float64(width)))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// Writer returns a Log that prints to w without timestamps.
func Writer(w io.Writer, label string) *Log {
	return &Log{Logger: log.New(w, "", 0), Label: label}
}
