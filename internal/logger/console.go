// Package logger provides the leveled console logger used by megagrep.
//
// Messages are prefixed the way megagrep always printed them ([INFO],
// [WARNING], [ERROR]) and colored only when the destination is a terminal.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelDebug int = 0
	levelInfo  int = 1
	levelWarn  int = 2
	levelError int = 3
)

// ConsoleLogger writes leveled messages to a writer. It is safe for
// concurrent use by the scanner's worker pool.
type ConsoleLogger struct {
	writer      io.Writer
	level       int
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to w. If w is nil,
// messages are discarded. Valid levels are debug, info, warn and error
// (case-insensitive); anything else falls back to info.
func NewConsoleLogger(w io.Writer, level string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      w,
		level:       parseLevel(level),
		colorOutput: IsTerminal(w),
	}
}

// IsTerminal reports whether w is a TTY-backed file and colors are not
// disabled via NO_COLOR.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func parseLevel(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "verbose":
		return levelDebug
	case "warn", "warning":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// Debugf logs verbose diagnostics, shown only with --verbose.
func (l *ConsoleLogger) Debugf(format string, args ...interface{}) {
	l.log(levelDebug, "[INFO]    ", color.New(color.FgCyan), format, args...)
}

// Infof logs a regular progress message.
func (l *ConsoleLogger) Infof(format string, args ...interface{}) {
	l.log(levelInfo, "[INFO]    ", color.New(color.FgCyan), format, args...)
}

// Warnf logs a non-blocking error.
func (l *ConsoleLogger) Warnf(format string, args ...interface{}) {
	l.log(levelWarn, "[WARNING] ", color.New(color.FgRed), format, args...)
}

// Errorf logs a blocking error. It does not exit; callers decide that.
func (l *ConsoleLogger) Errorf(format string, args ...interface{}) {
	l.log(levelError, "[ERROR]   ", color.New(color.FgRed, color.Bold), format, args...)
}

func (l *ConsoleLogger) log(level int, prefix string, c *color.Color, format string, args ...interface{}) {
	if l == nil || l.writer == nil || level < l.level {
		return
	}

	msg := prefix + fmt.Sprintf(format, args...)

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.colorOutput {
		c.Fprintln(l.writer, msg)
		return
	}
	fmt.Fprintln(l.writer, msg)
}
