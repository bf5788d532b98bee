// Package logger prints leveled console messages for the scanner and CLI.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Level controls which messages are printed.
type Level int

const (
	// LevelSilent prints nothing but findings
	LevelSilent Level = iota
	// LevelNormal prints progress, warnings and errors
	LevelNormal
	// LevelVerbose also prints per-test debug lines
	LevelVerbose
)

// Logger writes prefixed, colored lines. Safe for concurrent use.
type Logger struct {
	level Level
	out   io.Writer
	mu    sync.Mutex
}

// New creates a logger writing to stderr.
func New(level Level) *Logger {
	return &Logger{level: level, out: os.Stderr}
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(level Level, w io.Writer) *Logger {
	return &Logger{level: level, out: w}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{level: LevelSilent, out: io.Discard}
}

// FromFlags picks a level from the CLI verbosity flags.
func FromFlags(verbose, silent bool) Level {
	switch {
	case silent:
		return LevelSilent
	case verbose:
		return LevelVerbose
	default:
		return LevelNormal
	}
}

// IsVerbose returns true if debug lines are printed.
func (l *Logger) IsVerbose() bool {
	return l != nil && l.level >= LevelVerbose
}

func (l *Logger) print(min Level, c *color.Color, prefix, format string, args ...interface{}) {
	if l == nil || l.level < min {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	c.Fprintf(l.out, prefix+format+"\n", args...)
}

// Info logs a progress message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.print(LevelNormal, color.New(color.FgCyan), "[*] ", format, args...)
}

// Success logs a positive outcome.
func (l *Logger) Success(format string, args ...interface{}) {
	l.print(LevelNormal, color.New(color.FgGreen), "[+] ", format, args...)
}

// Warn logs a recoverable problem.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.print(LevelNormal, color.New(color.FgYellow), "[!] ", format, args...)
}

// Error logs a failure.
func (l *Logger) Error(format string, args ...interface{}) {
	l.print(LevelNormal, color.New(color.FgRed), "[-] ", format, args...)
}

// Debug logs a message only in verbose mode.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.print(LevelVerbose, color.New(color.FgWhite), "[v] ", format, args...)
}

// Printf writes an unprefixed line regardless of level, for findings.
func (l *Logger) Printf(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, format, args...)
}
