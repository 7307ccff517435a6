// Package ilog is Inkjet's diagnostic logger: plain lines to stderr,
// gated by -v/--verbose. There is no structured audit trail — Inkjet
// keeps no persisted state between invocations.
package ilog

import (
	"fmt"
	"os"
)

// Logger writes verbose diagnostics to stderr when enabled.
type Logger struct {
	verbose bool
}

func New(verbose bool) *Logger {
	return &Logger{verbose: verbose}
}

func (l *Logger) Debugf(format string, args ...any) {
	if l == nil || !l.verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "[inkjet] "+format+"\n", args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[inkjet] warning: "+format+"\n", args...)
}
