// Package console renders the step-by-step run narration on stdout.
//
// The agent reports phase entry, per-file successes, and failures as short
// colored lines; everything that needs machine attention goes through the
// standard logger instead.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Logger writes colored narration lines. The zero value is not usable;
// construct with New.
type Logger struct {
	out io.Writer

	step    *color.Color
	success *color.Color
	failure *color.Color
}

// New creates a Logger writing to stdout.
func New() *Logger {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter creates a Logger writing to w. Colors are still emitted;
// pass the writer through color.NoColor handling if that matters.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{
		out:     w,
		step:    color.New(color.FgCyan, color.Bold),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
	}
}

// Step announces entry into a named phase.
func (l *Logger) Step(name, format string, args ...any) {
	l.step.Fprintf(l.out, "\n[STEP: %s]\n", name)
	fmt.Fprintf(l.out, format+"\n", args...)
}

// Success reports a positive outcome.
func (l *Logger) Success(format string, args ...any) {
	l.success.Fprintf(l.out, "✔ "+format+"\n", args...)
}

// Failure reports a negative outcome. Failures here are narration, not
// errors; fatal conditions are additionally logged by the caller.
func (l *Logger) Failure(format string, args ...any) {
	l.failure.Fprintf(l.out, "✖ "+format+"\n", args...)
}

// Raw prints an uncolored block, used for transcripts and diffs.
func (l *Logger) Raw(text string) {
	fmt.Fprintln(l.out, text)
}
