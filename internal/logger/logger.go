// Package logger is the process-wide log of docrag.
//
// Debug, Info and Section trace the pipeline stages and are printed only in
// verbose mode (--verbose). Warn and Error report degraded runs and are
// always printed. Level tags are coloured when the output is a terminal.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

type level struct {
	tag   string
	paint *color.Color
}

var (
	levelDebug = level{"[DEBUG]", color.New(color.FgHiBlack)}
	levelInfo  = level{"[INFO]", color.New(color.FgCyan)}
	levelWarn  = level{"[WARN]", color.New(color.FgYellow)}
	levelError = level{"[ERROR]", color.New(color.FgRed, color.Bold)}
)

var (
	mu      sync.Mutex
	verbose bool
	output  io.Writer = os.Stderr
	colored           = isTerminal(os.Stderr)

	// lastSection is when the previous Section header was printed.
	lastSection time.Time
	now         = time.Now
)

// SetVerbose turns verbose output on or off.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	lastSection = time.Time{}
}

// IsVerbose reports whether verbose output is on.
func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// SetOutput redirects the log. Colour stays on only for terminals.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	colored = isTerminal(w)
}

func Debug(format string, args ...any) { write(levelDebug, true, format, args...) }

func Info(format string, args ...any) { write(levelInfo, true, format, args...) }

func Warn(format string, args ...any) { write(levelWarn, false, format, args...) }

func Error(format string, args ...any) { write(levelError, false, format, args...) }

// Section starts a named block of verbose output. From the second section
// on, the header carries the time spent in the previous one.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose {
		return
	}
	t := now()
	if lastSection.IsZero() {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	} else {
		fmt.Fprintf(output, "\n=== %s (+%s) ===\n", name, t.Sub(lastSection).Round(time.Millisecond))
	}
	lastSection = t
}

func write(l level, verboseOnly bool, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verboseOnly && !verbose {
		return
	}
	tag := l.tag
	if colored {
		tag = l.paint.Sprint(tag)
	}
	fmt.Fprintf(output, "%s %s\n", tag, fmt.Sprintf(format, args...))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && !color.NoColor && term.IsTerminal(int(f.Fd()))
}
