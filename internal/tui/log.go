package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/jamesatintegratnio/fleetgen/internal/config"
)

// Log provides leveled output helpers that respect --verbose, --quiet, and
// structured output modes. Diagnostics go to Stderr; stdout is reserved for
// the artifact listing and structured output.

var (
	// Stdout receives command results.
	Stdout io.Writer = os.Stdout
	// Stderr receives diagnostics.
	Stderr io.Writer = os.Stderr
)

// Debug prints a message only when --verbose is set.
// Suppressed in structured (JSON/YAML) output mode.
func Debug(format string, args ...any) {
	if IsStructured() || !config.Get().Verbose {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(Stderr, DimStyle.Render("DEBUG: "+msg))
}

// Info prints informational messages (the default).
// Suppressed by --quiet and structured output modes.
func Info(format string, args ...any) {
	if IsStructured() || config.Get().Quiet {
		return
	}
	fmt.Fprintf(Stderr, format+"\n", args...)
}

// Warn prints a warning message. Only suppressed in structured mode.
func Warn(format string, args ...any) {
	if IsStructured() {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(Stderr, WarningStyle.Render(IconWarn+" "+msg))
}

// Error prints an error message. Never suppressed.
func Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if IsStructured() {
		fmt.Fprintln(Stderr, "error: "+msg)
		return
	}
	fmt.Fprintln(Stderr, ErrorStyle.Render(IconCross+" "+msg))
}

// Success prints a confirmation line on Stdout. Suppressed by --quiet and
// structured output.
func Success(format string, args ...any) {
	if IsStructured() || config.Get().Quiet {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(Stdout, SuccessStyle.Render(IconCheck)+" "+msg)
}
