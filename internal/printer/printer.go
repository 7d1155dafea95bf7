// Package printer provides colored terminal output for the CLI.
// Users can disable color with the NO_COLOR environment variable.
package printer

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Success prints a green check-marked message to stdout.
func Success(format string, a ...any) {
	green.Printf("✓ "+format+"\n", a...)
}

// Info prints a plain message to stdout.
func Info(format string, a ...any) {
	fmt.Printf(format+"\n", a...)
}

// ID prints a block identifier in cyan on its own line, so it is easy to
// copy and easy to pipe.
func ID(id string) {
	cyan.Println(id)
}

// Warning prints a yellow message to stderr.
func Warning(format string, a ...any) {
	yellow.Fprintf(os.Stderr, "⚠ "+format+"\n", a...)
}

// Error prints a red message to stderr.
func Error(format string, a ...any) {
	red.Fprintf(os.Stderr, "✗ "+format+"\n", a...)
}
