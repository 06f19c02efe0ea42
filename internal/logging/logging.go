// Package logging configures structured console logging for the CLI.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New creates a console logger writing to stderr, keeping stdout clean for
// command output and the TUI.
func New(verbose bool) zerolog.Logger {
	return NewWithWriter(os.Stderr, verbose)
}

// NewWithWriter creates a console logger on an arbitrary writer.
func NewWithWriter(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
