// Package logging builds the zerolog logger shared by the CLI and the MCP
// server. Output goes to stderr by default because stdout carries MCP
// traffic when serving over stdio.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "pdfsheet"

// Options controls logger construction.
type Options struct {
	Level  string
	Format string // json or console
	Output io.Writer
}

// New returns a logger with a timestamp and service field. Unknown levels
// fall back to info.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).
		Level(parseLevel(opts.Level)).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
