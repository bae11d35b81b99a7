// Package logging builds the console logger shared by commands and
// background services.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// EnvLevel names the environment variable that overrides the log level.
const EnvLevel = "TWOHOP_LOG_LEVEL"

// Options configures New.
type Options struct {
	// Verbose lowers the level to debug.
	Verbose bool
	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// New returns a logger writing to stderr. The level is info, debug when
// Verbose is set, and may be overridden through EnvLevel.
func New(opts Options) *log.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	level := log.InfoLevel
	if opts.Verbose {
		level = log.DebugLevel
	}
	if raw := strings.TrimSpace(os.Getenv(EnvLevel)); raw != "" {
		if parsed, err := log.ParseLevel(raw); err == nil {
			level = parsed
		}
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "twohop",
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
