// Package logging builds the charmbracelet/log loggers used across tally.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

const prefix = "tally"

// New returns a logger writing to w at the given level. Unknown levels
// fall back to info.
func New(w io.Writer, level string, formatter log.Formatter) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		Formatter:       formatter,
		ReportTimestamp: true,
		Prefix:          prefix,
	})
}

// OpenFile appends logfmt lines to path. The TUI owns the terminal, so
// interactive sessions log here instead of to stderr.
func OpenFile(path, level string) (*log.Logger, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return Discard(), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(f, level, log.LogfmtFormatter), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

func ParseLevel(level string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
