// SPDX-License-Identifier: MPL-2.0

// Package logging builds the runtime's slog logger on top of charmbracelet/log
// and maps application.log verbosity names onto it.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// FormatText is the human-oriented charm output.
	FormatText = "text"
	// FormatJSON emits one JSON object per record.
	FormatJSON = "json"
	// FormatLogfmt emits logfmt key=value records.
	FormatLogfmt = "logfmt"

	// DefaultLevel is used when application.log is absent.
	DefaultLevel = "INFO"
)

// levelOff is above every level a record can carry.
const levelOff = log.Level(math.MaxInt32)

type (
	// Options configures New.
	Options struct {
		// Prefix is printed before every message (default "appvisor").
		Prefix string
		// Format selects the charm formatter; empty means FormatText.
		Format string
		// Level is the initial verbosity name (default DefaultLevel).
		Level string
		// Timestamps enables timestamps on every record.
		Timestamps bool
		// Floor is the least verbose level SetUp may select. A Floor of
		// DEBUG keeps debug records however the level is later changed.
		// Empty means no floor.
		Floor string
	}

	// Logger pairs the slog front-end with the charm back-end so verbosity can
	// be changed after construction.
	Logger struct {
		*slog.Logger
		backend *log.Logger
		floor   log.Level
	}
)

// New creates a Logger writing to w. A nil w writes to os.Stderr.
func New(w io.Writer, opts Options) *Logger {
	if w == nil {
		w = os.Stderr
	}
	if opts.Prefix == "" {
		opts.Prefix = "appvisor"
	}

	backend := log.NewWithOptions(w, log.Options{
		Prefix:          opts.Prefix,
		ReportTimestamp: opts.Timestamps,
		Formatter:       formatter(opts.Format),
	})

	l := &Logger{Logger: slog.New(backend), backend: backend, floor: levelOff}
	level := opts.Level
	if level == "" {
		level = DefaultLevel
	}
	var floorErr error
	if opts.Floor != "" {
		var floor log.Level
		if floor, floorErr = ParseLevel(opts.Floor); floorErr == nil {
			l.floor = floor
		}
	}
	if err := l.SetUp(level); err != nil {
		l.Warn("unknown log level, using INFO", "level", level)
	}
	if floorErr != nil {
		l.Warn("unknown log level floor, ignoring it", "floor", opts.Floor)
	}
	return l
}

// Discard returns a Logger that drops every record. Tests use it to keep output quiet.
func Discard() *Logger {
	return New(io.Discard, Options{Level: "OFF"})
}

// SetUp changes the verbosity. Accepted names (case-insensitive) are TRACE,
// DEBUG, INFO, WARN, ERROR, FATAL and OFF. An unknown name leaves the logger at
// INFO and returns an error. The result is never less verbose than Options.Floor.
func (l *Logger) SetUp(level string) error {
	lvl, err := ParseLevel(level)
	l.backend.SetLevel(min(lvl, l.floor))
	return err
}

// Level returns the current charm verbosity.
func (l *Logger) Level() log.Level {
	return l.backend.GetLevel()
}

// ParseLevel maps a verbosity name to a charm level. TRACE has no slog
// counterpart and is treated as DEBUG.
func ParseLevel(level string) (log.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE", "DEBUG", "ALL":
		return log.DebugLevel, nil
	case "INFO":
		return log.InfoLevel, nil
	case "WARN", "WARNING":
		return log.WarnLevel, nil
	case "ERROR":
		return log.ErrorLevel, nil
	case "FATAL":
		return log.FatalLevel, nil
	case "OFF":
		return levelOff, nil
	default:
		return log.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

func formatter(format string) log.Formatter {
	switch strings.ToLower(format) {
	case FormatJSON:
		return log.JSONFormatter
	case FormatLogfmt:
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
