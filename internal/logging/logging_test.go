// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    log.Level
		wantErr bool
	}{
		{"TRACE", log.DebugLevel, false},
		{"debug", log.DebugLevel, false},
		{" Info ", log.InfoLevel, false},
		{"WARN", log.WarnLevel, false},
		{"error", log.ErrorLevel, false},
		{"FATAL", log.FatalLevel, false},
		{"OFF", levelOff, false},
		{"LOUD", log.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogger_SetUpFiltersRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(&buf, Options{Level: "WARN", Format: FormatLogfmt})

	l.Info("hidden")
	l.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("INFO record leaked at WARN level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Errorf("WARN record missing: %q", out)
	}

	buf.Reset()
	if err := l.SetUp("DEBUG"); err != nil {
		t.Fatalf("SetUp(DEBUG) error: %v", err)
	}
	l.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("DEBUG record missing after SetUp: %q", buf.String())
	}
}

func TestLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	t.Parallel()

	l := New(&bytes.Buffer{}, Options{Level: "DEBUG"})
	if err := l.SetUp("chatty"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if l.Level() != log.InfoLevel {
		t.Errorf("Level() = %v, want INFO", l.Level())
	}
}

func TestLogger_FloorKeepsVerbosity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		want  log.Level
	}{
		{"INFO", log.DebugLevel},
		{"OFF", log.DebugLevel},
		{"unknown", log.DebugLevel},
		{"TRACE", log.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			l := New(&buf, Options{Floor: "DEBUG", Format: FormatLogfmt})
			_ = l.SetUp(tt.level)
			if l.Level() != tt.want {
				t.Errorf("Level() after SetUp(%q) = %v, want %v", tt.level, l.Level(), tt.want)
			}
			l.Debug("still here")
			if !strings.Contains(buf.String(), "still here") {
				t.Errorf("DEBUG record dropped after SetUp(%q): %q", tt.level, buf.String())
			}
		})
	}

	l := New(&bytes.Buffer{}, Options{Floor: "WARN"})
	if err := l.SetUp("DEBUG"); err != nil {
		t.Fatalf("SetUp(DEBUG) error = %v", err)
	}
	if l.Level() != log.DebugLevel {
		t.Errorf("a floor must not limit more verbose levels, Level() = %v", l.Level())
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	l := Discard()
	if l.Level() != levelOff {
		t.Errorf("Discard level = %v, want off", l.Level())
	}
	l.Error("dropped")
}
