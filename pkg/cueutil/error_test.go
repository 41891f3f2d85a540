// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"

	"cuelang.org/go/cue"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()

		if err := FormatError(nil, "appvisor.cue"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("non-CUE error is wrapped with filepath", func(t *testing.T) {
		t.Parallel()

		orig := errors.New("some error")
		err := FormatError(orig, "appvisor.cue")
		if !strings.Contains(err.Error(), "appvisor.cue") || !errors.Is(err, orig) {
			t.Errorf("unexpected wrap: %v", err)
		}
	})
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     []string
		expected string
	}{
		{name: "empty path", path: nil, expected: ""},
		{name: "definition is dropped", path: []string{"#Resolved", `"application.mode"`}, expected: "application.mode"},
		{name: "nested", path: []string{"watch", "debounce"}, expected: "watch.debounce"},
		{name: "index", path: []string{"watch", "patterns", "2"}, expected: "watch.patterns[2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := formatPath(tt.path); got != tt.expected {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestCompileAndValidate(t *testing.T) {
	t.Parallel()

	const schema = `#S: { name?: string, port?: int & >0 }`

	t.Run("valid data", func(t *testing.T) {
		t.Parallel()

		v, err := CompileAndValidate(schema, []byte(`port: 8080`), "#S", "s.cue", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		port, err := v.LookupPath(cue.ParsePath("port")).Int64()
		if err != nil || port != 8080 {
			t.Errorf("port = %d, %v", port, err)
		}
	})

	t.Run("schema violation names the field", func(t *testing.T) {
		t.Parallel()

		_, err := CompileAndValidate(schema, []byte(`port: -1`), "#S", "s.cue", false)
		if err == nil || !strings.Contains(err.Error(), "port") {
			t.Errorf("expected error mentioning port, got %v", err)
		}
	})

	t.Run("oversized file", func(t *testing.T) {
		t.Parallel()

		big := make([]byte, DefaultMaxFileSize+1)
		if _, err := CompileAndValidate(schema, big, "#S", "s.cue", false); err == nil {
			t.Error("expected size error")
		}
	})
}
