// SPDX-License-Identifier: MPL-2.0

package appconf

import (
	"slices"
	"strings"
	"testing"

	"github.com/appvisor/appvisor/internal/issue"
)

func TestModeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		values  map[string]string
		want    Mode
		wantErr bool
	}{
		{name: "default is dev", values: nil, want: ModeDev},
		{name: "lower prod", values: map[string]string{KeyMode: "prod"}, want: ModeProd},
		{name: "mixed case", values: map[string]string{KeyMode: "Dev"}, want: ModeDev},
		{name: "unknown", values: map[string]string{KeyMode: "staging"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ModeOf(NewResolved(tt.values))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ModeOf() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ModeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLangs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  []string
	}{
		{value: "", want: []string{}},
		{value: "   ", want: []string{}},
		{value: "en", want: []string{"en"}},
		{value: "en, fr,de", want: []string{"en", "fr", "de"}},
	}
	for _, tt := range tests {
		got := Langs(NewResolved(map[string]string{KeyLangs: tt.value}))
		if !slices.Equal(got, tt.want) {
			t.Errorf("Langs(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
	if got := Langs(NewResolved(nil)); len(got) != 0 {
		t.Errorf("Langs(missing) = %v, want empty", got)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("accepts known values and arbitrary keys", func(t *testing.T) {
		t.Parallel()

		r := NewResolved(map[string]string{
			KeyMode:      "PROD",
			KeyLog:       "debug",
			"custom.key": "anything",
		})
		if err := Validate(r, "application.conf"); err != nil {
			t.Errorf("Validate() error: %v", err)
		}
	})

	t.Run("rejects unknown mode as structured failure", func(t *testing.T) {
		t.Parallel()

		err := Validate(NewResolved(map[string]string{KeyMode: "staging"}), "application.conf")
		if !issue.IsStructured(err) {
			t.Fatalf("expected structured failure, got %v", err)
		}
		if !strings.Contains(err.Error(), "application.mode") {
			t.Errorf("error should name the key: %v", err)
		}
	})

	t.Run("rejects unknown log level", func(t *testing.T) {
		t.Parallel()

		if err := Validate(NewResolved(map[string]string{KeyLog: "LOUD"}), "application.conf"); err == nil {
			t.Error("expected error")
		}
	})
}

func TestResolved_Immutable(t *testing.T) {
	t.Parallel()

	src := map[string]string{"a": "1", "module.x": "../x", "module.y": "/y"}
	r := NewResolved(src)
	src["a"] = "changed"

	m := r.Map()
	m["a"] = "mutated"

	if got := r.GetOr("a", ""); got != "1" {
		t.Errorf("Resolved changed through a copy: a = %q", got)
	}
	mods := r.Prefixed(PrefixModule)
	if len(mods) != 2 || mods["x"] != "../x" {
		t.Errorf("Prefixed() = %v", mods)
	}
}

func TestSystemVars(t *testing.T) {
	t.Parallel()

	env := map[string]string{"HOME": "/home/u", "application.path": "/env"}
	vars := NewSystemVars(func(k string) (string, bool) { v, ok := env[k]; return v, ok })
	vars.Set("application.path", "/app")

	if v, _ := vars.Lookup("application.path"); v != "/app" {
		t.Errorf("published variable should shadow env, got %q", v)
	}
	if v, _ := vars.Lookup("HOME"); v != "/home/u" {
		t.Errorf("env fallback = %q", v)
	}
	if _, ok := vars.Lookup("MISSING"); ok {
		t.Error("MISSING should not resolve")
	}
}
