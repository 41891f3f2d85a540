// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestFailure_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *Failure
		expected string
	}{
		{
			name:     "operation only",
			err:      &Failure{Operation: "start application"},
			expected: "failed to start application",
		},
		{
			name:     "operation with resource",
			err:      &Failure{Operation: "read configuration", Resource: "conf/application.conf"},
			expected: "failed to read configuration: conf/application.conf",
		},
		{
			name: "full context",
			err: &Failure{
				Operation: "read configuration",
				Resource:  "conf/application.conf",
				Cause:     errors.New("permission denied"),
			},
			expected: "failed to read configuration: conf/application.conf: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	t.Run("nil stays nil", func(t *testing.T) {
		t.Parallel()

		if err := Classify(nil, "start"); err != nil {
			t.Errorf("Classify(nil) = %v, want nil", err)
		}
	})

	t.Run("structured failure is returned verbatim", func(t *testing.T) {
		t.Parallel()

		orig := Structured(errors.New("syntax"), "compile sources")
		wrapped := fmt.Errorf("extension: %w", orig)

		got := Classify(wrapped, "start")
		if got != wrapped {
			t.Errorf("Classify() = %v, want the original error", got)
		}
		if KindOf(got) != KindStructured {
			t.Errorf("KindOf() = %s, want structured", KindOf(got))
		}
	})

	t.Run("plain error becomes unexpected and keeps its cause", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("boom")
		got := Classify(cause, "start application")

		if KindOf(got) != KindUnexpected {
			t.Errorf("KindOf() = %s, want unexpected", KindOf(got))
		}
		if !errors.Is(got, cause) {
			t.Error("errors.Is should find the original cause")
		}
		var f *Failure
		if !errors.As(got, &f) || f.Operation != "start application" {
			t.Errorf("expected *Failure with operation, got %#v", got)
		}
	})

	t.Run("unexpected failures are not stacked", func(t *testing.T) {
		t.Parallel()

		first := Unexpected(errors.New("boom"), "start")
		if got := Classify(first, "detect changes"); got != error(first) {
			t.Errorf("Classify() wrapped an existing failure: %v", got)
		}
	})
}

func TestKindPredicates(t *testing.T) {
	t.Parallel()

	if IsStructured(nil) || IsFatal(nil) {
		t.Error("nil must not be classified")
	}
	if !IsFatal(Fatal(errors.New("x"), "read configuration")) {
		t.Error("IsFatal should report fatal failures")
	}
	if IsStructured(errors.New("plain")) {
		t.Error("plain errors are unexpected, not structured")
	}
}

func TestBuilder(t *testing.T) {
	t.Parallel()

	t.Run("missing operation builds nil", func(t *testing.T) {
		t.Parallel()

		if err := NewBuilder(KindFatal).WithResource("x").Err(); err != nil {
			t.Errorf("Err() = %v, want nil", err)
		}
	})

	t.Run("all fields are carried", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("no such file")
		f := NewBuilder(KindFatal).
			WithIssue(ConfigUnreadableId).
			WithOperation("read configuration").
			WithResource("conf/application.conf").
			WithSuggestion("Check the path").
			Wrap(cause).
			Build()

		if f.Kind != KindFatal || f.Issue != ConfigUnreadableId {
			t.Errorf("unexpected kind/issue: %s/%d", f.Kind, f.Issue)
		}
		if len(f.Suggestions) != 1 {
			t.Errorf("expected 1 suggestion, got %d", len(f.Suggestions))
		}
		if !errors.Is(f, cause) {
			t.Error("cause should be reachable")
		}
	})
}

func TestFailure_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("root cause")
	f := &Failure{
		Kind:        KindStructured,
		Operation:   "compile sources",
		Suggestions: []string{"Fix line 3"},
		Cause:       fmt.Errorf("app/main.hcl: %w", inner),
	}

	short := f.Format(false)
	if !strings.Contains(short, "• Fix line 3") {
		t.Errorf("Format(false) missing suggestion: %q", short)
	}
	if strings.Contains(short, "Error chain") {
		t.Errorf("Format(false) should not include the chain: %q", short)
	}

	long := f.Format(true)
	for _, want := range []string{"Kind: structured", "Error chain:", "2. root cause"} {
		if !strings.Contains(long, want) {
			t.Errorf("Format(true) missing %q in %q", want, long)
		}
	}
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindUnexpected, "unexpected"},
		{KindStructured, "structured"},
		{KindFatal, "fatal"},
		{Kind(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.expected)
		}
	}
}
