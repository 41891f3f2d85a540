// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// KindUnexpected marks any failure that was not classified where it happened.
	// It is the zero value so an unclassified Failure is never mistaken for a structured one.
	KindUnexpected Kind = iota
	// KindStructured marks a recognized failure (configuration, compilation,
	// extension) that must reach the caller unchanged.
	KindStructured
	// KindFatal marks a failure after which the process cannot continue.
	KindFatal
)

type (
	// Kind classifies a lifecycle failure.
	Kind int

	// Failure is a classified error with context for user-facing messages.
	// It records what operation failed, which resource was involved and
	// how to fix it, while keeping the original cause for errors.Is/As.
	//
	// Use the Builder for convenient construction:
	//
	//	err := issue.NewBuilder(issue.KindStructured).
	//		WithOperation("compile sources").
	//		WithResource("app/main.hcl").
	//		WithSuggestion("Fix the syntax error and reload").
	//		Wrap(diags).
	//		Err()
	Failure struct {
		// Kind is the classification used by the lifecycle controller.
		Kind Kind

		// Issue optionally links the failure to a catalog entry.
		Issue Id

		// Operation describes what was being attempted (e.g., "read configuration").
		Operation string

		// Resource identifies the file, path, or entity involved (optional).
		Resource string

		// Suggestions provides hints on how to fix the issue (optional).
		Suggestions []string

		// Cause is the underlying error that triggered this failure (optional).
		Cause error
	}

	// Builder constructs Failure instances incrementally.
	Builder struct {
		kind        Kind
		issue       Id
		operation   string
		resource    string
		suggestions []string
		cause       error
	}
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindUnexpected:
		return "unexpected"
	case KindStructured:
		return "structured"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// --- Constructors ---

// NewBuilder creates a Builder for a failure of the given kind.
func NewBuilder(kind Kind) *Builder {
	return &Builder{kind: kind}
}

// Fatal wraps err as a fatal failure of operation.
func Fatal(err error, operation string) *Failure {
	return &Failure{Kind: KindFatal, Operation: operation, Cause: err}
}

// Structured wraps err as a structured failure of operation.
func Structured(err error, operation string) *Failure {
	return &Failure{Kind: KindStructured, Operation: operation, Cause: err}
}

// Unexpected wraps err as an unexpected failure of operation, preserving err
// as the cause for diagnostics.
func Unexpected(err error, operation string) *Failure {
	return &Failure{Kind: KindUnexpected, Operation: operation, Cause: err}
}

// Classify returns err unchanged when it already is a Failure of any kind;
// any other error is wrapped into an unexpected failure of operation.
// A nil err yields nil.
func Classify(err error, operation string) error {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return err
	}
	return Unexpected(err, operation)
}

// KindOf reports the classification of err. Errors that are not Failures are
// unexpected by definition.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnexpected
}

// IsStructured reports whether err carries a structured classification.
func IsStructured(err error) bool {
	return err != nil && KindOf(err) == KindStructured
}

// IsFatal reports whether err carries a fatal classification.
func IsFatal(err error) bool {
	return err != nil && KindOf(err) == KindFatal
}

// --- Failure Methods ---

// Error implements the error interface.
// Returns a concise message suitable for default (non-verbose) output.
func (e *Failure) Error() string {
	var msg strings.Builder

	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)

	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}

	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}

	return msg.String()
}

// Unwrap returns the underlying cause for use with errors.Is/As.
func (e *Failure) Unwrap() error {
	return e.Cause
}

// Format returns a formatted message with optional verbosity.
//
// When verbose is false:
//
//	failed to <operation>: <resource>: <cause message>
//	  • <suggestion 1>
//
// When verbose is true, the kind and the full cause chain are appended.
func (e *Failure) Format(verbose bool) string {
	var msg strings.Builder

	msg.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n")
		for _, suggestion := range e.Suggestions {
			msg.WriteString("\n  • ")
			msg.WriteString(suggestion)
		}
	}

	if verbose {
		fmt.Fprintf(&msg, "\n\nKind: %s", e.Kind)
		if e.Cause != nil {
			msg.WriteString("\nError chain:")
			err := e.Cause
			depth := 1
			for err != nil {
				fmt.Fprintf(&msg, "\n  %d. %s", depth, err.Error())
				err = errors.Unwrap(err)
				depth++
			}
		}
	}

	return msg.String()
}

// --- Builder Methods ---

// WithIssue links the failure to a catalog entry.
func (b *Builder) WithIssue(id Id) *Builder {
	b.issue = id
	return b
}

// WithOperation sets the operation being performed.
// The operation should be a verb phrase like "read configuration".
func (b *Builder) WithOperation(op string) *Builder {
	b.operation = op
	return b
}

// WithResource sets the resource (file, path, entity) involved.
func (b *Builder) WithResource(res string) *Builder {
	b.resource = res
	return b
}

// WithSuggestion adds a suggestion for how to fix the issue.
func (b *Builder) WithSuggestion(sug string) *Builder {
	b.suggestions = append(b.suggestions, sug)
	return b
}

// Wrap sets the underlying cause.
func (b *Builder) Wrap(err error) *Builder {
	b.cause = err
	return b
}

// Build creates the Failure. Returns nil if no operation is set.
func (b *Builder) Build() *Failure {
	if b.operation == "" {
		return nil
	}
	return &Failure{
		Kind:        b.kind,
		Issue:       b.issue,
		Operation:   b.operation,
		Resource:    b.resource,
		Suggestions: b.suggestions,
		Cause:       b.cause,
	}
}

// Err is Build returned through the error interface, avoiding typed-nil
// errors when no operation is set.
func (b *Builder) Err() error {
	f := b.Build()
	if f == nil {
		return nil
	}
	return f
}
