// SPDX-License-Identifier: MPL-2.0

// Package issue provides classified lifecycle failures and user-facing remediation text.
//
// Every error that crosses a lifecycle transition is tagged with a Kind
// (fatal, structured or unexpected) so callers can decide between terminating
// the process, rendering the failure, or self-healing with a full reload.
// The issue catalog pairs well-known failures with Markdown guidance rendered
// through glamour.
package issue
