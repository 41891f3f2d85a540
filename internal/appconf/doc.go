// SPDX-License-Identifier: MPL-2.0

// Package appconf resolves the application configuration.
//
// The raw source is a Java-properties style file (conf/application.conf).
// Resolution runs two passes over it:
//
//  1. Scoping: keys written as %<scope>.<key> apply only when <scope> equals
//     the process identity, and then override the unscoped <key>.
//  2. Interpolation: ${name} placeholders are replaced, in a single
//     non-recursive pass, with process variables (see Vars). Unknown names are
//     left in place and logged.
//
// The result is a Resolved value: a flat, read-only key/value view that is
// replaced wholesale on every start and never mutated in place.
package appconf
