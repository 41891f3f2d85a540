// SPDX-License-Identifier: MPL-2.0

// Package cueutil holds the CUE helpers shared by the settings loader and the
// configuration validator.
//
// Both follow the same flow:
//
//  1. Compile the embedded schema
//  2. Compile (or encode) the user data and unify it with a schema definition
//  3. Validate, then decode or inspect the unified value
//
// Errors are rewritten with the offending key path so messages point at the
// exact entry, e.g. `application.conf: application.mode: invalid value "qa"`.
package cueutil
