// SPDX-License-Identifier: MPL-2.0

// Package extension loads, orders and migrates runtime extensions.
//
// Extensions are compiled into the binary and registered by name in a
// Catalog. Which of them run, and in what order, is declared by manifest
// files (conf/appvisor.plugins) found on the current execution Context, one
// "<index>:<name>" entry per line. Lower indices run first; ties keep
// discovery order.
//
// Each factory declares a Scope. Host-scoped extensions live for the whole
// process. Application-scoped extensions belong to an execution context and
// are re-instantiated whenever the context is rebuilt (every DEV reload).
package extension
