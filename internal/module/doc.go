// SPDX-License-Identifier: MPL-2.0

// Package module discovers extension modules and maintains the search roots.
//
// A module is a directory laid out like an application: it may contribute
// code units (app/), templates (app/views/) and a route file (conf/routes).
// Modules come from the MODULES environment variable (host list separator)
// and from module.<name> configuration keys, in that order. Later roots are
// appended, so front-to-back lookups prefer the application and then the
// modules in discovery order.
package module
