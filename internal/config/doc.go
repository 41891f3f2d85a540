// SPDX-License-Identifier: MPL-2.0

// Package config loads the settings of the appvisor runtime itself (as
// opposed to the hosted application's conf/application.conf).
//
// Settings come from defaults, an optional appvisor.cue file in the
// application root validated against an embedded CUE schema, and
// APPVISOR_* environment variables, in increasing precedence.
package config
