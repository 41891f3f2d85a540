// SPDX-License-Identifier: MPL-2.0

// Package testutil holds the clock abstraction shared by the runtime and its
// tests. Production code takes a Clock and uses RealClock; tests inject a
// FakeClock to control startup timestamps and cache expiry.
package testutil
