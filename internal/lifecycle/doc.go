// SPDX-License-Identifier: MPL-2.0

// Package lifecycle owns the runtime state of one hosted application and
// drives it through init, start, stop and change detection.
//
// A Runtime is created once per process. Init resolves the configuration,
// discovers modules and extensions and, in PROD mode, precompiles and
// starts the application. In DEV mode the application starts on the first
// DetectChanges (typically the first request) and is fully reloaded
// whenever the configuration or the code changes.
//
// Start, Stop and DetectChanges are serialized by one lock. The resolved
// configuration, the extension list and the started flag are replaced
// wholesale under that lock, so lock-free readers always see a consistent
// value.
package lifecycle
