// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the appvisor command line.
//
// Every command builds its Runtime through an App, which wires the settings
// provider, the code compiler, the route table, the template cache and the
// object cache around the lifecycle controller.
package cmd
