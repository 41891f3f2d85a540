// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/appvisor/appvisor/cmd/appvisor"

func main() {
	cmd.Execute()
}
