// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"appvisor": func() { os.Exit(Main()) },
	})
}

// TestCLI runs the testscript files in testdata against the appvisor command.
func TestCLI(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			env.Setenv("APPVISOR_HOME", filepath.Join(env.WorkDir, "fw"))
			env.Setenv("MODULES", "")
			return nil
		},
	})
}
