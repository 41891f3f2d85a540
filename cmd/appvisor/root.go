// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every command.
type rootFlagValues struct {
	verbose    bool
	configPath string
	id         string
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}
	rootCmd := &cobra.Command{
		Use:   "appvisor",
		Short: "Run and supervise an application",
		Long: TitleStyle.Render("appvisor") + SubtitleStyle.Render(" - run and supervise an application") + `

appvisor reads conf/application.conf, loads modules and extensions, and
drives the application through its lifecycle. In DEV mode it reloads
whenever code, routes or configuration change; in PROD mode everything is
compiled ahead of time and a compilation error stops the process.

` + SubtitleStyle.Render("Examples:") + `
  appvisor run                 Start the application in the current directory
  appvisor run --watch ./blog  Start and reload on every change
  appvisor check --id test     Start once with the test framework id, then stop
  appvisor precompile          Compile code units and templates, report errors
  appvisor config --defaults   Print the default appvisor.cue`,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "settings file (default is <root>/appvisor.cue)")
	rootCmd.PersistentFlags().StringVar(&flags.id, "id", "", "framework id selecting %id. scoped configuration keys")

	rootCmd.AddCommand(newRunCommand(app, flags))
	rootCmd.AddCommand(newCheckCommand(app, flags))
	rootCmd.AddCommand(newPrecompileCommand(app, flags))
	rootCmd.AddCommand(newModulesCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Main runs the CLI and returns the process exit status.
func Main() int {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return 1
	}
	return 0
}

// Execute runs the CLI and exits the process. It is called by main.main.
func Execute() {
	os.Exit(Main())
}
