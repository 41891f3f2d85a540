// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/appvisor/appvisor/internal/config"
)

func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		defaults bool
		asCUE    bool
	)
	cfgCmd := &cobra.Command{
		Use:   "config [root]",
		Short: "Show the runtime settings",
		Long: `Show the runtime settings.

Settings are read from <root>/appvisor.cue (or --config) and can be
overridden with APPVISOR_<KEY> environment variables, for example
APPVISOR_LOG_FORMAT=json.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.DefaultSettings()
			source := ""
			if !defaults {
				var err error
				settings, source, err = app.loadSettings(cmd.Context(), flags, rootArg(args))
				if err != nil {
					return app.fail(cmd, nil, err, flags.verbose)
				}
			}

			if asCUE || defaults {
				fmt.Fprint(app.stdout, config.GenerateCUE(settings))
				return nil
			}
			showSettings(app, settings, source)
			return nil
		},
	}
	cfgCmd.Flags().BoolVar(&defaults, "defaults", false, "print the default settings as CUE")
	cfgCmd.Flags().BoolVar(&asCUE, "cue", false, "print the effective settings as CUE")
	return cfgCmd
}

func showSettings(app *App, s config.Settings, source string) {
	w := app.stdout
	row := func(key, value string) {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render(key), SuccessStyle.Render(value))
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Settings"))
	fmt.Fprintln(w)
	if source == "" {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("Settings file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("Settings file"), source)
	}
	fmt.Fprintln(w)

	row("id", s.ID)
	row("framework_path", s.FrameworkPath)
	row("modules_env", s.ModulesEnv)
	row("log_format", s.LogFormat)
	row("log_timestamps", fmt.Sprint(s.LogTimestamps))
	row("cache_size", fmt.Sprint(s.CacheSize))
	row("watch.debounce", s.Watch.Debounce.String())
	row("watch.patterns", strings.Join(s.Watch.Patterns, ", "))
	row("watch.ignore", strings.Join(s.Watch.Ignore, ", "))
}
