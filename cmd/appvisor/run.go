// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/appvisor/appvisor/internal/appconf"
	"github.com/appvisor/appvisor/internal/watch"
)

func newRunCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var watchMode bool
	runCmd := &cobra.Command{
		Use:   "run [root]",
		Short: "Start the application and keep it running until interrupted",
		Long: `Start the application and keep it running until interrupted.

In DEV mode the application is started immediately instead of on the first
request. With --watch, every change under the application and module roots
triggers change detection, which reloads the application when needed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApplication(cmd, app, flags, rootArg(args), watchMode)
		},
	}
	runCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "reload when files change (DEV mode only)")
	return runCmd
}

func runApplication(cmd *cobra.Command, app *App, flags *rootFlagValues, root string, watchMode bool) error {
	ctx := cmd.Context()
	s, err := app.newServices(ctx, flags, root)
	if err != nil {
		return app.fail(cmd, nil, err, flags.verbose)
	}
	rt := s.runtime
	if err := rt.Init(ctx, root, s.identity(flags)); err != nil {
		return app.fail(cmd, s, err, flags.verbose)
	}
	defer rt.Stop(context.WithoutCancel(ctx))

	if !rt.Started() {
		if err := rt.DetectChanges(ctx); err != nil {
			renderError(app.stderr, err, flags.verbose)
		}
	}
	printSummary(app.stdout, s)

	if !watchMode {
		<-ctx.Done()
		return nil
	}
	if rt.Mode() == appconf.ModeProd {
		s.logger.Warn("--watch has no effect in PROD mode")
		<-ctx.Done()
		return nil
	}

	w, err := watch.New(watch.Config{
		Roots:    rt.Roots(),
		Patterns: s.settings.Watch.Patterns,
		Ignore:   s.settings.Watch.Ignore,
		Debounce: s.settings.Watch.Debounce,
		Logger:   s.logger.Logger,
		OnChange: func(ctx context.Context, changes []watch.Change) error {
			s.logger.Debug("files changed", "count", len(changes), "first", changes[0].Path)
			if err := rt.DetectChanges(ctx); err != nil {
				renderError(app.stderr, err, flags.verbose)
			}
			return nil
		},
	})
	if err != nil {
		return app.fail(cmd, s, err, flags.verbose)
	}
	fmt.Fprintf(app.stdout, "\n%s Watching %d root(s) for changes (Ctrl+C to stop)\n", KeyStyle.Render("→"), len(w.Roots()))
	return w.Run(ctx)
}

// printSummary writes the state of a freshly initialized runtime.
func printSummary(w io.Writer, s *services) {
	rt := s.runtime
	row := func(key, value string) {
		fmt.Fprintf(w, "%s %s\n", KeyStyle.Render(fmt.Sprintf("%-11s", key)), value)
	}

	fmt.Fprintln(w, TitleStyle.Render(rt.ApplicationName()))
	row("Mode", rt.Mode().String())
	row("State", rt.State().String())
	row("Framework", rt.Version())

	modules := rt.Modules()
	names := make([]string, 0, len(modules))
	for _, m := range modules {
		names = append(names, m.Name)
	}
	row("Modules", orNone(names))

	exts := rt.Extensions()
	extNames := make([]string, 0, len(exts))
	for _, d := range exts {
		extNames = append(extNames, d.Name)
	}
	row("Extensions", orNone(extNames))
	row("Routes", fmt.Sprint(len(s.routes.Routes())))
	row("Code units", fmt.Sprint(len(s.compiler.Units())))
}

func orNone(items []string) string {
	if len(items) == 0 {
		return SubtitleStyle.Render("(none)")
	}
	return strings.Join(items, ", ")
}
