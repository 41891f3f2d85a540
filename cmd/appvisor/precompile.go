// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/appvisor/appvisor/internal/appconf"
)

func newPrecompileCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "precompile [root]",
		Short: "Compile every code unit and template ahead of time",
		Long: `Compile every code unit and template ahead of time and validate the
route files, without serving the application. Any error is reported and
the command exits non-zero.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			root := rootArg(args)
			s, err := app.newServices(ctx, flags, root)
			if err != nil {
				return app.fail(cmd, nil, err, flags.verbose)
			}
			rt := s.runtime
			if err := rt.Init(ctx, root, s.identity(flags)); err != nil {
				return app.fail(cmd, s, err, flags.verbose)
			}
			defer rt.Stop(ctx)

			// PROD Init has already compiled everything.
			if rt.Mode() != appconf.ModeProd {
				layout := rt.Layout()
				if err := s.compiler.MaterializeAll(ctx, layout); err != nil {
					return app.fail(cmd, s, err, flags.verbose)
				}
				if err := s.templates.MaterializeAll(ctx, layout); err != nil {
					return app.fail(cmd, s, err, flags.verbose)
				}
				if err := s.routes.ReparseIfNeeded(ctx, layout); err != nil {
					return app.fail(cmd, s, err, flags.verbose)
				}
			}

			fmt.Fprintf(app.stdout, "%s %d code unit(s), %d template(s), %d route(s)\n",
				SuccessStyle.Render("✓ Precompiled"),
				len(s.compiler.Units()), len(s.templates.Names()), len(s.routes.Routes()))
			return nil
		},
	}
}
