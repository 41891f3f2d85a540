// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

func newCheckCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "check [root]",
		Short: "Start the application once, report its state and stop it",
		Args:  cobra.MaximumNArgs(1),
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
			if !rt.Started() {
				if err := rt.Start(ctx); err != nil {
					return app.fail(cmd, s, err, flags.verbose)
				}
			}
			printSummary(app.stdout, s)
			rt.Stop(ctx)
			return nil
		},
	}
}
