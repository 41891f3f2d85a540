// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newModulesCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "modules [root]",
		Short: "List the modules the application loads",
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
			defer rt.Stop(ctx)

			modules := rt.Modules()
			if len(modules) == 0 {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("No modules loaded."))
				return nil
			}
			fmt.Fprintln(app.stdout, TitleStyle.Render("Modules"))
			for _, m := range modules {
				name := m.Name
				if m.Version != "" {
					name += "@" + m.Version
				}
				fmt.Fprintf(app.stdout, "  %s %s\n", KeyStyle.Render(name), SubtitleStyle.Render(m.Root))
				if m.Description != "" {
					fmt.Fprintf(app.stdout, "    %s\n", m.Description)
				}
			}
			return nil
		},
	}
}
