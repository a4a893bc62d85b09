// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specsync/specsync/internal/logging"
)

func newListCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	var ids bool

	cmd := &cobra.Command{
		Use:   "list [target...]",
		Short: "Show the modules each target would inject",
		Long: `Expand each target's patterns and print the module identifiers it would
inject, in injection order. Nothing is read besides the directory tree and
nothing is written.`,
		Example: `  specsync list
  specsync list specs --ids`,
		ValidArgsFunction: completeTargetNames(app, rootFlags),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.handleError(listTargets(cmd, app, rootFlags, args, ids), rootFlags.verbose)
		},
	}

	cmd.Flags().BoolVar(&ids, "ids", false, "print bare identifiers, one per line, without target headers")

	return cmd
}

func listTargets(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, names []string, ids bool) error {
	ctx, cfg, err := app.prepare(cmd.Context(), rootFlags, false)
	if err != nil {
		return err
	}
	targets, err := cfg.Select(names...)
	if err != nil {
		return err
	}

	for _, t := range targets {
		matches, err := app.Injector.Scan(ctx, cfg.BaseDir, t.Request(true))
		if err != nil {
			return targetError(t, "scan target", err)
		}
		logging.FromContext(ctx).Debug("listed target", "target", t.Name, "matches", len(matches))

		if ids {
			for _, m := range matches {
				fmt.Fprintln(app.stdout, m.ID)
			}
			continue
		}

		fmt.Fprintf(app.stdout, "%s %s\n", targetStyle.Render(t.Name+":"),
			SubtitleStyle.Render(fmt.Sprintf("%d %s -> %s", len(matches), plural(len(matches), "module", "modules"), t.File)))
		for _, m := range matches {
			fmt.Fprintf(app.stdout, "  %s %s\n", PathStyle.Render(m.ID), VerboseStyle.Render("("+m.Pattern+")"))
		}
	}
	return nil
}
