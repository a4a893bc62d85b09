// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/specsync/specsync/internal/config"
)

func newRunCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "run [target...]",
		Short: "Inject configured targets",
		Long: `Inject the targets declared in the configuration, in config order, or only
the named ones in the order given. A target's before hook runs first; the
first failure stops the run.

With --check nothing is written and hooks are skipped; the command exits with
status 7 when any target is out of date.`,
		Example: `  specsync run
  specsync run specs e2e
  specsync run --check`,
		ValidArgsFunction: completeTargetNames(app, rootFlags),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.handleError(runConfigured(cmd, app, rootFlags, args, check), rootFlags.verbose)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "report out-of-date targets without writing")

	return cmd
}

func runConfigured(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, names []string, check bool) error {
	ctx, cfg, err := app.prepare(cmd.Context(), rootFlags, false)
	if err != nil {
		return err
	}
	targets, err := cfg.Select(names...)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		fmt.Fprintln(app.stderr, WarningStyle.Render("No targets configured.")+" Run 'specsync config init' to create "+config.ProjectConfigFile+".")
		return nil
	}
	return app.runTargets(ctx, cfg.BaseDir, targets, check)
}

// completeTargetNames offers configured target names for shell completion.
func completeTargetNames(app *App, rootFlags *rootFlagValues) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		cfg, err := app.loadConfig(cmd.Context(), rootFlags, true)
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		var names []string
		for _, name := range cfg.TargetNames() {
			if !slices.Contains(args, name) {
				names = append(names, name)
			}
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}
