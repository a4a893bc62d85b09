// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specsync/specsync/internal/config"
	"github.com/specsync/specsync/internal/logging"
	"github.com/specsync/specsync/internal/watch"
	"github.com/specsync/specsync/pkg/inject"
)

func newWatchCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [target...]",
		Short: "Re-inject targets when matching files change",
		Long: `Run the selected targets once, then watch the base directory and re-run
every target whose patterns match a created, changed, renamed or deleted
file. Events are debounced (watch.debounce, default 300ms). Failures are
reported and watching continues. Stop with Ctrl+C.`,
		ValidArgsFunction: completeTargetNames(app, rootFlags),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.handleError(runWatch(cmd, app, rootFlags, args), rootFlags.verbose)
		},
	}
}

func runWatch(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, names []string) error {
	ctx, cfg, err := app.prepare(cmd.Context(), rootFlags, false)
	if err != nil {
		return err
	}
	targets, err := cfg.Select(names...)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: no targets to watch", config.ErrTargetNotFound)
	}
	debounce, err := cfg.Watch.DebounceDuration()
	if err != nil {
		return err
	}
	logger := logging.FromContext(ctx)

	rerun := func(ctx context.Context, selected []config.Target) {
		if runErr := app.runTargets(ctx, cfg.BaseDir, selected, false); runErr != nil {
			fmt.Fprintf(app.stderr, "%s %s\n", WarningStyle.Render("!"), formatErrorForDisplay(runErr, rootFlags.verbose))
		}
	}

	fmt.Fprintf(app.stdout, "%s Initial run of %d %s\n", PathStyle.Render("→"), len(targets), plural(len(targets), "target", "targets"))
	rerun(ctx, targets)

	var patterns []string
	for _, t := range targets {
		patterns = append(patterns, t.Patterns...)
	}

	w, err := watch.New(watch.Config{
		Patterns:    patterns,
		Ignore:      cfg.Watch.Ignore,
		Debounce:    debounce,
		ClearScreen: cfg.Watch.ClearScreen,
		BaseDir:     cfg.BaseDir,
		Stdout:      app.stdout,
		Logger:      logger,
		OnChange: func(ctx context.Context, changed []string) error {
			affected := affectedTargets(targets, changed)
			if len(affected) == 0 {
				return nil
			}
			fmt.Fprintf(app.stdout, "%s %d %s changed, re-running %s\n",
				PathStyle.Render("→"), len(changed), plural(len(changed), "file", "files"), targetNames(affected))
			rerun(ctx, affected)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	fmt.Fprintf(app.stdout, "\n%s Watching %s for changes (Ctrl+C to stop)...\n\n", PathStyle.Render("→"), cfg.BaseDir)
	return w.Run(ctx)
}

// affectedTargets returns the targets, in order, with a pattern matching a
// changed path. A target's own files are written by the injection itself
// and never trigger it.
func affectedTargets(targets []config.Target, changed []string) []config.Target {
	var out []config.Target
	for _, t := range targets {
		own := t.Request(false)
		for _, rel := range changed {
			if own.Owns(rel) {
				continue
			}
			if inject.MatchesAny(t.Patterns, rel) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func targetNames(targets []config.Target) string {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}
