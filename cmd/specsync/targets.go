// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/specsync/specsync/internal/config"
	"github.com/specsync/specsync/internal/issue"
	"github.com/specsync/specsync/internal/logging"
	"github.com/specsync/specsync/pkg/inject"
)

// runTargets injects targets in order, running each before hook first.
// The first failure stops the run. In check mode hooks are skipped, nothing
// is written, and errTargetsStale is returned when any target would change.
func (a *App) runTargets(ctx context.Context, baseDir string, targets []config.Target, check bool) error {
	logger := logging.FromContext(ctx)
	var stale []string

	for _, t := range targets {
		if t.Before != "" {
			if check {
				logger.Debug("skipping before hook in check mode", "target", t.Name)
			} else if err := a.Injector.RunHook(ctx, baseDir, t.Name, t.Before); err != nil {
				return targetError(t, "run before hook", err)
			}
		}

		res, err := a.Injector.Inject(ctx, baseDir, t.Request(check))
		if err != nil {
			return targetError(t, "inject target", err)
		}
		reportResult(a.stdout, t.Name, res, check)
		if check && res.Changed {
			stale = append(stale, t.Name)
		}
	}

	if len(stale) > 0 {
		return fmt.Errorf("%w: %s", errTargetsStale, strings.Join(stale, ", "))
	}
	return nil
}

// reportResult prints one line per target plus any removed outputs and
// rewritten references.
func reportResult(w io.Writer, name string, res *inject.Result, check bool) {
	modules := fmt.Sprintf("(%d %s)", len(res.Matches), plural(len(res.Matches), "module", "modules"))
	label := targetStyle.Render(name + ":")
	file := PathStyle.Render(res.Written)

	switch {
	case check && res.Changed:
		fmt.Fprintf(w, "%s %s %s is out of date %s\n", WarningStyle.Render("!"), label, file, modules)
	case res.Changed:
		fmt.Fprintf(w, "%s %s %s updated %s\n", SuccessStyle.Render("✓"), label, file, modules)
	default:
		fmt.Fprintf(w, "%s %s %s unchanged %s\n", SubtitleStyle.Render("="), label, file, modules)
	}

	verb := "removed"
	if check {
		verb = "would remove"
	}
	for _, p := range res.Removed {
		fmt.Fprintf(w, "    %s %s\n", verb, PathStyle.Render(p))
	}
	verb = "updated"
	if check {
		verb = "would update"
	}
	for _, p := range res.References {
		fmt.Fprintf(w, "    %s %s\n", verb, PathStyle.Render(p))
	}
}

// targetError attaches the target, its file and class-specific hints.
func targetError(t config.Target, op string, err error) error {
	_, id := classifyError(err)
	ctx := issue.NewErrorContext().
		WithOperation(op + " " + t.Name).
		WithResource(t.File).
		WithIssue(id).
		Wrap(err)

	switch id {
	case issue.MarkerNotFoundId:
		m := t.Marker()
		if m.Delimited() {
			ctx.WithSuggestion(fmt.Sprintf("Add %q and %q to %s, start first, each exactly once", m.Start, m.End, t.File))
		} else {
			ctx.WithSuggestion(fmt.Sprintf("Add %q to %s exactly once", m.Start, t.File))
		}
	case issue.NoMatchId:
		ctx.WithSuggestions(
			"Check the patterns against base_dir: "+strings.Join(t.Patterns, ", "),
			"Set empty: \"allow\" to accept an empty block",
		)
	case issue.TargetIOId:
		ctx.WithSuggestion("Check that " + filepath.Dir(t.File) + " exists and is writable")
	case issue.HookFailedId:
		ctx.WithSuggestion("Run the before script by hand to see its output")
	}
	return ctx.BuildError()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
