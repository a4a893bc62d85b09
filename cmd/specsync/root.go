// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/specsync/specsync/internal/issue"
	"github.com/specsync/specsync/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every subcommand.
type rootFlagValues struct {
	verbose    bool
	configPath string
	baseDir    string
}

// NewRootCommand builds the specsync command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "specsync",
		Short: "Keep spec runner imports in sync with glob patterns",
		Long: TitleStyle.Render("specsync") + SubtitleStyle.Render(" - keep spec runner imports in sync with glob patterns") + `

specsync expands ordered glob patterns, derives one module identifier per
matched file and rewrites the region of a target file that loads them.
Stale entries are dropped and unchanged files are never rewritten.

Targets are declared in 'specsync.cue' (see 'specsync config init') or
passed directly to 'specsync inject'.

` + SubtitleStyle.Render("Examples:") + `
  specsync inject --pattern './specs/**/*.spec.js' --target test/runner.js
  specsync run                Inject every configured target
  specsync run --check        Fail when a target is out of date
  specsync list specs         Show the modules target 'specs' would load
  specsync watch              Re-inject as spec files come and go`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging and detailed error help")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ./specsync.cue, then the user config.cue)")
	rootCmd.PersistentFlags().StringVar(&flags.baseDir, "base-dir", "", "directory patterns and files resolve against (overrides base_dir)")

	rootCmd.AddCommand(
		newInjectCommand(app, flags),
		newRunCommand(app, flags),
		newListCommand(app, flags),
		newWatchCommand(app, flags),
		newConfigCommand(app, flags),
		newExplainCommand(app, flags),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process with the resulting code.
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(types.ExitGeneric))
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(int(exitCodeOf(err)))
	}
}

// exitCodeOf returns the status for an error returned by the command tree.
// Handler failures are always *ExitError; anything else comes from Cobra's
// own flag and argument checks.
func exitCodeOf(err error) types.ExitCode {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return types.ExitUsage
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
