// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/specsync/specsync/internal/config"
)

// newConfigCommand creates the `specsync config` command tree.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage specsync configuration",
		Long: `Manage specsync configuration.

The first file found is used:
  1. the file given with --config
  2. ./specsync.cue
  3. the user config: ~/.config/specsync/config.cue on Linux,
     ~/Library/Application Support/specsync/config.cue on macOS,
     %APPDATA%\specsync\config.cue on Windows

SPECSYNC_* environment variables override scalar settings,
e.g. SPECSYNC_LOG_LEVEL=debug or SPECSYNC_BASE_DIR=web.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.handleError(showConfig(cmd, app, rootFlags), rootFlags.verbose)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter specsync.cue",
		Long: `Write a starter configuration with one in-place target to ./specsync.cue,
or to the --config path when given. An existing file is kept unless --force
is set.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.handleError(initConfig(app, rootFlags, force), rootFlags.verbose)
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show where configuration is looked up",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.handleError(showConfigPath(app), rootFlags.verbose)
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App, rootFlags *rootFlagValues) error {
	_, cfg, err := app.prepare(cmd.Context(), rootFlags, false)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "// source: %s\n", sourceLabel(cfg))
	fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
	return nil
}

func initConfig(app *App, rootFlags *rootFlagValues, force bool) error {
	path := rootFlags.configPath
	if path == "" {
		path = config.ProjectConfigFile
	}
	if err := config.WriteFile(path, config.StarterConfig(), force); err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "%s Created %s\n", SuccessStyle.Render("✓"), PathStyle.Render(path))
	return nil
}

func showConfigPath(app *App) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "Project config: %s\n", config.ProjectConfigFile)
	fmt.Fprintf(app.stdout, "User config: %s\n", filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
	return nil
}
