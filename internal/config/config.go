// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/specsync/specsync/internal/issue"
	"github.com/specsync/specsync/pkg/cueutil"
	"github.com/specsync/specsync/pkg/inject"
)

const (
	// AppName is the application name.
	AppName = "specsync"
	// ConfigFileName is the name of the user config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// ProjectConfigFile is the project config looked up in the working directory.
	ProjectConfigFile = AppName + "." + ConfigFileExt
	// EnvPrefix prefixes environment overrides, e.g. SPECSYNC_LOG_LEVEL.
	EnvPrefix = "SPECSYNC"
)

// ErrConfigExists is returned by WriteFile when the file exists and force is
// not set.
var ErrConfigExists = errors.New("config file already exists")

//go:embed config_schema.cue
var configSchema []byte

// configDirOverride lets tests bypass os.UserHomeDir, which does not honor
// HOME on every platform.
var configDirOverride string

// SetConfigDirOverride sets a custom user config directory. Tests only.
func SetConfigDirOverride(dir string) { configDirOverride = dir }

// Reset clears test overrides.
func Reset() { configDirOverride = "" }

// ConfigDir returns the specsync user configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions resolves the config file, merges it over the defaults,
// applies SPECSYNC_* overrides and validates the result.
//
// Lookup order: opts.ConfigFilePath, then specsync.cue in the working
// directory, then config.cue in the user config directory.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("base_dir", defaults.BaseDir)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", string(defaults.Log.Format))
	v.SetDefault("watch.debounce", defaults.Watch.Debounce)
	v.SetDefault("watch.clear_screen", defaults.Watch.ClearScreen)
	v.SetDefault("watch.ignore", defaults.Watch.Ignore)
	v.SetDefault("targets", []map[string]any{})

	path, project, err := resolveConfigPath(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'specsync config init' to see a working example").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Source = path

	// A relative base_dir in a project file is anchored at the file, so
	// `specsync --config sub/specsync.cue run` works from anywhere.
	if project && !filepath.IsAbs(cfg.BaseDir) && os.Getenv(EnvPrefix+"_BASE_DIR") == "" {
		cfg.BaseDir = filepath.Join(filepath.Dir(path), cfg.BaseDir)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Ensure every target has a unique name, at least one pattern and a file").
			WithSuggestion("Render targets need an output; in-place targets must not set one").
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, nil
}

// resolveConfigPath returns the config file to load, whether it is a
// project file (explicit or in the working directory), or "" for defaults.
func resolveConfigPath(opts LoadOptions) (path string, project bool, err error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", false, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'specsync config init' to create one").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, true, nil
	}

	local := filepath.Join(opts.WorkDir, ProjectConfigFile)
	if fileExists(local) {
		return local, true, nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		if cfgDir, err = ConfigDir(); err != nil {
			return "", false, err
		}
	}
	user := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(user) {
		return user, false, nil
	}
	return "", false, nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config
// schema and merges it into Viper. Concrete(false) because every field is
// optional; decoding to a map keeps Viper's defaults and env overrides in
// charge of anything the file leaves out.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	result, err := cueutil.ParseAndDecode[map[string]any](
		configSchema,
		data,
		"#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*result.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// WriteFile writes cfg as CUE to path. An existing file is only replaced
// when force is set.
func WriteFile(path string, cfg *Config, force bool) error {
	if !force && fileExists(path) {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return inject.WriteFileAtomic(path, []byte(GenerateCUE(cfg)))
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// specsync configuration\n")
	sb.WriteString("// Targets list the files whose import statements are kept in sync with glob patterns.\n\n")

	fmt.Fprintf(&sb, "base_dir: %q\n", cfg.BaseDir)

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel:  %q\n", cfg.Log.Level)
	fmt.Fprintf(&sb, "\tformat: %q\n", string(cfg.Log.Format))
	sb.WriteString("}\n")

	sb.WriteString("\nwatch: {\n")
	fmt.Fprintf(&sb, "\tdebounce:     %q\n", cfg.Watch.Debounce)
	fmt.Fprintf(&sb, "\tclear_screen: %v\n", cfg.Watch.ClearScreen)
	if len(cfg.Watch.Ignore) > 0 {
		fmt.Fprintf(&sb, "\tignore: %s\n", cueList(cfg.Watch.Ignore))
	}
	sb.WriteString("}\n")

	sb.WriteString("\ntargets: [")
	for _, t := range cfg.Targets {
		sb.WriteString("\n\t{\n")
		fmt.Fprintf(&sb, "\t\tname:     %q\n", t.Name)
		fmt.Fprintf(&sb, "\t\tpatterns: %s\n", cueList(t.Patterns))
		if t.Mode != "" {
			fmt.Fprintf(&sb, "\t\tmode:     %q\n", string(t.Mode))
		}
		fmt.Fprintf(&sb, "\t\tfile:     %q\n", t.File)
		writeOptional(&sb, "output", t.Output)
		if len(t.References) > 0 {
			fmt.Fprintf(&sb, "\t\treferences: %s\n", cueList(t.References))
		}
		writeOptional(&sb, "start_marker", t.StartMarker)
		writeOptional(&sb, "end_marker", t.EndMarker)
		writeOptional(&sb, "statement", t.Statement)
		fmt.Fprintf(&sb, "\t\tseparator: %q\n", t.Separator)
		fmt.Fprintf(&sb, "\t\tindent:    %q\n", t.Indent)
		if t.Empty != "" {
			fmt.Fprintf(&sb, "\t\tempty:     %q\n", string(t.Empty))
		}
		if t.Extension != "" {
			fmt.Fprintf(&sb, "\t\textension: %q\n", string(t.Extension))
		}
		writeOptional(&sb, "before", t.Before)
		sb.WriteString("\t},")
	}
	if len(cfg.Targets) > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString("]\n")

	return sb.String()
}

func writeOptional(sb *strings.Builder, key, value string) {
	if value != "" {
		fmt.Fprintf(sb, "\t\t%s: %q\n", key, value)
	}
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
