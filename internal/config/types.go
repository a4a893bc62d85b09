// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/specsync/specsync/internal/hook"
	"github.com/specsync/specsync/internal/logging"
	"github.com/specsync/specsync/pkg/inject"
)

const (
	// ModeInPlace rewrites the target file between its markers.
	ModeInPlace Mode = "inplace"
	// ModeRender renders a template to a separate output file.
	ModeRender Mode = "render"

	// DefaultDebounce is the watch debounce used when none is configured.
	DefaultDebounce = "300ms"
)

var (
	// ErrInvalidMode is returned when a Mode value is not recognized.
	ErrInvalidMode = errors.New("invalid target mode")
	// ErrInvalidTarget is the sentinel error wrapped by InvalidTargetError.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrTargetNotFound is the sentinel error wrapped by TargetNotFoundError.
	ErrTargetNotFound = errors.New("target not found")
	// ErrInvalidDebounce is returned when watch.debounce is not a positive duration.
	ErrInvalidDebounce = errors.New("invalid watch debounce")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// Mode selects how a target is written.
	Mode string

	// InvalidModeError is returned when a Mode value is not recognized.
	// It wraps ErrInvalidMode for errors.Is() compatibility.
	InvalidModeError struct {
		Value Mode
	}

	// InvalidTargetError collects the field errors of one target.
	InvalidTargetError struct {
		Name        string
		FieldErrors []error
	}

	// TargetNotFoundError is returned when a target name is not configured.
	TargetNotFoundError struct {
		Name      string
		Available []string
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// LogConfig configures the CLI logger.
	LogConfig struct {
		Level  string         `json:"level" mapstructure:"level"`
		Format logging.Format `json:"format" mapstructure:"format"`
	}

	// WatchConfig configures `specsync watch`.
	WatchConfig struct {
		// Debounce is a Go duration string.
		Debounce    string   `json:"debounce" mapstructure:"debounce"`
		ClearScreen bool     `json:"clear_screen" mapstructure:"clear_screen"`
		Ignore      []string `json:"ignore" mapstructure:"ignore"`
	}

	// Target is one configured injection.
	Target struct {
		Name     string   `json:"name" mapstructure:"name"`
		Patterns []string `json:"patterns" mapstructure:"patterns"`
		Mode     Mode     `json:"mode" mapstructure:"mode"`
		// File is the rewritten file in place, or the template in render mode.
		File       string   `json:"file" mapstructure:"file"`
		Output     string   `json:"output,omitempty" mapstructure:"output"`
		References []string `json:"references,omitempty" mapstructure:"references"`
		// StartMarker and EndMarker default per mode: the start/end pair in
		// place, the import sentinel when rendering.
		StartMarker string               `json:"start_marker,omitempty" mapstructure:"start_marker"`
		EndMarker   string               `json:"end_marker,omitempty" mapstructure:"end_marker"`
		Statement   string               `json:"statement,omitempty" mapstructure:"statement"`
		Separator   string               `json:"separator" mapstructure:"separator"`
		Indent      string               `json:"indent" mapstructure:"indent"`
		Empty       inject.EmptyPolicy   `json:"empty" mapstructure:"empty"`
		Extension   inject.ExtensionMode `json:"extension" mapstructure:"extension"`
		// Before is a shell script run before the target is injected.
		Before string `json:"before,omitempty" mapstructure:"before"`
	}

	// Config holds the application configuration.
	Config struct {
		// BaseDir is where patterns and target files resolve. A relative value
		// from a project config file is anchored at that file's directory.
		BaseDir string      `json:"base_dir" mapstructure:"base_dir"`
		Log     LogConfig   `json:"log" mapstructure:"log"`
		Watch   WatchConfig `json:"watch" mapstructure:"watch"`
		Targets []Target    `json:"targets" mapstructure:"targets"`

		// Source is the file the configuration was loaded from, empty for
		// built-in defaults.
		Source string `json:"-" mapstructure:"-"`
	}
)

// String returns the string representation of the Mode.
func (m Mode) String() string { return string(m) }

// IsValid returns whether the Mode is one of the defined modes. The zero
// value is valid and means ModeInPlace.
func (m Mode) IsValid() (bool, []error) {
	switch m {
	case "", ModeInPlace, ModeRender:
		return true, nil
	default:
		return false, []error{&InvalidModeError{Value: m}}
	}
}

// Error implements the error interface for InvalidModeError.
func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid target mode %q (valid: inplace, render)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidModeError) Unwrap() error { return ErrInvalidMode }

// Error implements the error interface for InvalidTargetError.
func (e *InvalidTargetError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, fe := range e.FieldErrors {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("invalid target %q: %s", e.Name, strings.Join(msgs, "; "))
}

// Unwrap returns the sentinel and the field errors.
func (e *InvalidTargetError) Unwrap() []error {
	return append([]error{ErrInvalidTarget}, e.FieldErrors...)
}

// Error implements the error interface for TargetNotFoundError.
func (e *TargetNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("target %q not found (no targets configured)", e.Name)
	}
	return fmt.Sprintf("target %q not found (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Unwrap returns ErrTargetNotFound for errors.Is() compatibility.
func (e *TargetNotFoundError) Unwrap() error { return ErrTargetNotFound }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, fe := range e.FieldErrors {
		msgs[i] = fe.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns the sentinel and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Marker returns the marker pair for the target, applying mode defaults.
func (t Target) Marker() inject.Marker {
	if t.StartMarker == "" {
		if t.Mode == ModeRender {
			return inject.Marker{Start: inject.DefaultSentinel, End: t.EndMarker}
		}
		return inject.Marker{Start: inject.DefaultStartMarker, End: inject.DefaultEndMarker}
	}
	if t.EndMarker == "" && t.Mode != ModeRender {
		return inject.Marker{Start: t.StartMarker, End: inject.DefaultEndMarker}
	}
	return inject.Marker{Start: t.StartMarker, End: t.EndMarker}
}

// Request converts the target into an injection request.
func (t Target) Request(check bool) inject.Request {
	req := inject.Request{
		Name:      t.Name,
		Patterns:  slices.Clone(t.Patterns),
		Target:    t.File,
		Marker:    t.Marker(),
		Statement: t.Statement,
		Layout:    inject.Layout{Separator: t.Separator, Indent: t.Indent},
		Empty:     t.Empty,
		Extension: t.Extension,
		Check:     check,
	}
	if t.Mode == ModeRender {
		req.Output = t.Output
		req.References = slices.Clone(t.References)
	}
	return req
}

// IsValid returns whether the target can be run.
func (t Target) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if valid, fieldErrs := t.Mode.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if t.Mode == ModeRender && t.Output == "" {
		errs = append(errs, errors.New("render mode requires output"))
	}
	if t.Mode != ModeRender && t.Output != "" {
		errs = append(errs, errors.New("output is only used in render mode"))
	}
	if err := t.Request(false).Validate(); err != nil {
		errs = append(errs, err)
	}
	if t.Before != "" {
		if err := hook.Validate(t.Before); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidTargetError{Name: t.Name, FieldErrors: errs}}
	}
	return true, nil
}

// DebounceDuration parses Debounce, falling back to DefaultDebounce.
func (w WatchConfig) DebounceDuration() (time.Duration, error) {
	s := w.Debounce
	if s == "" {
		s = DefaultDebounce
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDebounce, w.Debounce)
	}
	return d, nil
}

// IsValid returns whether the LogConfig has valid fields.
func (c LogConfig) IsValid() (bool, []error) {
	var errs []error
	if _, err := logging.ParseLevel(c.Level); err != nil {
		errs = append(errs, err)
	}
	if valid, fieldErrs := c.Format.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	return len(errs) == 0, errs
}

// IsValid returns whether the Config has valid fields. Target names must be
// unique.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Log.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if _, err := c.Watch.DebounceDuration(); err != nil {
		errs = append(errs, err)
	}
	seen := make(map[string]int, len(c.Targets))
	for i, t := range c.Targets {
		if first, dup := seen[t.Name]; dup {
			errs = append(errs, fmt.Errorf("targets[%d]: duplicate name %q (same as targets[%d])", i, t.Name, first))
		}
		seen[t.Name] = i
		if valid, fieldErrs := t.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// TargetNames returns the configured target names in order.
func (c Config) TargetNames() []string {
	names := make([]string, len(c.Targets))
	for i, t := range c.Targets {
		names[i] = t.Name
	}
	return names
}

// Select returns the named targets in the order given, or every target in
// config order when names is empty.
func (c Config) Select(names ...string) ([]Target, error) {
	if len(names) == 0 {
		return slices.Clone(c.Targets), nil
	}
	out := make([]Target, 0, len(names))
	for _, name := range names {
		idx := slices.IndexFunc(c.Targets, func(t Target) bool { return t.Name == name })
		if idx < 0 {
			return nil, &TargetNotFoundError{Name: name, Available: c.TargetNames()}
		}
		out = append(out, c.Targets[idx])
	}
	return out, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseDir: ".",
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
		Watch: WatchConfig{
			Debounce:    DefaultDebounce,
			ClearScreen: false,
			Ignore:      []string{},
		},
		Targets: []Target{},
	}
}

// StarterConfig returns the configuration written by `specsync config init`:
// the defaults plus one in-place target for a Jasmine-style spec runner.
func StarterConfig() *Config {
	cfg := DefaultConfig()
	cfg.Targets = []Target{{
		Name:      "specs",
		Patterns:  []string{"./specs/**/*.spec.js"},
		Mode:      ModeInPlace,
		File:      "test/runner.js",
		Separator: ",",
		Indent:    "    ",
		Empty:     inject.EmptyAllow,
		Extension: inject.ExtensionAll,
	}}
	return cfg
}
