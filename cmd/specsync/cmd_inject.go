// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specsync/specsync/internal/config"
	"github.com/specsync/specsync/pkg/inject"
)

// injectFlagValues holds the flags of `specsync inject`.
type injectFlagValues struct {
	patterns   []string
	target     string
	start      string
	end        string
	statement  string
	separator  string
	indent     string
	empty      string
	extension  string
	output     string
	references []string
	check      bool
}

func newInjectCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &injectFlagValues{}

	cmd := &cobra.Command{
		Use:   "inject",
		Short: "Inject matched modules into a single file",
		Long: `Inject one load statement per file matched by --pattern into --target.

Patterns are scanned in order; the matches of each pattern are sorted and a
file matched by an earlier pattern is not repeated. The content between
--start and --end is replaced, so entries for deleted files disappear.

With --output the target is a template: statements are inserted after the
--start sentinel and the result is written to --output, whose name may
contain {hash}.`,
		Example: `  specsync inject --pattern './specs/**/*.spec.js' --target test/runner.js
  specsync inject -p 'specs/*.js' -t index.html --statement '<script src="{{.Path}}"></script>' --separator ''
  specsync inject -p 'specs/**/*.spec.js' -t test/imports.js --output 'dist/imports.{hash}.js' --reference SpecRunner.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.handleError(runInject(cmd, app, rootFlags, flags), rootFlags.verbose)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&flags.patterns, "pattern", "p", nil, "glob pattern relative to the base dir (repeatable, scanned in order)")
	f.StringVarP(&flags.target, "target", "t", "", "file to rewrite, or the template with --output")
	f.StringVar(&flags.start, "start", "", "start marker (default \"// inject:start\", or \"/// inject:import\" with --output)")
	f.StringVar(&flags.end, "end", "", "end marker (default \"// inject:end\" in place; none with --output)")
	f.StringVar(&flags.statement, "statement", "", "statement template with .ID .Path .Dir .Base .Index (default \""+inject.DefaultStatement+"\")")
	f.StringVar(&flags.separator, "separator", ",", "text appended to every statement but the last")
	f.StringVar(&flags.indent, "indent", "    ", "indentation before each statement")
	f.StringVar(&flags.empty, "empty", string(inject.EmptyAllow), "what to do when nothing matches: allow or fail")
	f.StringVar(&flags.extension, "extension", string(inject.ExtensionAll), "extension stripping for identifiers: all or last")
	f.StringVarP(&flags.output, "output", "o", "", "render to this file instead of rewriting the target; may contain {hash}")
	f.StringArrayVar(&flags.references, "reference", nil, "file whose mentions of the output name are updated (repeatable, needs --output)")
	f.BoolVar(&flags.check, "check", false, "report whether the target is up to date without writing")

	_ = cmd.MarkFlagRequired("pattern")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runInject(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *injectFlagValues) error {
	ctx, cfg, err := app.prepare(cmd.Context(), rootFlags, true)
	if err != nil {
		return err
	}

	if len(flags.references) > 0 && flags.output == "" {
		return fmt.Errorf("%w: --reference requires --output", inject.ErrInvalidRequest)
	}
	t := flags.toTarget()
	if valid, errs := t.IsValid(); !valid {
		return errs[0]
	}
	return app.runTargets(ctx, cfg.BaseDir, []config.Target{t}, flags.check)
}

// toTarget describes the flags as a config target so ad-hoc injections get
// the same marker defaults and validation as configured ones.
func (f *injectFlagValues) toTarget() config.Target {
	mode := config.ModeInPlace
	if f.output != "" {
		mode = config.ModeRender
	}
	return config.Target{
		Name:        f.target,
		Patterns:    f.patterns,
		Mode:        mode,
		File:        f.target,
		Output:      f.output,
		References:  f.references,
		StartMarker: f.start,
		EndMarker:   f.end,
		Statement:   f.statement,
		Separator:   f.separator,
		Indent:      f.indent,
		Empty:       inject.EmptyPolicy(f.empty),
		Extension:   inject.ExtensionMode(f.extension),
	}
}
