// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/specsync/specsync/internal/config"
	"github.com/specsync/specsync/internal/hook"
	"github.com/specsync/specsync/internal/logging"
	"github.com/specsync/specsync/pkg/inject"
)

type (
	// App wires CLI services and shared dependencies. Every Cobra handler
	// receives an App and goes through its services.
	App struct {
		Config   ConfigProvider
		Injector InjectService
		stdout   io.Writer
		stderr   io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config   ConfigProvider
		Injector InjectService
		Stdout   io.Writer
		Stderr   io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// InjectService performs injections and runs before hooks. baseDir is
	// the directory patterns and relative paths resolve against.
	InjectService interface {
		Inject(ctx context.Context, baseDir string, req inject.Request) (*inject.Result, error)
		Scan(ctx context.Context, baseDir string, req inject.Request) ([]inject.Match, error)
		RunHook(ctx context.Context, baseDir, target, script string) error
	}

	// injectService is the production InjectService.
	injectService struct {
		stdout io.Writer
		stderr io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Injector == nil {
		deps.Injector = &injectService{stdout: deps.Stdout, stderr: deps.Stderr}
	}

	return &App{
		Config:   deps.Config,
		Injector: deps.Injector,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
	}, nil
}

// Inject runs one request with a fresh Injector rooted at baseDir.
func (s *injectService) Inject(ctx context.Context, baseDir string, req inject.Request) (*inject.Result, error) {
	in := inject.New(baseDir, inject.WithLogger(logging.FromContext(ctx)))
	return in.Inject(ctx, req)
}

// Scan expands the request's patterns without touching any file.
func (s *injectService) Scan(ctx context.Context, baseDir string, req inject.Request) ([]inject.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	in := inject.New(baseDir, inject.WithLogger(logging.FromContext(ctx)))
	return in.Scan(req)
}

// RunHook executes script in baseDir with the CLI's output streams.
func (s *injectService) RunHook(ctx context.Context, baseDir, target, script string) error {
	r := hook.New(baseDir,
		hook.WithStdIO(s.stdout, s.stderr),
		hook.WithLogger(logging.FromContext(ctx)),
	)
	return r.Run(ctx, target, script)
}

// loadConfig loads configuration for a handler and applies root flag
// overrides. With lenient set, a failure to load an implicit config file is
// logged and defaults are used instead; an explicit --config must load.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues, lenient bool) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		if !lenient || flags.configPath != "" {
			return nil, err
		}
		fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, flags.verbose))
		cfg = config.DefaultConfig()
	}
	if flags.baseDir != "" {
		cfg.BaseDir = flags.baseDir
	}
	return cfg, nil
}

// newLogger builds the CLI logger: --verbose forces debug, otherwise the
// configured level applies.
func (a *App) newLogger(cfg *config.Config, flags *rootFlagValues) (*log.Logger, error) {
	opts := logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Prefix: config.AppName,
	}
	if flags.verbose {
		opts.Level = "debug"
	}
	return logging.New(a.stderr, opts)
}

// prepare loads configuration and attaches the configured logger to ctx.
func (a *App) prepare(ctx context.Context, flags *rootFlagValues, lenient bool) (context.Context, *config.Config, error) {
	cfg, err := a.loadConfig(ctx, flags, lenient)
	if err != nil {
		return ctx, nil, err
	}
	logger, err := a.newLogger(cfg, flags)
	if err != nil {
		return ctx, nil, err
	}
	logger.Debug("configuration loaded", "source", sourceLabel(cfg), "base_dir", cfg.BaseDir, "targets", len(cfg.Targets))
	return logging.WithLogger(ctx, logger), cfg, nil
}

func sourceLabel(cfg *config.Config) string {
	if cfg.Source == "" {
		return "(defaults)"
	}
	return cfg.Source
}
