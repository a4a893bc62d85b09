// SPDX-License-Identifier: MPL-2.0

// Package logging builds the charmbracelet/log loggers used across specsync and
// carries them through context.Context.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Supported output formats.
const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatLogfmt Format = "logfmt"
)

var (
	// ErrInvalidFormat is returned for an unknown log format.
	ErrInvalidFormat = errors.New("invalid log format")
	// ErrInvalidLevel is returned for an unknown log level.
	ErrInvalidLevel = errors.New("invalid log level")
)

type (
	// Format selects the log line encoding.
	Format string

	// Options configures New. Zero values select info level and text output.
	Options struct {
		Level  string
		Format Format
		Prefix string
		// Timestamps adds a time field to every line.
		Timestamps bool
	}

	ctxKey struct{}
)

// IsValid returns whether f is a known format. The empty string is valid and
// means text.
func (f Format) IsValid() (bool, []error) {
	switch f {
	case "", FormatText, FormatJSON, FormatLogfmt:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q (expected text, json or logfmt)", ErrInvalidFormat, string(f))}
	}
}

func (f Format) formatter() log.Formatter {
	switch f {
	case FormatJSON:
		return log.JSONFormatter
	case FormatLogfmt:
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// ParseLevel converts a level name (debug, info, warn, error) to a log.Level.
// An empty name is info.
func ParseLevel(name string) (log.Level, error) {
	if strings.TrimSpace(name) == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("%w: %q", ErrInvalidLevel, name)
	}
	return lvl, nil
}

// New builds a logger writing to w.
func New(w io.Writer, opts Options) (*log.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if ok, errs := opts.Format.IsValid(); !ok {
		return nil, errors.Join(errs...)
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          opts.Prefix,
		Formatter:       opts.Format.formatter(),
		ReportTimestamp: opts.Timestamps,
	}), nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *log.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored by WithLogger, or a discard logger.
func FromContext(ctx context.Context) *log.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*log.Logger); ok && logger != nil {
		return logger
	}
	return Discard()
}
