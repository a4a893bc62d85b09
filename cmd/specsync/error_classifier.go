// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/specsync/specsync/internal/config"
	"github.com/specsync/specsync/internal/hook"
	"github.com/specsync/specsync/internal/issue"
	"github.com/specsync/specsync/internal/logging"
	"github.com/specsync/specsync/pkg/inject"
	"github.com/specsync/specsync/pkg/types"
)

// errTargetsStale is returned by --check when at least one target would
// change.
var errTargetsStale = errors.New("targets out of date")

// errUnknownIssue is returned by explain for a name outside the catalog.
var errUnknownIssue = errors.New("unknown issue")

// classifyError maps a handler failure to an exit code and an issue catalog
// page. Configuration problems are checked first: an invalid target inside a
// config file is a config error even when the cause is a bad pattern.
func classifyError(err error) (types.ExitCode, issue.Id) {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue == issue.ConfigLoadFailedId {
		return types.ExitUsage, issue.ConfigLoadFailedId
	}

	switch {
	case errors.Is(err, errTargetsStale):
		return types.ExitStale, issue.StaleTargetId
	case errors.Is(err, inject.ErrMarkerNotFound):
		return types.ExitMarkerNotFound, issue.MarkerNotFoundId
	case errors.Is(err, inject.ErrNoMatch):
		return types.ExitNoMatch, issue.NoMatchId
	case errors.Is(err, inject.ErrIO):
		return types.ExitIO, issue.TargetIOId
	case errors.Is(err, hook.ErrHookFailed):
		return types.ExitHookFailed, issue.HookFailedId
	case errors.Is(err, inject.ErrInvalidPattern):
		return types.ExitUsage, issue.InvalidPatternId
	case errors.Is(err, config.ErrTargetNotFound):
		return types.ExitUsage, issue.TargetNotFoundId
	case errors.Is(err, inject.ErrInvalidRequest),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, config.ErrInvalidTarget),
		errors.Is(err, config.ErrConfigExists),
		errors.Is(err, errUnknownIssue),
		errors.Is(err, logging.ErrInvalidLevel),
		errors.Is(err, logging.ErrInvalidFormat):
		return types.ExitUsage, 0
	}

	if ae != nil {
		return types.ExitGeneric, ae.Issue
	}
	return types.ExitGeneric, 0
}

// handleError turns a handler failure into an *ExitError. In verbose mode
// the full error chain and the matching help page go to stderr first.
func (a *App) handleError(err error, verbose bool) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	code, id := classifyError(err)
	var styled string
	if verbose {
		styled = fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, true))
	}
	svcErr := newServiceError(err, id, styled)
	if verbose {
		renderServiceError(a.stderr, svcErr)
	} else if entry := issue.Get(id); entry != nil {
		fmt.Fprintln(a.stderr, VerboseStyle.Render(fmt.Sprintf("Run with --verbose for details, or 'specsync explain %s' for help.", entry.Name())))
	}
	return &ExitError{Code: code, Err: svcErr}
}
