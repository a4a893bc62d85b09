// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/specsync/specsync/internal/config"
	"github.com/specsync/specsync/internal/hook"
	"github.com/specsync/specsync/internal/issue"
	"github.com/specsync/specsync/pkg/inject"
	"github.com/specsync/specsync/pkg/types"
)

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode types.ExitCode
		wantID   issue.Id
	}{
		{
			name:     "marker not found",
			err:      &inject.MarkerNotFoundError{Marker: inject.DefaultStartMarker, Path: "test/runner.js"},
			wantCode: types.ExitMarkerNotFound,
			wantID:   issue.MarkerNotFoundId,
		},
		{
			name:     "no match",
			err:      &inject.NoMatchError{Patterns: []string{"specs/*.js"}},
			wantCode: types.ExitNoMatch,
			wantID:   issue.NoMatchId,
		},
		{
			name:     "io failure",
			err:      &inject.IOError{Op: "write", Path: "runner.js", Err: errors.New("disk full")},
			wantCode: types.ExitIO,
			wantID:   issue.TargetIOId,
		},
		{
			name:     "hook failure",
			err:      &hook.ExitError{Target: "specs", Script: "exit 2", Code: 2},
			wantCode: types.ExitHookFailed,
			wantID:   issue.HookFailedId,
		},
		{
			name:     "stale in check mode",
			err:      fmt.Errorf("%w: specs", errTargetsStale),
			wantCode: types.ExitStale,
			wantID:   issue.StaleTargetId,
		},
		{
			name:     "invalid pattern",
			err:      &inject.InvalidPatternError{Pattern: "../x", Reason: "escapes"},
			wantCode: types.ExitUsage,
			wantID:   issue.InvalidPatternId,
		},
		{
			name:     "unknown target",
			err:      &config.TargetNotFoundError{Name: "e2e"},
			wantCode: types.ExitUsage,
			wantID:   issue.TargetNotFoundId,
		},
		{
			name: "config error wins over wrapped pattern error",
			err: issue.NewErrorContext().
				WithOperation("validate configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(&inject.InvalidPatternError{Pattern: "/abs", Reason: "absolute"}).
				BuildError(),
			wantCode: types.ExitUsage,
			wantID:   issue.ConfigLoadFailedId,
		},
		{
			name: "actionable target error keeps the inner class",
			err: targetError(config.Target{Name: "specs", File: "runner.js"}, "inject target",
				&inject.MarkerNotFoundError{Marker: inject.DefaultEndMarker, Path: "runner.js"}),
			wantCode: types.ExitMarkerNotFound,
			wantID:   issue.MarkerNotFoundId,
		},
		{
			name:     "invalid request",
			err:      &inject.InvalidRequestError{FieldErrors: []error{errors.New("target file is required")}},
			wantCode: types.ExitUsage,
		},
		{
			name:     "unclassified",
			err:      errors.New("boom"),
			wantCode: types.ExitGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			code, id := classifyError(tt.err)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if id != tt.wantID {
				t.Errorf("issue = %d, want %d", id, tt.wantID)
			}
		})
	}
}

func TestHandleError(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	app, err := NewApp(Dependencies{Stdout: &bytes.Buffer{}, Stderr: &stderr})
	if err != nil {
		t.Fatalf("NewApp() error: %v", err)
	}

	if got := app.handleError(nil, false); got != nil {
		t.Errorf("handleError(nil) = %v, want nil", got)
	}

	got := app.handleError(&inject.NoMatchError{Patterns: []string{"specs/*.js"}}, false)
	var exitErr *ExitError
	if !errors.As(got, &exitErr) {
		t.Fatalf("expected *ExitError, got %T", got)
	}
	if exitErr.Code != types.ExitNoMatch {
		t.Errorf("Code = %d, want %d", exitErr.Code, types.ExitNoMatch)
	}
	if !errors.Is(got, inject.ErrNoMatch) {
		t.Error("ExitError should keep the cause in its chain")
	}
	if !strings.Contains(stderr.String(), "--verbose") || !strings.Contains(stderr.String(), "specsync explain no-match") {
		t.Errorf("expected verbose and explain hints, got %q", stderr.String())
	}

	// An existing ExitError passes through untouched.
	passthrough := &ExitError{Code: types.ExitStale}
	if app.handleError(passthrough, false) != passthrough {
		t.Error("ExitError should pass through")
	}
}

func TestTargetError_Suggestions(t *testing.T) {
	t.Parallel()

	target := config.Target{Name: "specs", File: "test/runner.js"}
	err := targetError(target, "inject target", &inject.MarkerNotFoundError{Marker: inject.DefaultStartMarker, Path: "test/runner.js"})

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *issue.ActionableError, got %T", err)
	}
	if ae.Resource != "test/runner.js" || ae.Issue != issue.MarkerNotFoundId {
		t.Errorf("unexpected context: %+v", ae)
	}
	if !ae.HasSuggestions() || !strings.Contains(ae.Suggestions[0], inject.DefaultEndMarker) {
		t.Errorf("expected marker suggestion, got %v", ae.Suggestions)
	}
}
