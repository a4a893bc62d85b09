// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/specsync/specsync/internal/issue"
)

func TestNewServiceError_PanicsOnNilErr(t *testing.T) {
	t.Parallel()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on nil Err, got none")
		}
		if msg, ok := r.(string); !ok || msg != "ServiceError: Err must not be nil" {
			t.Fatalf("unexpected panic: %v", r)
		}
	}()

	newServiceError(nil, 0, "")
}

func TestServiceError_ErrorAndUnwrap(t *testing.T) {
	t.Parallel()

	underlying := errors.New("underlying error")
	svcErr := newServiceError(underlying, issue.NoMatchId, "")

	if svcErr.Error() != "underlying error" {
		t.Errorf("Error() = %q, want %q", svcErr.Error(), "underlying error")
	}
	if !errors.Is(svcErr, underlying) {
		t.Error("errors.Is should find underlying error via Unwrap")
	}
}

func TestRenderServiceError_StyledMessageOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	renderServiceError(&buf, newServiceError(errors.New("x"), 0, "styled output\n"))
	if buf.String() != "styled output\n" {
		t.Errorf("rendered = %q, want %q", buf.String(), "styled output\n")
	}

	buf.Reset()
	renderServiceError(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("nil ServiceError rendered %q", buf.String())
	}
}

func TestRenderServiceError_WithIssue(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	renderServiceError(&buf, newServiceError(errors.New("x"), issue.MarkerNotFoundId, ""))
	if !strings.Contains(strings.ToLower(buf.String()), "marker") {
		t.Errorf("expected the marker help page, got %q", buf.String())
	}
}
