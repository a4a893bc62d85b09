// SPDX-License-Identifier: MPL-2.0

package hook

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specsync/specsync/internal/testutil"
	"github.com/specsync/specsync/pkg/types"
)

func TestRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var stdout bytes.Buffer
	r := New(dir, WithStdIO(&stdout, &stdout), WithEnv("GREETING=hello"))

	script := "echo \"$GREETING $SPECSYNC_TARGET\"\necho built > out.txt"
	if err := r.Run(context.Background(), "runner", script); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := stdout.String(); got != "hello runner\n" {
		t.Errorf("stdout = %q", got)
	}
	if got := testutil.MustReadFile(t, filepath.Join(dir, "out.txt")); got != "built\n" {
		t.Errorf("out.txt = %q", got)
	}
}

func TestRun_Empty(t *testing.T) {
	t.Parallel()

	if err := New(t.TempDir()).Run(context.Background(), "runner", "  \n"); err != nil {
		t.Errorf("Run(empty) error: %v", err)
	}
}

func TestRun_ExitStatus(t *testing.T) {
	t.Parallel()

	err := New(t.TempDir()).Run(context.Background(), "runner", "exit 3")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if exitErr.Code != types.ExitCode(3) || exitErr.Target != "runner" {
		t.Errorf("unexpected error detail: %+v", exitErr)
	}
	if !errors.Is(err, ErrHookFailed) {
		t.Error("ExitError should wrap ErrHookFailed")
	}
	if !strings.Contains(err.Error(), "exit 3") {
		t.Errorf("message should include the script: %s", err)
	}
}

func TestRun_SyntaxError(t *testing.T) {
	t.Parallel()

	err := New(t.TempDir()).Run(context.Background(), "runner", "if then fi (")
	if err == nil || !strings.Contains(err.Error(), "syntax error") {
		t.Errorf("Run() error = %v, want syntax error", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := Validate("tsc -p src && echo done"); err != nil {
		t.Errorf("Validate(valid) error: %v", err)
	}
	if err := Validate("echo 'unterminated"); err == nil {
		t.Error("Validate(unterminated quote) should fail")
	}
}

func TestFirstLine(t *testing.T) {
	t.Parallel()

	if got := firstLine("  tsc\nnpm test"); got != "tsc …" {
		t.Errorf("firstLine() = %q", got)
	}
	if got := firstLine("exit 1"); got != "exit 1" {
		t.Errorf("firstLine() = %q", got)
	}
}
