// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    log.Level
		wantErr bool
	}{
		{in: "", want: log.InfoLevel},
		{in: "debug", want: log.DebugLevel},
		{in: " WARN ", want: log.WarnLevel},
		{in: "error", want: log.ErrorLevel},
		{in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLevel) {
					t.Errorf("ParseLevel(%q) error = %v, want ErrInvalidLevel", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew_LevelFilters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "warn"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "target", "runner")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "target=runner") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, Options{Format: FormatJSON, Prefix: "specsync"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.Info("injected", "statements", 2)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %q: %v", buf.String(), err)
	}
	if line["msg"] != "injected" {
		t.Errorf("msg = %v", line["msg"])
	}
	if line["statements"] != float64(2) {
		t.Errorf("statements = %v", line["statements"])
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	t.Parallel()

	if _, err := New(&bytes.Buffer{}, Options{Format: "yaml"}); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("New(yaml) error = %v, want ErrInvalidFormat", err)
	}
	if _, err := New(&bytes.Buffer{}, Options{Level: "trace"}); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("New(trace) error = %v, want ErrInvalidLevel", err)
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext() without logger should return a discard logger")
	}

	var buf bytes.Buffer
	logger := log.New(&buf)
	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("logger from context did not write: %q", buf.String())
	}
}
