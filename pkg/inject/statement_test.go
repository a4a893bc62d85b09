// SPDX-License-Identifier: MPL-2.0

package inject

import (
	"slices"
	"testing"
)

func TestStatement_Render(t *testing.T) {
	t.Parallel()

	matches := []Match{
		NewMatch("specs/a.spec.js", ExtensionAll),
		NewMatch("specs/b.spec.js", ExtensionAll),
	}

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "default SystemJS import",
			src:  "",
			want: []string{"System.import('specs/a')", "System.import('specs/b')"},
		},
		{
			name: "script tag from path",
			src:  `<script src="{{.Path}}"></script>`,
			want: []string{`<script src="specs/a.spec.js"></script>`, `<script src="specs/b.spec.js"></script>`},
		},
		{
			name: "index and base",
			src:  "import s{{.Index}} from './{{.Dir}}/{{.Base}}';",
			want: []string{"import s0 from './specs/a';", "import s1 from './specs/b';"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stmt, err := ParseStatement(tt.src)
			if err != nil {
				t.Fatalf("ParseStatement() error: %v", err)
			}
			got, err := stmt.Render(matches)
			if err != nil {
				t.Fatalf("Render() error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Render() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseStatement_Errors(t *testing.T) {
	t.Parallel()

	if _, err := ParseStatement("System.import('{{.ID')"); err == nil {
		t.Error("expected parse error for unterminated action")
	}

	stmt, err := ParseStatement("{{.Missing}}")
	if err != nil {
		t.Fatalf("ParseStatement() error: %v", err)
	}
	if _, err := stmt.Render([]Match{NewMatch("a.js", ExtensionAll)}); err == nil {
		t.Error("expected render error for unknown field")
	}
}

func TestStatement_String(t *testing.T) {
	t.Parallel()

	if got := mustParseStatement(t, "").String(); got != DefaultStatement {
		t.Errorf("String() = %q, want %q", got, DefaultStatement)
	}
}

func TestStatement_RenderEmpty(t *testing.T) {
	t.Parallel()

	got, err := mustParseStatement(t, "").Render(nil)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Render(nil) = %v, want empty", got)
	}
}

func mustParseStatement(t *testing.T, src string) *Statement {
	t.Helper()
	stmt, err := ParseStatement(src)
	if err != nil {
		t.Fatalf("ParseStatement(%q) error: %v", src, err)
	}
	return stmt
}
