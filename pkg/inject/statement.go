// SPDX-License-Identifier: MPL-2.0

package inject

import (
	"fmt"
	"strings"
	"text/template"
)

// DefaultStatement loads a module through SystemJS.
const DefaultStatement = "System.import('{{.ID}}')"

type (
	// Statement renders one load statement per Match.
	Statement struct {
		src  string
		tmpl *template.Template
	}

	// statementData is the value a statement template executes against.
	statementData struct {
		ID    string
		Path  string
		Dir   string
		Base  string
		Index int
	}
)

// ParseStatement compiles a statement template. The template sees the fields
// .ID, .Path, .Dir, .Base and .Index (zero-based scan position). An empty
// source selects DefaultStatement.
func ParseStatement(src string) (*Statement, error) {
	if src == "" {
		src = DefaultStatement
	}
	tmpl, err := template.New("statement").Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse statement template %q: %w", src, err)
	}
	return &Statement{src: src, tmpl: tmpl}, nil
}

// String returns the template source.
func (s *Statement) String() string { return s.src }

// Render produces one statement per match, in order.
func (s *Statement) Render(matches []Match) ([]string, error) {
	out := make([]string, 0, len(matches))
	var sb strings.Builder
	for i, m := range matches {
		sb.Reset()
		data := statementData{ID: m.ID, Path: m.Path, Dir: m.Dir, Base: m.Base, Index: i}
		if err := s.tmpl.Execute(&sb, data); err != nil {
			return nil, fmt.Errorf("render statement for %s: %w", m.Path, err)
		}
		out = append(out, sb.String())
	}
	return out, nil
}
