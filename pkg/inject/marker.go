// SPDX-License-Identifier: MPL-2.0

package inject

import (
	"errors"
	"strings"
)

// Default marker tokens.
const (
	DefaultStartMarker = "// inject:start"
	DefaultEndMarker   = "// inject:end"
	// DefaultSentinel is the sentinel used by render-mode templates.
	DefaultSentinel = "/// inject:import"
)

var (
	// ErrEmptyMarker is returned when the start marker is blank.
	ErrEmptyMarker = errors.New("start marker must not be empty")
	// ErrIdenticalMarkers is returned when start and end markers are equal.
	ErrIdenticalMarkers = errors.New("start and end markers must differ")
)

type (
	// Marker locates the region of a file that is regenerated.
	//
	// With End set, the content strictly between Start and End is replaced.
	// With End empty, Start is a sentinel and statements are inserted right
	// after the line that holds it.
	Marker struct {
		Start string
		End   string
	}

	// Layout controls how statements are laid out inside the marker span.
	Layout struct {
		// Separator is appended to every statement except the last.
		Separator string
		// Indent prefixes every statement line.
		Indent string
	}
)

// Delimited reports whether the marker has both a start and an end token.
func (m Marker) Delimited() bool { return m.End != "" }

// Validate checks that the marker tokens are usable.
func (m Marker) Validate() error {
	if strings.TrimSpace(m.Start) == "" {
		return ErrEmptyMarker
	}
	if m.End != "" && m.End == m.Start {
		return ErrIdenticalMarkers
	}
	return nil
}

// String renders the marker for log and error output.
func (m Marker) String() string {
	if !m.Delimited() {
		return m.Start
	}
	return m.Start + " … " + m.End
}

// Splice returns text with the marker span replaced by replacement. For a
// sentinel marker it delegates to InsertAfter. Both tokens must occur exactly
// once and End must follow Start; otherwise a *MarkerNotFoundError is
// returned and text is not modified.
func Splice(text string, m Marker, replacement string) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	if !m.Delimited() {
		return InsertAfter(text, m.Start, replacement)
	}

	start, err := locate(text, m.Start)
	if err != nil {
		return "", err
	}
	end, err := locate(text, m.End)
	if err != nil {
		return "", err
	}
	spanStart := start + len(m.Start)
	if end < spanStart {
		return "", &MarkerNotFoundError{Marker: m.End}
	}

	return text[:spanStart] + replacement + text[end:], nil
}

// InsertAfter returns text with replacement inserted at the end of the line
// holding sentinel, before that line's terminator.
func InsertAfter(text, sentinel, replacement string) (string, error) {
	idx, err := locate(text, sentinel)
	if err != nil {
		return "", err
	}
	at := idx + len(sentinel)
	if nl := strings.IndexByte(text[at:], '\n'); nl >= 0 {
		at += nl
		if at > 0 && text[at-1] == '\r' {
			at--
		}
	} else {
		at = len(text)
	}
	return text[:at] + replacement + text[at:], nil
}

// Block formats statements for insertion into text at m. Each statement goes
// on its own line using the line ending already used by text. For delimited
// markers the block ends with a line break plus the indentation that precedes
// the end marker, so the end marker keeps its column across runs.
func Block(text string, m Marker, stmts []string, l Layout) string {
	eol := DetectEOL(text)

	var sb strings.Builder
	for i, s := range stmts {
		sb.WriteString(eol)
		sb.WriteString(l.Indent)
		sb.WriteString(s)
		if i < len(stmts)-1 {
			sb.WriteString(l.Separator)
		}
	}
	if m.Delimited() {
		sb.WriteString(eol)
		sb.WriteString(leadingSpace(text, m.End))
	}
	return sb.String()
}

// DetectEOL returns "\r\n" when text uses Windows line endings and "\n"
// otherwise.
func DetectEOL(text string) string {
	if strings.Contains(text, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

// locate returns the index of the single occurrence of token in text.
func locate(text, token string) (int, error) {
	switch n := strings.Count(text, token); n {
	case 0:
		return -1, &MarkerNotFoundError{Marker: token}
	case 1:
		return strings.Index(text, token), nil
	default:
		return -1, &MarkerNotFoundError{Marker: token, Count: n}
	}
}

// leadingSpace returns the whitespace between the start of the line holding
// token and token itself, or "" when other text precedes token on that line.
func leadingSpace(text, token string) string {
	idx := strings.Index(text, token)
	if idx < 0 {
		return ""
	}
	lineStart := strings.LastIndexByte(text[:idx], '\n') + 1
	prefix := text[lineStart:idx]
	if strings.TrimLeft(prefix, " \t") != "" {
		return ""
	}
	return prefix
}

// withPath attaches path to a *MarkerNotFoundError, leaving other errors
// untouched.
func withPath(err error, path string) error {
	var mnf *MarkerNotFoundError
	if errors.As(err, &mnf) && mnf.Path == "" {
		mnf.Path = path
	}
	return err
}
