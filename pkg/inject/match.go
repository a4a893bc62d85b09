// SPDX-License-Identifier: MPL-2.0

package inject

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// ExtensionAll strips every extension from the base name, so
	// "a.spec.js" becomes "a".
	ExtensionAll ExtensionMode = "all"
	// ExtensionLast strips only the final extension, so "a.spec.js" becomes
	// "a.spec".
	ExtensionLast ExtensionMode = "last"

	// EmptyAllow writes an empty block when nothing matches.
	EmptyAllow EmptyPolicy = "allow"
	// EmptyFail fails with a NoMatchError when nothing matches.
	EmptyFail EmptyPolicy = "fail"
)

var (
	// ErrInvalidExtensionMode is returned when an ExtensionMode value is not recognized.
	ErrInvalidExtensionMode = errors.New("invalid extension mode")
	// ErrInvalidEmptyPolicy is returned when an EmptyPolicy value is not recognized.
	ErrInvalidEmptyPolicy = errors.New("invalid empty policy")
)

type (
	// ExtensionMode selects how much of a file name is treated as extension
	// when deriving a module identifier.
	ExtensionMode string

	// EmptyPolicy decides what happens when no file matches.
	EmptyPolicy string

	// Match is one file found by a pattern.
	Match struct {
		// Path is the slash-separated path relative to the scan root.
		Path string
		// Dir is the directory part of Path ("." for root-level files).
		Dir string
		// Base is the file name with its extension stripped.
		Base string
		// ID is the module identifier, Dir + "/" + Base.
		ID string
		// Pattern is the pattern that first produced this match.
		Pattern string
	}
)

// String returns the string representation of the ExtensionMode.
func (m ExtensionMode) String() string { return string(m) }

// IsValid returns whether the ExtensionMode is a known mode. The zero value is
// valid and behaves like ExtensionAll.
func (m ExtensionMode) IsValid() (bool, []error) {
	switch m {
	case "", ExtensionAll, ExtensionLast:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w %q (valid: all, last)", ErrInvalidExtensionMode, string(m))}
	}
}

// String returns the string representation of the EmptyPolicy.
func (p EmptyPolicy) String() string { return string(p) }

// IsValid returns whether the EmptyPolicy is a known policy. The zero value is
// valid and behaves like EmptyAllow.
func (p EmptyPolicy) IsValid() (bool, []error) {
	switch p {
	case "", EmptyAllow, EmptyFail:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w %q (valid: allow, fail)", ErrInvalidEmptyPolicy, string(p))}
	}
}

// NewMatch derives the Match for a slash-separated relative path.
func NewMatch(rel string, mode ExtensionMode) Match {
	rel = path.Clean(filepath.ToSlash(rel))
	dir := path.Dir(rel)
	base := stripExtension(path.Base(rel), mode)
	return Match{
		Path: rel,
		Dir:  dir,
		Base: base,
		ID:   dir + "/" + base,
	}
}

// ModuleID returns the module identifier for a slash-separated relative path:
// its directory, a slash, and its base name without extension.
func ModuleID(rel string, mode ExtensionMode) string {
	return NewMatch(rel, mode).ID
}

// Scan expands patterns against fsys in order. Matches of a single pattern are
// sorted lexically; a file already produced by an earlier pattern is skipped,
// so the result holds each file once in stable scan order.
func Scan(fsys fs.FS, patterns []string, mode ExtensionMode) ([]Match, error) {
	seen := make(map[string]struct{})
	var out []Match

	for _, raw := range patterns {
		pattern, err := NormalizePattern(raw)
		if err != nil {
			return nil, err
		}

		found, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, &InvalidPatternError{Pattern: raw, Reason: err.Error()}
		}
		slices.Sort(found)

		for _, f := range found {
			m := NewMatch(f, mode)
			if _, dup := seen[m.Path]; dup {
				continue
			}
			seen[m.Path] = struct{}{}
			m.Pattern = raw
			out = append(out, m)
		}
	}

	return out, nil
}

// NormalizePattern converts a user pattern into the unrooted, slash-separated
// form doublestar expects for an fs.FS. A leading "./" is dropped. Absolute
// patterns and patterns that climb above the root are rejected.
func NormalizePattern(raw string) (string, error) {
	p := filepath.ToSlash(strings.TrimSpace(raw))
	if p == "" {
		return "", &InvalidPatternError{Pattern: raw, Reason: "pattern is empty"}
	}
	if path.IsAbs(p) || filepath.IsAbs(raw) {
		return "", &InvalidPatternError{Pattern: raw, Reason: "pattern must be relative to the base directory"}
	}
	for strings.HasPrefix(p, "./") {
		p = strings.TrimLeft(p[2:], "/")
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", &InvalidPatternError{Pattern: raw, Reason: "pattern must not leave the base directory"}
		}
	}
	if !doublestar.ValidatePattern(p) {
		return "", &InvalidPatternError{Pattern: raw, Reason: "malformed glob syntax"}
	}
	return p, nil
}

// MatchesAny reports whether the slash-separated relative path rel is selected
// by at least one of patterns. Invalid patterns never match.
func MatchesAny(patterns []string, rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, raw := range patterns {
		p, err := NormalizePattern(raw)
		if err != nil {
			continue
		}
		if ok, matchErr := doublestar.Match(p, rel); matchErr == nil && ok {
			return true
		}
	}
	return false
}

// stripExtension removes the extension(s) from a file name. A leading dot
// (as in ".eslintrc.js") is part of the name, not an extension.
func stripExtension(name string, mode ExtensionMode) string {
	if mode == ExtensionLast {
		return strings.TrimSuffix(name, path.Ext(name))
	}
	lead := 0
	for lead < len(name) && name[lead] == '.' {
		lead++
	}
	if i := strings.IndexByte(name[lead:], '.'); i >= 0 {
		return name[:lead+i]
	}
	return name
}
