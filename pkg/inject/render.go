// SPDX-License-Identifier: MPL-2.0

package inject

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

const (
	// HashPlaceholder in an output pattern is replaced by ContentHash of the
	// rendered file.
	HashPlaceholder = "{hash}"

	hashLen = 8

	// hashChars matches exactly what ContentHash produces.
	hashChars = `[0-9a-f]{8}`
)

// ContentHash returns the first 8 hex digits of the SHA-256 of content.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:hashLen]
}

// OutputName substitutes the content hash into an output pattern. Patterns
// without HashPlaceholder are returned unchanged.
func OutputName(pattern string, content []byte) string {
	if !strings.Contains(pattern, HashPlaceholder) {
		return pattern
	}
	return strings.ReplaceAll(pattern, HashPlaceholder, ContentHash(content))
}

// Hashed reports whether an output pattern carries HashPlaceholder.
func Hashed(pattern string) bool {
	return strings.Contains(pattern, HashPlaceholder)
}

// RewriteReferences replaces every name produced by outputPattern that
// appears in text with newName. Both are slash-separated as they appear in the
// referencing file (for example the src attribute of a script tag).
func RewriteReferences(text, outputPattern, newName string) string {
	if !Hashed(outputPattern) {
		return text
	}
	re := nameRegexp(filepath.ToSlash(outputPattern), false)
	return re.ReplaceAllLiteralString(text, newName)
}

// staleOutputs lists files in the output directory whose names were produced
// by outputPattern. keep and every path in exclude are never listed.
func staleOutputs(outputPattern, keep string, exclude ...string) ([]string, error) {
	if !Hashed(outputPattern) {
		return nil, nil
	}
	dir := filepath.Dir(outputPattern)
	re := nameRegexp(filepath.Base(outputPattern), true)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &IOError{Op: "list", Path: dir, Err: err}
	}

	var stale []string
	for _, e := range entries {
		if e.IsDir() || !re.MatchString(e.Name()) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if p == filepath.Clean(keep) || slices.ContainsFunc(exclude, func(x string) bool { return filepath.Clean(x) == p }) {
			continue
		}
		stale = append(stale, p)
	}
	slices.Sort(stale)
	return stale, nil
}

// nameRegexp turns an output pattern into a regexp where HashPlaceholder
// matches a content hash.
func nameRegexp(pattern string, anchored bool) *regexp.Regexp {
	parts := strings.Split(pattern, HashPlaceholder)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	expr := strings.Join(parts, hashChars)
	if anchored {
		expr = "^" + expr + "$"
	}
	return regexp.MustCompile(expr)
}
