// SPDX-License-Identifier: MPL-2.0

package inject

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
)

type (
	// Request describes one injection.
	//
	// With Output empty the Target file is rewritten in place and Marker must
	// be delimited. With Output set, Target is a template that is never
	// modified: the rendered text is written to Output, whose name may carry
	// HashPlaceholder, and Marker may be a single sentinel.
	Request struct {
		// Name identifies the request in logs and results.
		Name string
		// Patterns are doublestar globs relative to the base directory,
		// scanned in order.
		Patterns []string
		// Target is the file to rewrite, or the template in render mode.
		Target string
		// Output is the render-mode destination pattern.
		Output string
		// References are files whose mentions of Output names are updated to
		// the newly rendered name.
		References []string
		Marker     Marker
		// Statement is a text/template source; empty selects DefaultStatement.
		Statement string
		Layout    Layout
		Empty     EmptyPolicy
		Extension ExtensionMode
		// Check computes the outcome without writing anything.
		Check bool
	}

	// Result reports what an injection did, or would do in check mode.
	Result struct {
		Name    string
		Matches []Match
		// Written is the file holding the statements: the target in place, or
		// the resolved render output.
		Written string
		// Changed is true when any file differs from what is on disk.
		Changed bool
		// Removed lists stale render outputs that were deleted.
		Removed []string
		// References lists reference files that were rewritten.
		References []string
	}

	// Injector runs Requests against a base directory.
	Injector struct {
		baseDir string
		fsys    fs.FS
		logger  *log.Logger
	}

	// Option configures an Injector.
	Option func(*Injector)
)

// WithFS overrides the file system used for glob expansion. Reads and writes
// of targets always go through the OS.
func WithFS(fsys fs.FS) Option {
	return func(in *Injector) { in.fsys = fsys }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(in *Injector) { in.logger = l }
}

// New creates an Injector rooted at baseDir. An empty baseDir means the
// current working directory.
func New(baseDir string, opts ...Option) *Injector {
	if baseDir == "" {
		baseDir = "."
	}
	in := &Injector{baseDir: baseDir}
	for _, opt := range opts {
		opt(in)
	}
	if in.fsys == nil {
		in.fsys = os.DirFS(baseDir)
	}
	if in.logger == nil {
		in.logger = log.New(io.Discard)
	}
	return in
}

// BaseDir returns the directory patterns and relative paths resolve against.
func (in *Injector) BaseDir() string { return in.baseDir }

// Scan expands the request's patterns without reading or writing any target.
// Files the request itself reads or writes are left out, so a rendered output
// under the patterns never lists its own previous version.
func (in *Injector) Scan(req Request) ([]Match, error) {
	matches, err := Scan(in.fsys, req.Patterns, req.Extension)
	if err != nil {
		return nil, err
	}
	own := in.local(req)
	return slices.DeleteFunc(matches, func(m Match) bool { return own.Owns(m.Path) }), nil
}

// Inject synchronizes the request's target with the current glob matches.
// The new content is built in memory first; a marker or template problem
// leaves every file untouched.
func (in *Injector) Inject(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("inject %s canceled: %w", req.label(), err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	stmt, err := ParseStatement(req.Statement)
	if err != nil {
		return nil, err
	}

	matches, err := in.Scan(req)
	if err != nil {
		return nil, err
	}
	in.logger.Debug("scanned patterns", "target", req.label(), "patterns", req.Patterns, "matches", len(matches))
	if len(matches) == 0 && req.Empty == EmptyFail {
		return nil, &NoMatchError{Patterns: req.Patterns}
	}

	stmts, err := stmt.Render(matches)
	if err != nil {
		return nil, err
	}

	src := in.resolve(req.Target)
	text, err := readText(src)
	if err != nil {
		return nil, err
	}

	in.logger.Debug("splicing", "file", src, "marker", req.Marker.String(), "separator", req.Layout.Separator, "indent", req.Layout.Indent)
	updated, err := Splice(text, req.Marker, Block(text, req.Marker, stmts, req.Layout))
	if err != nil {
		return nil, withPath(err, src)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("inject %s canceled: %w", req.label(), err)
	}

	res := &Result{Name: req.Name, Matches: matches}
	if req.Output == "" {
		res.Written = src
		res.Changed = updated != text
		if res.Changed && !req.Check {
			if err := WriteFileAtomic(src, []byte(updated)); err != nil {
				return nil, err
			}
			in.logger.Debug("wrote target", "file", src, "statements", len(stmts))
		}
		return res, nil
	}

	return in.render(req, updated, res)
}

// render writes the rendered template to its output name, removes outputs
// left by earlier runs and points the reference files at the new name.
func (in *Injector) render(req Request, rendered string, res *Result) (*Result, error) {
	content := []byte(rendered)
	pattern := in.resolve(req.Output)
	out := OutputName(pattern, content)
	res.Written = out

	existing, err := os.ReadFile(out)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		res.Changed = true
	case err != nil:
		return nil, &IOError{Op: "read", Path: out, Err: err}
	default:
		res.Changed = string(existing) != rendered
	}

	if res.Changed && !req.Check {
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return nil, &IOError{Op: "create directory for", Path: out, Err: err}
		}
		if err := WriteFileAtomic(out, content); err != nil {
			return nil, err
		}
		in.logger.Debug("wrote output", "file", out, "statements", len(res.Matches))
	}

	exclude := []string{in.resolve(req.Target)}
	for _, ref := range req.References {
		exclude = append(exclude, in.resolve(ref))
	}
	stale, err := staleOutputs(pattern, out, exclude...)
	if err != nil && !req.Check {
		return nil, err
	}
	for _, p := range stale {
		res.Changed = true
		res.Removed = append(res.Removed, p)
		if req.Check {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, &IOError{Op: "remove", Path: p, Err: err}
		}
		in.logger.Debug("removed stale output", "file", p)
	}

	refPattern := path.Clean(filepath.ToSlash(req.Output))
	refName := OutputName(refPattern, content)
	for _, ref := range req.References {
		refPath := in.resolve(ref)
		text, err := readText(refPath)
		if err != nil {
			return nil, err
		}
		updated := RewriteReferences(text, refPattern, refName)
		if updated == text {
			continue
		}
		res.Changed = true
		res.References = append(res.References, refPath)
		if req.Check {
			continue
		}
		if err := WriteFileAtomic(refPath, []byte(updated)); err != nil {
			return nil, err
		}
		in.logger.Debug("rewrote reference", "file", refPath, "name", refName)
	}

	return res, nil
}

// local returns req with absolute file paths under the base directory made
// relative to it.
func (in *Injector) local(req Request) Request {
	rel := func(p string) string {
		if !filepath.IsAbs(p) {
			return p
		}
		if r, err := filepath.Rel(in.baseDir, p); err == nil {
			return r
		}
		return p
	}
	req.Target = rel(req.Target)
	if req.Output != "" {
		req.Output = rel(req.Output)
	}
	req.References = slices.Clone(req.References)
	for i, ref := range req.References {
		req.References[i] = rel(ref)
	}
	return req
}

// resolve anchors a relative path at the base directory.
func (in *Injector) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(in.baseDir, p)
}

// IDs returns the module identifiers in injection order.
func (r *Result) IDs() []string {
	ids := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		ids[i] = m.ID
	}
	return ids
}

// Validate checks the request before any file is touched.
func (r Request) Validate() error {
	var errs []error
	if len(r.Patterns) == 0 {
		errs = append(errs, errors.New("at least one pattern is required"))
	}
	for _, p := range r.Patterns {
		if _, err := NormalizePattern(p); err != nil {
			errs = append(errs, err)
		}
	}
	if strings.TrimSpace(r.Target) == "" {
		errs = append(errs, errors.New("target file is required"))
	}
	if err := r.Marker.Validate(); err != nil {
		errs = append(errs, err)
	}
	if r.Output == "" && r.Marker.Start != "" && !r.Marker.Delimited() {
		errs = append(errs, errors.New("in-place injection needs an end marker; sentinel markers require an output file"))
	}
	if r.Output == "" && len(r.References) > 0 {
		errs = append(errs, errors.New("references are only rewritten in render mode (output set)"))
	}
	if r.Output != "" && filepath.Clean(r.Output) == filepath.Clean(r.Target) {
		errs = append(errs, errors.New("output must differ from the template"))
	}
	if Hashed(filepath.Dir(r.Output)) {
		errs = append(errs, fmt.Errorf("output %q: %s may only appear in the file name", r.Output, HashPlaceholder))
	}
	if _, err := ParseStatement(r.Statement); err != nil {
		errs = append(errs, err)
	}
	if ok, fieldErrs := r.Empty.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := r.Extension.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return &InvalidRequestError{FieldErrors: errs}
	}
	return nil
}

// Owns reports whether rel, a slash-separated path relative to the base
// directory, is one of the request's own files: the target, an output of any
// hash or a reference.
func (r Request) Owns(rel string) bool {
	rel = cleanRel(rel)
	if rel == cleanRel(r.Target) {
		return true
	}
	if r.Output == "" {
		return false
	}
	if nameRegexp(cleanRel(r.Output), true).MatchString(rel) {
		return true
	}
	return slices.ContainsFunc(r.References, func(ref string) bool { return cleanRel(ref) == rel })
}

func cleanRel(p string) string {
	return strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "./")
}

func (r Request) label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Target
}
