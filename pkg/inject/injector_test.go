// SPDX-License-Identifier: MPL-2.0

package inject

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/specsync/specsync/internal/testutil"
)

const wantTwoSpecs = "const specs = [\n    // inject:start\n    System.import('specs/a'),\n    System.import('specs/b')\n    // inject:end\n];\n"

func newProject(t *testing.T) string {
	t.Helper()
	return testutil.WriteTree(t, t.TempDir(), map[string]string{
		"specs/a.spec.js": "describe('a')",
		"specs/b.spec.js": "describe('b')",
		"runner.js":       runnerTemplate,
	})
}

func inPlaceRequest() Request {
	return Request{
		Name:     "runner",
		Patterns: []string{"./specs/*.spec.js"},
		Target:   "runner.js",
		Marker:   testMarker,
		Layout:   Layout{Separator: ",", Indent: "    "},
	}
}

func TestInject_InPlace(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	in := New(dir)

	res, err := in.Inject(context.Background(), inPlaceRequest())
	if err != nil {
		t.Fatalf("Inject() error: %v", err)
	}
	if !res.Changed {
		t.Error("first run should report a change")
	}
	if !slices.Equal(res.IDs(), []string{"specs/a", "specs/b"}) {
		t.Errorf("IDs() = %v", res.IDs())
	}
	if res.Written != filepath.Join(dir, "runner.js") {
		t.Errorf("Written = %q", res.Written)
	}
	if got := testutil.MustReadFile(t, filepath.Join(dir, "runner.js")); got != wantTwoSpecs {
		t.Errorf("runner.js = %q, want %q", got, wantTwoSpecs)
	}
}

func TestInject_Idempotent(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	in := New(dir)
	target := filepath.Join(dir, "runner.js")

	if _, err := in.Inject(context.Background(), inPlaceRequest()); err != nil {
		t.Fatalf("first Inject() error: %v", err)
	}
	first := testutil.MustReadFile(t, target)
	infoBefore, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}

	res, err := in.Inject(context.Background(), inPlaceRequest())
	if err != nil {
		t.Fatalf("second Inject() error: %v", err)
	}
	if res.Changed {
		t.Error("second run should not report a change")
	}
	if second := testutil.MustReadFile(t, target); second != first {
		t.Errorf("output not byte-identical:\n%q\n%q", first, second)
	}
	infoAfter, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}
	if !infoAfter.ModTime().Equal(infoBefore.ModTime()) {
		t.Error("unchanged content should not be rewritten")
	}
}

func TestInject_DropsStaleEntries(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	in := New(dir)

	if _, err := in.Inject(context.Background(), inPlaceRequest()); err != nil {
		t.Fatalf("Inject() error: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "specs", "b.spec.js")); err != nil {
		t.Fatal(err)
	}
	testutil.MustWriteFile(t, filepath.Join(dir, "specs", "c.spec.js"), "describe('c')")

	res, err := in.Inject(context.Background(), inPlaceRequest())
	if err != nil {
		t.Fatalf("Inject() error: %v", err)
	}
	if !slices.Equal(res.IDs(), []string{"specs/a", "specs/c"}) {
		t.Errorf("IDs() = %v", res.IDs())
	}
	got := testutil.MustReadFile(t, filepath.Join(dir, "runner.js"))
	if strings.Contains(got, "specs/b") {
		t.Errorf("stale entry survived: %q", got)
	}
	if strings.Count(got, "System.import") != 2 {
		t.Errorf("expected 2 statements, got %q", got)
	}
}

func TestInject_EmptyPolicy(t *testing.T) {
	t.Parallel()

	t.Run("allow writes an empty block", func(t *testing.T) {
		t.Parallel()
		dir := newProject(t)
		in := New(dir)
		if _, err := in.Inject(context.Background(), inPlaceRequest()); err != nil {
			t.Fatal(err)
		}

		req := inPlaceRequest()
		req.Patterns = []string{"test/**/*.spec.ts"}
		res, err := in.Inject(context.Background(), req)
		if err != nil {
			t.Fatalf("Inject() error: %v", err)
		}
		if len(res.Matches) != 0 {
			t.Errorf("expected no matches, got %d", len(res.Matches))
		}
		if got := testutil.MustReadFile(t, filepath.Join(dir, "runner.js")); got != runnerTemplate {
			t.Errorf("runner.js = %q, want %q", got, runnerTemplate)
		}
	})

	t.Run("fail leaves the file untouched", func(t *testing.T) {
		t.Parallel()
		dir := newProject(t)
		in := New(dir)

		req := inPlaceRequest()
		req.Patterns = []string{"test/**/*.spec.ts"}
		req.Empty = EmptyFail
		_, err := in.Inject(context.Background(), req)

		var nm *NoMatchError
		if !errors.As(err, &nm) {
			t.Fatalf("expected *NoMatchError, got %v", err)
		}
		if !errors.Is(err, ErrNoMatch) {
			t.Error("NoMatchError should wrap ErrNoMatch")
		}
		if got := testutil.MustReadFile(t, filepath.Join(dir, "runner.js")); got != runnerTemplate {
			t.Errorf("runner.js modified: %q", got)
		}
	})
}

func TestInject_MarkerNotFound(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	original := "const specs = [];\n"
	testutil.MustWriteFile(t, filepath.Join(dir, "runner.js"), original)

	_, err := New(dir).Inject(context.Background(), inPlaceRequest())
	if !errors.Is(err, ErrMarkerNotFound) {
		t.Fatalf("expected ErrMarkerNotFound, got %v", err)
	}
	var mnf *MarkerNotFoundError
	if !errors.As(err, &mnf) || mnf.Path != filepath.Join(dir, "runner.js") {
		t.Errorf("expected marker error with path, got %#v", mnf)
	}
	if got := testutil.MustReadFile(t, filepath.Join(dir, "runner.js")); got != original {
		t.Errorf("file modified: %q", got)
	}
}

func TestInject_MissingTarget(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	req := inPlaceRequest()
	req.Target = "missing.js"

	_, err := New(dir).Inject(context.Background(), req)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("IOError should expose the underlying fs.ErrNotExist")
	}
}

func TestInject_Check(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	req := inPlaceRequest()
	req.Check = true

	res, err := New(dir).Inject(context.Background(), req)
	if err != nil {
		t.Fatalf("Inject() error: %v", err)
	}
	if !res.Changed {
		t.Error("check mode should report the pending change")
	}
	if got := testutil.MustReadFile(t, filepath.Join(dir, "runner.js")); got != runnerTemplate {
		t.Errorf("check mode wrote the file: %q", got)
	}
}

func TestInject_CRLFPreserved(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	crlf := strings.ReplaceAll(runnerTemplate, "\n", "\r\n")
	testutil.MustWriteFile(t, filepath.Join(dir, "runner.js"), crlf)

	if _, err := New(dir).Inject(context.Background(), inPlaceRequest()); err != nil {
		t.Fatalf("Inject() error: %v", err)
	}
	want := strings.ReplaceAll(wantTwoSpecs, "\n", "\r\n")
	if got := testutil.MustReadFile(t, filepath.Join(dir, "runner.js")); got != want {
		t.Errorf("runner.js = %q, want %q", got, want)
	}
}

func TestInject_PreservesFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on Windows")
	}
	t.Parallel()

	dir := newProject(t)
	target := filepath.Join(dir, "runner.js")
	if err := os.Chmod(target, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := New(dir).Inject(context.Background(), inPlaceRequest()); err != nil {
		t.Fatalf("Inject() error: %v", err)
	}
	info, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
	if names := testutil.ListDir(t, dir); !slices.Equal(names, []string{"runner.js", "specs"}) {
		t.Errorf("unexpected directory entries (temp file left behind?): %v", names)
	}
}

func TestInject_Canceled(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(dir).Inject(ctx, inPlaceRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := testutil.MustReadFile(t, filepath.Join(dir, "runner.js")); got != runnerTemplate {
		t.Errorf("canceled run wrote the file: %q", got)
	}
}

func TestInject_Render(t *testing.T) {
	t.Parallel()

	const template = "System.config({ baseURL: '/' });\nPromise.all([\n    /// inject:import\n]).then(run);\n"
	const rendered = "System.config({ baseURL: '/' });\nPromise.all([\n    /// inject:import\n    System.import('specs/a'),\n    System.import('specs/b')\n]).then(run);\n"

	dir := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"specs/a.spec.js":                "a",
		"specs/b.spec.js":                "b",
		"util/system.imports.tpl.js":     template,
		"util/system.imports0badf00d.js": "old output",
		"SpecRunner.html":                `<script src="util/system.imports0badf00d.js"></script>` + "\n",
	})

	req := Request{
		Name:       "imports",
		Patterns:   []string{"./specs/*.spec.js"},
		Target:     "util/system.imports.tpl.js",
		Output:     "./util/system.imports{hash}.js",
		References: []string{"SpecRunner.html"},
		Marker:     Marker{Start: DefaultSentinel},
		Layout:     Layout{Separator: ",", Indent: "    "},
	}

	res, err := New(dir).Inject(context.Background(), req)
	if err != nil {
		t.Fatalf("Inject() error: %v", err)
	}

	name := "system.imports" + ContentHash([]byte(rendered)) + ".js"
	wantOut := filepath.Join(dir, "util", name)
	if res.Written != wantOut {
		t.Errorf("Written = %q, want %q", res.Written, wantOut)
	}
	if got := testutil.MustReadFile(t, wantOut); got != rendered {
		t.Errorf("output = %q, want %q", got, rendered)
	}
	if got := testutil.MustReadFile(t, filepath.Join(dir, "util", "system.imports.tpl.js")); got != template {
		t.Errorf("template modified: %q", got)
	}
	if names := testutil.ListDir(t, filepath.Join(dir, "util")); !slices.Equal(names, []string{name, "system.imports.tpl.js"}) {
		t.Errorf("util/ = %v", names)
	}
	if len(res.Removed) != 1 || filepath.Base(res.Removed[0]) != "system.imports0badf00d.js" {
		t.Errorf("Removed = %v", res.Removed)
	}
	wantHTML := `<script src="util/` + name + `"></script>` + "\n"
	if got := testutil.MustReadFile(t, filepath.Join(dir, "SpecRunner.html")); got != wantHTML {
		t.Errorf("SpecRunner.html = %q, want %q", got, wantHTML)
	}

	again, err := New(dir).Inject(context.Background(), req)
	if err != nil {
		t.Fatalf("second Inject() error: %v", err)
	}
	if again.Changed {
		t.Errorf("second render should be a no-op, got %+v", again)
	}
}

func TestInject_RenderKeepsNeighbours(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"specs/a.spec.js":     "a",
		"imports.template.js": "load([ /// inject:import\n]);\n",
		"imports.config.js":   "user file",
		"imports.0badf00d.js": "old output",
		"imports.Deadbeef.js": "not a hash",
		"index.html":          `<script src="imports.0badf00d.js"></script><script src="imports.config.js"></script>` + "\n",
	})

	req := Request{
		Patterns:   []string{"specs/*.spec.js"},
		Target:     "imports.template.js",
		Output:     "imports.{hash}.js",
		References: []string{"index.html"},
		Marker:     Marker{Start: DefaultSentinel},
	}
	res, err := New(dir).Inject(context.Background(), req)
	if err != nil {
		t.Fatalf("Inject() error: %v", err)
	}

	if len(res.Removed) != 1 || filepath.Base(res.Removed[0]) != "imports.0badf00d.js" {
		t.Errorf("Removed = %v, want only the previous output", res.Removed)
	}
	for _, name := range []string{"imports.template.js", "imports.config.js", "imports.Deadbeef.js"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s should survive: %v", name, err)
		}
	}
	html := testutil.MustReadFile(t, filepath.Join(dir, "index.html"))
	if !strings.Contains(html, `src="`+filepath.Base(res.Written)+`"`) || !strings.Contains(html, `src="imports.config.js"`) {
		t.Errorf("index.html = %q", html)
	}
}

func TestInject_SkipsOwnFiles(t *testing.T) {
	t.Parallel()

	t.Run("render output under the patterns", func(t *testing.T) {
		t.Parallel()

		dir := testutil.WriteTree(t, t.TempDir(), map[string]string{
			"specs/a.js":          "a",
			"specs/runner.tpl.js": "load([ /// inject:import\n]);\n",
		})
		req := Request{
			Patterns: []string{"specs/*.js"},
			Target:   "specs/runner.tpl.js",
			Output:   "specs/runner-{hash}.js",
			Marker:   Marker{Start: DefaultSentinel},
		}

		var first string
		for run := range 3 {
			res, err := New(dir).Inject(context.Background(), req)
			if err != nil {
				t.Fatalf("run %d: Inject() error: %v", run, err)
			}
			if !slices.Equal(res.IDs(), []string{"specs/a"}) {
				t.Errorf("run %d: IDs() = %v, want [specs/a]", run, res.IDs())
			}
			if run == 0 {
				first = res.Written
				continue
			}
			if res.Changed || res.Written != first {
				t.Errorf("run %d: Changed = %v, Written = %q, want no change to %q", run, res.Changed, res.Written, first)
			}
		}
		if names := testutil.ListDir(t, filepath.Join(dir, "specs")); len(names) != 3 {
			t.Errorf("specs/ = %v, want the spec, the template and one output", names)
		}
	})

	t.Run("in-place target under the patterns", func(t *testing.T) {
		t.Parallel()

		dir := testutil.WriteTree(t, t.TempDir(), map[string]string{
			"specs/a.js":      "a",
			"specs/runner.js": runnerTemplate,
		})
		req := inPlaceRequest()
		req.Patterns = []string{"specs/*.js"}
		req.Target = filepath.Join(dir, "specs", "runner.js")

		matches, err := New(dir).Scan(req)
		if err != nil {
			t.Fatalf("Scan() error: %v", err)
		}
		if len(matches) != 1 || matches[0].ID != "specs/a" {
			t.Errorf("Scan() = %v, want only specs/a", matches)
		}
	})
}

func TestRequest_Owns(t *testing.T) {
	t.Parallel()

	render := Request{
		Target:     "./test/imports.js",
		Output:     "dist/imports.{hash}.js",
		References: []string{"SpecRunner.html"},
	}
	inPlace := Request{Target: "specs/runner.js"}

	tests := []struct {
		name string
		req  Request
		rel  string
		want bool
	}{
		{"template", render, "test/imports.js", true},
		{"hashed output", render, "dist/imports.deadbeef.js", true},
		{"reference", render, "SpecRunner.html", true},
		{"dot-slash path", render, "./SpecRunner.html", true},
		{"sibling with a word for a hash", render, "dist/imports.config.js", false},
		{"unrelated", render, "dist/other.js", false},
		{"in-place target", inPlace, "specs/runner.js", true},
		{"spec next to in-place target", inPlace, "specs/a.spec.js", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.req.Owns(tt.rel); got != tt.want {
				t.Errorf("Owns(%q) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}
}

func TestRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Request)
		wantErr bool
	}{
		{name: "valid in place", mutate: func(*Request) {}},
		{name: "no patterns", mutate: func(r *Request) { r.Patterns = nil }, wantErr: true},
		{name: "bad pattern", mutate: func(r *Request) { r.Patterns = []string{"../x"} }, wantErr: true},
		{name: "no target", mutate: func(r *Request) { r.Target = " " }, wantErr: true},
		{name: "sentinel in place", mutate: func(r *Request) { r.Marker = Marker{Start: DefaultSentinel} }, wantErr: true},
		{name: "sentinel with output", mutate: func(r *Request) {
			r.Marker = Marker{Start: DefaultSentinel}
			r.Output = "out.js"
		}},
		{name: "references without output", mutate: func(r *Request) { r.References = []string{"a.html"} }, wantErr: true},
		{name: "output equals target", mutate: func(r *Request) { r.Output = "./runner.js" }, wantErr: true},
		{name: "hash in directory", mutate: func(r *Request) { r.Output = "gen{hash}/out.js" }, wantErr: true},
		{name: "bad statement", mutate: func(r *Request) { r.Statement = "{{" }, wantErr: true},
		{name: "bad empty policy", mutate: func(r *Request) { r.Empty = "maybe" }, wantErr: true},
		{name: "bad extension mode", mutate: func(r *Request) { r.Extension = "first" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := inPlaceRequest()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRequest) {
					t.Errorf("Validate() = %v, want ErrInvalidRequest", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestRequest_ValidateExposesPatternError(t *testing.T) {
	t.Parallel()

	req := inPlaceRequest()
	req.Patterns = []string{"/etc/*"}
	if err := req.Validate(); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("Validate() = %v, want ErrInvalidPattern in chain", err)
	}
}
