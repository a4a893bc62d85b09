// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	MarkerNotFoundId Id = iota + 1
	NoMatchId
	TargetIOId
	ConfigLoadFailedId
	InvalidPatternId
	HookFailedId
	StaleTargetId
	TargetNotFoundId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	name     string      // stable name for `specsync explain`
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Name() string {
	return i.name
}

// Title returns the first Markdown heading without its trailing "!".
func (i *Issue) Title() string {
	for line := range strings.SplitSeq(string(i.mdMsg), "\n") {
		if title, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSuffix(strings.TrimSpace(title), "!")
		}
	}
	return i.name
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	markerNotFoundIssue = &Issue{
		id:   MarkerNotFoundId,
		name: "marker-not-found",
		mdMsg: `
# Marker not found!

The target file must contain the start marker and the end marker exactly
once each, with the end marker after the start marker. The file was left
untouched.

## Things you can try:
- Add the default markers where the statements belong:
~~~js
const specs = [
    // inject:start
    // inject:end
];
~~~

- Or point specsync at the markers your file already uses:
~~~
$ specsync inject --start '<!-- specs -->' --end '<!-- /specs -->' ...
~~~

- Remove duplicated markers; each one may appear only once`,
	}

	noMatchIssue = &Issue{
		id:       NoMatchId,
		name:     "no-match",
		extLinks: []HttpLink{"https://github.com/bmatcuk/doublestar#patterns"},
		mdMsg: `
# No files matched!

None of the glob patterns matched a file, and the target's empty policy is
'fail'.

## Things you can try:
- Check the patterns relative to the base directory:
~~~
$ specsync list
~~~

- Use '**' to match nested directories: 'specs/**/*.spec.js'
- Set 'empty: "allow"' to write an empty block instead of failing`,
	}

	targetIOIssue = &Issue{
		id:   TargetIOId,
		name: "target-io",
		mdMsg: `
# Could not read or write a file!

A target, template, output or reference file could not be accessed.

## Things you can try:
- Verify the path exists relative to the base directory
- Check file and directory permissions
- Make sure the output directory is writable`,
	}

	configLoadFailedIssue = &Issue{
		id:       ConfigLoadFailedId,
		name:     "config-load",
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
		mdMsg: `
# Failed to load configuration!

The specsync configuration file could not be loaded or is invalid.

## Things you can try:
- Check the CUE syntax and field names of your specsync.cue
- Print the effective configuration:
~~~
$ specsync config show
~~~

- Start over from a fresh file:
~~~
$ specsync config init
~~~`,
	}

	invalidPatternIssue = &Issue{
		id:       InvalidPatternId,
		name:     "invalid-pattern",
		extLinks: []HttpLink{"https://github.com/bmatcuk/doublestar#patterns"},
		mdMsg: `
# Invalid glob pattern!

Patterns are doublestar globs relative to the base directory. They may not be
absolute or climb out of the base directory with '..'.

## Examples:
~~~
./specs/*.spec.js
specs/**/*.spec.{js,ts}
~~~`,
	}

	hookFailedIssue = &Issue{
		id:       HookFailedId,
		name:     "hook-failed",
		extLinks: []HttpLink{"https://github.com/mvdan/sh"},
		mdMsg: `
# Before hook failed!

The target's 'before' script exited with a non-zero status, so the target was
not injected.

## Things you can try:
- Run the script by hand from the base directory to see its output
- Re-run with '--verbose' for the full hook log`,
	}

	staleTargetIssue = &Issue{
		id:   StaleTargetId,
		name: "stale-target",
		mdMsg: `
# Target out of date!

'--check' found targets whose statements do not match the files on disk.

## Things you can try:
- Regenerate the targets and commit the result:
~~~
$ specsync run
~~~`,
	}

	targetNotFoundIssue = &Issue{
		id:   TargetNotFoundId,
		name: "target-not-found",
		mdMsg: `
# Target not found!

No configured target has that name.

## Things you can try:
- List the configured targets:
~~~
$ specsync list
~~~

- Check the 'targets' section of your specsync.cue`,
	}

	issues = map[Id]*Issue{
		markerNotFoundIssue.Id():   markerNotFoundIssue,
		noMatchIssue.Id():          noMatchIssue,
		targetIOIssue.Id():         targetIOIssue,
		configLoadFailedIssue.Id(): configLoadFailedIssue,
		invalidPatternIssue.Id():   invalidPatternIssue,
		hookFailedIssue.Id():       hookFailedIssue,
		staleTargetIssue.Id():      staleTargetIssue,
		targetNotFoundIssue.Id():   targetNotFoundIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	all := maps.Values(issues)
	slices.SortFunc(all, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return all
}

// Lookup returns the entry with the given name, or nil.
func Lookup(name string) *Issue {
	for _, i := range issues {
		if i.name == name {
			return i
		}
	}
	return nil
}

func Get(id Id) *Issue {
	return issues[id]
}
