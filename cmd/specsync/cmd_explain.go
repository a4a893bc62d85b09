// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specsync/specsync/internal/issue"
)

func newExplainCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "explain [issue]",
		Short: "Show the help page for an error",
		Long: `Without arguments, list the error help pages. With a name, render that page.
The name is printed after every failure that has a help page.`,
		Example: `  specsync explain
  specsync explain marker-not-found`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			var names []string
			for _, entry := range issue.Values() {
				names = append(names, entry.Name()+"\t"+entry.Title())
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.handleError(explain(app, args), rootFlags.verbose)
		},
	}
}

func explain(app *App, args []string) error {
	if len(args) == 0 {
		for _, entry := range issue.Values() {
			fmt.Fprintf(app.stdout, "%s %s\n", targetStyle.Render(fmt.Sprintf("%-18s", entry.Name())), entry.Title())
		}
		return nil
	}

	entry := issue.Lookup(args[0])
	if entry == nil {
		return fmt.Errorf("%w %q (run 'specsync explain' for the list)", errUnknownIssue, args[0])
	}
	rendered, err := entry.Render(helpStyle())
	if err != nil {
		return fmt.Errorf("render help page %s: %w", entry.Name(), err)
	}
	fmt.Fprint(app.stdout, rendered)
	return nil
}
