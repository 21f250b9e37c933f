// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pkgbind/pkgbind/internal/issue"
)

// newIssueCommand creates `pkgbind issue`, which lists the issue catalog or
// explains one entry.
func newIssueCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "issue [name]",
		Short: "Explain a common failure and how to fix it",
		Args:  cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			var names []string
			for _, i := range issue.Values() {
				names = append(names, i.Name())
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, i := range issue.Values() {
					fmt.Fprintf(w, "%s  %s\n", CmdStyle.Render(fmt.Sprintf("%-24s", i.Name())), issueTitle(i))
				}
				return nil
			}

			entry, ok := issue.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown issue %q, run 'pkgbind issue' for the list", args[0])
			}
			_, stylePath := app.displaySettings(cmd.Context())
			rendered, err := entry.Render(stylePath)
			if err != nil {
				return fmt.Errorf("failed to render issue %q: %w", entry.Name(), err)
			}
			fmt.Fprint(w, rendered)
			return nil
		}),
	}
}

// issueTitle returns the first markdown heading of an issue.
func issueTitle(i *issue.Issue) string {
	for line := range strings.Lines(string(i.MarkdownMsg())) {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return title
		}
	}
	return ""
}
