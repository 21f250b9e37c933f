// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for pkgbind.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pkgbind",
		Short: "Manage the bindings and binding types of a package project",
		Long: TitleStyle.Render("pkgbind") + SubtitleStyle.Render(" - binding and binding type manager") + `

pkgbind keeps the bindings and binding types declared by a project and its
installed packages consistent with the project's discovery registry.

Bindings attach a binding type to the resources matched by a query. When
several packages declare the same binding, the root package wins, then the
packages in override order.

` + SubtitleStyle.Render("Examples:") + `
  pkgbind type define my/type --param name=default
  pkgbind bind add '/app/*.html' my/type --param name=value
  pkgbind bind list --all
  pkgbind build --force`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $HOME/.config/pkgbind/config.cue)")
	rootCmd.PersistentFlags().StringVarP(&app.dir, "dir", "C", ".", "project directory")

	rootCmd.AddCommand(newTypeCommand(app))
	rootCmd.AddCommand(newBindCommand(app))
	rootCmd.AddCommand(newBuildCommand(app))
	rootCmd.AddCommand(newClearCommand(app))
	rootCmd.AddCommand(newWatchCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))
	rootCmd.AddCommand(newIssueCommand(app))
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// handleError prints errors that the commands did not render themselves,
// such as flag parsing errors.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
