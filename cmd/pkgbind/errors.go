// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkgbind/pkgbind/internal/discovery"
	"github.com/pkgbind/pkgbind/internal/issue"
	"github.com/pkgbind/pkgbind/internal/storage"
	"github.com/pkgbind/pkgbind/pkg/manifest"
	"github.com/pkgbind/pkgbind/pkg/registry"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// classifyError maps err to the issue catalog entry that explains it and
// wraps it in an ActionableError. Errors that already link an issue are
// returned unchanged.
func classifyError(err error, operation, resource string, suggestions ...string) error {
	if err == nil || issue.IssueOf(err) != nil {
		return err
	}

	var id issue.Id
	switch {
	case errors.Is(err, discovery.ErrNoSuchType):
		id = issue.TypeNotFoundId
	case errors.Is(err, discovery.ErrTypeNotEnabled):
		id = issue.TypeNotEnabledId
	case errors.Is(err, discovery.ErrNoSuchBinding):
		id = issue.BindingNotFoundId
	case errors.Is(err, discovery.ErrCannotEnableBinding), errors.Is(err, discovery.ErrCannotDisableBinding):
		id = issue.BindingNotToggleableId
	case errors.Is(err, registry.ErrNoQueryMatches):
		id = issue.QueryNoMatchesId
	case errors.Is(err, discovery.ErrDiscoveryNotEmpty):
		id = issue.DiscoveryNotEmptyId
	case errors.Is(err, storage.ErrManifestNotFound):
		id = issue.ManifestNotFoundId
	case errors.Is(err, manifest.ErrInvalidManifest):
		id = issue.ManifestInvalidId
	case errors.Is(err, os.ErrPermission):
		id = issue.PermissionDeniedId
	}

	ctx := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		WithIssue(id).
		Wrap(err)
	for _, s := range suggestions {
		ctx.WithSuggestion(s)
	}
	return ctx.BuildError()
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// renderError writes err and, when it links one, the issue catalog entry
// rendered with stylePath.
func renderError(w io.Writer, err error, verbose bool, stylePath string) {
	fmt.Fprintf(w, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))

	entry := issue.IssueOf(err)
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render(stylePath)
	if renderErr != nil {
		fmt.Fprintf(w, "%s run 'pkgbind issue %s' for help\n", WarningStyle.Render("!"), entry.Name())
		return
	}
	fmt.Fprint(w, rendered)
}

// runE adapts a command body to Cobra. Failures are rendered on the command's
// stderr and turned into an ExitError so that Cobra does not print them again.
func (a *App) runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		verbose, stylePath := a.displaySettings(cmd.Context())
		renderError(cmd.ErrOrStderr(), err, verbose, stylePath)
		cmd.SilenceErrors = true
		return &ExitError{Code: 1, Err: err}
	}
}
