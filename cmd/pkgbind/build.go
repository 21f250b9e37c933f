// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newBuildCommand(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Populate the discovery registry from the project's enabled types and bindings",
		Long: `Populate the discovery registry from the project's enabled types and bindings.

The registry must be empty; --force clears it first. A failing define or
bind leaves the registry as it was before the build.`,
		Args: cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, _ []string) error {
			s, err := app.openSession(cmd.Context())
			if err != nil {
				return err
			}
			return buildDiscovery(cmd.Context(), cmd.OutOrStdout(), s, force)
		}),
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "clear the registry before building")
	return cmd
}

func newClearCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every type and binding from the discovery registry",
		Args:  cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, _ []string) error {
			s, err := app.openSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.project.Manager().ClearDiscovery(); err != nil {
				return classifyError(err, "clear discovery registry", s.project.Registry().Path())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s cleared %s\n", successIcon, s.project.Registry().Path())
			return nil
		}),
	}
}

// buildDiscovery builds the registry of s, clearing it first when reset is
// set, and reports what it contains.
func buildDiscovery(ctx context.Context, w io.Writer, s *session, reset bool) error {
	m, reg := s.project.Manager(), s.project.Registry()
	if reset {
		if err := m.ClearDiscovery(); err != nil {
			return classifyError(err, "clear discovery registry", reg.Path())
		}
	}
	if err := m.BuildDiscovery(ctx); err != nil {
		return classifyError(err, "build discovery registry", reg.Path())
	}
	fmt.Fprintf(w, "%s %d type(s), %d binding(s) in %s\n",
		successIcon, len(reg.DefinedTypes()), len(reg.Bindings()), reg.Path())
	return nil
}
