// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pkgbind/pkgbind/internal/discovery"
	"github.com/pkgbind/pkgbind/pkg/manifest"
	"github.com/pkgbind/pkgbind/pkg/types"
)

// newTypeCommand creates the `pkgbind type` command tree.
func newTypeCommand(app *App) *cobra.Command {
	typeCmd := &cobra.Command{
		Use:   "type",
		Short: "Manage binding types",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	typeCmd.AddCommand(newTypeListCommand(app))
	typeCmd.AddCommand(newTypeDefineCommand(app))
	typeCmd.AddCommand(newTypeRemoveCommand(app))
	return typeCmd
}

func newTypeListCommand(app *App) *cobra.Command {
	var packages []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the binding types declared by the project and its packages",
		Args:  cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, _ []string) error {
			s, err := app.openSession(cmd.Context())
			if err != nil {
				return err
			}
			listTypes(cmd.OutOrStdout(), s.project.Manager().TypeDescriptors(packages...))
			return nil
		}),
	}
	cmd.Flags().StringSliceVarP(&packages, "package", "p", nil, "only list types declared by these packages")
	return cmd
}

func listTypes(w io.Writer, tds []*manifest.BindingTypeDescriptor) {
	if len(tds) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("(no binding types)"))
		return
	}
	for _, td := range tds {
		state := td.State().String()
		if !td.IsEnabled() {
			state = WarningStyle.Render(state)
		}
		fmt.Fprintf(w, "%s  %s  %s\n", CmdStyle.Render(td.Name()), state, SubtitleStyle.Render(td.ContainingPackage().Name()))
		if td.Description() != "" {
			fmt.Fprintf(w, "    %s\n", td.Description())
		}
		for _, p := range td.Parameters() {
			fmt.Fprintf(w, "    - %s\n", formatParameter(p))
		}
	}
}

func formatParameter(p manifest.BindingParameter) string {
	var b strings.Builder
	b.WriteString(p.Name)
	switch {
	case p.Required:
		b.WriteString(" (required)")
	case p.Default != nil:
		fmt.Fprintf(&b, " = %v", p.Default)
	}
	if p.Description != "" {
		b.WriteString(": ")
		b.WriteString(p.Description.String())
	}
	return b.String()
}

func newTypeDefineCommand(app *App) *cobra.Command {
	var (
		params            []string
		required          []string
		description       string
		paramDescriptions map[string]string
		force             bool
	)
	cmd := &cobra.Command{
		Use:   "define <name>",
		Short: "Declare a binding type in the root package",
		Long: `Declare a binding type in the root package.

Parameters are declared with --param name or --param name=default. Values
are read as JSON scalars when possible, so --param size=10 declares a number
and --param label='"10"' a string.`,
		Example: `  pkgbind type define my/type --param name=default --required path`,
		Args:    cobra.ExactArgs(1),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			name := args[0]
			decls, err := parseParamDeclarations(params, required, paramDescriptions)
			if err != nil {
				return classifyError(err, "define binding type", name)
			}
			td, err := manifest.NewBindingTypeDescriptor(name,
				manifest.WithDescription(types.DescriptionText(description)),
				manifest.WithParameters(decls...))
			if err != nil {
				return classifyError(err, "define binding type", name)
			}

			s, err := app.openSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.project.Manager().AddBindingType(cmd.Context(), td, discovery.AddTypeOptions{Override: force}); err != nil {
				return classifyError(err, "define binding type", name,
					"Pass --force to replace a type the root package already declares")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s defined %s\n", successIcon, CmdStyle.Render(name))
			return nil
		}),
	}
	cmd.Flags().StringArrayVar(&params, "param", nil, "declare a parameter (name or name=default)")
	cmd.Flags().StringArrayVar(&required, "required", nil, "declare a required parameter")
	cmd.Flags().StringVarP(&description, "description", "d", "", "type description")
	cmd.Flags().StringToStringVar(&paramDescriptions, "param-description", nil, "parameter descriptions (name=text)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace a type the root package already declares")
	return cmd
}

func newTypeRemoveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a binding type declared by the root package",
		Args:  cobra.ExactArgs(1),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			s, err := app.openSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.project.Manager().RemoveBindingType(cmd.Context(), args[0]); err != nil {
				return classifyError(err, "remove binding type", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s removed %s\n", successIcon, CmdStyle.Render(args[0]))
			return nil
		}),
	}
}
