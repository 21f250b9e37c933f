// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/pkgbind/pkgbind/internal/discovery"
	"github.com/pkgbind/pkgbind/pkg/manifest"
	"github.com/pkgbind/pkgbind/pkg/types"
)

// newBindCommand creates the `pkgbind bind` command tree.
func newBindCommand(app *App) *cobra.Command {
	bindCmd := &cobra.Command{
		Use:   "bind",
		Short: "Manage bindings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	bindCmd.AddCommand(newBindListCommand(app))
	bindCmd.AddCommand(newBindAddCommand(app))
	bindCmd.AddCommand(newBindRemoveCommand(app))
	bindCmd.AddCommand(newBindToggleCommand(app, true))
	bindCmd.AddCommand(newBindToggleCommand(app, false))
	return bindCmd
}

func newBindListCommand(app *App) *cobra.Command {
	var (
		all      bool
		packages []string
	)
	cmd := &cobra.Command{
		Use:   "list [uuid-prefix]",
		Short: "List bindings",
		Long: `List bindings. Only enabled bindings are listed unless --all is given,
in which case disabled, duplicate, held back and ignored bindings are
listed as well.`,
		Args: cobra.MaximumNArgs(1),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			s, err := app.openSession(cmd.Context())
			if err != nil {
				return err
			}
			criteria := manifest.AnyBinding().InPackages(packages...)
			if len(args) == 1 {
				criteria = criteria.WithUUIDPrefix(args[0])
			}
			if !all {
				criteria = criteria.WithStates(manifest.BindingEnabled)
			}
			listBindings(cmd.OutOrStdout(), s.project.Manager().Bindings(criteria))
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "list bindings in every state")
	cmd.Flags().StringSliceVarP(&packages, "package", "p", nil, "only list bindings declared by these packages")
	return cmd
}

func listBindings(w io.Writer, bds []*manifest.BindingDescriptor) {
	if len(bds) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("(no bindings)"))
		return
	}
	for _, bd := range bds {
		state := bd.State().String()
		if !bd.IsEnabled() {
			state = WarningStyle.Render(state)
		}
		pkg := ""
		if p := bd.ContainingPackage(); p != nil {
			pkg = p.Name()
		}
		fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
			bd.UUID(), state, CmdStyle.Render(bd.TypeName()), bd.Query(), SubtitleStyle.Render(pkg))
		values := bd.ParameterValues()
		for _, name := range slices.Sorted(maps.Keys(values)) {
			fmt.Fprintf(w, "    %s = %v\n", name, values[name])
		}
	}
}

func newBindAddCommand(app *App) *cobra.Command {
	var (
		params   []string
		language string
		force    bool
		override bool
	)
	cmd := &cobra.Command{
		Use:   "add <query> <type>",
		Short: "Add a binding to the root package",
		Long: `Add a binding to the root package and bind it in the discovery registry.

Parameter values are read as JSON scalars when possible. Parameters the
binding leaves out take the defaults of the binding type.`,
		Example: `  pkgbind bind add '/app/*.html' my/type --param name=value`,
		Args:    cobra.ExactArgs(2),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			query, typeName := args[0], args[1]
			values, err := parseParamFlags(params)
			if err != nil {
				return classifyError(err, "add binding", query)
			}
			bd, err := manifest.NewBindingDescriptor(query, typeName,
				manifest.WithLanguage(types.QueryLanguage(language)),
				manifest.WithParameterValues(values))
			if err != nil {
				return classifyError(err, "add binding", query)
			}

			s, err := app.openSession(cmd.Context())
			if err != nil {
				return err
			}
			opts := discovery.AddBindingOptions{
				Override:             override,
				IgnoreTypeNotFound:   force,
				IgnoreTypeNotEnabled: force,
			}
			if err := s.project.Manager().AddBinding(cmd.Context(), bd, opts); err != nil {
				return classifyError(err, "add binding", query)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s added %s\n", successIcon, bd.UUID())
			return nil
		}),
	}
	cmd.Flags().StringArrayVar(&params, "param", nil, "parameter value (name=value)")
	cmd.Flags().StringVarP(&language, "language", "l", string(types.LanguageGlob), "query language")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "add the binding even if its type is unknown or not enabled")
	cmd.Flags().BoolVar(&override, "override", false, "replace a binding the root package already declares")
	return cmd
}

func newBindRemoveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <uuid>",
		Short: "Remove a binding declared by the root package",
		Args:  cobra.ExactArgs(1),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			s, err := app.openSession(cmd.Context())
			if err != nil {
				return err
			}
			m := s.project.Manager()
			id, err := resolveBindingUUID(m, args[0])
			if err != nil {
				return classifyError(err, "remove binding", args[0])
			}
			if err := m.RemoveBinding(cmd.Context(), id); err != nil {
				return classifyError(err, "remove binding", id.String())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s removed %s\n", successIcon, id)
			return nil
		}),
	}
}

// newBindToggleCommand creates `bind enable` or `bind disable`.
func newBindToggleCommand(app *App, enable bool) *cobra.Command {
	verb, operation, short := "disable", "disable binding", "Disable a binding declared by installed packages"
	if enable {
		verb, operation, short = "enable", "enable binding", "Enable a binding declared by installed packages"
	}
	return &cobra.Command{
		Use:   verb + " <uuid> [package...]",
		Short: short,
		Long: short + `.

Without packages, every installed package that declares the binding is
updated.`,
		Args: cobra.MinimumNArgs(1),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			s, err := app.openSession(cmd.Context())
			if err != nil {
				return err
			}
			m := s.project.Manager()
			id, err := resolveBindingUUID(m, args[0])
			if err != nil {
				return classifyError(err, operation, args[0])
			}
			toggle := m.DisableBinding
			if enable {
				toggle = m.EnableBinding
			}
			if err := toggle(cmd.Context(), id, args[1:]...); err != nil {
				return classifyError(err, operation, id.String())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %sd %s\n", successIcon, verb, id)
			return nil
		}),
	}
}
