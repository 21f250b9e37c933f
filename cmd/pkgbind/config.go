// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pkgbind/pkgbind/internal/config"
	"github.com/pkgbind/pkgbind/internal/issue"
)

// newConfigCommand creates the `pkgbind config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pkgbind configuration",
		Long: `Manage pkgbind configuration.

Configuration is layered, later layers overriding earlier ones:
  1. built-in defaults
  2. config.cue in the user configuration directory (or --config)
  3. pkgbind.toml in the project directory
  4. PKGBIND_* environment variables`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, _ []string) error {
			cfg, sources, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			showConfig(cmd.OutOrStdout(), cfg, sources)
			return nil
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Args:  cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, _ []string) error {
			path, err := userConfigPath(app)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(app.dir, config.ProjectFileName))
			return nil
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(cfg))
			return nil
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, _ []string) error {
			path, err := userConfigPath(app)
			if err != nil {
				return err
			}
			if err := initConfig(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s created %s\n", successIcon, path)
			return nil
		}),
	})

	return cfgCmd
}

// userConfigPath returns --config, or config.cue in the user configuration
// directory.
func userConfigPath(app *App) (string, error) {
	if app.configPath != "" {
		return app.configPath, nil
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return "", issue.NewErrorContext().
			WithOperation("locate configuration directory").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}
	return filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt), nil
}

// initConfig writes the default configuration to path. An existing file is
// left alone.
func initConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return issue.NewErrorContext().
			WithOperation("create configuration").
			WithResource(path).
			WithSuggestion("Edit the existing file or remove it first").
			Wrap(fs.ErrExist).
			BuildError()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return classifyError(err, "create configuration", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return classifyError(err, "create configuration directory", filepath.Dir(path))
	}
	if err := os.WriteFile(path, []byte(config.GenerateCUE(config.DefaultConfig())), 0o644); err != nil {
		return classifyError(err, "create configuration", path)
	}
	return nil
}

func showConfig(w io.Writer, cfg *config.Config, sources config.Sources) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	source := func(path string) string {
		if path == "" {
			return SubtitleStyle.Render("(none)")
		}
		return path
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), source(sources.ConfigFile))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Project file"), source(sources.ProjectFile))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("manifest_file"), valueStyle.Render(cfg.ManifestFile))
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("discovery"))
	fmt.Fprintf(w, "  store_path: %s\n", valueStyle.Render(cfg.Discovery.StorePath))
	fmt.Fprintf(w, "  resource_root: %s\n", source(cfg.Discovery.ResourceRoot))
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("log"))
	fmt.Fprintf(w, "  level: %s\n", valueStyle.Render(string(cfg.Log.Level)))
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))
	fmt.Fprintf(w, "  color_scheme: %s\n", valueStyle.Render(string(cfg.UI.ColorScheme)))
}
