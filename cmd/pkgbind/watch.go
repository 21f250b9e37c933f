// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkgbind/pkgbind/internal/config"
	"github.com/pkgbind/pkgbind/internal/watch"
	"github.com/pkgbind/pkgbind/pkg/manifest"
)

func newWatchCommand(app *App) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the discovery registry whenever manifests or resources change",
		Long: `Rebuild the discovery registry whenever manifests or resources change.

The registry is rebuilt once at startup. After that, changes to any
pkgbind.json below the project directory, and to files below the resource
root, reload the project and rebuild the registry from scratch. Packages
installed outside the project directory are not watched.`,
		Args: cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, _ []string) error {
			ctx, out := cmd.Context(), cmd.OutOrStdout()
			s, err := app.openSession(ctx)
			if err != nil {
				return err
			}
			if err := buildDiscovery(ctx, out, s, true); err != nil {
				return err
			}

			patterns, ignore := watchPatterns(s.cfg)
			w, err := watch.New(watch.Config{
				Dir:      s.project.Dir(),
				Patterns: patterns,
				Ignore:   ignore,
				Debounce: debounce,
				Logger:   s.logger,
				OnChange: func(ctx context.Context, changed []string) error {
					s.logger.Info("rebuilding discovery", "changed", changed)
					next, err := app.openSession(ctx)
					if err != nil {
						return err
					}
					return buildDiscovery(ctx, out, next, true)
				},
			})
			if err != nil {
				return classifyError(err, "watch project", s.project.Dir())
			}
			fmt.Fprintf(out, "watching %s\n", CmdStyle.Render(s.project.Dir()))
			return w.Run(ctx)
		}),
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before rebuilding")
	return cmd
}

// watchPatterns selects the files whose changes affect the registry and
// ignores the directory the registry itself is written to.
func watchPatterns(cfg *config.Config) (patterns, ignore []string) {
	patterns = []string{"**/" + manifest.FileName}
	if root := filepath.ToSlash(filepath.Clean(cfg.ManifestFile)); path.Base(root) != manifest.FileName {
		patterns = append(patterns, root)
	}
	switch root := filepath.ToSlash(filepath.Clean(cfg.Discovery.ResourceRoot)); {
	case cfg.Discovery.ResourceRoot == "":
	case root == ".":
		patterns = append(patterns, "**")
	default:
		patterns = append(patterns, root+"/**")
	}

	store := filepath.ToSlash(filepath.Clean(cfg.Discovery.StorePath))
	ignore = []string{store, store + ".tmp"}
	if dir := path.Dir(store); dir != "." {
		ignore = append(ignore, dir+"/**")
	}
	return patterns, ignore
}
