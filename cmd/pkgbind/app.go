// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/pkgbind/pkgbind/internal/config"
	"github.com/pkgbind/pkgbind/internal/issue"
	"github.com/pkgbind/pkgbind/internal/project"
)

type (
	// ProjectOpener opens the project a command operates on.
	ProjectOpener func(opts project.Options) (*project.Project, error)

	// App wires CLI services and shared dependencies. It is the composition root
	// for the CLI layer: every Cobra command handler receives an App reference.
	App struct {
		Config ConfigProvider
		Open   ProjectOpener
		stdout io.Writer
		stderr io.Writer

		// Global flag values.
		configPath string
		dir        string
		verbose    bool
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Open   ProjectOpener
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, config.Sources, error)
	}

	// session is what a project command works with: the effective
	// configuration, the logger built from it and the opened project.
	session struct {
		cfg     *config.Config
		sources config.Sources
		logger  *log.Logger
		project *project.Project
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Open == nil {
		deps.Open = project.Open
	}
	return &App{
		Config: deps.Config,
		Open:   deps.Open,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
		dir:    ".",
	}
}

// loadConfig loads the configuration for the project directory selected by
// --dir, honoring an explicit --config file.
func (a *App) loadConfig(ctx context.Context) (*config.Config, config.Sources, error) {
	cfg, sources, err := a.Config.Load(ctx, configOptions(a))
	if err != nil && issue.IssueOf(err) == nil {
		err = issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(a.configPath).
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}
	if err != nil {
		return nil, sources, err
	}
	return cfg, sources, nil
}

// newLogger builds the CLI logger. --verbose and ui.verbose lower the level
// to debug.
func (a *App) newLogger(cfg *config.Config) *log.Logger {
	level := cfg.Log.Level.Level()
	if a.verbose || cfg.UI.Verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
}

// openSession loads the configuration and opens the project it points to.
func (a *App) openSession(ctx context.Context) (*session, error) {
	cfg, sources, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	logger := a.newLogger(cfg)
	logger.Debug("configuration loaded", "config", sources.ConfigFile, "project", sources.ProjectFile)

	p, err := a.Open(project.Options{
		Dir:          a.dir,
		ManifestFile: cfg.ManifestFile,
		RegistryPath: cfg.Discovery.StorePath,
		ResourceRoot: cfg.Discovery.ResourceRoot,
		Logger:       logger,
	})
	if err != nil {
		return nil, classifyError(err, "open project", a.dir)
	}
	return &session{cfg: cfg, sources: sources, logger: logger, project: p}, nil
}

// displaySettings returns the verbosity and the issue rendering style. It
// falls back to the flags alone when the configuration does not load.
func (a *App) displaySettings(ctx context.Context) (verbose bool, stylePath string) {
	verbose, stylePath = a.verbose, string(config.ColorSchemeAuto)
	if cfg, _, err := a.Config.Load(ctx, configOptions(a)); err == nil {
		verbose = verbose || cfg.UI.Verbose
		stylePath = string(cfg.UI.ColorScheme)
	}
	return verbose, stylePath
}

func configOptions(a *App) config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: a.configPath, ProjectDir: a.dir}
}
