// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/pkgbind/pkgbind/internal/issue"
	"github.com/pkgbind/pkgbind/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "pkgbind"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// ProjectFileName is the project-local configuration file.
	ProjectFileName = "pkgbind.toml"
)

//go:embed config_schema.cue
var configSchema []byte

type (
	// LoadOptions defines explicit configuration loading inputs.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific config file when set.
		ConfigFilePath string
		// ConfigDirPath overrides the config directory lookup when set.
		ConfigDirPath string
		// ProjectDir is searched for pkgbind.toml when set.
		ProjectDir string
		// Environment replaces the process environment when non-nil.
		Environment map[string]string
	}

	// Sources lists the files a configuration was loaded from.
	Sources struct {
		ConfigFile  string
		ProjectFile string
	}

	// envOverrides holds the PKGBIND_* variables. Unset variables stay empty
	// or nil and do not override anything.
	envOverrides struct {
		ManifestFile string `env:"PKGBIND_MANIFEST_FILE"`
		StorePath    string `env:"PKGBIND_DISCOVERY_STORE_PATH"`
		ResourceRoot string `env:"PKGBIND_DISCOVERY_RESOURCE_ROOT"`
		LogLevel     string `env:"PKGBIND_LOG_LEVEL"`
		Verbose      *bool  `env:"PKGBIND_UI_VERBOSE"`
		ColorScheme  string `env:"PKGBIND_UI_COLOR_SCHEME"`
	}
)

// ConfigDir returns the pkgbind configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Load reads the configuration layers described in the package
// documentation and validates the result.
func Load(ctx context.Context, opts LoadOptions) (*Config, Sources, error) {
	select {
	case <-ctx.Done():
		return nil, Sources{}, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	var sources Sources
	cuePath, err := configFilePath(opts)
	if err != nil {
		return nil, Sources{}, err
	}
	if cuePath != "" {
		if err := loadCUEIntoViper(v, cuePath); err != nil {
			return nil, Sources{}, issue.NewErrorContext().
				WithOperation("load configuration").
				WithIssue(issue.ConfigLoadFailedId).
				WithResource(cuePath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Use 'pkgbind config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
		sources.ConfigFile = cuePath
	}

	if opts.ProjectDir != "" {
		tomlPath := filepath.Join(opts.ProjectDir, ProjectFileName)
		if fileExists(tomlPath) {
			if err := loadTOMLIntoViper(v, tomlPath); err != nil {
				return nil, Sources{}, issue.NewErrorContext().
					WithOperation("load project configuration").
					WithIssue(issue.ConfigLoadFailedId).
					WithResource(tomlPath).
					WithSuggestion("Check that the file contains valid TOML").
					WithSuggestion("Keys use the same names as config.cue, e.g. [discovery] store_path").
					Wrap(err).
					BuildError()
			}
			sources.ProjectFile = tomlPath
		}
	}

	if err := applyEnv(v, opts.Environment); err != nil {
		return nil, Sources{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, Sources{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, Sources{}, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check the PKGBIND_* environment variables").
			Wrap(err).
			BuildError()
	}
	return &cfg, sources, nil
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("manifest_file", defaults.ManifestFile)
	v.SetDefault("discovery.store_path", defaults.Discovery.StorePath)
	v.SetDefault("discovery.resource_root", defaults.Discovery.ResourceRoot)
	v.SetDefault("log.level", string(defaults.Log.Level))
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.color_scheme", string(defaults.UI.ColorScheme))
}

// configFilePath returns the config.cue to load, or "" if there is none.
// An explicit path must exist.
func configFilePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				Wrap(fmt.Errorf("config file not found: %s: %w", opts.ConfigFilePath, fs.ErrNotExist)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(path) {
		return path, nil
	}
	return "", nil
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into
// Viper. Fields are optional, so the value is not required to be concrete.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	result, err := cueutil.ParseAndDecode[map[string]any](configSchema, data, "#Config",
		cueutil.WithFilename(path), cueutil.WithConcrete(false))
	if err != nil {
		return err
	}
	if err := v.MergeConfigMap(*result.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// loadTOMLIntoViper decodes a TOML file, validates it against the same
// #Config schema and merges it into Viper.
func loadTOMLIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var values map[string]any
	if err := toml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	asJSON, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", path, err)
	}
	if err := cueutil.Validate(configSchema, asJSON, "#Config", cueutil.WithFilename(path), cueutil.WithConcrete(false)); err != nil {
		return err
	}
	if err := v.MergeConfigMap(values); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// applyEnv overrides keys whose PKGBIND_* variable is set.
func applyEnv(v *viper.Viper, environment map[string]string) error {
	var raw envOverrides
	var err error
	if environment != nil {
		err = env.ParseWithOptions(&raw, env.Options{Environment: environment})
	} else {
		err = env.Parse(&raw)
	}
	if err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	for key, value := range map[string]string{
		"manifest_file":           raw.ManifestFile,
		"discovery.store_path":    raw.StorePath,
		"discovery.resource_root": raw.ResourceRoot,
		"log.level":               raw.LogLevel,
		"ui.color_scheme":         raw.ColorScheme,
	} {
		if value != "" {
			v.Set(key, value)
		}
	}
	if raw.Verbose != nil {
		v.Set("ui.verbose", *raw.Verbose)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	return err == nil && !info.IsDir()
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// pkgbind configuration file\n\n")
	fmt.Fprintf(&sb, "manifest_file: %q\n", cfg.ManifestFile)

	sb.WriteString("\ndiscovery: {\n")
	fmt.Fprintf(&sb, "\tstore_path: %q\n", cfg.Discovery.StorePath)
	if cfg.Discovery.ResourceRoot != "" {
		fmt.Fprintf(&sb, "\tresource_root: %q\n", cfg.Discovery.ResourceRoot)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel: %q\n", cfg.Log.Level)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %s\n", strconv.FormatBool(cfg.UI.Verbose))
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	sb.WriteString("}\n")

	return sb.String()
}
