// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Values are layered, later sources winning over earlier ones:
//
//   - built-in defaults (DefaultConfig)
//   - config.cue in the platform config directory (~/.config/pkgbind on
//     Linux, ~/Library/Application Support/pkgbind on macOS,
//     %APPDATA%\pkgbind on Windows), or the file given with --config
//   - pkgbind.toml in the project directory
//   - PKGBIND_* environment variables
//
// Both file formats are validated against the embedded CUE schema
// (config_schema.cue) before they are merged.
package config
