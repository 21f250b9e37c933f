// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Besides the file helpers (MustWriteFile, MustMkdirAll), Project lays out a
// project directory with a root manifest and installed packages.
package testutil
