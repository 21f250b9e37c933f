// SPDX-License-Identifier: MPL-2.0

// Package storage reads package manifests from disk and writes the root
// manifest back.
//
// Manifests of installed packages are only ever read. They are kept in an LRU
// cache keyed by path and revalidated against the file's size and
// modification time, so reloading a project does not re-validate unchanged
// manifests against the CUE schema. The root manifest is never cached.
package storage
