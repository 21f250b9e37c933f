// SPDX-License-Identifier: MPL-2.0

// Package manifest models package manifests (pkgbind.json) and the
// descriptors they declare.
//
// # Packages and package files
//
// Every package of a project ships a [PackageFile] declaring binding types
// and bindings. The project itself is the root package; its
// [RootPackageFile] additionally records one [InstallInfo] per installed
// package and the override order. [Package] ties a package file to its
// install location, and [PackageCollection] holds all packages of a project.
//
// # Descriptors
//
// A [BindingTypeDescriptor] declares a named, parameterized binding type
// ("vendor/name"). A [BindingDescriptor] binds a resource query to such a
// type. Descriptors are created unloaded; loading attaches them to their
// containing package (and, for bindings, to the resolved type) and makes
// their state meaningful:
//
//	UNLOADED -> HELD_BACK -> IGNORED -> DUPLICATE -> DISABLED -> ENABLED
//
// The first condition that applies wins. Package and type references are
// lookup relations, cleared on unload; ownership always stays with the
// package file.
//
// # Encoding
//
// [DecodePackageFile] and [DecodeRootPackageFile] validate JSON against the
// embedded CUE schema before building descriptors. The Encode functions
// produce indented JSON with sorted keys.
package manifest
