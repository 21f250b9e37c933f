// SPDX-License-Identifier: MPL-2.0

// Package registry defines the discovery registry: the live, queryable set of
// binding types and bindings that resource consumers look up at run time.
//
// The manager in internal/discovery only talks to a [Registry]. Two
// implementations ship with pkgbind:
//   - [Memory]: an in-process registry, optionally checking glob queries
//     against a list of resource paths through a [Matcher]
//   - [File]: a Memory persisted as JSON after every mutation
//
// Values passed across the interface ([BindingType], [Binding]) are plain
// snapshots; the registry never sees manager descriptors.
package registry
