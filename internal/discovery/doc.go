// SPDX-License-Identifier: MPL-2.0

// Package discovery reconciles the binding types and bindings declared by
// the packages of a project with a discovery registry.
//
// The Manager loads every descriptor into two descriptor stores, resolves
// duplicates (the same type name or binding UUID declared by several
// packages, at most one of which is live) and applies user actions as lists
// of reversible operations run by the transaction package. Saving the root
// manifest is the last operation of every mutating action, so a failed save
// undoes the registry calls and manifest edits of that action.
//
// File organization:
//   - manager.go: Manager construction, loading and queries
//   - actions.go: mutating actions (add/remove types and bindings, enable/disable)
//   - build.go: BuildDiscovery and ClearDiscovery
//   - operations.go: the reversible operations
//   - interceptors.go: mark and reload interceptors
//   - resolution.go: duplicate and override resolution
//   - sync.go: registry reconciliation behind the sync operations
package discovery
