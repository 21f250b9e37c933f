// SPDX-License-Identifier: MPL-2.0

// Package transaction runs lists of reversible operations atomically.
//
// Run executes operations in order. When one fails, every operation that
// already executed is rolled back in reverse order and the original error
// is returned unchanged. Interceptors observe the outcome: each one sees
// exactly one of PostExecute (all operations succeeded) or PostRollback
// (the list was undone).
//
// Intercept binds interceptors to a single operation instead of to the whole
// list. They run right after that operation executes or rolls back, before
// the next operation in the list.
package transaction
