// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation steps. Errors can link to an entry of the issue catalog, a set
// of Markdown pages rendered with glamour by 'pkgbind issue'.
package issue
