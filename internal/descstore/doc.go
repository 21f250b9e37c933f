// SPDX-License-Identifier: MPL-2.0

// Package descstore indexes loaded descriptors by identity and owning
// package.
//
// The same identity (a binding UUID or a type name) may be declared by
// several packages. A Store keeps, per identity, the declarations in the
// order their packages were first added; overwriting the declaration of a
// package keeps its position so that reloading a descriptor never changes
// which declaration counts as "first".
package descstore
