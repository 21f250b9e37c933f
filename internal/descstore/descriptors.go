// SPDX-License-Identifier: MPL-2.0

package descstore

import (
	"github.com/google/uuid"

	"github.com/pkgbind/pkgbind/pkg/manifest"
)

type (
	// BindingStore indexes binding descriptors by UUID.
	BindingStore = Store[uuid.UUID, *manifest.BindingDescriptor]

	// TypeStore indexes type descriptors by type name.
	TypeStore = Store[string, *manifest.BindingTypeDescriptor]
)

// NewBindingStore creates an empty binding store.
func NewBindingStore() *BindingStore { return New[uuid.UUID, *manifest.BindingDescriptor]() }

// NewTypeStore creates an empty type store.
func NewTypeStore() *TypeStore { return New[string, *manifest.BindingTypeDescriptor]() }
