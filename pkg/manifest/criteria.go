// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"slices"
	"strings"
)

// BindingCriteria filters binding descriptors. The zero value matches every
// descriptor. Builder methods return modified copies.
type BindingCriteria struct {
	uuidPrefix   string
	packageNames []string
	states       []BindingState
}

// AnyBinding returns criteria matching every binding.
func AnyBinding() BindingCriteria { return BindingCriteria{} }

// WithUUIDPrefix restricts matches to UUIDs whose string form starts with
// prefix, compared case-insensitively.
func (c BindingCriteria) WithUUIDPrefix(prefix string) BindingCriteria {
	c.uuidPrefix = strings.ToLower(prefix)
	return c
}

// InPackages restricts matches to descriptors loaded into the named packages.
func (c BindingCriteria) InPackages(names ...string) BindingCriteria {
	c.packageNames = append(slices.Clone(c.packageNames), names...)
	return c
}

// WithStates restricts matches to descriptors in one of the given states.
func (c BindingCriteria) WithStates(states ...BindingState) BindingCriteria {
	c.states = append(slices.Clone(c.states), states...)
	return c
}

// PackageNames returns the package filter.
func (c BindingCriteria) PackageNames() []string { return slices.Clone(c.packageNames) }

// Matches reports whether d satisfies every filter.
func (c BindingCriteria) Matches(d *BindingDescriptor) bool {
	if c.uuidPrefix != "" && !strings.HasPrefix(d.UUID().String(), c.uuidPrefix) {
		return false
	}
	if len(c.packageNames) > 0 {
		pkg := d.ContainingPackage()
		if pkg == nil || !slices.Contains(c.packageNames, pkg.Name()) {
			return false
		}
	}
	if len(c.states) > 0 && !slices.Contains(c.states, d.State()) {
		return false
	}
	return true
}
