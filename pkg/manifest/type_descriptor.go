// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"slices"

	"github.com/pkgbind/pkgbind/pkg/registry"
	"github.com/pkgbind/pkgbind/pkg/types"
)

type (
	// BindingParameter declares one parameter of a binding type. A required
	// parameter has no default.
	BindingParameter struct {
		Name        string
		Required    bool
		Default     any
		Description types.DescriptionText
	}

	// BindingTypeDescriptor declares a binding type within a package file.
	BindingTypeDescriptor struct {
		name        string
		description types.DescriptionText
		parameters  []BindingParameter

		containingPackage *Package
		duplicate         bool
	}

	// TypeOption configures a BindingTypeDescriptor.
	TypeOption func(*BindingTypeDescriptor)
)

// WithDescription sets the description of the type.
func WithDescription(d types.DescriptionText) TypeOption {
	return func(t *BindingTypeDescriptor) { t.description = d }
}

// WithParameters appends parameter declarations in order.
func WithParameters(params ...BindingParameter) TypeOption {
	return func(t *BindingTypeDescriptor) { t.parameters = append(t.parameters, params...) }
}

// NewBindingTypeDescriptor creates an unloaded type descriptor.
func NewBindingTypeDescriptor(name string, opts ...TypeOption) (*BindingTypeDescriptor, error) {
	if err := ValidateTypeName(name); err != nil {
		return nil, err
	}
	t := &BindingTypeDescriptor{name: name}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.description.Validate(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(t.parameters))
	for i, p := range t.parameters {
		if err := ValidateParameterName(p.Name); err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, &InvalidParameterError{TypeName: name, Parameter: p.Name, Reason: "declared more than once"}
		}
		seen[p.Name] = true
		if p.Required && p.Default != nil {
			return nil, &InvalidParameterError{TypeName: name, Parameter: p.Name, Reason: "a required parameter cannot have a default value"}
		}
		if err := p.Description.Validate(); err != nil {
			return nil, err
		}
		def, err := types.NormalizeScalar(p.Default)
		if err != nil {
			return nil, &InvalidParameterValueError{Parameter: p.Name, Err: err}
		}
		t.parameters[i].Default = def
	}
	return t, nil
}

// Name returns the "vendor/name" identifier of the type.
func (t *BindingTypeDescriptor) Name() string { return t.name }

// Description returns the description of the type.
func (t *BindingTypeDescriptor) Description() types.DescriptionText { return t.description }

// Parameters returns a copy of the parameter declarations.
func (t *BindingTypeDescriptor) Parameters() []BindingParameter { return slices.Clone(t.parameters) }

// Parameter returns the declaration of the named parameter.
func (t *BindingTypeDescriptor) Parameter(name string) (BindingParameter, bool) {
	for _, p := range t.parameters {
		if p.Name == name {
			return p, true
		}
	}
	return BindingParameter{}, false
}

// ContainingPackage returns the package the descriptor is loaded into, or nil.
func (t *BindingTypeDescriptor) ContainingPackage() *Package { return t.containingPackage }

// Load attaches the descriptor to pkg.
func (t *BindingTypeDescriptor) Load(pkg *Package) error {
	if t.IsLoaded() {
		return fmt.Errorf("type %q: %w", t.name, ErrAlreadyLoaded)
	}
	t.containingPackage = pkg
	return nil
}

// Unload detaches the descriptor from its package and clears the duplicate mark.
func (t *BindingTypeDescriptor) Unload() error {
	if !t.IsLoaded() {
		return fmt.Errorf("type %q: %w", t.name, ErrNotLoaded)
	}
	t.containingPackage = nil
	t.duplicate = false
	return nil
}

// IsLoaded reports whether the descriptor is attached to a package.
func (t *BindingTypeDescriptor) IsLoaded() bool { return t.containingPackage != nil }

// MarkDuplicate sets or clears the duplicate mark.
func (t *BindingTypeDescriptor) MarkDuplicate(duplicate bool) { t.duplicate = duplicate }

// IsDuplicate reports the duplicate mark.
func (t *BindingTypeDescriptor) IsDuplicate() bool { return t.duplicate }

// State derives the current state of the type.
func (t *BindingTypeDescriptor) State() TypeState {
	switch {
	case !t.IsLoaded():
		return TypeNotLoaded
	case t.duplicate:
		return TypeDuplicate
	default:
		return TypeEnabled
	}
}

// IsEnabled reports whether the state is TypeEnabled.
func (t *BindingTypeDescriptor) IsEnabled() bool { return t.State() == TypeEnabled }

// IsCandidate reports whether the type would be enabled if it were not
// marked duplicate.
func (t *BindingTypeDescriptor) IsCandidate() bool { return t.IsLoaded() }

// BindingType returns the registry's view of the type.
func (t *BindingTypeDescriptor) BindingType() registry.BindingType {
	bt := registry.BindingType{Name: t.name, Description: t.description.String()}
	for _, p := range t.parameters {
		bt.Parameters = append(bt.Parameters, registry.Parameter{Name: p.Name, Required: p.Required, Default: p.Default})
	}
	return bt
}
