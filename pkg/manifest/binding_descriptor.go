// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/pkgbind/pkgbind/pkg/registry"
	"github.com/pkgbind/pkgbind/pkg/types"
)

type (
	// BindingDescriptor binds a resource query to a binding type.
	//
	// Only explicit parameter values are stored; defaults come from the type
	// at the time the registry binding is built.
	BindingDescriptor struct {
		uuid            uuid.UUID
		query           string
		language        types.QueryLanguage
		typeName        string
		parameterValues map[string]any

		containingPackage *Package
		typeDescriptor    *BindingTypeDescriptor
		loadErrors        []error
		duplicate         bool
		overridden        bool
	}

	// BindingOption configures a BindingDescriptor.
	BindingOption func(*bindingConfig)

	bindingConfig struct {
		uuid     uuid.UUID
		language types.QueryLanguage
		params   map[string]any
	}
)

// WithUUID sets an explicit UUID instead of deriving one.
func WithUUID(id uuid.UUID) BindingOption {
	return func(c *bindingConfig) { c.uuid = id }
}

// WithLanguage sets the query language. The default is glob.
func WithLanguage(l types.QueryLanguage) BindingOption {
	return func(c *bindingConfig) { c.language = l }
}

// WithParameterValues merges explicit parameter values.
func WithParameterValues(values map[string]any) BindingOption {
	return func(c *bindingConfig) {
		if c.params == nil {
			c.params = make(map[string]any, len(values))
		}
		maps.Copy(c.params, values)
	}
}

// WithParameterValue sets one explicit parameter value.
func WithParameterValue(name string, value any) BindingOption {
	return func(c *bindingConfig) {
		if c.params == nil {
			c.params = make(map[string]any)
		}
		c.params[name] = value
	}
}

// NewBindingDescriptor creates an unloaded binding descriptor.
func NewBindingDescriptor(query, typeName string, opts ...BindingOption) (*BindingDescriptor, error) {
	cfg := bindingConfig{language: types.LanguageGlob}
	for _, opt := range opts {
		opt(&cfg)
	}

	if query == "" {
		return nil, ErrEmptyQuery
	}
	if err := cfg.language.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateTypeName(typeName); err != nil {
		return nil, err
	}

	params := make(map[string]any, len(cfg.params))
	for name, v := range cfg.params {
		if err := ValidateParameterName(name); err != nil {
			return nil, err
		}
		n, err := types.NormalizeScalar(v)
		if err != nil {
			return nil, &InvalidParameterValueError{Parameter: name, Err: err}
		}
		params[name] = n
	}

	id := cfg.uuid
	if id == uuid.Nil {
		id = DeriveBindingUUID(query, typeName, params, cfg.language)
	}

	return &BindingDescriptor{
		uuid:            id,
		query:           query,
		language:        cfg.language,
		typeName:        typeName,
		parameterValues: params,
	}, nil
}

// UUID returns the identity of the binding.
func (d *BindingDescriptor) UUID() uuid.UUID { return d.uuid }

// Query returns the resource query.
func (d *BindingDescriptor) Query() string { return d.query }

// Language returns the query language.
func (d *BindingDescriptor) Language() types.QueryLanguage { return d.language }

// TypeName returns the name of the bound type.
func (d *BindingDescriptor) TypeName() string { return d.typeName }

// ParameterValues returns a copy of the explicit parameter values.
func (d *BindingDescriptor) ParameterValues() map[string]any { return maps.Clone(d.parameterValues) }

// ParameterValue returns the explicit value of a parameter, falling back to
// the default of the loaded type.
func (d *BindingDescriptor) ParameterValue(name string) (any, bool) {
	if v, ok := d.parameterValues[name]; ok {
		return v, true
	}
	if d.typeDescriptor != nil {
		if p, ok := d.typeDescriptor.Parameter(name); ok && !p.Required {
			return p.Default, true
		}
	}
	return nil, false
}

// ContainingPackage returns the package the descriptor is loaded into, or nil.
func (d *BindingDescriptor) ContainingPackage() *Package { return d.containingPackage }

// TypeDescriptor returns the type the descriptor was loaded with, or nil.
func (d *BindingDescriptor) TypeDescriptor() *BindingTypeDescriptor { return d.typeDescriptor }

// LoadErrors returns the parameter errors found when loading.
func (d *BindingDescriptor) LoadErrors() []error { return d.loadErrors }

// Load attaches the descriptor to pkg and to the type it binds to. td may be
// nil when no package declares the type. Parameter mismatches are recorded
// as load errors, not returned.
func (d *BindingDescriptor) Load(pkg *Package, td *BindingTypeDescriptor) error {
	if d.IsLoaded() {
		return fmt.Errorf("binding %s: %w", d.uuid, ErrAlreadyLoaded)
	}
	if pkg == nil {
		return errors.New("cannot load a binding descriptor without a package")
	}
	d.containingPackage = pkg
	d.typeDescriptor = nil
	d.loadErrors = nil
	if td != nil && td.IsLoaded() {
		d.typeDescriptor = td
		d.loadErrors = td.BindingType().ValidateParameters(d.parameterValues)
	}
	return nil
}

// Unload detaches the descriptor and clears its load errors and marks.
func (d *BindingDescriptor) Unload() error {
	if !d.IsLoaded() {
		return fmt.Errorf("binding %s: %w", d.uuid, ErrNotLoaded)
	}
	d.containingPackage = nil
	d.typeDescriptor = nil
	d.loadErrors = nil
	d.duplicate = false
	d.overridden = false
	return nil
}

// IsLoaded reports whether the descriptor is attached to a package.
func (d *BindingDescriptor) IsLoaded() bool { return d.containingPackage != nil }

// MarkDuplicate sets or clears the duplicate mark.
func (d *BindingDescriptor) MarkDuplicate(duplicate bool) { d.duplicate = duplicate }

// IsDuplicate reports the duplicate mark.
func (d *BindingDescriptor) IsDuplicate() bool { return d.duplicate }

// MarkOverridden sets or clears the overridden mark.
func (d *BindingDescriptor) MarkOverridden(overridden bool) { d.overridden = overridden }

// IsOverridden reports the overridden mark.
func (d *BindingDescriptor) IsOverridden() bool { return d.overridden }

// State derives the current state of the binding.
func (d *BindingDescriptor) State() BindingState {
	switch {
	case !d.IsLoaded():
		return BindingUnloaded
	case d.typeDescriptor == nil || !d.typeDescriptor.IsEnabled():
		return BindingHeldBack
	case len(d.loadErrors) > 0:
		return BindingIgnored
	case d.duplicate:
		return BindingDuplicate
	case d.disabledByOwner():
		return BindingDisabled
	default:
		return BindingEnabled
	}
}

// IsEnabled reports whether the state is BindingEnabled.
func (d *BindingDescriptor) IsEnabled() bool { return d.State() == BindingEnabled }

// IsCandidate reports whether the binding would be enabled if it were not
// marked duplicate.
func (d *BindingDescriptor) IsCandidate() bool {
	return d.IsLoaded() &&
		d.typeDescriptor != nil && d.typeDescriptor.IsEnabled() &&
		len(d.loadErrors) == 0 &&
		!d.disabledByOwner()
}

func (d *BindingDescriptor) disabledByOwner() bool {
	info := d.containingPackage.InstallInfo()
	return info != nil && info.HasDisabledBindingUUID(d.uuid)
}

// Binding returns the registry's view of the binding, with the defaults of
// the loaded type filled in.
func (d *BindingDescriptor) Binding() registry.Binding {
	params := maps.Clone(d.parameterValues)
	if d.typeDescriptor != nil {
		params = d.typeDescriptor.BindingType().ResolveParameters(d.parameterValues)
	}
	if len(params) == 0 {
		params = nil
	}
	return registry.Binding{
		Query:      d.query,
		TypeName:   d.typeName,
		Language:   d.language,
		Parameters: params,
	}
}

// Equal reports whether both descriptors declare the same binding.
func (d *BindingDescriptor) Equal(o *BindingDescriptor) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.uuid == o.uuid && d.query == o.query && d.language == o.language &&
		d.typeName == o.typeName &&
		maps.EqualFunc(d.parameterValues, o.parameterValues, func(a, b any) bool { return scalarToken(a) == scalarToken(b) })
}

func (d *BindingDescriptor) String() string {
	return fmt.Sprintf("%s %s -> %s", d.uuid, d.query, d.typeName)
}
