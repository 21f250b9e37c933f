// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/pkgbind/pkgbind/internal/descstore"
	"github.com/pkgbind/pkgbind/pkg/manifest"
	"github.com/pkgbind/pkgbind/pkg/registry"
)

type (
	// Storage persists the root manifest.
	Storage interface {
		SaveRootPackageFile(ctx context.Context, f *manifest.RootPackageFile) error
	}

	// Logger receives the non-fatal findings of the manager. *log.Logger
	// satisfies it.
	Logger interface {
		Warn(msg any, keyvals ...any)
		Debug(msg any, keyvals ...any)
	}

	// Option configures a Manager.
	Option func(*Manager)

	// Manager applies binding and type changes to the root manifest and the
	// discovery registry.
	Manager struct {
		packages *manifest.PackageCollection
		root     *manifest.Package
		registry registry.Registry
		storage  Storage
		logger   Logger

		bindings *descstore.BindingStore
		types    *descstore.TypeStore
		loaded   bool
	}

	// AddTypeOptions controls AddBindingType.
	AddTypeOptions struct {
		// Override replaces a type the root package already declares.
		Override bool
	}

	// AddBindingOptions controls AddBinding.
	AddBindingOptions struct {
		// Override replaces a binding the root package already declares.
		Override bool
		// IgnoreTypeNotFound adds the binding even if no package declares its
		// type. The binding stays held back until the type appears.
		IgnoreTypeNotFound bool
		// IgnoreTypeNotEnabled adds the binding even if its type is not enabled.
		IgnoreTypeNotEnabled bool
	}
)

// WithLogger sets the logger for warnings and debug output.
func WithLogger(l Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// New creates a manager for packages, which must contain a root package
// with a root manifest.
func New(packages *manifest.PackageCollection, reg registry.Registry, storage Storage, opts ...Option) (*Manager, error) {
	root := packages.RootPackage()
	if root == nil || root.RootFile() == nil {
		return nil, fmt.Errorf("package collection has no root package")
	}
	m := &Manager{
		packages: packages,
		root:     root,
		registry: reg,
		storage:  storage,
		logger:   log.New(io.Discard),
		bindings: descstore.NewBindingStore(),
		types:    descstore.NewTypeStore(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// RootPackage returns the root package.
func (m *Manager) RootPackage() *manifest.Package { return m.root }

func (m *Manager) rootFile() *manifest.RootPackageFile { return m.root.RootFile() }

// ensureLoaded loads the descriptors of every enabled package on first use.
// Types are loaded before bindings so that bindings resolve their types.
func (m *Manager) ensureLoaded() {
	if m.loaded {
		return
	}
	m.loaded = true

	pkgs := m.packages.EnabledPackages()
	for _, pkg := range pkgs {
		for _, td := range pkg.File().TypeDescriptors() {
			m.types.Add(td.Name(), pkg.Name(), td)
			if !td.IsLoaded() {
				mustSucceed(td.Load(pkg))
			}
		}
	}
	for _, name := range m.types.Keys() {
		m.updateDuplicateMarksForTypeName(name)
	}

	for _, pkg := range pkgs {
		for _, bd := range pkg.File().BindingDescriptors() {
			m.bindings.Add(bd.UUID(), pkg.Name(), bd)
			if !bd.IsLoaded() {
				mustSucceed(bd.Load(pkg, m.typeFor(bd.TypeName())))
			}
		}
	}
	for _, id := range m.bindings.Keys() {
		m.updateOverrideMarksForUUID(id)
		m.updateDuplicateMarksForUUID(id)
	}
	m.logger.Debug("descriptors loaded", "packages", len(pkgs), "types", m.types.Len(), "bindings", m.bindings.Len())
}

// typeFor returns the type a binding of typeName loads against: the enabled
// declaration, else the first one, else nil.
func (m *Manager) typeFor(typeName string) *manifest.BindingTypeDescriptor {
	if td, ok := m.types.GetEnabled(typeName); ok {
		return td
	}
	if td, err := m.types.Get(typeName); err == nil {
		return td
	}
	return nil
}

// Bindings returns one descriptor per binding UUID matching criteria: the
// enabled declaration if it matches, else the first matching one.
func (m *Manager) Bindings(criteria manifest.BindingCriteria) []*manifest.BindingDescriptor {
	m.ensureLoaded()
	var out []*manifest.BindingDescriptor
	for _, id := range m.bindings.Keys() {
		all, _ := m.bindings.ListAll(id)
		var chosen *manifest.BindingDescriptor
		for _, d := range all {
			if !criteria.Matches(d) {
				continue
			}
			if chosen == nil || (d.IsEnabled() && !chosen.IsEnabled()) {
				chosen = d
			}
		}
		if chosen != nil {
			out = append(out, chosen)
		}
	}
	return out
}

// FindBindingDescriptors returns every loaded declaration matching criteria.
func (m *Manager) FindBindingDescriptors(criteria manifest.BindingCriteria) []*manifest.BindingDescriptor {
	m.ensureLoaded()
	var out []*manifest.BindingDescriptor
	for _, id := range m.bindings.Keys() {
		all, _ := m.bindings.ListAll(id)
		for _, d := range all {
			if criteria.Matches(d) {
				out = append(out, d)
			}
		}
	}
	return out
}

// HasBindings reports whether any declaration matches criteria.
func (m *Manager) HasBindings(criteria manifest.BindingCriteria) bool {
	return len(m.FindBindingDescriptors(criteria)) > 0
}

// BindingDescriptor returns the declaration of a binding by a package.
func (m *Manager) BindingDescriptor(id uuid.UUID, packageName string) (*manifest.BindingDescriptor, error) {
	m.ensureLoaded()
	d, err := m.bindings.GetForPackage(id, packageName)
	if err != nil {
		return nil, &BindingNotFoundError{UUID: id, Package: packageName}
	}
	return d, nil
}

// TypeDescriptors returns the loaded type declarations, restricted to the
// given packages if any are named.
func (m *Manager) TypeDescriptors(packageNames ...string) []*manifest.BindingTypeDescriptor {
	m.ensureLoaded()
	var out []*manifest.BindingTypeDescriptor
	for _, name := range m.types.Keys() {
		all, _ := m.types.ListAll(name)
		for _, td := range all {
			if len(packageNames) == 0 || containsPackage(packageNames, td.ContainingPackage()) {
				out = append(out, td)
			}
		}
	}
	return out
}

// TypeDescriptor returns the declaration of a type by a package.
func (m *Manager) TypeDescriptor(name, packageName string) (*manifest.BindingTypeDescriptor, error) {
	m.ensureLoaded()
	td, err := m.types.GetForPackage(name, packageName)
	if err != nil {
		return nil, &TypeNotFoundError{Name: name}
	}
	return td, nil
}

// HasTypeDescriptor reports whether any package declares the type.
func (m *Manager) HasTypeDescriptor(name string) bool {
	m.ensureLoaded()
	return m.types.Contains(name)
}

func containsPackage(names []string, pkg *manifest.Package) bool {
	return pkg != nil && slices.Contains(names, pkg.Name())
}

// mustSucceed panics on errors that only a broken invariant can cause, such
// as loading a descriptor that is already loaded.
func mustSucceed(err error) {
	if err != nil {
		panic(fmt.Sprintf("discovery: inconsistent descriptor state: %v", err))
	}
}
