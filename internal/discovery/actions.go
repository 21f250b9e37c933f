// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/pkgbind/pkgbind/internal/transaction"
	"github.com/pkgbind/pkgbind/pkg/manifest"
)

// AddBindingType declares td in the root package and defines it in the
// registry if it becomes the enabled declaration. Bindings of the type are
// reloaded, so held back bindings become live.
func (m *Manager) AddBindingType(ctx context.Context, td *manifest.BindingTypeDescriptor, opts AddTypeOptions) error {
	m.ensureLoaded()
	name := td.Name()
	previous, hasPrevious := m.rootFile().TypeDescriptor(name)
	if hasPrevious && !opts.Override {
		return &DuplicateTypeError{Name: name}
	}

	syncType := m.newSyncTypeName(name)

	ops := []transaction.Operation{&addTypeToManifest{file: m.rootFile(), td: td}}
	if hasPrevious && previous != td {
		ops = append(ops, transaction.Intercept(&unloadType{m: m, td: previous},
			m.duplicateMarksForTypeName(name), m.reloadByTypeName(name)))
	}
	ops = append(ops,
		transaction.Intercept(&loadType{m: m, td: td, pkg: m.root},
			m.duplicateMarksForTypeName(name), m.reloadByTypeName(name)),
		syncType,
		m.save(ctx),
	)

	if err := transaction.Run(ops); err != nil {
		return err
	}
	m.logger.Debug("binding type added", "type", name)
	return nil
}

// RemoveBindingType removes the root package's declaration of a type. If
// only other packages declare it, nothing changes and a warning names them.
func (m *Manager) RemoveBindingType(ctx context.Context, name string) error {
	m.ensureLoaded()
	td, ok := m.rootFile().TypeDescriptor(name)
	if !ok {
		if pkgs := m.types.PackageNames(name); len(pkgs) > 0 {
			m.logger.Warn("binding type is not declared by the root package and cannot be removed",
				"type", name, "packages", strings.Join(pkgs, ", "))
			return nil
		}
		return &TypeNotFoundError{Name: name}
	}

	syncType := m.newSyncTypeName(name)

	ops := []transaction.Operation{
		&removeTypeFromManifest{file: m.rootFile(), name: name},
		transaction.Intercept(&unloadType{m: m, td: td},
			m.duplicateMarksForTypeName(name), m.reloadByTypeName(name)),
		syncType,
		m.save(ctx),
	}

	if err := transaction.Run(ops); err != nil {
		return err
	}
	m.warnDuplicateType(name)
	m.logger.Debug("binding type removed", "type", name)
	return nil
}

// AddBinding declares bd in the root package and binds it if it becomes
// the enabled declaration of its UUID.
func (m *Manager) AddBinding(ctx context.Context, bd *manifest.BindingDescriptor, opts AddBindingOptions) error {
	m.ensureLoaded()
	if err := m.validateBinding(bd, opts); err != nil {
		return err
	}

	id := bd.UUID()
	existing, hasExisting := m.rootFile().BindingDescriptor(id)
	if hasExisting && !opts.Override {
		return &DuplicateBindingError{UUID: id}
	}

	sync := m.newSyncBindingUUID(id)
	ops := []transaction.Operation{&addBindingToManifest{file: m.rootFile(), bd: bd}}
	if hasExisting && existing != bd {
		ops = append(ops, transaction.Intercept(&unloadBinding{m: m, bd: existing},
			m.overrideMarksForUUID(id), m.duplicateMarksForUUID(id)))
	}
	ops = append(ops,
		transaction.Intercept(&loadBinding{m: m, bd: bd, pkg: m.root},
			m.overrideMarksForUUID(id), m.duplicateMarksForUUID(id)),
		sync,
		m.save(ctx),
	)

	if err := transaction.Run(ops); err != nil {
		return err
	}
	m.logger.Debug("binding added", "binding", id, "query", bd.Query(), "type", bd.TypeName())
	return nil
}

func (m *Manager) validateBinding(bd *manifest.BindingDescriptor, opts AddBindingOptions) error {
	name := bd.TypeName()
	if !m.types.Contains(name) {
		if opts.IgnoreTypeNotFound {
			return nil
		}
		return &TypeNotFoundError{Name: name}
	}
	td, ok := m.types.GetEnabled(name)
	if !ok {
		if opts.IgnoreTypeNotEnabled {
			return nil
		}
		return &TypeNotEnabledError{Name: name}
	}
	if errs := td.BindingType().ValidateParameters(bd.ParameterValues()); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// RemoveBinding removes the root package's declaration of a binding.
func (m *Manager) RemoveBinding(ctx context.Context, id uuid.UUID) error {
	m.ensureLoaded()
	bd, ok := m.rootFile().BindingDescriptor(id)
	if !ok {
		return &BindingNotFoundError{UUID: id, Package: m.root.Name()}
	}

	sync := m.newSyncBindingUUID(id)
	ops := []transaction.Operation{
		&removeBindingFromManifest{file: m.rootFile(), id: id},
		transaction.Intercept(&unloadBinding{m: m, bd: bd},
			m.overrideMarksForUUID(id), m.duplicateMarksForUUID(id)),
		sync,
		m.save(ctx),
	}
	if err := transaction.Run(ops); err != nil {
		return err
	}
	m.logger.Debug("binding removed", "binding", id)
	return nil
}

// EnableBinding enables a binding declared by installed packages, limited
// to the named packages if any are given.
func (m *Manager) EnableBinding(ctx context.Context, id uuid.UUID, packageNames ...string) error {
	return m.toggleBinding(ctx, id, packageNames, true)
}

// DisableBinding disables a binding declared by installed packages, limited
// to the named packages if any are given.
func (m *Manager) DisableBinding(ctx context.Context, id uuid.UUID, packageNames ...string) error {
	return m.toggleBinding(ctx, id, packageNames, false)
}

func (m *Manager) toggleBinding(ctx context.Context, id uuid.UUID, packageNames []string, enable bool) error {
	m.ensureLoaded()
	targets, err := m.toggleTargets(id, packageNames, enable)
	if err != nil {
		return err
	}

	sync := m.newSyncBindingUUID(id)
	var ops []transaction.Operation
	for _, d := range targets {
		var op transaction.Operation
		info := d.ContainingPackage().InstallInfo()
		if enable {
			op = &enableBindingUUID{info: info, id: id}
		} else {
			op = &disableBindingUUID{info: info, id: id}
		}
		ops = append(ops, transaction.Intercept(op,
			m.reloadByUUID(id), m.overrideMarksForUUID(id), m.duplicateMarksForUUID(id)))
	}
	ops = append(ops, sync, m.save(ctx))

	if err := transaction.Run(ops); err != nil {
		return err
	}
	m.logger.Debug("binding toggled", "binding", id, "enabled", enable)
	return nil
}

// toggleTargets returns the declarations to enable or disable. Root
// declarations, held back and ignored bindings cannot be toggled.
func (m *Manager) toggleTargets(id uuid.UUID, packageNames []string, enable bool) ([]*manifest.BindingDescriptor, error) {
	all, err := m.bindings.ListAll(id)
	if err != nil {
		return nil, &BindingNotFoundError{UUID: id}
	}
	if len(packageNames) > 0 {
		all = slices.DeleteFunc(all, func(d *manifest.BindingDescriptor) bool {
			return !containsPackage(packageNames, d.ContainingPackage())
		})
		if len(all) == 0 {
			return nil, &BindingNotFoundError{UUID: id, Package: strings.Join(packageNames, ", ")}
		}
	}

	for _, d := range all {
		pkg := d.ContainingPackage()
		reason := ""
		switch {
		case pkg.IsRoot() || pkg.InstallInfo() == nil:
			reason = "bindings of the root package are always enabled; remove the binding instead"
		case d.State() == manifest.BindingHeldBack:
			reason = "its binding type is not loaded or not enabled"
		case d.State() == manifest.BindingIgnored:
			reason = "its parameters do not match the binding type"
		}
		if reason == "" {
			continue
		}
		if enable {
			return nil, &CannotEnableBindingError{UUID: id, Package: pkg.Name(), Reason: reason}
		}
		return nil, &CannotDisableBindingError{UUID: id, Package: pkg.Name(), Reason: reason}
	}
	return all, nil
}

func (m *Manager) newSyncBindingUUID(id uuid.UUID) *syncBindingUUID {
	op := &syncBindingUUID{m: m, id: id}
	op.TakeSnapshot()
	return op
}

func (m *Manager) newSyncTypeName(name string) *syncTypeName {
	op := &syncTypeName{m: m, name: name}
	op.TakeSnapshot()
	return op
}

func (m *Manager) save(ctx context.Context) transaction.Operation {
	return &saveRootPackageFile{ctx: ctx, storage: m.storage, file: m.rootFile()}
}
